// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/debtlens/pkg/lang"
)

// S1: a pure arithmetic function in Rust produces no mutations, no I/O,
// and no unsafe — the raw facts pkg/purity needs to classify it StrictlyPure.
func TestExtractRust_PureAdd(t *testing.T) {
	src := []byte(`
pub fn add(a: i32, b: i32) -> i32 {
    a + b
}
`)
	s := NewSession()
	fm, err := s.ExtractFile("lib.rs", src)
	require.NoError(t, err)
	require.Len(t, fm.Functions, 1)

	fn := fm.Functions[0]
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, "public", fn.Visibility)
	assert.Equal(t, 1, fn.Cyclomatic)
	assert.Empty(t, fn.IOOperations)
	assert.False(t, fn.Purity.HasUnsafe)
	assert.Equal(t, []string{"a", "b"}, fn.ParameterNames)
}

// S2: a println!-calling function must surface an IOConsole operation so
// pkg/purity can mark it Impure downstream.
func TestExtractRust_PrintlnIsIO(t *testing.T) {
	src := []byte(`
pub fn greet(name: &str) {
    println!("hello {}", name);
}
`)
	s := NewSession()
	fm, err := s.ExtractFile("lib.rs", src)
	require.NoError(t, err)
	require.Len(t, fm.Functions, 1)

	fn := fm.Functions[0]
	require.Len(t, fn.IOOperations, 1)
	assert.Equal(t, lang.IOConsole, fn.IOOperations[0].Category)
}

// A function that mutates a field through &mut self must record an External
// mutation of that field (ReceiverType populated, SelfByMutRef set), the
// mutation-scope verdict pkg/purity consumes.
func TestExtractRust_SelfFieldMutation(t *testing.T) {
	src := []byte(`
impl Counter {
    pub fn increment(&mut self) {
        self.count = self.count + 1;
    }
}
`)
	s := NewSession()
	fm, err := s.ExtractFile("lib.rs", src)
	require.NoError(t, err)
	require.Len(t, fm.Functions, 1)

	fn := fm.Functions[0]
	assert.Equal(t, "Counter", fn.ReceiverType)
	assert.Equal(t, "increment", fn.Name)
	assert.True(t, fn.SelfByMutRef)
	assert.True(t, fn.Purity.HasMutations)
	require.Len(t, fn.Purity.ExternalMutations, 1)
	assert.Equal(t, "self.count", fn.Purity.ExternalMutations[0])
}

// A consuming builder method (owned self, not &mut self) mutating a field
// is a Local mutation, not External — the builder-pattern case from
// mutation_scope.rs's self-kind distinction.
func TestExtractRust_BuilderPatternIsLocalMutation(t *testing.T) {
	src := []byte(`
impl Config {
    pub fn with_value(mut self, value: u32) -> Self {
        self.value = value;
        self
    }
}
`)
	s := NewSession()
	fm, err := s.ExtractFile("lib.rs", src)
	require.NoError(t, err)
	require.Len(t, fm.Functions, 1)

	fn := fm.Functions[0]
	assert.False(t, fn.SelfByMutRef)
	require.Len(t, fn.Purity.LocalMutations, 1)
	assert.Equal(t, "self.value", fn.Purity.LocalMutations[0])
	assert.Empty(t, fn.Purity.ExternalMutations)
}

// S4: a guard-chain (sequence of early-return ifs) in JS must produce one
// function with cyclomatic == number of guards + 1, and no nested-if depth
// increase for the flat chain.
func TestExtractJS_GuardChain(t *testing.T) {
	src := []byte(`
function validate(x) {
    if (x == null) return false;
    if (x < 0) return false;
    if (x > 100) return false;
    return true;
}
`)
	s := NewSession()
	fm, err := s.ExtractFile("validate.js", src)
	require.NoError(t, err)
	require.Len(t, fm.Functions, 1)

	fn := fm.Functions[0]
	assert.Equal(t, 4, fn.Cyclomatic) // base 1 + three guard ifs
	assert.Equal(t, 1, fn.MaxNesting)
}

// S5: a match over an enum with a wildcard arm must exclude the wildcard
// from the cyclomatic count (state-machine shape).
func TestExtractRust_MatchWildcardExcluded(t *testing.T) {
	src := []byte(`
pub fn describe(s: State) -> &'static str {
    match s {
        State::Idle => "idle",
        State::Running => "running",
        _ => "unknown",
    }
}
`)
	s := NewSession()
	fm, err := s.ExtractFile("lib.rs", src)
	require.NoError(t, err)
	require.Len(t, fm.Functions, 1)

	fn := fm.Functions[0]
	// base 1 + two non-wildcard arms == 3; wildcard arm contributes nothing.
	assert.Equal(t, 3, fn.Cyclomatic)
}

// S6: a Python function referencing an undefined name must surface a
// critical DebtItem via FindUndefinedNames, wired through recordUndefinedNames.
func TestExtractPython_UndefinedVariable(t *testing.T) {
	src := []byte(`
def risky():
    return undefined_value + 1
`)
	s := NewSession()
	fm, err := s.ExtractFile("mod.py", src)
	require.NoError(t, err)
	require.Len(t, fm.Functions, 1)

	require.Len(t, fm.DebtItems, 1)
	item := fm.DebtItems[0]
	assert.Equal(t, lang.DebtCodeSmell, item.Category)
	assert.Equal(t, lang.SeverityCritical, item.Severity)
}

// Python locals (params, loop vars, with-as, except-as) must never be
// flagged as undefined — mirrors python_static_errors.rs's own test suite.
func TestExtractPython_LocalsNotFlagged(t *testing.T) {
	src := []byte(`
def process(items):
    total = 0
    for item in items:
        with open(item) as f:
            try:
                total = total + len(f.read())
            except OSError as e:
                print(e)
    return total
`)
	s := NewSession()
	fm, err := s.ExtractFile("mod.py", src)
	require.NoError(t, err)
	assert.Empty(t, fm.DebtItems)
}

// A JS method mutating `this.field` is an External mutation (shared-by-
// reference receiver); a local `let` reassignment is a Local mutation.
func TestExtractJS_MutationScopes(t *testing.T) {
	src := []byte(`
class Counter {
    increment() {
        let delta = 1;
        delta = delta + 1;
        this.count = this.count + delta;
    }
}
`)
	s := NewSession()
	fm, err := s.ExtractFile("counter.js", src)
	require.NoError(t, err)
	require.Len(t, fm.Functions, 1)

	fn := fm.Functions[0]
	assert.True(t, fn.Purity.HasMutations)
	assert.Contains(t, fn.Purity.LocalMutations, "delta")
	assert.Contains(t, fn.Purity.ExternalMutations, "this.count")
}

// A Python method mutating self.attr is External; reassigning a local
// variable is Local.
func TestExtractPython_MutationScopes(t *testing.T) {
	src := []byte(`
class Counter:
    def increment(self):
        step = 1
        step = step + 1
        self.count = self.count + step
`)
	s := NewSession()
	fm, err := s.ExtractFile("counter.py", src)
	require.NoError(t, err)
	require.Len(t, fm.Functions, 1)

	fn := fm.Functions[0]
	assert.True(t, fn.Purity.HasMutations)
	assert.Contains(t, fn.Purity.LocalMutations, "step")
	assert.Contains(t, fn.Purity.ExternalMutations, "self.count")
}

func TestSession_ResetClearsPoolsNotCount(t *testing.T) {
	s := NewSession()
	_, _ = s.ExtractFile("lib.rs", []byte("pub fn f() {}"))
	s.Reset()
	assert.Equal(t, 1, s.ResetCount())
}

func TestExtractFile_UnknownExtensionErrors(t *testing.T) {
	s := NewSession()
	_, err := s.ExtractFile("README.md", []byte("# hi"))
	assert.Error(t, err)
}
