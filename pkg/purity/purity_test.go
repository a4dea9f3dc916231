// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package purity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/debtlens/pkg/extract"
	"github.com/kraklabs/debtlens/pkg/lang"
)

func analyzeSource(t *testing.T, path string, src string) lang.FunctionRecord {
	t.Helper()
	s := extract.NewSession()
	fm, err := s.ExtractFile(path, []byte(src))
	require.NoError(t, err)
	require.NotEmpty(t, fm.Functions)
	fn := fm.Functions[0]
	fn.Purity = Analyze(&fn, nil)
	return fn
}

// S1: a pure arithmetic function classifies StrictlyPure with full confidence.
func TestAnalyze_PureAddIsStrictlyPure(t *testing.T) {
	fn := analyzeSource(t, "lib.rs", `
pub fn add(a: i32, b: i32) -> i32 {
    a + b
}
`)
	assert.Equal(t, lang.StrictlyPure, fn.Purity.Level)
	assert.Equal(t, 1.0, fn.Purity.Confidence)
	assert.Empty(t, fn.Purity.ImpurityReasons)
}

// S2: println! forces Impure and a sub-1.0 confidence ceiling.
func TestAnalyze_PrintlnIsImpure(t *testing.T) {
	fn := analyzeSource(t, "lib.rs", `
pub fn greet(name: &str) {
    println!("hello {}", name);
}
`)
	assert.Equal(t, lang.Impure, fn.Purity.Level)
	assert.Less(t, fn.Purity.Confidence, 1.0)
	assert.Contains(t, fn.Purity.ImpurityReasons, "performs I/O")
}

// S3: a &mut self field mutation is External -> Impure.
func TestAnalyze_SelfFieldMutationIsImpure(t *testing.T) {
	fn := analyzeSource(t, "lib.rs", `
impl Counter {
    pub fn increment(&mut self) {
        self.count = self.count + 1;
    }
}
`)
	assert.Equal(t, lang.Impure, fn.Purity.Level)
	assert.Contains(t, fn.Purity.ImpurityReasons, "mutates state outside its own scope")
}

// The consuming-builder case: self.field mutation through owned self is
// Local, not External -> LocallyPure, not Impure.
func TestAnalyze_BuilderPatternIsLocallyPure(t *testing.T) {
	fn := analyzeSource(t, "lib.rs", `
impl Config {
    pub fn with_value(mut self, value: u32) -> Self {
        self.value = value;
        self
    }
}
`)
	assert.Equal(t, lang.LocallyPure, fn.Purity.Level)
}

// A local-only mutation (no external state touched) is LocallyPure with
// confidence still above 0.85, mirroring the teacher's own
// test_local_mutation_is_locally_pure bound.
func TestAnalyze_LocalMutationOnlyIsLocallyPure(t *testing.T) {
	fn := analyzeSource(t, "lib.rs", `
pub fn process_data(input: i32) -> i32 {
    let mut result = 0;
    result = input * 2;
    result
}
`)
	assert.Equal(t, lang.LocallyPure, fn.Purity.Level)
	assert.Greater(t, fn.Purity.Confidence, 0.85)
}

// S3 (spec scenario): calling a known mutating method on a local receiver
// is a Local mutation, not a no-op -- LocallyPure with "r" recorded, not
// StrictlyPure.
func TestAnalyze_MutatingMethodCallOnLocalIsLocallyPure(t *testing.T) {
	fn := analyzeSource(t, "lib.rs", `
pub fn double_into(x: i32) -> Vec<i32> {
    let mut r = Vec::new();
    r.push(x * 2);
    r
}
`)
	assert.Equal(t, lang.LocallyPure, fn.Purity.Level)
	assert.Contains(t, fn.Purity.LocalMutations, "r")
}

func TestAnalyze_MutatingMethodCallOnLocal_Python(t *testing.T) {
	fn := analyzeSource(t, "mod.py", `
def double_into(x):
    r = []
    r.append(x * 2)
    return r
`)
	assert.Equal(t, lang.LocallyPure, fn.Purity.Level)
	assert.Contains(t, fn.Purity.LocalMutations, "r")
}

func TestAnalyze_MutatingMethodCallOnLocal_JS(t *testing.T) {
	fn := analyzeSource(t, "mod.js", `
function doubleInto(x) {
    let r = [];
    r.push(x * 2);
    return r;
}
`)
	assert.Equal(t, lang.LocallyPure, fn.Purity.Level)
	assert.Contains(t, fn.Purity.LocalMutations, "r")
}

// A mutating call on an External receiver (through &mut self) stays
// External, same as the equivalent assignment would be.
func TestAnalyze_MutatingMethodCallOnSelfFieldIsImpure(t *testing.T) {
	fn := analyzeSource(t, "lib.rs", `
impl Buffer {
    pub fn record(&mut self, x: i32) {
        self.items.push(x);
    }
}
`)
	assert.Equal(t, lang.Impure, fn.Purity.Level)
}

// Pure-unsafe: a read through a raw pointer with no I/O, no mutation. Per
// spec §4.2 this does not lower the level below what the other signals
// already produce -- here, StrictlyPure -- only confidence is capped.
func TestAnalyze_PureUnsafeStaysStrictlyPure(t *testing.T) {
	fn := analyzeSource(t, "lib.rs", `
pub fn read_raw(p: *const i32) -> i32 {
    unsafe { *p }
}
`)
	assert.Equal(t, lang.StrictlyPure, fn.Purity.Level)
	assert.Greater(t, fn.Purity.Confidence, 0.80)
	assert.Less(t, fn.Purity.Confidence, 0.90)
}

// Pure-unsafe combined with a local-only mutation stays LocallyPure, not
// demoted to ReadOnly.
func TestAnalyze_UnsafeWithLocalMutationStaysLocallyPure(t *testing.T) {
	fn := analyzeSource(t, "lib.rs", `
pub fn read_and_store(p: *const i32) -> i32 {
    let mut total = 0;
    total = total + unsafe { *p };
    total
}
`)
	assert.Equal(t, lang.LocallyPure, fn.Purity.Level)
}

// A reference to an unqualified constant-shaped path (i32::MAX) never
// counts as accessing external state of unknown purity.
func TestAnalyze_KnownConstantPathStaysStrictlyPure(t *testing.T) {
	fn := analyzeSource(t, "lib.rs", `
pub fn clamp_to_max(x: i32) -> i32 {
    if x > i32::MAX { i32::MAX } else { x }
}
`)
	assert.Equal(t, lang.StrictlyPure, fn.Purity.Level)
}

// A reference to an unrecognized external path is ReadOnly: it accesses
// external state of unknown purity, but performs no I/O and no mutation.
func TestAnalyze_UnknownExternalPathIsReadOnly(t *testing.T) {
	fn := analyzeSource(t, "lib.rs", `
pub fn timeout_secs() -> u32 {
    config::timeout_value
}
`)
	assert.Equal(t, lang.ReadOnly, fn.Purity.Level)
	assert.Contains(t, fn.Purity.ImpurityReasons, "references a path of unknown purity outside its own scope")
}

func TestAnalyze_UndefinedPythonVariableDoesNotAffectPurityLevel(t *testing.T) {
	// A static error (undefined name) is an orthogonal debt signal (pkg/extract
	// surfaces it directly as a DebtItem); it must not by itself force Impure.
	fn := analyzeSource(t, "mod.py", `
def risky():
    return undefined_value + 1
`)
	assert.NotEqual(t, lang.Impure, fn.Purity.Level)
}

func TestAggregateCalleePurity_UnknownDoesNotForceImpure(t *testing.T) {
	isPure, confidence, reasons := AggregateCalleePurity([]CalleeEvidence{
		{CalleeName: "external_crate::frob", Purity: CalleeUnknown},
	})
	assert.True(t, isPure)
	assert.Less(t, confidence, 1.0)
	assert.Empty(t, reasons)
}

func TestAggregateCalleePurity_ImpureCalleePropagates(t *testing.T) {
	isPure, _, reasons := AggregateCalleePurity([]CalleeEvidence{
		{CalleeName: "println", Purity: CalleeAnalyzedImpure},
	})
	assert.False(t, isPure)
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "println")
}

func TestIsKnownPureCall(t *testing.T) {
	assert.True(t, isKnownPureCall("map", "Option"))
	assert.True(t, isKnownPureCall("and_then", "Result"))
	assert.True(t, isKnownPureCall("fold", "Iterator"))
	assert.False(t, isKnownPureCall("push", "Vec"))
}

func TestIsKnownPureMethod(t *testing.T) {
	assert.True(t, isKnownPureMethod("map"))
	assert.True(t, isKnownPureMethod("clone"))
	assert.False(t, isKnownPureMethod("println"))
	assert.False(t, isKnownPureMethod("push"))
}
