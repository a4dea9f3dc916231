// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/debtlens/pkg/lang"
)

func TestIsSimpleConstructor_MatchesNewWithLowComplexity(t *testing.T) {
	fn := lang.FunctionRecord{
		Name:        "new",
		Cyclomatic:  1,
		Cognitive:   0,
		MaxNesting:  0,
		LengthLines: 4,
		CodeText:    "fn new(x: i32) -> Self { Self { x } }",
	}
	assert.True(t, IsSimpleConstructor(fn, DefaultConstructorConfig()))
}

func TestIsSimpleConstructor_RejectsComplexBody(t *testing.T) {
	fn := lang.FunctionRecord{
		Name:        "new",
		Cyclomatic:  6,
		Cognitive:   8,
		MaxNesting:  3,
		LengthLines: 40,
	}
	assert.False(t, IsSimpleConstructor(fn, DefaultConstructorConfig()))
}

func TestIsDebugFunction_NamePatternWithinCognitiveBudget(t *testing.T) {
	fn := lang.FunctionRecord{Name: "debug_summary", Cognitive: 9}
	assert.True(t, IsDebugFunction(fn))
}

func TestIsDebugFunction_NamePatternTooComplex(t *testing.T) {
	fn := lang.FunctionRecord{Name: "debug_summary", Cognitive: 11}
	assert.False(t, IsDebugFunction(fn))
}

func TestIsEnumConverter_ExhaustiveLiteralMatch(t *testing.T) {
	fn := lang.FunctionRecord{
		Cognitive: 2,
		CodeText: `fn as_str(&self) -> &str {
    match self {
        Color::Red => "red",
        Color::Blue => "blue",
    }
}`,
	}
	assert.True(t, IsEnumConverter(fn))
}

func TestIsEnumConverter_RejectsArmWithCall(t *testing.T) {
	fn := lang.FunctionRecord{
		Cognitive: 2,
		CodeText: `fn describe(&self) -> String {
    match self {
        Color::Red => format!("red"),
        Color::Blue => "blue".to_string(),
    }
}`,
	}
	assert.False(t, IsEnumConverter(fn))
}

func TestIsPatternMatchingFunction_HighCognitiveToCyclomaticRatio(t *testing.T) {
	fn := lang.FunctionRecord{Name: "classify_token", Cyclomatic: 2, Cognitive: 15}
	assert.True(t, IsPatternMatchingFunction(fn))
}

func TestIsOrchestrator_RejectsSingleDelegation(t *testing.T) {
	fn := lang.FunctionRecord{Name: "process_request", Cyclomatic: 2, LengthLines: 10}
	assert.False(t, IsOrchestrator(fn, []string{"handle_one"}))
}

func TestIsOrchestrator_AcceptsMultiDelegationWithRatio(t *testing.T) {
	fn := lang.FunctionRecord{Name: "process_request", Cyclomatic: 3, LengthLines: 10}
	assert.True(t, IsOrchestrator(fn, []string{"validate", "persist", "notify"}))
}

// Invariant 7: no function lacking any enum/tuple match pattern is
// classified as a state machine.
func TestDetectStateMachine_RequiresEnumOrTupleMatch(t *testing.T) {
	fn := lang.FunctionRecord{
		CodeText: `fn total(items: &[i32]) -> i32 {
    let mut sum = 0;
    for i in items { sum += i; }
    sum
}`,
	}
	signals := DetectStateMachine(fn)
	assert.False(t, signals.HasEnumMatch)
	assert.False(t, signals.IsStateMachine())
}

// S5 — state machine match.
func TestDetectStateMachine_TupleMatchOnModeFields(t *testing.T) {
	fn := lang.FunctionRecord{
		CodeText: `fn transition(current: &St, desired: &St, acts: &mut Vec<Act>) {
    match (current.mode, desired.mode) {
        (Mode::A, Mode::B) => acts.push(Act::X),
        (Mode::B, Mode::A) => acts.push(Act::Y),
        _ => {}
    }
}`,
	}
	signals := DetectStateMachine(fn)
	require.True(t, signals.HasEnumMatch)
	assert.Equal(t, 1, signals.MatchExpressionCount)
	assert.GreaterOrEqual(t, signals.TransitionCount, 1)
	assert.GreaterOrEqual(t, signals.Confidence, 0.5)
}

// Invariant 8: a function whose push targets are ≥50% named
// error/errors/issue/warning/invalid is not classified as a coordinator.
func TestDetectCoordinator_RejectsErrorAccumulation(t *testing.T) {
	fn := lang.FunctionRecord{
		CodeText: `fn validate(email: &str, name: &str) -> Vec<String> {
    let mut errors = vec![];
    if email.is_empty() { errors.push("email required".to_string()); }
    if name.is_empty() { errors.push("name required".to_string()); }
    if name.len() > 100 { errors.push("name too long".to_string()); }
    errors
}`,
	}
	signals := DetectCoordinator(fn)
	assert.False(t, signals.IsCoordinator())
}

func TestDetectCoordinator_AcceptsStateAwareActionAccumulation(t *testing.T) {
	fn := lang.FunctionRecord{
		CodeText: `fn reconcile(current: &St, desired: &St) -> Vec<Action> {
    let mut actions = vec![];
    if current.state != desired.state {
        actions.push(Action::Transition);
    }
    if current.mode != desired.mode {
        actions.push(Action::Retarget);
    }
    if current.phase != desired.phase {
        actions.push(Action::Advance);
    }
    dispatch_helper(&actions);
    actions
}`,
	}
	signals := DetectCoordinator(fn)
	assert.GreaterOrEqual(t, signals.StateComparisonCount, 2)
	assert.GreaterOrEqual(t, signals.ActionPushCount, 3)
	assert.True(t, signals.IsCoordinator())
}

// S4 — guard chain.
func TestMatchGuardChainSequences_ThreeConsecutiveGuards(t *testing.T) {
	fn := lang.FunctionRecord{
		StartLine: 1,
		CodeText: `fn check(a: i32, b: i32, c: i32) -> Result<(), Error> {
    if a < 0 { return Err(Error::Negative); }
    if b < 0 { return Err(Error::Negative); }
    if c < 0 { return Err(Error::Negative); }
    Ok(())
}`,
	}
	patterns := MatchGuardChainSequences(fn)
	require.Len(t, patterns, 1)
	assert.Equal(t, 3, patterns[0].ChecksCount)

	ctx := AnalysisContext{ComplexityBefore: 4}
	scored := MatchExtractionPatterns(fn, ctx, "rust")
	var guard *MatchedPattern
	for i := range scored {
		if scored[i].Kind == PatternGuardChainSequence {
			guard = &scored[i]
		}
	}
	require.NotNil(t, guard)
	assert.Contains(t, guard.SuggestedName, "validate")
}

func TestMatchTransformationPipelines_ConsecutiveStagesFormOnePipeline(t *testing.T) {
	fn := lang.FunctionRecord{
		StartLine: 1,
		CodeText:  `fn totals(items: &Vec<i32>) -> Vec<i32> { items.iter().filter(|x| **x > 0).map(|x| x * 2).collect() }`,
		Transformations: []lang.Transformation{
			{Kind: lang.TransformFilter, Line: 1},
			{Kind: lang.TransformMap, Line: 1},
			{Kind: lang.TransformCollect, Line: 1},
		},
	}
	patterns := MatchTransformationPipelines(fn)
	require.Len(t, patterns, 1)
	assert.Equal(t, 3, patterns[0].StageCount)
}

func TestScorePattern_AccumulationLoopHighConfidence(t *testing.T) {
	p := MatchedPattern{Kind: PatternAccumulationLoop}
	ctx := AnalysisContext{ComplexityBefore: 3, HasSideEffects: false}
	score := scorePattern(p, ctx)
	assert.Greater(t, score, 0.8)
}

func TestInferName_GuardChainContainsValidate(t *testing.T) {
	p := MatchedPattern{Kind: PatternGuardChainSequence, ChecksCount: 3}
	name := inferName(p, "rust")
	assert.Contains(t, name, "validate")
}

func TestInferName_CamelCaseForJavaScript(t *testing.T) {
	p := MatchedPattern{Kind: PatternGuardChainSequence, ChecksCount: 1}
	name := inferName(p, "javascript")
	assert.Equal(t, "validatePrecondition", name)
}
