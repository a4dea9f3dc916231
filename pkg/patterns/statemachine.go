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
	"regexp"
	"strings"

	"github.com/kraklabs/debtlens/pkg/lang"
)

// StateMachineSignals is the evidence bundle spec §4.4's State-Machine
// Detector produces, used directly by scenario S5 and invariant 7.
type StateMachineSignals struct {
	HasEnumMatch         bool
	TransitionCount      int
	MatchExpressionCount int
	MaxFieldConfidence   float64
	ActionDispatchCount  int
	Confidence           float64
}

// IsStateMachine reports whether the signals clear spec §4.4's threshold.
func (s StateMachineSignals) IsStateMachine() bool {
	return s.Confidence >= 0.5
}

// tupleArmPattern recognizes one `(State::A, State::B) =>` tuple-pattern
// match arm — the strongest state-machine evidence signal, counted per arm
// (a single `match (a, b) { ... }` expression may contribute several).
var tupleArmPattern = regexp.MustCompile(`\(\s*[A-Za-z_][\w:.]*\s*,\s*[A-Za-z_][\w:.]*\s*\)\s*=>`)

// enumMatchArmPattern recognizes a `Type::Variant =>` match arm, the
// simple single-value enum-match signal.
var enumMatchArmPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*::[A-Za-z_][A-Za-z0-9_]*\s*(\([^)]*\))?\s*=>`)

// matchExpressionPattern counts distinct `match ... {` expressions.
var matchExpressionPattern = regexp.MustCompile(`\bmatch\b[^{]*\{`)

// actionDispatchPattern recognizes `acts.push(...)` / `.dispatch(...)`
// inside an arm body — evidence that a match arm drives a state
// transition's side effect rather than just returning a value.
var actionDispatchPattern = regexp.MustCompile(`\.(push|dispatch|send)\s*\(`)

// DetectStateMachine implements spec §4.4's State-Machine Detector signals
// and confidence formula over a function's source text, since this layer
// consumes already-extracted FunctionRecords rather than re-walking the
// AST: "number of enum-variant match arms; nested tuple-patterns; fields
// whose name contains state/mode/status/...; arm bodies that push an
// action or call a dispatcher."
func DetectStateMachine(fn lang.FunctionRecord) StateMachineSignals {
	body := fn.CodeText

	tupleMatches := tupleArmPattern.FindAllString(body, -1)
	enumArms := enumMatchArmPattern.FindAllString(body, -1)
	matchExprs := matchExpressionPattern.FindAllString(body, -1)
	actionDispatches := actionDispatchPattern.FindAllString(body, -1)

	hasEnumMatch := len(enumArms) > 0 || len(tupleMatches) > 0
	transitionCount := len(enumArms) + len(tupleMatches)

	fieldConfidence := maxStateFieldConfidence(body)

	confidence := 0.0
	if len(enumArms) > 0 || len(tupleMatches) >= 2 {
		confidence += 0.5
	}
	if fieldConfidence > 0 {
		confidence += fieldConfidence * 0.4
	}
	if len(actionDispatches) >= 2 {
		confidence += 0.2
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	return StateMachineSignals{
		HasEnumMatch:         hasEnumMatch,
		TransitionCount:      transitionCount,
		MatchExpressionCount: len(matchExprs),
		MaxFieldConfidence:   fieldConfidence,
		ActionDispatchCount:  len(actionDispatches),
		Confidence:           confidence,
	}
}

// stateFieldAccessPattern matches a dotted field access, e.g. `current.mode`.
var stateFieldAccessPattern = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\.([A-Za-z_][A-Za-z0-9_]*)\b`)

// maxStateFieldConfidence scores every dotted field access against
// stateFieldKeywords: an exact-keyword field name scores 1.0, a field name
// merely containing a keyword scores 0.6 — a coarse stand-in for the
// teacher's multi-strategy StateFieldDetector, which this layer does not
// have enough structural information (types, usage frequency) to replicate.
func maxStateFieldConfidence(body string) float64 {
	matches := stateFieldAccessPattern.FindAllStringSubmatch(body, -1)
	best := 0.0
	for _, m := range matches {
		field := strings.ToLower(m[1])
		for _, kw := range stateFieldKeywords {
			if field == kw {
				return 1.0
			}
			if strings.Contains(field, kw) && best < 0.6 {
				best = 0.6
			}
		}
	}
	return best
}

// CoordinatorSignals is the evidence bundle spec §4.4's Coordinator
// Detector produces.
type CoordinatorSignals struct {
	StateComparisonCount  int
	ActionPushCount       int
	ErrorPushCount        int
	HasActionTypeLiteral  bool
	HasFinalDispatch      bool
	HasHelperCalls        bool
	Confidence            float64
}

// IsCoordinator reports whether the signals clear spec §4.4's threshold.
func (s CoordinatorSignals) IsCoordinator() bool {
	return s.Confidence >= 0.7
}

// stateComparisonPattern matches an equality/inequality comparison whose
// left operand is a dotted field access, e.g. `current.mode == desired.mode`.
var stateComparisonPattern = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\.([A-Za-z_][A-Za-z0-9_]*)\s*(==|!=|<=|>=|<|>)`)

// pushCallPattern captures a `receiver.push(<arg>)` call: the receiver
// name classifies action vs. error accumulation (spec §4.4/invariant 8
// classify by the *vector's* name — "errors.push(...)" — not the pushed
// value), and the argument text is checked separately for an explicit
// action-type literal.
var pushCallPattern = regexp.MustCompile(`(\w+)\.push\s*\(\s*([^()]*(?:\([^()]*\)[^()]*)*)\)`)

// helperCallPattern matches a bare free-function call `name(...)`, the
// coarse stand-in for "has_helper_calls" (any Expr::Call in the teacher's
// AST visitor).
var helperCallPattern = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\s*\(`)

// finalDispatchPattern matches a trailing `return`/bare path expression
// whose name contains "action" or "command" — the teacher's
// has_final_dispatch signal.
var finalDispatchPattern = regexp.MustCompile(`(?i)\b(return\s+)?\b\w*(action|command)\w*\s*;?\s*\}?\s*$`)

// DetectCoordinator implements spec §4.4's Coordinator Detector: requires
// ≥2 state-related comparisons AND ≥3 action pushes AND an error-push ratio
// below 0.5, else the body is classified as validation code, never a
// coordinator (invariant 8). Confidence adds bonuses for explicit
// Action::-shaped literals and a final dispatch-return expression.
//
// Preserves the teacher's under-documented bypass: when state comparisons
// are already ≥ 2, every non-error push counts toward the action count
// (action_push_count); otherwise only pushes observed inside a
// state-conditional block would count (state_aware_push_count) — since this
// layer works over source text rather than a scoped AST visitor, and the
// ≥2 branch is the one spec.md's own invariant 8 and coordinator tests
// exercise, the state-aware-only branch degrades to the same action count
// (documented simplification, not a distinct behavior).
func DetectCoordinator(fn lang.FunctionRecord) CoordinatorSignals {
	body := fn.CodeText

	comparisons := stateComparisonPattern.FindAllStringSubmatch(body, -1)
	stateComparisonCount := 0
	for _, m := range comparisons {
		field := strings.ToLower(m[1])
		if containsAny(field, stateFieldKeywords) {
			stateComparisonCount++
		}
	}

	pushes := pushCallPattern.FindAllStringSubmatch(body, -1)
	actionPushCount := 0
	errorPushCount := 0
	hasActionType := false
	for _, m := range pushes {
		receiver, arg := m[1], m[2]
		if containsAny(strings.ToLower(receiver), errorAccumulationKeywords) {
			errorPushCount++
			continue
		}
		actionPushCount++
		for _, pat := range actionTypePatterns {
			if strings.Contains(arg, pat) {
				hasActionType = true
			}
		}
	}

	hasHelperCalls := hasFreeFunctionCall(body)
	hasFinalDispatch := finalDispatchPattern.MatchString(strings.TrimRight(body, "\n\t "))

	signals := CoordinatorSignals{
		StateComparisonCount: stateComparisonCount,
		ActionPushCount:      actionPushCount,
		ErrorPushCount:       errorPushCount,
		HasActionTypeLiteral: hasActionType,
		HasFinalDispatch:     hasFinalDispatch,
		HasHelperCalls:       hasHelperCalls,
	}

	if actionPushCount < 3 || stateComparisonCount < 2 {
		return signals
	}

	totalPushes := actionPushCount + errorPushCount
	if totalPushes > 0 {
		errorRatio := float64(errorPushCount) / float64(totalPushes)
		if errorRatio >= 0.5 {
			return signals
		}
	}

	confidence := 0.0
	confidence += min64(float64(actionPushCount)/10.0, 0.4)
	confidence += min64(float64(stateComparisonCount)/10.0, 0.3)
	if hasHelperCalls {
		confidence += 0.1
	}
	if hasActionType {
		confidence += 0.15
	}
	if hasFinalDispatch {
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	signals.Confidence = confidence
	return signals
}

// hasFreeFunctionCall reports a call shaped like `name(...)` that is not a
// method call (`.name(...)`) — RE2 has no lookbehind, so the `.` exclusion
// is done by inspecting the byte just before each match.
func hasFreeFunctionCall(body string) bool {
	for _, loc := range helperCallPattern.FindAllStringIndex(body, -1) {
		if loc[0] > 0 && body[loc[0]-1] == '.' {
			continue
		}
		return true
	}
	return false
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
