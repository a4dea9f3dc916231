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

// Role tags the semantic role a function plays, per spec §4.4's role
// classifiers. A function may legitimately match more than one; callers
// decide precedence.
type Role string

const (
	RoleConstructor   Role = "constructor"
	RoleDebug         Role = "debug"
	RoleEnumConverter Role = "enum_converter"
	RolePatternMatch  Role = "pattern_match"
	RoleOrchestrator  Role = "orchestrator"
	RoleIOWrapper     Role = "io_wrapper"
)

// ConstructorConfig carries the configurable constructor-detection knobs
// spec §6's Config collaborator supplies.
type ConstructorConfig struct {
	Patterns      []string
	MaxCyclomatic int
	MaxLength     int
	MaxNesting    int
	MaxCognitive  int
	ASTDetection  bool
}

// DefaultConstructorConfig mirrors the teacher's name-based defaults.
func DefaultConstructorConfig() ConstructorConfig {
	return ConstructorConfig{
		Patterns:      constructorNamePatterns,
		MaxCyclomatic: 2,
		MaxLength:     15,
		MaxNesting:    1,
		MaxCognitive:  3,
	}
}

// IsSimpleConstructor implements spec §4.4's "Simple constructor" rule.
func IsSimpleConstructor(fn lang.FunctionRecord, cfg ConstructorConfig) bool {
	nameMatches := matchesNamePattern(fn.Name, cfg.Patterns)
	isSimple := fn.Cyclomatic <= cfg.MaxCyclomatic &&
		fn.LengthLines < cfg.MaxLength &&
		fn.MaxNesting <= cfg.MaxNesting
	isInitialization := fn.Cognitive <= cfg.MaxCognitive
	return nameMatches && isSimple && isInitialization
}

// selfBodyPattern recognizes `Self { ... }` struct-literal initialization,
// the AST-variant signal of spec §4.4's enhanced constructor detection.
var selfBodyPattern = regexp.MustCompile(`Self\s*\{`)
var loopKeywordPattern = regexp.MustCompile(`\b(for|while|loop)\b`)

// IsConstructorEnhanced adds the optional AST-shaped variant: a function
// returning Self/Result<Self>/Option<Self>, whose body constructs Self{...}
// with no loops, and whose complexity stays within the looser enhanced
// bounds. Falls back to IsSimpleConstructor when AST detection is off or the
// function returns none of Self/Result/Option; a function that does return
// one of them but has no Self{...} literal, or has a loop, is not a
// constructor.
func IsConstructorEnhanced(fn lang.FunctionRecord, cfg ConstructorConfig) bool {
	if !cfg.ASTDetection {
		return IsSimpleConstructor(fn, cfg)
	}
	if !fn.ReturnsSelf && !fn.ReturnsResult && !fn.ReturnsOption {
		return IsSimpleConstructor(fn, cfg)
	}
	if !selfBodyPattern.MatchString(fn.CodeText) {
		return false
	}
	if loopKeywordPattern.MatchString(fn.CodeText) {
		return false
	}
	return fn.Cyclomatic <= 5 && fn.MaxNesting <= 2 && fn.LengthLines < 30
}

// IsDebugFunction implements spec §4.4's "Debug/diagnostic" rule.
func IsDebugFunction(fn lang.FunctionRecord) bool {
	if matchesNamePattern(fn.Name, debugNamePatterns) {
		return fn.Cognitive <= 10
	}
	return hasDiagnosticCharacteristics(fn)
}

func hasDiagnosticCharacteristics(fn lang.FunctionRecord) bool {
	isVerySimple := fn.Cognitive < 5 && fn.LengthLines < 20
	hasOutputName := containsAny(strings.ToLower(fn.Name), outputIOKeywords)
	return isVerySimple && hasOutputName
}

// exhaustiveSelfMatchPattern recognizes a `match self { ... }` body, the
// shape spec §4.4's enum-converter rule requires.
var exhaustiveSelfMatchPattern = regexp.MustCompile(`match\s+self\s*\{`)

// matchArmCallPattern finds an arm whose value starts with a function or
// macro call (`=> name(` / `=> name!(`); any such arm disqualifies a converter.
var matchArmCallPattern = regexp.MustCompile(`=>\s*[A-Za-z_][A-Za-z0-9_]*!?\s*\(`)

// IsEnumConverter implements spec §4.4's "Enum converter" rule: a method
// body that is a single exhaustive match on self where every arm returns a
// literal, at very low cognitive complexity.
func IsEnumConverter(fn lang.FunctionRecord) bool {
	if fn.Cognitive > 3 {
		return false
	}
	if !exhaustiveSelfMatchPattern.MatchString(fn.CodeText) {
		return false
	}
	// Any arm that calls a function (format!(), a constructor, ...) disqualifies it.
	return !matchArmCallPattern.MatchString(fn.CodeText)
}

// IsPatternMatchingFunction implements spec §4.4's "Pattern-matching
// function" rule: name suggests classification and cognitive/cyclomatic
// ratio is high (long if/else chains inflate cognitive without inflating
// cyclomatic).
func IsPatternMatchingFunction(fn lang.FunctionRecord) bool {
	nameMatches := containsAny(strings.ToLower(fn.Name), classificationNameHints)
	if !nameMatches || fn.Cyclomatic > 2 {
		return false
	}
	var ratio float64
	if fn.Cyclomatic > 0 {
		ratio = float64(fn.Cognitive) / float64(fn.Cyclomatic)
	} else {
		ratio = float64(fn.Cognitive)
	}
	return ratio > 5.0
}

func isMeaningfulCallee(name string) bool {
	if meaningfulCalleeExcludes[name] {
		return false
	}
	if hasAnyPrefix(name, meaningfulCalleeExcludePrefixes) {
		return false
	}
	return true
}

// IsOrchestrator implements spec §4.4's "Orchestrator" rule, consuming the
// resolved callee names reachable from this function's call sites (the
// teacher derives these from the call graph; we take them as a parameter
// since phase-2 resolution lives in a separate package).
func IsOrchestrator(fn lang.FunctionRecord, calleeNames []string) bool {
	var meaningful []string
	for _, c := range calleeNames {
		if isMeaningfulCallee(c) {
			meaningful = append(meaningful, c)
		}
	}

	if len(meaningful) > 0 && len(calleeNames) > len(meaningful) {
		functionalChain := true
		for _, c := range calleeNames {
			if isMeaningfulCallee(c) && !containsAny(c, functionalChainMarkers) {
				functionalChain = false
				break
			}
		}
		if functionalChain {
			return false
		}
	}

	if len(meaningful) == 1 {
		return false
	}
	if len(meaningful) < 2 {
		return false
	}

	delegationRatio := calculateDelegationRatio(fn, len(meaningful))

	nameSuggestsOrchestration := containsAny(strings.ToLower(fn.Name), orchestrationNameHints) && fn.Cyclomatic <= 5
	isSimpleDelegation := fn.Cyclomatic <= 5 && delegationRatio >= 0.2

	return nameSuggestsOrchestration || isSimpleDelegation
}

func calculateDelegationRatio(fn lang.FunctionRecord, meaningfulCalleeCount int) float64 {
	if fn.LengthLines == 0 {
		return 0.0
	}
	return float64(meaningfulCalleeCount) / float64(fn.LengthLines)
}

// IsIOWrapper implements spec §4.4's "I/O wrapper" rule.
func IsIOWrapper(fn lang.FunctionRecord) bool {
	if !containsAny(strings.ToLower(fn.Name), ioKeywords) {
		return false
	}
	if fn.LengthLines < 20 {
		return true
	}
	return fn.LengthLines <= 50 && isIOOrchestration(fn)
}

func isIOOrchestration(fn lang.FunctionRecord) bool {
	lower := strings.ToLower(fn.Name)
	return hasAnyPrefix(lower, strongIONamePrefixes) && fn.MaxNesting <= 3
}

// ClassifyRoles runs every role classifier and returns the set of roles a
// function matches, in spec-declaration order. A function matching none of
// these is left unclassified by this layer (plain "business logic").
func ClassifyRoles(fn lang.FunctionRecord, cfg ConstructorConfig, calleeNames []string) []Role {
	var roles []Role
	if IsConstructorEnhanced(fn, cfg) {
		roles = append(roles, RoleConstructor)
	}
	if IsDebugFunction(fn) {
		roles = append(roles, RoleDebug)
	}
	if IsEnumConverter(fn) {
		roles = append(roles, RoleEnumConverter)
	}
	if IsPatternMatchingFunction(fn) {
		roles = append(roles, RolePatternMatch)
	}
	if IsOrchestrator(fn, calleeNames) {
		roles = append(roles, RoleOrchestrator)
	}
	if IsIOWrapper(fn) {
		roles = append(roles, RoleIOWrapper)
	}
	return roles
}
