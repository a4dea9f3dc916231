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
	"strings"

	"github.com/kraklabs/debtlens/pkg/lang"
)

// pathClass is spec §4.2's Path-Purity Classifier verdict for a reference to
// a path/global outside the local scope: Constant (a well-known pure value,
// never mutated at runtime), ProbablyConstant (looks like a module-level
// constant by naming convention but isn't on the known-constant table), or
// Unknown (anything else — a reference to external state of unknown shape).
type pathClass int

const (
	pathConstant pathClass = iota
	pathProbablyConstant
	pathUnknown
)

// knownConstantPaths are well-known pure constants/constructors across the
// four supported languages: numeric limits and epsilons, circle constants,
// and the variant constructors of Option/Result.
// Referencing one of these never counts as "accessing external state" even
// though it textually looks like a path into another module.
var knownConstantPaths = map[string]bool{
	// Rust
	"i8::MAX": true, "i8::MIN": true, "i16::MAX": true, "i16::MIN": true,
	"i32::MAX": true, "i32::MIN": true, "i64::MAX": true, "i64::MIN": true,
	"u8::MAX": true, "u8::MIN": true, "u16::MAX": true, "u16::MIN": true,
	"u32::MAX": true, "u32::MIN": true, "u64::MAX": true, "u64::MIN": true,
	"usize::MAX": true, "usize::MIN": true, "isize::MAX": true, "isize::MIN": true,
	"f32::MAX": true, "f32::MIN": true, "f32::EPSILON": true, "f32::INFINITY": true, "f32::NAN": true,
	"f64::MAX": true, "f64::MIN": true, "f64::EPSILON": true, "f64::INFINITY": true, "f64::NAN": true,
	"std::f32::consts::PI": true, "std::f64::consts::PI": true,
	"std::f32::consts::E": true, "std::f64::consts::E": true,
	"f32::consts::PI": true, "f64::consts::PI": true,
	"Option::None": true, "Result::Ok": true, "Result::Err": true, "Option::Some": true,
	// Python
	"math.pi": true, "math.e": true, "math.tau": true, "math.inf": true, "math.nan": true,
	"sys.maxsize": true, "sys.float_info": true,
	// JS/TS
	"Math.PI": true, "Math.E": true, "Math.LN2": true, "Math.LN10": true,
	"Number.MAX_SAFE_INTEGER": true, "Number.MIN_SAFE_INTEGER": true,
	"Number.MAX_VALUE": true, "Number.MIN_VALUE": true,
	"Number.EPSILON": true, "Number.POSITIVE_INFINITY": true, "Number.NEGATIVE_INFINITY": true, "Number.NaN": true,
}

// classifyPathReference applies spec §4.2's Path-Purity Classifier to a
// textual path/attribute reference (e.g. "i32::MAX", "config.TIMEOUT",
// "self._cache"). The receiver/leaf split uses the last "::" or "."
// separator; a SCREAMING_CASE leaf is ProbablyConstant (a module-level
// constant by convention), anything else is conservatively Unknown.
func classifyPathReference(path string) pathClass {
	if knownConstantPaths[path] {
		return pathConstant
	}
	leaf := lastPathSegment(path)
	if leaf != "" && isScreamingCase(leaf) {
		return pathProbablyConstant
	}
	return pathUnknown
}

func lastPathSegment(path string) string {
	for _, sep := range []string{"::", "."} {
		if idx := strings.LastIndex(path, sep); idx != -1 {
			path = path[idx+len(sep):]
		}
	}
	return path
}

// isScreamingCase matches CONSTANT_NAME / CONSTANT2: all letters uppercase,
// digits and underscores allowed, at least one letter present.
func isScreamingCase(s string) bool {
	hasLetter := false
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return hasLetter
}

// recordPathReference applies the classifier to a path/attribute read that
// is not itself a call target (callee positions are already accounted for
// as call sites, not state reads) and feeds spec §4.2's "Unknown" verdict
// into UnknownPathCount, which pkg/purity.Analyze treats as evidence of
// accessing external state of unknown purity.
func recordPathReference(path string, rec *lang.FunctionRecord) {
	if path == "" {
		return
	}
	switch classifyPathReference(path) {
	case pathConstant, pathProbablyConstant:
		// known or conventionally-named constants carry no purity cost
	default:
		rec.Purity.UnknownPathCount++
	}
}
