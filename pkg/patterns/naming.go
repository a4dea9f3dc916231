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
	"fmt"
	"strings"
)

// inferName implements spec §4.4's Name Inference: derive a base verb from
// the pattern's structure, then format it for the target language.
func inferName(p MatchedPattern, language string) string {
	base := generateBaseName(p)
	return formatForLanguage(base, language)
}

func generateBaseName(p MatchedPattern) string {
	switch p.Kind {
	case PatternAccumulationLoop:
		opVerb := p.AccumulatorOp
		if opVerb == "" {
			opVerb = "collect"
		}
		var parts []string
		if p.HasFilter {
			parts = append(parts, "filter")
		}
		if p.HasTransform {
			parts = append(parts, "map")
		}
		parts = append(parts, opVerb, p.IteratorBinding)
		return strings.Join(parts, "_")

	case PatternGuardChainSequence:
		if p.ChecksCount == 1 {
			return "validate_precondition"
		}
		return fmt.Sprintf("validate_%d_preconditions", p.ChecksCount)

	case PatternTransformationPipeline:
		if p.StageCount == 1 {
			return fmt.Sprintf("transform_%s_to_%s", p.InputBinding, p.OutputType)
		}
		return fmt.Sprintf("process_%s_pipeline", p.InputBinding)

	case PatternSimilarBranches:
		return fmt.Sprintf("handle_%s_cases", p.ConditionVar)

	case PatternNestedExtraction:
		return fmt.Sprintf("process_%s_block", p.OuterScope)

	default:
		return "extracted_function"
	}
}

func formatForLanguage(name, language string) string {
	switch language {
	case "rust", "python":
		return name
	case "javascript", "typescript":
		return toCamelCase(name)
	default:
		return name
	}
}

func toCamelCase(snake string) string {
	var b strings.Builder
	capitalizeNext := false
	for _, r := range snake {
		switch {
		case r == '_':
			capitalizeNext = true
		case capitalizeNext:
			b.WriteRune(toUpperRune(r))
			capitalizeNext = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func toUpperRune(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
