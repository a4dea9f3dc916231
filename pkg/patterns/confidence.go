// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package patterns

// AnalysisContext carries the enclosing-function facts the confidence
// scorer needs beyond the pattern match itself, per spec §4.4's
// "Confidence Scoring".
type AnalysisContext struct {
	ComplexityBefore  int
	HasSideEffects    bool
	DataDependencies  []string
}

// scorePattern implements spec §4.4's confidence formula: base score for
// the pattern kind × complexity factor × side-effect factor × dependency
// factor, clamped to 1.0. The base-score constants and factor breakpoints
// are taken verbatim from the corpus's confidence scorer.
func scorePattern(p MatchedPattern, ctx AnalysisContext) float64 {
	base := baseScore(p)
	complexity := complexityFactor(ctx.ComplexityBefore)
	sideEffect := 1.0
	if ctx.HasSideEffects {
		sideEffect = 0.70
	}
	dependency := dependencyFactor(len(ctx.DataDependencies))

	score := base * complexity * sideEffect * dependency
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func baseScore(p MatchedPattern) float64 {
	switch p.Kind {
	case PatternAccumulationLoop:
		base := 0.9
		if p.HasFilter {
			base *= 0.95
		}
		if p.HasTransform {
			base *= 0.95
		}
		return base
	case PatternGuardChainSequence:
		base := 0.95
		switch {
		case p.ChecksCount <= 3:
			base *= 1.0
		case p.ChecksCount <= 6:
			base *= 0.95
		case p.ChecksCount <= 10:
			base *= 0.9
		default:
			base *= 0.85
		}
		return base
	case PatternTransformationPipeline:
		base := 0.85
		stageFactor := 1.0 - float64(p.StageCount)*0.02
		if stageFactor < 0.7 {
			stageFactor = 0.7
		}
		return base * stageFactor
	case PatternSimilarBranches:
		base := 0.75
		branchFactor := 1.0 - float64(p.BranchCount)*0.05
		if branchFactor < 0.5 {
			branchFactor = 0.5
		}
		return base * branchFactor
	case PatternNestedExtraction:
		base := 0.70
		if len(p.Inner) == 0 {
			return base
		}
		var sum float64
		for _, inner := range p.Inner {
			sum += baseScore(inner)
		}
		return base * (sum / float64(len(p.Inner)))
	default:
		return 0.5
	}
}

// complexityFactor mirrors the corpus's cyclomatic breakpoints exactly:
// 0-5 → 1.0, 6-10 → 0.95, 11-15 → 0.9, 16-20 → 0.85, else 0.8.
func complexityFactor(cyclomatic int) float64 {
	switch {
	case cyclomatic <= 5:
		return 1.0
	case cyclomatic <= 10:
		return 0.95
	case cyclomatic <= 15:
		return 0.9
	case cyclomatic <= 20:
		return 0.85
	default:
		return 0.8
	}
}

// dependencyFactor mirrors the corpus's data-dependency breakpoints:
// 0 → 1.0, 1-2 → 0.95, 3-4 → 0.9, 5-7 → 0.85, else 0.8.
func dependencyFactor(count int) float64 {
	switch {
	case count == 0:
		return 1.0
	case count <= 2:
		return 0.95
	case count <= 4:
		return 0.9
	case count <= 7:
		return 0.85
	default:
		return 0.8
	}
}
