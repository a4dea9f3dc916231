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

// PatternKind tags the five extraction-pattern shapes of spec §4.4's
// Extractable-Pattern Record.
type PatternKind int

const (
	PatternAccumulationLoop PatternKind = iota
	PatternGuardChainSequence
	PatternTransformationPipeline
	PatternSimilarBranches
	PatternNestedExtraction
)

// MatchedPattern is one matched extraction-pattern record, with the
// kind-specific payload spec §3's Extractable-Pattern Record names, plus
// its scored confidence and inferred name.
type MatchedPattern struct {
	Kind      PatternKind
	StartLine int
	EndLine   int

	// AccumulationLoop payload.
	IteratorBinding string
	AccumulatorOp   string
	HasFilter       bool
	HasTransform    bool

	// GuardChainSequence payload.
	ChecksCount int

	// TransformationPipeline payload.
	InputBinding string
	OutputType   string
	StageCount   int

	// SimilarBranches payload.
	ConditionVar string
	BranchCount  int

	// NestedExtraction payload.
	OuterScope string
	Inner      []MatchedPattern

	Confidence    float64
	SuggestedName string
}

// forLoopPattern recognizes a for-loop header and its iterator binding,
// grounded on Rust's `for x in iter {` and Python's `for x in iter:`.
var forLoopPattern = regexp.MustCompile(`for\s+(\w+)\s+in\s+([\w.\(\)]+)\s*[{:]`)

// accumulatorOpPattern recognizes the commutative mutation a loop body
// applies to a single accumulator.
var accumulatorOpPattern = regexp.MustCompile(`(\w+)\s*(\+=|\*=)|(\w+)\.(push|extend|append|insert)\s*\(`)

var loopFilterPattern = regexp.MustCompile(`if\s+[^{]*\{\s*continue\b`)
var loopTransformPattern = regexp.MustCompile(`let\s+\w+\s*=\s*\w+\s*\(\s*\w+\s*\)`)

// MatchAccumulationLoops implements spec §4.4's Accumulation-loop matcher.
func MatchAccumulationLoops(fn lang.FunctionRecord) []MatchedPattern {
	var out []MatchedPattern
	body := fn.CodeText
	for _, loc := range forLoopPattern.FindAllStringSubmatchIndex(body, -1) {
		iterVar := body[loc[2]:loc[3]]
		// loc[1]-1 is the loop header's trailing brace/colon itself (or one
		// before it); matchingBraceOrIndentEnd re-finds it so brace-depth
		// counting starts from the correct opening brace, not whatever `{`
		// happens to appear first inside the block.
		blockEnd := matchingBraceOrIndentEnd(body, loc[1]-1)
		block := body[loc[1]:blockEnd]

		opMatch := accumulatorOpPattern.FindStringSubmatch(block)
		if opMatch == nil {
			continue
		}
		op := classifyAccumulatorOp(opMatch, block)

		pattern := MatchedPattern{
			Kind:            PatternAccumulationLoop,
			StartLine:       fn.StartLine + strings.Count(body[:loc[0]], "\n"),
			EndLine:         fn.StartLine + strings.Count(body[:blockEnd], "\n"),
			IteratorBinding: iterVar,
			AccumulatorOp:   op,
			HasFilter:       loopFilterPattern.MatchString(block),
			HasTransform:    loopTransformPattern.MatchString(block),
		}
		out = append(out, pattern)
	}
	return out
}

func classifyAccumulatorOp(m []string, block string) string {
	switch {
	case m[2] == "+=":
		if strings.Contains(block, "\"") {
			return "concat"
		}
		return "sum"
	case m[2] == "*=":
		return "multiply"
	case m[4] != "":
		return "collect"
	default:
		return "collect"
	}
}

// matchingBraceOrIndentEnd finds the first `{` at or after start and returns
// the offset just past its matching closing brace (Rust/JS/TS), or
// len(body) when no `{` follows start. A Python colon block therefore runs
// to the end of the body, or to the brace pair of the first `{` after it —
// an approximation, since indentation-based block boundaries require a
// real lexer that this text-only layer doesn't have.
func matchingBraceOrIndentEnd(body string, start int) int {
	i := start
	for i < len(body) && body[i] != '{' {
		i++
	}
	if i >= len(body) {
		return len(body)
	}
	depth := 1
	j := i + 1
	for j < len(body) && depth > 0 {
		switch body[j] {
		case '{':
			depth++
		case '}':
			depth--
		}
		j++
	}
	return j
}

// guardLinePattern recognizes `if cond { return Err(...); }` / `if cond:
// return` guard-clause shapes.
var guardLinePattern = regexp.MustCompile(`(?m)^\s*if\s+[^\n{]+\{?\s*return\b[^\n]*$`)

// MatchGuardChainSequences implements spec §4.4's Guard-chain matcher and
// scenario S4: ≥2 consecutive guard lines collapse into one pattern
// spanning all of them.
func MatchGuardChainSequences(fn lang.FunctionRecord) []MatchedPattern {
	lines := strings.Split(fn.CodeText, "\n")
	var out []MatchedPattern
	i := 0
	for i < len(lines) {
		if !guardLinePattern.MatchString(lines[i]) {
			i++
			continue
		}
		start := i
		for i < len(lines) && guardLinePattern.MatchString(lines[i]) {
			i++
		}
		count := i - start
		if count >= 2 {
			out = append(out, MatchedPattern{
				Kind:        PatternGuardChainSequence,
				StartLine:   fn.StartLine + start,
				EndLine:     fn.StartLine + i - 1,
				ChecksCount: count,
			})
		}
	}
	return out
}

// pipelineBindingPattern recognizes `let x = y.map(...)` / `result =
// data.filter(...)`, used to name the pipeline's input/output bindings.
var pipelineBindingPattern = regexp.MustCompile(`(\w+)\s*=\s*(\w+)\.(?:map|filter|fold|flat_map|collect|for_each|find|any|all|reduce)`)

// MatchTransformationPipelines implements spec §4.4's Pipeline matcher,
// grounded directly on the extractor's already-detected Transformations
// (one parse already found every map/filter/fold/... call site; this layer
// only needs to recognize a run of ≥2 consecutive ones as one pipeline).
func MatchTransformationPipelines(fn lang.FunctionRecord) []MatchedPattern {
	if len(fn.Transformations) < 2 {
		return nil
	}
	sorted := append([]lang.Transformation(nil), fn.Transformations...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1].Line > sorted[j].Line; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}

	inputBinding, outputType := "input", "output"
	if m := pipelineBindingPattern.FindStringSubmatch(fn.CodeText); m != nil {
		outputType = m[1]
		inputBinding = m[2]
	}

	var out []MatchedPattern
	i := 0
	for i < len(sorted) {
		j := i + 1
		for j < len(sorted) && sorted[j].Line-sorted[j-1].Line <= 3 {
			j++
		}
		if j-i >= 2 {
			out = append(out, MatchedPattern{
				Kind:         PatternTransformationPipeline,
				StartLine:    sorted[i].Line,
				EndLine:      sorted[j-1].Line,
				InputBinding: inputBinding,
				OutputType:   outputType,
				StageCount:   j - i,
			})
		}
		i = j
	}
	return out
}

// matchArmHeaderPattern finds each brace-bodied `pattern => { ... }` arm
// header so SimilarBranches can compare arm bodies; `case x:` labels and
// arms without a brace body are not matched.
var matchArmHeaderPattern = regexp.MustCompile(`(?m)^\s*([A-Za-z_][\w:.]*)\s*(?:\([^)]*\))?\s*=>\s*\{`)

// MatchSimilarBranches implements spec §4.4's Similar-branches matcher for
// match expressions: arms whose bodies differ only in a single
// sub-expression. It compares each arm body with whitespace collapsed and
// flags runs of ≥3 arms whose bodies are identical after masking a single
// leaf identifier. Only brace-bodied `=> {` arms are examined; if/else
// chains are not.
func MatchSimilarBranches(fn lang.FunctionRecord) []MatchedPattern {
	locs := matchArmHeaderPattern.FindAllStringSubmatchIndex(fn.CodeText, -1)
	if len(locs) < 3 {
		return nil
	}

	type arm struct {
		cond string
		body string
		line int
	}
	arms := make([]arm, 0, len(locs))
	for _, loc := range locs {
		cond := fn.CodeText[loc[2]:loc[3]]
		blockEnd := matchingBraceOrIndentEnd(fn.CodeText, loc[1]-1)
		body := fn.CodeText[loc[1]:blockEnd]
		line := fn.StartLine + strings.Count(fn.CodeText[:loc[0]], "\n")
		arms = append(arms, arm{cond: cond, body: normalizeForComparison(body), line: line})
	}

	var out []MatchedPattern
	i := 0
	for i < len(arms) {
		j := i + 1
		for j < len(arms) && similarAfterMaskingOneToken(arms[i].body, arms[j].body) {
			j++
		}
		count := j - i
		if count >= 3 {
			out = append(out, MatchedPattern{
				Kind:         PatternSimilarBranches,
				StartLine:    arms[i].line,
				EndLine:      arms[j-1].line,
				ConditionVar: arms[0].cond,
				BranchCount:  count,
			})
		}
		if count > 1 {
			i = j
		} else {
			i++
		}
	}
	return out
}

func normalizeForComparison(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// similarAfterMaskingOneToken reports whether two normalized bodies differ
// in at most one whitespace-delimited token — the single-sub-expression
// tolerance spec §4.4 describes.
func similarAfterMaskingOneToken(a, b string) bool {
	af, bf := strings.Fields(a), strings.Fields(b)
	if len(af) != len(bf) {
		return false
	}
	diff := 0
	for i := range af {
		if af[i] != bf[i] {
			diff++
			if diff > 1 {
				return false
			}
		}
	}
	return true
}

// MatchNestedExtractions implements spec §4.4's Nested-extraction matcher:
// wraps the patterns fully contained within another matched pattern's span
// (an outer of any kind) into a NestedExtraction record, one level deep.
func MatchNestedExtractions(fn lang.FunctionRecord, inner []MatchedPattern) []MatchedPattern {
	if len(inner) < 2 {
		return nil
	}
	var out []MatchedPattern
	for i, outer := range inner {
		var nested []MatchedPattern
		for j, candidate := range inner {
			if i == j {
				continue
			}
			if candidate.StartLine >= outer.StartLine && candidate.EndLine <= outer.EndLine &&
				(candidate.StartLine > outer.StartLine || candidate.EndLine < outer.EndLine) {
				nested = append(nested, candidate)
			}
		}
		if len(nested) > 0 {
			out = append(out, MatchedPattern{
				Kind:       PatternNestedExtraction,
				StartLine:  outer.StartLine,
				EndLine:    outer.EndLine,
				OuterScope: fn.Name,
				Inner:      nested,
			})
		}
	}
	return out
}

// MatchExtractionPatterns runs every matcher over a function and scores +
// names each resulting record, per spec §4.4's full pipeline: match, score
// confidence, infer a name.
func MatchExtractionPatterns(fn lang.FunctionRecord, ctx AnalysisContext, language string) []MatchedPattern {
	var all []MatchedPattern
	all = append(all, MatchAccumulationLoops(fn)...)
	all = append(all, MatchGuardChainSequences(fn)...)
	all = append(all, MatchTransformationPipelines(fn)...)
	all = append(all, MatchSimilarBranches(fn)...)
	all = append(all, MatchNestedExtractions(fn, all)...)

	for i := range all {
		all[i].Confidence = scorePattern(all[i], ctx)
		all[i].SuggestedName = inferName(all[i], language)
	}
	return all
}
