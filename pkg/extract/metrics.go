// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import sitter "github.com/smacker/go-tree-sitter"

// complexitySpec is the per-language table of node-type names that drive
// cyclomatic/cognitive/nesting computation. Spec §9 calls for "polymorphic
// visitors over the capability set {enter_stmt, enter_expr, exit_scope}";
// this is that idea made concrete as data instead of an interface
// hierarchy, since the four target grammars differ only in node-type
// spelling, not in the decision procedure itself.
type complexitySpec struct {
	// Nodes that open a new nesting level and each contribute a single
	// cyclomatic decision point plus a nesting-weighted cognitive cost
	// (if/while/for/loop headers, catch clauses, match/switch arms).
	nesting map[string]bool
	// Nodes that are an "else if" continuation of an enclosing if: counted
	// as one more cyclomatic decision point and a flat (not nesting-scaled)
	// cognitive contribution, and do NOT increase nesting depth. This
	// implements spec §8 invariant 4 and the Open Question decision
	// recorded in DESIGN.md.
	elseIfAlternative func(n *sitter.Node) bool
	// Match/switch arm node type, and a predicate reporting whether an arm
	// is the "default"/wildcard arm, used to exclude that arm from the
	// cyclomatic count ("match arm except default").
	matchArm        string
	wildcardPattern func(n *sitter.Node, src []byte) bool
	// Flat-cost boolean/short-circuit operators: +1 cyclomatic, +1
	// cognitive, no nesting change.
	shortCircuitOps map[string]bool // operator text, e.g. "&&", "||", "??"
	binaryExprNode  string          // node type wrapping a binary operator, e.g. "binary_expression"
	operatorField   string          // field name holding the operator text ("" if none; fallback to child scan)
	// try/error-propagation node (Rust `?`; empty for JS/TS and Python,
	// whose catch/except clauses are counted through the nesting map).
	tryNode string
	// ternary/conditional-expression node (JS/TS `a ? b : c`).
	ternaryNode string
	// function-literal/closure node types, which start their own
	// complexity accounting (handled by the caller, not recursed into by
	// the enclosing function's walk).
	functionLiteral map[string]bool
}

type complexityResult struct {
	Cyclomatic int
	Cognitive  int
	MaxNesting int
}

// computeComplexity walks a single function body and returns its metrics.
// It does not recurse into nested function/closure literals — callers are
// responsible for visiting those as independent functions, matching spec
// §4.1's "per-function" metrics.
func computeComplexity(spec complexitySpec, body *sitter.Node, src []byte) complexityResult {
	var res complexityResult
	res.Cyclomatic = 1 // "1 plus the number of decision points"
	var walk func(n *sitter.Node, depth int, inElseIfChain bool)
	walk = func(n *sitter.Node, depth int, inElseIfChain bool) {
		if n == nil {
			return
		}
		if depth > res.MaxNesting {
			res.MaxNesting = depth
		}
		t := n.Type()

		if spec.functionLiteral[t] {
			// Nested closures are analyzed independently; do not descend.
			return
		}

		switch {
		case t == spec.matchArm:
			if !(spec.wildcardPattern != nil && spec.wildcardPattern(n, src)) {
				res.Cyclomatic++
				res.Cognitive += 1 + depth
			}
			walkChildren(n, walk, depth+1, false)
			return

		case spec.nesting[t]:
			isElseIf := spec.elseIfAlternative != nil && spec.elseIfAlternative(n)
			nextDepth := depth
			if isElseIf {
				// else-if: flat +1 cyclomatic/cognitive, no nesting bump.
				res.Cyclomatic++
				res.Cognitive++
			} else {
				res.Cyclomatic++
				res.Cognitive += 1 + depth
				nextDepth = depth + 1
			}
			walkChildren(n, walk, nextDepth, isElseIf)
			return

		case t == spec.tryNode:
			res.Cyclomatic++
			res.Cognitive += 1 + depth
			walkChildren(n, walk, depth+1, false)
			return

		case t == spec.ternaryNode:
			res.Cyclomatic++
			res.Cognitive += 1 + depth
			walkChildren(n, walk, depth, false)
			return

		case t == spec.binaryExprNode:
			if op := binaryOperatorText(n, src, spec.operatorField); spec.shortCircuitOps[op] {
				res.Cyclomatic++
				res.Cognitive++
			}
			walkChildren(n, walk, depth, false)
			return
		}

		walkChildren(n, walk, depth, false)
	}
	walk(body, 0, false)
	return res
}

func walkChildren(n *sitter.Node, walk func(*sitter.Node, int, bool), depth int, inElseIfChain bool) {
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), depth, inElseIfChain)
	}
}

func binaryOperatorText(n *sitter.Node, src []byte, operatorField string) string {
	if operatorField != "" {
		if op := n.ChildByFieldName(operatorField); op != nil {
			return string(src[op.StartByte():op.EndByte()])
		}
	}
	// Fallback: scan direct children for a bare operator token.
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.ChildCount() == 0 {
			text := string(src[c.StartByte():c.EndByte()])
			switch text {
			case "&&", "||", "??":
				return text
			}
		}
	}
	return ""
}

// countLines returns the 1-indexed inclusive line count spanned by a node.
func countLines(n *sitter.Node) int {
	return int(n.EndPoint().Row-n.StartPoint().Row) + 1
}
