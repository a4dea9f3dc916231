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
	sitter "github.com/smacker/go-tree-sitter"
)

// UndefinedNameReference is one use of a name with no local binding, no
// parameter, and no builtin match, per spec §4.5/§8 scenario S6 ("python
// undefined variable inside a method body becomes a critical debt item").
type UndefinedNameReference struct {
	Name string
	Line int
	Col  int
}

// pythonBuiltins is the Python 3.8+ builtin surface, ported verbatim from
// original_source/src/analysis/python_static_errors.rs's python_builtins.
var pythonBuiltins = map[string]bool{
	"abs": true, "all": true, "any": true, "ascii": true, "bin": true, "bool": true,
	"breakpoint": true, "bytearray": true, "bytes": true, "callable": true, "chr": true,
	"classmethod": true, "compile": true, "complex": true, "delattr": true, "dict": true,
	"dir": true, "divmod": true, "enumerate": true, "eval": true, "exec": true, "filter": true,
	"float": true, "format": true, "frozenset": true, "getattr": true, "globals": true,
	"hasattr": true, "hash": true, "help": true, "hex": true, "id": true, "input": true,
	"int": true, "isinstance": true, "issubclass": true, "iter": true, "len": true, "list": true,
	"locals": true, "map": true, "max": true, "memoryview": true, "min": true, "next": true,
	"object": true, "oct": true, "open": true, "ord": true, "pow": true, "print": true,
	"property": true, "range": true, "repr": true, "reversed": true, "round": true, "set": true,
	"setattr": true, "slice": true, "sorted": true, "staticmethod": true, "str": true, "sum": true,
	"super": true, "tuple": true, "type": true, "vars": true, "zip": true, "__import__": true,
	"True": true, "False": true, "None": true, "NotImplemented": true, "Ellipsis": true,
	"Exception": true, "ValueError": true, "TypeError": true, "KeyError": true,
	"AttributeError": true, "ImportError": true, "IndexError": true, "StopIteration": true,
	"RuntimeError": true, "OSError": true, "FileNotFoundError": true, "__name__": true,
	"__file__": true, "__doc__": true, "__class__": true,
}

// FindUndefinedNames walks a Python function_definition node and returns
// every Load-context name reference with no local binding, no parameter,
// and no builtin match. Mirrors the two-phase shape of
// python_static_errors.rs: first collect every binding the function body
// introduces (collect_definitions), then walk expressions checking each
// bare-name reference (find_undefined_names / check_expr_for_undefined).
func FindUndefinedNames(fnNode *sitter.Node, src []byte) []UndefinedNameReference {
	body := fnNode.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	symbols := map[string]bool{"self": true, "cls": true}
	collectParams(fnNode.ChildByFieldName("parameters"), src, symbols)
	collectDefs(body, src, symbols)

	var out []UndefinedNameReference
	checkBlock(body, src, symbols, &out)
	return out
}

func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

func collectParams(params *sitter.Node, src []byte, symbols map[string]bool) {
	if params == nil {
		return
	}
	for i := 0; i < int(params.ChildCount()); i++ {
		p := params.Child(i)
		switch p.Type() {
		case "identifier":
			symbols[text(p, src)] = true
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			if nm := p.ChildByFieldName("name"); nm != nil {
				symbols[text(nm, src)] = true
			} else if p.ChildCount() > 0 {
				symbols[text(p.Child(0), src)] = true
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			for j := 0; j < int(p.ChildCount()); j++ {
				if p.Child(j).Type() == "identifier" {
					symbols[text(p.Child(j), src)] = true
				}
			}
		}
	}
}

// collectDefs walks statements collecting every bound name: assignment
// targets, for-loop variables, with-as aliases, except-as aliases, and
// walrus-operator targets, recursing into every nested block exactly as
// collect_definitions does.
func collectDefs(n *sitter.Node, src []byte, symbols map[string]bool) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "assignment", "augmented_assignment":
		collectTargets(n.ChildByFieldName("left"), src, symbols)
	case "named_expression": // walrus: x := expr
		collectTargets(n.ChildByFieldName("name"), src, symbols)
	case "for_statement":
		collectTargets(n.ChildByFieldName("left"), src, symbols)
	case "with_statement":
		for i := 0; i < int(n.ChildCount()); i++ {
			if n.Child(i).Type() == "with_clause" {
				collectWithItems(n.Child(i), src, symbols)
			}
		}
	case "except_clause":
		collectExceptAlias(n, src, symbols)
	case "function_definition", "class_definition", "lambda":
		return // nested scopes are analyzed independently
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		collectDefs(n.Child(i), src, symbols)
	}
}

func collectTargets(target *sitter.Node, src []byte, symbols map[string]bool) {
	if target == nil {
		return
	}
	switch target.Type() {
	case "identifier":
		symbols[text(target, src)] = true
	case "tuple_pattern", "pattern_list", "list_pattern", "tuple", "list":
		for i := 0; i < int(target.ChildCount()); i++ {
			collectTargets(target.Child(i), src, symbols)
		}
	}
}

func collectWithItems(withClause *sitter.Node, src []byte, symbols map[string]bool) {
	for i := 0; i < int(withClause.ChildCount()); i++ {
		item := withClause.Child(i)
		if item.Type() != "with_item" {
			continue
		}
		val := item.Child(0)
		if val != nil && val.Type() == "as_pattern" {
			if alias := val.ChildByFieldName("alias"); alias != nil {
				collectTargets(alias, src, symbols)
			} else if val.ChildCount() > 1 {
				collectTargets(val.Child(val.ChildCount()-1), src, symbols)
			}
		}
	}
}

func collectExceptAlias(exceptClause *sitter.Node, src []byte, symbols map[string]bool) {
	for i := 0; i < int(exceptClause.ChildCount())-1; i++ {
		if exceptClause.Child(i).Type() == "as" {
			next := exceptClause.Child(i + 1)
			if next != nil && next.Type() == "identifier" {
				symbols[text(next, src)] = true
			}
		}
	}
}

// checkBlock walks statements checking Load-context expressions for
// undefined names, matching check_stmt_for_undefined's statement dispatch
// and recursion into nested blocks.
func checkBlock(n *sitter.Node, src []byte, symbols map[string]bool, out *[]UndefinedNameReference) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_definition", "class_definition", "lambda":
		return
	case "expression_statement":
		for i := 0; i < int(n.ChildCount()); i++ {
			checkExpr(n.Child(i), src, symbols, out)
		}
	case "return_statement":
		if n.ChildCount() > 1 {
			checkExpr(n.Child(1), src, symbols, out)
		}
	case "if_statement":
		checkExpr(n.ChildByFieldName("condition"), src, symbols, out)
	case "while_statement":
		checkExpr(n.ChildByFieldName("condition"), src, symbols, out)
	case "assignment", "augmented_assignment":
		checkExpr(n.ChildByFieldName("right"), src, symbols, out)
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		checkBlock(n.Child(i), src, symbols, out)
	}
}

// checkExpr mirrors check_expr_for_undefined's match over expression kinds.
func checkExpr(n *sitter.Node, src []byte, symbols map[string]bool, out *[]UndefinedNameReference) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier":
		name := text(n, src)
		if name == "self" || name == "cls" || symbols[name] || pythonBuiltins[name] {
			return
		}
		*out = append(*out, UndefinedNameReference{
			Name: name,
			Line: int(n.StartPoint().Row) + 1,
			Col:  int(n.StartPoint().Column) + 1,
		})
	case "attribute":
		checkExpr(n.ChildByFieldName("object"), src, symbols, out)
	case "call":
		checkExpr(n.ChildByFieldName("function"), src, symbols, out)
		if args := n.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.ChildCount()); i++ {
				checkExpr(args.Child(i), src, symbols, out)
			}
		}
	case "binary_operator", "boolean_operator":
		checkExpr(n.ChildByFieldName("left"), src, symbols, out)
		checkExpr(n.ChildByFieldName("right"), src, symbols, out)
	case "comparison_operator":
		for i := 0; i < int(n.ChildCount()); i++ {
			checkExpr(n.Child(i), src, symbols, out)
		}
	case "list", "tuple", "set":
		for i := 0; i < int(n.ChildCount()); i++ {
			checkExpr(n.Child(i), src, symbols, out)
		}
	case "subscript":
		checkExpr(n.ChildByFieldName("value"), src, symbols, out)
	}
}
