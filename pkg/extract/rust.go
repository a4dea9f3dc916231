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

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/debtlens/pkg/lang"
)

var rustComplexitySpec = complexitySpec{
	nesting: map[string]bool{
		"if_expression": true, "if_let_expression": true,
		"while_expression": true, "while_let_expression": true,
		"for_expression": true, "loop_expression": true,
	},
	elseIfAlternative: func(n *sitter.Node) bool {
		// "else if" is an if_expression/if_let_expression sitting in the
		// "alternative" field of an enclosing if_expression.
		parent := n.Parent()
		if parent == nil || parent.Type() != "if_expression" {
			return false
		}
		return parent.ChildByFieldName("alternative") == n
	},
	matchArm: "match_arm",
	wildcardPattern: func(n *sitter.Node, src []byte) bool {
		pat := n.ChildByFieldName("pattern")
		if pat == nil {
			return false
		}
		return strings.TrimSpace(string(src[pat.StartByte():pat.EndByte()])) == "_"
	},
	shortCircuitOps: map[string]bool{"&&": true, "||": true},
	binaryExprNode:  "binary_expression",
	operatorField:   "operator",
	tryNode:         "try_expression",
	functionLiteral: map[string]bool{"closure_expression": true},
}

// rustScope tracks where in the module/impl/trait tree the walk currently
// is, following the structural shape of
// other_examples/.../hargabyte-cortex callgraph_rust.go's impl/type/trait
// lookups (walking up to the nearest impl_item for "method owner").
type rustScope struct {
	modPath      []string
	implType     string
	implTrait    string
	inTraitDecl  bool
	inTestModule bool
}

func (s *Session) extractRust(path string, src []byte, fm *lang.FileMetrics) error {
	tree, release, err := s.parseTree(lang.Rust, src)
	if err != nil {
		return err
	}
	defer release()

	root := tree.RootNode()
	ctx := &rustExtractCtx{path: path, src: src, fm: fm}
	ctx.walkBlock(root, rustScope{})
	return nil
}

type rustExtractCtx struct {
	path string
	src  []byte
	fm   *lang.FileMetrics
}

func (c *rustExtractCtx) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(c.src[n.StartByte():n.EndByte()])
}

// walkBlock iterates the direct children of a file/mod/impl/trait body,
// tracking #[attr] items that precede the node they annotate (Rust
// attributes are preceding siblings in the grammar, not children).
func (c *rustExtractCtx) walkBlock(block *sitter.Node, scope rustScope) {
	var pendingAttrs []string
	for i := 0; i < int(block.ChildCount()); i++ {
		n := block.Child(i)
		switch n.Type() {
		case "attribute_item", "inner_attribute_item":
			pendingAttrs = append(pendingAttrs, c.text(n))
			continue
		case "line_comment", "block_comment":
			continue
		}
		c.walkItem(n, scope, pendingAttrs)
		pendingAttrs = nil
	}
}

func (c *rustExtractCtx) walkItem(n *sitter.Node, scope rustScope, attrs []string) {
	switch n.Type() {
	case "mod_item":
		name := c.text(n.ChildByFieldName("name"))
		inner := scope
		inner.modPath = append(append([]string{}, scope.modPath...), name)
		inner.inTestModule = scope.inTestModule || name == "test" || name == "tests" || hasCfgTest(attrs)
		if body := n.ChildByFieldName("body"); body != nil {
			c.walkBlock(body, inner)
		}

	case "impl_item":
		typeName := c.text(n.ChildByFieldName("type"))
		if idx := strings.IndexByte(typeName, '<'); idx > 0 {
			typeName = typeName[:idx]
		}
		traitName := ""
		if tn := n.ChildByFieldName("trait"); tn != nil {
			traitName = extractLastSegment(c.text(tn))
		}
		inner := scope
		inner.implType = typeName
		inner.implTrait = traitName
		if body := n.ChildByFieldName("body"); body != nil {
			c.walkBlock(body, inner)
		}

	case "trait_item":
		name := c.text(n.ChildByFieldName("name"))
		startLine, endLine := int(n.StartPoint().Row)+1, int(n.EndPoint().Row)+1
		c.fm.Types = append(c.fm.Types, lang.TypeEntity{
			ID:        lang.GenerateTypeID(c.path, name, startLine, endLine),
			Name:      name,
			Kind:      lang.TypeTrait,
			FilePath:  c.path,
			CodeText:  c.text(n),
			StartLine: startLine,
			EndLine:   endLine,
		})
		inner := scope
		inner.implType = name
		inner.inTraitDecl = true
		if body := n.ChildByFieldName("body"); body != nil {
			c.walkBlock(body, inner)
		}

	case "struct_item":
		name := c.text(n.ChildByFieldName("name"))
		startLine, endLine := int(n.StartPoint().Row)+1, int(n.EndPoint().Row)+1
		c.fm.Types = append(c.fm.Types, lang.TypeEntity{
			ID:        lang.GenerateTypeID(c.path, name, startLine, endLine),
			Name:      name,
			Kind:      lang.TypeStruct,
			FilePath:  c.path,
			CodeText:  c.text(n),
			StartLine: startLine,
			EndLine:   endLine,
		})
		c.extractStructFields(n, name)

	case "enum_item":
		name := c.text(n.ChildByFieldName("name"))
		startLine, endLine := int(n.StartPoint().Row)+1, int(n.EndPoint().Row)+1
		c.fm.Types = append(c.fm.Types, lang.TypeEntity{
			ID:        lang.GenerateTypeID(c.path, name, startLine, endLine),
			Name:      name,
			Kind:      lang.TypeEnum,
			FilePath:  c.path,
			CodeText:  c.text(n),
			StartLine: startLine,
			EndLine:   endLine,
		})

	case "function_item", "function_signature_item":
		c.extractFunction(n, scope, attrs)

	case "use_declaration":
		c.extractUse(n)
	}
}

func hasCfgTest(attrs []string) bool {
	for _, a := range attrs {
		if strings.Contains(a, "cfg(test)") || strings.Contains(a, "cfg(all(test") {
			return true
		}
	}
	return false
}

func extractLastSegment(s string) string {
	if idx := strings.LastIndex(s, "::"); idx >= 0 {
		return s[idx+2:]
	}
	return s
}

func (c *rustExtractCtx) extractStructFields(structNode *sitter.Node, typeName string) {
	body := structNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		field := body.Child(i)
		if field.Type() != "field_declaration" {
			continue
		}
		name := c.text(field.ChildByFieldName("name"))
		typ := c.text(field.ChildByFieldName("type"))
		c.fm.Fields = append(c.fm.Fields, lang.FieldEntity{
			OwnerType: typeName,
			FieldName: name,
			FieldType: typ,
			FilePath:  c.path,
			Line:      int(field.StartPoint().Row) + 1,
		})
	}
}

func (c *rustExtractCtx) extractUse(n *sitter.Node) {
	argNode := n.ChildByFieldName("argument")
	if argNode == nil && n.ChildCount() > 1 {
		argNode = n.Child(1)
	}
	line := int(n.StartPoint().Row) + 1
	c.flattenUseTree(argNode, "", line)
}

// flattenUseTree implements spec §8 invariant 1: `use X::{A, B as C};`
// becomes two ImportEntity rows, one per leaf symbol.
func (c *rustExtractCtx) flattenUseTree(n *sitter.Node, prefix string, line int) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "scoped_identifier":
		path := c.text(n)
		c.fm.Imports = append(c.fm.Imports, lang.ImportEntity{FilePath: c.path, Path: joinUsePath(prefix, path), Line: line})
	case "identifier", "self":
		c.fm.Imports = append(c.fm.Imports, lang.ImportEntity{FilePath: c.path, Path: joinUsePath(prefix, c.text(n)), Line: line})
	case "use_as_clause":
		path := c.text(n.ChildByFieldName("path"))
		alias := c.text(n.ChildByFieldName("alias"))
		c.fm.Imports = append(c.fm.Imports, lang.ImportEntity{FilePath: c.path, Path: joinUsePath(prefix, path), Alias: alias, Line: line})
	case "use_wildcard":
		base := ""
		if child := n.Child(0); child != nil {
			base = c.text(child)
		}
		c.fm.Imports = append(c.fm.Imports, lang.ImportEntity{FilePath: c.path, Path: joinUsePath(prefix, base), IsGlob: true, Line: line})
	case "scoped_use_list":
		newPrefix := joinUsePath(prefix, c.text(n.ChildByFieldName("path")))
		list := n.ChildByFieldName("list")
		if list != nil {
			for i := 0; i < int(list.ChildCount()); i++ {
				c.flattenUseTree(list.Child(i), newPrefix, line)
			}
		}
	case "use_list":
		for i := 0; i < int(n.ChildCount()); i++ {
			c.flattenUseTree(n.Child(i), prefix, line)
		}
	default:
		for i := 0; i < int(n.ChildCount()); i++ {
			c.flattenUseTree(n.Child(i), prefix, line)
		}
	}
}

func joinUsePath(prefix, leaf string) string {
	leaf = strings.TrimSpace(leaf)
	if prefix == "" {
		return leaf
	}
	if leaf == "" || leaf == "self" {
		return prefix
	}
	return prefix + "::" + leaf
}

var rustBuiltinMacros = map[string]bool{
	"println": true, "eprintln": true, "print": true, "eprint": true,
	"format": true, "panic": true, "assert": true, "assert_eq": true, "assert_ne": true,
	"dbg": true, "todo": true, "unimplemented": true, "unreachable": true,
	"vec": true, "cfg": true, "env": true, "option_env": true, "include": true, "include_str": true,
	"include_bytes": true, "concat": true, "stringify": true, "file": true,
	"line": true, "column": true, "module_path": true,
	"write": true, "writeln": true, "format_args": true,
	"matches": true, "debug_assert": true, "debug_assert_eq": true, "debug_assert_ne": true,
}

func (c *rustExtractCtx) extractFunction(n *sitter.Node, scope rustScope, attrs []string) {
	name := c.text(n.ChildByFieldName("name"))
	if name == "" {
		return
	}

	qualParts := append([]string{}, scope.modPath...)
	if scope.implType != "" {
		qualParts = append(qualParts, scope.implType)
	}
	qualParts = append(qualParts, name)
	qualifiedName := strings.Join(qualParts, "::")

	visibility := "private"
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "visibility_modifier" {
			visibility = strings.TrimSpace(c.text(n.Child(i)))
			if visibility == "pub" {
				visibility = "public"
			}
			break
		}
	}

	isAsync := false
	for i := 0; i < int(n.ChildCount()); i++ {
		if c.text(n.Child(i)) == "async" {
			isAsync = true
			break
		}
	}

	isTest := hasTestAttr(attrs) || scope.inTestModule

	receiverType := scope.implType
	isTraitMethod := scope.implTrait != "" || scope.inTraitDecl

	params := n.ChildByFieldName("parameters")
	var paramNames []string
	selfByMutRef := false
	locals := map[string]bool{}
	if params != nil {
		for i := 0; i < int(params.ChildCount()); i++ {
			p := params.Child(i)
			switch p.Type() {
			case "self_parameter":
				paramNames = append(paramNames, "self")
				selfByMutRef = strings.Contains(c.text(p), "&mut self")
			case "parameter":
				if pat := p.ChildByFieldName("pattern"); pat != nil {
					name := c.text(pat)
					paramNames = append(paramNames, name)
					locals[name] = true
				}
			}
		}
	}

	returnTypeRaw := ""
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		returnTypeRaw = c.text(rt)
	}
	returnsSelf := returnTypeRaw == "Self" || strings.HasPrefix(returnTypeRaw, "Self<") || receiverType != "" && returnTypeRaw == receiverType
	returnsResult := strings.HasPrefix(returnTypeRaw, "Result<") || returnTypeRaw == "Result"
	returnsOption := strings.HasPrefix(returnTypeRaw, "Option<") || returnTypeRaw == "Option"

	startLine := int(n.StartPoint().Row) + 1
	endLine := int(n.EndPoint().Row) + 1

	rec := lang.FunctionRecord{
		QualifiedName:  qualifiedName,
		Name:           name,
		FilePath:       c.path,
		Language:       lang.Rust,
		StartLine:      startLine,
		EndLine:        endLine,
		LengthLines:    endLine - startLine + 1,
		ParameterNames: paramNames,
		IsAsync:        isAsync,
		IsTest:         isTest,
		IsTraitMethod:  isTraitMethod,
		InTestModule:   scope.inTestModule,
		Visibility:     visibility,
		ReceiverType:   receiverType,
		TraitName:      scope.implTrait,
		SelfByMutRef:   selfByMutRef,
		ReturnTypeRaw:  returnTypeRaw,
		ReturnsSelf:    returnsSelf,
		ReturnsResult:  returnsResult,
		ReturnsOption:  returnsOption,
		CodeText:       c.text(n),
	}
	rec.ID = lang.GenerateFunctionID(c.path, qualifiedName, startLine, endLine)

	body := n.ChildByFieldName("body")
	if body != nil {
		cx := computeComplexity(rustComplexitySpec, body, c.src)
		rec.Cyclomatic = cx.Cyclomatic
		rec.Cognitive = cx.Cognitive
		rec.MaxNesting = cx.MaxNesting
		c.walkRustBody(body, &rec, locals, selfByMutRef)
	} else {
		rec.Cyclomatic = 1
	}

	c.fm.Functions = append(c.fm.Functions, rec)
}

func hasTestAttr(attrs []string) bool {
	for _, a := range attrs {
		if strings.Contains(a, "#[test]") || strings.Contains(a, "#[tokio::test]") || strings.Contains(a, "#[async_std::test]") {
			return true
		}
	}
	return false
}

// walkRustBody performs the single feature-extraction pass over a
// function body: calls, macros (as IO/unsafe signals consumed by
// pkg/purity), transformation-pattern chains, unsafe blocks, and assignment
// mutation targets classified by scope (local/external), following the
// shape of mutation_scope.rs's determine_mutation_scope /
// determine_field_mutation_scope. Closure bodies are not descended into, so
// no upvalue (captured-variable) mutation is ever recorded.
func (c *rustExtractCtx) walkRustBody(n *sitter.Node, rec *lang.FunctionRecord, locals map[string]bool, selfByMutRef bool) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "closure_expression":
		return // nested closures are independent functions; not descended into here

	case "unsafe_block":
		rec.Purity.HasUnsafe = true

	case "call_expression":
		c.recordRustCall(n, rec)

	case "method_call_expression":
		c.recordRustMethodCall(n, rec, locals, selfByMutRef)

	case "macro_invocation":
		c.recordRustMacro(n, rec)

	case "let_declaration":
		if pat := n.ChildByFieldName("pattern"); pat != nil && pat.Type() == "identifier" {
			locals[c.text(pat)] = true
		}

	case "assignment_expression", "compound_assignment_expr":
		left := n.ChildByFieldName("left")
		c.recordRustMutation(left, rec, locals, selfByMutRef)

	case "scoped_identifier":
		if !rustPathIsCallee(n) {
			recordPathReference(c.text(n), rec)
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		c.walkRustBody(n.Child(i), rec, locals, selfByMutRef)
	}
}

// recordRustMutation classifies the assignment target left per
// mutation_scope.rs: bare local identifier -> Local; self.field through
// &mut self -> External (visible to the caller through the reference);
// self.field through an owned/consuming self -> Local (the builder
// pattern); local_var.field -> Local; anything else (statics, paths,
// deref) -> External, conservatively.
func (c *rustExtractCtx) recordRustMutation(left *sitter.Node, rec *lang.FunctionRecord, locals map[string]bool, selfByMutRef bool) {
	if left == nil {
		return
	}
	rec.Purity.HasMutations = true
	rec.Purity.TotalMutations++

	switch left.Type() {
	case "identifier":
		name := c.text(left)
		if locals[name] {
			rec.Purity.LocalMutations = append(rec.Purity.LocalMutations, name)
		} else {
			rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, name)
		}
	case "field_expression":
		base := left.ChildByFieldName("value")
		field := left.ChildByFieldName("field")
		baseName := c.text(base)
		target := baseName + "." + c.text(field)
		switch {
		case baseName == "self" && selfByMutRef:
			rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, target)
		case baseName == "self":
			rec.Purity.LocalMutations = append(rec.Purity.LocalMutations, target)
		case locals[baseName]:
			rec.Purity.LocalMutations = append(rec.Purity.LocalMutations, target)
		default:
			rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, target)
		}
	case "index_expression":
		base := left.ChildByFieldName("value")
		if base != nil && base.Type() == "identifier" && locals[c.text(base)] {
			rec.Purity.LocalMutations = append(rec.Purity.LocalMutations, c.text(base))
		} else {
			rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, c.text(left))
		}
	case "unary_expression": // *ptr = value
		rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, c.text(left))
	default:
		rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, c.text(left))
	}
}

// rustPathIsCallee reports whether a scoped_identifier node sits in callee
// position (the "function" of a call_expression, possibly through a
// turbofish generic_function wrapper) or inside a use-declaration — both
// are already accounted for elsewhere (recordRustCall, flattenUseTree) and
// must not also be scored as a path-purity read.
func rustPathIsCallee(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	switch p.Type() {
	case "call_expression":
		fn := p.ChildByFieldName("function")
		return fn != nil && fn.StartByte() == n.StartByte() && fn.EndByte() == n.EndByte()
	case "generic_function":
		gp := p.Parent()
		return gp != nil && gp.Type() == "call_expression"
	case "use_declaration", "use_as_clause", "scoped_use_list", "use_list", "use_wildcard":
		return true
	}
	return false
}

func (c *rustExtractCtx) recordRustCall(n *sitter.Node, rec *lang.FunctionRecord) {
	fn := n.ChildByFieldName("function")
	if fn == nil && n.ChildCount() > 0 {
		fn = n.Child(0)
	}
	if fn == nil {
		return
	}
	line := int(n.StartPoint().Row) + 1
	text := c.text(fn)

	switch fn.Type() {
	case "identifier":
		rec.CallSites = append(rec.CallSites, lang.CallSite{CalleeName: text, Kind: lang.CallStatic, SameFileHint: true, Line: line})
	case "scoped_identifier":
		rec.CallSites = append(rec.CallSites, lang.CallSite{CalleeName: extractLastSegment(text), Kind: lang.CallStatic, Line: line})
		if cat, ok := classifyIO(text); ok {
			rec.Purity.HasIOOperations = true
			rec.IOOperations = append(rec.IOOperations, lang.IOOperation{Category: cat, Line: line, Callee: text})
		}
	case "field_expression":
		field := fn.ChildByFieldName("field")
		name := c.text(field)
		rec.CallSites = append(rec.CallSites, lang.CallSite{CalleeName: name, Kind: lang.CallClosure, Line: line})
	case "generic_function":
		for i := 0; i < int(fn.ChildCount()); i++ {
			ch := fn.Child(i)
			if ch.Type() == "identifier" || ch.Type() == "scoped_identifier" {
				rec.CallSites = append(rec.CallSites, lang.CallSite{CalleeName: extractLastSegment(c.text(ch)), Kind: lang.CallStatic, Line: line})
				break
			}
		}
	}
}

// rustMutatingMethods is spec §4.2's "known mutating method" list — calling
// one of these on a receiver mutates it in place even though the call is an
// expression, not an assignment, so it must feed the same mutation-scope
// classification recordRustMutation applies to assignment targets.
var rustMutatingMethods = map[string]bool{
	"push": true, "insert": true, "remove": true, "clear": true,
	"set": true, "replace": true, "sort": true, "sort_by": true,
	"sort_by_key": true, "sort_unstable": true, "truncate": true,
	"extend": true, "append": true, "push_back": true, "push_front": true,
	"pop": true, "pop_back": true, "pop_front": true, "drain": true,
	"retain": true, "swap": true, "swap_remove": true, "dedup": true,
	"resize": true, "fill": true, "reverse": true,
}

func (c *rustExtractCtx) recordRustMethodCall(n *sitter.Node, rec *lang.FunctionRecord, locals map[string]bool, selfByMutRef bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := c.text(nameNode)
	line := int(n.StartPoint().Row) + 1
	recv := n.ChildByFieldName("receiver")
	receiverType := ""
	if recv != nil {
		receiverType = c.text(recv)
	}
	rec.CallSites = append(rec.CallSites, lang.CallSite{CalleeName: name, Kind: lang.CallInstance, ReceiverType: receiverType, Line: line})

	if kind, ok := transformKindFor(name); ok {
		rec.Transformations = append(rec.Transformations, lang.Transformation{Kind: kind, Line: line})
	}
	if cat, ok := classifyIO(receiverType + "." + name); ok {
		rec.Purity.HasIOOperations = true
		rec.IOOperations = append(rec.IOOperations, lang.IOOperation{Category: cat, Line: line, Callee: name})
	}
	if rustMutatingMethods[name] && recv != nil {
		c.recordRustMutation(recv, rec, locals, selfByMutRef)
	}
}

func (c *rustExtractCtx) recordRustMacro(n *sitter.Node, rec *lang.FunctionRecord) {
	macroNode := n.ChildByFieldName("macro")
	if macroNode == nil {
		return
	}
	name := extractLastSegment(c.text(macroNode))
	line := int(n.StartPoint().Row) + 1

	switch {
	case name == "println" || name == "eprintln" || name == "print" || name == "eprint" || name == "dbg":
		rec.Purity.HasIOOperations = true
		rec.IOOperations = append(rec.IOOperations, lang.IOOperation{Category: lang.IOConsole, Line: line, Callee: name + "!"})
	case name == "write" || name == "writeln":
		rec.Purity.HasIOOperations = true
		rec.IOOperations = append(rec.IOOperations, lang.IOOperation{Category: lang.IOFile, Line: line, Callee: name + "!"})
	case name == "env" || name == "option_env":
		rec.Purity.HasIOOperations = true
		rec.IOOperations = append(rec.IOOperations, lang.IOOperation{Category: lang.IOEnvironment, Line: line, Callee: name + "!"})
	}

	if !rustBuiltinMacros[name] {
		rec.Purity.UnknownMacroCount++
	}
}
