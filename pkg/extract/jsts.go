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

var jsComplexitySpec = complexitySpec{
	nesting: map[string]bool{
		"if_statement": true, "while_statement": true,
		"for_statement": true, "for_in_statement": true,
		"catch_clause": true,
	},
	elseIfAlternative: func(n *sitter.Node) bool {
		parent := n.Parent()
		if parent == nil || parent.Type() != "if_statement" {
			return false
		}
		return parent.ChildByFieldName("alternative") == n
	},
	matchArm:        "switch_case", // switch_default is a distinct node type, excluded by omission
	wildcardPattern: func(n *sitter.Node, src []byte) bool { return false },
	shortCircuitOps: map[string]bool{"&&": true, "||": true, "??": true},
	binaryExprNode:  "binary_expression",
	operatorField:   "operator",
	ternaryNode:     "ternary_expression",
	functionLiteral: map[string]bool{"arrow_function": true, "function_expression": true, "function": true},
}

func (s *Session) extractJSorTS(path string, src []byte, fm *lang.FileMetrics, typescript bool) error {
	l := lang.JavaScript
	if typescript {
		l = lang.TypeScript
	}
	tree, release, err := s.parseTree(l, src)
	if err != nil {
		return err
	}
	defer release()

	c := &jsExtractCtx{path: path, src: src, fm: fm, lang: l, anon: 0}
	c.walkTypes(tree.RootNode())
	c.walkFunctions(tree.RootNode(), jsScope{})
	c.walkImports(tree.RootNode())
	return nil
}

type jsScope struct {
	className    string
	implementsIf string // first interface named in an "implements" heritage clause, if any
	inTestModule bool
}

type jsExtractCtx struct {
	path string
	src  []byte
	fm   *lang.FileMetrics
	lang lang.Language
	anon int
}

func (c *jsExtractCtx) text(n *sitter.Node) string { return nodeTextBytes(n, c.src) }

// firstImplementsInterface scans a class_declaration's heritage clause for
// an "implements" list (TypeScript only) and returns the first interface
// named, or "" when the class has none (plain JS classes, or TS classes
// with only an "extends" clause).
func firstImplementsInterface(classNode *sitter.Node, src []byte) string {
	for i := 0; i < int(classNode.ChildCount()); i++ {
		heritage := classNode.Child(i)
		if heritage.Type() != "class_heritage" {
			continue
		}
		for j := 0; j < int(heritage.ChildCount()); j++ {
			clause := heritage.Child(j)
			if clause.Type() != "implements_clause" {
				continue
			}
			for k := 0; k < int(clause.ChildCount()); k++ {
				if id := clause.Child(k); id.Type() == "type_identifier" || id.Type() == "identifier" {
					return nodeTextBytes(id, src)
				}
			}
		}
	}
	return ""
}

// walkTypes records one TypeEntity per class/interface/type-alias
// declaration, grounded on vjache-cie/pkg/ingestion/parser_javascript.go's
// extractJSTypes/walkJSTypesAST, extended for the TypeScript-only forms.
func (c *jsExtractCtx) walkTypes(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "class_declaration":
		c.recordType(n, lang.TypeClass)
		c.extractClassFields(n)
	case "interface_declaration":
		c.recordType(n, lang.TypeInterface)
	case "type_alias_declaration":
		c.recordType(n, lang.TypeAlias)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c.walkTypes(n.Child(i))
	}
}

func (c *jsExtractCtx) recordType(n *sitter.Node, kind lang.TypeKind) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := c.text(nameNode)
	startLine, endLine := int(n.StartPoint().Row)+1, int(n.EndPoint().Row)+1
	c.fm.Types = append(c.fm.Types, lang.TypeEntity{
		ID:        lang.GenerateTypeID(c.path, name, startLine, endLine),
		Name:      name,
		Kind:      kind,
		FilePath:  c.path,
		CodeText:  c.text(n),
		StartLine: startLine,
		EndLine:   endLine,
	})
}

func (c *jsExtractCtx) extractClassFields(classNode *sitter.Node) {
	name := c.text(classNode.ChildByFieldName("name"))
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		if member.Type() != "field_definition" && member.Type() != "public_field_definition" {
			continue
		}
		prop := member.ChildByFieldName("property")
		if prop == nil {
			prop = member.ChildByFieldName("name")
		}
		typeAnn := member.ChildByFieldName("type")
		c.fm.Fields = append(c.fm.Fields, lang.FieldEntity{
			OwnerType: name,
			FieldName: c.text(prop),
			FieldType: c.text(typeAnn),
			FilePath:  c.path,
			Line:      int(member.StartPoint().Row) + 1,
		})
	}
}

// walkFunctions follows walkJSFunctions's four discovery sites: named
// function declarations, arrow/function-expression variable declarators,
// class method definitions, and anonymous arrow functions.
func (c *jsExtractCtx) walkFunctions(n *sitter.Node, scope jsScope) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "class_declaration":
		name := c.text(n.ChildByFieldName("name"))
		inner := jsScope{
			className:    name,
			implementsIf: firstImplementsInterface(n, c.src),
			inTestModule: scope.inTestModule || strings.Contains(strings.ToLower(name), "test"),
		}
		if body := n.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.ChildCount()); i++ {
				c.walkFunctions(body.Child(i), inner)
			}
		}
		return

	case "function_declaration", "generator_function_declaration":
		c.extractNamedFunction(n, "", scope)

	case "variable_declarator":
		valueNode := n.ChildByFieldName("value")
		nameNode := n.ChildByFieldName("name")
		if valueNode != nil && nameNode != nil {
			switch valueNode.Type() {
			case "arrow_function", "function_expression", "function":
				c.extractBoundFunction(nameNode, valueNode, scope)
			}
		}

	case "method_definition":
		c.extractMethod(n, scope)

	case "arrow_function":
		parent := n.Parent()
		if parent == nil || parent.Type() != "variable_declarator" {
			c.anon++
			c.extractAnonymous(n, scope)
			return // extractAnonymous already walked the body
		}
	}

	if n.Type() != "class_declaration" {
		for i := 0; i < int(n.ChildCount()); i++ {
			c.walkFunctions(n.Child(i), scope)
		}
	}
}

func (c *jsExtractCtx) paramNames(params *sitter.Node) []string {
	if params == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(params.ChildCount()); i++ {
		p := params.Child(i)
		switch p.Type() {
		case "identifier":
			out = append(out, c.text(p))
		case "required_parameter", "optional_parameter":
			if pat := p.ChildByFieldName("pattern"); pat != nil {
				out = append(out, c.text(pat))
			}
		case "assignment_pattern":
			if left := p.ChildByFieldName("left"); left != nil {
				out = append(out, c.text(left))
			}
		case "rest_pattern":
			out = append(out, c.text(p))
		}
	}
	return out
}

func isAsyncNode(n *sitter.Node, src []byte) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if strings.TrimSpace(nodeTextBytes(n.Child(i), src)) == "async" {
			return true
		}
	}
	return false
}

func (c *jsExtractCtx) finishFunction(rec lang.FunctionRecord, body *sitter.Node) {
	locals := map[string]bool{}
	for _, p := range rec.ParameterNames {
		locals[p] = true
	}
	if body != nil {
		cx := computeComplexity(jsComplexitySpec, body, c.src)
		rec.Cyclomatic, rec.Cognitive, rec.MaxNesting = cx.Cyclomatic, cx.Cognitive, cx.MaxNesting
		c.walkBody(body, &rec, locals)
	} else {
		rec.Cyclomatic = 1
	}
	c.fm.Functions = append(c.fm.Functions, rec)
}

func (c *jsExtractCtx) extractNamedFunction(n *sitter.Node, classPrefix string, scope jsScope) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := c.text(nameNode)
	startLine, endLine := int(n.StartPoint().Row)+1, int(n.EndPoint().Row)+1
	rec := lang.FunctionRecord{
		QualifiedName:  name,
		Name:           name,
		FilePath:       c.path,
		Language:       c.lang,
		StartLine:      startLine,
		EndLine:        endLine,
		LengthLines:    endLine - startLine + 1,
		ParameterNames: c.paramNames(n.ChildByFieldName("parameters")),
		IsAsync:        isAsyncNode(n, c.src),
		IsTest:         scope.inTestModule || isJSTestName(name),
		InTestModule:   scope.inTestModule,
		Visibility:     "public",
		CodeText:       c.text(n),
	}
	rec.ID = lang.GenerateFunctionID(c.path, name, startLine, endLine)
	c.finishFunction(rec, n.ChildByFieldName("body"))
}

func isJSTestName(name string) bool {
	return strings.HasPrefix(name, "test") || strings.HasSuffix(name, "Test") || strings.HasSuffix(name, "Spec")
}

func (c *jsExtractCtx) extractBoundFunction(nameNode, valueNode *sitter.Node, scope jsScope) {
	name := c.text(nameNode)
	startLine, endLine := int(nameNode.StartPoint().Row)+1, int(valueNode.EndPoint().Row)+1
	rec := lang.FunctionRecord{
		QualifiedName:  name,
		Name:           name,
		FilePath:       c.path,
		Language:       c.lang,
		StartLine:      startLine,
		EndLine:        endLine,
		LengthLines:    endLine - startLine + 1,
		ParameterNames: c.paramNames(valueNode.ChildByFieldName("parameters")),
		IsAsync:        isAsyncNode(valueNode, c.src),
		IsTest:         scope.inTestModule || isJSTestName(name),
		InTestModule:   scope.inTestModule,
		Visibility:     "public",
		CodeText:       nodeTextBytes(nameNode, c.src) + " = " + c.text(valueNode),
	}
	rec.ID = lang.GenerateFunctionID(c.path, name, startLine, endLine)
	c.finishFunction(rec, valueNode.ChildByFieldName("body"))
}

func (c *jsExtractCtx) extractMethod(n *sitter.Node, scope jsScope) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := c.text(nameNode)
	qualifiedName := name
	if scope.className != "" {
		qualifiedName = scope.className + "." + name
	}
	startLine, endLine := int(n.StartPoint().Row)+1, int(n.EndPoint().Row)+1
	params := c.paramNames(n.ChildByFieldName("parameters"))
	visibility := "public"
	for i := 0; i < int(n.ChildCount()); i++ {
		switch c.text(n.Child(i)) {
		case "private", "#":
			visibility = "private"
		case "protected":
			visibility = "protected"
		}
	}
	rec := lang.FunctionRecord{
		QualifiedName:  qualifiedName,
		Name:           name,
		FilePath:       c.path,
		Language:       c.lang,
		StartLine:      startLine,
		EndLine:        endLine,
		LengthLines:    endLine - startLine + 1,
		ParameterNames: params,
		IsAsync:        isAsyncNode(n, c.src),
		IsTest:         scope.inTestModule || isJSTestName(name),
		InTestModule:   scope.inTestModule,
		Visibility:     visibility,
		ReceiverType:   scope.className,
		TraitName:      scope.implementsIf,
		CodeText:       c.text(n),
	}
	rec.ID = lang.GenerateFunctionID(c.path, qualifiedName, startLine, endLine)
	c.finishFunction(rec, n.ChildByFieldName("body"))
}

func (c *jsExtractCtx) extractAnonymous(n *sitter.Node, scope jsScope) {
	name := "$arrow_" + itoa(c.anon)
	startLine, endLine := int(n.StartPoint().Row)+1, int(n.EndPoint().Row)+1
	rec := lang.FunctionRecord{
		QualifiedName:  name,
		Name:           name,
		FilePath:       c.path,
		Language:       c.lang,
		StartLine:      startLine,
		EndLine:        endLine,
		LengthLines:    endLine - startLine + 1,
		ParameterNames: c.paramNames(n.ChildByFieldName("parameters")),
		IsAsync:        isAsyncNode(n, c.src),
		InTestModule:   scope.inTestModule,
		Visibility:     "private",
		CodeText:       c.text(n),
	}
	rec.ID = lang.GenerateFunctionID(c.path, name, startLine, endLine)
	c.finishFunction(rec, n.ChildByFieldName("body"))

	for i := 0; i < int(n.ChildCount()); i++ {
		c.walkFunctions(n.Child(i), scope)
	}
}

// walkImports flattens import_statement nodes, satisfying spec §8
// invariant 1 analogously to Rust's use-tree flattening: one ImportEntity
// per named import, the default import, and the namespace import.
func (c *jsExtractCtx) walkImports(n *sitter.Node) {
	if n == nil {
		return
	}
	if n.Type() == "import_statement" {
		line := int(n.StartPoint().Row) + 1
		source := ""
		if src := n.ChildByFieldName("source"); src != nil {
			source = strings.Trim(c.text(src), "\"'`")
		}
		clause := n.ChildByFieldName("import") // may be nil (side-effect-only import)
		if clause == nil {
			for i := 0; i < int(n.ChildCount()); i++ {
				if n.Child(i).Type() == "import_clause" {
					clause = n.Child(i)
				}
			}
		}
		if clause == nil {
			c.fm.Imports = append(c.fm.Imports, lang.ImportEntity{FilePath: c.path, Path: source, Line: line})
		} else {
			c.flattenImportClause(clause, source, line)
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c.walkImports(n.Child(i))
	}
}

func (c *jsExtractCtx) flattenImportClause(n *sitter.Node, source string, line int) {
	switch n.Type() {
	case "identifier":
		c.fm.Imports = append(c.fm.Imports, lang.ImportEntity{FilePath: c.path, Path: source, Alias: c.text(n), Line: line})
	case "namespace_import":
		c.fm.Imports = append(c.fm.Imports, lang.ImportEntity{FilePath: c.path, Path: source, IsGlob: true, Line: line})
	case "named_imports":
		for i := 0; i < int(n.ChildCount()); i++ {
			spec := n.Child(i)
			if spec.Type() != "import_specifier" {
				continue
			}
			nameNode := spec.ChildByFieldName("name")
			aliasNode := spec.ChildByFieldName("alias")
			entry := lang.ImportEntity{FilePath: c.path, Path: source + "::" + c.text(nameNode), Line: line}
			if aliasNode != nil {
				entry.Alias = c.text(aliasNode)
			}
			c.fm.Imports = append(c.fm.Imports, entry)
		}
	default:
		for i := 0; i < int(n.ChildCount()); i++ {
			c.flattenImportClause(n.Child(i), source, line)
		}
	}
}

// walkBody is the shared JS/TS feature pass: calls, transformation-pattern
// chains (array/iterator methods), I/O signal extraction, and assignment
// mutation-scope classification.
func (c *jsExtractCtx) walkBody(n *sitter.Node, rec *lang.FunctionRecord, locals map[string]bool) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "arrow_function", "function_expression", "function":
		return // nested function literals are extracted independently

	case "call_expression":
		c.recordCall(n, rec, locals)

	case "variable_declarator":
		if id := n.ChildByFieldName("name"); id != nil && id.Type() == "identifier" {
			locals[c.text(id)] = true
		}

	case "assignment_expression":
		c.recordJSMutation(n.ChildByFieldName("left"), rec, locals)

	case "member_expression":
		if !c.memberIsCallee(n) && c.memberRootIsExternal(n, locals) {
			recordPathReference(c.text(n), rec)
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		c.walkBody(n.Child(i), rec, locals)
	}
}

// recordJSMutation classifies an assignment target: a bare local
// identifier is Local; this.field is External (the receiver object is
// always shared by reference in JS/TS, same reasoning as Python's self);
// anything else is conservatively External.
func (c *jsExtractCtx) recordJSMutation(target *sitter.Node, rec *lang.FunctionRecord, locals map[string]bool) {
	if target == nil {
		return
	}
	rec.Purity.HasMutations = true
	rec.Purity.TotalMutations++

	switch target.Type() {
	case "identifier":
		name := c.text(target)
		if locals[name] {
			rec.Purity.LocalMutations = append(rec.Purity.LocalMutations, name)
		} else {
			rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, name)
		}
	case "member_expression":
		obj := target.ChildByFieldName("object")
		prop := target.ChildByFieldName("property")
		objName := c.text(obj)
		full := objName + "." + c.text(prop)
		if objName == "this" {
			rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, full)
		} else if locals[objName] {
			rec.Purity.LocalMutations = append(rec.Purity.LocalMutations, full)
		} else {
			rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, full)
		}
	default:
		rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, c.text(target))
	}
}

// jsMutatingMethods is spec §4.2's "known mutating method" list as it
// appears on JS/TS's built-in Array/Map/Set types — calling one of these
// mutates the receiver in place even though the call is an expression, not
// an assignment.
var jsMutatingMethods = map[string]bool{
	"push": true, "pop": true, "shift": true, "unshift": true,
	"splice": true, "sort": true, "reverse": true, "fill": true,
	"copyWithin": true, "set": true, "delete": true, "clear": true,
	"add": true,
}

// memberIsCallee reports whether a member_expression sits in callee
// position of a call_expression (e.g. "obj.method" in "obj.method()") or is
// the target of an assignment — both are already accounted for elsewhere
// (recordCall, recordJSMutation) and must not also be scored as a
// path-purity read.
func (c *jsExtractCtx) memberIsCallee(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	switch p.Type() {
	case "call_expression":
		fn := p.ChildByFieldName("function")
		return fn != nil && fn.StartByte() == n.StartByte() && fn.EndByte() == n.EndByte()
	case "assignment_expression", "augmented_assignment_expression":
		left := p.ChildByFieldName("left")
		return left != nil && left.StartByte() == n.StartByte() && left.EndByte() == n.EndByte()
	}
	return false
}

// memberRootIsExternal reports whether the leftmost object of a member
// chain (obj.a.b -> obj) is a name outside this function's own scope: not
// "this" (instance state, not external state) and not a tracked local.
func (c *jsExtractCtx) memberRootIsExternal(n *sitter.Node, locals map[string]bool) bool {
	obj := n.ChildByFieldName("object")
	for obj != nil && obj.Type() == "member_expression" {
		obj = obj.ChildByFieldName("object")
	}
	if obj == nil || obj.Type() != "identifier" {
		return false
	}
	name := c.text(obj)
	return name != "this" && !locals[name]
}

func (c *jsExtractCtx) recordCall(n *sitter.Node, rec *lang.FunctionRecord, locals map[string]bool) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}
	line := int(n.StartPoint().Row) + 1
	switch fn.Type() {
	case "identifier":
		name := c.text(fn)
		rec.CallSites = append(rec.CallSites, lang.CallSite{CalleeName: name, Kind: lang.CallStatic, SameFileHint: true, Line: line})
		if cat, ok := classifyIO(name + "("); ok {
			rec.Purity.HasIOOperations = true
			rec.IOOperations = append(rec.IOOperations, lang.IOOperation{Category: cat, Line: line, Callee: name})
		}
	case "member_expression":
		propNode := fn.ChildByFieldName("property")
		objNode := fn.ChildByFieldName("object")
		name := c.text(propNode)
		obj := c.text(objNode)
		rec.CallSites = append(rec.CallSites, lang.CallSite{CalleeName: name, Kind: lang.CallInstance, ReceiverType: obj, Line: line})
		if kind, ok := transformKindFor(name); ok {
			rec.Transformations = append(rec.Transformations, lang.Transformation{Kind: kind, Line: line})
		}
		if cat, ok := classifyIO(obj + "." + name); ok {
			rec.Purity.HasIOOperations = true
			rec.IOOperations = append(rec.IOOperations, lang.IOOperation{Category: cat, Line: line, Callee: name})
		}
		if jsMutatingMethods[name] {
			c.recordJSMutation(objNode, rec, locals)
		}
	}
}
