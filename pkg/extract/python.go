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

var pythonComplexitySpec = complexitySpec{
	nesting: map[string]bool{
		"if_statement": true, "elif_clause": true,
		"while_statement": true, "for_statement": true,
		"except_clause": true,
	},
	elseIfAlternative: func(n *sitter.Node) bool {
		return n.Type() == "elif_clause"
	},
	matchArm: "case_clause",
	wildcardPattern: func(n *sitter.Node, src []byte) bool {
		return strings.TrimSpace(nodeTextBytes(n, src)) == "case _:" || strings.Contains(nodeTextBytes(n, src), "case _:")
	},
	shortCircuitOps: map[string]bool{"and": true, "or": true},
	binaryExprNode:  "boolean_operator",
	operatorField:   "operator",
	ternaryNode:     "conditional_expression",
	functionLiteral: map[string]bool{"lambda": true},
}

func nodeTextBytes(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

func (s *Session) extractPython(path string, src []byte, fm *lang.FileMetrics) error {
	tree, release, err := s.parseTree(lang.Python, src)
	if err != nil {
		return err
	}
	defer release()

	c := &pythonExtractCtx{path: path, src: src, fm: fm, anon: 0}
	c.walkTypes(tree.RootNode())
	c.walkFunctions(tree.RootNode(), "", false)
	return nil
}

type pythonExtractCtx struct {
	path string
	src  []byte
	fm   *lang.FileMetrics
	anon int
}

func (c *pythonExtractCtx) text(n *sitter.Node) string { return nodeTextBytes(n, c.src) }

// walkTypes follows vjache-cie/pkg/ingestion/parser_python.go's
// extractPythonTypes/walkPythonTypesAST: one TypeEntity per class_definition.
func (c *pythonExtractCtx) walkTypes(n *sitter.Node) {
	if n == nil {
		return
	}
	if n.Type() == "class_definition" {
		name := c.text(n.ChildByFieldName("name"))
		startLine, endLine := int(n.StartPoint().Row)+1, int(n.EndPoint().Row)+1
		c.fm.Types = append(c.fm.Types, lang.TypeEntity{
			ID:        lang.GenerateTypeID(c.path, name, startLine, endLine),
			Name:      name,
			Kind:      lang.TypeClass,
			FilePath:  c.path,
			CodeText:  c.text(n),
			StartLine: startLine,
			EndLine:   endLine,
		})
		c.extractClassFields(n, name)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c.walkTypes(n.Child(i))
	}
}

func (c *pythonExtractCtx) extractClassFields(classNode *sitter.Node, className string) {
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		stmt := body.Child(i)
		if stmt.Type() != "expression_statement" {
			continue
		}
		assign := stmt.Child(0)
		if assign == nil {
			continue
		}
		var left, right *sitter.Node
		switch assign.Type() {
		case "assignment":
			left, right = assign.ChildByFieldName("left"), assign.ChildByFieldName("type")
		default:
			continue
		}
		if left == nil || left.Type() != "identifier" {
			continue
		}
		fieldType := ""
		if right != nil {
			fieldType = c.text(right)
		}
		c.fm.Fields = append(c.fm.Fields, lang.FieldEntity{
			OwnerType: className,
			FieldName: c.text(left),
			FieldType: fieldType,
			FilePath:  c.path,
			Line:      int(stmt.StartPoint().Row) + 1,
		})
	}
}

// walkFunctions mirrors walkPythonFunctions: class bodies set classPrefix for
// their methods, lambdas get an anonymous "$lambda_N" name, both are
// recorded as independent FunctionRecords.
func (c *pythonExtractCtx) walkFunctions(n *sitter.Node, classPrefix string, inTestModule bool) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "class_definition":
		name := c.text(n.ChildByFieldName("name"))
		testClass := inTestModule || strings.HasPrefix(name, "Test")
		if body := n.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.ChildCount()); i++ {
				c.walkFunctions(body.Child(i), name, testClass)
			}
		}
		return

	case "function_definition":
		c.extractFunction(n, classPrefix, inTestModule)

	case "lambda":
		c.anon++
		c.extractLambda(n, c.anon)
	}

	if n.Type() != "class_definition" {
		for i := 0; i < int(n.ChildCount()); i++ {
			c.walkFunctions(n.Child(i), classPrefix, inTestModule)
		}
	}
}

func (c *pythonExtractCtx) extractFunction(n *sitter.Node, classPrefix string, inTestModule bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := c.text(nameNode)
	qualifiedName := name
	if classPrefix != "" {
		qualifiedName = classPrefix + "." + name
	}

	isAsync := false
	for i := 0; i < int(n.ChildCount()); i++ {
		if c.text(n.Child(i)) == "async" {
			isAsync = true
			break
		}
	}

	var decorators []string
	parent := n.Parent()
	if parent != nil && parent.Type() == "decorated_definition" {
		for i := 0; i < int(parent.ChildCount()); i++ {
			ch := parent.Child(i)
			if ch.Type() == "decorator" {
				decorators = append(decorators, c.text(ch))
			}
		}
	}

	isTraitMethod := false
	for _, d := range decorators {
		if strings.Contains(d, "abstractmethod") {
			isTraitMethod = true
		}
	}

	isTest := inTestModule || strings.HasPrefix(name, "test_")
	for _, d := range decorators {
		if strings.Contains(d, "pytest") {
			isTest = true
		}
	}

	params := n.ChildByFieldName("parameters")
	var paramNames []string
	if params != nil {
		for i := 0; i < int(params.ChildCount()); i++ {
			p := params.Child(i)
			switch p.Type() {
			case "identifier":
				paramNames = append(paramNames, c.text(p))
			case "typed_parameter", "default_parameter", "typed_default_parameter":
				if nm := p.ChildByFieldName("name"); nm != nil {
					paramNames = append(paramNames, c.text(nm))
				} else if p.ChildCount() > 0 {
					paramNames = append(paramNames, c.text(p.Child(0)))
				}
			}
		}
	}
	receiverType := ""
	if classPrefix != "" && len(paramNames) > 0 && (paramNames[0] == "self" || paramNames[0] == "cls") {
		receiverType = classPrefix
	}

	returnTypeRaw := ""
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		returnTypeRaw = c.text(rt)
	}

	startLine, endLine := int(n.StartPoint().Row)+1, int(n.EndPoint().Row)+1
	rec := lang.FunctionRecord{
		QualifiedName:  qualifiedName,
		Name:           name,
		FilePath:       c.path,
		Language:       lang.Python,
		StartLine:      startLine,
		EndLine:        endLine,
		LengthLines:    endLine - startLine + 1,
		ParameterNames: paramNames,
		IsAsync:        isAsync,
		IsTest:         isTest,
		IsTraitMethod:  isTraitMethod,
		InTestModule:   inTestModule,
		Visibility:     pythonVisibility(name),
		ReceiverType:   receiverType,
		ReturnTypeRaw:  returnTypeRaw,
		ReturnsOption:  strings.Contains(returnTypeRaw, "Optional"),
		CodeText:       c.text(n),
	}
	rec.ID = lang.GenerateFunctionID(c.path, qualifiedName, startLine, endLine)

	locals := map[string]bool{}
	for _, p := range paramNames {
		locals[p] = true
	}
	if body := n.ChildByFieldName("body"); body != nil {
		cx := computeComplexity(pythonComplexitySpec, body, c.src)
		rec.Cyclomatic, rec.Cognitive, rec.MaxNesting = cx.Cyclomatic, cx.Cognitive, cx.MaxNesting
		c.walkBody(body, &rec, locals)
	} else {
		rec.Cyclomatic = 1
	}

	c.fm.Functions = append(c.fm.Functions, rec)
	c.recordUndefinedNames(n, qualifiedName)
}

// recordUndefinedNames runs the undefined-name checker over a function and
// turns each finding directly into a critical debt item, per spec §4.5/§8
// scenario S6 and original_source's errors_to_debt_items.
func (c *pythonExtractCtx) recordUndefinedNames(fnNode *sitter.Node, qualifiedName string) {
	for _, ref := range FindUndefinedNames(fnNode, c.src) {
		c.fm.DebtItems = append(c.fm.DebtItems, lang.DebtItem{
			ID:          lang.GenerateDebtItemID(c.path, qualifiedName, string(lang.DebtCodeSmell), ref.Line),
			Category:    lang.DebtCodeSmell,
			Severity:    lang.SeverityCritical,
			Location:    lang.Location{File: c.path, Line: ref.Line, Column: ref.Col},
			Description: "undefined variable '" + ref.Name + "' in function '" + qualifiedName + "'",
			Impact:      "runtime NameError on this path",
			Effort:      "low",
			Priority:    0.9,
			Suggestions: []string{"define '" + ref.Name + "' before use or import it"},
		})
	}
}

// pythonVisibility follows PEP 8 convention: a single leading underscore is
// "private", dunder names are "public" (they're part of the data model).
func pythonVisibility(name string) string {
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return "public"
	}
	if strings.HasPrefix(name, "_") {
		return "private"
	}
	return "public"
}

func (c *pythonExtractCtx) extractLambda(n *sitter.Node, index int) {
	name := lambdaName(index)
	startLine, endLine := int(n.StartPoint().Row)+1, int(n.EndPoint().Row)+1
	rec := lang.FunctionRecord{
		QualifiedName: name,
		Name:          name,
		FilePath:      c.path,
		Language:      lang.Python,
		StartLine:     startLine,
		EndLine:       endLine,
		LengthLines:   endLine - startLine + 1,
		CodeText:      c.text(n),
		Cyclomatic:    1,
	}
	rec.ID = lang.GenerateFunctionID(c.path, name, startLine, endLine)
	if body := n.ChildByFieldName("body"); body != nil {
		c.walkBody(body, &rec, map[string]bool{})
	}
	c.fm.Functions = append(c.fm.Functions, rec)
}

func lambdaName(index int) string {
	return "$lambda_" + itoa(index)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// walkBody performs the shared feature pass (calls, comprehension-style
// transformations, I/O, mutation-scope classification) over a function
// body, matching the phase-1 work walkPythonCallExpressions does in the
// teacher, extended with purity signal extraction.
func (c *pythonExtractCtx) walkBody(n *sitter.Node, rec *lang.FunctionRecord, locals map[string]bool) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "lambda":
		return // nested lambdas are extracted as independent functions above

	case "call":
		c.recordCall(n, rec, locals)

	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		rec.Transformations = append(rec.Transformations, lang.Transformation{Kind: lang.TransformMap, Line: int(n.StartPoint().Row) + 1})

	case "global_statement", "nonlocal_statement":
		rec.Purity.HasMutations = true
		rec.Purity.TotalMutations++
		rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, "global:"+c.text(n))

	case "assignment":
		c.recordPythonMutation(n.ChildByFieldName("left"), rec, locals)

	case "augmented_assignment":
		c.recordPythonMutation(n.ChildByFieldName("left"), rec, locals)

	case "attribute":
		if !pythonPathIsCallee(n) && c.attributeRootIsExternal(n, locals) {
			recordPathReference(c.text(n), rec)
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		c.walkBody(n.Child(i), rec, locals)
	}
}

// recordPythonMutation classifies an assignment target: a bare local name
// is Local (new or reassigned binding); self.attr is External (Python
// objects are always reference semantics, so mutating self is visible to
// every other holder of the reference — unlike Rust's owned-self builder
// case, there is no "consuming self" variant in Python); anything else
// (module attribute, subscript on a non-local) is conservatively External.
func (c *pythonExtractCtx) recordPythonMutation(target *sitter.Node, rec *lang.FunctionRecord, locals map[string]bool) {
	if target == nil {
		return
	}
	rec.Purity.HasMutations = true
	rec.Purity.TotalMutations++

	switch target.Type() {
	case "identifier":
		name := c.text(target)
		locals[name] = true
		rec.Purity.LocalMutations = append(rec.Purity.LocalMutations, name)
	case "attribute":
		obj := target.ChildByFieldName("object")
		attr := target.ChildByFieldName("attribute")
		objName := c.text(obj)
		full := objName + "." + c.text(attr)
		if objName == "self" {
			rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, full)
		} else if locals[objName] {
			rec.Purity.LocalMutations = append(rec.Purity.LocalMutations, full)
		} else {
			rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, full)
		}
	case "subscript":
		val := target.ChildByFieldName("value")
		if val != nil && val.Type() == "identifier" && locals[c.text(val)] {
			rec.Purity.LocalMutations = append(rec.Purity.LocalMutations, c.text(val))
		} else {
			rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, c.text(target))
		}
	default:
		rec.Purity.ExternalMutations = append(rec.Purity.ExternalMutations, c.text(target))
	}
}

// pythonMutatingMethods is spec §4.2's "known mutating method" list, as it
// appears on Python's built-in list/dict/set types — calling one of these
// mutates the receiver in place even though the call is an expression, not
// an assignment.
var pythonMutatingMethods = map[string]bool{
	"append": true, "insert": true, "remove": true, "clear": true,
	"extend": true, "sort": true, "reverse": true, "pop": true,
	"popitem": true, "update": true, "add": true, "discard": true,
	"setdefault": true, "truncate": true,
}

// attributeRootIsExternal reports whether the leftmost object of an
// attribute chain (obj.a.b -> obj) is a name outside this function's own
// scope: not "self"/"cls" (instance/class state, not external state) and
// not a tracked local. Only such reads are candidates for the Path-Purity
// Classifier — reading one's own object's fields is ordinary OOP, not an
// access to external state.
func (c *pythonExtractCtx) attributeRootIsExternal(n *sitter.Node, locals map[string]bool) bool {
	obj := n.ChildByFieldName("object")
	for obj != nil && obj.Type() == "attribute" {
		obj = obj.ChildByFieldName("object")
	}
	if obj == nil || obj.Type() != "identifier" {
		return false
	}
	name := c.text(obj)
	return name != "self" && name != "cls" && !locals[name]
}

// pythonPathIsCallee reports whether an attribute node sits in callee
// position of a call expression (e.g. the "obj.method" of "obj.method()")
// or is the target of an assignment — both are already accounted for
// elsewhere (recordCall, recordPythonMutation) and must not also be scored
// as a path-purity read.
func pythonPathIsCallee(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	switch p.Type() {
	case "call":
		fn := p.ChildByFieldName("function")
		return fn != nil && fn.StartByte() == n.StartByte() && fn.EndByte() == n.EndByte()
	case "assignment", "augmented_assignment":
		left := p.ChildByFieldName("left")
		return left != nil && left.StartByte() == n.StartByte() && left.EndByte() == n.EndByte()
	}
	return false
}

func (c *pythonExtractCtx) recordCall(n *sitter.Node, rec *lang.FunctionRecord, locals map[string]bool) {
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
	case "attribute":
		attrNode := fn.ChildByFieldName("attribute")
		objNode := fn.ChildByFieldName("object")
		name := c.text(attrNode)
		obj := c.text(objNode)
		rec.CallSites = append(rec.CallSites, lang.CallSite{CalleeName: name, Kind: lang.CallInstance, ReceiverType: obj, Line: line})
		if kind, ok := transformKindFor(name); ok {
			rec.Transformations = append(rec.Transformations, lang.Transformation{Kind: kind, Line: line})
		}
		if cat, ok := classifyIO(obj + "." + name); ok {
			rec.Purity.HasIOOperations = true
			rec.IOOperations = append(rec.IOOperations, lang.IOOperation{Category: cat, Line: line, Callee: name})
		}
		if pythonMutatingMethods[name] {
			c.recordPythonMutation(objNode, rec, locals)
		}
	}
}
