// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package callgraph

import (
	"regexp"

	"github.com/kraklabs/debtlens/pkg/lang"
)

// declaredMethodPattern matches method-shaped lines inside a trait/interface
// body, generalized across languages from the teacher's Go-only
// interfaceMethodPattern: a leading identifier immediately followed by an
// argument list, e.g. "fn write(&mut self, data: &[u8]);", "write(data) {",
// "def write(self, data):".
var declaredMethodPattern = regexp.MustCompile(`(?m)^\s*(?:fn\s+|def\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// BuildImplementsIndex determines which concrete types implement which
// traits/interfaces, per spec §3's Trait-Implementation Tracker. Two
// strategies are combined:
//
//  1. Explicit edges, for languages whose syntax names the relationship
//     directly — Rust's `impl Trait for Type` and TypeScript's
//     `class X implements Y` — read straight off each FunctionRecord's
//     TraitName/ReceiverType pair.
//  2. Structural (duck-typed) edges, generalizing the teacher's
//     BuildImplementsIndex method-set matching: a concrete type implements
//     a trait/interface if its method set is a superset of the methods the
//     trait/interface body declares. This is the only signal available for
//     Python's implicit ABC/Protocol style, where there is no "implements"
//     keyword to read.
func BuildImplementsIndex(types []lang.TypeEntity, functions []lang.FunctionRecord) []lang.ImplementsEdge {
	explicit, seen := explicitImplementsEdges(functions)
	structural := structuralImplementsEdges(types, functions, seen)
	return append(explicit, structural...)
}

type typePair struct{ typeName, ifaceName string }

func explicitImplementsEdges(functions []lang.FunctionRecord) ([]lang.ImplementsEdge, map[typePair]bool) {
	seen := make(map[typePair]bool)
	var edges []lang.ImplementsEdge
	for _, fn := range functions {
		if fn.TraitName == "" || fn.ReceiverType == "" {
			continue
		}
		p := typePair{fn.ReceiverType, fn.TraitName}
		if seen[p] {
			continue
		}
		seen[p] = true
		edges = append(edges, lang.ImplementsEdge{
			TypeName:      fn.ReceiverType,
			InterfaceName: fn.TraitName,
			FilePath:      fn.FilePath,
		})
	}
	return edges, seen
}

// structuralImplementsEdges mirrors vjache-cie/pkg/ingestion/implements.go's
// BuildImplementsIndex almost line for line, adapted to consume
// lang.TypeEntity/lang.FunctionRecord instead of the teacher's dotted
// "Type.Method" FunctionEntity.Name convention (our extractor already
// carries ReceiverType as its own field, so no name-splitting is needed).
func structuralImplementsEdges(types []lang.TypeEntity, functions []lang.FunctionRecord, alreadyFound map[typePair]bool) []lang.ImplementsEdge {
	interfaces := declaredInterfaceMethods(types)
	typeMethods := buildTypeMethodSets(functions)

	interfaceNames := make(map[string]bool, len(interfaces))
	for _, iface := range interfaces {
		interfaceNames[iface.name] = true
	}

	var edges []lang.ImplementsEdge
	for _, iface := range interfaces {
		if len(iface.methods) == 0 {
			continue
		}
		for typeName, methods := range typeMethods {
			if interfaceNames[typeName] || typeName == iface.name {
				continue
			}
			if alreadyFound[typePair{typeName, iface.name}] {
				continue
			}
			if hasAllMethods(methods, iface.methods) {
				edges = append(edges, lang.ImplementsEdge{
					TypeName:      typeName,
					InterfaceName: iface.name,
					FilePath:      typeFilePath(typeName, functions),
				})
			}
		}
	}
	return edges
}

type interfaceInfo struct {
	name    string
	methods []string
}

func declaredInterfaceMethods(types []lang.TypeEntity) []interfaceInfo {
	var result []interfaceInfo
	for _, t := range types {
		if t.Kind != lang.TypeInterface && t.Kind != lang.TypeTrait {
			continue
		}
		matches := declaredMethodPattern.FindAllStringSubmatch(t.CodeText, -1)
		var names []string
		for _, m := range matches {
			if len(m) > 1 {
				names = append(names, m[1])
			}
		}
		result = append(result, interfaceInfo{name: t.Name, methods: names})
	}
	return result
}

func buildTypeMethodSets(functions []lang.FunctionRecord) map[string]map[string]bool {
	typeMethods := make(map[string]map[string]bool)
	for _, fn := range functions {
		if fn.ReceiverType == "" {
			continue
		}
		if typeMethods[fn.ReceiverType] == nil {
			typeMethods[fn.ReceiverType] = make(map[string]bool)
		}
		typeMethods[fn.ReceiverType][fn.Name] = true
	}
	return typeMethods
}

func hasAllMethods(methods map[string]bool, required []string) bool {
	for _, m := range required {
		if !methods[m] {
			return false
		}
	}
	return true
}

func typeFilePath(typeName string, functions []lang.FunctionRecord) string {
	for _, fn := range functions {
		if fn.ReceiverType == typeName {
			return fn.FilePath
		}
	}
	return ""
}
