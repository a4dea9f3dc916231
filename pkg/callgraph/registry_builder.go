// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package callgraph builds the project-wide function registry and
// trait-implementation tracker from a set of extracted files, then resolves
// phase-1 unresolved calls into a frozen call graph, per spec §3/§4.3.
package callgraph

import (
	"sort"
	"strings"

	"github.com/kraklabs/debtlens/pkg/lang"
)

// Index is the merged view over every extracted file that phase-2
// resolution and the classifiers consume. It is built once by BuildIndex;
// resolution and the classifiers only read it. The one later write is
// pkg/batch's purity pass, which stores each function's analyzed record back
// into Records before debt synthesis runs.
type Index struct {
	Registry *lang.FunctionRegistry
	Traits   *lang.TraitTracker
	Implements []lang.ImplementsEdge

	// Records is every function keyed by id, the join point for classifiers
	// and debt synthesis that need the full FunctionRecord, not just the
	// signature the registry carries.
	Records map[lang.FunctionID]lang.FunctionRecord
}

// BuildIndex merges a batch's file metrics into one project-wide index.
// Callers must supply files sorted by path (spec §5's deterministic merge
// order); BuildIndex does not sort them itself, since the same ordering
// must also drive the eventual debt-item list.
func BuildIndex(files []lang.FileMetrics) *Index {
	idx := &Index{
		Registry: lang.NewFunctionRegistry(),
		Traits:   lang.NewTraitTracker(),
		Records:  make(map[lang.FunctionID]lang.FunctionRecord),
	}

	var allTypes []lang.TypeEntity
	var allFunctions []lang.FunctionRecord

	for _, fm := range files {
		allTypes = append(allTypes, fm.Types...)
		for _, fn := range fm.Functions {
			allFunctions = append(allFunctions, fn)
			idx.Records[fn.ID] = fn
			idx.addToRegistry(fn)
		}
	}

	idx.buildTraitTracker(allFunctions)
	idx.Implements = BuildImplementsIndex(allTypes, allFunctions)
	idx.buildBuilders(allFunctions)

	return idx
}

func (idx *Index) addToRegistry(fn lang.FunctionRecord) {
	sig := lang.FunctionSignature{
		ID:            fn.ID,
		Name:          fn.Name,
		ReturnTypeRaw: fn.ReturnTypeRaw,
		IsSelf:        fn.ReturnsSelf,
		IsResult:      fn.ReturnsResult,
		IsOption:      fn.ReturnsOption,
	}
	idx.Registry.ByName[fn.Name] = append(idx.Registry.ByName[fn.Name], sig)

	if fn.ReceiverType != "" {
		if idx.Registry.ByMethod[fn.ReceiverType] == nil {
			idx.Registry.ByMethod[fn.ReceiverType] = make(map[string]lang.FunctionSignature)
		}
		// First definition wins on a duplicate (type, method) pair — mirrors
		// the teacher's qualifiedFunctions map, which never overwrites.
		if _, exists := idx.Registry.ByMethod[fn.ReceiverType][fn.Name]; !exists {
			idx.Registry.ByMethod[fn.ReceiverType][fn.Name] = sig
		}
	}
}

// buildTraitTracker populates Implementors/TraitsOfType from every function
// that carries an explicit TraitName — Rust `impl Trait for Type` and
// TypeScript `class X implements Y`. Python's implicit ABC duck-typing has
// no such marker and is covered instead by BuildImplementsIndex's
// structural pass.
func (idx *Index) buildTraitTracker(functions []lang.FunctionRecord) {
	// group by (TraitName, ReceiverType) -> method name -> function id
	type key struct{ trait, typ string }
	grouped := make(map[key]map[string]lang.FunctionID)
	order := []key{}

	for _, fn := range functions {
		if fn.TraitName == "" || fn.ReceiverType == "" {
			continue
		}
		k := key{fn.TraitName, fn.ReceiverType}
		if grouped[k] == nil {
			grouped[k] = make(map[string]lang.FunctionID)
			order = append(order, k)
		}
		grouped[k][fn.Name] = fn.ID
	}

	for _, k := range order {
		impl := lang.Impl{TypeName: k.typ, Methods: grouped[k]}
		idx.Traits.Implementors[k.trait] = append(idx.Traits.Implementors[k.trait], impl)
		idx.Traits.TraitsOfType[k.typ] = appendIfMissing(idx.Traits.TraitsOfType[k.typ], k.trait)
	}
}

func appendIfMissing(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// buildBuilders detects the builder pattern: a type with a "build"/"Build"
// terminal method and one or more "with_*" (or "with*") chain methods,
// mirroring the Function-Registry's builder_type -> BuilderInfo contract
// of spec §3. Registry.Builders is filled here only; no extractor or
// resolver step reads it, and locals are not bound to builder types.
func (idx *Index) buildBuilders(functions []lang.FunctionRecord) {
	byType := make(map[string][]lang.FunctionRecord)
	var order []string
	for _, fn := range functions {
		if fn.ReceiverType == "" {
			continue
		}
		if _, ok := byType[fn.ReceiverType]; !ok {
			order = append(order, fn.ReceiverType)
		}
		byType[fn.ReceiverType] = append(byType[fn.ReceiverType], fn)
	}

	for _, typeName := range order {
		methods := byType[typeName]
		var buildFunc lang.FunctionID
		var withFuncs []lang.FunctionID
		for _, fn := range methods {
			lower := strings.ToLower(fn.Name)
			switch {
			case lower == "build":
				buildFunc = fn.ID
			case strings.HasPrefix(lower, "with_") || strings.HasPrefix(lower, "with"):
				withFuncs = append(withFuncs, fn.ID)
			}
		}
		if buildFunc != "" && len(withFuncs) > 0 {
			idx.Registry.Builders[typeName] = lang.BuilderInfo{
				TypeName:  typeName,
				BuildFunc: buildFunc,
				WithFuncs: withFuncs,
			}
		}
	}
}

// SortedFunctionIDs returns every function id in deterministic
// (file path, start line) order, the merge order spec §5 requires for
// reproducible debt-item and call-graph output.
func (idx *Index) SortedFunctionIDs() []lang.FunctionID {
	ids := make([]lang.FunctionID, 0, len(idx.Records))
	for id := range idx.Records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := idx.Records[ids[i]], idx.Records[ids[j]]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		return ids[i] < ids[j]
	})
	return ids
}
