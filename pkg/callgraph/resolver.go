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
	"crypto/sha256"
	"encoding/hex"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/kraklabs/debtlens/pkg/lang"
)

// externalFilePath marks a synthetic node created for a call that phase 2
// could not resolve — spec §4.3's "unresolved calls remain as zero-line-
// number edges; downstream consumers treat them as external."
const externalFilePath = "<external>"

// Resolver performs phase-2 call resolution over the index BuildIndex
// produced, grounded on vjache-cie/pkg/ingestion/resolver.go's CallResolver:
// same lookup order (exact qualified name, same-file static, receiver-typed
// instance/trait dispatch, then a cross-file pure-name fallback), same
// sequential/parallel split at 1000 calls, same 8-worker cap.
type Resolver struct {
	mu sync.RWMutex

	idx *Index

	byQualifiedName map[string]lang.FunctionID
	byBaseName      map[string][]baseNameCandidate
	sameFile        map[string]map[string]fileCandidate

	externalStubs map[string]lang.FunctionID
}

type baseNameCandidate struct {
	id           lang.FunctionID
	filePath     string
	qualSegments int
}

type fileCandidate struct {
	id   lang.FunctionID
	line int
}

// NewResolver builds the lookup structures phase 2 needs from an already
// frozen Index. Call BuildGraph afterward with the project's flattened
// unresolved-call list.
func NewResolver(idx *Index) *Resolver {
	r := &Resolver{
		idx:             idx,
		byQualifiedName: make(map[string]lang.FunctionID),
		byBaseName:      make(map[string][]baseNameCandidate),
		sameFile:        make(map[string]map[string]fileCandidate),
		externalStubs:   make(map[string]lang.FunctionID),
	}

	for _, id := range idx.SortedFunctionIDs() {
		fn := idx.Records[id]
		if _, exists := r.byQualifiedName[fn.QualifiedName]; !exists {
			r.byQualifiedName[fn.QualifiedName] = id
		}

		segments := strings.Count(fn.QualifiedName, "::") + strings.Count(fn.QualifiedName, ".")
		r.byBaseName[fn.Name] = append(r.byBaseName[fn.Name], baseNameCandidate{
			id:           id,
			filePath:     fn.FilePath,
			qualSegments: segments,
		})

		if r.sameFile[fn.FilePath] == nil {
			r.sameFile[fn.FilePath] = make(map[string]fileCandidate)
		}
		// Spec §4.3: "two candidates in the same file with identical
		// qualified names: keep the earlier line" — since SortedFunctionIDs
		// walks in (file, start line) order, the first write per qualified
		// name (above) and per base name (here) is already the earliest;
		// later ones are no-ops.
		if _, exists := r.sameFile[fn.FilePath][fn.Name]; !exists {
			r.sameFile[fn.FilePath][fn.Name] = fileCandidate{id: id, line: fn.StartLine}
		}
	}

	return r
}

// BuildGraph resolves every unresolved call and returns the frozen call
// graph: every function is a node, plus one synthetic external node per
// distinct callee name that no resolution strategy could place.
func (r *Resolver) BuildGraph(unresolved []lang.UnresolvedCall) *lang.CallGraph {
	g := lang.NewCallGraph()

	for _, id := range r.idx.SortedFunctionIDs() {
		fn := r.idx.Records[id]
		g.AddNode(lang.CallGraphNode{
			ID:            id,
			QualifiedName: fn.QualifiedName,
			FilePath:      fn.FilePath,
			IsEntryPoint:  fn.Name == "main",
			IsTest:        fn.IsTest,
			Cyclomatic:    fn.Cyclomatic,
			Length:        fn.LengthLines,
		})
	}

	edges := r.resolveCalls(unresolved)
	for _, e := range edges {
		if !g.HasNode(e.CalleeID) {
			g.AddNode(lang.CallGraphNode{
				ID:            e.CalleeID,
				QualifiedName: string(e.CalleeID),
				FilePath:      externalFilePath,
			})
		}
		g.AddEdge(e)
	}

	return g
}

func (r *Resolver) resolveCalls(unresolved []lang.UnresolvedCall) []lang.ResolvedEdge {
	if len(unresolved) < 1000 {
		return r.resolveSequential(unresolved)
	}
	return r.resolveParallel(unresolved)
}

func (r *Resolver) resolveSequential(unresolved []lang.UnresolvedCall) []lang.ResolvedEdge {
	var out []lang.ResolvedEdge
	seen := make(map[string]bool)
	for _, call := range unresolved {
		edge := r.resolveOne(call)
		key := string(edge.CallerID) + "->" + string(edge.CalleeID) + ":" + kindString(edge.Kind)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, edge)
	}
	return out
}

// resolveParallel mirrors the teacher's worker-pool fan-out: the lookup
// indexes are read-only after NewResolver, so concurrent resolveOne calls
// are safe; only the externalStubs map (which grows lazily on miss) needs
// the mutex.
func (r *Resolver) resolveParallel(unresolved []lang.UnresolvedCall) []lang.ResolvedEdge {
	numWorkers := runtime.NumCPU()
	if numWorkers > 8 {
		numWorkers = 8
	}

	jobs := make(chan int, len(unresolved))
	results := make(chan lang.ResolvedEdge, len(unresolved))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results <- r.resolveOne(unresolved[i])
			}
		}()
	}

	for i := range unresolved {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make(map[string]bool)
	var out []lang.ResolvedEdge
	for edge := range results {
		key := string(edge.CallerID) + "->" + string(edge.CalleeID) + ":" + kindString(edge.Kind)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, edge)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CallerID != out[j].CallerID {
			return out[i].CallerID < out[j].CallerID
		}
		return out[i].CalleeID < out[j].CalleeID
	})

	return out
}

// resolveOne applies spec §4.3's phase-2 lookup order, first hit wins:
//  1. exact qualified-name match in the project function/method index
//  2. same-file static call with an unqualified base name
//  3. receiver-typed instance/trait dispatch (direct method, trait method,
//     blanket impl)
//  4. cross-file pure-name fallback, preferring exact name equality, a
//     candidate in a different file, then fewest qualifier segments
//
// A call nothing resolves becomes an edge to a deterministic external stub
// node with line 0, never a fatal error (spec §7).
func (r *Resolver) resolveOne(call lang.UnresolvedCall) lang.ResolvedEdge {
	site := call.Site

	if id, ok := r.byQualifiedName[site.CalleeName]; ok {
		return lang.ResolvedEdge{CallerID: call.CallerID, CalleeID: id, Kind: site.Kind, Line: site.Line}
	}

	if site.Kind == lang.CallStatic && site.SameFileHint && !strings.ContainsAny(site.CalleeName, ":.") {
		if byName, ok := r.sameFile[call.FilePath]; ok {
			if cand, ok := byName[site.CalleeName]; ok {
				return lang.ResolvedEdge{CallerID: call.CallerID, CalleeID: cand.id, Kind: site.Kind, Line: site.Line}
			}
		}
	}

	if (site.Kind == lang.CallInstance || site.Kind == lang.CallTraitMethod) && site.ReceiverType != "" {
		if id, ok := r.resolveReceiverMethod(site.ReceiverType, site.CalleeName); ok {
			return lang.ResolvedEdge{CallerID: call.CallerID, CalleeID: id, Kind: site.Kind, Line: site.Line}
		}
	}

	baseName := lastSegment(site.CalleeName)
	if id, ok := r.resolveBaseNameFallback(baseName, call.FilePath); ok {
		return lang.ResolvedEdge{CallerID: call.CallerID, CalleeID: id, Kind: site.Kind, Line: site.Line}
	}

	return lang.ResolvedEdge{CallerID: call.CallerID, CalleeID: r.externalStub(site.CalleeName), Kind: site.Kind, Line: 0}
}

// resolveReceiverMethod tries T::m directly, then every trait T implements
// (T::Trait::m, collapsed here to trait_name::m since our registry keys
// methods by concrete receiver type, not by trait), then every blanket
// impl's method — constraint satisfaction is not checked here (it is
// language-specific, and neither this resolver nor TraitTracker.Implements
// has the type information); a blanket impl is treated as a last-resort,
// unconditional match.
func (r *Resolver) resolveReceiverMethod(receiverType, name string) (lang.FunctionID, bool) {
	methodName := lastSegment(name)

	if methods, ok := r.idx.Registry.ByMethod[receiverType]; ok {
		if sig, ok := methods[methodName]; ok {
			return sig.ID, true
		}
	}

	for _, trait := range r.idx.Traits.TraitsOfType[receiverType] {
		if methods, ok := r.idx.Registry.ByMethod[trait]; ok {
			if sig, ok := methods[methodName]; ok {
				return sig.ID, true
			}
		}
	}

	for _, blanket := range r.idx.Traits.Blanket {
		if id, ok := blanket.Methods[methodName]; ok {
			return id, true
		}
	}

	return "", false
}

// resolveBaseNameFallback implements spec §4.3 item 4: among all functions
// sharing a bare name, prefer a candidate in a different file from the
// caller, then the one with fewest qualifier segments (closest to a free
// top-level function), then lexical file-path order for determinism.
func (r *Resolver) resolveBaseNameFallback(name, callerFilePath string) (lang.FunctionID, bool) {
	candidates, ok := r.byBaseName[name]
	if !ok || len(candidates) == 0 {
		return "", false
	}

	best := -1
	for i, c := range candidates {
		if best == -1 {
			best = i
			continue
		}
		if candidateBetter(candidates[i], candidates[best], callerFilePath) {
			best = i
		}
	}
	return candidates[best].id, true
}

func candidateBetter(a, b baseNameCandidate, callerFilePath string) bool {
	aDiff := a.filePath != callerFilePath
	bDiff := b.filePath != callerFilePath
	if aDiff != bDiff {
		return aDiff
	}
	if a.qualSegments != b.qualSegments {
		return a.qualSegments < b.qualSegments
	}
	return a.filePath < b.filePath
}

func lastSegment(name string) string {
	name = strings.TrimPrefix(name, "::")
	if i := strings.LastIndexAny(name, ".:"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func (r *Resolver) externalStub(calleeName string) lang.FunctionID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.externalStubs[calleeName]; ok {
		return id
	}
	h := sha256.Sum256([]byte("_external_:" + calleeName))
	id := lang.FunctionID("ext:" + hex.EncodeToString(h[:16]))
	r.externalStubs[calleeName] = id
	return id
}

func kindString(k lang.CallSiteKind) string {
	switch k {
	case lang.CallStatic:
		return "static"
	case lang.CallInstance:
		return "instance"
	case lang.CallTraitMethod:
		return "trait_method"
	case lang.CallClosure:
		return "closure"
	case lang.CallFunctionPointer:
		return "function_pointer"
	default:
		return "unknown"
	}
}
