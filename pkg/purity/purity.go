// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package purity

import "github.com/kraklabs/debtlens/pkg/lang"

// Analyze decides a function's PurityLevel, confidence, and impurity
// reasons from the raw facts pkg/extract already gathered on
// rec.Purity/rec.CallSites, following determine_purity_level_internal's
// decision: I/O or an external mutation always forces Impure; otherwise a
// reference to a path/global the Path-Purity Classifier could not prove
// Constant or ProbablyConstant means ReadOnly (it accesses external state,
// but doesn't mutate or perform I/O); otherwise local mutations alone mean
// LocallyPure; otherwise StrictlyPure. Unsafe code alone does not lower the
// level — per spec §4.2, "pure unsafe" (a read/transmute/pointer-arithmetic
// with no accompanying I/O or external mutation) stays at whatever level
// its other signals already put it at, and is penalized through confidence
// alone (unsafeFactor).
//
// lookup resolves already-analyzed callees for confidence propagation
// (pkg/callgraph supplies this once a first full pass has populated a
// registry). With nil, call sites still contribute: known-pure callees are
// recognized by name and every other callee counts as unknown.
func Analyze(rec *lang.FunctionRecord, lookup CalleeLookup) lang.PurityRecord {
	p := rec.Purity // copy: extraction-time facts already live here

	hasExternal := len(p.ExternalMutations) > 0
	hasLocal := len(p.LocalMutations) > 0 || p.HasMutations
	accessesExternalState := p.UnknownPathCount > 0

	switch {
	case p.HasIOOperations || hasExternal:
		p.Level = lang.Impure
	case accessesExternalState:
		p.Level = lang.ReadOnly
	case hasLocal:
		p.Level = lang.LocallyPure
	default:
		p.Level = lang.StrictlyPure
	}

	p.ImpurityReasons = collectReasons(p, hasExternal, hasLocal, accessesExternalState)

	p.Confidence = calculateConfidence(confidenceParams{
		hasUnsafe:         p.HasUnsafe,
		unknownMacroCount: p.UnknownMacroCount,
		unknownPathCount:  p.UnknownPathCount,
		localMutations:    len(p.LocalMutations),
		externalMutations: len(p.ExternalMutations),
		hasIOOperations:   p.HasIOOperations,
	})

	if evidence := evidenceFromCallSites(rec, lookup); len(evidence) > 0 {
		calleesPure, calleeConfidence, calleeReasons := AggregateCalleePurity(evidence)
		p.Confidence *= calleeConfidence
		if p.Confidence > 1.0 {
			p.Confidence = 1.0
		}
		if p.Confidence < confidenceFloor {
			p.Confidence = confidenceFloor
		}
		if !calleesPure && p.Level == lang.StrictlyPure {
			// A call to a known-impure function makes this function at
			// best LocallyPure even when its own body shows no signal —
			// the impurity is inherited, not locally observed.
			p.Level = lang.LocallyPure
		}
		p.ImpurityReasons = append(p.ImpurityReasons, calleeReasons...)
	}

	return p
}

func collectReasons(p lang.PurityRecord, hasExternal, hasLocal, accessesExternalState bool) []string {
	var reasons []string
	if p.HasIOOperations {
		reasons = append(reasons, "performs I/O")
	}
	if hasExternal {
		reasons = append(reasons, "mutates state outside its own scope")
	}
	if p.HasUnsafe {
		reasons = append(reasons, "contains an unsafe block")
	}
	if !p.HasIOOperations && !hasExternal && accessesExternalState {
		reasons = append(reasons, "references a path of unknown purity outside its own scope")
	}
	if !p.HasIOOperations && !hasExternal && !accessesExternalState && hasLocal {
		reasons = append(reasons, "mutates local state only")
	}
	if p.UnknownMacroCount > 0 {
		reasons = append(reasons, "invokes unrecognized macros of unknown purity")
	}
	return reasons
}

// evidenceFromCallSites resolves every call site's callee purity, skipping
// any call whose callee name equals the function's own name (treated as
// self-recursion, which contributes nothing new to confidence).
func evidenceFromCallSites(rec *lang.FunctionRecord, lookup CalleeLookup) []CalleeEvidence {
	var evidence []CalleeEvidence
	for _, cs := range rec.CallSites {
		if cs.CalleeName == rec.Name {
			continue
		}
		evidence = append(evidence, ResolveCalleePurity(cs.CalleeName, cs.ReceiverType, lookup))
	}
	return evidence
}
