// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package purity

import "fmt"

// CalleePurity classifies a callee's purity for propagation into the
// caller's confidence score, mirroring known_pure_functions.rs's
// CalleePurity enum.
type CalleePurity int

const (
	// CalleeKnownPure is a stdlib/builtin function known pure by name.
	CalleeKnownPure CalleePurity = iota
	// CalleeAnalyzedPure is a function this engine already classified pure.
	CalleeAnalyzedPure
	// CalleeAnalyzedImpure is a function this engine already classified impure.
	CalleeAnalyzedImpure
	// CalleeUnknown is an external function outside the whitelist and the registry.
	CalleeUnknown
)

// CalleeEvidence is one resolved call-site classification, gathered for
// aggregation into the caller's confidence.
type CalleeEvidence struct {
	CalleeName string
	Purity     CalleePurity
	Confidence float64 // meaningful only when Purity == CalleeAnalyzedPure
}

// CalleeLookup resolves a previously-analyzed function's purity by name,
// for calls the registry already has a result for (pkg/callgraph supplies
// this once the call graph and a first analysis pass exist). Returns
// ok=false when the callee is not in the registry yet.
type CalleeLookup func(calleeName string) (isPure bool, confidence float64, ok bool)

// ResolveCalleePurity classifies one call site's callee, following
// resolve_callee_purity's four-step lookup order: known-pure-by-receiver,
// known-pure-by-name, registry cache, then unknown.
func ResolveCalleePurity(calleeName, receiverType string, lookup CalleeLookup) CalleeEvidence {
	if isKnownPureCall(calleeName, receiverType) || isKnownPureMethod(calleeName) {
		return CalleeEvidence{CalleeName: calleeName, Purity: CalleeKnownPure}
	}
	if lookup != nil {
		if isPure, confidence, ok := lookup(calleeName); ok {
			if isPure {
				return CalleeEvidence{CalleeName: calleeName, Purity: CalleeAnalyzedPure, Confidence: confidence}
			}
			return CalleeEvidence{CalleeName: calleeName, Purity: CalleeAnalyzedImpure}
		}
	}
	return CalleeEvidence{CalleeName: calleeName, Purity: CalleeUnknown}
}

// AggregateCalleePurity folds a set of resolved callee evidences into an
// overall (isPure, confidence, reasons) contribution, mirroring
// aggregate_callee_purity: known-pure callees nudge confidence up, an
// impure callee flips the result impure, unknown callees erode confidence
// without forcing impurity.
func AggregateCalleePurity(evidence []CalleeEvidence) (isPure bool, confidence float64, reasons []string) {
	isPure = true
	confidence = 1.0

	for _, e := range evidence {
		switch e.Purity {
		case CalleeKnownPure:
			confidence *= 1.02
		case CalleeAnalyzedPure:
			confidence *= e.Confidence
		case CalleeAnalyzedImpure:
			isPure = false
			confidence = 0.95
			reasons = append(reasons, fmt.Sprintf("calls impure function %q", e.CalleeName))
		case CalleeUnknown:
			confidence *= 0.9
			if confidence < 0.6 {
				reasons = append(reasons, fmt.Sprintf("calls unresolved function %q", e.CalleeName))
			}
		}
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.3 {
		confidence = 0.3
	}
	return isPure, confidence, reasons
}
