// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallGraphEdgeIntegrity(t *testing.T) {
	g := NewCallGraph()
	caller := FunctionID("fn:caller")
	callee := FunctionID("fn:callee")
	g.AddNode(CallGraphNode{ID: caller, QualifiedName: "mod::caller"})
	g.AddNode(CallGraphNode{ID: callee, QualifiedName: "mod::callee"})

	ok := g.AddEdge(ResolvedEdge{CallerID: caller, CalleeID: callee, Kind: CallStatic, Line: 10})
	require.True(t, ok)

	assert.Contains(t, g.Callees(caller), callee)
	assert.Contains(t, g.Callers(callee), caller)
	assert.Len(t, g.Edges(), 1)
}

func TestCallGraphRejectsEdgeToUnknownNode(t *testing.T) {
	g := NewCallGraph()
	caller := FunctionID("fn:caller")
	g.AddNode(CallGraphNode{ID: caller})

	ok := g.AddEdge(ResolvedEdge{CallerID: caller, CalleeID: FunctionID("fn:missing"), Kind: CallStatic})
	assert.False(t, ok)
	assert.Empty(t, g.Edges())
	assert.Empty(t, g.Callees(caller))
}

func TestCallGraphAllowsMultigraphDifferentKinds(t *testing.T) {
	g := NewCallGraph()
	a := FunctionID("fn:a")
	b := FunctionID("fn:b")
	g.AddNode(CallGraphNode{ID: a})
	g.AddNode(CallGraphNode{ID: b})

	g.AddEdge(ResolvedEdge{CallerID: a, CalleeID: b, Kind: CallStatic, Line: 1})
	g.AddEdge(ResolvedEdge{CallerID: a, CalleeID: b, Kind: CallInstance, Line: 2})

	assert.Len(t, g.Edges(), 2)
	// the callee index still dedupes the (caller, callee) pair itself
	assert.Len(t, g.Callees(a), 1)
}
