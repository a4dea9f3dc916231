// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package lang

// CallGraphNode is a function node with the metadata spec §3 requires:
// is_entry_point, is_test, cyclomatic, length.
type CallGraphNode struct {
	ID            FunctionID
	QualifiedName string
	FilePath      string
	IsEntryPoint  bool
	IsTest        bool
	Cyclomatic    int
	Length        int
}

// CallGraph holds nodes, resolved edges, and the two indexes spec §3
// requires: callee-set per node and caller-set per node. Invariant: every
// edge endpoint is a node (enforced by AddEdge/AddNode below).
type CallGraph struct {
	nodes    map[FunctionID]*CallGraphNode
	edges    []ResolvedEdge
	callees  map[FunctionID][]FunctionID // insertion order preserved
	callers  map[FunctionID][]FunctionID
}

// NewCallGraph constructs an empty call graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{
		nodes:   make(map[FunctionID]*CallGraphNode),
		callees: make(map[FunctionID][]FunctionID),
		callers: make(map[FunctionID][]FunctionID),
	}
}

// AddNode registers a function node. Re-adding the same id is a no-op.
func (g *CallGraph) AddNode(n CallGraphNode) {
	if _, ok := g.nodes[n.ID]; ok {
		return
	}
	node := n
	g.nodes[n.ID] = &node
}

// HasNode reports whether id is a known node.
func (g *CallGraph) HasNode(id FunctionID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node for id, or nil.
func (g *CallGraph) Node(id FunctionID) *CallGraphNode {
	return g.nodes[id]
}

// AddEdge adds a resolved call edge. Per spec §4.3's "adding an edge always
// updates both indexes atomically; a half-updated graph is a bug" —
// this method never returns a partially-applied state: both the edge list
// and both indexes are updated together, or (if either endpoint is not a
// node) nothing is.
//
// Per spec §4.3's ordering note: cyclic relationships and self-edges are
// allowed, and the graph is a multigraph — the edge list keeps every edge
// added, including repeated (caller, callee) pairs of the same or a
// different Kind (the edge list is the ground truth per spec §5), while the
// callee and caller indexes hold each (caller, callee) pair once.
func (g *CallGraph) AddEdge(e ResolvedEdge) bool {
	if !g.HasNode(e.CallerID) || !g.HasNode(e.CalleeID) {
		return false
	}
	g.edges = append(g.edges, e)
	g.callees[e.CallerID] = appendUnique(g.callees[e.CallerID], e.CalleeID)
	g.callers[e.CalleeID] = appendUnique(g.callers[e.CalleeID], e.CallerID)
	return true
}

func appendUnique(list []FunctionID, id FunctionID) []FunctionID {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}

// Callees returns the insertion-ordered list of functions called by id.
func (g *CallGraph) Callees(id FunctionID) []FunctionID {
	return g.callees[id]
}

// Callers returns the insertion-ordered list of functions calling id.
func (g *CallGraph) Callers(id FunctionID) []FunctionID {
	return g.callers[id]
}

// Edges returns the full ground-truth edge list, in the order added.
func (g *CallGraph) Edges() []ResolvedEdge {
	return g.edges
}

// Nodes returns every registered node, in no particular order; callers
// that need determinism should sort by FilePath/QualifiedName.
func (g *CallGraph) Nodes() []*CallGraphNode {
	out := make([]*CallGraphNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}
