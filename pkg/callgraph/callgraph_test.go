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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/debtlens/pkg/lang"
)

func fn(id, qualified, name, filePath, receiver, trait string, startLine int) lang.FunctionRecord {
	return lang.FunctionRecord{
		ID:            lang.FunctionID(id),
		QualifiedName: qualified,
		Name:          name,
		FilePath:      filePath,
		ReceiverType:  receiver,
		TraitName:     trait,
		StartLine:     startLine,
	}
}

func TestBuildIndex_SameFileQualifiedNameLookup(t *testing.T) {
	files := []lang.FileMetrics{
		{
			Path: "lib.rs",
			Functions: []lang.FunctionRecord{
				fn("fn:1", "crate::helper", "helper", "lib.rs", "", "", 1),
				fn("fn:2", "crate::caller", "caller", "lib.rs", "", "", 5),
			},
		},
	}
	idx := BuildIndex(files)
	assert.Len(t, idx.Records, 2)
	assert.Contains(t, idx.Registry.ByName, "helper")
}

// Invariant 5: every resolved edge's endpoints are both graph nodes, and
// each endpoint's callee/caller index agrees with the edge.
func TestResolver_CallGraphEdgeIntegrity(t *testing.T) {
	files := []lang.FileMetrics{
		{
			Path: "lib.rs",
			Functions: []lang.FunctionRecord{
				fn("fn:caller", "crate::caller", "caller", "lib.rs", "", "", 1),
				fn("fn:helper", "crate::helper", "helper", "lib.rs", "", "", 10),
			},
		},
	}
	idx := BuildIndex(files)
	r := NewResolver(idx)

	unresolved := []lang.UnresolvedCall{
		{
			CallerID: "fn:caller",
			FilePath: "lib.rs",
			Site:     lang.CallSite{CalleeName: "helper", Kind: lang.CallStatic, SameFileHint: true, Line: 2},
		},
	}

	g := r.BuildGraph(unresolved)

	require.True(t, g.HasNode(lang.FunctionID("fn:caller")))
	require.True(t, g.HasNode(lang.FunctionID("fn:helper")))

	for _, e := range g.Edges() {
		require.True(t, g.HasNode(e.CallerID))
		require.True(t, g.HasNode(e.CalleeID))
		assert.Contains(t, g.Callees(e.CallerID), e.CalleeID)
		assert.Contains(t, g.Callers(e.CalleeID), e.CallerID)
	}
}

func TestResolver_SameFileStaticCallResolves(t *testing.T) {
	files := []lang.FileMetrics{
		{
			Path: "lib.rs",
			Functions: []lang.FunctionRecord{
				fn("fn:caller", "crate::caller", "caller", "lib.rs", "", "", 1),
				fn("fn:helper", "crate::helper", "helper", "lib.rs", "", "", 10),
			},
		},
	}
	idx := BuildIndex(files)
	r := NewResolver(idx)

	unresolved := []lang.UnresolvedCall{
		{
			CallerID: "fn:caller",
			FilePath: "lib.rs",
			Site:     lang.CallSite{CalleeName: "helper", Kind: lang.CallStatic, SameFileHint: true, Line: 2},
		},
	}

	g := r.BuildGraph(unresolved)
	assert.Equal(t, []lang.FunctionID{"fn:helper"}, g.Callees(lang.FunctionID("fn:caller")))
}

func TestResolver_ReceiverTypedInstanceCallResolves(t *testing.T) {
	files := []lang.FileMetrics{
		{
			Path: "lib.rs",
			Functions: []lang.FunctionRecord{
				fn("fn:caller", "crate::Widget::run", "run", "lib.rs", "Widget", "", 1),
				fn("fn:render", "crate::Widget::render", "render", "lib.rs", "Widget", "", 10),
			},
		},
	}
	idx := BuildIndex(files)
	r := NewResolver(idx)

	unresolved := []lang.UnresolvedCall{
		{
			CallerID: "fn:caller",
			FilePath: "lib.rs",
			Site:     lang.CallSite{CalleeName: "render", Kind: lang.CallInstance, ReceiverType: "Widget", Line: 3},
		},
	}

	g := r.BuildGraph(unresolved)
	assert.Equal(t, []lang.FunctionID{"fn:render"}, g.Callees(lang.FunctionID("fn:caller")))
}

func TestResolver_UnresolvedCallBecomesExternalStubNotFatal(t *testing.T) {
	files := []lang.FileMetrics{
		{
			Path: "lib.rs",
			Functions: []lang.FunctionRecord{
				fn("fn:caller", "crate::caller", "caller", "lib.rs", "", "", 1),
			},
		},
	}
	idx := BuildIndex(files)
	r := NewResolver(idx)

	unresolved := []lang.UnresolvedCall{
		{
			CallerID: "fn:caller",
			FilePath: "lib.rs",
			Site:     lang.CallSite{CalleeName: "external_crate::frob", Kind: lang.CallStatic, Line: 2},
		},
	}

	g := r.BuildGraph(unresolved)
	callees := g.Callees(lang.FunctionID("fn:caller"))
	require.Len(t, callees, 1)
	node := g.Node(callees[0])
	require.NotNil(t, node)
	assert.Equal(t, externalFilePath, node.FilePath)
}

func TestResolver_CrossFilePureNameFallbackPrefersOtherFile(t *testing.T) {
	files := []lang.FileMetrics{
		{
			Path: "a.rs",
			Functions: []lang.FunctionRecord{
				fn("fn:caller", "crate::a::caller", "caller", "a.rs", "", "", 1),
			},
		},
		{
			Path: "b.rs",
			Functions: []lang.FunctionRecord{
				fn("fn:target", "crate::b::target", "target", "b.rs", "", "", 1),
			},
		},
	}
	idx := BuildIndex(files)
	r := NewResolver(idx)

	unresolved := []lang.UnresolvedCall{
		{
			CallerID: "fn:caller",
			FilePath: "a.rs",
			Site:     lang.CallSite{CalleeName: "target", Kind: lang.CallStatic, Line: 2},
		},
	}

	g := r.BuildGraph(unresolved)
	assert.Equal(t, []lang.FunctionID{"fn:target"}, g.Callees(lang.FunctionID("fn:caller")))
}

func TestBuildImplementsIndex_ExplicitTraitEdge(t *testing.T) {
	functions := []lang.FunctionRecord{
		fn("fn:1", "crate::Widget::render", "render", "lib.rs", "Widget", "Drawable", 1),
	}
	edges := BuildImplementsIndex(nil, functions)
	require.Len(t, edges, 1)
	assert.Equal(t, "Widget", edges[0].TypeName)
	assert.Equal(t, "Drawable", edges[0].InterfaceName)
}

func TestBuildImplementsIndex_StructuralDuckTyping(t *testing.T) {
	types := []lang.TypeEntity{
		{Name: "Writer", Kind: lang.TypeInterface, CodeText: "def write(self, data):\n    ...\ndef flush(self):\n    ...\n"},
	}
	functions := []lang.FunctionRecord{
		fn("fn:1", "FileWriter.write", "write", "io.py", "FileWriter", "", 1),
		fn("fn:2", "FileWriter.flush", "flush", "io.py", "FileWriter", "", 5),
	}
	edges := BuildImplementsIndex(types, functions)
	require.Len(t, edges, 1)
	assert.Equal(t, "FileWriter", edges[0].TypeName)
	assert.Equal(t, "Writer", edges[0].InterfaceName)
}

func TestBuildImplementsIndex_PartialMethodSetDoesNotMatch(t *testing.T) {
	types := []lang.TypeEntity{
		{Name: "Writer", Kind: lang.TypeInterface, CodeText: "def write(self, data):\n    ...\ndef flush(self):\n    ...\n"},
	}
	functions := []lang.FunctionRecord{
		fn("fn:1", "PartialWriter.write", "write", "io.py", "PartialWriter", "", 1),
	}
	edges := BuildImplementsIndex(types, functions)
	assert.Empty(t, edges)
}
