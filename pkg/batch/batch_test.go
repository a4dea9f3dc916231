// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/debtlens/pkg/config"
	"github.com/kraklabs/debtlens/pkg/lang"
)

func TestRun_SingleFileProducesMetricsAndNoCallGraphEdges(t *testing.T) {
	cfg := config.DefaultConfig()
	r := NewRunner(cfg)

	files := []SourceFile{
		{Path: "lib.rs", Source: []byte(`
pub fn add(a: i32, b: i32) -> i32 {
    a + b
}
`)},
	}

	res, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	require.Len(t, res.Files[0].Functions, 1)

	fn := res.Files[0].Functions[0]
	assert.Equal(t, "add", fn.Name)
	// A pure arithmetic function with no callees or I/O should resolve
	// StrictlyPure once pkg/purity.Analyze runs inside the orchestrator.
	assert.Equal(t, lang.StrictlyPure, fn.Purity.Level)
	assert.NotNil(t, res.CallGraph)
}

func TestRun_CrossFileCallResolvesThroughCallGraph(t *testing.T) {
	cfg := config.DefaultConfig()
	r := NewRunner(cfg)

	files := []SourceFile{
		{Path: "a.rs", Source: []byte(`
pub fn helper(x: i32) -> i32 {
    x * 2
}
`)},
		{Path: "b.rs", Source: []byte(`
pub fn caller(x: i32) -> i32 {
    helper(x)
}
`)},
	}

	res, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	require.NotNil(t, res.CallGraph)

	var callerID lang.FunctionID
	for _, fm := range res.Files {
		for _, fn := range fm.Functions {
			if fn.Name == "caller" {
				callerID = fn.ID
			}
		}
	}
	require.NotEmpty(t, callerID)
	assert.NotEmpty(t, res.CallGraph.Callees(callerID))
}

func TestRun_DeterministicFileOrderingByPath(t *testing.T) {
	cfg := config.DefaultConfig()
	r := NewRunner(cfg)

	files := []SourceFile{
		{Path: "z.rs", Source: []byte(`pub fn z() {}`)},
		{Path: "a.rs", Source: []byte(`pub fn a() {}`)},
		{Path: "m.rs", Source: []byte(`pub fn m() {}`)},
	}

	res, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, res.Files, 3)
	assert.Equal(t, []string{"a.rs", "m.rs", "z.rs"}, []string{
		res.Files[0].Path, res.Files[1].Path, res.Files[2].Path,
	})
}

func TestRun_ReportsProgress(t *testing.T) {
	cfg := config.DefaultConfig()
	r := NewRunner(cfg)

	var lastCurrent, lastTotal int64
	calls := 0
	r.OnProgress = func(current, total int64, phase string) {
		calls++
		lastCurrent = current
		lastTotal = total
		assert.Equal(t, "parsing", phase)
	}

	files := []SourceFile{
		{Path: "a.py", Source: []byte("def f():\n    return 1\n")},
		{Path: "b.py", Source: []byte("def g():\n    return 2\n")},
	}

	_, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(2), lastCurrent)
	assert.Equal(t, int64(2), lastTotal)
}

func TestRun_ParseErrorCountedNotFatal(t *testing.T) {
	cfg := config.DefaultConfig()
	r := NewRunner(cfg)

	files := []SourceFile{
		{Path: "ok.rs", Source: []byte(`pub fn ok() {}`)},
		{Path: "README.md", Source: []byte("# not source")},
	}

	res, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ParseErrors)
}

func TestRun_ChunksAcrossBatchSizeBoundary(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BatchSize = 2 // force multiple chunks, exercising the Session.Reset hook
	r := NewRunner(cfg)

	var files []SourceFile
	for i := 0; i < 5; i++ {
		files = append(files, SourceFile{Path: pyFileName(i), Source: []byte("def f():\n    return 1\n")})
	}

	res, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Len(t, res.Files, 5)
	for _, fm := range res.Files {
		assert.Len(t, fm.Functions, 1)
	}
}

func pyFileName(i int) string {
	names := []string{"f0.py", "f1.py", "f2.py", "f3.py", "f4.py"}
	return names[i]
}
