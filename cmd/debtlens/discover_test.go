// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverFiles_FindsSupportedLanguagesOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rs"), []byte("pub fn a() {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.py"), []byte("def b(): pass"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# hi"), 0o644))

	paths, err := discoverFiles(dir, nil)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestDiscoverFiles_PrunesExcludedDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules", "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules", "pkg", "x.js"), []byte("function x() {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.js"), []byte("function main() {}"), 0o644))

	paths, err := discoverFiles(dir, []string{"node_modules/**"})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "main.js"), paths[0])
}

func TestIsExcluded_MatchesGlobPattern(t *testing.T) {
	assert.True(t, isExcluded("bundle.min.js", []string{"*.min.js"}))
	assert.False(t, isExcluded("bundle.js", []string{"*.min.js"}))
}

func TestIsExcludedDir_MatchesDirectoryPrefix(t *testing.T) {
	assert.True(t, isExcludedDir("vendor", []string{"vendor/**"}))
	assert.True(t, isExcludedDir("vendor/sub", []string{"vendor/**"}))
	assert.False(t, isExcludedDir("src", []string{"vendor/**"}))
}
