// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_MatchesSpecDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 10, cfg.ComplexityThreshold)
	assert.Equal(t, PresetDefault, cfg.ThresholdsPreset)
	assert.Equal(t, 200, cfg.BatchSize)
	assert.Equal(t, 4, cfg.Concurrency.ParseWorkers)
	assert.Equal(t, []string{"new", "default", "from_", "with_"}, cfg.ConstructorDetection.Patterns)
	assert.NotEmpty(t, cfg.ExcludeGlobs)
}

func TestApplyPreset_OverwritesComplexityThreshold(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.ApplyPreset(PresetStrict))
	assert.Equal(t, 6, cfg.ComplexityThreshold)

	require.NoError(t, cfg.ApplyPreset(PresetLenient))
	assert.Equal(t, 15, cfg.ComplexityThreshold)

	require.NoError(t, cfg.ApplyPreset(PresetDefault))
	assert.Equal(t, 10, cfg.ComplexityThreshold)
}

func TestApplyPreset_RejectsUnknownName(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyPreset("bogus")
	assert.Error(t, err)
}

func TestSaveThenLoad_RoundTripsOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".debtlens.yaml")

	cfg := DefaultConfig()
	cfg.ComplexityThreshold = 20
	cfg.ExcludeGlobs = []string{"vendor/**"}

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, loaded.ComplexityThreshold)
	assert.Equal(t, []string{"vendor/**"}, loaded.ExcludeGlobs)
}

func TestLoad_MergesOverDefaultsForUnsetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("complexity_threshold: 42\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.ComplexityThreshold)
	// Untouched fields keep the default values.
	assert.Equal(t, 200, cfg.BatchSize)
	assert.Equal(t, 4, cfg.Concurrency.ParseWorkers)
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
