// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetThenGetReturnsValue(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	c.Set("a", []byte("hello"))
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), v)
}

func TestCache_GetMissingKeyReportsMiss(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	_, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Misses)
}

func TestCache_StatsTracksHitsAndMisses(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	c.Set("a", []byte("1"))
	c.Get("a")
	c.Get("a")
	c.Get("b")

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Len)
}

func TestCache_EvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Set("c", []byte("3")) // evicts "a"

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCache_ClearResetsEntriesAndCounters(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	c.Set("a", []byte("1"))
	c.Get("a")
	c.Clear()

	stats := c.Stats()
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(0), stats.Misses)
	assert.Equal(t, 0, stats.Len)

	_, ok := c.Get("a")
	assert.False(t, ok)
}
