// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache implements spec §6's Cache collaborator: a key->bytes
// lookup with get/set/clear/stats, backed by an in-memory bounded LRU
// rather than the teacher's CGO CozoDB layer (see DESIGN.md for why that
// layer was dropped — no persistent on-disk format is part of this core).
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Stats is the read-only snapshot spec §6's "stats" verb returns.
type Stats struct {
	Hits   uint64
	Misses uint64
	Len    int
}

// Cache is a bounded, concurrency-safe key->bytes store. The zero value is
// not usable; construct with New.
type Cache struct {
	lru    *lru.Cache[string, []byte]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New constructs a Cache holding at most size entries, evicting least-
// recently-used entries once full.
func New(size int) (*Cache, error) {
	l, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// Get returns the bytes stored under key and whether the key was present,
// recording a hit or miss.
func (c *Cache) Get(key string) ([]byte, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set stores value under key, evicting the least-recently-used entry if the
// cache is at capacity.
func (c *Cache) Set(key string, value []byte) {
	c.lru.Add(key, value)
}

// Clear removes every entry and resets the hit/miss counters.
func (c *Cache) Clear() {
	c.lru.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns a point-in-time snapshot of hit/miss counts and current
// entry count.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.lru.Len(),
	}
}
