// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract implements the single-pass AST extraction and feature
// layer of spec §4.1: one parse per file producing every fact downstream
// components need (functions, imports, metrics, purity, call sites,
// transformation patterns).
package extract

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kraklabs/debtlens/pkg/lang"
)

// Session owns one sync.Pool of tree-sitter parsers per target language.
// Parsers are not safe for concurrent use, so each extraction borrows one
// from the pool and returns it when done — exactly the pattern in
// vjache-cie/pkg/ingestion/parser_treesitter.go's TreeSitterParser, extended
// with a Rust pool the teacher never needed.
//
// Session additionally exposes Reset, the span-table reset hook spec §4.1
// requires between batches: "failure to call this hook on large repos is a
// correctness bug (leads to parse errors deep in the batch)." Tree-sitter's
// Go bindings do not expose a process-wide span table directly; Reset
// discards and rebuilds the pools, which bounds the memory a long session
// can accumulate across many large files — the same effect spec §9's
// "parser session with a reset hook" design note describes, made a no-op
// cost otherwise.
type Session struct {
	init sync.Once

	rustPool sync.Pool
	pyPool   sync.Pool
	jsPool   sync.Pool
	tsPool   sync.Pool

	mu        sync.Mutex
	resetCount int
}

// NewSession constructs a Session. Parsers are created lazily on first use.
func NewSession() *Session {
	return &Session{}
}

func (s *Session) initPools() {
	s.init.Do(func() {
		s.rustPool.New = func() any {
			p := sitter.NewParser()
			p.SetLanguage(rust.GetLanguage())
			return p
		}
		s.pyPool.New = func() any {
			p := sitter.NewParser()
			p.SetLanguage(python.GetLanguage())
			return p
		}
		s.jsPool.New = func() any {
			p := sitter.NewParser()
			p.SetLanguage(javascript.GetLanguage())
			return p
		}
		s.tsPool.New = func() any {
			p := sitter.NewParser()
			p.SetLanguage(typescript.GetLanguage())
			return p
		}
	})
}

// poolFor returns the sync.Pool backing a language, or nil if unsupported.
func (s *Session) poolFor(l lang.Language) *sync.Pool {
	s.initPools()
	switch l {
	case lang.Rust:
		return &s.rustPool
	case lang.Python:
		return &s.pyPool
	case lang.JavaScript:
		return &s.jsPool
	case lang.TypeScript:
		return &s.tsPool
	default:
		return nil
	}
}

// Reset discards all pooled parsers. Called by the batch orchestrator
// (pkg/batch) after every default-200-file chunk, on the main goroutine,
// after all parallel extractions of that chunk have joined — matching
// spec §5's "single serialization point" rule.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetCount++
	s.rustPool = sync.Pool{New: s.rustPool.New}
	s.pyPool = sync.Pool{New: s.pyPool.New}
	s.jsPool = sync.Pool{New: s.jsPool.New}
	s.tsPool = sync.Pool{New: s.tsPool.New}
}

// ResetCount reports how many times Reset has run (test/metrics hook).
func (s *Session) ResetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetCount
}

// parseTree borrows a parser for l, parses src, and returns the tree plus a
// release func the caller must call (typically deferred) to return the
// parser to its pool.
func (s *Session) parseTree(l lang.Language, src []byte) (*sitter.Tree, func(), error) {
	pool := s.poolFor(l)
	if pool == nil {
		return nil, func() {}, fmt.Errorf("extract: unsupported language %q", l)
	}
	parserObj := pool.Get()
	parser, ok := parserObj.(*sitter.Parser)
	if !ok {
		return nil, func() {}, fmt.Errorf("extract: invalid parser type in pool for %q", l)
	}
	release := func() { pool.Put(parser) }

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		release()
		return nil, func() {}, fmt.Errorf("extract: parse %s: %w", l, err)
	}
	return tree, release, nil
}

// countErrors recursively counts ERROR nodes in a parsed tree, following
// vjache-cie/pkg/ingestion/parser_treesitter.go's countErrors.
func countErrors(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	c := 0
	if n.Type() == "ERROR" {
		c++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c += countErrors(n.Child(i))
	}
	return c
}
