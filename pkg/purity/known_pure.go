// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package purity implements spec §4.2's purity engine: given the raw facts
// pkg/extract gathers per function (I/O operations, unsafe blocks, local
// and external mutation targets, call sites, unknown-macro counts), decide
// a PurityLevel, a confidence score, and the human-readable impurity
// reasons.
package purity

// knownPureByReceiver tables known-pure standard-library methods keyed by
// receiver type, ported from the is_known_pure_call test surface
// (mod.rs's test_is_known_pure_call_* group): Option/Result/Iterator/str/
// Vec methods that read or transform without side effects.
var knownPureByReceiver = map[string]map[string]bool{
	"Option": {"map": true, "and_then": true, "unwrap_or": true, "unwrap_or_else": true,
		"is_some": true, "is_none": true, "filter": true, "or": true, "or_else": true},
	"Result": {"map": true, "map_err": true, "and_then": true, "is_ok": true, "is_err": true,
		"ok": true, "unwrap_or": true, "unwrap_or_else": true},
	"Iterator": {"map": true, "filter": true, "fold": true, "collect": true, "sum": true,
		"count": true, "any": true, "all": true, "find": true, "zip": true, "enumerate": true,
		"rev": true, "take": true, "skip": true, "chain": true},
	"str":  {"len": true, "is_empty": true, "contains": true, "trim": true, "to_string": true, "split": true},
	"Vec":  {"len": true, "is_empty": true, "iter": true, "get": true, "contains": true, "clone": true},
	"Clone":   {"clone": true},
	"Default": {"default": true},
	"std::mem": {"size_of": true, "align_of": true},
}

// knownPureMethodNames is the receiver-agnostic fallback (is_known_pure_method):
// a method name alone, with no resolvable receiver type, that is pure in
// every observed receiver. Spans Rust iterator/Option/Result vocabulary
// plus the JS/TS array-method and Python builtin equivalents pkg/extract's
// transformKindFor already recognizes as transformation patterns.
var knownPureMethodNames = map[string]bool{
	"map": true, "filter": true, "collect": true, "len": true, "is_empty": true,
	"clone": true, "fold": true, "sum": true, "count": true, "any": true, "all": true,
	"find": true, "zip": true, "enumerate": true, "rev": true, "take": true, "skip": true,
	"reduce": true, "forEach": true, "slice": true, "concat": true, "join": true,
	"keys": true, "values": true, "entries": true, "toString": true,
	"upper": true, "lower": true, "strip": true, "split": true, "format": true,
}

// knownImpureMethodNames flags methods that are never pure regardless of
// receiver, so an unresolved receiver doesn't default them into
// knownPureMethodNames's complement being treated as merely "unknown".
var knownImpureMethodNames = map[string]bool{
	"println": true, "print": true, "eprintln": true, "eprint": true, "write": true,
	"writeln": true, "push": true, "insert": true, "remove": true, "clear": true,
	"send": true, "recv": true, "lock": true, "spawn": true,
}

// isKnownPureCall checks a (method, receiverType) pair against the
// receiver-keyed table.
func isKnownPureCall(name string, receiverType string) bool {
	if receiverType == "" {
		return false
	}
	if tbl, ok := knownPureByReceiver[receiverType]; ok {
		return tbl[name]
	}
	return false
}

// isKnownPureMethod checks a bare method name with no known receiver type.
func isKnownPureMethod(name string) bool {
	if knownImpureMethodNames[name] {
		return false
	}
	return knownPureMethodNames[name]
}
