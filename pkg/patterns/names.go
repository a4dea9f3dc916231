// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package patterns implements the role classifiers and extraction-pattern
// matchers of spec §4.4: per-function role tags (constructor, debug,
// orchestrator, ...), state-machine/coordinator detection, and the
// extraction-pattern matchers with their confidence scoring and name
// inference.
package patterns

import "strings"

// debugNamePatterns are the name shapes of a debug/diagnostic function.
var debugNamePatterns = []string{
	"debug_", "print_", "dump_", "trace_",
	"_diagnostics", "_debug", "_stats",
}

// outputIOKeywords mark output-shaped I/O in a name, used to distinguish
// genuine diagnostics from read/write/load/save data plumbing.
var outputIOKeywords = []string{
	"print", "display", "log", "emit", "render", "summary", "report",
	"debug", "trace", "info", "warn", "error",
}

// constructorNamePatterns are matched as exact name, prefix, or suffix,
// mirroring the teacher's configurable pattern list.
var constructorNamePatterns = []string{
	"new", "default", "from_", "with_", "create", "build",
}

// classificationNameHints mark a pattern-matching / classifier function.
var classificationNameHints = []string{
	"detect", "classify", "identify", "determine", "resolve",
	"match", "parse_type", "get_type", "find_type",
}

// orchestrationNameHints mark a function whose name itself suggests
// coordination rather than computation.
var orchestrationNameHints = []string{
	"orchestrate", "coordinate", "dispatch", "process", "handle",
	"run", "execute", "pipeline",
}

// ioKeywords are substrings that mark I/O-shaped behavior in a name.
var ioKeywords = []string{
	"read", "write", "file", "socket", "http", "request", "response",
	"stream", "buffer", "stdin", "stdout", "stderr", "print", "input",
	"output", "display", "json", "serialize", "deserialize", "emit",
	"render", "save", "load", "export", "import", "log", "trace",
	"debug", "info", "warn", "error", "summary", "report",
}

// strongIONamePrefixes identify I/O orchestration (a function whose
// branching exists only to format/route output, not business logic).
var strongIONamePrefixes = []string{
	"output_", "write_", "print_", "format_", "serialize_", "save_",
	"export_", "display_", "render_", "emit_",
}

// meaningfulCalleeExcludes are callee names filtered out before counting
// an orchestrator's delegation targets — boilerplate, not coordination.
var meaningfulCalleeExcludes = map[string]bool{
	"format": true, "write": true, "print": true, "println": true,
	"clone": true, "to_string": true, "into": true, "from": true,
}

// meaningfulCalleeExcludePrefixes excludes standard-library namespaces.
var meaningfulCalleeExcludePrefixes = []string{"std::", "core::", "alloc::"}

// functionalChainMarkers mark a callee name as part of an idiomatic
// functional chain rather than genuine orchestration.
var functionalChainMarkers = []string{"Pipeline", "Stream", "Iterator"}

// stateFieldKeywords mark a field/identifier name as state-related, per
// spec §4.4's state-machine evidence signals.
var stateFieldKeywords = []string{
	"state", "mode", "status", "phase", "stage",
	"desired", "current", "target", "actual",
}

// errorAccumulationKeywords mark a push target as error/validation
// accumulation rather than action accumulation (invariant 8).
var errorAccumulationKeywords = []string{
	"error", "err", "issue", "warning", "warn", "validation", "invalid", "problem",
}

// actionTypePatterns are explicit action-type literal prefixes that boost
// coordinator confidence.
var actionTypePatterns = []string{
	"Action::", "Command::", "Operation::", "Task::", "Event::", "Message::",
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func matchesNamePattern(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		switch {
		case strings.HasPrefix(p, "_"):
			if strings.HasSuffix(lower, p) {
				return true
			}
		case strings.HasSuffix(p, "_"):
			if strings.HasPrefix(lower, p) {
				return true
			}
		default:
			if lower == p || strings.HasPrefix(lower, p) || strings.HasSuffix(lower, p) {
				return true
			}
		}
	}
	return false
}
