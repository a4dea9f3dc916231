// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import "github.com/kraklabs/debtlens/pkg/lang"

// classifyIO maps a callee's dotted/scoped name to an IOCategory by suffix
// and substring match. Shared across all four languages since the
// vocabulary overlaps heavily (print/open/read/write/connect/fetch/env);
// per-language extractors pass the full scoped or dotted text they have
// (e.g. "std::fs::read_to_string", "fs.readFileSync", "requests.get").
func classifyIO(name string) (lang.IOCategory, bool) {
	switch {
	case containsAny(name, "println", "eprintln", "print(", "eprint", "console.log", "console.error",
		"console.warn", "input(", "Stdin", "Stdout", "Stderr", "sys.stdout", "sys.stderr"):
		return lang.IOConsole, true
	case containsAny(name, "fs::", "File::", "fs.", "open(", "read_to_string", "write_all",
		"readFileSync", "writeFileSync", "readFile", "writeFile", "os.open", "with open"):
		return lang.IOFile, true
	case containsAny(name, "TcpStream", "TcpListener", "reqwest", "hyper::", "net::", "fetch(",
		"http.", "requests.", "urllib", "socket.", "axios", "XMLHttpRequest", "websocket", "WebSocket"):
		return lang.IONetwork, true
	case containsAny(name, "sqlx::", "diesel::", "Connection", "sqlite3", "psycopg", "pymongo",
		".query(", ".execute(", "cursor.", "Pool::"):
		return lang.IODatabase, true
	case containsAny(name, "tokio::", "async_std::", "asyncio.", "await ", ".then(", "Promise"):
		return lang.IOAsync, true
	case containsAny(name, "env::var", "env::args", "os.environ", "os.getenv", "process.env"):
		return lang.IOEnvironment, true
	case containsAny(name, "process::", "Command::", "std::process", "subprocess.", "child_process",
		"os.system", "exec("):
		return lang.IOSystem, true
	}
	return lang.IOConsole, false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if indexOf(s, sub) {
			return true
		}
	}
	return false
}

func indexOf(s, sub string) bool {
	if len(sub) == 0 || len(sub) > len(s) {
		return len(sub) == 0
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

// transformKindFor maps a bare method/function name to a TransformKind. The
// name set spans Rust iterator adapters, JS/TS array methods, and Python
// builtins/itertools — spec §4.1's "transformation pattern" extraction is
// defined per-language but the vocabulary is shared enough to table once.
func transformKindFor(name string) (lang.TransformKind, bool) {
	switch name {
	case "map":
		return lang.TransformMap, true
	case "filter", "filter_map":
		return lang.TransformFilter, true
	case "fold", "reduce":
		if name == "reduce" {
			return lang.TransformReduce, true
		}
		return lang.TransformFold, true
	case "flat_map", "flatMap", "flatten":
		return lang.TransformFlatMap, true
	case "collect", "list", "to_list", "toList", "to_vec", "toVec":
		return lang.TransformCollect, true
	case "for_each", "forEach", "each":
		return lang.TransformForEach, true
	case "find", "find_map", "findIndex":
		return lang.TransformFind, true
	case "any", "some":
		return lang.TransformAny, true
	case "all", "every":
		return lang.TransformAll, true
	}
	return lang.TransformMap, false
}
