// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"fmt"
	"strings"

	"github.com/kraklabs/debtlens/pkg/lang"
)

// ExtractFile is the contract of spec §4.1: given (path, source bytes),
// return a file record containing every fact any downstream component will
// ever need, via a single visitor traversal. A parse error for this file
// becomes an error return (spec §7: "Surface per-file Err, continue
// batch" — the caller, pkg/batch, is responsible for continuing past it).
func (s *Session) ExtractFile(path string, src []byte) (lang.FileMetrics, error) {
	language := lang.DetectLanguage(path)
	fm := lang.FileMetrics{Path: path, Language: language, TotalLines: strings.Count(string(src), "\n") + 1}

	var err error
	switch language {
	case lang.Rust:
		err = s.extractRust(path, src, &fm)
	case lang.Python:
		err = s.extractPython(path, src, &fm)
	case lang.JavaScript:
		err = s.extractJSorTS(path, src, &fm, false)
	case lang.TypeScript:
		err = s.extractJSorTS(path, src, &fm, true)
	default:
		return fm, fmt.Errorf("extract: %s: unrecognized language for extension", path)
	}
	if err != nil {
		fm.ParseError = err
		return fm, err
	}

	for _, fn := range fm.Functions {
		fm.CyclomaticSum += fn.Cyclomatic
		fm.CognitiveSum += fn.Cognitive
	}
	return fm, nil
}
