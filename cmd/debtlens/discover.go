// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kraklabs/debtlens/pkg/lang"
)

// discoverFiles walks root and returns every file whose extension maps to
// a supported language (spec §6), skipping anything matching excludeGlobs.
// File discovery is explicitly an external collaborator (spec §1: "file
// globbing ... is an external collaborator") — this walker is the minimal
// CLI-side implementation that feeds the core batch entry point real
// (path, source bytes) pairs.
func discoverFiles(root string, excludeGlobs []string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if isExcludedDir(rel, excludeGlobs) {
				return filepath.SkipDir
			}
			return nil
		}
		if isExcluded(rel, excludeGlobs) {
			return nil
		}
		if lang.DetectLanguage(path) == lang.Unknown {
			return nil
		}
		out = append(out, path)
		return nil
	})
	return out, err
}

// isExcluded reports whether rel matches any of the doublestar glob
// patterns in excludeGlobs (e.g. "node_modules/**", "*.min.js").
func isExcluded(rel string, excludeGlobs []string) bool {
	for _, pattern := range excludeGlobs {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// isExcludedDir reports whether a directory should be pruned entirely — a
// pattern like "node_modules/**" names files under the directory, not the
// directory itself, so we also check the pattern's directory prefix.
func isExcludedDir(rel string, excludeGlobs []string) bool {
	for _, pattern := range excludeGlobs {
		prefix := strings.TrimSuffix(pattern, "/**")
		if prefix != pattern && (rel == prefix || strings.HasPrefix(rel, prefix+"/")) {
			return true
		}
	}
	return false
}
