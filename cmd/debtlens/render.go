// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/kraklabs/debtlens/internal/ui"
	"github.com/kraklabs/debtlens/pkg/batch"
	"github.com/kraklabs/debtlens/pkg/lang"
)

// reportJSON is the JSON wire shape for `debtlens analyze --json`: per-file
// metrics (spec §6) plus the project-level call-graph summary.
type reportJSON struct {
	Files       []fileReportJSON `json:"files"`
	TotalFiles  int              `json:"total_files"`
	ParseErrors int              `json:"parse_errors"`
	CallGraph   callGraphJSON    `json:"call_graph"`
}

type fileReportJSON struct {
	Path          string           `json:"path"`
	Language      string           `json:"language"`
	TotalLines    int               `json:"total_lines"`
	CyclomaticSum int               `json:"cyclomatic_sum"`
	CognitiveSum  int               `json:"cognitive_sum"`
	FunctionCount int               `json:"function_count"`
	DebtItems     []lang.DebtItem   `json:"debt_items"`
	Imports       []lang.ImportEntity `json:"dependencies"`
	ParseError    string            `json:"parse_error,omitempty"`
}

type callGraphJSON struct {
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
}

func toReportJSON(res *batch.Result) reportJSON {
	r := reportJSON{TotalFiles: len(res.Files), ParseErrors: res.ParseErrors}
	for _, fm := range res.Files {
		fr := fileReportJSON{
			Path:          fm.Path,
			Language:      string(fm.Language),
			TotalLines:    fm.TotalLines,
			CyclomaticSum: fm.CyclomaticSum,
			CognitiveSum:  fm.CognitiveSum,
			FunctionCount: len(fm.Functions),
			DebtItems:     fm.DebtItems,
			Imports:       fm.Imports,
		}
		if fm.ParseError != nil {
			fr.ParseError = fm.ParseError.Error()
		}
		r.Files = append(r.Files, fr)
	}
	if res.CallGraph != nil {
		r.CallGraph = callGraphJSON{NodeCount: len(res.CallGraph.Nodes()), EdgeCount: len(res.CallGraph.Edges())}
	}
	return r
}

// renderJSON writes the full report as indented JSON.
func renderJSON(w io.Writer, res *batch.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toReportJSON(res))
}

// renderText writes a human-readable summary: per-file debt items sorted by
// severity, then a project-level totals line.
func renderText(w io.Writer, res *batch.Result) {
	var totalFns, totalDebt int
	var critical, major int

	for _, fm := range res.Files {
		totalFns += len(fm.Functions)
		if len(fm.DebtItems) == 0 {
			continue
		}
		fmt.Fprintln(w, ui.Label(fm.Path))
		items := append([]lang.DebtItem(nil), fm.DebtItems...)
		sort.SliceStable(items, func(i, j int) bool { return items[i].Priority > items[j].Priority })
		for _, item := range items {
			totalDebt++
			switch item.Severity {
			case lang.SeverityCritical:
				critical++
			case lang.SeverityMajor:
				major++
			}
			fmt.Fprintf(w, "  [%s] %s:%d %s\n", severityLabel(item.Severity), item.Category, item.Location.Line, item.Description)
			for _, step := range item.Suggestions {
				fmt.Fprintf(w, "      %s\n", step)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d files, %d functions, %d debt items (%d critical, %d major)\n",
		ui.Label("Summary:"), len(res.Files), totalFns, totalDebt, critical, major)
	if res.ParseErrors > 0 {
		ui.Warningf("%d files failed to parse", res.ParseErrors)
	}
}

func severityLabel(s lang.DebtSeverity) string {
	switch s {
	case lang.SeverityCritical:
		return ui.Red.Sprint("CRITICAL")
	case lang.SeverityMajor:
		return ui.Yellow.Sprint("MAJOR")
	case lang.SeverityWarning:
		return ui.Yellow.Sprint("WARNING")
	default:
		return ui.Cyan.Sprint("INFO")
	}
}
