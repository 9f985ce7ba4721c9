package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/handiism/shelve/internal/organize"
)

// printSummary writes the per-run totals and, if any, the failed files.
func printSummary(w io.Writer, summary *organize.Summary, dryRun bool) {
	rows := [][]string{
		{"Moved", strconv.Itoa(summary.Moved)},
		{"Copied", strconv.Itoa(summary.Copied)},
		{"Already in place", strconv.Itoa(summary.InPlace)},
		{"Renamed on collision", strconv.Itoa(summary.Renamed)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Data copied", humanize.Bytes(uint64(summary.Bytes))},
	}
	if dryRun {
		rows = append([][]string{{"Planned (dry run)", strconv.Itoa(summary.Planned)}}, rows...)
	}
	title := "Summary"
	if dryRun {
		title = "Summary (dry run)"
	}
	fmt.Fprintln(w, renderTable(title, []column{
		{Header: "Result", Align: text.AlignLeft},
		{Header: "Files", Align: text.AlignRight},
	}, rows))

	if summary.OK() {
		return
	}

	var failures [][]string
	for _, r := range summary.Results {
		if r.Err == nil {
			continue
		}
		failures = append(failures, []string{filepath.Base(r.Source), r.Kind(), r.Err.Error()})
	}
	fmt.Fprintln(w, renderTable("Failed files", []column{
		{Header: "File", Align: text.AlignLeft},
		{Header: "Kind", Align: text.AlignLeft},
		{Header: "Error", Align: text.AlignLeft},
	}, failures))
}
