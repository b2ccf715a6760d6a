// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest reads the model-run manifest: a CSV file listing
// every model run directory, the run set it belongs to, and its
// current status. The manifest is the single source of truth for
// which runs exist and which are ready for cross-scenario copying.
//
// The format is deliberately plain CSV so the file can be maintained
// in a spreadsheet and committed alongside the run directories:
//
//	directory,run_set,status
//	2015_06_002,IP,current
//	2035_06_694,BP,archived
//
// Column order does not matter; extra columns are ignored. The three
// named columns are required and a missing one fails parsing.
package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Run is one row of the manifest: a single model run.
type Run struct {
	// Directory is the run directory name, e.g. "2015_06_002". It is
	// a name, not a path; the run set's root supplies the location.
	Directory string

	// RunSet names the group of runs this one belongs to, e.g. "IP"
	// or "BP". Run sets map to source roots in the copier config.
	RunSet string

	// Status is the free-form run status used for filtering, e.g.
	// "current" or "archived".
	Status string
}

// ParseError reports a malformed manifest. Line is 1-based and zero
// when the problem is not tied to a specific line (a missing column,
// for example).
type ParseError struct {
	Path  string
	Line  int
	Issue string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("manifest %s line %d: %s", e.Path, e.Line, e.Issue)
	}
	return fmt.Sprintf("manifest %s: %s", e.Path, e.Issue)
}

// requiredColumns are the manifest columns every file must declare.
var requiredColumns = []string{"directory", "run_set", "status"}

// Load reads and parses the manifest at path.
func Load(path string) ([]Run, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer file.Close()
	return Parse(file, path)
}

// Parse reads manifest rows from r. The path is used only for error
// messages.
func Parse(r io.Reader, path string) ([]Run, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Path: path, Issue: "empty file"}
	}
	if err != nil {
		return nil, &ParseError{Path: path, Line: 1, Issue: err.Error()}
	}

	columns := make(map[string]int, len(header))
	for index, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = index
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, &ParseError{Path: path, Issue: fmt.Sprintf("missing required column %q", name)}
		}
	}

	var runs []Run
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &ParseError{Path: path, Line: line, Issue: err.Error()}
		}

		run := Run{
			Directory: strings.TrimSpace(record[columns["directory"]]),
			RunSet:    strings.TrimSpace(record[columns["run_set"]]),
			Status:    strings.TrimSpace(record[columns["status"]]),
		}
		if run.Directory == "" {
			return nil, &ParseError{Path: path, Line: line, Issue: "empty directory"}
		}
		if run.RunSet == "" {
			return nil, &ParseError{Path: path, Line: line, Issue: "empty run_set"}
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// FilterStatus returns the runs whose status equals status. An empty
// status matches every run.
func FilterStatus(runs []Run, status string) []Run {
	if status == "" {
		return runs
	}
	var matched []Run
	for _, run := range runs {
		if run.Status == status {
			matched = append(matched, run)
		}
	}
	return matched
}
