// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/caroarriaga/travel-model-one/lib/pipelinedef"
)

// readLogLines parses every JSONL line from the result log.
func readLogLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening result log: %v", err)
	}
	defer file.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", len(lines)+1, err)
		}
		lines = append(lines, entry)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanning result log: %v", err)
	}
	return lines
}

func TestResultLogSuccessfulRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "results.jsonl")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	results, err := NewResultLog(logPath, logger)
	if err != nil {
		t.Fatalf("NewResultLog: %v", err)
	}
	defer results.Close()

	opts := quietOptions()
	opts.Results = results
	registry := newRegistry(t,
		pipelinedef.Step{Name: "A", Command: "true"},
		pipelinedef.Step{Name: "B", Command: "true"},
	)

	r := New("logged", opts)
	if _, err := r.Run(context.Background(), registry, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := readLogLines(t, logPath)
	if len(lines) != 4 {
		t.Fatalf("got %d log lines, want 4 (start, 2 steps, complete)", len(lines))
	}
	if lines[0]["type"] != "start" || lines[0]["pipeline"] != "logged" {
		t.Errorf("first line = %v, want start record for %q", lines[0], "logged")
	}
	if lines[1]["name"] != "A" || lines[1]["status"] != "ok" {
		t.Errorf("step line = %v, want A/ok", lines[1])
	}
	if lines[3]["type"] != "complete" {
		t.Errorf("last line = %v, want complete record", lines[3])
	}
}

func TestResultLogFailedRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "results.jsonl")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	results, err := NewResultLog(logPath, logger)
	if err != nil {
		t.Fatalf("NewResultLog: %v", err)
	}
	defer results.Close()

	opts := quietOptions()
	opts.Results = results
	registry := newRegistry(t,
		pipelinedef.Step{Name: "A", Command: "true"},
		pipelinedef.Step{Name: "B", Command: "false"},
	)

	r := New("logged", opts)
	if _, err := r.Run(context.Background(), registry, nil); err == nil {
		t.Fatal("Run succeeded despite failing step")
	}

	lines := readLogLines(t, logPath)
	last := lines[len(lines)-1]
	if last["type"] != "failed" || last["failed_step"] != "B" {
		t.Errorf("last line = %v, want failed record naming step B", last)
	}
}

func TestNilResultLogIsInert(t *testing.T) {
	t.Parallel()

	var results *ResultLog
	if err := results.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
	results.writeStart("p", 1)
	results.writeStep(0, "a", StatusOK, 10, "")
	results.writeComplete(10)
	results.writeFailed("a", "boom", 10)
}
