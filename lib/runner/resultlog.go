// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// ResultLog writes structured JSONL to a file during pipeline
// execution. Each line is an independent JSON object, which makes
// the log:
//
//   - Crash-safe: a SIGKILL mid-pipeline preserves all completed
//     step results. A single JSON document would be truncated and
//     unparseable.
//   - Streamable: a monitoring process can tail the file for
//     step-by-step progress instead of waiting for completion.
//
// All methods are nil-safe no-ops, so the runner can carry an
// optional *ResultLog without guarding every call site.
type ResultLog struct {
	logger  *slog.Logger
	file    *os.File
	encoder *json.Encoder
}

// NewResultLog creates a JSONL result log at the given path,
// truncating any existing content. Warnings about individual write
// failures go to logger.
func NewResultLog(path string, logger *slog.Logger) (*ResultLog, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating result log %s: %w", path, err)
	}
	return &ResultLog{
		logger:  logger,
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

// Close flushes and closes the result log file.
func (r *ResultLog) Close() error {
	if r == nil {
		return nil
	}
	return r.file.Close()
}

// writeStart records pipeline execution start.
func (r *ResultLog) writeStart(pipeline string, stepCount int) {
	if r == nil {
		return
	}
	r.write(resultStartEntry{
		Type:      "start",
		Pipeline:  pipeline,
		StepCount: stepCount,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeStep records the outcome of a single step.
func (r *ResultLog) writeStep(index int, name string, status Status, durationMS int64, stepError string) {
	if r == nil {
		return
	}
	r.write(resultStepEntry{
		Type:       "step",
		Index:      index,
		Name:       name,
		Status:     status,
		DurationMS: durationMS,
		Error:      stepError,
	})
}

// writeComplete records successful pipeline completion.
func (r *ResultLog) writeComplete(durationMS int64) {
	if r == nil {
		return
	}
	r.write(resultCompleteEntry{
		Type:       "complete",
		Status:     "ok",
		DurationMS: durationMS,
	})
}

// writeFailed records pipeline failure.
func (r *ResultLog) writeFailed(failedStep, errorMessage string, durationMS int64) {
	if r == nil {
		return
	}
	r.write(resultFailedEntry{
		Type:       "failed",
		Status:     "failed",
		Error:      errorMessage,
		FailedStep: failedStep,
		DurationMS: durationMS,
	})
}

func (r *ResultLog) write(entry any) {
	if err := r.encoder.Encode(entry); err != nil {
		r.logger.Warn("failed to write result log entry", "error", err)
		return
	}
	// Sync after each line so partial results survive a crash and
	// are visible to readers tailing the file immediately.
	if err := r.file.Sync(); err != nil {
		r.logger.Warn("failed to sync result log", "error", err)
	}
}

// JSONL entry types. Separate structs per line type (rather than one
// with omitempty everywhere) keep the wire format explicit.

// resultStartEntry is the first line, written at pipeline start.
type resultStartEntry struct {
	Type      string `json:"type"`
	Pipeline  string `json:"pipeline"`
	StepCount int    `json:"step_count"`
	Timestamp string `json:"timestamp"`
}

// resultStepEntry is written after each step completes, resumes, or
// fails.
type resultStepEntry struct {
	Type       string `json:"type"`
	Index      int    `json:"index"`
	Name       string `json:"name"`
	Status     Status `json:"status"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// resultCompleteEntry is the last line on successful completion.
type resultCompleteEntry struct {
	Type       string `json:"type"`
	Status     string `json:"status"`
	DurationMS int64  `json:"duration_ms"`
}

// resultFailedEntry is the last line when the pipeline fails.
type resultFailedEntry struct {
	Type       string `json:"type"`
	Status     string `json:"status"`
	Error      string `json:"error"`
	FailedStep string `json:"failed_step"`
	DurationMS int64  `json:"duration_ms"`
}
