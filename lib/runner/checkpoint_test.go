// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caroarriaga/travel-model-one/lib/filehash"
	"github.com/caroarriaga/travel-model-one/lib/pipelinedef"
)

func TestCheckpointRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.checkpoint")
	fingerprint := filehash.Definition([]byte("pipeline-body"))

	checkpoint := NewCheckpoint(path, "model", fingerprint)
	if checkpoint.IsCompleted("skims") {
		t.Error("fresh checkpoint reports a completed step")
	}
	if err := checkpoint.MarkCompleted("skims"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := checkpoint.MarkCompleted("assignment"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	loaded, err := LoadCheckpoint(path, "model", fingerprint)
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	for _, name := range []string{"skims", "assignment"} {
		if !loaded.IsCompleted(name) {
			t.Errorf("IsCompleted(%q) = false after reload", name)
		}
	}
	if loaded.IsCompleted("summaries") {
		t.Error("IsCompleted reports a step never marked")
	}
}

func TestLoadCheckpointMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "absent.checkpoint")
	checkpoint, err := LoadCheckpoint(path, "model", filehash.Definition(nil))
	if err != nil {
		t.Fatalf("LoadCheckpoint on missing file: %v", err)
	}
	if checkpoint.IsCompleted("anything") {
		t.Error("empty checkpoint reports a completed step")
	}
}

func TestLoadCheckpointFingerprintMismatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.checkpoint")
	original := NewCheckpoint(path, "model", filehash.Definition([]byte("v1")))
	if err := original.MarkCompleted("skims"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	// The pipeline file changed since the checkpoint was written;
	// loading must refuse rather than resume against stale state.
	_, err := LoadCheckpoint(path, "model", filehash.Definition([]byte("v2")))
	if err == nil {
		t.Fatal("LoadCheckpoint accepted a stale fingerprint")
	}
	if !strings.Contains(err.Error(), "different version") {
		t.Errorf("error = %q, want mention of a different pipeline version", err)
	}
}

func TestCheckpointClear(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.checkpoint")
	checkpoint := NewCheckpoint(path, "model", filehash.Definition(nil))
	if err := checkpoint.MarkCompleted("skims"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := checkpoint.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("checkpoint file still present after Clear: %v", err)
	}
	// Clearing an already-clear checkpoint is not an error.
	if err := checkpoint.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestNilCheckpointIsInert(t *testing.T) {
	t.Parallel()

	var checkpoint *Checkpoint
	if checkpoint.IsCompleted("skims") {
		t.Error("nil checkpoint reports a completed step")
	}
	if err := checkpoint.MarkCompleted("skims"); err != nil {
		t.Errorf("nil MarkCompleted: %v", err)
	}
	if err := checkpoint.Clear(); err != nil {
		t.Errorf("nil Clear: %v", err)
	}
}

func TestDefaultCheckpointPath(t *testing.T) {
	t.Parallel()

	got := DefaultCheckpointPath("/runs/2015_06_002", "model")
	want := filepath.Join("/runs/2015_06_002", "model.checkpoint")
	if got != want {
		t.Errorf("DefaultCheckpointPath = %q, want %q", got, want)
	}
}

func TestRunResumesCompletedSteps(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "model.checkpoint")
	fingerprint := filehash.Definition([]byte("body"))

	checkpoint := NewCheckpoint(path, "model", fingerprint)
	if err := checkpoint.MarkCompleted("A"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	aSentinel := filepath.Join(dir, "a-ran")
	opts := quietOptions()
	opts.Checkpoint = checkpoint
	registry := newRegistry(t,
		pipelinedef.Step{Name: "A", Command: "touch", Args: []string{aSentinel}},
		pipelinedef.Step{Name: "B", Command: "true"},
	)

	r := New("model", opts)
	results, err := r.Run(context.Background(), registry, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Status != StatusResumed {
		t.Errorf("results[0].Status = %s, want resumed", results[0].Status)
	}
	if results[1].Status != StatusOK {
		t.Errorf("results[1].Status = %s, want ok", results[1].Status)
	}
	if _, statErr := os.Stat(aSentinel); statErr == nil {
		t.Error("checkpointed step A was re-invoked")
	}
	// A completed run clears its checkpoint.
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("checkpoint not cleared after a complete run: %v", statErr)
	}
}
