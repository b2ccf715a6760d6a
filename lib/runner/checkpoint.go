// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caroarriaga/travel-model-one/lib/codec"
	"github.com/caroarriaga/travel-model-one/lib/filehash"
)

// Checkpoint records which steps of a pipeline have completed, so an
// interrupted run can be resumed without replaying hours of finished
// model work. The file is deterministic CBOR, rewritten atomically
// (write-to-temp, rename) after each completed step.
//
// A checkpoint is bound to the definition it was written for by a
// BLAKE3 fingerprint of the definition bytes. Loading against an
// edited definition fails: resuming a different pipeline from stale
// completion records would silently skip steps that no longer mean
// the same thing.
//
// All methods are nil-safe, so the runner can carry an optional
// *Checkpoint without guarding every call site.
type Checkpoint struct {
	path  string
	state checkpointState
}

type checkpointState struct {
	Pipeline    string   `cbor:"pipeline"`
	Fingerprint string   `cbor:"fingerprint"`
	Completed   []string `cbor:"completed"`
}

// NewCheckpoint creates an empty checkpoint for a pipeline. Nothing
// is written until the first step completes.
func NewCheckpoint(path, pipeline string, fingerprint filehash.Digest) *Checkpoint {
	return &Checkpoint{
		path: path,
		state: checkpointState{
			Pipeline:    pipeline,
			Fingerprint: fingerprint.String(),
		},
	}
}

// LoadCheckpoint reads an existing checkpoint and verifies it was
// written for the definition with the given fingerprint. A missing
// file is not an error — it returns an empty checkpoint, so callers
// can pass --resume unconditionally.
func LoadCheckpoint(path, pipeline string, fingerprint filehash.Digest) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewCheckpoint(path, pipeline, fingerprint), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint %s: %w", path, err)
	}

	var state checkpointState
	if err := codec.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", path, err)
	}

	if state.Fingerprint != fingerprint.String() {
		return nil, fmt.Errorf(
			"checkpoint %s was written for a different version of pipeline %q; "+
				"delete it (or run without --resume) to start fresh",
			path, state.Pipeline)
	}

	return &Checkpoint{path: path, state: state}, nil
}

// IsCompleted reports whether a step is recorded as completed.
func (c *Checkpoint) IsCompleted(name string) bool {
	if c == nil {
		return false
	}
	for _, completed := range c.state.Completed {
		if completed == name {
			return true
		}
	}
	return false
}

// MarkCompleted records a step completion and rewrites the
// checkpoint file atomically.
func (c *Checkpoint) MarkCompleted(name string) error {
	if c == nil {
		return nil
	}
	if c.IsCompleted(name) {
		return nil
	}
	c.state.Completed = append(c.state.Completed, name)

	data, err := codec.Marshal(c.state)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}

	temp := c.path + ".tmp"
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := os.Rename(temp, c.path); err != nil {
		return fmt.Errorf("replacing checkpoint: %w", err)
	}
	return nil
}

// Clear removes the checkpoint file after a fully successful run. A
// file that never existed is not an error.
func (c *Checkpoint) Clear() error {
	if c == nil {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing checkpoint: %w", err)
	}
	return nil
}

// DefaultCheckpointPath places the checkpoint next to the pipeline's
// result artifacts: <dir>/<pipeline>.checkpoint.
func DefaultCheckpointPath(dir, pipeline string) string {
	return filepath.Join(dir, pipeline+".checkpoint")
}
