// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"fmt"
	"time"
)

// Status is the outcome of one step invocation.
type Status string

const (
	// StatusOK means the step process exited zero.
	StatusOK Status = "ok"

	// StatusFailed means the step process exited nonzero, could not
	// be launched, or was killed on timeout.
	StatusFailed Status = "failed"

	// StatusResumed means the step was bypassed because a matching
	// checkpoint records it as already completed. No process was
	// launched.
	StatusResumed Status = "resumed"
)

// RunResult records the outcome of a single step. Results are
// appended in invocation order and never mutated after creation.
type RunResult struct {
	// Name is the step name.
	Name string `json:"name"`

	// Status is the step outcome.
	Status Status `json:"status"`

	// ExitCode is the process exit status. Zero for resumed steps;
	// -1 when the process could not be launched or was signalled.
	ExitCode int `json:"exit_code"`

	// Duration is the wall-clock time from launch to exit. Zero for
	// resumed steps.
	Duration time.Duration `json:"duration"`

	// SkipMarker is true when the step was invoked with its
	// skip-marker argument appended (skip-if-exists mode with the
	// declared output already present).
	SkipMarker bool `json:"skip_marker,omitempty"`

	// Err is the failure detail for failed steps, nil otherwise.
	Err error `json:"-"`
}

// StepError is the top-level failure returned by Run under the
// halt-on-first-failure policy. It names the triggering step and its
// exit code, which is all an operator needs to find the tool log.
type StepError struct {
	// Step is the name of the step that failed.
	Step string

	// ExitCode is the process exit status, or -1 when the process
	// never ran to a normal exit.
	ExitCode int

	// Err is the underlying failure.
	Err error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed (exit code %d): %v", e.Step, e.ExitCode, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
