// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/caroarriaga/travel-model-one/lib/hostenv"
	"github.com/caroarriaga/travel-model-one/lib/pipelinedef"
)

// DefaultStepTimeout bounds a step that declares no timeout of its
// own. A full assignment iteration can legitimately run overnight,
// so the default is generous; it exists to catch hung tools, not to
// police slow ones.
const DefaultStepTimeout = 24 * time.Hour

// State is the runner lifecycle state.
type State string

const (
	// StateIdle means Run has not been called.
	StateIdle State = "idle"
	// StateRunning means Run is executing steps.
	StateRunning State = "running"
	// StateCompleted means every invoked step succeeded.
	StateCompleted State = "completed"
	// StateFailed means at least one non-optional step failed.
	StateFailed State = "failed"
)

// SkipEnabled interprets the textual skip flag. The convention is
// inverted and deliberately preserved from the operational scripts
// this tool replaces: the value "n" means "do not skip"; any other
// value, including the empty string for an unset flag, enables
// skip-if-exists mode. Changing the default would silently alter
// behavior for every existing caller.
func SkipEnabled(flag string) bool {
	return flag != "n"
}

// Options configures a Runner.
type Options struct {
	// Profile is the resolved host environment injected into every
	// step process. May be nil, in which case steps inherit only the
	// runner's own environment.
	Profile *hostenv.Profile

	// Variables is the resolved pipeline variable map used to expand
	// each step before launch.
	Variables map[string]string

	// SkipFlag is the raw textual skip flag; see SkipEnabled.
	SkipFlag string

	// KeepGoing switches the failure policy from halt-on-first-
	// failure (the default) to log-and-continue. The pipeline still
	// finishes Failed if any non-optional step failed.
	KeepGoing bool

	// DefaultTimeout overrides DefaultStepTimeout when positive.
	DefaultTimeout time.Duration

	// Results, when non-nil, receives a JSONL record per event.
	Results *ResultLog

	// Checkpoint, when non-nil, records completed steps after each
	// success and bypasses steps it already holds.
	Checkpoint *Checkpoint

	// Progress receives the human-readable [pipeline] lines.
	// Defaults to os.Stdout.
	Progress io.Writer

	// Stdout and Stderr are inherited by step processes. Default to
	// the runner process's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Runner executes one pipeline. A Runner is single-shot: create one
// per run. All execution is strictly sequential on the calling
// goroutine — there is no shared mutable state to guard.
type Runner struct {
	name  string
	opts  Options
	state State
}

// New creates a runner for the named pipeline.
func New(name string, opts Options) *Runner {
	if opts.Progress == nil {
		opts.Progress = os.Stdout
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultStepTimeout
	}
	return &Runner{name: name, opts: opts, state: StateIdle}
}

// State returns the runner's lifecycle state.
func (r *Runner) State() State {
	return r.state
}

// Run executes the registered steps in order and returns one
// RunResult per invoked step, in invocation order. onFailure steps,
// if any, run best-effort after a pipeline failure.
//
// Under the default policy the first non-optional failure halts the
// pipeline: the returned results end with the failing step and the
// error is a *StepError naming it. With KeepGoing, execution
// continues and the error summarizes the failure count, wrapping the
// first *StepError.
func (r *Runner) Run(ctx context.Context, registry *pipelinedef.Registry, onFailure []pipelinedef.Step) ([]RunResult, error) {
	if r.state != StateIdle {
		return nil, fmt.Errorf("runner for %q already used (state %s)", r.name, r.state)
	}
	r.state = StateRunning

	steps := registry.Steps()
	skip := SkipEnabled(r.opts.SkipFlag)

	fmt.Fprintf(r.opts.Progress, "[pipeline] %s: starting (%d steps, skip-if-exists %v)\n",
		r.name, len(steps), skip)
	pipelineStart := time.Now()
	r.opts.Results.writeStart(r.name, len(steps))

	var results []RunResult
	var firstFailure *StepError
	failures := 0

	for index, step := range steps {
		if r.opts.Checkpoint.IsCompleted(step.Name) {
			fmt.Fprintf(r.opts.Progress, "[pipeline] step %d/%d: %s... resumed (checkpoint)\n",
				index+1, len(steps), step.Name)
			result := RunResult{Name: step.Name, Status: StatusResumed}
			results = append(results, result)
			r.opts.Results.writeStep(index, step.Name, StatusResumed, 0, "")
			continue
		}

		result := r.executeStep(ctx, step, index, len(steps), skip)
		results = append(results, result)

		errorMessage := ""
		if result.Err != nil {
			errorMessage = result.Err.Error()
		}
		r.opts.Results.writeStep(index, result.Name, result.Status,
			result.Duration.Milliseconds(), errorMessage)

		if result.Status == StatusFailed {
			if step.Optional {
				fmt.Fprintf(r.opts.Progress, "[pipeline] step %d/%d: %s... failed (optional, continuing): %v\n",
					index+1, len(steps), step.Name, result.Err)
				continue
			}

			stepError := &StepError{Step: step.Name, ExitCode: result.ExitCode, Err: result.Err}
			failures++
			if firstFailure == nil {
				firstFailure = stepError
			}

			if !r.opts.KeepGoing {
				fmt.Fprintf(r.opts.Progress, "[pipeline] step %d/%d: %s... failed: %v\n",
					index+1, len(steps), step.Name, result.Err)
				r.runOnFailureSteps(ctx, onFailure, stepError)
				totalDuration := time.Since(pipelineStart)
				r.opts.Results.writeFailed(step.Name, stepError.Error(), totalDuration.Milliseconds())
				r.state = StateFailed
				return results, stepError
			}

			fmt.Fprintf(r.opts.Progress, "[pipeline] step %d/%d: %s... failed (continuing): %v\n",
				index+1, len(steps), step.Name, result.Err)
			continue
		}

		if err := r.opts.Checkpoint.MarkCompleted(step.Name); err != nil {
			// A checkpoint write failure must not fail the run — the
			// step's work is done. The next resume simply replays it.
			fmt.Fprintf(r.opts.Progress, "[pipeline] warning: recording checkpoint for %q: %v\n",
				step.Name, err)
		}
	}

	totalDuration := time.Since(pipelineStart)

	if firstFailure != nil {
		r.runOnFailureSteps(ctx, onFailure, firstFailure)
		r.opts.Results.writeFailed(firstFailure.Step, firstFailure.Error(), totalDuration.Milliseconds())
		r.state = StateFailed
		return results, fmt.Errorf("%d of %d steps failed; first failure: %w",
			failures, len(steps), firstFailure)
	}

	fmt.Fprintf(r.opts.Progress, "[pipeline] %s: complete (%s)\n", r.name, formatDuration(totalDuration))
	r.opts.Results.writeComplete(totalDuration.Milliseconds())
	if err := r.opts.Checkpoint.Clear(); err != nil {
		fmt.Fprintf(r.opts.Progress, "[pipeline] warning: clearing checkpoint: %v\n", err)
	}
	r.state = StateCompleted
	return results, nil
}

// executeStep expands and launches one step, returning its result.
func (r *Runner) executeStep(ctx context.Context, step pipelinedef.Step, index, total int, skip bool) RunResult {
	startTime := time.Now()

	expanded, err := pipelinedef.ExpandStep(step, r.opts.Variables)
	if err != nil {
		return RunResult{
			Name: step.Name, Status: StatusFailed, ExitCode: -1,
			Duration: time.Since(startTime), Err: err,
		}
	}

	timeout := r.opts.DefaultTimeout
	if expanded.Timeout != "" {
		parsed, parseErr := time.ParseDuration(expanded.Timeout)
		if parseErr != nil {
			// Validate should have caught this, but fail loud if not.
			return RunResult{
				Name: step.Name, Status: StatusFailed, ExitCode: -1,
				Duration: time.Since(startTime),
				Err:      fmt.Errorf("invalid timeout %q: %w", expanded.Timeout, parseErr),
			}
		}
		timeout = parsed
	}
	stepContext, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Skip-if-exists: the step still runs, with the skip marker
	// appended, when its declared output is already on disk.
	skipMarker := false
	if skip && expanded.Skippable && expanded.Output != "" {
		if _, statErr := os.Stat(r.outputPath(expanded)); statErr == nil {
			expanded.Args = append(expanded.Args, expanded.SkipArg)
			skipMarker = true
		}
	}

	fmt.Fprintf(r.opts.Progress, "[pipeline] step %d/%d: %s...\n", index+1, total, expanded.Name)

	exitCode, err := launch(stepContext, expanded, r.opts.Profile, r.opts.Stdout, r.opts.Stderr)
	duration := time.Since(startTime)

	switch {
	case stepContext.Err() != nil && (err != nil || exitCode != 0):
		// A kill on deadline surfaces as a signal exit, not a launch
		// error, so the context is checked before the exit code.
		if ctx.Err() != nil {
			err = fmt.Errorf("canceled: %w", ctx.Err())
		} else {
			err = fmt.Errorf("timed out after %s: %w", timeout, stepContext.Err())
		}
		return RunResult{
			Name: expanded.Name, Status: StatusFailed, ExitCode: exitCode,
			Duration: duration, SkipMarker: skipMarker, Err: err,
		}
	case err != nil:
		return RunResult{
			Name: expanded.Name, Status: StatusFailed, ExitCode: exitCode,
			Duration: duration, SkipMarker: skipMarker, Err: err,
		}
	case exitCode != 0:
		return RunResult{
			Name: expanded.Name, Status: StatusFailed, ExitCode: exitCode,
			Duration: duration, SkipMarker: skipMarker,
			Err: fmt.Errorf("exit code %d", exitCode),
		}
	}

	statusNote := ""
	if skipMarker {
		statusNote = " (skip marker)"
	}
	fmt.Fprintf(r.opts.Progress, "[pipeline] step %d/%d: %s... ok%s (%s)\n",
		index+1, total, expanded.Name, statusNote, formatDuration(duration))
	return RunResult{
		Name: expanded.Name, Status: StatusOK, ExitCode: 0,
		Duration: duration, SkipMarker: skipMarker,
	}
}

// runOnFailureSteps executes the on_failure steps after a pipeline
// failure. They run with the pipeline's variables plus:
//
//   - FAILED_STEP: the name of the step that failed
//   - FAILED_ERROR: the error message from the failed step
//
// All on_failure steps are best-effort: a failure is logged and the
// remaining steps still run, so a broken notifier cannot hide the
// original error.
func (r *Runner) runOnFailureSteps(ctx context.Context, steps []pipelinedef.Step, failure *StepError) {
	if len(steps) == 0 {
		return
	}

	failureVariables := make(map[string]string, len(r.opts.Variables)+2)
	for name, value := range r.opts.Variables {
		failureVariables[name] = value
	}
	failureVariables["FAILED_STEP"] = failure.Step
	failureVariables["FAILED_ERROR"] = failure.Err.Error()

	fmt.Fprintf(r.opts.Progress, "[pipeline] running %d on_failure steps\n", len(steps))

	saved := r.opts.Variables
	r.opts.Variables = failureVariables
	defer func() { r.opts.Variables = saved }()

	for index, step := range steps {
		result := r.executeStep(ctx, step, index, len(steps), false)
		errorMessage := ""
		if result.Err != nil {
			errorMessage = result.Err.Error()
			fmt.Fprintf(r.opts.Progress, "[pipeline] on_failure[%d] %q: failed (continuing): %v\n",
				index, step.Name, result.Err)
		}
		r.opts.Results.writeStep(index, "on_failure:"+result.Name, result.Status,
			result.Duration.Milliseconds(), errorMessage)
	}
}

// outputPath resolves a step's declared output relative to its
// working directory.
func (r *Runner) outputPath(step pipelinedef.Step) string {
	if filepath.IsAbs(step.Output) || step.Dir == "" {
		return step.Output
	}
	return filepath.Join(step.Dir, step.Output)
}

// formatDuration renders a duration for progress lines: seconds
// resolution above a second, so step lines stay scannable.
func formatDuration(d time.Duration) string {
	if d >= time.Second {
		return d.Round(time.Second).String()
	}
	return d.Round(time.Millisecond).String()
}
