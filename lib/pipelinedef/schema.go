// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package pipelinedef

// Content is a parsed pipeline definition.
type Content struct {
	// Name identifies the pipeline in logs and result files. When
	// empty, the definition file's base name is used.
	Name string `json:"name,omitempty"`

	// Description is free-form documentation, unused by the runner.
	Description string `json:"description,omitempty"`

	// Variables declares the ${NAME} substitutions available to
	// steps, with optional defaults and required flags.
	Variables map[string]Variable `json:"variables,omitempty"`

	// Steps are executed strictly in order, each awaited before the
	// next begins.
	Steps []Step `json:"steps"`

	// OnFailure steps run best-effort after a step failure, with
	// FAILED_STEP and FAILED_ERROR added to the variable map. Their
	// own failures never change the pipeline outcome.
	OnFailure []Step `json:"on_failure,omitempty"`
}

// Variable declares a pipeline variable.
type Variable struct {
	// Default is the value used when neither a --param nor the
	// process environment provides one.
	Default string `json:"default,omitempty"`

	// Required makes resolution fail when no source provides a value.
	Required bool `json:"required,omitempty"`

	// Description documents the variable for pipeline authors.
	Description string `json:"description,omitempty"`
}

// Step is one external command invocation, the atomic pipeline unit.
// Steps are immutable once registered; the runner operates on
// expanded copies.
type Step struct {
	// Name is the unique step identifier within the pipeline.
	Name string `json:"name"`

	// Description documents the step for pipeline authors.
	Description string `json:"description,omitempty"`

	// Command is the executable to run: an absolute path, a bare
	// name resolved via PATH, or a ${VAR}-prefixed path resolved
	// against the host environment profile.
	Command string `json:"command"`

	// Args are the command arguments, in order.
	Args []string `json:"args,omitempty"`

	// Env sets additional environment variables for this step only,
	// on top of the resolved host profile.
	Env map[string]string `json:"env,omitempty"`

	// Dir is the working directory for the command. Empty means the
	// runner's working directory.
	Dir string `json:"dir,omitempty"`

	// Skippable marks the step as eligible for skip-if-exists mode.
	// Requires Output and SkipArg.
	Skippable bool `json:"skippable,omitempty"`

	// Output is the file whose existence indicates this step has
	// already produced its result.
	Output string `json:"output,omitempty"`

	// SkipArg is the marker argument appended to the command when
	// skip mode is active and Output exists. The step still runs —
	// the underlying tool decides what recomputation to avoid. This
	// mirrors how the model scripts have always been driven; the
	// runner never silently bypasses a step in skip mode.
	SkipArg string `json:"skip_arg,omitempty"`

	// Optional steps log their failure and let the pipeline
	// continue. Non-optional failures end the run under the default
	// halt-on-first-failure policy.
	Optional bool `json:"optional,omitempty"`

	// Timeout bounds the step's wall-clock time, in
	// time.ParseDuration syntax ("90m", "2h"). Empty means the
	// runner default.
	Timeout string `json:"timeout,omitempty"`
}
