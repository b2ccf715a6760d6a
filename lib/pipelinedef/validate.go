// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package pipelinedef

import (
	"fmt"
	"time"
)

// Validate checks a Content for structural issues. Returns a list of
// human-readable issue descriptions; an empty list means the
// pipeline is valid.
//
// Structural checks include:
//   - At least one step is required
//   - Each step must have a non-empty Name; names must be unique
//   - Each step must have a Command
//   - Skippable steps must declare both Output and SkipArg
//   - SkipArg without Skippable is flagged (dead config)
//   - Timeout (when present) must be parseable by time.ParseDuration
//   - on_failure steps are held to the same per-step rules
func Validate(content *Content) []string {
	var issues []string

	if len(content.Steps) == 0 {
		issues = append(issues, "pipeline has no steps (at least one step is required)")
	}

	seen := make(map[string]bool, len(content.Steps))
	for index, step := range content.Steps {
		prefix := fmt.Sprintf("steps[%d]", index)
		if step.Name != "" {
			prefix = fmt.Sprintf("steps[%d] %q", index, step.Name)
			if seen[step.Name] {
				issues = append(issues, fmt.Sprintf("%s: duplicate step name", prefix))
			}
			seen[step.Name] = true
		}
		issues = append(issues, validateStep(prefix, step)...)
	}

	for index, step := range content.OnFailure {
		prefix := fmt.Sprintf("on_failure[%d]", index)
		if step.Name != "" {
			prefix = fmt.Sprintf("on_failure[%d] %q", index, step.Name)
		}
		issues = append(issues, validateStep(prefix, step)...)
	}

	return issues
}

// validateStep applies the per-step structural rules shared by main
// and on_failure steps.
func validateStep(prefix string, step Step) []string {
	var issues []string

	if step.Name == "" {
		issues = append(issues, fmt.Sprintf("%s: name is required", prefix))
	}
	if step.Command == "" {
		issues = append(issues, fmt.Sprintf("%s: command is required", prefix))
	}

	if step.Skippable {
		if step.Output == "" {
			issues = append(issues, fmt.Sprintf("%s: skippable steps must declare output", prefix))
		}
		if step.SkipArg == "" {
			issues = append(issues, fmt.Sprintf("%s: skippable steps must declare skip_arg", prefix))
		}
	} else {
		if step.SkipArg != "" {
			issues = append(issues, fmt.Sprintf("%s: skip_arg is only valid on skippable steps", prefix))
		}
	}

	if step.Timeout != "" {
		if _, err := time.ParseDuration(step.Timeout); err != nil {
			issues = append(issues, fmt.Sprintf("%s: invalid timeout %q: %v", prefix, step.Timeout, err))
		}
	}

	return issues
}
