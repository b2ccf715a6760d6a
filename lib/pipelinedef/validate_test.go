// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package pipelinedef

import (
	"strings"
	"testing"
)

// issueContaining reports whether any issue mentions the fragment.
func issueContaining(issues []string, fragment string) bool {
	for _, issue := range issues {
		if strings.Contains(issue, fragment) {
			return true
		}
	}
	return false
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid pipeline", func(t *testing.T) {
		t.Parallel()
		content := &Content{
			Steps: []Step{
				{Name: "highway-assign", Command: "runtpp", Args: []string{"HwyAssign.job"}},
				{
					Name: "skims", Command: "python", Args: []string{"skims.py"},
					Skippable: true, Output: "skims/done.csv", SkipArg: "--skip-if-exists",
					Timeout: "2h",
				},
			},
			OnFailure: []Step{{Name: "notify", Command: "notify-failure"}},
		}
		if issues := Validate(content); len(issues) != 0 {
			t.Errorf("Validate returned issues for a valid pipeline: %v", issues)
		}
	})

	t.Run("no steps", func(t *testing.T) {
		t.Parallel()
		issues := Validate(&Content{})
		if !issueContaining(issues, "no steps") {
			t.Errorf("issues = %v, want a no-steps issue", issues)
		}
	})

	t.Run("missing name and command", func(t *testing.T) {
		t.Parallel()
		issues := Validate(&Content{Steps: []Step{{}}})
		if !issueContaining(issues, "name is required") {
			t.Errorf("issues = %v, want name issue", issues)
		}
		if !issueContaining(issues, "command is required") {
			t.Errorf("issues = %v, want command issue", issues)
		}
	})

	t.Run("duplicate names", func(t *testing.T) {
		t.Parallel()
		issues := Validate(&Content{Steps: []Step{
			{Name: "a", Command: "true"},
			{Name: "a", Command: "true"},
		}})
		if !issueContaining(issues, "duplicate step name") {
			t.Errorf("issues = %v, want duplicate issue", issues)
		}
	})

	t.Run("skippable without output or skip_arg", func(t *testing.T) {
		t.Parallel()
		issues := Validate(&Content{Steps: []Step{{Name: "a", Command: "true", Skippable: true}}})
		if !issueContaining(issues, "must declare output") {
			t.Errorf("issues = %v, want output issue", issues)
		}
		if !issueContaining(issues, "must declare skip_arg") {
			t.Errorf("issues = %v, want skip_arg issue", issues)
		}
	})

	t.Run("skip_arg on non-skippable step", func(t *testing.T) {
		t.Parallel()
		issues := Validate(&Content{Steps: []Step{
			{Name: "a", Command: "true", SkipArg: "--skip-if-exists"},
		}})
		if !issueContaining(issues, "only valid on skippable") {
			t.Errorf("issues = %v, want skip_arg misuse issue", issues)
		}
	})

	t.Run("bad timeout", func(t *testing.T) {
		t.Parallel()
		issues := Validate(&Content{Steps: []Step{
			{Name: "a", Command: "true", Timeout: "ninety minutes"},
		}})
		if !issueContaining(issues, "invalid timeout") {
			t.Errorf("issues = %v, want timeout issue", issues)
		}
	})

	t.Run("on_failure steps checked", func(t *testing.T) {
		t.Parallel()
		issues := Validate(&Content{
			Steps:     []Step{{Name: "a", Command: "true"}},
			OnFailure: []Step{{Name: "cleanup"}},
		})
		if !issueContaining(issues, "on_failure[0]") {
			t.Errorf("issues = %v, want on_failure issue", issues)
		}
	})
}
