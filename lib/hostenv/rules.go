// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package hostenv

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// DefaultRequired lists the tool-path variables every model run needs
// when the rules file does not declare its own required list. These
// are the external runtimes the pipeline steps invoke.
var DefaultRequired = []string{
	"JAVA_PATH",
	"R_HOME",
	"PYTHON_PATH",
	"GIS_PATH",
	"GAWK_PATH",
}

// Rules is the parsed host environment rule table.
type Rules struct {
	// Required names the variables that must resolve to existing
	// absolute paths. When empty, DefaultRequired applies.
	Required []string `yaml:"required"`

	// Default is the base variable map applied before any host rule.
	Default map[string]string `yaml:"default"`

	// Hosts are the ordered override rules. Order matters among
	// rules of equal specificity: later rules win.
	Hosts []HostRule `yaml:"hosts"`
}

// HostRule overrides variables for hosts matching a pattern.
type HostRule struct {
	// Match is an exact hostname or a path.Match glob ("model2-*").
	Match string `yaml:"match"`

	// Vars are the variables this rule sets or overrides.
	Vars map[string]string `yaml:"vars"`
}

// LoadRules reads and parses a YAML rule file. The file is the single
// source of truth — no environment variables override rule values.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &rules, nil
}

// Validate checks the rule table for structural problems: empty or
// malformed match patterns and rules with no variables.
func (r *Rules) Validate() error {
	for index, rule := range r.Hosts {
		if rule.Match == "" {
			return fmt.Errorf("hosts[%d]: match is required", index)
		}
		// path.Match reports malformed patterns (e.g. an unclosed
		// character class) regardless of the name being matched.
		if _, err := path.Match(rule.Match, "probe"); err != nil {
			return fmt.Errorf("hosts[%d]: invalid match pattern %q: %w", index, rule.Match, err)
		}
		if len(rule.Vars) == 0 {
			return fmt.Errorf("hosts[%d] %q: vars is required", index, rule.Match)
		}
	}
	return nil
}

// required returns the effective required-variable list.
func (r *Rules) required() []string {
	if len(r.Required) > 0 {
		return r.Required
	}
	return DefaultRequired
}

// isGlob reports whether a match pattern uses glob metacharacters.
// Patterns without metacharacters are exact hostname matches, which
// take priority over glob matches during resolution.
func isGlob(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[':
			return true
		}
	}
	return false
}
