// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package hostenv

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ConfigError reports an environment profile that failed validation.
// All problems are collected before the error is returned, so an
// operator fixes the rule file in one pass rather than replaying the
// resolve-fail loop per variable.
type ConfigError struct {
	// Host is the hostname the profile was resolved for.
	Host string

	// Issues are the individual validation failures, one line each.
	Issues []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("environment profile for host %q is unusable:\n  %s",
		e.Host, strings.Join(e.Issues, "\n  "))
}

// Resolve builds the environment profile for host from the rule
// table. Application order, lowest priority first:
//
//  1. the default variable map
//  2. glob host rules, in file order
//  3. exact host rules, in file order
//
// The resolved profile is validated before being returned: every
// required variable must be present, non-empty, an absolute path,
// and exist on disk. On any failure Resolve returns a *ConfigError
// listing all problems and no profile.
func Resolve(host string, rules *Rules) (*Profile, error) {
	vars := make(map[string]string, len(rules.Default))
	for name, value := range rules.Default {
		vars[name] = value
	}

	// Glob rules first (lower specificity).
	for _, rule := range rules.Hosts {
		if !isGlob(rule.Match) {
			continue
		}
		// Pattern validity was checked by Rules.Validate.
		if matched, _ := path.Match(rule.Match, host); matched {
			for name, value := range rule.Vars {
				vars[name] = value
			}
		}
	}

	// Exact rules on top.
	for _, rule := range rules.Hosts {
		if isGlob(rule.Match) {
			continue
		}
		if rule.Match == host {
			for name, value := range rule.Vars {
				vars[name] = value
			}
		}
	}

	var issues []string
	for _, name := range rules.required() {
		value, present := vars[name]
		switch {
		case !present || value == "":
			issues = append(issues, fmt.Sprintf("%s: no value resolved", name))
		case !filepath.IsAbs(value):
			issues = append(issues, fmt.Sprintf("%s: %q is not an absolute path", name, value))
		default:
			if _, err := os.Stat(value); err != nil {
				issues = append(issues, fmt.Sprintf("%s: %q does not exist", name, value))
			}
		}
	}
	if len(issues) > 0 {
		sort.Strings(issues)
		return nil, &ConfigError{Host: host, Issues: issues}
	}

	return &Profile{host: host, vars: vars}, nil
}

// ResolveLocal resolves the profile for the machine tmrun is running
// on, using os.Hostname for host identity.
func ResolveLocal(rules *Rules) (*Profile, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("reading hostname: %w", err)
	}
	return Resolve(host, rules)
}
