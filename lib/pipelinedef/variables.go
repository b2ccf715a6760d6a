// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package pipelinedef

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// variablePattern matches ${NAME} references in strings. Only the
// braced form is recognized — bare $NAME is passed through to the
// invoked tool untouched. Variable names must start with a letter or
// underscore and contain only letters, digits, and underscores.
var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ResolveVariables merges variable sources in resolution order
// (lowest to highest priority):
//
//  1. Declared defaults from the pipeline's variable definitions
//  2. Parameter values from the command line (--param NAME=value)
//  3. Environment lookup via the environ function
//
// Returns the merged variable map, or an error naming every required
// variable that has no value from any source.
//
// The environ function is typically os.Getenv in production and a
// stub in tests. Only declared variables are looked up — the process
// environment is not pulled in wholesale.
func ResolveVariables(declarations map[string]Variable, params map[string]string, environ func(string) string) (map[string]string, error) {
	resolved := make(map[string]string, len(declarations)+len(params))

	for name, declaration := range declarations {
		if declaration.Default != "" {
			resolved[name] = declaration.Default
		}
	}

	for name, value := range params {
		resolved[name] = value
	}

	if environ != nil {
		for name := range declarations {
			if value := environ(name); value != "" {
				resolved[name] = value
			}
		}
	}

	var missing []string
	for name, declaration := range declarations {
		if declaration.Required {
			if _, exists := resolved[name]; !exists {
				missing = append(missing, name)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("required pipeline variables not set: %s", strings.Join(missing, ", "))
	}

	return resolved, nil
}

// Expand replaces ${NAME} references in input with values from the
// variables map. Returns an error listing all referenced variables
// that have no value, so definitions fail fast on unresolvable
// references rather than producing broken command lines.
func Expand(input string, variables map[string]string) (string, error) {
	var unresolved []string

	result := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		name := match[2 : len(match)-1]
		if value, exists := variables[name]; exists {
			return value
		}
		unresolved = append(unresolved, name)
		return match
	})

	if len(unresolved) > 0 {
		return "", fmt.Errorf("unresolved pipeline variables: %s", strings.Join(unresolved, ", "))
	}

	return result, nil
}

// ExpandStep returns a copy of step with all string fields expanded
// using Expand. Step-level Env values are expanded first (against
// pipeline variables only), then merged into the variable map for
// expanding the remaining fields, with step env taking precedence.
// A command argument can therefore reference ${NAME} values the step
// itself sets in env.
//
// The original step and variables map are not modified.
func ExpandStep(step Step, variables map[string]string) (Step, error) {
	var expandedEnv map[string]string
	if len(step.Env) > 0 {
		expandedEnv = make(map[string]string, len(step.Env))
		for name, value := range step.Env {
			expandedValue, err := Expand(value, variables)
			if err != nil {
				return Step{}, fmt.Errorf("step %q env[%s]: %w", step.Name, name, err)
			}
			expandedEnv[name] = expandedValue
		}
	}

	merged := make(map[string]string, len(variables)+len(expandedEnv))
	for name, value := range variables {
		merged[name] = value
	}
	for name, value := range expandedEnv {
		merged[name] = value
	}

	var err error

	if step.Command, err = Expand(step.Command, merged); err != nil {
		return Step{}, fmt.Errorf("step %q command: %w", step.Name, err)
	}
	if step.Dir, err = Expand(step.Dir, merged); err != nil {
		return Step{}, fmt.Errorf("step %q dir: %w", step.Name, err)
	}
	if step.Output, err = Expand(step.Output, merged); err != nil {
		return Step{}, fmt.Errorf("step %q output: %w", step.Name, err)
	}

	if len(step.Args) > 0 {
		expandedArgs := make([]string, len(step.Args))
		for index, arg := range step.Args {
			if expandedArgs[index], err = Expand(arg, merged); err != nil {
				return Step{}, fmt.Errorf("step %q args[%d]: %w", step.Name, index, err)
			}
		}
		step.Args = expandedArgs
	}

	step.Env = expandedEnv
	return step, nil
}
