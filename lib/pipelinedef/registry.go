// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package pipelinedef

import "fmt"

// DuplicateStepError reports an attempt to register a second step
// under a name the registry already holds.
type DuplicateStepError struct {
	// Name is the conflicting step name.
	Name string
}

func (e *DuplicateStepError) Error() string {
	return fmt.Sprintf("step %q is already registered", e.Name)
}

// Registry holds the ordered step sequence for one pipeline run.
// Registration order is execution order and is fixed once set — the
// runner iterates the registry, it never reorders it. The zero value
// is ready to use.
type Registry struct {
	steps []Step
	names map[string]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]bool)}
}

// Register appends a step. Returns a *DuplicateStepError when a step
// with the same name is already registered; the registry is
// unchanged by a failed registration. An unnamed step is rejected
// outright — the name is the unit of identity for results, skip
// decisions, and checkpoints.
func (r *Registry) Register(step Step) error {
	if step.Name == "" {
		return fmt.Errorf("step name is required")
	}
	if r.names == nil {
		r.names = make(map[string]bool)
	}
	if r.names[step.Name] {
		return &DuplicateStepError{Name: step.Name}
	}
	r.names[step.Name] = true
	r.steps = append(r.steps, step)
	return nil
}

// Steps returns the registered steps in registration order. The
// returned slice is a copy: re-iterating always yields the same
// sequence, and callers cannot mutate the registry through it.
func (r *Registry) Steps() []Step {
	steps := make([]Step, len(r.steps))
	copy(steps, r.steps)
	return steps
}

// Len returns the number of registered steps.
func (r *Registry) Len() int {
	return len(r.steps)
}

// FromContent builds a registry from a validated pipeline
// definition, preserving file order. Returns the first registration
// error (in practice a duplicate name, which Validate also reports).
func FromContent(content *Content) (*Registry, error) {
	registry := NewRegistry()
	for _, step := range content.Steps {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
