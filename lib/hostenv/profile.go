// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package hostenv

import "sort"

// Profile is a resolved, validated environment for one host. It is
// built once by [Resolve] and read-only afterward — there is no way
// to mutate it through the exported API, which is what lets the
// runner share one profile across every step it spawns.
type Profile struct {
	host string
	vars map[string]string
}

// Host returns the hostname the profile was resolved for.
func (p *Profile) Host() string {
	return p.host
}

// Get returns the value of a variable and whether it is set.
func (p *Profile) Get(name string) (string, bool) {
	value, ok := p.vars[name]
	return value, ok
}

// Names returns the variable names in sorted order.
func (p *Profile) Names() []string {
	names := make([]string, 0, len(p.vars))
	for name := range p.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Environ returns the profile as sorted KEY=value strings in the
// form accepted by exec.Cmd.Env. The caller appends these to the
// base environment of the process it is about to spawn; the host
// process environment itself is never touched.
func (p *Profile) Environ() []string {
	environ := make([]string, 0, len(p.vars))
	for _, name := range p.Names() {
		environ = append(environ, name+"="+p.vars[name])
	}
	return environ
}
