// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

// Package runner executes a registered pipeline: each step is
// launched as an external process and awaited to completion before
// the next begins. There is no overlap, no retry, and no scheduling
// — the runner is a faithful generalization of the sequential batch
// orchestration it replaces, with structured results layered on top.
//
// The runner moves through a small state machine, Idle → Running →
// Completed or Failed, and produces one [RunResult] per step it
// invokes, in invocation order. Under the default halt-on-first-
// failure policy, a failure at step k means steps k+1..N are never
// launched and exactly k results are returned.
//
// Skip-if-exists mode deserves a careful reading: when active, a
// skippable step whose declared output already exists is still
// invoked — with its skip-marker argument appended — rather than
// bypassed. The model tools own the decision of what recomputation
// to avoid. The mode is controlled by a textual flag with an
// inverted convention inherited from the operational scripts: the
// value "n" disables skipping, any other value (including unset)
// enables it. See [SkipEnabled].
//
// A resume from a checkpoint is the one true bypass: steps recorded
// as completed in a matching checkpoint are not launched at all and
// report status "resumed".
package runner
