// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command-tree framework behind tmrun. It
// handles subcommand dispatch, pflag parsing, structured help output,
// and typo suggestions, leaving command packages with nothing but a
// Flags constructor and a Run function.
package cli
