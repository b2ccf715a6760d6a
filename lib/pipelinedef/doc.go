// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipelinedef provides parsing, validation, and variable
// expansion for model pipeline definitions: the ordered external
// steps (Java, R, Python, Cube invocations) that make up one model
// run, plus the step registry the runner consumes.
//
// Definitions are authored as JSONC files — JSON extended with //
// line comments, /* block comments */, and trailing commas — so a
// pipeline can document why a step exists next to the step itself.
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → Content
//  2. Validate: structural checks → issue list
//  3. ResolveVariables: declarations + params + environment → map
//  4. ExpandStep: substitute ${NAME} references per step
//  5. FromContent: build the ordered Registry for the runner
package pipelinedef
