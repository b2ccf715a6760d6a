// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package pipelinedef

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
)

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Content.
func Parse(data []byte) (*Content, error) {
	stripped := jsonc.ToJSON(data)

	var content Content
	if err := json.Unmarshal(stripped, &content); err != nil {
		return nil, fmt.Errorf("parsing pipeline: %w", err)
	}

	return &content, nil
}

// ReadFile reads a JSONC pipeline file from disk and parses it.
// Returns a descriptive error if the file cannot be read or the JSON
// is malformed.
func ReadFile(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	content, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return content, nil
}

// NameFromPath extracts a pipeline name from a file path by
// stripping the directory prefix and the file extension. For
// example, "model-files/pipelines/core-summaries.jsonc" returns
// "core-summaries".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	extension := filepath.Ext(base)
	return strings.TrimSuffix(base, extension)
}
