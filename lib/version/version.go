// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

// Package version exposes the build version of the tmrun binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the release version, overridden at build time via
// -ldflags "-X .../lib/version.Version=v1.2.3". The default "dev"
// identifies ad-hoc builds from a working tree.
var Version = "dev"

// Info returns the human-readable version string printed by
// "tmrun --version". When built from a module with VCS stamping,
// the commit revision is appended.
func Info() string {
	revision := ""
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 12 {
				revision = setting.Value[:12]
			}
		}
	}
	if revision == "" {
		return fmt.Sprintf("tmrun %s", Version)
	}
	return fmt.Sprintf("tmrun %s (%s)", Version, revision)
}
