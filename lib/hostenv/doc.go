// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostenv resolves the machine-specific tool environment for
// a model run: the installation paths of Java, R, Python, the GIS
// runtime, and GAWK that every pipeline step inherits.
//
// Rules are loaded from a single YAML file given by an explicit path.
// There is no fallback or automatic discovery — this keeps the
// resolved environment deterministic and auditable. The file declares
// a default variable map plus an ordered list of host rules:
//
//	required: [JAVA_PATH, R_HOME, PYTHON_PATH, GIS_PATH, GAWK_PATH]
//	default:
//	  JAVA_PATH: /opt/java/jdk-21
//	  R_HOME: /usr/lib/R
//	hosts:
//	  - match: "model2-*"
//	    vars: {R_HOME: /opt/R-4.2}
//	  - match: "model2-c"
//	    vars: {JAVA_PATH: /opt/java/jdk-17}
//
// Resolution priority is by specificity: an exact hostname match
// beats a glob match, which beats the default map. Rules of equal
// specificity apply in file order, later entries overriding earlier
// ones. Adding a machine is a data change, not a code change.
//
// [Resolve] validates the result before returning it: every required
// variable must be a non-empty absolute path that exists on disk.
// Validation failures are collected into a single [ConfigError] — a
// partially populated profile is never returned.
//
// The resolved [Profile] is immutable. It is injected into spawned
// step processes via [Profile.Environ]; the host process environment
// is never modified.
package hostenv
