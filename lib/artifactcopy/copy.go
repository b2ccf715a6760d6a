// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

// Package artifactcopy gathers the headline output files of many
// model runs into one comparison directory. Each copied file is
// renamed with its run directory so results from different scenarios
// can sit side by side:
//
//	ActiveTransport.csv  ->  ActiveTransport_2015_06_002.csv
//
// Which runs to copy comes from the manifest; which files to copy
// and where the runs live comes from the YAML Config. Copying is
// resumable by construction: destinations that already exist are
// skipped, so re-running after adding one run only copies that run.
package artifactcopy

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caroarriaga/travel-model-one/lib/filehash"
	"github.com/caroarriaga/travel-model-one/lib/manifest"
)

// Options tunes a Copy invocation.
type Options struct {
	// DeleteOthers removes every file in the configured destination
	// subdirectories that is not part of the copied set, so the
	// destination mirrors exactly the selected runs.
	DeleteOthers bool

	// Checksum replaces the plain existence check with a content
	// comparison: an existing destination whose digest differs from
	// the source is copied again. Only meaningful without
	// compression, because a compressed destination never matches
	// its source byte for byte.
	Checksum bool

	// Compression is applied to every copied file.
	Compression Compression

	// Logger receives per-file warnings. Defaults to slog.Default.
	Logger *slog.Logger
}

// Stats summarizes a Copy invocation.
type Stats struct {
	Copied  int
	Skipped int
	Deleted int
}

// Copy copies the configured files of every manifest run whose
// status matches statusFilter into destDir. An empty filter matches
// all runs.
//
// Individual file failures do not halt the batch: every copy is
// attempted and the failures come back joined into one error, so a
// single unreadable file cannot block the other ninety-nine runs.
func Copy(config *Config, runs []manifest.Run, destDir, statusFilter string, opts Options) (Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Checksum && opts.Compression != CompressionNone {
		return Stats{}, fmt.Errorf("checksum mode requires compression %q", CompressionNone)
	}

	selected := manifest.FilterStatus(runs, statusFilter)

	// expected collects every destination name the copied set owns,
	// per dest subdirectory, for the DeleteOthers sweep.
	expected := make(map[string]map[string]bool, len(config.FileSets))

	var stats Stats
	var failures []error
	for _, run := range selected {
		root, ok := config.Roots[run.RunSet]
		if !ok {
			failures = append(failures, fmt.Errorf("run %s: no root configured for run set %q",
				run.Directory, run.RunSet))
			continue
		}

		for _, set := range config.FileSets {
			for _, name := range set.fileNames() {
				source := filepath.Join(root, run.Directory, filepath.FromSlash(set.Source), name)
				target := destName(name, run.Directory, opts.Compression)
				dest := filepath.Join(destDir, set.Dest, target)

				if expected[set.Dest] == nil {
					expected[set.Dest] = make(map[string]bool)
				}
				expected[set.Dest][target] = true

				copied, err := copyOne(source, dest, opts, logger)
				switch {
				case err != nil:
					failures = append(failures, fmt.Errorf("run %s: %w", run.Directory, err))
				case copied:
					stats.Copied++
				default:
					stats.Skipped++
				}
			}
		}
	}

	if opts.DeleteOthers {
		deleted, err := deleteOthers(config, expected, destDir, logger)
		stats.Deleted = deleted
		if err != nil {
			failures = append(failures, err)
		}
	}

	return stats, errors.Join(failures...)
}

// destName builds the run-qualified destination file name:
// base_rundir.suffix, plus the compression suffix when compressing.
func destName(name, runDirectory string, compression Compression) string {
	extension := filepath.Ext(name)
	base := strings.TrimSuffix(name, extension)
	return base + "_" + runDirectory + extension + compression.suffix()
}

// copyOne copies a single file, reporting whether a copy happened.
// A missing source is a warning, not an error: runs routinely omit
// optional summaries.
func copyOne(source, dest string, opts Options, logger *slog.Logger) (bool, error) {
	if _, err := os.Stat(source); errors.Is(err, os.ErrNotExist) {
		logger.Warn("source file missing, skipping", "source", source)
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("checking source %s: %w", source, err)
	}

	if _, err := os.Stat(dest); err == nil {
		if !opts.Checksum {
			return false, nil
		}
		same, err := sameContent(source, dest)
		if err != nil {
			return false, err
		}
		if same {
			return false, nil
		}
		// Stale destination: fall through and copy again.
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("checking destination %s: %w", dest, err)
	}

	if err := writeCopy(source, dest, opts.Compression); err != nil {
		return false, err
	}
	return true, nil
}

// sameContent compares two files by keyed digest.
func sameContent(a, b string) (bool, error) {
	digestA, err := filehash.ArtifactFile(a)
	if err != nil {
		return false, fmt.Errorf("hashing %s: %w", a, err)
	}
	digestB, err := filehash.ArtifactFile(b)
	if err != nil {
		return false, fmt.Errorf("hashing %s: %w", b, err)
	}
	return digestA == digestB, nil
}

// writeCopy streams source into dest through the configured
// compressor, creating parent directories as needed. The copy goes
// through a temporary file and rename so a crash never leaves a
// half-written destination that a later run would skip.
func writeCopy(source, dest string, compression Compression) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("opening %s: %w", source, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}

	out, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary copy: %w", err)
	}
	temporary := out.Name()
	defer os.Remove(temporary)

	writer, err := compression.newWriter(out)
	if err != nil {
		out.Close()
		return err
	}
	if _, err := io.Copy(writer, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", source, err)
	}
	if err := writer.Close(); err != nil {
		out.Close()
		return fmt.Errorf("flushing %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", temporary, err)
	}
	if err := os.Rename(temporary, dest); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

// deleteOthers removes every file in the configured destination
// subdirectories that the copied set does not own: stale copies from
// runs no longer selected, and anything else that wandered in. The
// sweep never leaves a configured subdirectory, so the rest of
// destDir is untouched.
func deleteOthers(config *Config, expected map[string]map[string]bool, destDir string, logger *slog.Logger) (int, error) {
	deleted := 0
	var failures []error
	swept := make(map[string]bool, len(config.FileSets))
	for _, set := range config.FileSets {
		if swept[set.Dest] {
			continue
		}
		swept[set.Dest] = true

		entries, err := os.ReadDir(filepath.Join(destDir, set.Dest))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			failures = append(failures, fmt.Errorf("listing %s: %w", set.Dest, err))
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || expected[set.Dest][entry.Name()] {
				continue
			}
			path := filepath.Join(destDir, set.Dest, entry.Name())
			if err := os.Remove(path); err != nil {
				failures = append(failures, fmt.Errorf("deleting %s: %w", path, err))
				continue
			}
			logger.Info("deleted file outside the copied set", "path", path)
			deleted++
		}
	}
	return deleted, errors.Join(failures...)
}
