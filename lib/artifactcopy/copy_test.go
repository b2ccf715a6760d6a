// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package artifactcopy

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/caroarriaga/travel-model-one/lib/manifest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeRunFile creates a source file inside a run's output tree.
func writeRunFile(t *testing.T, root, runDirectory, subdir, name, content string) {
	t.Helper()
	dir := filepath.Join(root, runDirectory, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

// testConfig builds a one-file-set config rooted in a temp dir.
func testConfig(t *testing.T) (*Config, string) {
	t.Helper()
	root := t.TempDir()
	config := &Config{
		Roots: map[string]string{"IP": root},
		FileSets: []FileSet{{
			Source: "OUTPUT/core_summaries",
			Dest:   "core_summaries",
			Files:  []string{"ActiveTransport.csv"},
		}},
	}
	return config, root
}

func TestCopy(t *testing.T) {
	t.Parallel()

	t.Run("copies with run-qualified names", func(t *testing.T) {
		t.Parallel()
		config, root := testConfig(t)
		writeRunFile(t, root, "2015_06_002", "OUTPUT/core_summaries", "ActiveTransport.csv", "walk,bike\n")
		runs := []manifest.Run{{Directory: "2015_06_002", RunSet: "IP", Status: "current"}}
		destDir := t.TempDir()

		stats, err := Copy(config, runs, destDir, "current", Options{Logger: quietLogger()})
		if err != nil {
			t.Fatalf("Copy: %v", err)
		}
		if stats.Copied != 1 {
			t.Errorf("Copied = %d, want 1", stats.Copied)
		}

		dest := filepath.Join(destDir, "core_summaries", "ActiveTransport_2015_06_002.csv")
		data, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("reading destination: %v", err)
		}
		if string(data) != "walk,bike\n" {
			t.Errorf("destination content = %q", data)
		}
	})

	t.Run("existing destination is skipped", func(t *testing.T) {
		t.Parallel()
		config, root := testConfig(t)
		writeRunFile(t, root, "2015_06_002", "OUTPUT/core_summaries", "ActiveTransport.csv", "v1")
		runs := []manifest.Run{{Directory: "2015_06_002", RunSet: "IP", Status: "current"}}
		destDir := t.TempDir()
		opts := Options{Logger: quietLogger()}

		if _, err := Copy(config, runs, destDir, "current", opts); err != nil {
			t.Fatalf("first Copy: %v", err)
		}
		// The source changes; without checksum mode the stale copy
		// stays.
		writeRunFile(t, root, "2015_06_002", "OUTPUT/core_summaries", "ActiveTransport.csv", "v2")

		stats, err := Copy(config, runs, destDir, "current", opts)
		if err != nil {
			t.Fatalf("second Copy: %v", err)
		}
		if stats.Copied != 0 || stats.Skipped != 1 {
			t.Errorf("stats = %+v, want 0 copied / 1 skipped", stats)
		}

		dest := filepath.Join(destDir, "core_summaries", "ActiveTransport_2015_06_002.csv")
		data, _ := os.ReadFile(dest)
		if string(data) != "v1" {
			t.Errorf("destination = %q, want the original copy", data)
		}
	})

	t.Run("checksum mode re-copies stale destinations", func(t *testing.T) {
		t.Parallel()
		config, root := testConfig(t)
		writeRunFile(t, root, "2015_06_002", "OUTPUT/core_summaries", "ActiveTransport.csv", "v1")
		runs := []manifest.Run{{Directory: "2015_06_002", RunSet: "IP", Status: "current"}}
		destDir := t.TempDir()
		opts := Options{Checksum: true, Logger: quietLogger()}

		if _, err := Copy(config, runs, destDir, "current", opts); err != nil {
			t.Fatalf("first Copy: %v", err)
		}
		writeRunFile(t, root, "2015_06_002", "OUTPUT/core_summaries", "ActiveTransport.csv", "v2")

		stats, err := Copy(config, runs, destDir, "current", opts)
		if err != nil {
			t.Fatalf("second Copy: %v", err)
		}
		if stats.Copied != 1 {
			t.Errorf("Copied = %d, want 1 (stale destination)", stats.Copied)
		}

		dest := filepath.Join(destDir, "core_summaries", "ActiveTransport_2015_06_002.csv")
		data, _ := os.ReadFile(dest)
		if string(data) != "v2" {
			t.Errorf("destination = %q, want the fresh copy", data)
		}
	})

	t.Run("status filter selects runs", func(t *testing.T) {
		t.Parallel()
		config, root := testConfig(t)
		writeRunFile(t, root, "2015_06_002", "OUTPUT/core_summaries", "ActiveTransport.csv", "a")
		writeRunFile(t, root, "2035_06_694", "OUTPUT/core_summaries", "ActiveTransport.csv", "b")
		runs := []manifest.Run{
			{Directory: "2015_06_002", RunSet: "IP", Status: "current"},
			{Directory: "2035_06_694", RunSet: "IP", Status: "archived"},
		}
		destDir := t.TempDir()

		stats, err := Copy(config, runs, destDir, "current", Options{Logger: quietLogger()})
		if err != nil {
			t.Fatalf("Copy: %v", err)
		}
		if stats.Copied != 1 {
			t.Errorf("Copied = %d, want 1", stats.Copied)
		}
		archived := filepath.Join(destDir, "core_summaries", "ActiveTransport_2035_06_694.csv")
		if _, err := os.Stat(archived); err == nil {
			t.Error("archived run was copied despite the status filter")
		}
	})

	t.Run("missing source is a skip, not an error", func(t *testing.T) {
		t.Parallel()
		config, _ := testConfig(t)
		runs := []manifest.Run{{Directory: "2015_06_002", RunSet: "IP", Status: "current"}}

		stats, err := Copy(config, runs, t.TempDir(), "current", Options{Logger: quietLogger()})
		if err != nil {
			t.Fatalf("Copy: %v", err)
		}
		if stats.Skipped != 1 {
			t.Errorf("Skipped = %d, want 1", stats.Skipped)
		}
	})

	t.Run("unknown run set is collected, batch continues", func(t *testing.T) {
		t.Parallel()
		config, root := testConfig(t)
		writeRunFile(t, root, "2015_06_002", "OUTPUT/core_summaries", "ActiveTransport.csv", "good")
		runs := []manifest.Run{
			{Directory: "lost_run", RunSet: "UNKNOWN", Status: "current"},
			{Directory: "2015_06_002", RunSet: "IP", Status: "current"},
		}
		destDir := t.TempDir()

		stats, err := Copy(config, runs, destDir, "current", Options{Logger: quietLogger()})
		if err == nil {
			t.Fatal("Copy succeeded despite an unknown run set")
		}
		if stats.Copied != 1 {
			t.Errorf("Copied = %d, want 1 (good run still copied)", stats.Copied)
		}
	})

	t.Run("shapefile bases expand to sidecars", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		config := &Config{
			Roots: map[string]string{"IP": root},
			FileSets: []FileSet{{
				Source:     "OUTPUT/shapefile",
				Dest:       "shapefile",
				Shapefiles: []string{"network_links"},
			}},
		}
		for _, suffix := range []string{".shp", ".shx", ".dbf", ".prj"} {
			writeRunFile(t, root, "2015_06_002", "OUTPUT/shapefile", "network_links"+suffix, "x")
		}
		runs := []manifest.Run{{Directory: "2015_06_002", RunSet: "IP", Status: "current"}}
		destDir := t.TempDir()

		stats, err := Copy(config, runs, destDir, "", Options{Logger: quietLogger()})
		if err != nil {
			t.Fatalf("Copy: %v", err)
		}
		if stats.Copied != 4 {
			t.Errorf("Copied = %d, want 4 sidecars", stats.Copied)
		}
		if _, err := os.Stat(filepath.Join(destDir, "shapefile", "network_links_2015_06_002.dbf")); err != nil {
			t.Errorf("dbf sidecar missing: %v", err)
		}
	})

	t.Run("checksum with compression is rejected", func(t *testing.T) {
		t.Parallel()
		config, _ := testConfig(t)
		_, err := Copy(config, nil, t.TempDir(), "", Options{
			Checksum: true, Compression: CompressionLZ4, Logger: quietLogger(),
		})
		if err == nil {
			t.Fatal("Copy accepted checksum mode with compression")
		}
	})
}

func TestCopyCompression(t *testing.T) {
	t.Parallel()

	content := "link,volume\n1,100\n2,250\n"

	t.Run("lz4", func(t *testing.T) {
		t.Parallel()
		config, root := testConfig(t)
		writeRunFile(t, root, "2015_06_002", "OUTPUT/core_summaries", "ActiveTransport.csv", content)
		runs := []manifest.Run{{Directory: "2015_06_002", RunSet: "IP", Status: "current"}}
		destDir := t.TempDir()

		_, err := Copy(config, runs, destDir, "", Options{
			Compression: CompressionLZ4, Logger: quietLogger(),
		})
		if err != nil {
			t.Fatalf("Copy: %v", err)
		}

		dest := filepath.Join(destDir, "core_summaries", "ActiveTransport_2015_06_002.csv.lz4")
		file, err := os.Open(dest)
		if err != nil {
			t.Fatalf("opening compressed copy: %v", err)
		}
		defer file.Close()
		decompressed, err := io.ReadAll(lz4.NewReader(file))
		if err != nil {
			t.Fatalf("decompressing: %v", err)
		}
		if string(decompressed) != content {
			t.Errorf("round trip = %q, want %q", decompressed, content)
		}
	})

	t.Run("zstd", func(t *testing.T) {
		t.Parallel()
		config, root := testConfig(t)
		writeRunFile(t, root, "2015_06_002", "OUTPUT/core_summaries", "ActiveTransport.csv", content)
		runs := []manifest.Run{{Directory: "2015_06_002", RunSet: "IP", Status: "current"}}
		destDir := t.TempDir()

		_, err := Copy(config, runs, destDir, "", Options{
			Compression: CompressionZstd, Logger: quietLogger(),
		})
		if err != nil {
			t.Fatalf("Copy: %v", err)
		}

		dest := filepath.Join(destDir, "core_summaries", "ActiveTransport_2015_06_002.csv.zst")
		file, err := os.Open(dest)
		if err != nil {
			t.Fatalf("opening compressed copy: %v", err)
		}
		defer file.Close()
		reader, err := zstd.NewReader(file)
		if err != nil {
			t.Fatalf("zstd reader: %v", err)
		}
		defer reader.Close()
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("decompressing: %v", err)
		}
		if string(decompressed) != content {
			t.Errorf("round trip = %q, want %q", decompressed, content)
		}
	})
}

func TestDeleteOthers(t *testing.T) {
	t.Parallel()

	config, root := testConfig(t)
	writeRunFile(t, root, "2015_06_002", "OUTPUT/core_summaries", "ActiveTransport.csv", "keep")
	writeRunFile(t, root, "2035_06_694", "OUTPUT/core_summaries", "ActiveTransport.csv", "drop")
	runs := []manifest.Run{
		{Directory: "2015_06_002", RunSet: "IP", Status: "current"},
		{Directory: "2035_06_694", RunSet: "IP", Status: "archived"},
	}
	destDir := t.TempDir()
	opts := Options{Logger: quietLogger()}

	// Copy everything first, then narrow to current with DeleteOthers.
	if _, err := Copy(config, runs, destDir, "", opts); err != nil {
		t.Fatalf("initial Copy: %v", err)
	}

	// A pre-existing unrelated file is outside the copied set and
	// must go too: the destination mirrors exactly the selected runs.
	unrelated := filepath.Join(destDir, "core_summaries", "README.txt")
	if err := os.WriteFile(unrelated, []byte("notes"), 0o644); err != nil {
		t.Fatalf("writing unrelated file: %v", err)
	}

	opts.DeleteOthers = true
	stats, err := Copy(config, runs, destDir, "current", opts)
	if err != nil {
		t.Fatalf("Copy with DeleteOthers: %v", err)
	}
	if stats.Deleted != 2 {
		t.Errorf("Deleted = %d, want 2 (archived copy and unrelated file)", stats.Deleted)
	}

	kept := filepath.Join(destDir, "core_summaries", "ActiveTransport_2015_06_002.csv")
	if _, err := os.Stat(kept); err != nil {
		t.Errorf("current run's copy was deleted: %v", err)
	}
	dropped := filepath.Join(destDir, "core_summaries", "ActiveTransport_2035_06_694.csv")
	if _, err := os.Stat(dropped); !os.IsNotExist(err) {
		t.Error("archived run's copy survived DeleteOthers")
	}
	if _, err := os.Stat(unrelated); !os.IsNotExist(err) {
		t.Error("unrelated file survived DeleteOthers")
	}
}

func TestDestName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		run         string
		compression Compression
		want        string
	}{
		{"ActiveTransport.csv", "2015_06_002", CompressionNone, "ActiveTransport_2015_06_002.csv"},
		{"network_links.shp", "2035_06_694", CompressionNone, "network_links_2035_06_694.shp"},
		{"avgload5period.csv", "2015_06_002", CompressionLZ4, "avgload5period_2015_06_002.csv.lz4"},
		{"trips.rdata", "2015_06_002", CompressionZstd, "trips_2015_06_002.rdata.zst"},
	}
	for _, c := range cases {
		if got := destName(c.name, c.run, c.compression); got != c.want {
			t.Errorf("destName(%q, %q, %s) = %q, want %q", c.name, c.run, c.compression, got, c.want)
		}
	}
}
