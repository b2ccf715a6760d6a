// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/caroarriaga/travel-model-one/cmd/tmrun/cli"
	"github.com/caroarriaga/travel-model-one/lib/artifactcopy"
	"github.com/caroarriaga/travel-model-one/lib/manifest"
)

func copyCommand() *cli.Command {
	var (
		configPath   string
		manifestPath string
		destDir      string
		status       string
		deleteOthers bool
		checksum     bool
		compress     string
		jsonOutput   bool
	)

	return &cli.Command{
		Name:    "copy",
		Summary: "Gather run outputs across scenarios into one directory",
		Usage:   "tmrun copy --config <copy.yaml> --manifest <ModelRuns.csv> --dest <dir> [flags]",
		Description: `Copy the configured summary files of every manifest run into a
single comparison directory, qualifying each file name with its run
directory. Existing destinations are skipped, so re-running after a
new model run only copies the new run's files.

Per-file failures do not stop the batch; they are reported together
at the end.`,
		Examples: []cli.Example{
			{
				Description: "Current runs only, removing files from runs no longer current",
				Command:     "tmrun copy --config copy.yaml --manifest ModelRuns.csv --dest ./across --status current --delete-others",
			},
			{
				Description: "Compress copies crossing a slow share",
				Command:     "tmrun copy --config copy.yaml --manifest ModelRuns.csv --dest ./across --compress zstd",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("copy", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "copier configuration YAML (required)")
			flagSet.StringVar(&manifestPath, "manifest", "", "model run manifest CSV (required)")
			flagSet.StringVar(&destDir, "dest", "", "destination directory (required)")
			flagSet.StringVar(&status, "status", "", "copy only runs with this status")
			flagSet.BoolVar(&deleteOthers, "delete-others", false, "delete destination files from runs outside the copied set")
			flagSet.BoolVar(&checksum, "checksum", false, "re-copy destinations whose content differs from the source")
			flagSet.StringVar(&compress, "compress", "none", "compress copies: none, lz4, or zstd")
			flagSet.BoolVar(&jsonOutput, "json", false, "print copy statistics as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			for name, value := range map[string]string{
				"--config": configPath, "--manifest": manifestPath, "--dest": destDir,
			} {
				if value == "" {
					return fmt.Errorf("%s is required", name)
				}
			}

			config, err := artifactcopy.LoadConfig(configPath)
			if err != nil {
				return err
			}
			runs, err := manifest.Load(manifestPath)
			if err != nil {
				return err
			}
			compression, err := artifactcopy.ParseCompression(compress)
			if err != nil {
				return err
			}

			stats, copyErr := artifactcopy.Copy(config, runs, destDir, status, artifactcopy.Options{
				DeleteOthers: deleteOthers,
				Checksum:     checksum,
				Compression:  compression,
			})

			if jsonOutput {
				if err := cli.WriteJSON(stats); err != nil {
					return err
				}
			} else {
				fmt.Printf("copied %d, skipped %d, deleted %d\n",
					stats.Copied, stats.Skipped, stats.Deleted)
			}
			return copyErr
		},
	}
}
