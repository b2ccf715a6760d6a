// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

// tmrun drives a travel model run: it executes pipeline definitions
// step by step, validates them, resolves per-host tool environments,
// and gathers outputs across scenario runs for comparison.
package main

import (
	"fmt"
	"os"

	"github.com/caroarriaga/travel-model-one/cmd/tmrun/cli"
	"github.com/caroarriaga/travel-model-one/lib/version"
)

func main() {
	if err := root().Execute(os.Args[1:]); err != nil {
		// Commands that already reported their outcome (a failed
		// pipeline step, validation issues) return an ExitError so no
		// redundant "error:" line is printed.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func root() *cli.Command {
	return &cli.Command{
		Name: "tmrun",
		Description: `tmrun: travel model pipeline runner.

Execute model pipelines defined as JSONC step lists, resolve per-host
tool environments, and copy run outputs across scenarios.`,
		Subcommands: []*cli.Command{
			runCommand(),
			validateCommand(),
			showCommand(),
			envCommand(),
			copyCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Println(version.Info())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Check a pipeline definition before a multi-day run",
				Command:     "tmrun validate model.jsonc",
			},
			{
				Description: "Run a pipeline with skip-if-exists disabled",
				Command:     "tmrun run model.jsonc --skip n",
			},
			{
				Description: "Resume a run that died partway through",
				Command:     "tmrun run model.jsonc --resume",
			},
			{
				Description: "Show the resolved environment for this host",
				Command:     "tmrun env --rules hosts.yaml",
			},
			{
				Description: "Gather current runs' summaries into one directory",
				Command:     "tmrun copy --config copy.yaml --manifest ModelRuns.csv --dest ./across --status current",
			},
		},
	}
}
