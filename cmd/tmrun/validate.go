// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/caroarriaga/travel-model-one/cmd/tmrun/cli"
	"github.com/caroarriaga/travel-model-one/lib/pipelinedef"
)

func validateCommand() *cli.Command {
	var jsonOutput bool

	return &cli.Command{
		Name:    "validate",
		Summary: "Check a pipeline definition without running it",
		Usage:   "tmrun validate <pipeline.jsonc> [flags]",
		Description: `Parse a pipeline definition and report every structural problem at
once. Exits 1 when the definition has issues, so validation can gate
a scripted model run.`,
		Examples: []cli.Example{
			{Command: "tmrun validate model.jsonc"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("validate", pflag.ContinueOnError)
			flagSet.BoolVar(&jsonOutput, "json", false, "print issues as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one pipeline file, got %d args", len(args))
			}

			content, err := pipelinedef.ReadFile(args[0])
			if err != nil {
				return err
			}
			issues := pipelinedef.Validate(content)

			if jsonOutput {
				if err := cli.WriteJSON(issues); err != nil {
					return err
				}
			} else if len(issues) == 0 {
				fmt.Printf("%s: ok (%d steps)\n", args[0], len(content.Steps))
			} else {
				fmt.Printf("%s: %d issues\n", args[0], len(issues))
				for _, issue := range issues {
					fmt.Printf("  %s\n", issue)
				}
			}

			if len(issues) > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
