// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/caroarriaga/travel-model-one/cmd/tmrun/cli"
	"github.com/caroarriaga/travel-model-one/lib/pipelinedef"
)

func showCommand() *cli.Command {
	var jsonOutput bool

	return &cli.Command{
		Name:    "show",
		Summary: "Print the steps and variables of a pipeline definition",
		Usage:   "tmrun show <pipeline.jsonc> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			flagSet.BoolVar(&jsonOutput, "json", false, "print the parsed definition as JSON")
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
			if jsonOutput {
				return cli.WriteJSON(content)
			}

			name := content.Name
			if name == "" {
				name = pipelinedef.NameFromPath(args[0])
			}
			fmt.Printf("%s", name)
			if content.Description != "" {
				fmt.Printf(": %s", content.Description)
			}
			fmt.Println()

			if len(content.Variables) > 0 {
				names := make([]string, 0, len(content.Variables))
				for variableName := range content.Variables {
					names = append(names, variableName)
				}
				sort.Strings(names)

				fmt.Println("\nVariables:")
				tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
				for _, variableName := range names {
					variable := content.Variables[variableName]
					detail := "default " + fmt.Sprintf("%q", variable.Default)
					if variable.Required {
						detail = "required"
					}
					fmt.Fprintf(tw, "  %s\t%s\t%s\n", variableName, detail, variable.Description)
				}
				tw.Flush()
			}

			fmt.Printf("\nSteps (%d):\n", len(content.Steps))
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			for index, step := range content.Steps {
				attributes := ""
				if step.Skippable {
					attributes += " skippable"
				}
				if step.Optional {
					attributes += " optional"
				}
				if step.Timeout != "" {
					attributes += " timeout=" + step.Timeout
				}
				fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", index+1, step.Name, step.Command, attributes)
			}
			tw.Flush()

			if len(content.OnFailure) > 0 {
				fmt.Printf("\nOn failure (%d):\n", len(content.OnFailure))
				for _, step := range content.OnFailure {
					fmt.Printf("  %s\t%s\n", step.Name, step.Command)
				}
			}
			return nil
		},
	}
}
