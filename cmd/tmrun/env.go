// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/caroarriaga/travel-model-one/cmd/tmrun/cli"
	"github.com/caroarriaga/travel-model-one/lib/hostenv"
)

func envCommand() *cli.Command {
	var (
		rulesPath  string
		host       string
		jsonOutput bool
	)

	return &cli.Command{
		Name:    "env",
		Summary: "Show the resolved tool environment for a host",
		Usage:   "tmrun env --rules <hosts.yaml> [flags]",
		Description: `Resolve the tool environment a pipeline would run with: defaults,
then glob host rules, then exact host rules. Resolution fails with
the full list of problems when required variables are missing or
point at paths that do not exist.`,
		Examples: []cli.Example{
			{Description: "This machine", Command: "tmrun env --rules hosts.yaml"},
			{Description: "A specific modeling server", Command: "tmrun env --rules hosts.yaml --host model2-a"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("env", pflag.ContinueOnError)
			flagSet.StringVar(&rulesPath, "rules", "", "host environment rules YAML (required)")
			flagSet.StringVar(&host, "host", "", "resolve for this host instead of the local one")
			flagSet.BoolVar(&jsonOutput, "json", false, "print the resolved environment as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if rulesPath == "" {
				return fmt.Errorf("--rules is required")
			}

			rules, err := hostenv.LoadRules(rulesPath)
			if err != nil {
				return err
			}

			var profile *hostenv.Profile
			if host != "" {
				profile, err = hostenv.Resolve(host, rules)
			} else {
				profile, err = hostenv.ResolveLocal(rules)
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				resolved := make(map[string]string, len(profile.Names()))
				for _, name := range profile.Names() {
					value, _ := profile.Get(name)
					resolved[name] = value
				}
				return cli.WriteJSON(map[string]any{
					"host": profile.Host(),
					"vars": resolved,
				})
			}

			fmt.Printf("Host: %s\n\n", profile.Host())
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			for _, name := range profile.Names() {
				value, _ := profile.Get(name)
				fmt.Fprintf(tw, "%s\t%s\n", name, value)
			}
			return tw.Flush()
		},
	}
}
