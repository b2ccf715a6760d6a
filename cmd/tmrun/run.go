// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/caroarriaga/travel-model-one/cmd/tmrun/cli"
	"github.com/caroarriaga/travel-model-one/lib/filehash"
	"github.com/caroarriaga/travel-model-one/lib/hostenv"
	"github.com/caroarriaga/travel-model-one/lib/pipelinedef"
	"github.com/caroarriaga/travel-model-one/lib/runner"
)

type runParams struct {
	skip       string
	params     []string
	keepGoing  bool
	resultLog  string
	resume     bool
	checkpoint string
	envRules   string
	host       string
	timeout    time.Duration
	json       bool
}

func runCommand() *cli.Command {
	var params runParams

	return &cli.Command{
		Name:    "run",
		Summary: "Execute a pipeline definition",
		Usage:   "tmrun run <pipeline.jsonc> [flags]",
		Description: `Execute the steps of a pipeline definition in order, halting on the
first failure. Each step runs as an external process in its own
process group, with the resolved host environment injected.

The skip flag keeps the historical convention of the batch scripts
this tool replaces: any value other than "n" (including leaving the
flag unset) enables skip-if-exists mode, in which a skippable step
whose declared output already exists is still invoked, but with its
skip marker argument appended.`,
		Examples: []cli.Example{
			{Description: "Plain run, skip-if-exists on", Command: "tmrun run model.jsonc"},
			{Description: "Force every step to do its work", Command: "tmrun run model.jsonc --skip n"},
			{
				Description: "Overnight run with a result log and resume support",
				Command:     "tmrun run model.jsonc --result-log results.jsonl --resume",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.StringVar(&params.skip, "skip", "", `skip flag: "n" disables skip-if-exists, anything else enables it`)
			flagSet.StringArrayVar(&params.params, "param", nil, "pipeline variable as NAME=VALUE (repeatable)")
			flagSet.BoolVar(&params.keepGoing, "keep-going", false, "continue past failed steps and report them at the end")
			flagSet.StringVar(&params.resultLog, "result-log", "", "write a JSONL result log to this path")
			flagSet.BoolVar(&params.resume, "resume", false, "bypass steps completed in a previous run of this pipeline")
			flagSet.StringVar(&params.checkpoint, "checkpoint", "", "checkpoint file path (default: alongside the pipeline file)")
			flagSet.StringVar(&params.envRules, "env-rules", "", "host environment rules YAML; omit to inherit the process environment")
			flagSet.StringVar(&params.host, "host", "", "resolve the environment for this host instead of the local one")
			flagSet.DurationVar(&params.timeout, "timeout", 0, "default per-step timeout for steps that declare none")
			flagSet.BoolVar(&params.json, "json", false, "print the step results as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one pipeline file, got %d args", len(args))
			}
			return runPipeline(args[0], params)
		},
	}
}

func runPipeline(path string, params runParams) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading pipeline: %w", err)
	}
	content, err := pipelinedef.Parse(data)
	if err != nil {
		return err
	}
	if issues := pipelinedef.Validate(content); len(issues) > 0 {
		return fmt.Errorf("pipeline %s is invalid:\n  %s", path, strings.Join(issues, "\n  "))
	}

	name := content.Name
	if name == "" {
		name = pipelinedef.NameFromPath(path)
	}

	parameterValues, err := parseParams(params.params)
	if err != nil {
		return err
	}
	variables, err := pipelinedef.ResolveVariables(content.Variables, parameterValues, os.Getenv)
	if err != nil {
		return err
	}

	registry, err := pipelinedef.FromContent(content)
	if err != nil {
		return err
	}

	var profile *hostenv.Profile
	if params.envRules != "" {
		rules, err := hostenv.LoadRules(params.envRules)
		if err != nil {
			return err
		}
		if params.host != "" {
			profile, err = hostenv.Resolve(params.host, rules)
		} else {
			profile, err = hostenv.ResolveLocal(rules)
		}
		if err != nil {
			return err
		}
		// Profile variables are available to ${VAR} expansion too, so
		// a step can invoke "${JAVA_PATH}/bin/java". The profile wins
		// over a pipeline variable of the same name: tool locations
		// are host facts, not run parameters.
		if variables == nil {
			variables = make(map[string]string, len(profile.Names()))
		}
		for _, varName := range profile.Names() {
			value, _ := profile.Get(varName)
			variables[varName] = value
		}
	}

	var resultLog *runner.ResultLog
	if params.resultLog != "" {
		resultLog, err = runner.NewResultLog(params.resultLog, slog.Default())
		if err != nil {
			return err
		}
		defer resultLog.Close()
	}

	var checkpoint *runner.Checkpoint
	if params.resume || params.checkpoint != "" {
		checkpointPath := params.checkpoint
		if checkpointPath == "" {
			checkpointPath = runner.DefaultCheckpointPath(filepath.Dir(path), name)
		}
		fingerprint := filehash.Definition(data)
		if params.resume {
			checkpoint, err = runner.LoadCheckpoint(checkpointPath, name, fingerprint)
			if err != nil {
				return err
			}
		} else {
			checkpoint = runner.NewCheckpoint(checkpointPath, name, fingerprint)
		}
	}

	// When stdout is piped, progress moves to stderr so captured step
	// output stays clean.
	var progress io.Writer = os.Stdout
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		progress = os.Stderr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner.New(name, runner.Options{
		Profile:        profile,
		Variables:      variables,
		SkipFlag:       params.skip,
		KeepGoing:      params.keepGoing,
		DefaultTimeout: params.timeout,
		Results:        resultLog,
		Checkpoint:     checkpoint,
		Progress:       progress,
	})

	results, runErr := r.Run(ctx, registry, content.OnFailure)

	if params.json {
		if err := cli.WriteJSON(results); err != nil {
			return err
		}
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		return &cli.ExitError{Code: failureExitCode(runErr)}
	}
	return nil
}

// failureExitCode maps a pipeline failure to the process exit code:
// the failing step's own exit code when it has a meaningful one,
// otherwise 1.
func failureExitCode(err error) int {
	var stepError *runner.StepError
	if errors.As(err, &stepError) && stepError.ExitCode > 0 {
		return stepError.ExitCode
	}
	return 1
}

// parseParams splits repeated NAME=VALUE flags into a map.
func parseParams(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed --param %q: want NAME=VALUE", pair)
		}
		values[name] = value
	}
	return values, nil
}
