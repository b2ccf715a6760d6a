// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/caroarriaga/travel-model-one/lib/hostenv"
	"github.com/caroarriaga/travel-model-one/lib/pipelinedef"
)

// launch runs an expanded step as an external process and waits for
// it to exit. Returns the exit code and any launch-level error
// (executable not found, context cancellation, signal). A nonzero
// exit is not a launch error — the caller maps it to StatusFailed.
//
// The process environment is composed from the runner's own
// environment, the resolved host profile, and the step's env map, in
// that order, so the profile overrides inherited variables and the
// step overrides both. The host process environment is never
// modified.
//
// The command runs in its own process group so that cancellation
// kills the command and all its children. Model tools fork freely
// (Cube clusters, R worker processes); signalling only the direct
// child would leave orphans holding the inherited stdout/stderr
// descriptors and block the runner from exiting.
func launch(ctx context.Context, step pipelinedef.Step, profile *hostenv.Profile, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, step.Command, step.Args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Dir = step.Dir

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative PID addresses the whole process group.
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}

	environ := os.Environ()
	if profile != nil {
		environ = append(environ, profile.Environ()...)
	}
	for name, value := range step.Env {
		environ = append(environ, name+"="+value)
	}
	cmd.Env = environ

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		return exitError.ExitCode(), nil
	}

	// Launch failure, timeout, or signal.
	return -1, err
}
