// SPDX-License-Identifier: MPL-2.0

package archiver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/octopack/octopack/pkg/types"

	"golang.org/x/sync/errgroup"
)

// maxLineSize bounds a single output line read from the archiver.
const maxLineSize = 1024 * 1024

type (
	// LineFunc receives one line of process output without its newline.
	LineFunc func(line string)

	// Runner starts a process and streams its output. Both callbacks have
	// returned by the time Run does. A process that ran and exited non-zero
	// reports its code with a nil error.
	Runner interface {
		Run(ctx context.Context, inv Invocation, onStdout, onStderr LineFunc) (types.ExitCode, error)
	}

	// ProcessRunner runs invocations with os/exec.
	ProcessRunner struct{}
)

// Run implements Runner.
func (ProcessRunner) Run(ctx context.Context, inv Invocation, onStdout, onStderr LineFunc) (types.ExitCode, error) {
	cmd := exec.CommandContext(ctx, inv.Executable, inv.Args...)
	cmd.Dir = inv.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 1, fmt.Errorf("failed to open stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 1, fmt.Errorf("failed to open stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("failed to start %s: %w", inv.Executable, err)
	}
	slog.Debug("archiver started", "pid", cmd.Process.Pid, "dir", inv.Dir)

	var g errgroup.Group
	g.Go(func() error { return readLines(stdout, onStdout) })
	g.Go(func() error { return readLines(stderr, onStderr) })

	// The pipes must be drained before Wait closes them.
	readErr := g.Wait()
	waitErr := cmd.Wait()

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitErr.ExitCode() >= 0 {
			return types.ExitCode(exitErr.ExitCode()), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 1, fmt.Errorf("archiver interrupted: %w", ctxErr)
		}
		return 1, fmt.Errorf("failed waiting for %s: %w", inv.Executable, waitErr)
	}
	if readErr != nil {
		return 1, fmt.Errorf("failed reading archiver output: %w", readErr)
	}
	return 0, nil
}

func readLines(r io.Reader, fn LineFunc) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		if fn != nil {
			fn(sc.Text())
		}
	}
	if err := sc.Err(); err != nil {
		// Keep draining so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}
