// SPDX-License-Identifier: MPL-2.0

package archiver

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/octopack/octopack/internal/issue"
	"github.com/octopack/octopack/internal/logsink"
	"github.com/octopack/octopack/pkg/types"
)

// DefaultExecutable is looked up on PATH when no archiver path is configured.
const DefaultExecutable = "nuget"

var (
	// ErrArchiverFailed is wrapped by ExitError.
	ErrArchiverFailed = errors.New("archiver failed")

	// ErrArchiverNotFound is returned when the executable cannot be located.
	ErrArchiverNotFound = errors.New("archiver executable not found")
)

type (
	// Archiver produces package artifacts from a saved manifest.
	Archiver interface {
		Pack(ctx context.Context, req Request) error
	}

	// NuGet runs a NuGet-compatible `pack` command.
	NuGet struct {
		executable string
		runner     Runner
		sink       logsink.Sink
		lookPath   func(string) (string, error)
	}

	// Option configures a NuGet archiver.
	Option func(*NuGet)

	// ExitError reports a non-zero archiver exit with the output it produced.
	ExitError struct {
		Code        types.ExitCode
		CommandLine string
		Stdout      []string
		Stderr      []string
	}
)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(n *NuGet) { n.runner = r }
}

// WithSink sets where archiver output is relayed.
func WithSink(s logsink.Sink) Option {
	return func(n *NuGet) { n.sink = s }
}

// WithLookPath replaces the PATH lookup used to resolve bare executable names.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(n *NuGet) { n.lookPath = fn }
}

// NewNuGet creates an archiver for executable. Blank means DefaultExecutable.
func NewNuGet(executable string, opts ...Option) *NuGet {
	if strings.TrimSpace(executable) == "" {
		executable = DefaultExecutable
	}
	n := &NuGet{
		executable: executable,
		runner:     ProcessRunner{},
		sink:       logsink.Discard,
		lookPath:   exec.LookPath,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "There was an error calling NuGet (exit code %d). Please see the output above for more details. Command line: '%s'",
		e.Code, e.CommandLine)
	writeOutput(&b, "Output", e.Stdout)
	writeOutput(&b, "Errors", e.Stderr)
	return b.String()
}

func writeOutput(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("\n" + title + ":")
	for _, l := range lines {
		b.WriteString("\n  " + l)
	}
}

// Unwrap returns ErrArchiverFailed so callers can use errors.Is.
func (e *ExitError) Unwrap() error { return ErrArchiverFailed }

// Invocation resolves the process that Pack would start for req.
func (n *NuGet) Invocation(req Request) (Invocation, error) {
	exe, err := n.resolve()
	if err != nil {
		return Invocation{}, err
	}
	return Invocation{Executable: exe, Args: CommandLine(req), Dir: req.WorkDir}, nil
}

// Pack runs the archiver. Stdout lines are logged as info and stderr lines
// as OCTONUGET errors while the process runs.
func (n *NuGet) Pack(ctx context.Context, req Request) error {
	inv, err := n.Invocation(req)
	if err != nil {
		return err
	}

	n.sink.Info("Running NuGet.exe with command line arguments: " + inv.String())

	var (
		mu     sync.Mutex
		stdout []string
		stderr []string
	)
	onStdout := func(line string) {
		n.sink.Info(line)
		mu.Lock()
		stdout = append(stdout, line)
		mu.Unlock()
	}
	onStderr := func(line string) {
		n.sink.Error(issue.CodeArchiver, line)
		mu.Lock()
		stderr = append(stderr, line)
		mu.Unlock()
	}

	code, err := n.runner.Run(ctx, inv, onStdout, onStderr)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("run the archiver").
			WithResource(inv.Executable).
			WithCode(issue.CodeArchiver).
			WithSuggestion("Check that the archiver path points to a working NuGet executable").
			Wrap(err).
			BuildError()
	}
	if !code.IsSuccess() {
		return &ExitError{Code: code, CommandLine: inv.String(), Stdout: stdout, Stderr: stderr}
	}
	return nil
}

func (n *NuGet) resolve() (string, error) {
	if strings.ContainsAny(n.executable, `/\`) {
		return n.executable, nil
	}
	path, err := n.lookPath(n.executable)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrArchiverNotFound, n.executable, err)
	}
	return path, nil
}
