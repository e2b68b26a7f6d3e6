// SPDX-License-Identifier: MPL-2.0

package assemble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/octopack/octopack/internal/archiver"
	"github.com/octopack/octopack/internal/classify"
	"github.com/octopack/octopack/internal/fileops"
	"github.com/octopack/octopack/internal/issue"
	"github.com/octopack/octopack/internal/logsink"

	"github.com/google/uuid"
)

// teamCityEnvVar marks a TeamCity build agent.
const teamCityEnvVar = "TEAMCITY_VERSION"

type (
	// Assembler runs package builds. It holds no per-run state, so one
	// Assembler can serve any number of sequential runs; concurrent runs
	// must not share a project directory.
	Assembler struct {
		fs       fileops.FileSystem
		archiver archiver.Archiver
		sink     logsink.Sink
		getenv   func(string) string
		now      func() time.Time
		ciOut    io.Writer
	}

	// Option configures an Assembler.
	Option func(*Assembler)

	// Result describes a run.
	Result struct {
		RunID string
		State State
		// PackageID and Version are the values the archiver was asked to use.
		PackageID    string
		Version      string
		ManifestPath string
		BasePath     string
		// Entries are the files added to the manifest. Empty when the
		// manifest already listed its files.
		Entries            []classify.ResolvedEntry
		ClassificationSkip bool
		// Artifacts are the copies placed in the output directory.
		Artifacts []string
	}
)

// WithFileSystem replaces the physical file system.
func WithFileSystem(fs fileops.FileSystem) Option {
	return func(a *Assembler) { a.fs = fs }
}

// WithArchiver replaces the NuGet archiver built from ProjectContext.Archiver.
func WithArchiver(ar archiver.Archiver) Option {
	return func(a *Assembler) { a.archiver = ar }
}

// WithSink sets the message sink.
func WithSink(s logsink.Sink) Option {
	return func(a *Assembler) { a.sink = s }
}

// WithGetenv replaces os.Getenv for CI detection.
func WithGetenv(fn func(string) string) Option {
	return func(a *Assembler) { a.getenv = fn }
}

// WithClock replaces time.Now for generated manifest descriptions.
func WithClock(fn func() time.Time) Option {
	return func(a *Assembler) { a.now = fn }
}

// WithCIOutput sets where CI service messages are written (stdout by default).
func WithCIOutput(w io.Writer) Option {
	return func(a *Assembler) { a.ciOut = w }
}

// New creates an Assembler.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		sink:   logsink.Discard,
		getenv: os.Getenv,
		now:    time.Now,
		ciOut:  os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.fs == nil {
		a.fs = fileops.NewPhysical()
	}
	return a
}

// Run assembles the package and reports success. Failures are logged once
// with their code and message, and the full error chain at detail level.
func (a *Assembler) Run(ctx context.Context, pc ProjectContext, cands Candidates) bool {
	if _, err := a.Assemble(ctx, pc, cands); err != nil {
		a.sink.Error(issue.CodeOf(err), err.Error())
		var ae *issue.ActionableError
		if errors.As(err, &ae) {
			for _, s := range ae.Suggestions {
				a.sink.Info("  • " + s)
			}
		}
		a.sink.Detail(describeChain(err))
		return false
	}
	return true
}

// Assemble runs every step in order and stops at the first failure. The
// returned Result is never nil; on failure its State is StateFailed and the
// error is a *StepError naming the last state reached.
func (a *Assembler) Assemble(ctx context.Context, pc ProjectContext, cands Candidates) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), State: StateStart}
	r := &run{Assembler: a, pc: pc, cands: cands, res: res}

	steps := []struct {
		reached State
		fn      func(context.Context) error
	}{
		{StateStageDirectoriesCreated, r.createStageDirectories},
		{StateManifestSeeded, r.seedManifest},
		{StateFilesClassifiedAndMerged, r.classifyAndMerge},
		{StateManifestSaved, r.saveManifest},
		{StateArchiverInvoked, r.invokeArchiver},
		{StateArtifactsCollected, r.collectArtifacts},
	}

	last := StateStart
	fail := func(err error) (*Result, error) {
		res.State = StateFailed
		return res, &StepError{State: last, Err: err}
	}

	if err := r.prepare(); err != nil {
		return fail(err)
	}
	r.logDiagnostics()

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if err := step.fn(ctx); err != nil {
			return fail(err)
		}
		last = step.reached
		res.State = last
	}

	res.State = StateDone
	a.sink.Info("octopack successful")
	return res, nil
}

// describeChain lists every layer of err on its own line, indented by depth.
func describeChain(err error) string {
	var sb strings.Builder
	writeChain(&sb, err, 0)
	return sb.String()
}

func writeChain(sb *strings.Builder, err error, depth int) {
	for err != nil {
		fmt.Fprintf(sb, "%s%T: %v\n", strings.Repeat("  ", depth), err, err)
		if multi, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range multi.Unwrap() {
				writeChain(sb, e, depth+1)
			}
			return
		}
		err = errors.Unwrap(err)
		depth++
	}
}
