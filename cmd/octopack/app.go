// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/octopack/octopack/internal/archiver"
	"github.com/octopack/octopack/internal/assemble"
	"github.com/octopack/octopack/internal/config"
	"github.com/octopack/octopack/internal/logsink"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and delegates through its interfaces.
	App struct {
		Config    ConfigProvider
		NewRunner RunnerFactory
		Zipper    Zipper
		Getenv    func(string) string
		stdout    io.Writer
		stderr    io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		NewRunner RunnerFactory
		Zipper    Zipper
		Getenv    func(string) string
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// PackageRunner performs one packaging run and reports success. Failures
	// are logged to the sink it was built with.
	PackageRunner interface {
		Run(ctx context.Context, pc assemble.ProjectContext, cands assemble.Candidates) bool
	}

	// RunnerFactory builds a PackageRunner logging to sink. CI service
	// messages are written to ciOut.
	RunnerFactory func(sink logsink.Sink, ciOut io.Writer) PackageRunner

	// Zipper creates a plain zip artifact.
	Zipper interface {
		Zip(ctx context.Context, req archiver.ZipRequest) (string, error)
	}

	zipFunc func(ctx context.Context, req archiver.ZipRequest) (string, error)
)

// NewApp builds an App, filling nil dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:    deps.Config,
		NewRunner: deps.NewRunner,
		Zipper:    deps.Zipper,
		Getenv:    deps.Getenv,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.NewRunner == nil {
		app.NewRunner = defaultRunner
	}
	if app.Zipper == nil {
		app.Zipper = zipFunc(archiver.Zip)
	}
	if app.Getenv == nil {
		app.Getenv = os.Getenv
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

func defaultRunner(sink logsink.Sink, ciOut io.Writer) PackageRunner {
	return assemble.New(assemble.WithSink(sink), assemble.WithCIOutput(ciOut))
}

func (f zipFunc) Zip(ctx context.Context, req archiver.ZipRequest) (string, error) {
	return f(ctx, req)
}
