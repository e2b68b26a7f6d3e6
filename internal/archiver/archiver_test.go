// SPDX-License-Identifier: MPL-2.0

package archiver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/octopack/octopack/internal/issue"
	"github.com/octopack/octopack/internal/logsink"
	"github.com/octopack/octopack/pkg/types"
)

type fakeRunner struct {
	stdout []string
	stderr []string
	code   types.ExitCode
	err    error
	got    Invocation
}

func (f *fakeRunner) Run(_ context.Context, inv Invocation, onStdout, onStderr LineFunc) (types.ExitCode, error) {
	f.got = inv
	for _, l := range f.stdout {
		onStdout(l)
	}
	for _, l := range f.stderr {
		onStderr(l)
	}
	return f.code, f.err
}

func testRequest() Request {
	return Request{ManifestPath: "/p/obj/octopacking/App.nuspec", BasePath: "/p", OutputDir: "/p/obj/octopacked", WorkDir: "/p/obj/octopacking"}
}

func TestNuGet_PackRelaysOutput(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{stdout: []string{"Attempting to build package", "Successfully created package"}}
	rec := logsink.NewRecorder()
	n := NewNuGet("/tools/nuget", WithRunner(runner), WithSink(rec))

	if err := n.Pack(context.Background(), testRequest()); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if runner.got.Executable != "/tools/nuget" {
		t.Errorf("Executable = %q", runner.got.Executable)
	}
	if runner.got.Dir != "/p/obj/octopacking" {
		t.Errorf("Dir = %q", runner.got.Dir)
	}

	infos := rec.AtLevel(logsink.LevelInfo)
	if len(infos) != 3 {
		t.Fatalf("info entries = %d, want 3: %+v", len(infos), infos)
	}
	if !strings.HasPrefix(infos[0].Msg, "Running NuGet.exe with command line arguments: ") {
		t.Errorf("first info = %q", infos[0].Msg)
	}
	if infos[2].Msg != "Successfully created package" {
		t.Errorf("last info = %q", infos[2].Msg)
	}
}

func TestNuGet_PackNonZeroExit(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		stdout: []string{"Attempting to build package from 'App.nuspec'."},
		stderr: []string{"The element 'metadata' has invalid child element 'foo'."},
		code:   2,
	}
	rec := logsink.NewRecorder()
	n := NewNuGet("/tools/nuget", WithRunner(runner), WithSink(rec))

	err := n.Pack(context.Background(), testRequest())
	if !errors.Is(err, ErrArchiverFailed) {
		t.Fatalf("Pack() error = %v, want ErrArchiverFailed", err)
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error is %T, want *ExitError", err)
	}
	if exitErr.Code != 2 || len(exitErr.Stdout) != 1 || len(exitErr.Stderr) != 1 {
		t.Errorf("ExitError = %+v", exitErr)
	}
	for _, want := range []string{
		"There was an error calling NuGet (exit code 2)",
		"-NoPackageAnalysis",
		"Attempting to build package from 'App.nuspec'.",
		"invalid child element 'foo'",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Error() = %q, missing %q", err.Error(), want)
		}
	}
	if got := rec.WithCode(issue.CodeArchiver); len(got) != 1 || got[0].Level != logsink.LevelError {
		t.Errorf("OCTONUGET entries = %+v", got)
	}
}

func TestNuGet_PackRunnerFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("exec format error")
	n := NewNuGet("/tools/nuget", WithRunner(&fakeRunner{code: 1, err: boom}))

	err := n.Pack(context.Background(), testRequest())
	if !errors.Is(err, boom) {
		t.Fatalf("Pack() error = %v, want wrapped %v", err, boom)
	}
	if got := issue.CodeOf(err); got != issue.CodeArchiver {
		t.Errorf("CodeOf() = %s, want %s", got, issue.CodeArchiver)
	}
}

func TestNuGet_Resolve(t *testing.T) {
	t.Parallel()

	lookups := 0
	lookPath := func(name string) (string, error) {
		lookups++
		if name == "nuget" {
			return "/usr/local/bin/nuget", nil
		}
		return "", errors.New("not found")
	}

	inv, err := NewNuGet("", WithLookPath(lookPath)).Invocation(testRequest())
	if err != nil {
		t.Fatalf("Invocation() error = %v", err)
	}
	if inv.Executable != "/usr/local/bin/nuget" {
		t.Errorf("Executable = %q", inv.Executable)
	}

	_, err = NewNuGet("nuget-missing", WithLookPath(lookPath)).Invocation(testRequest())
	if !errors.Is(err, ErrArchiverNotFound) {
		t.Errorf("error = %v, want ErrArchiverNotFound", err)
	}

	if _, err := NewNuGet("./tools/NuGet.exe", WithLookPath(lookPath)).Invocation(testRequest()); err != nil {
		t.Errorf("explicit path error = %v", err)
	}
	if lookups != 2 {
		t.Errorf("lookups = %d, want 2 (explicit paths skip PATH)", lookups)
	}
}
