// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package archiver

import (
	"context"
	"slices"
	"sync"
	"testing"
)

func TestProcessRunner_StreamsBothPipes(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		out, err []string
	)
	inv := Invocation{
		Executable: "/bin/sh",
		Args:       []string{"-c", "echo one; echo two >&2; echo three; pwd"},
		Dir:        t.TempDir(),
	}
	code, runErr := ProcessRunner{}.Run(context.Background(), inv,
		func(l string) { mu.Lock(); out = append(out, l); mu.Unlock() },
		func(l string) { mu.Lock(); err = append(err, l); mu.Unlock() },
	)
	if runErr != nil {
		t.Fatalf("Run() error = %v", runErr)
	}
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
	if len(out) != 3 || !slices.Equal(out[:2], []string{"one", "three"}) {
		t.Errorf("stdout = %q", out)
	}
	if !slices.Equal(err, []string{"two"}) {
		t.Errorf("stderr = %q", err)
	}
}

func TestProcessRunner_ExitCode(t *testing.T) {
	t.Parallel()

	code, err := ProcessRunner{}.Run(context.Background(),
		Invocation{Executable: "/bin/sh", Args: []string{"-c", "exit 3"}}, nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 3 {
		t.Errorf("code = %d, want 3", code)
	}
}

func TestProcessRunner_MissingExecutable(t *testing.T) {
	t.Parallel()

	_, err := ProcessRunner{}.Run(context.Background(),
		Invocation{Executable: "/definitely/not/here"}, nil, nil)
	if err == nil {
		t.Fatal("Run() error = nil, want start failure")
	}
}
