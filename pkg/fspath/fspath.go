// SPDX-License-Identifier: MPL-2.0

// Package fspath provides typed wrappers around path/filepath functions that
// accept and return types.FilesystemPath, plus the exact relative-path
// computation used to place files inside a package.
package fspath

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/octopack/octopack/pkg/types"
)

// Join wraps filepath.Join, accepting and returning types.FilesystemPath.
func Join(elem ...types.FilesystemPath) types.FilesystemPath {
	strs := make([]string, len(elem))
	for i, e := range elem {
		strs[i] = string(e)
	}
	return types.FilesystemPath(filepath.Join(strs...))
}

// JoinStr wraps filepath.Join, accepting a typed base path and raw string
// segments (literal directory names such as "obj" or "bin").
func JoinStr(base types.FilesystemPath, elem ...string) types.FilesystemPath {
	parts := make([]string, 1, 1+len(elem))
	parts[0] = string(base)
	parts = append(parts, elem...)
	return types.FilesystemPath(filepath.Join(parts...))
}

// Dir wraps filepath.Dir for FilesystemPath.
func Dir(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Dir(string(p)))
}

// Abs wraps filepath.Abs for FilesystemPath. Returns an error if the
// underlying OS call fails.
func Abs(p types.FilesystemPath) (types.FilesystemPath, error) {
	abs, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return types.FilesystemPath(abs), nil
}

// Clean wraps filepath.Clean for FilesystemPath.
func Clean(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Clean(string(p)))
}

// FromSlash converts forward slashes (and, on Windows-authored inputs,
// backslashes) to the OS-specific path separator.
func FromSlash(p types.FilesystemPath) types.FilesystemPath {
	s := strings.ReplaceAll(string(p), `\`, "/")
	return types.FilesystemPath(filepath.FromSlash(s))
}

// ToPosix converts a relative path to the forward-slash form written to
// manifest targets.
func ToPosix(p types.FilesystemPath) string {
	return filepath.ToSlash(string(p))
}

// ChangeExt replaces the extension of p (including the dot) with ext.
func ChangeExt(p types.FilesystemPath, ext string) types.FilesystemPath {
	s := string(p)
	return types.FilesystemPath(strings.TrimSuffix(s, filepath.Ext(s)) + ext)
}
