// SPDX-License-Identifier: MPL-2.0

package fspath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/octopack/octopack/pkg/types"
)

// parentSegment is the parent-directory traversal segment.
const parentSegment = ".."

// ErrInvalidPath is the sentinel error wrapped by InvalidPathError.
var ErrInvalidPath = errors.New("invalid path")

// InvalidPathError is returned by Relativize when one of its inputs is not a
// well-formed absolute path.
type InvalidPathError struct {
	Path   types.FilesystemPath
	Reason string
}

// Error implements the error interface for InvalidPathError.
func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// Unwrap returns ErrInvalidPath for errors.Is() compatibility.
func (e *InvalidPathError) Unwrap() error { return ErrInvalidPath }

// Relativize computes the path of target relative to the base directory.
//
// The result uses the platform separator and never starts with a parent
// traversal segment: files that resolve outside base are flattened into it
// by stripping every leading "../". A trailing separator on base is optional.
// When target equals base the result is empty.
func Relativize(target, base types.FilesystemPath) (types.FilesystemPath, error) {
	if err := requireAbs(target); err != nil {
		return "", err
	}
	if err := requireAbs(base); err != nil {
		return "", err
	}

	rel, err := filepath.Rel(filepath.Clean(string(base)), filepath.Clean(string(target)))
	if err != nil {
		return "", &InvalidPathError{Path: target, Reason: err.Error()}
	}
	if rel == "." {
		return "", nil
	}
	return RemovePathTraversal(types.FilesystemPath(rel)), nil
}

// RemovePathTraversal strips leading parent traversal segments ("../" or
// "..\") until none remain. Applying it twice yields the same result.
func RemovePathTraversal(p types.FilesystemPath) types.FilesystemPath {
	s := string(p)
	for {
		switch {
		case s == parentSegment:
			return ""
		case strings.HasPrefix(s, parentSegment+"/"), strings.HasPrefix(s, parentSegment+`\`):
			s = s[len(parentSegment)+1:]
		default:
			return types.FilesystemPath(s)
		}
	}
}

// HasPrefixFold reports whether p starts with prefix using ordinal
// case-insensitive comparison.
func HasPrefixFold(p, prefix string) bool {
	return len(p) >= len(prefix) && strings.EqualFold(p[:len(prefix)], prefix)
}

func requireAbs(p types.FilesystemPath) error {
	if err := p.Validate(); err != nil {
		return &InvalidPathError{Path: p, Reason: "must be non-empty"}
	}
	if !p.IsAbs() {
		return &InvalidPathError{Path: p, Reason: "must be absolute"}
	}
	return nil
}
