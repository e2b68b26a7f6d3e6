// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPackageID is the sentinel error wrapped by InvalidPackageIDError.
var ErrInvalidPackageID = errors.New("invalid package id")

// projectFileSuffixes are stripped from a project name when deriving a
// package id. Longer suffixes come first so ".csproj.teamcity" wins over
// ".csproj".
var projectFileSuffixes = []string{
	".csproj.teamcity",
	".vbproj.teamcity",
	".csproj",
	".vbproj",
	".fsproj",
	".sqlproj",
}

type (
	// PackageID is the identifier written to the manifest's <id> element and
	// used as the prefix of the produced artifact file name.
	PackageID string

	// InvalidPackageIDError is returned when a PackageID is empty or contains
	// whitespace or path separators.
	InvalidPackageIDError struct {
		Value PackageID
	}
)

// PackageIDFromProjectName derives a package id from a project name. Known
// project-file suffixes are stripped and, when suffix is non-blank,
// "." + suffix is appended.
func PackageIDFromProjectName(projectName, suffix string) PackageID {
	id := strings.TrimSpace(projectName)
	lower := strings.ToLower(id)
	for _, s := range projectFileSuffixes {
		if strings.HasSuffix(lower, s) {
			id = id[:len(id)-len(s)]
			break
		}
	}
	if s := strings.TrimSpace(suffix); s != "" {
		id += "." + s
	}
	return PackageID(id)
}

// String returns the string representation of the PackageID.
func (id PackageID) String() string { return string(id) }

// Validate returns an error if the PackageID is empty or contains whitespace
// or path separators.
func (id PackageID) Validate() error {
	s := string(id)
	if strings.TrimSpace(s) == "" || strings.ContainsAny(s, " \t\r\n/\\") {
		return &InvalidPackageIDError{Value: id}
	}
	return nil
}

// Error implements the error interface for InvalidPackageIDError.
func (e *InvalidPackageIDError) Error() string {
	return fmt.Sprintf("invalid package id %q: must be non-empty and contain no whitespace or path separators", e.Value)
}

// Unwrap returns ErrInvalidPackageID for errors.Is() compatibility.
func (e *InvalidPackageIDError) Unwrap() error { return ErrInvalidPackageID }
