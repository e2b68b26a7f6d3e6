// SPDX-License-Identifier: MPL-2.0

// Package version validates package version strings and applies the
// append-to-version suffix.
//
// Two grammars are accepted. Loose versions are what the archiver takes:
// one to four numeric parts with optional pre-release labels and build
// metadata ("2016.03.02.01-beta.1+sha"). Strict versions follow SemVer 2.0.0
// exactly: three numeric parts without leading zeros.
package version

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidVersion is the sentinel wrapped by InvalidVersionError.
var ErrInvalidVersion = errors.New("invalid package version")

// looseRegex matches archiver-acceptable versions.
var looseRegex = regexp.MustCompile(`^(\d+(?:\.\d+){0,3})(?:-([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?(?:\+([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?$`)

type (
	// Version is a parsed loose version. Numeric parts keep their original
	// text so leading zeros survive a round trip.
	Version struct {
		Parts      []string
		Prerelease []string
		Metadata   string
		Original   string
	}

	// InvalidVersionError is returned when a version string fails validation.
	InvalidVersionError struct {
		Value string
	}
)

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid package version %q (must be 1-4 numeric parts with optional -prerelease and +metadata, e.g. 1.0.9 or 2016.03.02.01-beta.1)", e.Value)
}

func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// Parse parses a loose version.
func Parse(s string) (*Version, error) {
	m := looseRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, &InvalidVersionError{Value: s}
	}

	v := &Version{
		Parts:    strings.Split(m[1], "."),
		Metadata: m[3],
		Original: m[0],
	}
	if m[2] != "" {
		v.Prerelease = strings.Split(m[2], ".")
	}
	return v, nil
}

// String returns the version exactly as parsed.
func (v *Version) String() string {
	return v.Original
}

// IsPrerelease reports whether the version carries pre-release labels.
func (v *Version) IsPrerelease() bool {
	return len(v.Prerelease) > 0
}

// Major returns the first numeric part.
func (v *Version) Major() int {
	n, _ := strconv.Atoi(v.Parts[0])
	return n
}

// IsSemanticVersion reports whether s is a loose version.
func IsSemanticVersion(s string) bool {
	return looseRegex.MatchString(s)
}

// Validate returns an *InvalidVersionError unless s is blank or a loose version.
// Blank means "no explicit version".
func Validate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := Parse(s); err != nil {
		return err
	}
	return nil
}

// IsValidSemVer reports whether s is a strict SemVer 2.0.0 version.
func IsValidSemVer(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}

	core, build, hasBuild := strings.Cut(s, "+")
	core, pre, hasPre := strings.Cut(core, "-")

	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if !isNumeric(p) || !validPart(p, false) {
			return false
		}
	}

	if hasPre {
		for _, label := range strings.Split(pre, ".") {
			if !validPart(label, false) {
				return false
			}
		}
	}

	if hasBuild {
		for _, label := range strings.Split(build, ".") {
			if !validPart(label, true) {
				return false
			}
		}
	}
	return true
}

// Append returns v with "-suffix" appended. A blank suffix returns v unchanged.
func Append(v, suffix string) string {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return v
	}
	return v + "-" + suffix
}

// validPart checks a dot separated identifier: non-empty, [0-9A-Za-z-] only,
// and no leading zero on purely numeric identifiers unless allowed.
func validPart(s string, allowLeadingZeros bool) bool {
	if s == "" {
		return false
	}
	if !allowLeadingZeros && len(s) > 1 && s[0] == '0' && isNumeric(s) {
		return false
	}
	for _, c := range s {
		if !isLetterOrDigitOrDash(c) {
			return false
		}
	}
	return true
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isLetterOrDigitOrDash(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '-'
}
