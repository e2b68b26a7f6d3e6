// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"testing"
)

func TestIsSemanticVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"1", true},
		{"1.0", true},
		{"1.0.1", true},
		{"1.0.1+ANYTHING.I.WANT", true},
		{"1.0.1.5", true},
		{"1.0.1.5-alpha.1+SHA.ANYTHING.ELSE.I.WANT", true},
		{"1.0.0-alpha", true},
		{"1.0.0-alpha.5", true},
		{"1.0.0-alpha.1+SHA.ANYTHING.ELSE.I.WANT", true},
		{"2016.03.02.01", true},
		{"test", false},
		{"1.a", false},
		{"1.0.0.0.0", false},
		{"1.0.0-", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := IsSemanticVersion(tt.in); got != tt.want {
				t.Errorf("IsSemanticVersion(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsValidSemVer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"1.0.0", true},
		{"2.0.0-alpha.1", true},
		{"2.0.0+foo.bar", true},
		{"1.0.10-alpha.1+SHA.0001", true},
		{"0.0.0", true},
		{"1.0", false},
		{"1.0.0.0", false},
		{"01.0.0", false},
		{"1.0.0-01", false},
		{"1.0.0-0A", true},
		{"1.0.0-", false},
		{"1.0.0-a..b", false},
		{"1.0.0+", false},
		{"1.0.0-a_b", false},
		{"  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := IsValidSemVer(tt.in); got != tt.want {
				t.Errorf("IsValidSemVer(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	v, err := Parse("2016.03.02.01-beta.1+SHA.ANYTHING")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if v.String() != "2016.03.02.01-beta.1+SHA.ANYTHING" {
		t.Errorf("String() = %q, leading zeros must be kept", v.String())
	}
	if len(v.Parts) != 4 || v.Parts[1] != "03" {
		t.Errorf("Parts = %v", v.Parts)
	}
	if !v.IsPrerelease() || v.Prerelease[0] != "beta" {
		t.Errorf("Prerelease = %v", v.Prerelease)
	}
	if v.Metadata != "SHA.ANYTHING" {
		t.Errorf("Metadata = %q", v.Metadata)
	}
	if v.Major() != 2016 {
		t.Errorf("Major() = %d", v.Major())
	}

	_, err = Parse("not-a-version")
	if !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("Parse(invalid) error = %v, want ErrInvalidVersion", err)
	}
	var ive *InvalidVersionError
	if !errors.As(err, &ive) || ive.Value != "not-a-version" {
		t.Errorf("error = %#v, want *InvalidVersionError", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := Validate(""); err != nil {
		t.Errorf("Validate(\"\") error = %v, blank means no explicit version", err)
	}
	if err := Validate("1.0.9"); err != nil {
		t.Errorf("Validate(1.0.9) error = %v", err)
	}
	if err := Validate("1.x"); err == nil {
		t.Error("Validate(1.x) should fail")
	}
}

func TestAppend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v, suffix, want string
	}{
		{"1.0.9", "Foo", "1.0.9-Foo"},
		{"3.1.0-dev", "Foo", "3.1.0-dev-Foo"},
		{"2.1.0.1", " Foo ", "2.1.0.1-Foo"},
		{"1.0.9", "", "1.0.9"},
		{"1.0.9", "   ", "1.0.9"},
	}

	for _, tt := range tests {
		if got := Append(tt.v, tt.suffix); got != tt.want {
			t.Errorf("Append(%q, %q) = %q, want %q", tt.v, tt.suffix, got, tt.want)
		}
	}
}
