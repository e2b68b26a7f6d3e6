// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/octopack/octopack/internal/archiver"
	"github.com/octopack/octopack/internal/classify"
	"github.com/octopack/octopack/internal/fileops"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidLoadOptions is the sentinel error wrapped by InvalidLoadOptionsError.
	ErrInvalidLoadOptions = errors.New("invalid load options")
)

type (
	// ColorScheme selects the CLI color palette.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError collects every invalid field of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// InvalidLoadOptionsError collects every invalid field of LoadOptions.
	InvalidLoadOptionsError struct {
		FieldErrors []error
	}

	// Config is the complete octopack configuration.
	Config struct {
		Archiver ArchiverConfig `json:"archiver" mapstructure:"archiver"`
		Publish  PublishConfig  `json:"publish" mapstructure:"publish"`
		Exclude  ExcludeConfig  `json:"exclude" mapstructure:"exclude"`
		Disk     DiskConfig     `json:"disk" mapstructure:"disk"`
		UI       UIConfig       `json:"ui" mapstructure:"ui"`

		// Source is the file the configuration was read from, empty when
		// only defaults and the environment applied.
		Source string `json:"-" mapstructure:"-"`
	}

	// ArchiverConfig configures the NuGet-compatible archiver. Viper lowercases
	// property names, which NuGet treats case-insensitively.
	ArchiverConfig struct {
		Path       string            `json:"path" mapstructure:"path"`
		ExtraArgs  []string          `json:"extra_args" mapstructure:"extra_args"`
		Properties map[string]string `json:"properties" mapstructure:"properties"`
	}

	// PublishConfig configures artifact publishing.
	PublishConfig struct {
		TeamCity  bool   `json:"teamcity" mapstructure:"teamcity"`
		FileShare string `json:"file_share" mapstructure:"file_share"`
	}

	// ExcludeConfig holds doublestar patterns of files never packaged.
	ExcludeConfig struct {
		Content  []string `json:"content" mapstructure:"content"`
		Binaries []string `json:"binaries" mapstructure:"binaries"`
	}

	// DiskConfig configures the free space preflight.
	DiskConfig struct {
		RequiredBytes int64 `json:"required_bytes" mapstructure:"required_bytes"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Archiver: ArchiverConfig{
			Path:       archiver.DefaultExecutable,
			ExtraArgs:  []string{},
			Properties: map[string]string{},
		},
		Publish: PublishConfig{TeamCity: true},
		Exclude: ExcludeConfig{
			Content:  append([]string(nil), classify.DefaultContentExclusions...),
			Binaries: append([]string(nil), classify.DefaultBinaryExclusions...),
		},
		Disk: DiskConfig{RequiredBytes: int64(fileops.MinimumFreeSpace)},
		UI:   UIConfig{ColorScheme: ColorSchemeAuto},
	}
}

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// Validate returns an error if the ColorScheme is not recognized. The zero
// value is accepted and means auto.
func (c ColorScheme) Validate() error {
	switch c {
	case "", ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: c}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Validate checks values that CUE cannot see once environment overrides
// are applied.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Archiver.Path) == "" {
		errs = append(errs, errors.New("archiver.path must not be empty"))
	}
	if c.Disk.RequiredBytes < 0 {
		errs = append(errs, fmt.Errorf("disk.required_bytes must not be negative (got %d)", c.Disk.RequiredBytes))
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	for k := range c.Archiver.Properties {
		if strings.ContainsAny(k, "=;") || strings.TrimSpace(k) == "" {
			errs = append(errs, fmt.Errorf("archiver.properties key %q must be non-empty and contain no '=' or ';'", k))
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig followed by each field error, so
// errors.Is matches both the category and the specific failure.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Error implements the error interface.
func (e *InvalidLoadOptionsError) Error() string {
	return fmt.Sprintf("invalid load options: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidLoadOptions for errors.Is() compatibility.
func (e *InvalidLoadOptionsError) Unwrap() error { return ErrInvalidLoadOptions }
