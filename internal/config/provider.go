// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"strings"
)

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ConfigDirPath overrides the config directory lookup when set.
	ConfigDirPath string
	// ProjectDir enables the <project>/octopack.cue lookup when set.
	ProjectDir string
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects whitespace-only paths. Empty values mean "not set".
func (o LoadOptions) Validate() error {
	var errs []error
	check := func(name, value string) {
		if value != "" && strings.TrimSpace(value) == "" {
			errs = append(errs, errors.New(name+" must not be whitespace-only"))
		}
	}
	check("config file path", o.ConfigFilePath)
	check("config dir path", o.ConfigDirPath)
	check("project dir", o.ProjectDir)
	if len(errs) > 0 {
		return &InvalidLoadOptionsError{FieldErrors: errs}
	}
	return nil
}
