// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/octopack/octopack/internal/logsink"
	"github.com/octopack/octopack/pkg/types"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidWatchConfig is the sentinel error wrapped by InvalidWatchConfigError.
var ErrInvalidWatchConfig = errors.New("invalid watch config")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Patterns are doublestar globs relative to BaseDir selecting the
		// files that trigger a rebuild. Empty means every non-ignored file.
		Patterns []string

		// Ignore are extra globs merged with DefaultIgnores.
		Ignore []string

		// Debounce is the quiet period after the last event before OnChange
		// fires. Zero or negative values fall back to DefaultDebounce.
		Debounce time.Duration

		// BaseDir is the root directory to watch, usually the project
		// directory. Empty means the working directory.
		BaseDir types.FilesystemPath

		// OnChange receives the changed paths, relative to BaseDir and
		// sorted. A nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error

		// Sink receives watcher diagnostics. Nil discards them.
		Sink logsink.Sink
	}

	// InvalidWatchConfigError collects every invalid field of a Config.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}
)

// Validate checks that every pattern is a well-formed doublestar glob and
// that BaseDir, when set, is not blank.
func (c Config) Validate() error {
	var errs []error
	check := func(label string, patterns []string) {
		for i, pat := range patterns {
			if pat == "" || !doublestar.ValidatePattern(pat) {
				errs = append(errs, fmt.Errorf("%s[%d]: invalid pattern %q", label, i, pat))
			}
		}
	}
	check("patterns", c.Patterns)
	check("ignore", c.Ignore)
	if c.BaseDir != "" {
		if err := c.BaseDir.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("base dir: %w", err))
		}
	}
	if len(errs) > 0 {
		return &InvalidWatchConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidWatchConfigError) Error() string {
	return fmt.Sprintf("invalid watch config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error { return ErrInvalidWatchConfig }
