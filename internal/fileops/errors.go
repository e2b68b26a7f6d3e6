// SPDX-License-Identifier: MPL-2.0

package fileops

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// MinimumFreeSpace is the free space always required on the staging volume,
// regardless of what the caller asks for.
const MinimumFreeSpace uint64 = 500 * 1024 * 1024

var (
	// ErrInsufficientDiskSpace is the sentinel wrapped by InsufficientDiskSpaceError.
	ErrInsufficientDiskSpace = errors.New("insufficient disk space")

	// ErrRetriesExhausted is returned when every attempt of a retried operation failed.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

type (
	// InsufficientDiskSpaceError is returned by EnsureDiskHasEnoughFreeSpace.
	InsufficientDiskSpaceError struct {
		Path      string
		Available uint64
		Required  uint64
	}

	// RetryError carries the last failure of a retried operation.
	RetryError struct {
		Op       string
		Path     string
		Attempts int
		Err      error
	}
)

func (e *InsufficientDiskSpaceError) Error() string {
	return fmt.Sprintf(
		"the drive containing the directory %q does not have enough free disk space available for this operation to proceed: "+
			"the disk only has %s available; please free up at least %s",
		e.Path, humanize.IBytes(e.Available), humanize.IBytes(e.Required))
}

func (e *InsufficientDiskSpaceError) Unwrap() error {
	return ErrInsufficientDiskSpace
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s %s failed after %d attempt(s): %v", e.Op, e.Path, e.Attempts, e.Err)
}

// Unwrap exposes both the retry sentinel and the underlying cause.
func (e *RetryError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Err}
}
