// SPDX-License-Identifier: MPL-2.0

package fileops

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
)

type (
	// FileSystem is the set of file operations the packaging engine depends on.
	FileSystem interface {
		FileExists(path string) bool
		DirectoryExists(path string) bool
		DeleteFile(path string, policy DeletionPolicy) error
		EnumerateFiles(dir string, patterns ...string) ([]string, error)
		EnumerateFilesRecursively(dir string, patterns ...string) ([]string, error)
		ReadFile(path string) (string, error)
		WriteFile(path string, contents string) error
		CopyFile(src, dst string, retryAttempts int) error
		PurgeDirectory(dir string, include func(fs.FileInfo) bool, policy DeletionPolicy) error
		EnsureDirectoryExists(dir string) error
		EnsureDiskHasEnoughFreeSpace(dir string, requiredBytes int64) error
		GetFullPath(path string) (string, error)
		OverwriteAndDelete(original, replacement string) error
	}

	// Sleeper blocks the calling goroutine between retry attempts.
	Sleeper func(time.Duration)

	// FreeSpaceFunc reports the free bytes on the volume containing path.
	FreeSpaceFunc func(path string) (uint64, error)

	// Option configures a Physical file system.
	Option func(*Physical)

	// Physical implements FileSystem on the real disk.
	Physical struct {
		sleep     Sleeper
		freeSpace FreeSpaceFunc
		remove    func(string) error
		copyOnce  func(src, dst string) error
	}
)

// DefaultCopyRetryAttempts is the retry count used when callers pass zero.
const DefaultCopyRetryAttempts = 3

var _ FileSystem = (*Physical)(nil)

// WithSleeper replaces time.Sleep between retry attempts.
func WithSleeper(s Sleeper) Option {
	return func(p *Physical) { p.sleep = s }
}

// WithFreeSpaceFunc replaces the OS free space query.
func WithFreeSpaceFunc(fn FreeSpaceFunc) Option {
	return func(p *Physical) { p.freeSpace = fn }
}

// NewPhysical creates a FileSystem backed by the OS.
func NewPhysical(opts ...Option) *Physical {
	p := &Physical{
		sleep:     time.Sleep,
		freeSpace: diskFreeSpace,
		remove:    os.Remove,
		copyOnce:  copyFileOnce,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Physical) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (p *Physical) DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// DeleteFile deletes path, retrying per policy. A blank or missing path is
// not an error.
func (p *Physical) DeleteFile(path string, policy DeletionPolicy) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	attempts := policy.attempts()
	for i := range attempts {
		err := p.remove(path)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		if i == attempts-1 {
			if policy.ThrowOnFailure {
				return &RetryError{Op: "delete", Path: path, Attempts: attempts, Err: err}
			}
			slog.Debug("giving up deleting file", "path", path, "error", err)
			return nil
		}

		slog.Debug("delete failed, retrying", "path", path, "attempt", i+1, "error", err)
		p.sleep(policy.SleepBetweenAttempts)
	}
	return nil
}

// EnumerateFiles lists the files directly inside dir. Patterns are doublestar
// patterns matched case-insensitively against the file name; no pattern
// means every file.
func (p *Physical) EnumerateFiles(dir string, patterns ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if matchAny(patterns, e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// EnumerateFilesRecursively lists every file below dir in lexical order.
// A pattern without a separator matches the file name at any depth; a
// pattern with one matches the slash separated path relative to dir.
func (p *Physical) EnumerateFilesRecursively(dir string, patterns ...string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if matchAny(patterns, d.Name()) {
			files = append(files, path)
			return nil
		}
		if rel, relErr := filepath.Rel(dir, path); relErr == nil && slices.ContainsFunc(patterns, hasSeparator) &&
			matchAny(patterns, filepath.ToSlash(rel)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (p *Physical) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFile overwrites path with contents, creating parent directories.
func (p *Physical) WriteFile(path, contents string) error {
	if err := p.EnsureDirectoryExists(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(contents), 0o644)
}

// CopyFile copies src over dst, clearing a read-only bit on an existing dst
// first. Failed attempts back off 100ms, then attempt*1s. The last error is
// returned once retryAttempts are used up.
func (p *Physical) CopyFile(src, dst string, retryAttempts int) error {
	if retryAttempts <= 0 {
		retryAttempts = DefaultCopyRetryAttempts
	}

	if err := p.EnsureDirectoryExists(filepath.Dir(dst)); err != nil {
		return err
	}

	for i := range retryAttempts {
		err := p.copyOnce(src, dst)
		if err == nil {
			return nil
		}

		if i == retryAttempts-1 {
			return &RetryError{Op: "copy", Path: src, Attempts: retryAttempts, Err: err}
		}

		slog.Debug("copy failed, retrying", "src", src, "dst", dst, "attempt", i+1, "error", err)
		p.sleep(copyBackoff(i))
	}
	return nil
}

// PurgeDirectory deletes every file below dir that include accepts (all
// files when include is nil). Directories are left in place. A missing dir
// is a no-op.
func (p *Physical) PurgeDirectory(dir string, include func(fs.FileInfo) bool, policy DeletionPolicy) error {
	if !p.DirectoryExists(dir) {
		return nil
	}

	files, err := p.EnumerateFilesRecursively(dir)
	if err != nil {
		return fmt.Errorf("enumerate %s: %w", dir, err)
	}

	for _, f := range files {
		if include != nil {
			info, statErr := os.Stat(f)
			if statErr != nil || !include(info) {
				continue
			}
		}
		if err := p.DeleteFile(f, policy); err != nil {
			return err
		}
	}
	return nil
}

func (p *Physical) EnsureDirectoryExists(dir string) error {
	if dir == "" || p.DirectoryExists(dir) {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// EnsureDiskHasEnoughFreeSpace fails with *InsufficientDiskSpaceError when the
// volume holding dir has less than max(requiredBytes, MinimumFreeSpace) free.
// The check is skipped when the OS cannot report free space.
func (p *Physical) EnsureDiskHasEnoughFreeSpace(dir string, requiredBytes int64) error {
	free, err := p.freeSpace(nearestExisting(dir))
	if err != nil {
		slog.Debug("free space query failed, skipping check", "path", dir, "error", err)
		return nil
	}

	required := max(uint64(max(requiredBytes, 0)), MinimumFreeSpace)
	if free < required {
		return &InsufficientDiskSpaceError{Path: dir, Available: free, Required: required}
	}
	return nil
}

func (p *Physical) GetFullPath(path string) (string, error) {
	return filepath.Abs(path)
}

// OverwriteAndDelete replaces original with replacement and removes
// replacement afterwards.
func (p *Physical) OverwriteAndDelete(original, replacement string) error {
	if err := os.Rename(replacement, original); err == nil {
		return nil
	}

	// Rename fails across volumes; fall back to copy, keeping a backup of
	// the original until the copy succeeded.
	backup := original + ".backup" + uuid.NewString()
	hadOriginal := p.FileExists(original)
	if hadOriginal {
		if err := os.Rename(original, backup); err != nil {
			return err
		}
	}
	if err := copyFileOnce(replacement, original); err != nil {
		if hadOriginal {
			_ = os.Rename(backup, original)
		}
		return err
	}
	if err := os.Remove(replacement); err != nil {
		return err
	}
	if hadOriginal {
		return os.Remove(backup)
	}
	return nil
}

func copyFileOnce(src, dst string) (err error) {
	if info, statErr := os.Stat(dst); statErr == nil && info.Mode().Perm()&0o200 == 0 {
		if err := os.Chmod(dst, info.Mode().Perm()|0o200); err != nil {
			return err
		}
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()|0o200)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

func matchAny(patterns []string, name string) bool {
	if len(patterns) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(strings.ToLower(pattern), lower); err == nil && ok {
			return true
		}
	}
	return false
}

func hasSeparator(pattern string) bool {
	return strings.ContainsAny(pattern, `/\`)
}

// nearestExisting walks up from path to the first directory that exists, so
// free space can be queried before the staging directory is created.
func nearestExisting(path string) string {
	for dir := filepath.Clean(path); ; {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
