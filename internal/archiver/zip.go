// SPDX-License-Identifier: MPL-2.0

package archiver

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/octopack/octopack/internal/fileops"
	"github.com/octopack/octopack/pkg/version"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrArtifactExists is returned when the zip already exists and overwriting
// was not requested.
var ErrArtifactExists = errors.New("artifact already exists")

// ZipRequest describes a directory to archive as <ID>.<Version>.zip.
type ZipRequest struct {
	ID             string
	Version        string
	SourceDir      string
	DestinationDir string
	// Include holds doublestar patterns; empty means every file.
	Include   []string
	Overwrite bool
}

// ArtifactName returns the file name of the zip for req.
func (r ZipRequest) ArtifactName() string {
	return r.ID + "." + r.Version + ".zip"
}

// Validate checks the required fields and the version format.
func (r ZipRequest) Validate() error {
	var missing []string
	for name, v := range map[string]string{
		"id":              r.ID,
		"version":         r.Version,
		"source-dir":      r.SourceDir,
		"destination-dir": r.DestinationDir,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("missing required values: %s", strings.Join(missing, ", "))
	}
	return version.Validate(r.Version)
}

// Zip archives req.SourceDir with entries relative to it and returns the
// absolute path of the created file. The archive is written to a temporary
// file first, so a failed run leaves an existing artifact untouched.
func Zip(ctx context.Context, req ZipRequest) (outPath string, err error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	srcDir, err := filepath.Abs(req.SourceDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve source directory: %w", err)
	}
	if info, statErr := os.Stat(srcDir); statErr != nil || !info.IsDir() {
		return "", fmt.Errorf("source directory %s does not exist", srcDir)
	}

	destDir, err := filepath.Abs(req.DestinationDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve destination directory: %w", err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	outPath = filepath.Join(destDir, req.ArtifactName())
	if _, statErr := os.Stat(outPath); statErr == nil && !req.Overwrite {
		return "", fmt.Errorf("%w: %s", ErrArtifactExists, outPath)
	}

	zipFile, err := os.CreateTemp(destDir, req.ArtifactName()+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create ZIP file: %w", err)
	}
	tmpPath := zipFile.Name()
	zipWriter := zip.NewWriter(zipFile)
	defer func() {
		closeErr := zipWriter.Close()
		if fileErr := zipFile.Close(); closeErr == nil {
			closeErr = fileErr
		}
		if err == nil && closeErr != nil {
			err = fmt.Errorf("failed to finish ZIP file: %w", closeErr)
		}
		if err == nil {
			if mvErr := fileops.NewPhysical().OverwriteAndDelete(outPath, tmpPath); mvErr != nil {
				err = fmt.Errorf("failed to move ZIP file into place: %w", mvErr)
			}
		}
		if err != nil {
			_ = os.Remove(tmpPath)
			outPath = ""
		}
	}()

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || path == outPath || path == tmpPath {
			return nil
		}

		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		zipPath := filepath.ToSlash(relPath)
		if !included(req.Include, zipPath) {
			return nil
		}

		return addFile(zipWriter, path, zipPath, d)
	})
	if err != nil {
		return "", fmt.Errorf("failed to zip %s: %w", srcDir, err)
	}
	return outPath, nil
}

func addFile(zw *zip.Writer, path, zipPath string, d fs.DirEntry) error {
	fileInfo, err := d.Info()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}
	header, err := zip.FileInfoHeader(fileInfo)
	if err != nil {
		return fmt.Errorf("failed to create file header: %w", err)
	}
	header.Name = zipPath
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create ZIP entry: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write file data: %w", err)
	}
	return nil
}

func included(patterns []string, zipPath string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(filepath.ToSlash(p), zipPath); ok {
			return true
		}
	}
	return false
}
