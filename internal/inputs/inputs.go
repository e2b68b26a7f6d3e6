// SPDX-License-Identifier: MPL-2.0

package inputs

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/octopack/octopack/internal/assemble"
	"github.com/octopack/octopack/internal/classify"
	"github.com/octopack/octopack/pkg/cueutil"

	"github.com/pelletier/go-toml/v2"
)

//go:embed inputs_schema.cue
var inputsSchema []byte

var (
	// ErrUnsupportedFormat is returned for files that are neither .toml nor .cue.
	ErrUnsupportedFormat = errors.New("unsupported inputs file format")
	// ErrEmptyItem is returned when a candidate has no item path.
	ErrEmptyItem = errors.New("candidate item must not be empty")
)

type (
	// File is the parsed contents of an inputs file.
	File struct {
		// ProjectName optionally supplies the project name when the CLI
		// flag is absent.
		ProjectName string `json:"project_name,omitempty" toml:"project_name,omitempty"`
		// ProjectType optionally overrides project type detection.
		ProjectType string                   `json:"project_type,omitempty" toml:"project_type,omitempty"`
		Content     []classify.CandidateFile `json:"content,omitempty" toml:"content,omitempty"`
		Binaries    []classify.CandidateFile `json:"binaries,omitempty" toml:"binaries,omitempty"`
	}

	// ItemError reports an invalid entry by list and index.
	ItemError struct {
		List  string
		Index int
		Err   error
	}
)

// Error implements the error interface.
func (e *ItemError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.List, e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *ItemError) Unwrap() error { return e.Err }

// Load reads path, choosing the decoder by extension.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inputs file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return ParseTOML(data)
	case ".cue":
		return ParseCUE(data, path)
	default:
		return nil, fmt.Errorf("%w: %s (use .toml or .cue)", ErrUnsupportedFormat, path)
	}
}

// ParseTOML decodes TOML data. Unknown keys are rejected.
func ParseTOML(data []byte) (*File, error) {
	var f File
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("inputs TOML line %d, column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("decode inputs TOML: %w", err)
	}
	return f.normalize()
}

// ParseCUE validates data against #Inputs and decodes it. filename is used
// in error messages.
func ParseCUE(data []byte, filename string) (*File, error) {
	res, err := cueutil.ParseAndDecode[File](inputsSchema, data, "#Inputs", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	return res.Value.normalize()
}

func (f *File) normalize() (*File, error) {
	var errs []error
	mark := func(list string, files []classify.CandidateFile, kind classify.Kind) {
		for i := range files {
			files[i].Kind = kind
			if strings.TrimSpace(files[i].ItemSpec) == "" {
				errs = append(errs, &ItemError{List: list, Index: i, Err: ErrEmptyItem})
			}
		}
	}
	mark("content", f.Content, classify.KindContent)
	mark("binaries", f.Binaries, classify.KindBinary)

	if f.ProjectType != "" {
		if _, err := classify.ParseProjectType(f.ProjectType); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return f, nil
}

// Candidates returns the lists in the shape the assembler consumes.
func (f *File) Candidates() assemble.Candidates {
	return assemble.Candidates{Content: f.Content, Binaries: f.Binaries}
}

// ResolveProjectType returns the declared type, or detects one from
// projectName and the content list.
func (f *File) ResolveProjectType(projectName string) classify.ProjectType {
	if f.ProjectType != "" {
		if pt, err := classify.ParseProjectType(f.ProjectType); err == nil {
			return pt
		}
	}
	return classify.DetectProjectType(projectName, f.Content)
}
