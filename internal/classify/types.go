// SPDX-License-Identifier: MPL-2.0

package classify

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/octopack/octopack/pkg/types"
)

const (
	KindContent Kind = iota
	KindBinary
)

const (
	TagNormal Tag = iota
	TagTypeScriptSource
	TagTypeScriptCompiled
	TagAppConfig
	TagDeployScript
)

const (
	ProjectTypeWeb        ProjectType = "web"
	ProjectTypeDatabase   ProjectType = "database"
	ProjectTypeExecutable ProjectType = "executable"
)

type (
	// Kind distinguishes content files from build output.
	Kind int

	// Tag records which rule produced a ResolvedEntry.
	Tag int

	// ProjectType decides which candidate lists are packaged and where
	// binaries land.
	ProjectType string

	// CandidateFile is one file reported by the build.
	CandidateFile struct {
		// ItemSpec is the file path, absolute or relative to the source base.
		ItemSpec string `json:"item" toml:"item"`
		// Link is the optional alias giving the file's logical location.
		Link string `json:"link,omitempty" toml:"link,omitempty"`
		Kind Kind   `json:"-" toml:"-"`
	}

	// ResolvedEntry is a file slated for the manifest.
	ResolvedEntry struct {
		// Source is the absolute path of the file on disk.
		Source types.FilesystemPath
		// Target is the forward-slash path inside the package. It is always
		// relative and never contains "..".
		Target string
		Tag    Tag
	}

	// SeenSet tracks the absolute sources already resolved in one run.
	SeenSet map[types.FilesystemPath]struct{}
)

// NewSeenSet returns an empty set. Use one per run.
func NewSeenSet() SeenSet {
	return make(SeenSet)
}

// Add records p and reports whether it was new.
func (s SeenSet) Add(p types.FilesystemPath) bool {
	p = types.FilesystemPath(filepath.Clean(string(p)))
	if _, ok := s[p]; ok {
		return false
	}
	s[p] = struct{}{}
	return true
}

// Contains reports whether p has been recorded.
func (s SeenSet) Contains(p types.FilesystemPath) bool {
	_, ok := s[types.FilesystemPath(filepath.Clean(string(p)))]
	return ok
}

func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindBinary:
		return "binary"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (t Tag) String() string {
	switch t {
	case TagNormal:
		return "normal"
	case TagTypeScriptSource:
		return "typescript-source"
	case TagTypeScriptCompiled:
		return "typescript-compiled"
	case TagAppConfig:
		return "app-config"
	case TagDeployScript:
		return "deploy-script"
	default:
		return fmt.Sprintf("Tag(%d)", int(t))
	}
}

// ParseProjectType accepts web, database or executable (case-insensitive).
func ParseProjectType(s string) (ProjectType, error) {
	switch pt := ProjectType(strings.ToLower(strings.TrimSpace(s))); pt {
	case ProjectTypeWeb, ProjectTypeDatabase, ProjectTypeExecutable:
		return pt, nil
	default:
		return "", fmt.Errorf("unknown project type %q (expected web, database or executable)", s)
	}
}

// PackagesContent reports whether content files are packaged.
func (pt ProjectType) PackagesContent() bool {
	return pt == ProjectTypeWeb
}

// BinaryPrefix is the package directory binaries are placed in.
func (pt ProjectType) BinaryPrefix() string {
	if pt == ProjectTypeWeb {
		return "bin"
	}
	return ""
}

// DetectProjectType infers the project type: a .sqlproj is a database
// project, a project whose content places web.config at the package root is
// a web application, anything else is an executable. A web.config linked
// into a subfolder does not make a web application.
func DetectProjectType(projectName string, content []CandidateFile) ProjectType {
	if strings.HasSuffix(strings.ToLower(projectName), ".sqlproj") {
		return ProjectTypeDatabase
	}
	for _, c := range content {
		dest := c.Link
		if strings.TrimSpace(dest) == "" {
			dest = c.ItemSpec
		}
		dest = strings.ReplaceAll(dest, `\`, "/")
		if strings.EqualFold(dest, "web.config") {
			return ProjectTypeWeb
		}
	}
	return ProjectTypeExecutable
}
