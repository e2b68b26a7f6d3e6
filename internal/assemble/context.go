// SPDX-License-Identifier: MPL-2.0

package assemble

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/octopack/octopack/internal/classify"
	"github.com/octopack/octopack/pkg/types"
	"github.com/octopack/octopack/pkg/version"

	"github.com/go-playground/validator/v10"
)

const (
	stagingDirName = "octopacking"
	outputDirName  = "octopacked"
	manifestExt    = ".nuspec"
)

// ErrInvalidContext is wrapped by every ProjectContext validation failure.
var ErrInvalidContext = errors.New("invalid project context")

type (
	// ProjectContext is the per-run configuration. It is validated once at
	// the start of a run and never modified by the assembler.
	ProjectContext struct {
		ProjectDir  string               `validate:"required"`
		OutDir      string               `validate:"required"`
		ProjectName string               `validate:"required,excludesall=/\\"`
		ProjectType classify.ProjectType `validate:"required,oneof=web database executable"`

		PackageVersion    string `validate:"omitempty,pkgversion"`
		AppendToVersion   string `validate:"omitempty,excludesall= /\\"`
		AppendToPackageID string `validate:"omitempty,excludesall= /\\"`

		// NuSpecFileName overrides <package id>.nuspec; relative names are
		// looked up in ProjectDir.
		NuSpecFileName   string
		ReleaseNotesFile string
		AppConfigFile    string

		EnforceAddingFiles       bool
		IncludeTypeScriptSources bool
		IgnoreNonRootScripts     bool
		// StageFiles copies every resolved entry into the staging directory
		// and archives from there instead of the project directory.
		StageFiles bool

		Archiver ArchiverSettings
		Publish  PublishSettings

		// ContentExclusions and BinaryExclusions default to the classify
		// package defaults when nil.
		ContentExclusions []string
		BinaryExclusions  []string

		RequiredFreeBytes int64 `validate:"gte=0"`
	}

	// ArchiverSettings configure the archiver process.
	ArchiverSettings struct {
		Path       string
		Properties map[string]string
		ExtraArgs  []string
	}

	// PublishSettings configure where artifacts are announced or copied.
	PublishSettings struct {
		// FileShare receives a copy of every artifact when set.
		FileShare string
		// TeamCity emits publishArtifacts service messages when running
		// under TeamCity.
		TeamCity bool
	}

	// Candidates are the two file lists supplied by the host build.
	Candidates struct {
		Content  []classify.CandidateFile
		Binaries []classify.CandidateFile
	}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("pkgversion", func(fl validator.FieldLevel) bool {
		return version.Validate(fl.Field().String()) == nil
	})
	return v
}

// Validate checks required fields and value formats.
func (pc ProjectContext) Validate() error {
	if err := validate.Struct(pc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return fmt.Errorf("%w: %s", ErrInvalidContext, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidContext, err)
	}
	if v := pc.effectiveVersion(""); v != "" {
		if err := version.Validate(v); err != nil {
			return fmt.Errorf("%w: AppendToVersion produces %w", ErrInvalidContext, err)
		}
	}
	return nil
}

// BasePackageID is the project name without its project-file suffix. It
// names the author-supplied manifest.
func (pc ProjectContext) BasePackageID() types.PackageID {
	return types.PackageIDFromProjectName(pc.ProjectName, "")
}

// PackageID is the base id with AppendToPackageID applied.
func (pc ProjectContext) PackageID() types.PackageID {
	return types.PackageIDFromProjectName(pc.ProjectName, pc.AppendToPackageID)
}

// ManifestFileName is the file name of the manifest in the project directory.
func (pc ProjectContext) ManifestFileName() string {
	if name := strings.TrimSpace(pc.NuSpecFileName); name != "" {
		return name
	}
	return pc.BasePackageID().String() + manifestExt
}

// StagingDir is where the manifest (and staged files) are assembled.
func (pc ProjectContext) StagingDir() string {
	return filepath.Join(pc.ProjectDir, "obj", stagingDirName)
}

// PackageOutputDir is where the archiver writes its artifacts.
func (pc ProjectContext) PackageOutputDir() string {
	return filepath.Join(pc.ProjectDir, "obj", outputDirName)
}

// effectiveVersion applies the explicit version override and the
// AppendToVersion suffix to manifestVersion.
func (pc ProjectContext) effectiveVersion(manifestVersion string) string {
	v := strings.TrimSpace(pc.PackageVersion)
	if v == "" {
		v = strings.TrimSpace(manifestVersion)
	}
	if v == "" {
		return ""
	}
	return version.Append(v, pc.AppendToVersion)
}

// overridesVersion reports whether the archiver must be given -Version.
func (pc ProjectContext) overridesVersion() bool {
	return strings.TrimSpace(pc.PackageVersion) != "" || strings.TrimSpace(pc.AppendToVersion) != ""
}

func (pc ProjectContext) contentExclusions() []string {
	if pc.ContentExclusions == nil {
		return classify.DefaultContentExclusions
	}
	return pc.ContentExclusions
}

func (pc ProjectContext) binaryExclusions() []string {
	if pc.BinaryExclusions == nil {
		return classify.DefaultBinaryExclusions
	}
	return pc.BinaryExclusions
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s (got %q)", fe.Field(), fe.Param(), fe.Value())
	case "pkgversion":
		return fmt.Sprintf("%s %q is not a valid package version", fe.Field(), fe.Value())
	case "excludesall":
		return fmt.Sprintf("%s %q must not contain spaces or path separators", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
