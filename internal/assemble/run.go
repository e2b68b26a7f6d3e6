// SPDX-License-Identifier: MPL-2.0

package assemble

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/octopack/octopack/internal/archiver"
	"github.com/octopack/octopack/internal/classify"
	"github.com/octopack/octopack/internal/fileops"
	"github.com/octopack/octopack/internal/issue"
	"github.com/octopack/octopack/pkg/manifest"
	"github.com/octopack/octopack/pkg/types"
	"github.com/octopack/octopack/pkg/version"
)

// artifactPattern matches the archives the NuGet archiver produces.
const artifactPattern = "*.nupkg"

// run holds the state of one Assemble call.
type run struct {
	*Assembler
	pc    ProjectContext
	cands Candidates
	res   *Result

	projectDir string
	outDir     string
	staging    string
	output     string
	basePath   string
	appConfig  string
	ar         archiver.Archiver

	doc          *manifest.Document
	manifestPath string
}

// prepare validates the context and resolves directories.
func (r *run) prepare() error {
	if err := r.pc.Validate(); err != nil {
		return issue.NewErrorContext().
			WithOperation("validate the packaging arguments").
			WithCode(issue.CodeInvalidArguments).
			WithSuggestion("Run 'octopack pack --help' to see the accepted values").
			Wrap(err).
			BuildError()
	}

	projectDir, err := r.fs.GetFullPath(r.pc.ProjectDir)
	if err != nil {
		return fmt.Errorf("failed to resolve project directory: %w", err)
	}
	outDir := r.pc.OutDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(projectDir, outDir)
	}
	if outDir, err = r.fs.GetFullPath(outDir); err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}

	resolved := r.pc
	resolved.ProjectDir = projectDir
	r.projectDir = projectDir
	r.outDir = outDir
	r.staging = resolved.StagingDir()
	r.output = resolved.PackageOutputDir()

	r.basePath = projectDir
	if r.pc.StageFiles {
		r.basePath = r.staging
	}
	r.res.BasePath = r.basePath

	if cfg := strings.TrimSpace(r.pc.AppConfigFile); cfg != "" {
		if !filepath.IsAbs(cfg) {
			cfg = filepath.Join(projectDir, cfg)
		}
		r.appConfig = cfg
	}

	r.ar = r.archiver
	if r.ar == nil {
		r.ar = archiver.NewNuGet(r.pc.Archiver.Path, archiver.WithSink(r.sink))
	}
	return nil
}

func (r *run) logDiagnostics() {
	lines := []string{
		"---Arguments---",
		"Run: " + r.res.RunID,
		fmt.Sprintf("Content files: %d", len(r.cands.Content)),
		fmt.Sprintf("Binary files: %d", len(r.cands.Binaries)),
		"ProjectDirectory: " + r.projectDir,
		"OutDir: " + r.outDir,
		"PackageVersion: " + r.pc.PackageVersion,
		"ProjectName: " + r.pc.ProjectName,
		"ProjectType: " + string(r.pc.ProjectType),
		"NuSpecFileName: " + r.pc.NuSpecFileName,
		"AppendToPackageId: " + r.pc.AppendToPackageID,
		"AppendToVersion: " + r.pc.AppendToVersion,
		"ReleaseNotesFile: " + r.pc.ReleaseNotesFile,
		"AppConfigFile: " + r.pc.AppConfigFile,
		fmt.Sprintf("EnforceAddingFiles: %t", r.pc.EnforceAddingFiles),
		fmt.Sprintf("IncludeTypeScriptSourceFiles: %t", r.pc.IncludeTypeScriptSources),
		fmt.Sprintf("IgnoreNonRootScripts: %t", r.pc.IgnoreNonRootScripts),
		fmt.Sprintf("StageFiles: %t", r.pc.StageFiles),
		"PublishPackageToFileShare: " + r.pc.Publish.FileShare,
		fmt.Sprintf("PublishPackagesToTeamCity: %t", r.pc.Publish.TeamCity),
		"---------------",
	}
	for _, l := range lines {
		r.sink.Detail(l)
	}
}

func (r *run) createStageDirectories(context.Context) error {
	if err := r.fs.EnsureDiskHasEnoughFreeSpace(r.staging, r.pc.RequiredFreeBytes); err != nil {
		return issue.NewErrorContext().
			WithOperation("check free disk space").
			WithResource(r.staging).
			WithCode(issue.CodeDiskSpace).
			WithSuggestion("Free up space on the build volume or lower disk.required_bytes").
			Wrap(err).
			BuildError()
	}

	for _, dir := range []string{r.staging, r.output} {
		r.sink.Info("Create directory: " + dir)
		if err := r.fs.PurgeDirectory(dir, nil, fileops.TryThreeTimes); err != nil {
			return issue.WrapWithContext(err, "purge staging directory", dir)
		}
		if err := r.fs.EnsureDirectoryExists(dir); err != nil {
			return issue.WrapWithContext(err, "create staging directory", dir)
		}
	}
	return nil
}

func (r *run) seedManifest(context.Context) error {
	fileName := r.pc.ManifestFileName()
	authorPath := fileName
	if !filepath.IsAbs(authorPath) {
		authorPath = filepath.Join(r.projectDir, fileName)
	}
	r.manifestPath = filepath.Join(r.staging, filepath.Base(fileName))
	r.res.ManifestPath = r.manifestPath

	if r.fs.FileExists(authorPath) {
		r.sink.Info("Using NuSpec file: " + authorPath)
		if err := r.fs.CopyFile(authorPath, r.manifestPath, 0); err != nil {
			return err
		}
		doc, err := manifest.Open(r.manifestPath)
		if err != nil {
			return manifestError(authorPath, err)
		}
		r.doc = doc
	} else {
		r.sink.Warn(issue.CodeNoManifest, fmt.Sprintf(
			"A NuSpec file named '%s' was not found in the project root, so the file will be generated automatically. "+
				"However, you should consider creating your own NuSpec file so that you can customize the description properly.",
			filepath.Base(fileName)))
		r.doc = manifest.CreateDefault(manifest.DefaultOptions{
			ID:      r.pc.BasePackageID().String(),
			Version: r.pc.PackageVersion,
			Now:     r.now(),
		})
	}

	if err := r.doc.Validate(); err != nil {
		return manifestError(authorPath, err)
	}
	if err := r.doc.RewritePackageID(r.pc.AppendToPackageID); err != nil {
		return manifestError(authorPath, err)
	}
	return r.applyReleaseNotes()
}

func (r *run) applyReleaseNotes() error {
	notes := strings.TrimSpace(r.pc.ReleaseNotesFile)
	if notes == "" {
		return nil
	}
	if !filepath.IsAbs(notes) {
		notes = filepath.Join(r.projectDir, notes)
	}
	if !r.fs.FileExists(notes) {
		r.sink.Warn(issue.CodeNoReleaseNotes, fmt.Sprintf(
			"The release notes file '%s' does not exist, so no release notes will be included in the package.", notes))
		return nil
	}

	text, err := r.fs.ReadFile(notes)
	if err != nil {
		return fmt.Errorf("failed to read release notes: %w", err)
	}
	r.sink.Detail("Adding release notes from " + notes)
	return r.doc.SetReleaseNotes(text)
}

func (r *run) classifyAndMerge(context.Context) error {
	if r.doc.HasFilesAlready() && !r.pc.EnforceAddingFiles {
		r.res.ClassificationSkip = true
		r.sink.Notice(issue.CodeFilesAlready, "The NuSpec file already lists files in a <files> element, so files will not be added automatically. "+
			"Set EnforceAddingFiles to add them anyway.")
		// The author's src attributes are relative to the project.
		r.basePath = r.projectDir
		r.res.BasePath = r.basePath
		return nil
	}

	c := classify.New(r.fs, r.sink)
	seen := classify.NewSeenSet()
	pt := r.pc.ProjectType

	var entries []classify.ResolvedEntry
	switch pt {
	case classify.ProjectTypeWeb:
		r.sink.Info("Packaging an ASP.NET web application")
		r.sink.Info("Add content files")
		entries = append(entries, c.Classify(r.contentContext(), r.cands.Content, seen)...)
		r.sink.Info("Add binary files to the bin folder")
	case classify.ProjectTypeDatabase:
		r.sink.Info("Packaging a database project")
		r.sink.Info("Add binary files")
	default:
		r.sink.Info("Packaging a console or Window Service application")
		r.sink.Info("Add binary files")
	}
	entries = append(entries, c.Classify(r.binaryContext(pt), r.cands.Binaries, seen)...)

	for _, e := range entries {
		src := e.Source.String()
		if r.pc.StageFiles {
			staged := filepath.Join(r.staging, filepath.FromSlash(e.Target))
			r.sink.Detail("Copy file: " + src)
			if err := r.fs.CopyFile(src, staged, 0); err != nil {
				return err
			}
			src = staged
		}
		if err := r.doc.AppendFile(manifestSource(r.basePath, src), e.Target); err != nil {
			return manifestError(r.manifestPath, err)
		}
	}
	r.res.Entries = entries
	return nil
}

func (r *run) contentContext() classify.ClassifyContext {
	return classify.ClassifyContext{
		SourceBase:               types.FilesystemPath(r.projectDir),
		AppConfigOverride:        types.FilesystemPath(r.appConfig),
		Exclude:                  r.pc.contentExclusions(),
		IncludeTypeScriptSources: r.pc.IncludeTypeScriptSources,
		IgnoreNonRootScripts:     r.pc.IgnoreNonRootScripts,
	}
}

// binaryContext resolves binaries against the project directory and strips
// the output directory from their targets. When the output directory lives
// outside the project, binaries resolve against the output directory itself.
func (r *run) binaryContext(pt classify.ProjectType) classify.ClassifyContext {
	ctx := classify.ClassifyContext{
		SourceBase:               types.FilesystemPath(r.projectDir),
		TargetPrefix:             pt.BinaryPrefix(),
		AppConfigOverride:        types.FilesystemPath(r.appConfig),
		Exclude:                  r.pc.binaryExclusions(),
		IncludeTypeScriptSources: r.pc.IncludeTypeScriptSources,
		IgnoreNonRootScripts:     r.pc.IgnoreNonRootScripts,
	}
	rel, err := filepath.Rel(r.projectDir, r.outDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		ctx.SourceBase = types.FilesystemPath(r.outDir)
		return ctx
	}
	if rel != "." {
		ctx.RelativeTo = rel
	}
	return ctx
}

func (r *run) saveManifest(context.Context) error {
	if r.pc.overridesVersion() {
		v := r.pc.effectiveVersion(r.doc.Version())
		if v == "" {
			return issue.NewErrorContext().
				WithOperation("apply AppendToVersion").
				WithCode(issue.CodeInvalidArguments).
				WithSuggestion("Set a <version> in the NuSpec file or pass --package-version").
				Wrap(version.ErrInvalidVersion).
				BuildError()
		}
		if err := version.Validate(v); err != nil {
			return issue.NewErrorContext().
				WithOperation("apply the package version").
				WithCode(issue.CodeInvalidArguments).
				Wrap(err).
				BuildError()
		}
		if err := r.doc.SetVersion(v); err != nil {
			return manifestError(r.manifestPath, err)
		}
	}

	r.res.PackageID = r.doc.ID()
	r.res.Version = r.doc.Version()
	r.sink.Info("Package name: " + r.res.PackageID)

	if err := r.doc.Save(r.manifestPath); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	r.sink.Detail("Saved NuSpec file: " + r.manifestPath)
	return nil
}

func (r *run) invokeArchiver(ctx context.Context) error {
	req := archiver.Request{
		ManifestPath: r.manifestPath,
		BasePath:     r.basePath,
		OutputDir:    r.output,
		WorkDir:      r.staging,
		Properties:   r.pc.Archiver.Properties,
		ExtraArgs:    r.pc.Archiver.ExtraArgs,
	}
	if r.pc.overridesVersion() {
		req.Version = r.res.Version
	}

	if err := r.ar.Pack(ctx, req); err != nil {
		var exitErr *archiver.ExitError
		if errors.As(err, &exitErr) {
			return issue.NewErrorContext().
				WithOperation("create the package").
				WithResource(r.manifestPath).
				WithCode(issue.CodeArchiver).
				WithSuggestion("Review the archiver output above for the reason it failed").
				Wrap(err).
				BuildError()
		}
		return err
	}
	return nil
}

func (r *run) collectArtifacts(context.Context) error {
	files, err := r.fs.EnumerateFiles(r.output, artifactPattern)
	if err != nil {
		return fmt.Errorf("failed to list produced packages: %w", err)
	}
	if len(files) == 0 {
		r.sink.Warn(issue.CodeArchiver, "The archiver reported success but no package was found in "+r.output)
		return nil
	}

	teamCity := r.pc.Publish.TeamCity && strings.TrimSpace(r.getenv(teamCityEnvVar)) != ""
	for _, file := range files {
		r.sink.Info("Packaged file: " + file)

		dest := filepath.Join(r.outDir, filepath.Base(file))
		if err := r.fs.CopyFile(file, dest, 0); err != nil {
			return err
		}
		r.res.Artifacts = append(r.res.Artifacts, dest)

		if share := strings.TrimSpace(r.pc.Publish.FileShare); share != "" {
			shared := filepath.Join(share, filepath.Base(file))
			r.sink.Info("Copy file: " + file + " to " + shared)
			if err := r.fs.CopyFile(file, shared, 0); err != nil {
				return err
			}
		}

		if teamCity {
			fmt.Fprintf(r.ciOut, "##teamcity[publishArtifacts '%s']\n", teamCityEscape(file))
		}
	}

	r.sink.Info("Packages have been copied to: " + r.outDir)
	return nil
}

// manifestSource returns src relative to basePath in forward-slash form, or
// src itself when it lies outside basePath.
func manifestSource(basePath, src string) string {
	rel, err := filepath.Rel(basePath, src)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return src
	}
	return filepath.ToSlash(rel)
}

func manifestError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load the NuSpec file").
		WithResource(path).
		WithCode(issue.CodeManifest).
		WithSuggestion("The manifest needs a <package> root with exactly one <metadata> element").
		Wrap(err).
		BuildError()
}

// teamCityEscape escapes the characters TeamCity service messages reserve.
func teamCityEscape(s string) string {
	return strings.NewReplacer(
		"|", "||",
		"'", "|'",
		"\n", "|n",
		"\r", "|r",
		"[", "|[",
		"]", "|]",
	).Replace(s)
}
