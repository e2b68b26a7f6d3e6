// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"

	"github.com/octopack/octopack/internal/assemble"
	"github.com/octopack/octopack/internal/classify"
	"github.com/octopack/octopack/internal/config"
	"github.com/octopack/octopack/internal/inputs"
	"github.com/octopack/octopack/internal/issue"
	"github.com/octopack/octopack/internal/logsink"
	"github.com/octopack/octopack/internal/watch"
	"github.com/octopack/octopack/pkg/types"

	"github.com/spf13/cobra"
)

// ErrPackFailed is returned when the packaging run reports failure. The
// details have already been logged.
var ErrPackFailed = errors.New("packaging failed")

// packOptions mirrors the pack flags. Flags left unset fall back to
// configuration.
type packOptions struct {
	projectDir        string
	projectName       string
	projectType       string
	outDir            string
	inputsFile        string
	nuspec            string
	packageVersion    string
	appendToVersion   string
	appendToPackageID string
	releaseNotes      string
	appConfig         string
	enforce           bool
	includeTS         bool
	ignoreNonRoot     bool
	stageFiles        bool
	fileShare         string
	teamCity          bool
	archiverPath      string
	properties        map[string]string
	extraArgs         []string
	requiredBytes     int64
	watch             bool
	watchPatterns     []string
}

func newPackCommand(app *App, gf *globalFlags) *cobra.Command {
	opts := &packOptions{}

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Assemble a NuGet package from the build's candidate files",
		Long: `Assemble a NuGet package from the build's candidate files.

The candidate content and binary lists are read from --inputs, a TOML or CUE
file. Settings not given as flags come from configuration (see 'octopack config').`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(cmd, app, gf, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.projectDir, "project-dir", ".", "project directory")
	f.StringVar(&opts.projectName, "project-name", "", "project name (default: inputs file value, then the project directory name)")
	f.StringVar(&opts.projectType, "project-type", "", "web, database or executable (default: inputs file value, then detected)")
	f.StringVar(&opts.outDir, "out-dir", "bin", "build output directory, relative to the project directory")
	f.StringVarP(&opts.inputsFile, "inputs", "i", "", "candidate files list (.toml or .cue)")
	f.StringVar(&opts.nuspec, "nuspec", "", "manifest file name (default: <package id>.nuspec)")
	f.StringVar(&opts.packageVersion, "package-version", "", "package version (SemVer 2 or 4-part)")
	f.StringVar(&opts.appendToVersion, "append-to-version", "", "suffix appended to the package version")
	f.StringVar(&opts.appendToPackageID, "append-to-package-id", "", "suffix appended to the package id")
	f.StringVar(&opts.releaseNotes, "release-notes", "", "file whose contents become the manifest release notes")
	f.StringVar(&opts.appConfig, "app-config", "", "app.config file packaged as <assembly>.config")
	f.BoolVar(&opts.enforce, "enforce-adding-files", false, "classify files even when the manifest already lists files")
	f.BoolVar(&opts.includeTS, "include-typescript-sources", false, "package .ts sources next to their compiled .js")
	f.BoolVar(&opts.ignoreNonRoot, "ignore-non-root-scripts", false, "silence warnings for deploy scripts outside the package root")
	f.BoolVar(&opts.stageFiles, "stage-files", false, "copy files into the staging directory and archive from there")
	f.StringVar(&opts.fileShare, "publish-to-file-share", "", "directory that receives a copy of each package")
	f.BoolVar(&opts.teamCity, "publish-to-teamcity", true, "announce packages to TeamCity when running under it")
	f.StringVar(&opts.archiverPath, "archiver", "", "NuGet executable (name or path)")
	f.StringToStringVar(&opts.properties, "archiver-property", nil, "NuGet -Properties entry key=value (repeatable)")
	f.StringArrayVar(&opts.extraArgs, "archiver-arg", nil, "extra argument appended to the NuGet command line (repeatable)")
	f.Int64Var(&opts.requiredBytes, "required-free-bytes", 0, "free bytes required on the staging volume (minimum 500 MiB)")
	f.BoolVar(&opts.watch, "watch", false, "keep running and repackage whenever project files change")
	f.StringArrayVar(&opts.watchPatterns, "watch-pattern", nil, "doublestar pattern selecting files that trigger a repackage (repeatable; default: all)")
	_ = cmd.MarkFlagRequired("inputs")

	return cmd
}

func runPack(cmd *cobra.Command, app *App, gf *globalFlags, opts *packOptions) error {
	ctx := cmd.Context()

	projectDir, err := filepath.Abs(opts.projectDir)
	if err != nil {
		return err
	}

	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: gf.cfgFile, ProjectDir: projectDir})
	if err != nil {
		return err
	}
	sink := logsink.NewLogger(app.stderr, gf.verbose || cfg.UI.Verbose)

	// The inputs file is read on every pass because the build rewrites it.
	packOnce := func(ctx context.Context) error {
		in, err := inputs.Load(opts.inputsFile)
		if err != nil {
			return issue.NewErrorContext().
				WithCode(issue.CodeInvalidArguments).
				WithOperation("read candidate files").
				WithResource(opts.inputsFile).
				WithSuggestion("Check that the inputs file exists and ends in .toml or .cue").
				WithSuggestion("Run 'octopack explain OCTARGS' for the expected layout").
				Wrap(err).
				BuildError()
		}
		pc, err := buildProjectContext(cmd, projectDir, opts, cfg, in)
		if err != nil {
			return err
		}
		runSink := sink.With("package", pc.PackageID())
		if !app.NewRunner(runSink, app.stdout).Run(ctx, pc, in.Candidates()) {
			return &ExitError{Code: 1, Err: ErrPackFailed}
		}
		return nil
	}

	if !opts.watch {
		return packOnce(ctx)
	}

	if err := packOnce(ctx); err != nil && !errors.Is(err, ErrPackFailed) {
		return err
	}
	w, err := watch.New(watch.Config{
		BaseDir:  types.FilesystemPath(projectDir),
		Patterns: opts.watchPatterns,
		Sink:     sink,
		OnChange: func(ctx context.Context, changed []string) error {
			sink.Info(fmt.Sprintf("%d file(s) changed, repackaging", len(changed)))
			return packOnce(ctx)
		},
	})
	if err != nil {
		return err
	}
	sink.Info("watching " + projectDir + " for changes (Ctrl+C to stop)")
	return w.Run(ctx)
}

// buildProjectContext layers flags over configuration over the inputs file.
func buildProjectContext(cmd *cobra.Command, projectDir string, opts *packOptions, cfg *config.Config, in *inputs.File) (assemble.ProjectContext, error) {
	changed := cmd.Flags().Changed

	name := opts.projectName
	if name == "" {
		name = in.ProjectName
	}
	if name == "" {
		name = filepath.Base(projectDir)
	}

	var pt classify.ProjectType
	if opts.projectType != "" {
		parsed, err := classify.ParseProjectType(opts.projectType)
		if err != nil {
			return assemble.ProjectContext{}, issue.NewErrorContext().
				WithCode(issue.CodeInvalidArguments).
				WithOperation("parse --project-type").
				Wrap(err).
				BuildError()
		}
		pt = parsed
	} else {
		pt = in.ResolveProjectType(name)
	}

	pc := assemble.ProjectContext{
		ProjectDir:               projectDir,
		OutDir:                   opts.outDir,
		ProjectName:              name,
		ProjectType:              pt,
		PackageVersion:           opts.packageVersion,
		AppendToVersion:          opts.appendToVersion,
		AppendToPackageID:        opts.appendToPackageID,
		NuSpecFileName:           opts.nuspec,
		ReleaseNotesFile:         opts.releaseNotes,
		AppConfigFile:            opts.appConfig,
		EnforceAddingFiles:       opts.enforce,
		IncludeTypeScriptSources: opts.includeTS,
		IgnoreNonRootScripts:     opts.ignoreNonRoot,
		StageFiles:               opts.stageFiles,
		Archiver: assemble.ArchiverSettings{
			Path:       cfg.Archiver.Path,
			Properties: maps.Clone(cfg.Archiver.Properties),
			ExtraArgs:  append([]string(nil), cfg.Archiver.ExtraArgs...),
		},
		Publish: assemble.PublishSettings{
			FileShare: cfg.Publish.FileShare,
			TeamCity:  cfg.Publish.TeamCity,
		},
		ContentExclusions: cfg.Exclude.Content,
		BinaryExclusions:  cfg.Exclude.Binaries,
		RequiredFreeBytes: cfg.Disk.RequiredBytes,
	}

	if changed("archiver") {
		pc.Archiver.Path = opts.archiverPath
	}
	if len(opts.properties) > 0 {
		if pc.Archiver.Properties == nil {
			pc.Archiver.Properties = make(map[string]string, len(opts.properties))
		}
		maps.Copy(pc.Archiver.Properties, opts.properties)
	}
	pc.Archiver.ExtraArgs = append(pc.Archiver.ExtraArgs, opts.extraArgs...)
	if changed("publish-to-file-share") {
		pc.Publish.FileShare = opts.fileShare
	}
	if changed("publish-to-teamcity") {
		pc.Publish.TeamCity = opts.teamCity
	}
	if changed("required-free-bytes") {
		pc.RequiredFreeBytes = opts.requiredBytes
	}

	return pc, nil
}
