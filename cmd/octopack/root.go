// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/octopack/octopack/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// DefaultEnvFile is loaded before configuration when no --env-file is given
// and it exists in the working directory.
const DefaultEnvFile = ".env"

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// globalFlags holds the persistent root flags shared by every subcommand.
type globalFlags struct {
	verbose  bool
	cfgFile  string
	envFiles []string
}

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "octopack",
		Short: "Package .NET build output as NuGet packages for deployment",
		Long: TitleStyle.Render("octopack") + SubtitleStyle.Render(" - package build output for deployment") + `

octopack turns the files a build reports into a NuGet package: it seeds or
generates a .nuspec manifest, classifies content and binaries into their
package locations, and invokes NuGet to produce the .nupkg.

` + SubtitleStyle.Render("Examples:") + `
  octopack pack --project-dir src/Sample.WebApp --inputs obj/octopack.toml
  octopack zip --id Sample --version 1.0.0 -s out -d artifacts
  octopack explain OCT001
  octopack config show`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFiles(flags.envFiles)
		},
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.cfgFile, "config", "", "config file (default: <project>/octopack.cue, then the user config dir)")
	rootCmd.PersistentFlags().StringArrayVar(&flags.envFiles, "env-file", nil, "dotenv file loaded before configuration (repeatable; default: ./.env when present)")

	rootCmd.AddCommand(newPackCommand(app, flags))
	rootCmd.AddCommand(newZipCommand(app, flags))
	rootCmd.AddCommand(newExplainCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the resulting status.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// loadEnvFiles loads dotenv files into the process environment. Variables
// already set are never overwritten, so the real environment wins.
func loadEnvFiles(paths []string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}
		paths = []string{DefaultEnvFile}
	}
	if err := godotenv.Load(paths...); err != nil {
		return issue.NewErrorContext().
			WithCode(issue.CodeInvalidArguments).
			WithOperation("load environment file").
			WithSuggestion("Check that every --env-file path exists and uses KEY=VALUE lines").
			Wrap(err).
			BuildError()
	}
	return nil
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
