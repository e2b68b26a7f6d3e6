// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/octopack/octopack/internal/archiver"

	"github.com/spf13/cobra"
)

func newZipCommand(app *App, _ *globalFlags) *cobra.Command {
	var req archiver.ZipRequest

	cmd := &cobra.Command{
		Use:   "zip",
		Short: "Archive a directory as <id>.<version>.zip",
		Long: `Archive a directory as <id>.<version>.zip without invoking NuGet.

Entries are stored relative to --source-dir. Use --include to restrict the
archive to files matching doublestar patterns such as "**/*.dll".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.Zipper.Zip(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.ID, "id", "", "package id")
	f.StringVar(&req.Version, "version", "", "package version")
	f.StringVarP(&req.SourceDir, "source-dir", "s", "", "directory to archive")
	f.StringVarP(&req.DestinationDir, "destination-dir", "d", "", "directory receiving the archive")
	f.StringArrayVar(&req.Include, "include", nil, "doublestar pattern of files to include (repeatable; default: everything)")
	f.BoolVar(&req.Overwrite, "overwrite", false, "replace an existing archive")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("version")
	_ = cmd.MarkFlagRequired("source-dir")
	_ = cmd.MarkFlagRequired("destination-dir")

	return cmd
}
