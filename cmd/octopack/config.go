// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/octopack/octopack/internal/config"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// newConfigCommand creates the `octopack config` command tree.
func newConfigCommand(app *App, gf *globalFlags) *cobra.Command {
	var projectDir string

	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage octopack configuration",
		Long: `Manage octopack configuration.

Configuration is read from the first file found:
  1. --config <file>
  2. <project>/octopack.cue
  3. the user config file:
     - Linux: ~/.config/octopack/config.cue
     - macOS: ~/Library/Application Support/octopack/config.cue
     - Windows: %APPDATA%\octopack\config.cue
     - $OCTOPACK_CONFIG_DIR/config.cue when set

OCTOPACK_* environment variables override file values, e.g.
OCTOPACK_ARCHIVER_PATH or OCTOPACK_PUBLISH_TEAMCITY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cfgCmd.PersistentFlags().StringVar(&projectDir, "project-dir", ".", "project directory searched for octopack.cue")

	load := func(cmd *cobra.Command) (*config.Config, error) {
		dir, err := filepath.Abs(projectDir)
		if err != nil {
			return nil, err
		}
		return app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: gf.cfgFile, ProjectDir: dir})
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			showConfig(app.stdout, cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	var initProject bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with every default",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			if initProject {
				dir, err := filepath.Abs(projectDir)
				if err != nil {
					return err
				}
				path = filepath.Join(dir, config.ProjectFileName)
			}
			written, err := config.CreateDefaultConfig(path)
			if err != nil {
				return err
			}
			if !written {
				fmt.Fprintf(app.stdout, "%s %s already exists\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&initProject, "project", false, "write <project>/octopack.cue instead of the user config file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the user configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config) {
	value := SuccessStyle.Render
	key := KeyStyle.Render

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if cfg.Source != "" {
		fmt.Fprintf(w, "%s: %s\n", key("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", key("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	fmt.Fprintf(w, "\n%s:\n", key("archiver"))
	fmt.Fprintf(w, "  path: %s\n", value(cfg.Archiver.Path))
	fmt.Fprintf(w, "  extra_args: %s\n", value(listOrNone(cfg.Archiver.ExtraArgs)))
	props := make([]string, 0, len(cfg.Archiver.Properties))
	for k, v := range cfg.Archiver.Properties {
		props = append(props, k+"="+v)
	}
	slices.Sort(props)
	fmt.Fprintf(w, "  properties: %s\n", value(listOrNone(props)))

	fmt.Fprintf(w, "\n%s:\n", key("publish"))
	fmt.Fprintf(w, "  teamcity: %s\n", value(fmt.Sprint(cfg.Publish.TeamCity)))
	share := cfg.Publish.FileShare
	if share == "" {
		share = "(none)"
	}
	fmt.Fprintf(w, "  file_share: %s\n", value(share))

	fmt.Fprintf(w, "\n%s:\n", key("exclude"))
	fmt.Fprintf(w, "  content: %s\n", value(listOrNone(cfg.Exclude.Content)))
	fmt.Fprintf(w, "  binaries: %s\n", value(listOrNone(cfg.Exclude.Binaries)))

	fmt.Fprintf(w, "\n%s:\n", key("disk"))
	fmt.Fprintf(w, "  required_bytes: %s\n", value(fmt.Sprintf("%d (%s)", cfg.Disk.RequiredBytes, humanize.IBytes(uint64(max(cfg.Disk.RequiredBytes, 0))))))

	fmt.Fprintf(w, "\n%s:\n", key("ui"))
	fmt.Fprintf(w, "  verbose: %s\n", value(fmt.Sprint(cfg.UI.Verbose)))
	fmt.Fprintf(w, "  color_scheme: %s\n", value(cfg.UI.ColorScheme.String()))
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
