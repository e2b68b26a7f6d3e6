// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/octopack/octopack/internal/config"
	"github.com/octopack/octopack/internal/issue"

	"github.com/spf13/cobra"
)

// UnknownCodeError is returned by explain for codes missing from the catalog.
type UnknownCodeError struct {
	Code string
}

func (e *UnknownCodeError) Error() string {
	var codes []string
	for _, c := range issue.Codes() {
		codes = append(codes, c.String())
	}
	return fmt.Sprintf("unknown code %q (known: %s)", e.Code, strings.Join(codes, ", "))
}

func newExplainCommand(app *App, gf *globalFlags) *cobra.Command {
	var style string
	var list bool

	cmd := &cobra.Command{
		Use:   "explain [code]",
		Short: "Explain a warning or error code",
		Long: `Explain a warning or error code such as OCT001 or OCTNOENT.

Codes are matched case-insensitively. Use --list to see every code.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list || len(args) == 0 {
				for _, i := range issue.Values() {
					fmt.Fprintf(app.stdout, "%s  %s\n", KeyStyle.Render(fmt.Sprintf("%-11s", i.Code())), SubtitleStyle.Render(i.Severity().String()))
				}
				return nil
			}

			entry := issue.Get(issue.Code(args[0]))
			if entry == nil {
				return &UnknownCodeError{Code: args[0]}
			}

			if style == "" {
				style = styleFor(cmd, app, gf.verbose)
			}
			out, err := entry.Render(style)
			if err != nil {
				return fmt.Errorf("render %s: %w", entry.Code(), err)
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&style, "style", "", `glamour style: "dark", "light", "notty" or a JSON style path (default: from ui.color_scheme)`)
	cmd.Flags().BoolVar(&list, "list", false, "list every code with its severity")

	return cmd
}

// styleFor maps ui.color_scheme to a glamour style. Configuration errors
// are reported as a warning and fall back to the automatic style.
func styleFor(cmd *cobra.Command, app *App, verbose bool) string {
	cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{})
	if err != nil {
		fmt.Fprintln(app.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		return "auto"
	}
	switch cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}
