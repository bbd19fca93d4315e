package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/envup/internal/app"
)

func (c *CLI) newUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Bootstrap the environment and enter an activated shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noShell, _ := cmd.Flags().GetBool("no-shell")
			ifChanged, _ := cmd.Flags().GetBool("if-changed")
			watch, _ := cmd.Flags().GetBool("watch")
			outputMode, _ := cmd.Flags().GetString("output-mode")
			ci, _ := cmd.Flags().GetBool("ci")

			// CI runs get linear output and never an interactive shell
			if ci {
				outputMode = "linear"
				noShell = true
			}

			return c.app.Up(cmd.Context(), app.UpOptions{
				NoShell:    noShell,
				IfChanged:  ifChanged,
				Watch:      watch,
				OutputMode: outputMode,
			})
		},
	}
	cmd.Flags().BoolP("no-shell", "n", false, "Bootstrap only, do not enter an interactive shell")
	cmd.Flags().Bool("if-changed", false, "Skip recreation when the environment already matches the spec")
	cmd.Flags().BoolP("watch", "w", false, "Re-run the bootstrap when the spec or manifest changes (implies --no-shell)")
	cmd.Flags().StringP("output-mode", "o", "auto", "Output mode: auto, tui, or linear")
	cmd.Flags().Bool("ci", false, "Use linear output mode (shorthand for --output-mode=linear)")
	return cmd
}
