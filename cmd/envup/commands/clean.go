package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/envup/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the environment directory and caches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			caches, _ := cmd.Flags().GetBool("caches")
			all, _ := cmd.Flags().GetBool("all")

			opts := app.CleanOptions{
				Venv:   false,
				Caches: false,
			}

			switch {
			case all:
				opts.Venv = true
				opts.Caches = true
			case caches:
				opts.Caches = true
			default:
				// Default behavior: remove the venv directory
				opts.Venv = true
			}

			return c.app.Clean(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolP("caches", "c", false, "Remove the tool resolution and environment caches")
	cmd.Flags().BoolP("all", "a", false, "Remove the venv and all caches")

	return cmd
}
