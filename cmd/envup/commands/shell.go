package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Enter an activated shell in an already bootstrapped environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Shell(cmd.Context())
		},
	}
}
