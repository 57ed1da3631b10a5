package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release <file>",
		Short: "Free the worker's held state for a checkpoint file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			released, err := c.app.Release(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if released {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "released")
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "not held")
			}
			return nil
		},
	}
}
