package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file> <key>...",
		Short: "Compute statistics for one element inside a checkpoint",
		Long: "Compute statistics for the element addressed by the key path inside a " +
			"checkpoint file. List elements are addressed by their decimal index.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := c.app.Inspect(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}
}
