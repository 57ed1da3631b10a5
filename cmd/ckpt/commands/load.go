package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/ckpt/internal/core/domain"
)

func (c *CLI) newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Analyze the structure of a checkpoint file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modeStr, _ := cmd.Flags().GetString("mode")
			mode, err := domain.ParseMode(modeStr)
			if err != nil {
				return err
			}

			result, err := c.app.Load(cmd.Context(), args[0], mode)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}
	cmd.Flags().StringP("mode", "m", string(domain.ModeAuto),
		"Viewing mode: auto (consult a sharded checkpoint's global index) or local (this file only)")
	return cmd
}
