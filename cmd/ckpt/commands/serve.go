package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as a long-lived loopback service for an editor shell",
		Long: "Serve binds an ephemeral loopback port, prints SERVER_STARTED:<port> on " +
			"stdout, and exposes load, inspect, release and environment switching over " +
			"HTTP until the inactivity timeout fires.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}
