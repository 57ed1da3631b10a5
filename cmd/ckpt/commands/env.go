package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func (c *CLI) newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env [name]",
		Short: "List configured environments or select one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := c.app.SwitchEnvironment(args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "switched to "+args[0])
				return nil
			}

			current := c.app.CurrentEnvironment()
			envs := c.app.Environments()

			names := make([]string, 0, len(envs))
			for name := range envs {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				marker := " "
				if name == current.Name {
					marker = "*"
				}
				_, _ = fmt.Fprintf(out, "%s %s\t%s\n", marker, name, envs[name].Interpreter)
			}
			return nil
		},
	}
}
