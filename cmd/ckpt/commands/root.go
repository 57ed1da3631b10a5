// Package commands implements the CLI commands for the ckpt inspector.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/ckpt/internal/build"
	"go.trai.ch/ckpt/internal/core/domain"
)

// CLI represents the command line interface for ckpt.
type CLI struct {
	app     Application
	serve   ServeFunc
	rootCmd *cobra.Command
}

// Application represents the manager operations the commands invoke.
type Application interface {
	Load(ctx context.Context, path string, mode domain.Mode) (*domain.Result, error)
	Inspect(ctx context.Context, path string, keyPath []string) (domain.Tree, error)
	Release(ctx context.Context, path string) (bool, error)
	SwitchEnvironment(name string) error
	CurrentEnvironment() domain.Environment
	Environments() map[string]domain.Environment
	Clean(ctx context.Context) error
}

// ServeFunc runs the long-lived gateway until its context is canceled.
type ServeFunc func(ctx context.Context) error

// New creates a new CLI instance with the given app.
func New(a Application, serve ServeFunc) *CLI {
	rootCmd := &cobra.Command{
		Use:           "ckpt",
		Short:         "Inspect the structure of model checkpoint files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		serve:   serve,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newLoadCmd())
	rootCmd.AddCommand(c.newInspectCmd())
	rootCmd.AddCommand(c.newReleaseCmd())
	rootCmd.AddCommand(c.newEnvCmd())
	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
