// Package main is the entry point for the ckpt checkpoint inspector.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/ckpt/cmd/ckpt/commands"
	"go.trai.ch/ckpt/internal/adapters/gateway"
	"go.trai.ch/ckpt/internal/app"
	_ "go.trai.ch/ckpt/internal/wiring"
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, func() {}, err
	}))
}

func run(
	ctx context.Context,
	args []string,
	stderr io.Writer,
	provider ComponentProvider,
) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, _, err := provider(ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}

	serve := func(ctx context.Context) error {
		server := gateway.NewServer(
			components.Manager,
			components.Watcher,
			components.Logger,
			components.Config.Gateway.IdleTimeout,
			os.Stdout,
		)
		return server.Serve(ctx)
	}

	// 2. Interface - CLI
	cli := commands.New(components.Manager, serve)
	cli.SetArgs(args)
	cli.SetOutput(os.Stdout, stderr)

	// 3. Execution
	if err := cli.Execute(ctx); err != nil {
		components.Logger.Error(err)
		return 1
	}
	return 0
}
