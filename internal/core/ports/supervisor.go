package ports

import (
	"context"

	"go.trai.ch/ckpt/internal/core/domain"
)

// Supervisor owns the lifecycle of at most one worker process.
//
//go:generate mockgen -source=supervisor.go -destination=mocks/mock_supervisor.go -package=mocks
type Supervisor interface {
	// EnsureRunning returns the port of a live worker for env, spawning one
	// lazily if needed. A start already in progress is joined, not doubled.
	// The wait for the startup handshake is bounded; exceeding it fails with
	// domain.ErrStartupTimeout, and a process-level failure before the
	// handshake fails with domain.ErrWorkerStartup carrying the captured
	// stderr text.
	EnsureRunning(ctx context.Context, env domain.Environment) (int, error)

	// Terminate kills the current worker (if any) and clears cached state.
	// It is idempotent.
	Terminate()

	// Current returns the environment and port of the live worker, if one is
	// running.
	Current() (domain.Environment, int, bool)
}
