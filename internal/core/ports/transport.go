package ports

import (
	"context"

	"go.trai.ch/ckpt/internal/core/domain"
)

// WorkerClient sends one request and receives one response over a loopback
// connection to the worker's port. Connection failures, request timeouts,
// non-2xx statuses, and worker-reported errors surface as the distinct
// sentinels in the domain package.
//
//go:generate mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks
type WorkerClient interface {
	// Load analyzes the full structure of filePath.
	Load(ctx context.Context, port int, filePath string, mode domain.Mode) (*domain.Result, error)

	// Inspect computes statistics for the element addressed by the
	// JSON-encoded key path inside filePath.
	Inspect(ctx context.Context, port int, filePath, encodedKey string) (domain.Tree, error)

	// Release frees the worker's held state for filePath. It reports whether
	// the worker actually held the resource.
	Release(ctx context.Context, port int, filePath string) (bool, error)
}
