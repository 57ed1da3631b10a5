package transport

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ckpt/internal/adapters/config"
	"go.trai.ch/ckpt/internal/core/domain"
	"go.trai.ch/ckpt/internal/core/ports"
)

// NodeID is the unique identifier for the worker client Graft node.
const NodeID graft.ID = "adapter.worker_client"

func init() {
	graft.Register(graft.Node[ports.WorkerClient]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.WorkerClient, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return New(cfg.Worker.RequestTimeout), nil
		},
	})
}
