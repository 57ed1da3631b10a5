package config

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/ckpt/internal/adapters/logger"
	"go.trai.ch/ckpt/internal/core/domain"
	"go.trai.ch/ckpt/internal/core/ports"
)

// NodeID is the unique identifier for the config Graft node.
const NodeID graft.ID = "adapter.config"

func init() {
	graft.Register(graft.Node[*domain.Config]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*domain.Config, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			return NewLoader(log).Load(cwd)
		},
	})
}
