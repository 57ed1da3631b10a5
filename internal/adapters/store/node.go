package store

import (
	"context"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/ckpt/internal/adapters/config"
	"go.trai.ch/ckpt/internal/core/domain"
	"go.trai.ch/ckpt/internal/core/ports"
)

// NodeID is the unique identifier for the result store Graft node.
const NodeID graft.ID = "adapter.result_store"

func init() {
	graft.Register(graft.Node[ports.ResultStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.ResultStore, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			dir := cfg.Cache.Dir
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(cfg.Root, dir)
			}
			return New(dir, cfg.Cache.MemoryEntries)
		},
	})
}
