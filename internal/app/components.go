package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ckpt/internal/adapters/config"
	"go.trai.ch/ckpt/internal/adapters/logger"
	"go.trai.ch/ckpt/internal/adapters/store"
	"go.trai.ch/ckpt/internal/adapters/supervisor"
	"go.trai.ch/ckpt/internal/adapters/telemetry"
	"go.trai.ch/ckpt/internal/adapters/transport"
	"go.trai.ch/ckpt/internal/adapters/watcher"
	"go.trai.ch/ckpt/internal/core/domain"
	"go.trai.ch/ckpt/internal/core/ports"
)

// NodeID is the unique identifier for the components Graft node.
const NodeID graft.ID = "app.components"

// Components bundles the fully wired application for the CLI entry point.
type Components struct {
	Manager *Manager
	Logger  ports.Logger
	Config  *domain.Config
	Watcher ports.Watcher
}

func init() {
	graft.Register(graft.Node[*Components]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			store.NodeID,
			supervisor.NodeID,
			telemetry.NodeID,
			transport.NodeID,
			watcher.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			resultStore, err := graft.Dep[ports.ResultStore](ctx)
			if err != nil {
				return nil, err
			}
			sup, err := graft.Dep[ports.Supervisor](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			client, err := graft.Dep[ports.WorkerClient](ctx)
			if err != nil {
				return nil, err
			}
			fsWatcher, err := graft.Dep[ports.Watcher](ctx)
			if err != nil {
				return nil, err
			}

			manager, err := New(ctx, cfg, sup, client, resultStore, log, tracer)
			if err != nil {
				return nil, err
			}

			return &Components{
				Manager: manager,
				Logger:  log,
				Config:  cfg,
				Watcher: fsWatcher,
			}, nil
		},
	})
}
