package supervisor

import (
	"context"
	"os"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/ckpt/internal/adapters/config"
	"go.trai.ch/ckpt/internal/adapters/logger"
	"go.trai.ch/ckpt/internal/core/domain"
	"go.trai.ch/ckpt/internal/core/ports"
)

// NodeID is the unique identifier for the supervisor Graft node.
const NodeID graft.ID = "adapter.supervisor"

func init() {
	graft.Register(graft.Node[ports.Supervisor]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Supervisor, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			script := cfg.Worker.Script
			if !filepath.IsAbs(script) {
				script = filepath.Join(cfg.Root, script)
			}
			if _, statErr := os.Stat(script); statErr != nil {
				log.Warn("worker script not found at " + script)
			}
			logPath := filepath.Join(cfg.Root, domain.DefaultWorkerLogPath())
			return New(script, logPath, cfg.Worker.StartupTimeout, log), nil
		},
	})
}
