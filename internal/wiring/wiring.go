// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/ckpt/internal/adapters/config"
	_ "go.trai.ch/ckpt/internal/adapters/logger"
	_ "go.trai.ch/ckpt/internal/adapters/store"
	_ "go.trai.ch/ckpt/internal/adapters/supervisor"
	_ "go.trai.ch/ckpt/internal/adapters/telemetry"
	_ "go.trai.ch/ckpt/internal/adapters/transport"
	_ "go.trai.ch/ckpt/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/ckpt/internal/app"
)
