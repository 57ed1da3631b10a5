package ports

import "go.trai.ch/ckpt/internal/core/domain"

// ConfigLoader loads the project configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load walks up from cwd to find ckpt.yaml and returns the resolved
	// configuration.
	Load(cwd string) (*domain.Config, error)
}
