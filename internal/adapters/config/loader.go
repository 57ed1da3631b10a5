// Package config provides the configuration loader for ckpt.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.trai.ch/ckpt/internal/core/domain"
	"go.trai.ch/ckpt/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file discovered by
// walking up from the working directory, with optional .env overrides.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load implements ports.ConfigLoader.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	configPath, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}
	root := filepath.Dir(configPath)

	// A .env next to ckpt.yaml can override selected settings without
	// editing the shared file. Missing .env is not an error.
	_ = godotenv.Load(filepath.Join(root, ".env"))

	//nolint:gosec // G304: configPath comes from directory discovery, not request input
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", configPath)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", configPath)
	}

	return l.resolve(root, &file)
}

// findConfiguration walks up from cwd until it finds ckpt.yaml.
func (l *Loader) findConfiguration(cwd string) (string, error) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}
	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

//nolint:cyclop // defaulting is branchy but flat
func (l *Loader) resolve(root string, file *File) (*domain.Config, error) {
	cfg := &domain.Config{
		Root: root,
		Worker: domain.WorkerConfig{
			Script:         file.Worker.Script,
			StartupTimeout: domain.DefaultStartupTimeout,
			RequestTimeout: domain.DefaultRequestTimeout,
		},
		Cache: domain.CacheConfig{
			Dir:           file.Cache.Dir,
			MemoryEntries: file.Cache.MemoryEntries,
		},
		Gateway: domain.GatewayConfig{
			IdleTimeout: domain.DefaultIdleTimeout,
		},
		Environments:       make(map[string]domain.Environment, len(file.Environments)),
		DefaultEnvironment: file.DefaultEnvironment,
	}

	if d, err := parseDuration(file.Worker.StartupTimeout); err != nil {
		return nil, err
	} else if d > 0 {
		cfg.Worker.StartupTimeout = d
	}
	if d, err := parseDuration(file.Worker.RequestTimeout); err != nil {
		return nil, err
	} else if d > 0 {
		cfg.Worker.RequestTimeout = d
	}
	if d, err := parseDuration(file.Gateway.IdleTimeout); err != nil {
		return nil, err
	} else if d > 0 {
		cfg.Gateway.IdleTimeout = d
	}

	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = domain.DefaultCachePath()
	}

	for name, env := range file.Environments {
		cfg.Environments[name] = domain.Environment{
			Name:        name,
			Interpreter: env.Interpreter,
		}
	}
	if len(cfg.Environments) == 0 {
		cfg.Environments["default"] = domain.Environment{
			Name:        "default",
			Interpreter: "python3",
		}
	}
	if cfg.DefaultEnvironment == "" {
		cfg.DefaultEnvironment = "default"
	}

	applyOverrides(cfg)

	if _, ok := cfg.Environments[cfg.DefaultEnvironment]; !ok {
		return nil, zerr.With(
			zerr.With(domain.ErrUnknownEnvironment, "name", cfg.DefaultEnvironment),
			"context", "default_environment",
		)
	}
	return cfg, nil
}

// applyOverrides layers CKPT_* environment variables over the file values.
func applyOverrides(cfg *domain.Config) {
	if v := os.Getenv("CKPT_WORKER_SCRIPT"); v != "" {
		cfg.Worker.Script = v
	}
	if v := os.Getenv("CKPT_DEFAULT_ENVIRONMENT"); v != "" {
		cfg.DefaultEnvironment = v
	}
	if v := os.Getenv("CKPT_INTERPRETER"); v != "" {
		name := cfg.DefaultEnvironment
		cfg.Environments[name] = domain.Environment{Name: name, Interpreter: v}
	}
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "duration", s)
	}
	return d, nil
}
