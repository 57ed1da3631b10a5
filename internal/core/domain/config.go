package domain

import (
	"time"

	"go.trai.ch/zerr"
)

// Default timing bounds. Startup and request timeouts are deliberately
// separate error surfaces: "slow to start" and "slow to respond" are
// presented differently to the caller.
const (
	DefaultStartupTimeout = 10 * time.Second
	DefaultRequestTimeout = 120 * time.Second
	DefaultIdleTimeout    = 5 * time.Minute
	DefaultMemoryEntries  = 128
)

// WorkerConfig describes how the analysis worker is launched.
type WorkerConfig struct {
	// Script is the path to the worker entry script, relative to the root.
	Script string
	// StartupTimeout bounds the wait for the startup handshake.
	StartupTimeout time.Duration
	// RequestTimeout bounds a single worker call.
	RequestTimeout time.Duration
}

// CacheConfig describes the result cache.
type CacheConfig struct {
	// Dir is the cache directory, relative to the root.
	Dir string
	// MemoryEntries sizes the in-memory LRU in front of the disk store.
	MemoryEntries int
}

// GatewayConfig describes the long-lived serve mode.
type GatewayConfig struct {
	// IdleTimeout shuts the gateway down after a period without requests.
	IdleTimeout time.Duration
}

// Config is the resolved project configuration.
type Config struct {
	// Root is the directory containing ckpt.yaml.
	Root string

	Worker       WorkerConfig
	Cache        CacheConfig
	Gateway      GatewayConfig
	Environments map[string]Environment

	// DefaultEnvironment names the environment used before any switch.
	DefaultEnvironment string
}

// Environment resolves a configured environment by name.
func (c *Config) Environment(name string) (Environment, error) {
	env, ok := c.Environments[name]
	if !ok {
		return Environment{}, zerr.With(ErrUnknownEnvironment, "name", name)
	}
	return env, nil
}

// Default returns the environment used before any switch.
func (c *Config) Default() (Environment, error) {
	return c.Environment(c.DefaultEnvironment)
}
