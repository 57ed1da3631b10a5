// Package app implements the caller-facing manager for ckpt.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"go.trai.ch/ckpt/internal/core/domain"
	"go.trai.ch/ckpt/internal/core/ports"
	"go.trai.ch/ckpt/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// modes in cache-probe order for inspect, which does not carry a mode itself.
var probeModes = []domain.Mode{domain.ModeAuto, domain.ModeLocal}

// Manager is the single coordination point for one worker relationship. It
// consults the result cache before scheduling, funnels all worker calls
// through the scheduler's FIFO queue and owns environment switching. It is an
// explicitly constructed service object; tests build isolated instances.
type Manager struct {
	config     *domain.Config
	supervisor ports.Supervisor
	client     ports.WorkerClient
	store      ports.ResultStore
	logger     ports.Logger
	sched      *scheduler.Scheduler
}

// New creates a Manager scheduling against the configured default
// environment.
func New(
	ctx context.Context,
	cfg *domain.Config,
	supervisor ports.Supervisor,
	client ports.WorkerClient,
	store ports.ResultStore,
	logger ports.Logger,
	tracer ports.Tracer,
) (*Manager, error) {
	env, err := cfg.Default()
	if err != nil {
		return nil, err
	}

	return &Manager{
		config:     cfg,
		supervisor: supervisor,
		client:     client,
		store:      store,
		logger:     logger,
		sched:      scheduler.NewScheduler(ctx, supervisor, tracer, logger, env),
	}, nil
}

// Load analyzes the structure of the resource at path under the given mode.
// A fingerprint-matching cache entry answers without scheduling a task; any
// mismatch schedules a fresh analysis whose result overwrites the stale
// document.
func (m *Manager) Load(ctx context.Context, path string, mode domain.Mode) (*domain.Result, error) {
	fp, err := domain.FingerprintFile(path, mode)
	if err != nil {
		return nil, err
	}

	if entry, lookupErr := m.store.Lookup(fp); lookupErr == nil {
		return entry.Result(), nil
	} else if !errors.Is(lookupErr, domain.ErrCacheMiss) {
		m.logger.Warn("cache lookup failed, scheduling fresh analysis")
	}

	task := domain.Task{
		Kind:     domain.TaskLoad,
		Resource: domain.NewInternedString(path),
		Key:      domain.LoadKey(path, mode),
		Action: func(ctx context.Context, env domain.Environment) (*domain.Result, error) {
			port, actionErr := m.supervisor.EnsureRunning(ctx, env)
			if actionErr != nil {
				return nil, actionErr
			}

			result, actionErr := m.client.Load(ctx, port, path, mode)
			if actionErr != nil {
				return nil, actionErr
			}

			m.cacheResult(fp, result)
			return result, nil
		},
	}

	return m.sched.Submit(task).Await(ctx)
}

// Inspect computes statistics for the element addressed by keyPath inside the
// resource at path. Statistics already embedded in a fresh cache entry answer
// without a task; otherwise the worker computes them and the cached tree is
// enriched in place.
func (m *Manager) Inspect(ctx context.Context, path string, keyPath []string) (domain.Tree, error) {
	fps := m.freshFingerprints(path)

	for _, fp := range fps {
		entry, lookupErr := m.store.Lookup(fp)
		if lookupErr != nil {
			continue
		}
		if stats, ok := entry.Payload.StatsAt(keyPath); ok {
			return stats, nil
		}
	}

	encodedKey, err := json.Marshal(keyPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode key path")
	}

	task := domain.Task{
		Kind:     domain.TaskInspect,
		Resource: domain.NewInternedString(path),
		Key:      domain.InspectKey(path, string(encodedKey)),
		Action: func(ctx context.Context, env domain.Environment) (*domain.Result, error) {
			port, actionErr := m.supervisor.EnsureRunning(ctx, env)
			if actionErr != nil {
				return nil, actionErr
			}

			stats, actionErr := m.client.Inspect(ctx, port, path, string(encodedKey))
			if actionErr != nil {
				return nil, actionErr
			}

			for _, fp := range fps {
				if _, mergeErr := m.store.Merge(fp, keyPath, stats); mergeErr != nil &&
					!errors.Is(mergeErr, domain.ErrCacheMiss) {
					m.logger.Warn("failed to merge statistics into cache entry")
				}
			}

			return &domain.Result{Data: stats}, nil
		},
	}

	result, err := m.sched.Submit(task).Await(ctx)
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

// Release frees the worker's held state for the resource at path. It reports
// whether the worker actually held the resource. A release superseded by a
// later load before execution resolves without having run.
func (m *Manager) Release(ctx context.Context, path string) (bool, error) {
	task := domain.Task{
		Kind:     domain.TaskRelease,
		Resource: domain.NewInternedString(path),
		Key:      domain.ReleaseKey(path),
		Action: func(ctx context.Context, _ domain.Environment) (*domain.Result, error) {
			// Never spawn a worker just to tell it to forget something.
			_, port, live := m.supervisor.Current()
			if !live {
				return &domain.Result{}, nil
			}

			held, actionErr := m.client.Release(ctx, port, path)
			if actionErr != nil {
				return nil, actionErr
			}
			return &domain.Result{Data: domain.Tree{"released": held}}, nil
		},
	}

	result, err := m.sched.Submit(task).Await(ctx)
	if err != nil {
		return false, err
	}
	released, _ := result.Data["released"].(bool)
	return released, nil
}

// SwitchEnvironment selects the named configured environment for subsequent
// worker spawns. The restart itself happens at the scheduler's next idle
// boundary.
func (m *Manager) SwitchEnvironment(name string) error {
	env, err := m.config.Environment(name)
	if err != nil {
		return err
	}
	m.sched.RequestSwitch(env)
	return nil
}

// CurrentEnvironment returns the environment the next worker spawn targets.
func (m *Manager) CurrentEnvironment() domain.Environment {
	return m.sched.CurrentEnvironment()
}

// Environments returns the configured environments by name.
func (m *Manager) Environments() map[string]domain.Environment {
	return m.config.Environments
}

// Invalidate drops in-memory cache entries for the given resource paths and
// schedules releases so the worker forgets its stale copies.
func (m *Manager) Invalidate(ctx context.Context, paths []string) {
	m.store.Invalidate(paths)
	for _, path := range paths {
		if _, err := m.Release(ctx, path); err != nil {
			m.logger.Warn("failed to release changed resource " + path)
		}
	}
}

// Pending reports whether worker calls are queued or executing.
func (m *Manager) Pending() bool {
	return m.sched.Pending()
}

// Shutdown terminates the worker process, if one is running.
func (m *Manager) Shutdown() {
	m.supervisor.Terminate()
}

// Clean removes the result cache directory.
func (m *Manager) Clean(_ context.Context) error {
	dir := m.config.Cache.Dir
	m.logger.Info("removing result cache...")
	if err := os.RemoveAll(dir); err != nil {
		return zerr.Wrap(err, "failed to remove result cache")
	}
	m.logger.Info("removed result cache")
	return nil
}

// Config returns the resolved project configuration.
func (m *Manager) Config() *domain.Config {
	return m.config
}

// cacheResult persists a fresh load result. Cache write failures are logged,
// never surfaced to the caller.
func (m *Manager) cacheResult(fp domain.Fingerprint, result *domain.Result) {
	entry := &domain.CacheEntry{
		Version:     domain.CacheDocVersion,
		Fingerprint: fp,
		CreatedAt:   time.Now(),
		Source: domain.SourceInfo{
			Path:      fp.Path,
			ModTime:   time.Unix(0, fp.MTimeUnixNano),
			SizeBytes: fp.Size,
		},
		Global:  result.Global,
		Payload: result.Data,
	}
	if err := m.store.Put(entry); err != nil {
		m.logger.Warn("failed to persist analysis result")
	}
}

// freshFingerprints returns the fingerprints of path under every mode whose
// cache entry could be current. Inspect does not carry a mode, so both
// viewing modes are probed.
func (m *Manager) freshFingerprints(path string) []domain.Fingerprint {
	fps := make([]domain.Fingerprint, 0, len(probeModes))
	for _, mode := range probeModes {
		fp, err := domain.FingerprintFile(path, mode)
		if err != nil {
			continue
		}
		fps = append(fps, fp)
	}
	return fps
}
