package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ckpt/internal/adapters/telemetry"
	"go.trai.ch/ckpt/internal/app"
	"go.trai.ch/ckpt/internal/core/domain"
	"go.trai.ch/ckpt/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type managerFixture struct {
	manager    *app.Manager
	supervisor *mocks.MockSupervisor
	client     *mocks.MockWorkerClient
	store      *mocks.MockResultStore
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	sup := mocks.NewMockSupervisor(ctrl)
	client := mocks.NewMockWorkerClient(ctrl)
	store := mocks.NewMockResultStore(ctrl)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	cfg := &domain.Config{
		Root: t.TempDir(),
		Environments: map[string]domain.Environment{
			"default": {Name: "default", Interpreter: "python3"},
			"conda":   {Name: "conda", Interpreter: "/opt/conda/bin/python"},
		},
		DefaultEnvironment: "default",
	}
	cfg.Cache.Dir = filepath.Join(cfg.Root, ".ckpt", "cache")

	manager, err := app.New(context.Background(), cfg, sup, client, store, log, telemetry.NewNoOpTracer())
	require.NoError(t, err)

	return &managerFixture{manager: manager, supervisor: sup, client: client, store: store}
}

func checkpointFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "model.ckpt")
	require.NoError(t, os.WriteFile(path, []byte("weights"), 0o644))
	return path
}

func TestManager_Load_CacheHit(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	path := checkpointFile(t)

	fp, err := domain.FingerprintFile(path, domain.ModeAuto)
	require.NoError(t, err)

	entry := &domain.CacheEntry{
		Version:     domain.CacheDocVersion,
		Fingerprint: fp,
		Payload:     domain.Tree{"encoder": map[string]any{}},
	}
	f.store.EXPECT().Lookup(fp).Return(entry, nil)

	// No supervisor or worker expectations: a hit answers from the cache.
	result, err := f.manager.Load(context.Background(), path, domain.ModeAuto)
	require.NoError(t, err)
	assert.Contains(t, result.Data, "encoder")
}

func TestManager_Load_CacheMissRunsWorker(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	path := checkpointFile(t)

	fp, err := domain.FingerprintFile(path, domain.ModeLocal)
	require.NoError(t, err)

	f.store.EXPECT().Lookup(fp).Return(nil, domain.ErrCacheMiss)
	f.supervisor.EXPECT().EnsureRunning(gomock.Any(), gomock.Any()).Return(45123, nil)
	f.client.EXPECT().Load(gomock.Any(), 45123, path, domain.ModeLocal).
		Return(&domain.Result{Global: true, Data: domain.Tree{"layer": map[string]any{}}}, nil)

	var persisted *domain.CacheEntry
	f.store.EXPECT().Put(gomock.Any()).DoAndReturn(func(entry *domain.CacheEntry) error {
		persisted = entry
		return nil
	})

	result, err := f.manager.Load(context.Background(), path, domain.ModeLocal)
	require.NoError(t, err)
	assert.True(t, result.Global)

	require.NotNil(t, persisted)
	assert.Equal(t, fp, persisted.Fingerprint)
	assert.Equal(t, domain.CacheDocVersion, persisted.Version)
	assert.True(t, persisted.Global)
}

func TestManager_Load_MissingResource(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)

	_, err := f.manager.Load(context.Background(), filepath.Join(t.TempDir(), "gone.ckpt"), domain.ModeAuto)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrResourceStat.Error())
}

func TestManager_Inspect_AnswersFromEmbeddedStats(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	path := checkpointFile(t)

	fp, err := domain.FingerprintFile(path, domain.ModeAuto)
	require.NoError(t, err)

	entry := &domain.CacheEntry{
		Version:     domain.CacheDocVersion,
		Fingerprint: fp,
		Payload: domain.Tree{
			"encoder": map[string]any{
				"stats": map[string]any{"mean": 0.5},
			},
		},
	}
	f.store.EXPECT().Lookup(fp).Return(entry, nil)

	stats, err := f.manager.Inspect(context.Background(), path, []string{"encoder"})
	require.NoError(t, err)
	assert.Equal(t, 0.5, stats["mean"])
}

func TestManager_Inspect_ComputesAndEnrichesCache(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	path := checkpointFile(t)

	keyPath := []string{"encoder", "weight"}
	stats := domain.Tree{"mean": 0.1, "std": 1.2}

	f.store.EXPECT().Lookup(gomock.Any()).Return(nil, domain.ErrCacheMiss).AnyTimes()
	f.supervisor.EXPECT().EnsureRunning(gomock.Any(), gomock.Any()).Return(45123, nil)
	f.client.EXPECT().Inspect(gomock.Any(), 45123, path, `["encoder","weight"]`).Return(stats, nil)

	// Both viewing modes of the file get the statistics merged in; missing
	// entries are tolerated.
	f.store.EXPECT().Merge(gomock.Any(), keyPath, stats).Return(nil, domain.ErrCacheMiss).Times(2)

	result, err := f.manager.Inspect(context.Background(), path, keyPath)
	require.NoError(t, err)
	assert.Equal(t, 0.1, result["mean"])
}

func TestManager_Release_WithoutLiveWorker(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)

	// No worker is live; nothing is spawned and nothing is held.
	f.supervisor.EXPECT().Current().Return(domain.Environment{}, 0, false)

	released, err := f.manager.Release(context.Background(), "/m/model.ckpt")
	require.NoError(t, err)
	assert.False(t, released)
}

func TestManager_Release_WithLiveWorker(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)

	env := domain.Environment{Name: "default", Interpreter: "python3"}
	f.supervisor.EXPECT().Current().Return(env, 45123, true)
	f.client.EXPECT().Release(gomock.Any(), 45123, "/m/model.ckpt").Return(true, nil)

	released, err := f.manager.Release(context.Background(), "/m/model.ckpt")
	require.NoError(t, err)
	assert.True(t, released)
}

func TestManager_SwitchEnvironment(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	f.supervisor.EXPECT().Terminate().Times(1)

	require.NoError(t, f.manager.SwitchEnvironment("conda"))
	assert.Equal(t, "conda", f.manager.CurrentEnvironment().Name)
}

func TestManager_SwitchEnvironment_Unknown(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)

	err := f.manager.SwitchEnvironment("missing")
	require.ErrorIs(t, err, domain.ErrUnknownEnvironment)
	assert.Equal(t, "default", f.manager.CurrentEnvironment().Name)
}

func TestManager_Invalidate(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	paths := []string{"/m/a.ckpt", "/m/b.ckpt"}

	f.store.EXPECT().Invalidate(paths)
	// One release task per invalidated path; no worker is live.
	f.supervisor.EXPECT().Current().Return(domain.Environment{}, 0, false).Times(2)

	f.manager.Invalidate(context.Background(), paths)
}

func TestManager_Clean(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)

	dir := f.manager.Config().Cache.Dir
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.json"), []byte("{}"), 0o644))

	require.NoError(t, f.manager.Clean(context.Background()))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestManager_PendingAndShutdown(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	assert.False(t, f.manager.Pending())

	f.supervisor.EXPECT().Terminate()
	f.manager.Shutdown()
}

func TestManager_New_InvalidDefaultEnvironment(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	cfg := &domain.Config{
		Environments:       map[string]domain.Environment{},
		DefaultEnvironment: "default",
	}

	_, err := app.New(context.Background(), cfg,
		mocks.NewMockSupervisor(ctrl),
		mocks.NewMockWorkerClient(ctrl),
		mocks.NewMockResultStore(ctrl),
		log,
		telemetry.NewNoOpTracer(),
	)
	require.ErrorIs(t, err, domain.ErrUnknownEnvironment)
}
