package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ckpt/internal/adapters/watcher"
	"go.trai.ch/ckpt/internal/core/ports"
)

func collectEvents(w *watcher.Watcher) <-chan ports.WatchEvent {
	out := make(chan ports.WatchEvent, 16)
	go func() {
		defer close(out)
		for event := range w.Events() {
			out <- event
		}
	}()
	return out
}

func awaitEvent(t *testing.T, events <-chan ports.WatchEvent, path string) ports.WatchEvent {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-events:
			require.True(t, ok, "event stream closed before %s changed", path)
			if event.Path == path {
				return event
			}
		case <-deadline:
			t.Fatalf("no event for %s", path)
		}
	}
}

func TestWatcher_ObservesWrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "model.ckpt")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0o644))

	w, err := watcher.NewWatcher()
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Add(dir))
	require.NoError(t, w.Start(ctx))

	events := collectEvents(w)

	require.NoError(t, os.WriteFile(file, []byte("v2"), 0o644))
	event := awaitEvent(t, events, file)
	assert.Equal(t, ports.OpWrite, event.Operation)
}

func TestWatcher_ObservesCreateAndRemove(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	w, err := watcher.NewWatcher()
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Add(dir))
	require.NoError(t, w.Start(ctx))

	events := collectEvents(w)

	file := filepath.Join(dir, "shard-00001.ckpt")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0o644))
	event := awaitEvent(t, events, file)
	assert.Equal(t, ports.OpCreate, event.Operation)

	require.NoError(t, os.Remove(file))
	for {
		event = awaitEvent(t, events, file)
		if event.Operation == ports.OpRemove {
			break
		}
	}
}

func TestWatcher_AddIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	w, err := watcher.NewWatcher()
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, w.Add(dir))
	require.NoError(t, w.Add(dir))
}
