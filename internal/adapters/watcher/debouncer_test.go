package watcher_test

import (
	"sort"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"go.trai.ch/ckpt/internal/adapters/watcher"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) record(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	r.batches = append(r.batches, sorted)
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func TestDebouncer_CoalescesEvents(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Add("/m/a.ckpt")
		d.Add("/m/a.ckpt")
		d.Add("/m/b.ckpt")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		batches := rec.snapshot()
		if len(batches) != 1 {
			t.Fatalf("expected one batch, got %d", len(batches))
		}
		if len(batches[0]) != 2 || batches[0][0] != "/m/a.ckpt" || batches[0][1] != "/m/b.ckpt" {
			t.Fatalf("unexpected batch: %v", batches[0])
		}
	})
}

func TestDebouncer_WindowResetsOnActivity(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Add("/m/a.ckpt")
		time.Sleep(60 * time.Millisecond)
		d.Add("/m/b.ckpt")
		time.Sleep(60 * time.Millisecond)
		synctest.Wait()

		// 120ms after the first event, but only 60ms after the last: the
		// window restarted, so nothing fired yet.
		if got := rec.snapshot(); len(got) != 0 {
			t.Fatalf("debounce fired early: %v", got)
		}

		time.Sleep(50 * time.Millisecond)
		synctest.Wait()

		batches := rec.snapshot()
		if len(batches) != 1 || len(batches[0]) != 2 {
			t.Fatalf("expected one batch of two paths, got %v", batches)
		}
	})
}

func TestDebouncer_FlushDeliversImmediately(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		d := watcher.NewDebouncer(time.Hour, rec.record)

		d.Add("/m/a.ckpt")
		d.Flush()

		batches := rec.snapshot()
		if len(batches) != 1 || len(batches[0]) != 1 {
			t.Fatalf("expected flushed batch, got %v", batches)
		}

		// Flushing again with nothing pending stays silent.
		d.Flush()
		if got := rec.snapshot(); len(got) != 1 {
			t.Fatalf("empty flush produced a batch: %v", got)
		}
		synctest.Wait()
	})
}
