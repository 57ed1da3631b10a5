// Package scheduler serializes all work against the single worker process.
package scheduler

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.trai.ch/ckpt/internal/core/domain"
	"go.trai.ch/ckpt/internal/core/ports"
	"go.trai.ch/zerr"
)

// entry pairs a queued task with the promise its callers await.
type entry struct {
	task    domain.Task
	promise *domain.Promise
}

// Scheduler owns the FIFO task queue, the in-flight deduplication map and the
// environment identity the next worker spawn targets. The worker process is
// not safe for concurrent access, so a single drain goroutine pops one task
// at a time and awaits its action to completion before popping the next.
type Scheduler struct {
	supervisor ports.Supervisor
	tracer     ports.Tracer
	logger     ports.Logger

	// baseCtx bounds task actions to the scheduler's lifetime rather than
	// any single caller. Duplicate callers share one execution, so a
	// caller's context must not cancel the task.
	baseCtx context.Context

	mu       sync.Mutex
	queue    []*entry
	inFlight map[domain.RequestKey]*domain.Promise
	env      domain.Environment
	pending  *domain.Environment
	running  bool
}

// NewScheduler creates a scheduler that lazily starts worker processes under
// env via the supervisor.
func NewScheduler(
	ctx context.Context,
	supervisor ports.Supervisor,
	tracer ports.Tracer,
	logger ports.Logger,
	env domain.Environment,
) *Scheduler {
	return &Scheduler{
		supervisor: supervisor,
		tracer:     tracer,
		logger:     logger,
		baseCtx:    ctx,
		inFlight:   make(map[domain.RequestKey]*domain.Promise),
		env:        env,
	}
}

// Submit enqueues a task and returns the promise its completion settles.
//
// A load supersedes any queued release of the same resource: the stale
// release is removed before it ever runs, avoiding a needless free and
// reacquire cycle against the worker. Concurrent duplicates join the
// in-flight promise under the same request key instead of enqueuing a
// second execution.
func (s *Scheduler) Submit(task domain.Task) *domain.Promise {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.Kind == domain.TaskLoad {
		s.cancelQueuedReleasesLocked(task.Resource)
	}

	if promise, ok := s.inFlight[task.Key]; ok {
		return promise
	}

	promise := domain.NewPromise()
	s.inFlight[task.Key] = promise
	s.queue = append(s.queue, &entry{task: task, promise: promise})

	if !s.running {
		s.running = true
		go s.drain()
	}

	return promise
}

// cancelQueuedReleasesLocked removes not-yet-started release tasks for the
// given resource from the queue. Their promises resolve successfully with an
// empty result, matching the outcome of a release made redundant by the
// resource staying loaded. Callers hold s.mu.
func (s *Scheduler) cancelQueuedReleasesLocked(resource domain.InternedString) {
	s.queue = slices.DeleteFunc(s.queue, func(e *entry) bool {
		if e.task.Kind != domain.TaskRelease || e.task.Resource != resource {
			return false
		}
		delete(s.inFlight, e.task.Key)
		e.promise.Resolve(&domain.Result{})
		return true
	})
}

// drain pops queued tasks one at a time until the queue empties. A deferred
// environment switch is applied at the idle boundary, never between tasks.
func (s *Scheduler) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			if s.pending != nil {
				s.applySwitchLocked(*s.pending)
				s.pending = nil
			}
			s.running = false
			s.mu.Unlock()
			return
		}

		e := s.queue[0]
		s.queue = s.queue[1:]
		env := s.env
		s.mu.Unlock()

		result, err := s.execute(e, env)

		s.mu.Lock()
		delete(s.inFlight, e.task.Key)
		s.mu.Unlock()

		// A failed task never aborts the drain loop.
		if err != nil {
			e.promise.Reject(err)
		} else {
			e.promise.Resolve(result)
		}
	}
}

// execute runs one task's action under the given environment. Panics inside
// an action are converted into a rejection rather than tearing down the
// drain goroutine.
func (s *Scheduler) execute(e *entry, env domain.Environment) (result *domain.Result, err error) {
	ctx, span := s.tracer.Start(s.baseCtx, "task."+string(e.task.Kind))
	defer span.End()
	span.SetAttribute("resource", e.task.Resource.String())
	span.SetAttribute("environment", env.Name)

	defer func() {
		if r := recover(); r != nil {
			err = zerr.With(
				zerr.Wrap(fmt.Errorf("%v", r), "task action panicked"),
				"kind", string(e.task.Kind),
			)
		}
		if err != nil {
			span.RecordError(err)
		}
	}()

	return e.task.Action(ctx, env)
}

// Pending reports whether the scheduler has queued or executing work.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running || len(s.queue) > 0
}
