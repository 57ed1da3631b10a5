package scheduler

import (
	"go.trai.ch/ckpt/internal/core/domain"
)

// RequestSwitch changes the environment the next worker spawn targets.
//
// A switch targeting the already-current environment is a no-op and also
// cancels any pending switch. While the scheduler is busy the target is only
// recorded, superseding any earlier pending target, and the restart happens
// at the next idle boundary. Only the most recent target is ever honored, so
// a burst of switch requests costs exactly one worker restart.
func (s *Scheduler) RequestSwitch(env domain.Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if env.Equal(s.env) {
		s.pending = nil
		return
	}

	if s.running || len(s.queue) > 0 {
		s.pending = &env
		return
	}

	s.applySwitchLocked(env)
}

// applySwitchLocked terminates the current worker and records env as the
// environment the next lazy spawn targets. No new worker is started here.
// Any promises still tracked at this point would otherwise hang forever, so
// they are rejected explicitly. Callers hold s.mu.
func (s *Scheduler) applySwitchLocked(env domain.Environment) {
	s.supervisor.Terminate()

	for key, promise := range s.inFlight {
		promise.Reject(domain.ErrEnvironmentChanged)
		delete(s.inFlight, key)
	}
	for _, e := range s.queue {
		e.promise.Reject(domain.ErrEnvironmentChanged)
	}
	s.queue = nil

	s.logger.Info("switched environment to " + env.Name)
	s.env = env
}

// CurrentEnvironment returns the environment the next worker spawn targets.
// It does not imply a worker is running.
func (s *Scheduler) CurrentEnvironment() domain.Environment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env
}
