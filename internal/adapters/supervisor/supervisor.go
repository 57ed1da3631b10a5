// Package supervisor owns the lifecycle of the single analysis worker
// process: lazy spawn, startup handshake detection, exit tracking, and
// termination.
package supervisor

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"go.trai.ch/ckpt/internal/core/domain"
	"go.trai.ch/ckpt/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Supervisor = (*Supervisor)(nil)

// Supervisor implements ports.Supervisor over os/exec. At most one worker
// process is live at any time; a new one is only created after the previous
// one is confirmed gone.
type Supervisor struct {
	script         string
	logPath        string
	startupTimeout time.Duration
	logger         ports.Logger

	mu   sync.Mutex
	proc *workerProcess
}

// workerProcess tracks one spawned worker generation. ready closes once the
// startup handshake was observed (port is set before the close); exited
// closes when the process is gone (startErr is set before the close when the
// exit preceded the handshake).
type workerProcess struct {
	env domain.Environment
	cmd *exec.Cmd

	ready     chan struct{}
	readyOnce sync.Once
	port      int

	exited   chan struct{}
	startErr error

	stderr *diagBuffer
}

// New creates a Supervisor launching the worker script with the given
// startup bound. An empty logPath disables the worker diagnostic log.
func New(script, logPath string, startupTimeout time.Duration, logger ports.Logger) *Supervisor {
	if startupTimeout <= 0 {
		startupTimeout = domain.DefaultStartupTimeout
	}
	return &Supervisor{
		script:         script,
		logPath:        logPath,
		startupTimeout: startupTimeout,
		logger:         logger,
	}
}

// EnsureRunning implements ports.Supervisor.
func (s *Supervisor) EnsureRunning(ctx context.Context, env domain.Environment) (int, error) {
	s.mu.Lock()
	p := s.proc
	if p != nil && !p.env.Equal(env) {
		// The switch controller terminates before changing environments, so a
		// live worker under a stale environment means a missed termination.
		// Restart rather than serve from the wrong interpreter.
		s.proc = nil
		s.mu.Unlock()
		kill(p)
		s.mu.Lock()
		p = nil
	}
	if p == nil {
		spawned, err := s.spawn(env)
		if err != nil {
			s.mu.Unlock()
			return 0, err
		}
		s.proc = spawned
		p = spawned
	}
	s.mu.Unlock()

	return s.awaitStartup(ctx, p)
}

// awaitStartup waits for the handshake of a live or in-progress start. The
// wait is a one-shot notification plus a timer, not a poll.
func (s *Supervisor) awaitStartup(ctx context.Context, p *workerProcess) (int, error) {
	timer := time.NewTimer(s.startupTimeout)
	defer timer.Stop()

	select {
	case <-p.ready:
		return p.port, nil

	case <-p.exited:
		// The handshake may have raced the exit notification.
		select {
		case <-p.ready:
			return p.port, nil
		default:
		}
		s.clear(p)
		return 0, s.startupFailure(p)

	case <-timer.C:
		// Half-started workers are discarded so the next call re-spawns.
		s.clear(p)
		kill(p)
		return 0, zerr.With(
			zerr.With(domain.ErrStartupTimeout, "environment", p.env.Name),
			"timeout", s.startupTimeout.String(),
		)

	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// startupFailure builds the diagnostic error for an exit before the
// handshake. The worker's stderr text is preserved verbatim so the caller
// can tell a wrong interpreter from a missing dependency.
func (s *Supervisor) startupFailure(p *workerProcess) error {
	err := zerr.With(
		zerr.With(
			zerr.With(domain.ErrWorkerStartup, "environment", p.env.Name),
			"interpreter", p.env.Interpreter,
		),
		"stderr", p.stderr.String(),
	)
	if p.startErr != nil {
		err = zerr.With(
			zerr.With(
				zerr.With(
					zerr.Wrap(p.startErr, domain.ErrWorkerStartup.Error()),
					"environment", p.env.Name,
				),
				"interpreter", p.env.Interpreter,
			),
			"stderr", p.stderr.String(),
		)
	}
	return err
}

// spawn launches a new worker process. Callers hold s.mu.
func (s *Supervisor) spawn(env domain.Environment) (*workerProcess, error) {
	//nolint:gosec // G204: interpreter and script come from configuration, not request input
	cmd := exec.Command(env.Interpreter, "-u", s.script)
	// The handshake is read line-wise from stdout; buffering on the worker
	// side would stall startup detection.
	cmd.Env = append(os.Environ(),
		"PYTHONUNBUFFERED=1",
		"PYTHONIOENCODING=utf-8",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrWorkerStartup.Error())
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrWorkerStartup.Error())
	}

	p := &workerProcess{
		env:    env,
		cmd:    cmd,
		ready:  make(chan struct{}),
		exited: make(chan struct{}),
		stderr: newDiagBuffer(),
	}

	if err := cmd.Start(); err != nil {
		return nil, zerr.With(
			zerr.With(
				zerr.Wrap(err, domain.ErrWorkerStartup.Error()),
				"environment", env.Name,
			),
			"interpreter", env.Interpreter,
		)
	}

	s.logger.Info("worker spawned interpreter=" + env.Interpreter)

	// Stderr also goes to the worker log on disk so post-mortem output
	// survives the process.
	stderrSrc := io.Reader(stderr)
	logFile := s.openWorkerLog()
	if logFile != nil {
		stderrSrc = io.TeeReader(stderr, logFile)
	}

	go p.scanStdout(stdout)
	go func() {
		p.stderr.consume(stderrSrc)
		if logFile != nil {
			_ = logFile.Close()
		}
	}()
	go func() {
		err := cmd.Wait()
		select {
		case <-p.ready:
			// Post-startup exit: state is cleared so the next call re-spawns.
			s.logger.Warn("worker exited after startup")
		default:
			p.startErr = err
		}
		close(p.exited)
		s.clear(p)
	}()

	return p, nil
}

// openWorkerLog opens the append-only diagnostic log, if configured. Failures
// are non-fatal: diagnostics degrade to the in-memory buffer.
func (s *Supervisor) openWorkerLog() *os.File {
	if s.logPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.logPath), domain.DirPerm); err != nil {
		return nil
	}
	//nolint:gosec // G304: the log path comes from configuration
	f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, domain.PrivateFilePerm)
	if err != nil {
		s.logger.Warn("failed to open worker log at " + s.logPath)
		return nil
	}
	return f
}

// scanStdout watches the worker's stdout for the startup handshake and keeps
// draining afterwards so the pipe never fills.
func (p *workerProcess) scanStdout(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if port, ok := domain.ParseStartupLine(scanner.Text()); ok {
			p.readyOnce.Do(func() {
				p.port = port
				close(p.ready)
			})
		}
	}
}

// clear drops the cached process state if p is still the current generation.
func (s *Supervisor) clear(p *workerProcess) {
	s.mu.Lock()
	if s.proc == p {
		s.proc = nil
	}
	s.mu.Unlock()
}

// Terminate implements ports.Supervisor.
func (s *Supervisor) Terminate() {
	s.mu.Lock()
	p := s.proc
	s.proc = nil
	s.mu.Unlock()

	if p != nil {
		kill(p)
	}
}

// Current implements ports.Supervisor.
func (s *Supervisor) Current() (domain.Environment, int, bool) {
	s.mu.Lock()
	p := s.proc
	s.mu.Unlock()

	if p == nil {
		return domain.Environment{}, 0, false
	}
	select {
	case <-p.ready:
		return p.env, p.port, true
	default:
		return domain.Environment{}, 0, false
	}
}

// kill stops a worker process and waits for it to be gone.
func kill(p *workerProcess) {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	<-p.exited
}
