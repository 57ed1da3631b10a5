// Package gateway runs the manager as a long-lived loopback HTTP service for
// an editor shell. The shell supervises the gateway exactly the way the
// gateway supervises its own worker: it waits for the SERVER_STARTED:<port>
// handshake on stdout and relies on inactivity auto-shutdown for cleanup.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.trai.ch/ckpt/internal/adapters/watcher"
	"go.trai.ch/ckpt/internal/app"
	"go.trai.ch/ckpt/internal/core/domain"
	"go.trai.ch/ckpt/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const (
	readHeaderTimeout = 5 * time.Second
	debounceWindow    = 200 * time.Millisecond
)

// Server exposes the manager's operations over loopback HTTP.
type Server struct {
	manager   *app.Manager
	fsWatcher ports.Watcher
	logger    ports.Logger
	lifecycle *Lifecycle
	stdout    io.Writer

	mu      sync.Mutex
	tracked map[string]struct{}
}

// NewServer creates a gateway server around the manager. Events from
// fsWatcher invalidate tracked resources; idleTimeout bounds the time the
// gateway stays alive without requests.
func NewServer(
	manager *app.Manager,
	fsWatcher ports.Watcher,
	logger ports.Logger,
	idleTimeout time.Duration,
	stdout io.Writer,
) *Server {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Server{
		manager:   manager,
		fsWatcher: fsWatcher,
		logger:    logger,
		lifecycle: NewLifecycle(idleTimeout),
		stdout:    stdout,
		tracked:   make(map[string]struct{}),
	}
}

// Serve binds an ephemeral loopback port, prints the startup handshake and
// serves until the context is canceled, a shutdown is requested, or the
// inactivity timeout fires.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return zerr.Wrap(err, domain.ErrGatewayListenFailed.Error())
	}

	port := listener.Addr().(*net.TCPAddr).Port
	fmt.Fprintln(s.stdout, domain.FormatStartupLine(port))
	s.logger.Info("gateway listening on port " + fmt.Sprint(port))

	httpServer := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	debouncer := watcher.NewDebouncer(debounceWindow, func(paths []string) {
		s.invalidate(ctx, paths)
	})

	if err := s.fsWatcher.Start(ctx); err != nil {
		_ = listener.Close()
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.consumeWatchEvents(debouncer)
		return nil
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	g.Go(func() error {
		// Stopping the watcher closes the event stream, which in turn ends
		// the consuming goroutine above.
		defer func() { _ = s.fsWatcher.Stop() }()

		var serveErr error
		select {
		case <-ctx.Done():
		case <-s.lifecycle.ShutdownChan():
			s.logger.Info("gateway shutting down")
		case serveErr = <-errCh:
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)

		debouncer.Flush()
		s.manager.Shutdown()
		return serveErr
	})

	return g.Wait()
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+domain.EndpointLoad, s.handleLoad)
	mux.HandleFunc("POST "+domain.EndpointInspect, s.handleInspect)
	mux.HandleFunc("POST "+domain.EndpointRelease, s.handleRelease)
	mux.HandleFunc("GET /env", s.handleEnvGet)
	mux.HandleFunc("POST /env", s.handleEnvSwitch)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /shutdown", s.handleShutdown)
	return mux
}

type loadRequest struct {
	FilePath   string `json:"file_path"`
	ForceLocal bool   `json:"force_local"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	s.lifecycle.ResetTimer()

	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	mode := domain.ModeAuto
	if req.ForceLocal {
		mode = domain.ModeLocal
	}

	result, err := s.manager.Load(r.Context(), req.FilePath, mode)
	if err != nil {
		writeError(w, http.StatusOK, err)
		return
	}

	s.track(req.FilePath)
	writeJSON(w, result)
}

type inspectRequest struct {
	FilePath string `json:"file_path"`
	Key      string `json:"key"`
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	s.lifecycle.ResetTimer()

	var req inspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var keyPath []string
	if err := json.Unmarshal([]byte(req.Key), &keyPath); err != nil {
		writeError(w, http.StatusBadRequest, zerr.Wrap(err, "invalid key path"))
		return
	}

	stats, err := s.manager.Inspect(r.Context(), req.FilePath, keyPath)
	if err != nil {
		writeError(w, http.StatusOK, err)
		return
	}

	writeJSON(w, stats)
}

type releaseRequest struct {
	FilePath string `json:"file_path"`
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	s.lifecycle.ResetTimer()

	var req releaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	released, err := s.manager.Release(r.Context(), req.FilePath)
	if err != nil {
		writeError(w, http.StatusOK, err)
		return
	}

	s.untrack(req.FilePath)

	status := "not_found"
	if released {
		status = "released"
	}
	writeJSON(w, map[string]string{"status": status})
}

func (s *Server) handleEnvGet(w http.ResponseWriter, _ *http.Request) {
	s.lifecycle.ResetTimer()

	envs := make(map[string]string, len(s.manager.Environments()))
	for name, env := range s.manager.Environments() {
		envs[name] = env.Interpreter
	}

	writeJSON(w, map[string]any{
		"current":      s.manager.CurrentEnvironment().Name,
		"environments": envs,
	})
}

type envSwitchRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleEnvSwitch(w http.ResponseWriter, r *http.Request) {
	s.lifecycle.ResetTimer()

	var req envSwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.manager.SwitchEnvironment(req.Name); err != nil {
		writeError(w, http.StatusOK, err)
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.lifecycle.ResetTimer()

	writeJSON(w, map[string]any{
		"running":                true,
		"pid":                    os.Getpid(),
		"uptime_seconds":         int64(s.lifecycle.Uptime().Seconds()),
		"idle_remaining_seconds": int64(s.lifecycle.IdleRemaining().Seconds()),
		"pending":                s.manager.Pending(),
		"environment":            s.manager.CurrentEnvironment().Name,
	})
}

func (s *Server) handleShutdown(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "shutting_down"})
	s.lifecycle.Shutdown()
}

// track registers a loaded resource for change-driven invalidation. The
// watcher observes the containing directory; events for untracked siblings
// are dropped in consumeWatchEvents.
func (s *Server) track(path string) {
	s.mu.Lock()
	s.tracked[path] = struct{}{}
	s.mu.Unlock()

	if err := s.fsWatcher.Add(filepath.Dir(path)); err != nil {
		s.logger.Warn("failed to watch directory of " + path)
	}
}

func (s *Server) untrack(path string) {
	s.mu.Lock()
	delete(s.tracked, path)
	s.mu.Unlock()
}

func (s *Server) isTracked(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tracked[path]
	return ok
}

// consumeWatchEvents feeds changes of tracked resources into the debouncer.
// Create events are irrelevant: a resource only becomes tracked through a
// successful load, which already saw the file on disk.
func (s *Server) consumeWatchEvents(debouncer *watcher.Debouncer) {
	for event := range s.fsWatcher.Events() {
		if event.Operation == ports.OpCreate {
			continue
		}
		if s.isTracked(event.Path) {
			debouncer.Add(event.Path)
		}
	}
}

// invalidate drops stale cache state and has the worker forget its in-memory
// copies of the changed resources.
func (s *Server) invalidate(ctx context.Context, paths []string) {
	for _, path := range paths {
		s.logger.Info("resource changed on disk: " + path)
	}
	s.manager.Invalidate(ctx, paths)
}

// writeJSON writes v as the response body. The worker protocol reports
// application failures inside a 200 response, and the gateway mirrors that.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
