// Package control exposes a running dispatch over HTTP: pause, resume and
// cancel endpoints, a status snapshot, and liveness/readiness probes.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/courier/pkg/dispatch"
	"github.com/dmitrymomot/courier/pkg/logger"
)

const (
	defaultAddress           = "127.0.0.1:8080"
	defaultShutdownTimeout   = 10 * time.Second
	defaultReadyTimeout      = 5 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 15 * time.Second
	defaultIdleTimeout       = 60 * time.Second
)

// Server serves the control API of one run.
type Server struct {
	control *dispatch.Control
	tracker *Tracker
	checks  Checks
	logger  *slog.Logger

	address         string
	shutdownTimeout time.Duration
	readyTimeout    time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithAddress sets the listen address. Default: 127.0.0.1:8080.
func WithAddress(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.address = addr
		}
	}
}

// WithChecks sets the readiness checks run by GET /readyz.
func WithChecks(checks Checks) Option {
	return func(s *Server) {
		s.checks = checks
	}
}

// WithLogger sets the logger. If not set, a noop logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown. Default: 10 seconds.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithReadyTimeout bounds the readiness checks. Default: 5 seconds.
func WithReadyTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.readyTimeout = d
		}
	}
}

// New creates a server driving ctl and reporting from tracker.
func New(ctl *dispatch.Control, tracker *Tracker, opts ...Option) *Server {
	s := &Server{
		control:         ctl,
		tracker:         tracker,
		logger:          logger.NewNope(),
		address:         defaultAddress,
		shutdownTimeout: defaultShutdownTimeout,
		readyTimeout:    defaultReadyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/status", s.handleStatus)

	r.Post("/pause", s.signal(dispatch.SignalPause))
	r.Post("/resume", s.signal(dispatch.SignalResume))
	r.Post("/cancel", s.signal(dispatch.SignalCancel))

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "control server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.InfoContext(ctx, "control server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) signal(sig dispatch.Signal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch sig {
		case dispatch.SignalPause:
			s.control.Pause()
		case dispatch.SignalResume:
			s.control.Resume()
		case dispatch.SignalCancel:
			s.control.Cancel()
		}
		s.logger.InfoContext(r.Context(), "control signal received", slog.String("signal", sig.String()))
		writeJSON(w, http.StatusAccepted, s.tracker.Snapshot(s.control))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Snapshot(s.control))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Readiness{Status: StatusHealthy})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	resp := runChecks(r.Context(), s.checks, s.readyTimeout, s.logger)

	status := http.StatusOK
	if resp.Status == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
