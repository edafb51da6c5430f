package dispatch

import (
	"log/slog"
	"time"
)

const (
	defaultPollInterval   = 100 * time.Millisecond
	defaultProbeInterval  = 5 * time.Second
	defaultAttemptTimeout = 10 * time.Second
)

// Option configures an Engine.
type Option func(*Engine)

// WithRenderer sets the body renderer.
// Defaults to reading templates from the local filesystem.
func WithRenderer(r BodyRenderer) Option {
	return func(e *Engine) {
		if r != nil {
			e.renderer = r
		}
	}
}

// WithFailureSink sets where the end-of-run failure report is written.
// Without a sink, failures are only logged.
func WithFailureSink(s FailureSink) Option {
	return func(e *Engine) {
		if s != nil {
			e.sink = s
		}
	}
}

// WithObserver sets the receiver of progress events.
// Use Observers to attach more than one.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithControl sets the control token the host uses to pause, resume and
// cancel the run. If not set, the engine creates one; see Engine.Control.
func WithControl(c *Control) Option {
	return func(e *Engine) {
		if c != nil {
			e.control = c
		}
	}
}

// WithLogger sets the structured logger.
// If not set, a noop logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPollInterval bounds how long a paused engine sleeps between
// control checks. Defaults to 100ms.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// WithProbeInterval sets how often reachability is re-probed during a
// network outage. Defaults to 5 seconds.
func WithProbeInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.probeInterval = d
		}
	}
}

// WithAttemptTimeout bounds a single delivery attempt. Defaults to 10 seconds.
func WithAttemptTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.attemptTimeout = d
		}
	}
}
