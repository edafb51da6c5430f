// Package netprobe answers whether outbound connectivity is currently available.
//
// The check is a single short TCP dial to a well-known, stable endpoint.
// A false negative pauses sending for one re-probe interval; a false
// positive turns a network failure into a recorded permanent failure.
package netprobe

import (
	"context"
	"errors"
	"net"
	"time"
)

// Defaults point at a public DNS resolver.
const (
	DefaultAddress = "8.8.8.8:53"
	DefaultTimeout = 3 * time.Second
)

// ErrUnreachable is returned by Healthcheck when the endpoint cannot be dialed.
var ErrUnreachable = errors.New("netprobe: network unreachable")

// Prober reports outbound reachability.
type Prober interface {
	Reachable(ctx context.Context) bool
}

// Probe dials Address with a bounded timeout.
type Probe struct {
	dialer  net.Dialer
	address string
}

// New creates a probe. Empty address and non-positive timeout select the defaults.
func New(address string, timeout time.Duration) *Probe {
	if address == "" {
		address = DefaultAddress
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Probe{
		dialer:  net.Dialer{Timeout: timeout},
		address: address,
	}
}

// Reachable implements Prober.
func (p *Probe) Reachable(ctx context.Context) bool {
	conn, err := p.dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Static is a Prober with a fixed answer.
type Static bool

// Reachable implements Prober.
func (s Static) Reachable(context.Context) bool {
	return bool(s)
}

// Func adapts a function to Prober.
type Func func(ctx context.Context) bool

// Reachable implements Prober.
func (f Func) Reachable(ctx context.Context) bool {
	return f(ctx)
}

// Healthcheck adapts a prober to the func(ctx) error signature used by readiness checks.
func Healthcheck(p Prober) func(context.Context) error {
	return func(ctx context.Context) error {
		if !p.Reachable(ctx) {
			return ErrUnreachable
		}
		return nil
	}
}
