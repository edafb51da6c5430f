package dispatch

import (
	"sync"
	"sync/atomic"
)

// Signal identifies a control transition requested by the host.
type Signal int

const (
	SignalPause Signal = iota + 1
	SignalResume
	SignalCancel
)

func (s Signal) String() string {
	switch s {
	case SignalPause:
		return "pause"
	case SignalResume:
		return "resume"
	case SignalCancel:
		return "cancel"
	}
	return "unknown"
}

// Control is the host-side handle of a run: a cancellation token with a
// pause switch. All methods are safe for concurrent use and idempotent.
// Cancel is a one-way latch.
type Control struct {
	listener func(Signal)
	resumed  chan struct{}
	done     chan struct{}

	mu         sync.Mutex
	cancelOnce sync.Once
	paused     atomic.Bool
	cancelled  atomic.Bool
}

// NewControl creates a running, unpaused control token.
func NewControl() *Control {
	return &Control{
		resumed: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Pause stops new send attempts from starting. An attempt already in
// flight is allowed to finish.
func (c *Control) Pause() {
	if c.paused.CompareAndSwap(false, true) {
		c.notify(SignalPause)
	}
}

// Resume lifts a pause.
func (c *Control) Resume() {
	if !c.paused.CompareAndSwap(true, false) {
		return
	}
	c.mu.Lock()
	close(c.resumed)
	c.resumed = make(chan struct{})
	c.mu.Unlock()
	c.notify(SignalResume)
}

// Cancel stops the run. The engine still flushes accumulated failures
// and emits completion.
func (c *Control) Cancel() {
	c.cancelOnce.Do(func() {
		c.cancelled.Store(true)
		close(c.done)
		c.notify(SignalCancel)
	})
}

// Paused reports whether the run is paused.
func (c *Control) Paused() bool {
	return c.paused.Load()
}

// Cancelled reports whether Cancel was called.
func (c *Control) Cancelled() bool {
	return c.cancelled.Load()
}

// Done is closed when Cancel is called.
func (c *Control) Done() <-chan struct{} {
	return c.done
}

// resumeSignal returns a channel closed by the next Resume.
// Fetch it before checking Paused so a concurrent Resume is never missed.
func (c *Control) resumeSignal() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumed
}

// listen installs fn to observe transitions; nil removes it.
func (c *Control) listen(fn func(Signal)) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

func (c *Control) notify(s Signal) {
	c.mu.Lock()
	fn := c.listener
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}
