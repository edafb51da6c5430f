package control

import (
	"sync"
	"time"

	"github.com/dmitrymomot/courier/pkg/dispatch"
)

// Status is the JSON snapshot served by GET /status.
type Status struct {
	UpdatedAt time.Time `json:"updated_at"`
	RunID     string    `json:"run_id,omitempty"`
	LastLog   string    `json:"last_log,omitempty"`
	Total     int       `json:"total"`
	Sent      int       `json:"sent"`
	Percent   int       `json:"percent"`
	Finished  bool      `json:"finished"`
	Paused    bool      `json:"paused"`
	Cancelled bool      `json:"cancelled"`
}

// Tracker folds engine events into a Status. It implements dispatch.Observer.
type Tracker struct {
	now   func() time.Time
	state Status
	mu    sync.RWMutex
}

// NewTracker creates a tracker for the run with the given identifier.
func NewTracker(runID string) *Tracker {
	return &Tracker{
		now:   time.Now,
		state: Status{RunID: runID},
	}
}

// Observe implements dispatch.Observer.
func (t *Tracker) Observe(e dispatch.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Kind {
	case dispatch.EventLog:
		t.state.LastLog = e.Message
	case dispatch.EventTotal:
		t.state.Total = e.Value
	case dispatch.EventProgress:
		t.state.Percent = e.Value
	case dispatch.EventSent:
		t.state.Sent = e.Value
	case dispatch.EventFinished:
		t.state.Finished = true
	}
	t.state.UpdatedAt = t.now().UTC()
}

// Snapshot returns the current status, with pause and cancel state read
// from ctl when it is not nil.
func (t *Tracker) Snapshot(ctl *dispatch.Control) Status {
	t.mu.RLock()
	s := t.state
	t.mu.RUnlock()

	if ctl != nil {
		s.Paused = ctl.Paused()
		s.Cancelled = ctl.Cancelled()
	}
	return s
}
