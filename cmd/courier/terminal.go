package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dmitrymomot/courier/pkg/dispatch"
)

// terminal prints engine events as timestamped lines.
type terminal struct {
	w   io.Writer
	now func() time.Time
}

func newTerminal(w io.Writer) *terminal {
	return &terminal{w: w, now: time.Now}
}

// Observe implements dispatch.Observer.
func (t *terminal) Observe(e dispatch.Event) {
	var line string
	switch e.Kind {
	case dispatch.EventLog:
		line = e.Message
	case dispatch.EventTotal:
		line = fmt.Sprintf("Total contacts: %d", e.Value)
	case dispatch.EventProgress:
		line = fmt.Sprintf("Progress: %d%%", e.Value)
	default:
		return
	}
	fmt.Fprintf(t.w, "[%s] %s\n", t.now().Format(time.TimeOnly), line)
}
