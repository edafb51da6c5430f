package dispatch

import (
	"fmt"
	"sync"
)

// EventKind enumerates the progress notifications a run emits.
type EventKind int

const (
	// EventLog carries a human-readable log line in Message.
	EventLog EventKind = iota + 1
	// EventTotal carries the number of contacts in Value. Emitted once near start.
	EventTotal
	// EventProgress carries percent complete (0-100) in Value after every finalized record.
	EventProgress
	// EventSent carries the running count of successful sends in Value.
	EventSent
	// EventFinished is emitted exactly once, last.
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventLog:
		return "log"
	case EventTotal:
		return "total"
	case EventProgress:
		return "progress"
	case EventSent:
		return "sent"
	case EventFinished:
		return "finished"
	}
	return "unknown"
}

// Event is one notification from the engine to its host.
type Event struct {
	Message string
	Kind    EventKind
	Value   int
}

// Observer receives engine events. Observe is called from a single
// goroutine in emission order; it never runs on the engine's worker.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans events out to several observers in order.
func Observers(obs ...Observer) Observer {
	clean := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			clean = append(clean, o)
		}
	}
	return ObserverFunc(func(e Event) {
		for _, o := range clean {
			o.Observe(e)
		}
	})
}

// emitter queues events without bound and delivers them from its own
// goroutine, so a slow observer never blocks the worker.
type emitter struct {
	observer Observer
	wake     chan struct{}
	done     chan struct{}
	queue    []Event

	mu       sync.Mutex
	closed   bool
	finished bool
}

func newEmitter(o Observer) *emitter {
	e := &emitter{
		observer: o,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go e.loop()
	return e
}

// emit queues ev. Nothing is accepted after EventFinished.
func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	if e.closed || e.finished {
		e.mu.Unlock()
		return
	}
	e.finished = ev.Kind == EventFinished
	e.queue = append(e.queue, ev)
	e.mu.Unlock()
	e.signal()
}

func (e *emitter) logf(format string, args ...any) {
	e.emit(Event{Kind: EventLog, Message: fmt.Sprintf(format, args...)})
}

// close stops accepting events and blocks until the queue is drained.
func (e *emitter) close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.signal()
	<-e.done
}

func (e *emitter) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *emitter) loop() {
	defer close(e.done)
	for {
		e.mu.Lock()
		batch := e.queue
		e.queue = nil
		closed := e.closed
		e.mu.Unlock()

		for _, ev := range batch {
			if e.observer != nil {
				e.observer.Observe(ev)
			}
		}

		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-e.wake
	}
}
