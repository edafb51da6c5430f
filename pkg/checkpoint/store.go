package checkpoint

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

// Store persists the index of the next unprocessed record.
type Store interface {
	// Load returns the stored position, or 0 when nothing was stored yet.
	Load(ctx context.Context) (int, error)
	// Save durably replaces the stored position before returning.
	Save(ctx context.Context, position int) error
}

// Memory is a Store that keeps the position in process memory.
type Memory struct {
	mu       sync.Mutex
	position int
}

// Load implements Store.
func (m *Memory) Load(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position, nil
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, position int) error {
	if position < 0 {
		return ErrNegativePosition
	}
	m.mu.Lock()
	m.position = position
	m.mu.Unlock()
	return nil
}

// parse decodes the textual form shared by the file and Redis stores.
func parse(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, ErrCorrupt
	}
	return n, nil
}
