package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
)

// DefaultFile is the checkpoint file used when no path is configured.
const DefaultFile = "progress_checkpoint.txt"

// FileStore keeps the position as a decimal integer in a text file.
// Writes replace the file atomically, so a crash never leaves a torn value.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path. Empty path selects DefaultFile.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFile
	}
	return &FileStore{path: path}
}

// Path returns the checkpoint file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) String() string { return s.path }

// Load implements Store. A missing file is position 0.
func (s *FileStore) Load(context.Context) (int, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("checkpoint: read %s: %w", s.path, err)
	}
	n, err := parse(string(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %s", err, s.path)
	}
	return n, nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, position int) error {
	if position < 0 {
		return ErrNegativePosition
	}
	if err := renameio.WriteFile(s.path, []byte(strconv.Itoa(position)), 0o644); err != nil {
		return fmt.Errorf("checkpoint: write %s: %w", s.path, err)
	}
	return nil
}

// Reset removes the checkpoint so the next run starts from the first record.
func (s *FileStore) Reset(context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checkpoint: remove %s: %w", s.path, err)
	}
	return nil
}

// Healthcheck reports whether the checkpoint directory is usable.
func (s *FileStore) Healthcheck(context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrHealthcheckFailed, dir)
	}
	return nil
}

// Lock is an advisory lock guarding a checkpoint against concurrent runs.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes an exclusive lock on path+".lock" without blocking.
// It returns ErrLocked when another process holds it.
func AcquireLock(path string) (*Lock, error) {
	if path == "" {
		path = DefaultFile
	}
	fl := flock.New(path + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("checkpoint: lock %s: %w", fl.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, fl.Path())
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks. The lock file is left in place.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("checkpoint: unlock %s: %w", l.fl.Path(), err)
	}
	return nil
}
