package checkpoint

import "errors"

var (
	ErrCorrupt            = errors.New("checkpoint: stored value is not a non-negative integer")
	ErrNegativePosition   = errors.New("checkpoint: position must not be negative")
	ErrLocked             = errors.New("checkpoint: locked by another process")
	ErrEmptyConnectionURL = errors.New("checkpoint: empty connection URL")
	ErrFailedToParseURL   = errors.New("checkpoint: failed to parse connection URL")
	ErrConnectionFailed   = errors.New("checkpoint: failed to establish connection")
	ErrHealthcheckFailed  = errors.New("checkpoint: healthcheck failed")
	ErrUnsupportedDialect = errors.New("checkpoint: unsupported SQL dialect")
	ErrApplyMigrations    = errors.New("checkpoint: failed to apply migrations")
)
