package smtp

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHost = errors.New("smtp: host is required")
	ErrInvalidPort = errors.New("smtp: port out of range")
)

// SendError describes a failed delivery attempt.
type SendError struct {
	Err       error
	Op        string
	Recipient string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("smtp: %s to %s: %v", e.Op, e.Recipient, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}
