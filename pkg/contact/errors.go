package contact

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadable indicates the contact file could not be opened or parsed.
	ErrUnreadable = errors.New("contact: source is unreadable")

	// ErrMissingColumn indicates a required column is absent from the header.
	ErrMissingColumn = errors.New("contact: missing required column")

	// ErrUnsupportedFormat indicates a file extension with no reader.
	ErrUnsupportedFormat = errors.New("contact: unsupported file format")

	// ErrEmptyHeader indicates the sheet has no header row.
	ErrEmptyHeader = errors.New("contact: header row not found")
)

// ValidationError reports a record that fails the required-field check.
type ValidationError struct {
	Column string
	Reason string
	Row    int
}

func (e *ValidationError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("contact: row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("contact: row %d, column %q: %s", e.Row, e.Column, e.Reason)
}
