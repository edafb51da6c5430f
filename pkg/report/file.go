package report

import (
	"bytes"
	"context"
	"errors"

	"github.com/google/renameio/v2"

	"github.com/dmitrymomot/courier/pkg/dispatch"
)

// DefaultFile is the report written when no path is configured.
const DefaultFile = "failed_emails_report.xlsx"

// FileSink writes the report to a local file, replacing it atomically.
// The format follows the extension: .csv or .xlsx.
type FileSink struct {
	path   string
	format Format
}

// NewFileSink creates a sink for path. Empty path selects DefaultFile.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		path = DefaultFile
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return &FileSink{path: path, format: format}, nil
}

// Path returns the report location.
func (s *FileSink) Path() string { return s.path }

func (s *FileSink) String() string { return s.path }

// WriteFailures implements dispatch.FailureSink.
func (s *FileSink) WriteFailures(_ context.Context, entries []dispatch.FailureEntry) error {
	var buf bytes.Buffer
	if err := Encode(&buf, s.format, entries); err != nil {
		return err
	}
	if err := renameio.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return errors.Join(ErrWrite, err)
	}
	return nil
}
