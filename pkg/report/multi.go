package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/courier/pkg/dispatch"
)

// MultiSink writes the same report to several sinks.
type MultiSink struct {
	sinks []dispatch.FailureSink
}

// Multi combines sinks. Every sink is attempted; errors are joined.
func Multi(sinks ...dispatch.FailureSink) *MultiSink {
	clean := make([]dispatch.FailureSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			clean = append(clean, s)
		}
	}
	return &MultiSink{sinks: clean}
}

// WriteFailures implements dispatch.FailureSink.
func (m *MultiSink) WriteFailures(ctx context.Context, entries []dispatch.FailureEntry) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.WriteFailures(ctx, entries); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) String() string {
	names := make([]string, 0, len(m.sinks))
	for _, s := range m.sinks {
		if st, ok := s.(fmt.Stringer); ok {
			names = append(names, st.String())
		}
	}
	return strings.Join(names, ", ")
}
