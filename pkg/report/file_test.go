package report_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dmitrymomot/courier/pkg/dispatch"
	"github.com/dmitrymomot/courier/pkg/report"
)

var entries = []dispatch.FailureEntry{
	{Index: 4, SenderEmail: "a@example.com", RecipientEmail: "x@example.com", Subject: "Hi", Error: "550 no such user"},
	{Index: 1, SenderEmail: "b@example.com", RecipientEmail: "y@example.com", Subject: "Hello, again", Error: "error loading HTML file"},
}

func TestEncode_CSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.Encode(&buf, report.FormatCSV, entries))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"from_email", "to_email", "subject", "error_message"},
		{"a@example.com", "x@example.com", "Hi", "550 no such user"},
		{"b@example.com", "y@example.com", "Hello, again", "error loading HTML file"},
	}, rows)
}

func TestEncode_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := report.Encode(&bytes.Buffer{}, "pdf", entries)
	require.ErrorIs(t, err, report.ErrUnsupportedFormat)
}

func TestFileSink(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("xlsx", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "failed.xlsx")
		sink, err := report.NewFileSink(path)
		require.NoError(t, err)
		require.NoError(t, sink.WriteFailures(ctx, entries))

		f, err := excelize.OpenFile(path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = f.Close() })

		rows, err := f.GetRows(f.GetSheetName(0))
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, report.Columns, rows[0])
		assert.Equal(t, []string{"a@example.com", "x@example.com", "Hi", "550 no such user"}, rows[1])
		assert.Equal(t, "y@example.com", rows[2][1])
	})

	t.Run("csv replaces previous report", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "failed.csv")
		sink, err := report.NewFileSink(path)
		require.NoError(t, err)

		require.NoError(t, sink.WriteFailures(ctx, entries))
		require.NoError(t, sink.WriteFailures(ctx, entries[:1]))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		require.NoError(t, err)
		assert.Len(t, rows, 2)
		assert.Equal(t, path, sink.String())
	})

	t.Run("default path", func(t *testing.T) {
		t.Parallel()

		sink, err := report.NewFileSink("")
		require.NoError(t, err)
		assert.Equal(t, report.DefaultFile, sink.Path())
	})

	t.Run("unsupported extension", func(t *testing.T) {
		t.Parallel()

		_, err := report.NewFileSink("failed.json")
		require.ErrorIs(t, err, report.ErrUnsupportedFormat)
	})

	t.Run("unwritable directory", func(t *testing.T) {
		t.Parallel()

		sink, err := report.NewFileSink(filepath.Join(t.TempDir(), "missing", "failed.csv"))
		require.NoError(t, err)
		require.ErrorIs(t, sink.WriteFailures(ctx, entries), report.ErrWrite)
	})
}

type stubSink struct {
	err   error
	name  string
	calls int
}

func (s *stubSink) WriteFailures(context.Context, []dispatch.FailureEntry) error {
	s.calls++
	return s.err
}

func (s *stubSink) String() string { return s.name }

func TestMulti(t *testing.T) {
	t.Parallel()

	errA := errors.New("a failed")
	a := &stubSink{name: "a", err: errA}
	b := &stubSink{name: "b"}

	m := report.Multi(a, nil, b)
	err := m.WriteFailures(context.Background(), entries)

	require.ErrorIs(t, err, errA)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls, "later sinks still run after an error")
	assert.Equal(t, "a, b", m.String())
}
