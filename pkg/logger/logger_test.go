package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/courier/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json with run id", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := logger.New(logger.Config{}, &buf, logger.RunIDExtractor())
		require.NoError(t, err)

		ctx := logger.WithRunID(context.Background(), "run-1")
		log.InfoContext(ctx, "dispatch started", slog.Int("total", 3))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "dispatch started", entry["msg"])
		assert.Equal(t, "run-1", entry["run_id"])
		assert.InDelta(t, 3, entry["total"], 0)
	})

	t.Run("text format and level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := logger.New(logger.Config{Level: "warn", Format: logger.FormatText}, &buf)
		require.NoError(t, err)

		log.Info("hidden")
		log.Warn("shown", slog.String("row", "2"))

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "level=WARN msg=shown row=2")
	})

	t.Run("no run id in context", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := logger.New(logger.Config{}, &buf, logger.RunIDExtractor(), nil)
		require.NoError(t, err)

		log.InfoContext(context.Background(), "x")
		assert.NotContains(t, buf.String(), "run_id")
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()

		_, err := logger.New(logger.Config{Level: "loud", Format: "xml"}, nil)
		require.ErrorIs(t, err, logger.ErrInvalidLevel)
		require.ErrorIs(t, err, logger.ErrInvalidFormat)
	})

	t.Run("bad sentry dsn falls back to local output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := logger.New(logger.Config{Sentry: logger.SentryConfig{DSN: "not a dsn"}}, &buf)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "failed to initialize Sentry")

		log.Info("still logging")
		assert.Contains(t, buf.String(), "still logging")
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := logger.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := logger.ParseLevel("verbose")
	require.ErrorIs(t, err, logger.ErrInvalidLevel)
}

func TestLogHandlerDecorator_KeepsExtractorsAcrossDerivedHandlers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := logger.NewLogHandlerDecorator(slog.NewTextHandler(&buf, nil), logger.RunIDExtractor())
	log := slog.New(h).With(slog.String("component", "engine"))

	log.InfoContext(logger.WithRunID(context.Background(), "abc"), "tick")

	out := buf.String()
	assert.Contains(t, out, "component=engine")
	assert.Contains(t, out, "run_id=abc")
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	log := logger.NewNope()
	require.NotNil(t, log)
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
