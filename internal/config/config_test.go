package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/courier/internal/config"
	"github.com/dmitrymomot/courier/pkg/checkpoint"
	"github.com/dmitrymomot/courier/pkg/report"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "courier.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("", map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.True(t, cfg.SMTP.TLS)
	assert.Equal(t, config.BackendFile, cfg.Checkpoint.Backend)
	assert.Equal(t, checkpoint.DefaultFile, cfg.Checkpoint.Path)
	assert.Equal(t, report.DefaultFile, cfg.Report.Path)
	assert.Equal(t, "8.8.8.8:53", cfg.Probe.Address)
	assert.Equal(t, 5*time.Second, cfg.Probe.Interval)
	assert.Empty(t, cfg.Control.Addr)
}

func TestLoad_FileThenEnv(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `
contacts: contacts.xlsx
delay: 3s
smtp:
  host: smtp.example.com
  port: 2525
checkpoint:
  backend: sqlite
  name: spring
report:
  path: failures.csv
  s3:
    bucket: reports
log:
  level: debug
`)

	cfg, err := config.Load(path, map[string]string{
		"COURIER_DELAY":             "5s",
		"COURIER_SMTP_TLS":          "false",
		"COURIER_CHECKPOINT_NAME":   "autumn",
		"COURIER_REPORT_S3_PREFIX":  "runs",
		"COURIER_CONTROL_ADDR":      "127.0.0.1:9090",
		"COURIER_LOG_SENTRY_DSN":    "",
		"UNRELATED_CHECKPOINT_NAME": "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, "contacts.xlsx", cfg.Contacts)
	assert.Equal(t, 5*time.Second, cfg.Delay, "env overrides file")
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.False(t, cfg.SMTP.TLS)
	assert.Equal(t, config.BackendSQLite, cfg.Checkpoint.Backend)
	assert.Equal(t, "autumn", cfg.Checkpoint.Name)
	assert.Equal(t, "courier.db", cfg.Checkpoint.SQLitePath, "defaults survive partial files")
	assert.Equal(t, "failures.csv", cfg.Report.Path)
	assert.Equal(t, "reports", cfg.Report.S3.Bucket)
	assert.Equal(t, "runs", cfg.Report.S3.Prefix)
	assert.Equal(t, "127.0.0.1:9090", cfg.Control.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), map[string]string{})
		require.ErrorIs(t, err, config.ErrReadFile)
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load(writeFile(t, "smtp:\n  hostname: x\n"), map[string]string{})
		require.ErrorIs(t, err, config.ErrParse)
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load("", map[string]string{"COURIER_DELAY": "soon"})
		require.ErrorIs(t, err, config.ErrParse)
	})

	t.Run("empty file keeps defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.Load(writeFile(t, ""), map[string]string{})
		require.NoError(t, err)
		assert.Equal(t, 587, cfg.SMTP.Port)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() config.Config {
		cfg := config.Default()
		cfg.Contacts = "contacts.csv"
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		mutate func(*config.Config)
		name   string
		want   string
	}{
		{name: "no contacts", want: "contacts file is required", mutate: func(c *config.Config) { c.Contacts = "" }},
		{name: "negative delay", want: "delay", mutate: func(c *config.Config) { c.Delay = -time.Second }},
		{name: "bad port", want: "smtp port", mutate: func(c *config.Config) { c.SMTP.Port = 0 }},
		{name: "unknown backend", want: "unknown checkpoint backend", mutate: func(c *config.Config) { c.Checkpoint.Backend = "etcd" }},
		{name: "redis without url", want: "redis_url", mutate: func(c *config.Config) { c.Checkpoint.Backend = config.BackendRedis }},
		{name: "postgres without url", want: "postgres url", mutate: func(c *config.Config) { c.Checkpoint.Backend = config.BackendPostgres }},
		{name: "report extension", want: "unsupported report format", mutate: func(c *config.Config) { c.Report.Path = "failed.json" }},
		{name: "log level", want: "invalid level", mutate: func(c *config.Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, config.ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
