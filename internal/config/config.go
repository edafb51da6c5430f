// Package config loads the courier configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// COURIER_* environment variables. Command-line flags are applied on top by
// the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/courier/pkg/checkpoint"
	"github.com/dmitrymomot/courier/pkg/logger"
	"github.com/dmitrymomot/courier/pkg/mailer/smtp"
	"github.com/dmitrymomot/courier/pkg/netprobe"
	"github.com/dmitrymomot/courier/pkg/report"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "COURIER_"

// Checkpoint backends.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

var (
	ErrReadFile = errors.New("config: failed to read config file")
	ErrParse    = errors.New("config: failed to parse configuration")
	ErrInvalid  = errors.New("config: invalid configuration")
)

// Config is the full courier configuration.
type Config struct {
	// Contacts is the CSV or XLSX contact sheet.
	Contacts string `yaml:"contacts" env:"CONTACTS"`
	// TemplatesDir resolves relative html_file paths. Default: working directory.
	TemplatesDir string `yaml:"templates_dir" env:"TEMPLATES_DIR"`
	// Delay is the pause between consecutive sends.
	Delay time.Duration `yaml:"delay" env:"DELAY"`
	// AttemptTimeout bounds a single delivery attempt.
	AttemptTimeout time.Duration `yaml:"attempt_timeout" env:"ATTEMPT_TIMEOUT"`

	SMTP       smtp.Config      `yaml:"smtp" envPrefix:"SMTP_"`
	Checkpoint CheckpointConfig `yaml:"checkpoint" envPrefix:"CHECKPOINT_"`
	Report     ReportConfig     `yaml:"report" envPrefix:"REPORT_"`
	Probe      ProbeConfig      `yaml:"probe" envPrefix:"PROBE_"`
	Control    ControlConfig    `yaml:"control" envPrefix:"CONTROL_"`
	Log        logger.Config    `yaml:"log" envPrefix:"LOG_"`
}

// CheckpointConfig selects where the resume position is stored.
type CheckpointConfig struct {
	// Backend is file, redis, sqlite or postgres. Default: file.
	Backend string `yaml:"backend" env:"BACKEND"`
	// Path is the checkpoint file for the file backend.
	Path string `yaml:"path" env:"PATH"`
	// Name identifies the campaign in shared backends.
	Name string `yaml:"name" env:"NAME"`
	// RedisURL is a redis:// or rediss:// URL.
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string                    `yaml:"sqlite_path" env:"SQLITE_PATH"`
	Postgres   checkpoint.PostgresConfig `yaml:"postgres" envPrefix:"POSTGRES_"`
	// Lock guards the file checkpoint against concurrent runs.
	Lock bool `yaml:"lock" env:"LOCK"`
}

// ReportConfig selects where the failure report goes.
type ReportConfig struct {
	// Path is the local report file, .csv or .xlsx.
	Path string          `yaml:"path" env:"PATH"`
	S3   report.S3Config `yaml:"s3" envPrefix:"S3_"`
}

// ProbeConfig configures network reachability checks.
type ProbeConfig struct {
	Address  string        `yaml:"address" env:"ADDRESS"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	Disabled bool          `yaml:"disabled" env:"DISABLED"`
}

// ControlConfig configures the optional HTTP control server.
type ControlConfig struct {
	// Addr enables the server when set, e.g. "127.0.0.1:8080".
	Addr            string        `yaml:"addr" env:"ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	ReadyTimeout    time.Duration `yaml:"ready_timeout" env:"READY_TIMEOUT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Delay:          0,
		AttemptTimeout: smtp.DefaultTimeout,
		SMTP:           smtp.DefaultConfig(),
		Checkpoint: CheckpointConfig{
			Backend:    BackendFile,
			Path:       checkpoint.DefaultFile,
			Name:       "default",
			SQLitePath: "courier.db",
			Lock:       true,
		},
		Report: ReportConfig{
			Path: report.DefaultFile,
		},
		Probe: ProbeConfig{
			Address:  netprobe.DefaultAddress,
			Timeout:  netprobe.DefaultTimeout,
			Interval: 5 * time.Second,
		},
		Control: ControlConfig{
			ShutdownTimeout: 10 * time.Second,
			ReadyTimeout:    5 * time.Second,
		},
		Log: logger.Config{
			Level:  "info",
			Format: logger.FormatText,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// not empty) and the environment. A nil environ reads the process
// environment. The result is not validated; call Validate after applying
// flags.
func Load(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Join(ErrReadFile, err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}); err != nil {
		return cfg, errors.Join(ErrParse, err)
	}

	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(ErrParse, err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Contacts == "" {
		invalid("contacts file is required")
	}
	if c.Delay < 0 {
		invalid("delay must not be negative")
	}
	if c.SMTP.Host == "" {
		invalid("smtp host is required")
	}
	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		invalid("smtp port %d out of range", c.SMTP.Port)
	}

	switch c.Checkpoint.Backend {
	case BackendFile:
	case BackendRedis:
		if c.Checkpoint.RedisURL == "" {
			invalid("checkpoint redis_url is required for the redis backend")
		}
	case BackendSQLite:
		if c.Checkpoint.SQLitePath == "" {
			invalid("checkpoint sqlite_path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Checkpoint.Postgres.ConnectionString == "" {
			invalid("checkpoint postgres url is required for the postgres backend")
		}
	default:
		invalid("unknown checkpoint backend %q", c.Checkpoint.Backend)
	}
	if c.Checkpoint.Backend != BackendFile && c.Checkpoint.Name == "" {
		invalid("checkpoint name is required for shared backends")
	}

	if c.Report.Path != "" {
		if _, err := report.FormatFromPath(c.Report.Path); err != nil {
			errs = append(errs, errors.Join(ErrInvalid, err))
		}
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, errors.Join(ErrInvalid, err))
	}

	return errors.Join(errs...)
}
