package logger

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	ErrInvalidLevel  = errors.New("logger: invalid level")
	ErrInvalidFormat = errors.New("logger: invalid format")
)

// Format selects the log encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config describes the process logger.
type Config struct {
	// Level is debug, info, warn or error. Default: info.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or text. Default: json.
	Format Format       `yaml:"format" env:"FORMAT"`
	Sentry SentryConfig `yaml:"sentry" envPrefix:"SENTRY_"`
}

// SentryConfig holds Sentry integration configuration.
// Sentry is disabled when DSN is empty.
type SentryConfig struct {
	DSN         string `yaml:"dsn" env:"DSN"`
	Environment string `yaml:"environment" env:"ENVIRONMENT"`
	// MinLevel determines which log levels are sent to Sentry: warn (default) or error.
	MinLevel string `yaml:"min_level" env:"MIN_LEVEL"`
}

// Validate checks level and format.
func (c Config) Validate() error {
	var errs []error
	if _, err := ParseLevel(c.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Format {
	case "", FormatJSON, FormatText:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format))
	}
	if _, err := ParseLevel(c.Sentry.MinLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel converts a level name to slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	return level, nil
}
