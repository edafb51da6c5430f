package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/courier/internal/config"
	"github.com/dmitrymomot/courier/pkg/checkpoint"
	"github.com/dmitrymomot/courier/pkg/dispatch"
	"github.com/dmitrymomot/courier/pkg/netprobe"
	"github.com/dmitrymomot/courier/pkg/report"
)

// checkpointStore is what the command needs from every backend.
type checkpointStore interface {
	dispatch.CheckpointStore
	Reset(ctx context.Context) error
	Healthcheck(ctx context.Context) error
}

// openCheckpoint connects the configured backend. The returned func
// releases every resource it acquired.
func openCheckpoint(ctx context.Context, cfg config.CheckpointConfig, log *slog.Logger) (checkpointStore, func(), error) {
	switch cfg.Backend {
	case config.BackendFile:
		store := checkpoint.NewFileStore(cfg.Path)
		if !cfg.Lock {
			return store, func() {}, nil
		}
		lock, err := checkpoint.AcquireLock(store.Path())
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = lock.Release() }, nil

	case config.BackendRedis:
		client, err := checkpoint.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return checkpoint.NewRedisStore(client, cfg.Name), func() { _ = client.Close() }, nil

	case config.BackendSQLite:
		db, err := checkpoint.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := migrated(ctx, db, checkpoint.DialectSQLite, cfg.Name, log)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil

	case config.BackendPostgres:
		db, pool, err := checkpoint.OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		closeAll := func() {
			_ = db.Close()
			pool.Close()
		}
		store, err := migrated(ctx, db, checkpoint.DialectPostgres, cfg.Name, log)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		return store, closeAll, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown checkpoint backend %q", config.ErrInvalid, cfg.Backend)
}

func migrated(ctx context.Context, db *sql.DB, dialect checkpoint.Dialect, name string, log *slog.Logger) (*checkpoint.SQLStore, error) {
	if err := checkpoint.Migrate(ctx, db, dialect, log); err != nil {
		return nil, err
	}
	return checkpoint.NewSQLStore(db, dialect, name)
}

// buildSink returns nil when no report destination is configured.
func buildSink(cfg config.ReportConfig) (dispatch.FailureSink, error) {
	var sinks []dispatch.FailureSink
	if cfg.Path != "" {
		fileSink, err := report.NewFileSink(cfg.Path)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fileSink)
	}
	if cfg.S3.Enabled() {
		s3Sink, err := report.NewS3Sink(cfg.S3)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s3Sink)
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	}
	return report.Multi(sinks...), nil
}

func buildProbe(cfg config.ProbeConfig) netprobe.Prober {
	if cfg.Disabled {
		return netprobe.Static(true)
	}
	return netprobe.New(cfg.Address, cfg.Timeout)
}
