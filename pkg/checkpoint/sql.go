package checkpoint

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Dialect selects the SQL flavour of a SQLStore.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// MigrationsTable is the goose version table used by the checkpoint schema.
const MigrationsTable = "courier_schema_migrations"

type queries struct {
	load  string
	save  string
	reset string
}

var dialectQueries = map[Dialect]queries{
	DialectSQLite: {
		load: `SELECT position FROM dispatch_checkpoints WHERE name = ?`,
		save: `INSERT INTO dispatch_checkpoints (name, position, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET position = excluded.position, updated_at = excluded.updated_at`,
		reset: `DELETE FROM dispatch_checkpoints WHERE name = ?`,
	},
	DialectPostgres: {
		load: `SELECT position FROM dispatch_checkpoints WHERE name = $1`,
		save: `INSERT INTO dispatch_checkpoints (name, position, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET position = excluded.position, updated_at = excluded.updated_at`,
		reset: `DELETE FROM dispatch_checkpoints WHERE name = $1`,
	},
}

// SQLStore keeps one row per campaign in the dispatch_checkpoints table.
type SQLStore struct {
	db   *sql.DB
	q    queries
	name string
}

// NewSQLStore creates a store for the named campaign. The schema must
// already exist; see Migrate.
func NewSQLStore(db *sql.DB, dialect Dialect, name string) (*SQLStore, error) {
	q, ok := dialectQueries[dialect]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}
	return &SQLStore{db: db, q: q, name: name}, nil
}

func (s *SQLStore) String() string { return "sql:" + s.name }

// Load implements Store. A missing row is position 0.
func (s *SQLStore) Load(ctx context.Context) (int, error) {
	var position int64
	err := s.db.QueryRowContext(ctx, s.q.load, s.name).Scan(&position)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("checkpoint: load %s: %w", s.name, err)
	}
	if position < 0 {
		return 0, fmt.Errorf("%w: %s", ErrCorrupt, s.name)
	}
	return int(position), nil
}

// Save implements Store.
func (s *SQLStore) Save(ctx context.Context, position int) error {
	if position < 0 {
		return ErrNegativePosition
	}
	if _, err := s.db.ExecContext(ctx, s.q.save, s.name, int64(position), time.Now().UTC()); err != nil {
		return fmt.Errorf("checkpoint: save %s: %w", s.name, err)
	}
	return nil
}

// Reset deletes the campaign's row.
func (s *SQLStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.q.reset, s.name); err != nil {
		return fmt.Errorf("checkpoint: reset %s: %w", s.name, err)
	}
	return nil
}

// Healthcheck pings the database.
func (s *SQLStore) Healthcheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

// OpenSQLite opens (creating if needed) a SQLite database at path.
// Writers wait on a busy database instead of failing immediately.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	return db, nil
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	ConnectionString string        `yaml:"url" env:"URL"`
	RetryAttempts    int           `yaml:"retry_attempts" env:"RETRY_ATTEMPTS"`
	RetryInterval    time.Duration `yaml:"retry_interval" env:"RETRY_INTERVAL"`
	MaxConns         int32         `yaml:"max_conns" env:"MAX_CONNS"`
}

// OpenPostgres connects a pgx pool with retry and bridges it to database/sql.
// Closing the returned *sql.DB does not close the pool; close both.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*sql.DB, *pgxpool.Pool, error) {
	if cfg.ConnectionString == "" {
		return nil, nil, ErrEmptyConnectionURL
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, nil, errors.Join(ErrFailedToParseURL, err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	attempts := max(cfg.RetryAttempts, 1)
	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return stdlib.OpenDBFromPool(pool), pool, nil
			}
			pool.Close()
		}

		if i == attempts-1 {
			break
		}
		if err := wait(ctx, time.Duration(i+1)*interval); err != nil {
			return nil, nil, errors.Join(ErrConnectionFailed, err)
		}
	}

	return nil, nil, ErrConnectionFailed
}

// goose keeps its configuration in package globals.
var migrateMu sync.Mutex

// Migrate applies the embedded checkpoint schema migrations.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect, log *slog.Logger) error {
	if _, ok := dialectQueries[dialect]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLoggerAdapter{log})
	goose.SetTableName(MigrationsTable)

	if err := goose.SetDialect(string(dialect)); err != nil {
		return errors.Join(ErrUnsupportedDialect, err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}
	return nil
}

type gooseLoggerAdapter struct {
	log *slog.Logger
}

func (g *gooseLoggerAdapter) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

func (g *gooseLoggerAdapter) Fatalf(format string, args ...any) {
	g.log.Error(fmt.Sprintf(format, args...))
}
