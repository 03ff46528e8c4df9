// Package postgres provides a Postgres-backed persistent store that mirrors the
// in-memory semantics while keeping one JSONB row per record.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"kennelcore/internal/infra/persistence/memory"
	"kennelcore/internal/infra/persistence/records"
	"kennelcore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/kennelcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var dialect = records.Dialect{
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS records (
			entity TEXT NOT NULL,
			id TEXT NOT NULL,
			payload JSONB NOT NULL,
			PRIMARY KEY (entity, id)
		)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records_quarantine (
			entity TEXT NOT NULL,
			id TEXT NOT NULL,
			payload BYTEA,
			reason TEXT NOT NULL,
			quarantined_at TIMESTAMPTZ NOT NULL
		)`,
	},
	Select:      `SELECT entity, id, payload FROM records ORDER BY entity, id`,
	Upsert:      `INSERT INTO records(entity,id,payload) VALUES($1,$2,$3) ON CONFLICT(entity,id) DO UPDATE SET payload=EXCLUDED.payload`,
	Delete:      `DELETE FROM records WHERE entity = $1 AND id = $2`,
	DeleteAll:   `DELETE FROM records`,
	GetMeta:     `SELECT value FROM meta WHERE key = $1`,
	PutMeta:     `INSERT INTO meta(key,value) VALUES($1,$2) ON CONFLICT(key) DO UPDATE SET value=EXCLUDED.value`,
	Quarantine:  `INSERT INTO records_quarantine(entity,id,payload,reason,quarantined_at) VALUES($1,$2,$3,$4,$5)`,
	TextPayload: true,
}

// Option configures a Store.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	memOpts []memory.Option
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMemoryOptions forwards options to the embedded memory store.
func WithMemoryOptions(opts ...memory.Option) Option {
	return func(c *config) { c.memOpts = append(c.memOpts, opts...) }
}

// Store persists state to Postgres while reusing the in-memory implementation for transactions.
type Store struct {
	*memory.Store
	db *sql.DB
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back to defaultDSN).
// It ensures the record tables exist and hydrates the in-memory store from them.
func NewStore(dsn string, engine *domain.RulesEngine, opts ...Option) (*Store, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := records.EnsureSchema(ctx, db, dialect); err != nil {
		return nil, err
	}
	s := &Store{db: db}
	s.Store = memory.NewStore(engine, append(cfg.memOpts, memory.WithPersister(s))...)
	if err := s.load(ctx, cfg.logger); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context, logger *slog.Logger) error {
	rows, version, err := records.Load(ctx, s.db, dialect)
	if err != nil {
		return err
	}
	snapshot, err := records.Decode(rows, version)
	if err != nil {
		var corrupt *records.CorruptError
		if !errors.As(err, &corrupt) {
			return err
		}
		logger.Error("postgres dataset is corrupt; quarantining rows and starting empty",
			"rows", len(corrupt.Rows), "error", corrupt.Err)
		if qErr := records.QuarantineAll(ctx, s.db, dialect, corrupt.Rows, corrupt.Err.Error(), s.NowFunc()()); qErr != nil {
			return fmt.Errorf("quarantine corrupt rows: %w", qErr)
		}
		snapshot = domain.NewSnapshot()
	}
	migrated, err := s.Restore(snapshot)
	if err != nil {
		return err
	}
	if !migrated {
		return nil
	}
	logger.Info("postgres dataset migrated", "from", version, "to", domain.CurrentSchemaVersion)
	current, err := s.ExportState(ctx)
	if err != nil {
		return err
	}
	return s.PersistSnapshot(ctx, current)
}

// PersistChanges upserts and deletes the records touched by a transaction.
func (s *Store) PersistChanges(ctx context.Context, changes []domain.Change) error {
	ops, err := records.FromChanges(changes)
	if err != nil {
		return err
	}
	return records.Apply(ctx, s.db, dialect, ops)
}

// PersistSnapshot rewrites the whole records table.
func (s *Store) PersistSnapshot(ctx context.Context, snapshot domain.Snapshot) error {
	return records.Rewrite(ctx, s.db, dialect, snapshot)
}

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
