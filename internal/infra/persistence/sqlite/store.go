// Package sqlite persists the kennel dataset to a SQLite file, one JSON row per
// record, while serving reads and transactions from the embedded memory store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"kennelcore/internal/infra/persistence/memory"
	"kennelcore/internal/infra/persistence/records"
	"kennelcore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const defaultPath = "kennelcore.db"

var dialect = records.Dialect{
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS records (
			entity TEXT NOT NULL,
			id TEXT NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (entity, id)
		)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records_quarantine (
			entity TEXT NOT NULL,
			id TEXT NOT NULL,
			payload BLOB,
			reason TEXT NOT NULL,
			quarantined_at TEXT NOT NULL
		)`,
	},
	Select:     `SELECT entity, id, payload FROM records ORDER BY entity, id`,
	Upsert:     `INSERT INTO records(entity,id,payload) VALUES(?,?,?) ON CONFLICT(entity,id) DO UPDATE SET payload=excluded.payload`,
	Delete:     `DELETE FROM records WHERE entity = ? AND id = ?`,
	DeleteAll:  `DELETE FROM records`,
	GetMeta:    `SELECT value FROM meta WHERE key = ?`,
	PutMeta:    `INSERT INTO meta(key,value) VALUES(?,?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
	Quarantine: `INSERT INTO records_quarantine(entity,id,payload,reason,quarantined_at) VALUES(?,?,?,?,?)`,
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

// Store writes the records changed by each committed transaction to SQLite
// before the transaction returns.
type Store struct {
	*memory.Store
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database at path and loads it. Undecodable
// data is quarantined and the store starts empty; a snapshot written by a
// newer schema is an error.
func NewStore(path string, engine *domain.RulesEngine, opts ...Option) (*Store, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers, matching the memory store lock.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := records.EnsureSchema(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{db: db, path: path}
	s.Store = memory.NewStore(engine, append(cfg.memOpts, memory.WithPersister(s))...)
	if err := s.load(ctx, cfg.logger); err != nil {
		_ = db.Close()
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
		logger.Error("sqlite dataset is corrupt; quarantining rows and starting empty",
			"path", s.path, "rows", len(corrupt.Rows), "error", corrupt.Err)
		if qErr := records.QuarantineAll(ctx, s.db, dialect, corrupt.Rows, corrupt.Err.Error(), s.NowFunc()()); qErr != nil {
			return fmt.Errorf("quarantine corrupt rows: %w", qErr)
		}
		snapshot = domain.NewSnapshot()
	}
	migrated, err := s.Restore(snapshot)
	if err != nil {
		return err
	}
	if migrated {
		logger.Info("sqlite dataset migrated", "path", s.path, "from", version, "to", domain.CurrentSchemaVersion)
		current, err := s.ExportState(ctx)
		if err != nil {
			return err
		}
		return s.PersistSnapshot(ctx, current)
	}
	return nil
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

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
