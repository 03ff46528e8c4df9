package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"kennelcore/pkg/domain"
)

// Dialect holds the statements a SQL driver needs to keep the records table.
type Dialect struct {
	Schema     []string
	Select     string
	Upsert     string // entity, id, payload
	Delete     string // entity, id
	DeleteAll  string
	GetMeta    string // key
	PutMeta    string // key, value
	Quarantine string // entity, id, payload, reason, quarantined_at
	// TextPayload sends payloads as strings, as JSONB columns expect.
	TextPayload bool
}

const schemaVersionKey = "schema_version"

// EnsureSchema creates the records, meta and quarantine tables.
func EnsureSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range d.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Load reads every stored row and the recorded schema version. A database
// with rows but no recorded version reports version 0.
func Load(ctx context.Context, db *sql.DB, d Dialect) ([]Row, int, error) {
	rows, err := db.QueryContext(ctx, d.Select)
	if err != nil {
		return nil, 0, fmt.Errorf("select records: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Row
	for rows.Next() {
		var (
			r      Row
			entity string
		)
		if err := rows.Scan(&entity, &r.ID, &r.Payload); err != nil {
			return nil, 0, fmt.Errorf("scan record: %w", err)
		}
		r.Entity = domain.EntityType(entity)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate records: %w", err)
	}

	var raw string
	err = db.QueryRowContext(ctx, d.GetMeta, schemaVersionKey).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if len(out) == 0 {
			return nil, domain.CurrentSchemaVersion, nil
		}
		return out, 0, nil
	case err != nil:
		return nil, 0, fmt.Errorf("read schema version: %w", err)
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("parse schema version %q: %w", raw, err)
	}
	return out, version, nil
}

// Apply writes ops and the current schema version in one SQL transaction.
func Apply(ctx context.Context, db *sql.DB, d Dialect, ops []Op) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		for _, op := range ops {
			if op.Delete {
				if _, err := tx.ExecContext(ctx, d.Delete, string(op.Entity), op.ID); err != nil {
					return fmt.Errorf("delete %s %s: %w", op.Entity, op.ID, err)
				}
				continue
			}
			if _, err := tx.ExecContext(ctx, d.Upsert, string(op.Entity), op.ID, d.payload(op.Payload)); err != nil {
				return fmt.Errorf("upsert %s %s: %w", op.Entity, op.ID, err)
			}
		}
		return putVersion(ctx, tx, d, domain.CurrentSchemaVersion)
	})
}

// Rewrite replaces the stored dataset with snapshot.
func Rewrite(ctx context.Context, db *sql.DB, d Dialect, snapshot domain.Snapshot) error {
	rows, err := Encode(snapshot)
	if err != nil {
		return err
	}
	return inTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, d.DeleteAll); err != nil {
			return fmt.Errorf("clear records: %w", err)
		}
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx, d.Upsert, string(r.Entity), r.ID, d.payload(r.Payload)); err != nil {
				return fmt.Errorf("insert %s %s: %w", r.Entity, r.ID, err)
			}
		}
		return putVersion(ctx, tx, d, snapshot.SchemaVersion)
	})
}

// QuarantineAll moves rows out of the records table into the quarantine
// table, tagging each with reason.
func QuarantineAll(ctx context.Context, db *sql.DB, d Dialect, rows []Row, reason string, now time.Time) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx, d.Quarantine, string(r.Entity), r.ID, r.Payload, reason, now.UTC().Format(time.RFC3339)); err != nil {
				return fmt.Errorf("quarantine %s %s: %w", r.Entity, r.ID, err)
			}
		}
		if _, err := tx.ExecContext(ctx, d.DeleteAll); err != nil {
			return fmt.Errorf("clear records: %w", err)
		}
		return putVersion(ctx, tx, d, domain.CurrentSchemaVersion)
	})
}

func (d Dialect) payload(b []byte) any {
	if d.TextPayload {
		return string(b)
	}
	return b
}

func putVersion(ctx context.Context, tx *sql.Tx, d Dialect, version int) error {
	if _, err := tx.ExecContext(ctx, d.PutMeta, schemaVersionKey, strconv.Itoa(version)); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

func inTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}
