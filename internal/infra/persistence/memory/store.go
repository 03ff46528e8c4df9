// Package memory provides the warm in-memory kennel dataset: indexed tables,
// journaled transactions, named cascades and snapshot migration. Durable
// drivers embed it and persist the changes it reports.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"kennelcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

// Persister makes committed state durable. PersistChanges runs inside the
// store's critical section after rules pass; an error rolls the transaction
// back. PersistSnapshot replaces the durable dataset wholesale.
type Persister interface {
	PersistChanges(ctx context.Context, changes []domain.Change) error
	PersistSnapshot(ctx context.Context, snapshot domain.Snapshot) error
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.idFn = fn
		}
	}
}

// WithPersister attaches a durable backend.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// Store provides an in-memory transactional store for the kennel domain.
type Store struct {
	mu        sync.RWMutex
	state     *memoryState
	engine    *domain.RulesEngine
	nowFn     func() time.Time
	idFn      func() string
	persister Persister
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
		idFn:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RulesEngine exposes the configured engine.
func (s *Store) RulesEngine() *domain.RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// RunInTransaction executes fn against the live dataset under the write lock.
// Every mutation is journaled; if fn fails, a rule blocks, or the persister
// rejects the changes, the journal is replayed backwards and no partial state
// remains.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state,
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		tx.rollback()
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, newTransactionView(tx.state), tx.changes)
		if err != nil {
			tx.rollback()
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			tx.rollback()
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.persister != nil && len(tx.changes) > 0 {
		if err := s.persister.PersistChanges(ctx, tx.changes); err != nil {
			tx.rollback()
			return domain.Result{}, fmt.Errorf("persist changes: %w", err)
		}
	}
	return result, nil
}

// View executes fn against the dataset under the read lock. Collections hand
// out copies, so fn cannot modify stored rows.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(newTransactionView(s.state))
}

// ExportState copies the dataset at the current schema version.
func (s *Store) ExportState(_ context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state), nil
}

// ImportState migrates snapshot, replaces the dataset with it and persists the
// result. The previous dataset is restored if persistence fails.
func (s *Store) ImportState(ctx context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := MigrateSnapshot(&snapshot, s.nowFn()); err != nil {
		return err
	}
	previous := s.state
	s.state = memoryStateFromSnapshot(snapshot)
	if s.persister != nil {
		if err := s.persister.PersistSnapshot(ctx, snapshotFromMemoryState(s.state)); err != nil {
			s.state = previous
			return fmt.Errorf("persist imported snapshot: %w", err)
		}
	}
	return nil
}

// ClearState empties the dataset.
func (s *Store) ClearState(ctx context.Context) error {
	return s.ImportState(ctx, domain.NewSnapshot())
}

// Restore installs a snapshot loaded from a durable backend without writing
// it back. It reports whether migration changed the snapshot, in which case
// the caller must persist the migrated shape.
func (s *Store) Restore(snapshot domain.Snapshot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	migrated, err := MigrateSnapshot(&snapshot, s.nowFn())
	if err != nil {
		return false, err
	}
	s.state = memoryStateFromSnapshot(snapshot)
	return migrated, nil
}

// Close releases nothing for the memory store; durable drivers override it.
func (s *Store) Close() error { return nil }

// transaction applies mutations directly to the live state while holding the
// store's write lock, journaling an undo step for each.
type transaction struct {
	store   *Store
	state   *memoryState
	changes []domain.Change
	journal []func()
	now     time.Time
}

func (tx *transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

func (tx *transaction) undo(step func()) {
	tx.journal = append(tx.journal, step)
}

func (tx *transaction) rollback() {
	for i := len(tx.journal) - 1; i >= 0; i-- {
		tx.journal[i]()
	}
	tx.journal = nil
	tx.changes = nil
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() domain.TransactionView {
	return newTransactionView(tx.state)
}

// Now returns the transaction timestamp.
func (tx *transaction) Now() time.Time { return tx.now }

type recordPtr[T any] interface {
	*T
	BaseRecord() *domain.Base
}

// createRow assigns id and timestamps, runs check (defaults, references and
// validation) and inserts the row.
func createRow[T domain.Record, P recordPtr[T]](tx *transaction, t *table[T], row T, check func(*T) error) (T, error) {
	var zero T
	base := P(&row).BaseRecord()
	if base.ID == "" {
		base.ID = tx.store.idFn()
	} else if t.has(base.ID) {
		return zero, fmt.Errorf("%s %q already exists", t.entity, base.ID)
	}
	base.CreatedAt = tx.now
	base.UpdatedAt = tx.now
	if check != nil {
		if err := check(&row); err != nil {
			return zero, err
		}
	}
	t.insert(tx, row)
	return t.clone(row), nil
}

// updateRow applies mutator to a copy of the stored row, restores the
// immutable id and creation time, runs check and stores the result.
func updateRow[T domain.Record, P recordPtr[T]](tx *transaction, t *table[T], id string, mutator func(*T) error, check func(before T, after *T) error) (T, error) {
	var zero T
	current, ok := t.get(id)
	if !ok {
		return zero, domain.NotFound(t.entity, id)
	}
	before := t.clone(current)
	working := t.clone(current)
	if mutator != nil {
		if err := mutator(&working); err != nil {
			return zero, err
		}
	}
	base := P(&working).BaseRecord()
	base.ID = id
	base.CreatedAt = P(&before).BaseRecord().CreatedAt
	base.UpdatedAt = tx.now
	if check != nil {
		if err := check(before, &working); err != nil {
			return zero, err
		}
	}
	t.replace(tx, before, working)
	return t.clone(working), nil
}

// touch rewrites a row through fn without caller-facing checks; cascades use
// it to null pointers and flip statuses.
func touch[T domain.Record, P recordPtr[T]](tx *transaction, t *table[T], id string, fn func(*T)) {
	current, ok := t.get(id)
	if !ok {
		return
	}
	working := t.clone(current)
	fn(&working)
	P(&working).BaseRecord().UpdatedAt = tx.now
	t.replace(tx, current, working)
}
