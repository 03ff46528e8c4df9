// Package core is the kennel engine's service layer: transactional CRUD with
// one level of hydration, aggregate queries, breeding workflows, document
// content and whole-dataset import/export over a domain.PersistentStore.
package core

import (
	"context"
	"errors"
	"time"

	"kennelcore/internal/blob"
	"kennelcore/internal/infra/persistence/memory"
	"kennelcore/pkg/domain"
)

// Service exposes higher-level transactional operations for the kennel dataset.
type Service struct {
	store   domain.PersistentStore
	blobs   blob.Store
	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for aggregates and audit stamps.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMetricsRecorder sets the operation metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer sets the tracer wrapping each operation.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithAuditRecorder sets the audit sink for mutations.
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithBlobStore sets the store holding document content.
func WithBlobStore(store blob.Store) Option {
	return func(s *Service) { s.blobs = store }
}

func newService(opts []Option) *Service {
	s := &Service{
		logger:  noopLogger{},
		clock:   systemClock{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		audit:   noopAudit{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	s := newService(opts)
	s.store = store
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store that
// stamps records with the service clock.
func NewInMemoryService(engine *domain.RulesEngine, opts ...Option) *Service {
	s := newService(opts)
	s.store = memory.NewStore(engine, memory.WithClock(s.clock.Now))
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore { return s.store }

// Blobs returns the configured blob store, or nil.
func (s *Service) Blobs() blob.Store { return s.blobs }

// Close closes the underlying store.
func (s *Service) Close() error { return s.store.Close() }

// run wraps one operation with tracing, metrics, logging and auditing. fn
// returns the id of the record it touched.
func (s *Service) run(ctx context.Context, op string, fn func(context.Context) (string, domain.Result, error)) (domain.Result, error) {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op)
	id, res, err := fn(ctx)
	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	s.recordAudit(ctx, op, id, duration, err)
	if err != nil {
		s.logger.Error("kennel operation failed", "operation", op, "entity_id", id, "duration", duration, "error", err)
		return res, err
	}
	for _, v := range res.Violations {
		s.logger.Warn("rule violation", "operation", op, "rule", v.Rule, "severity", v.Severity,
			"entity", v.Entity, "entity_id", v.EntityID, "message", v.Message)
	}
	s.logger.Debug("kennel operation completed", "operation", op, "entity_id", id, "duration", duration)
	return res, nil
}

// mutate runs fn in a store transaction under op and returns the record it
// produced.
func mutate[T domain.Record](ctx context.Context, s *Service, op string, fn func(domain.Transaction) (T, error)) (T, domain.Result, error) {
	var out T
	res, err := s.run(ctx, op, func(ctx context.Context) (string, domain.Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			out, err = fn(tx)
			return err
		})
		return out.RecordID(), res, err
	})
	if err != nil {
		var zero T
		return zero, res, err
	}
	return out, res, nil
}

// transact runs fn in a store transaction under op. id names the record
// reported to audit.
func (s *Service) transact(ctx context.Context, op, id string, fn func(domain.Transaction) error) (domain.Result, error) {
	return s.run(ctx, op, func(ctx context.Context) (string, domain.Result, error) {
		res, err := s.store.RunInTransaction(ctx, fn)
		return id, res, err
	})
}

// remove runs a delete under op. A missing id reports false without error.
func (s *Service) remove(ctx context.Context, op, id string, fn func(domain.Transaction) error) (bool, domain.Result, error) {
	found := true
	res, err := s.run(ctx, op, func(ctx context.Context) (string, domain.Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			err := fn(tx)
			if errors.Is(err, domain.ErrNotFound) {
				found = false
				return nil
			}
			return err
		})
		return id, res, err
	})
	if err != nil {
		return false, res, err
	}
	return found, res, nil
}

// view runs fn under the store's read lock.
func (s *Service) view(ctx context.Context, fn func(domain.TransactionView)) {
	_ = s.store.View(ctx, func(v domain.TransactionView) error {
		fn(v)
		return nil
	})
}

func (s *Service) now() time.Time { return s.clock.Now() }
