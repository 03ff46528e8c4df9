package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"kennelcore/pkg/domain"
)

// Logger is the structured logger used by the service. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// MetricsRecorder observes the outcome and latency of service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// TraceSpan is an in-flight span. End records the outcome.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopTracer struct{}

type noopSpan struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

func (noopSpan) End(error) {}

// AuditStatus is the outcome recorded in an audit entry.
type AuditStatus string

// Audit outcomes.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one completed mutation.
type AuditEntry struct {
	Operation string            `json:"operation"`
	Entity    domain.EntityType `json:"entity"`
	Action    domain.Action     `json:"action"`
	EntityID  string            `json:"entity_id,omitempty"`
	Status    AuditStatus       `json:"status"`
	Error     string            `json:"error,omitempty"`
	Duration  time.Duration     `json:"duration"`
	Timestamp time.Time         `json:"timestamp"`
}

// AuditRecorder receives audit entries for mutating operations.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, AuditEntry) {}

// MemoryAuditRecorder keeps the most recent audit entries in memory.
type MemoryAuditRecorder struct {
	mu      sync.Mutex
	limit   int
	entries []AuditEntry
}

// NewMemoryAuditRecorder retains up to limit entries; limit <= 0 keeps all.
func NewMemoryAuditRecorder(limit int) *MemoryAuditRecorder {
	return &MemoryAuditRecorder{limit: limit}
}

// Record implements AuditRecorder.
func (r *MemoryAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	if r.limit > 0 && len(r.entries) > r.limit {
		r.entries = append([]AuditEntry(nil), r.entries[len(r.entries)-r.limit:]...)
	}
}

// Entries returns a copy of the retained entries, oldest first.
func (r *MemoryAuditRecorder) Entries() []AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AuditEntry(nil), r.entries...)
}

type auditTarget struct {
	entity domain.EntityType
	action domain.Action
}

// workflowTargets maps operations that are not plain create/update/delete
// names onto the record they change.
var workflowTargets = map[string]auditTarget{
	"convert_interest":      {domain.EntityClientInterest, domain.ActionUpdate},
	"add_sale_puppy":        {domain.EntitySalePuppy, domain.ActionCreate},
	"remove_sale_puppy":     {domain.EntitySalePuppy, domain.ActionDelete},
	"generate_health_tasks": {domain.EntityPuppyHealthTask, domain.ActionCreate},
	"reorder_waitlist":      {domain.EntityWaitlistEntry, domain.ActionUpdate},
	"reorder_litter_photos": {domain.EntityLitterPhoto, domain.ActionUpdate},
	"tag_document":          {domain.EntityDocumentTagLink, domain.ActionCreate},
	"untag_document":        {domain.EntityDocumentTagLink, domain.ActionDelete},
	"link_document":         {domain.EntityDocument, domain.ActionUpdate},
	"unlink_document":       {domain.EntityDocument, domain.ActionUpdate},
	"attach_document":       {domain.EntityDocument, domain.ActionUpdate},
}

var auditEntities = func() map[domain.EntityType]struct{} {
	known := make(map[domain.EntityType]struct{})
	for entity := range domain.NewSnapshot().Counts() {
		known[entity] = struct{}{}
	}
	return known
}()

// auditTargetFor resolves "create_dog" style operation names.
func auditTargetFor(operation string) (auditTarget, bool) {
	if target, ok := workflowTargets[operation]; ok {
		return target, true
	}
	verb, rest, ok := strings.Cut(operation, "_")
	if !ok {
		return auditTarget{}, false
	}
	var action domain.Action
	switch verb {
	case "create":
		action = domain.ActionCreate
	case "update":
		action = domain.ActionUpdate
	case "delete":
		action = domain.ActionDelete
	default:
		return auditTarget{}, false
	}
	entity := domain.EntityType(rest)
	if _, known := auditEntities[entity]; !known {
		return auditTarget{}, false
	}
	return auditTarget{entity: entity, action: action}, true
}

func (s *Service) recordAudit(ctx context.Context, operation, entityID string, duration time.Duration, err error) {
	target, ok := auditTargetFor(operation)
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: operation,
		Entity:    target.entity,
		Action:    target.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}
