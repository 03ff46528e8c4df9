// Package backups writes point-in-time copies of the kennel dataset to the
// blob store. A backup is the full JSON export plus CSV sheets for dogs,
// litters and sales and a YAML manifest, all under backups/<job-id>/.
package backups

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"kennelcore/internal/blob"
)

// Status describes the lifecycle stage of a backup job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// KeyPrefix is the blob key prefix under which backups are written.
const KeyPrefix = "backups"

// Artifact is one stored backup file.
type Artifact struct {
	Name        string    `json:"name" yaml:"name"`
	Key         string    `json:"key" yaml:"key"`
	ContentType string    `json:"content_type" yaml:"content_type"`
	Size        int64     `json:"size" yaml:"size"`
	SHA256      string    `json:"sha256" yaml:"sha256"`
	Rows        int       `json:"rows,omitempty" yaml:"rows,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Job tracks a backup request and its artifacts.
type Job struct {
	ID          string     `json:"id"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	RequestedBy string     `json:"requested_by,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Prefix returns the blob key prefix holding the job's artifacts.
func (j Job) Prefix() string { return path.Join(KeyPrefix, j.ID) + "/" }

func (j Job) copy() Job {
	dup := j
	dup.Artifacts = append([]Artifact(nil), j.Artifacts...)
	return dup
}

// Request describes who asked for a backup and why.
type Request struct {
	RequestedBy string `json:"requested_by,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Source produces the dataset export a backup is built from.
type Source interface {
	ExportDatabase(ctx context.Context) ([]byte, error)
}

// AuditLogger records backup lifecycle events.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures one backup status transition.
type AuditEntry struct {
	JobID      string    `json:"job_id"`
	Actor      string    `json:"actor,omitempty"`
	Status     Status    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ErrQueueFull is returned by Enqueue when the worker is saturated.
var ErrQueueFull = errors.New("backup queue full")

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the worker logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithAuditLogger records job transitions.
func WithAuditLogger(audit AuditLogger) Option {
	return func(w *Worker) { w.audit = audit }
}

// WithClock overrides the time source used for job timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// WithQueueSize sets the number of jobs that may wait for the worker.
func WithQueueSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

// Worker runs backups asynchronously, one at a time.
type Worker struct {
	source Source
	store  blob.Store
	audit  AuditLogger
	logger *slog.Logger
	now    func() time.Time

	queueSize int
	queue     chan string
	mu        sync.RWMutex
	jobs      map[string]*Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker constructs a backup worker writing to store.
func NewWorker(source Source, store blob.Store, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		source:    source,
		store:     store,
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
		queueSize: 16,
		jobs:      make(map[string]*Job),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.queue = make(chan string, w.queueSize)
	return w
}

// Start begins processing queued backups.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for the running job.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(w.ctx, id)
		}
	}
}

// Enqueue schedules a backup and returns the queued job.
func (w *Worker) Enqueue(ctx context.Context, req Request) (Job, error) {
	job := w.register(ctx, req)
	select {
	case w.queue <- job.ID:
		return job, nil
	default:
		w.fail(ctx, job.ID, ErrQueueFull)
		return Job{}, ErrQueueFull
	}
}

// Run performs a backup synchronously and returns the finished job. The
// error is the job's failure, if any.
func (w *Worker) Run(ctx context.Context, req Request) (Job, error) {
	job := w.register(ctx, req)
	err := w.process(ctx, job.ID)
	job, _ = w.Get(job.ID)
	return job, err
}

// Get returns a snapshot of a job.
func (w *Worker) Get(id string) (Job, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	job, ok := w.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.copy(), true
}

// List returns all known jobs, newest first.
func (w *Worker) List() []Job {
	w.mu.RLock()
	out := make([]Job, 0, len(w.jobs))
	for _, job := range w.jobs {
		out = append(out, job.copy())
	}
	w.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (w *Worker) register(ctx context.Context, req Request) Job {
	now := w.now()
	job := &Job{
		ID:          uuid.NewString(),
		Status:      StatusQueued,
		RequestedBy: req.RequestedBy,
		Reason:      req.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	w.mu.Lock()
	w.jobs[job.ID] = job
	snapshot := job.copy()
	w.mu.Unlock()
	w.record(ctx, snapshot, "")
	return snapshot
}

func (w *Worker) process(ctx context.Context, id string) error {
	w.update(ctx, id, func(j *Job) { j.Status = StatusRunning })

	payload, err := w.source.ExportDatabase(ctx)
	if err != nil {
		err = fmt.Errorf("export dataset: %w", err)
		w.fail(ctx, id, err)
		return err
	}
	artifacts, err := w.write(ctx, id, payload)
	if err != nil {
		w.fail(ctx, id, err)
		return err
	}

	w.update(ctx, id, func(j *Job) {
		now := w.now()
		j.Status = StatusSucceeded
		j.Error = ""
		j.Artifacts = artifacts
		j.CompletedAt = &now
	})
	w.logger.Info("backup complete", "job_id", id, "artifacts", len(artifacts))
	return nil
}

func (w *Worker) fail(ctx context.Context, id string, err error) {
	w.logger.Error("backup failed", "job_id", id, "error", err)
	w.update(ctx, id, func(j *Job) {
		now := w.now()
		j.Status = StatusFailed
		j.Error = err.Error()
		j.CompletedAt = &now
	})
}

func (w *Worker) update(ctx context.Context, id string, fn func(*Job)) {
	w.mu.Lock()
	job, ok := w.jobs[id]
	if !ok {
		w.mu.Unlock()
		return
	}
	fn(job)
	job.UpdatedAt = w.now()
	snapshot := job.copy()
	w.mu.Unlock()
	w.record(ctx, snapshot, snapshot.Error)
}

func (w *Worker) record(ctx context.Context, job Job, errMsg string) {
	if w.audit == nil {
		return
	}
	w.audit.Record(ctx, AuditEntry{
		JobID:      job.ID,
		Actor:      job.RequestedBy,
		Status:     job.Status,
		Reason:     job.Reason,
		Error:      errMsg,
		OccurredAt: job.UpdatedAt,
	})
}

// LogAudit writes audit entries to a structured logger.
type LogAudit struct {
	Logger *slog.Logger
}

// Record implements AuditLogger.
func (l LogAudit) Record(ctx context.Context, e AuditEntry) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "backup audit", "job_id", e.JobID, "status", e.Status, "actor", e.Actor, "error", e.Error)
}

// MemoryAuditLog captures audit entries in memory.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record implements AuditLogger.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a copy of the recorded entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]AuditEntry(nil), l.entries...)
}
