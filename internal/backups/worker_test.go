package backups_test

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kennelcore/internal/backups"
	"kennelcore/internal/blob"
	"kennelcore/internal/core"
	"kennelcore/pkg/domain"
)

var testNow = time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC)

func seededService(t *testing.T) *core.Service {
	t.Helper()
	ctx := context.Background()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(), core.WithClock(core.ClockFunc(func() time.Time { return testNow })))
	sire, _, err := svc.CreateDog(ctx, domain.Dog{Name: "Atlas", Breed: "Vizsla", Sex: domain.SexMale})
	if err != nil {
		t.Fatalf("create sire: %v", err)
	}
	dam, _, err := svc.CreateDog(ctx, domain.Dog{Name: "Bella", Breed: "Vizsla", Sex: domain.SexFemale})
	if err != nil {
		t.Fatalf("create dam: %v", err)
	}
	whelp := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	litter, _, err := svc.CreateLitter(ctx, domain.Litter{Name: "A", SireID: &sire.ID, DamID: &dam.ID, WhelpDate: &whelp, Status: domain.LitterStatusWhelped})
	if err != nil {
		t.Fatalf("create litter: %v", err)
	}
	pup, _, err := svc.CreateDog(ctx, domain.Dog{Name: "Cosmo", Breed: "Vizsla", Sex: domain.SexMale, LitterID: &litter.ID, SireID: &sire.ID, DamID: &dam.ID})
	if err != nil {
		t.Fatalf("create puppy: %v", err)
	}
	client, _, err := svc.CreateClient(ctx, domain.Client{Name: "Drew"})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	sale, _, err := svc.CreateSale(ctx, domain.Sale{ClientID: &client.ID, SaleDate: testNow, Price: decimal.NewFromInt(2000)})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if _, _, err := svc.AddPuppyToSale(ctx, sale.ID, pup.ID, decimal.NewFromInt(2000)); err != nil {
		t.Fatalf("add puppy: %v", err)
	}
	return svc
}

func readBlob(t *testing.T, store blob.Store, key string) string {
	t.Helper()
	_, rc, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return string(data)
}

func TestRunWritesArtifactsAndManifest(t *testing.T) {
	svc := seededService(t)
	store := blob.NewMemory()
	audit := &backups.MemoryAuditLog{}
	w := backups.NewWorker(svc, store, backups.WithAuditLogger(audit), backups.WithClock(func() time.Time { return testNow }))

	job, err := w.Run(context.Background(), backups.Request{RequestedBy: "cli", Reason: "nightly"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if job.Status != backups.StatusSucceeded || job.CompletedAt == nil {
		t.Fatalf("expected succeeded job, got %+v", job)
	}
	names := make([]string, len(job.Artifacts))
	for i, a := range job.Artifacts {
		names[i] = a.Name
		if !strings.HasPrefix(a.Key, job.Prefix()) || a.SHA256 == "" {
			t.Fatalf("unexpected artifact %+v", a)
		}
	}
	if got := strings.Join(names, ","); got != "dataset.json,dogs.csv,litters.csv,sales.csv,manifest.yaml" {
		t.Fatalf("unexpected artifacts %s", got)
	}

	rows, err := csv.NewReader(strings.NewReader(readBlob(t, store, job.Prefix()+"dogs.csv"))).ReadAll()
	if err != nil {
		t.Fatalf("parse dogs.csv: %v", err)
	}
	if len(rows) != 4 || rows[0][1] != "name" || rows[1][1] != "Atlas" || rows[3][6] != "sold" {
		t.Fatalf("unexpected dogs sheet %v", rows)
	}
	if sales := readBlob(t, store, job.Prefix()+"sales.csv"); !strings.Contains(sales, "2000.00") {
		t.Fatalf("expected sale price in sheet, got %s", sales)
	}

	manifest, err := backups.ReadManifest(context.Background(), store, job.ID)
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if manifest.SchemaVersion != domain.CurrentSchemaVersion || manifest.Counts["dog"] != 3 || len(manifest.Artifacts) != 4 {
		t.Fatalf("unexpected manifest %+v", manifest)
	}
	if manifest.Reason != "nightly" {
		t.Fatalf("expected reason in manifest, got %q", manifest.Reason)
	}

	statuses := []backups.Status{}
	for _, e := range audit.Entries() {
		statuses = append(statuses, e.Status)
	}
	if len(statuses) != 3 || statuses[0] != backups.StatusQueued || statuses[2] != backups.StatusSucceeded {
		t.Fatalf("unexpected audit trail %v", statuses)
	}
}

type failingSource struct{}

func (failingSource) ExportDatabase(context.Context) ([]byte, error) {
	return nil, errors.New("store offline")
}

func TestRunReportsSourceFailure(t *testing.T) {
	w := backups.NewWorker(failingSource{}, blob.NewMemory())
	job, err := w.Run(context.Background(), backups.Request{})
	if err == nil || job.Status != backups.StatusFailed || !strings.Contains(job.Error, "store offline") {
		t.Fatalf("expected failed job, got %+v (%v)", job, err)
	}
}

// rejectingStore fails writes of one artifact.
type rejectingStore struct {
	blob.Store
	suffix string
}

func (s rejectingStore) Put(ctx context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	if strings.HasSuffix(key, s.suffix) {
		return blob.Info{}, errors.New("disk full")
	}
	return s.Store.Put(ctx, key, r, opts)
}

func TestFailedBackupLeavesNoPartialArtifacts(t *testing.T) {
	mem := blob.NewMemory()
	w := backups.NewWorker(seededService(t), rejectingStore{Store: mem, suffix: backups.ManifestName})
	job, err := w.Run(context.Background(), backups.Request{})
	if err == nil {
		t.Fatalf("expected failure")
	}
	left, err := mem.List(context.Background(), job.Prefix())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected partial backup removed, found %d blobs", len(left))
	}
}

func TestEnqueueProcessesInBackground(t *testing.T) {
	w := backups.NewWorker(seededService(t), blob.NewMemory())
	w.Start()
	t.Cleanup(func() { _ = w.Stop(context.Background()) })

	queued, err := w.Enqueue(context.Background(), backups.Request{RequestedBy: "api"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if queued.Status != backups.StatusQueued {
		t.Fatalf("expected queued, got %s", queued.Status)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := w.Get(queued.ID)
		if ok && job.Status == backups.StatusSucceeded {
			if jobs := w.List(); len(jobs) != 1 || jobs[0].ID != queued.ID {
				t.Fatalf("unexpected job list %+v", jobs)
			}
			return
		}
		if ok && job.Status == backups.StatusFailed {
			t.Fatalf("job failed: %s", job.Error)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("backup did not finish")
}
