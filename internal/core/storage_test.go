package core_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"kennelcore/internal/core"
	"kennelcore/internal/infra/persistence/memory"
	"kennelcore/internal/infra/persistence/sqlite"
	"kennelcore/pkg/domain"
)

func TestStorageConfigFromEnv(t *testing.T) {
	t.Setenv(core.EnvStorageDriver, "")
	t.Setenv(core.EnvSQLitePath, "")
	if cfg := core.StorageConfigFromEnv(); cfg.Driver != core.StorageSQLite {
		t.Fatalf("expected sqlite default, got %q", cfg.Driver)
	}

	t.Setenv(core.EnvStorageDriver, "postgres")
	t.Setenv(core.EnvPostgresDSN, "postgres://kennel@localhost/kennel")
	cfg := core.StorageConfigFromEnv()
	if cfg.Driver != core.StoragePostgres || cfg.PostgresDSN == "" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestStorageConfigValidate(t *testing.T) {
	if err := (core.StorageConfig{Driver: core.StoragePostgres}).Validate(); err == nil {
		t.Fatalf("postgres without DSN should fail")
	}
	if err := (core.StorageConfig{Driver: "mongo"}).Validate(); err == nil {
		t.Fatalf("unknown driver should fail")
	}
	if _, err := core.OpenStore(core.StorageConfig{Driver: "mongo"}, core.NewDefaultRulesEngine(), nil); err == nil {
		t.Fatalf("OpenStore should reject unknown driver")
	}
}

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv(core.EnvStorageDriver, "memory")
	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", store)
	}
}

func TestOpenSQLitePersistsAcrossReopen(t *testing.T) {
	cfg := core.StorageConfig{Driver: core.StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "kennel.db")}
	clock := core.WithClock(core.ClockFunc(func() time.Time { return testNow }))
	ctx := context.Background()

	svc, err := core.Open(cfg, nil, clock)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := svc.Store().(*sqlite.Store); !ok {
		t.Fatalf("expected *sqlite.Store, got %T", svc.Store())
	}
	dog := mustDog(t, svc, domain.Dog{Name: "Oak", Sex: domain.SexMale})
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := core.Open(cfg, nil, clock)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	got, ok := reopened.GetDog(ctx, dog.ID)
	if !ok || got.Name != "Oak" || !got.CreatedAt.Equal(testNow) {
		t.Fatalf("expected persisted dog, got %+v", got)
	}
}
