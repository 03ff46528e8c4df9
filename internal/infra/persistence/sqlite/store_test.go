package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kennelcore/internal/infra/persistence/records"
	"kennelcore/pkg/domain"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := NewStore(path, domain.NewRulesEngine(), WithLogger(quietLogger()))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	return store
}

func mustTx(t *testing.T, s *Store, fn func(tx domain.Transaction) error) {
	t.Helper()
	if _, err := s.RunInTransaction(context.Background(), fn); err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func dogCount(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	_ = s.View(context.Background(), func(v domain.TransactionView) error {
		n = v.Dogs().Len()
		return nil
	})
	return n
}

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kennel.db")
	store := openStore(t, path)

	var dam domain.Dog
	mustTx(t, store, func(tx domain.Transaction) error {
		var err error
		dam, err = tx.CreateDog(domain.Dog{Name: "Persist", Sex: domain.SexFemale})
		if err != nil {
			return err
		}
		_, err = tx.CreateLitter(domain.Litter{DamID: &dam.ID})
		return err
	})
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded := openStore(t, path)
	if got := dogCount(t, reloaded); got != 1 {
		t.Fatalf("expected 1 dog after reload, got %d", got)
	}
	mustTx(t, reloaded, func(tx domain.Transaction) error { return tx.DeleteDog(dam.ID) })
	_ = reloaded.Close()

	again := openStore(t, path)
	defer func() { _ = again.Close() }()
	if got := dogCount(t, again); got != 0 {
		t.Fatalf("expected delete to persist, got %d dogs", got)
	}
	var litters []domain.Litter
	_ = again.View(context.Background(), func(v domain.TransactionView) error {
		litters = v.Litters().List()
		return nil
	})
	if len(litters) != 1 || litters[0].DamID != nil {
		t.Fatalf("expected cascade-nulled dam pointer to persist, got %+v", litters)
	}
}

func TestSQLiteStoreFailedTransactionWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kennel.db")
	store := openStore(t, path)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateDog(domain.Dog{Name: "Ghost", Sex: domain.SexMale}); err != nil {
			return err
		}
		_, err := tx.CreateVaccination(domain.VaccinationRecord{DogID: "missing", VaccineType: "rabies", DateGiven: testNow})
		return err
	})
	if err == nil {
		t.Fatalf("expected failure for dangling dog reference")
	}
	var rows int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM records`).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected no persisted rows, got %d", rows)
	}
	_ = store.Close()
}

func TestSQLiteStoreQuarantinesCorruptRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kennel.db")
	store := openStore(t, path)
	mustTx(t, store, func(tx domain.Transaction) error {
		_, err := tx.CreateDog(domain.Dog{Name: "Fine", Sex: domain.SexMale})
		return err
	})
	if _, err := store.DB().Exec(`INSERT INTO records(entity,id,payload) VALUES('dog','broken','{not json')`); err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}
	_ = store.Close()

	reloaded := openStore(t, path)
	defer func() { _ = reloaded.Close() }()
	if got := dogCount(t, reloaded); got != 0 {
		t.Fatalf("expected empty dataset after corrupt load, got %d dogs", got)
	}
	var quarantined int
	if err := reloaded.DB().QueryRow(`SELECT COUNT(*) FROM records_quarantine`).Scan(&quarantined); err != nil {
		t.Fatalf("count quarantine: %v", err)
	}
	if quarantined != 2 {
		t.Fatalf("expected both raw rows quarantined, got %d", quarantined)
	}
}

func TestSQLiteStoreMigratesLegacyDataOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kennel.db")
	store := openStore(t, path)
	legacy := domain.Snapshot{}
	legacy.EnsureMaps()
	clientID, dogID := "c1", "d1"
	legacy.Clients[clientID] = domain.Client{Base: domain.Base{ID: clientID}, Name: "Buyer"}
	legacy.Dogs[dogID] = domain.Dog{Base: domain.Base{ID: dogID}, Name: "Pup", Sex: domain.SexMale, Status: domain.DogStatusActive}
	legacy.Sales["s1"] = domain.Sale{
		Base:          domain.Base{ID: "s1"},
		ClientID:      &clientID,
		SaleDate:      testNow,
		Price:         decimal.NewFromInt(2000),
		PaymentStatus: domain.PaymentPaid,
		Status:        domain.SaleStatusCompleted,
		LegacyDogID:   &dogID,
	}
	if err := records.Rewrite(context.Background(), store.DB(), dialect, legacy); err != nil {
		t.Fatalf("seed legacy rows: %v", err)
	}
	_ = store.Close()

	reloaded := openStore(t, path)
	var version string
	if err := reloaded.DB().QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != "3" {
		t.Fatalf("expected migrated schema version persisted, got %s", version)
	}
	var puppies int
	if err := reloaded.DB().QueryRow(`SELECT COUNT(*) FROM records WHERE entity = 'sale_puppy'`).Scan(&puppies); err != nil {
		t.Fatalf("count sale puppies: %v", err)
	}
	if puppies != 1 {
		t.Fatalf("expected migrated sale puppy persisted, got %d", puppies)
	}
	_ = reloaded.Close()

	// A second load must not migrate again.
	again := openStore(t, path)
	defer func() { _ = again.Close() }()
	var count int
	_ = again.View(context.Background(), func(v domain.TransactionView) error {
		count = v.SalePuppies().Len()
		return nil
	})
	if count != 1 {
		t.Fatalf("expected a single sale puppy after reload, got %d", count)
	}
}

func TestSQLiteStoreImportAndClearRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kennel.db")
	store := openStore(t, path)
	snapshot := domain.NewSnapshot()
	snapshot.Dogs["a"] = domain.Dog{Base: domain.Base{ID: "a"}, Name: "A", Sex: domain.SexMale, Status: domain.DogStatusActive}
	snapshot.Dogs["b"] = domain.Dog{Base: domain.Base{ID: "b"}, Name: "B", Sex: domain.SexFemale, Status: domain.DogStatusActive}
	if err := store.ImportState(context.Background(), snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}
	var rows int
	_ = store.DB().QueryRow(`SELECT COUNT(*) FROM records`).Scan(&rows)
	if rows != 2 {
		t.Fatalf("expected 2 rows after import, got %d", rows)
	}
	if err := store.ClearState(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	_ = store.DB().QueryRow(`SELECT COUNT(*) FROM records`).Scan(&rows)
	if rows != 0 {
		t.Fatalf("expected empty table after clear, got %d", rows)
	}
	if store.Path() != path {
		t.Fatalf("unexpected path %s", store.Path())
	}
	_ = store.Close()
}
