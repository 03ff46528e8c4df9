package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kennelcore/pkg/domain"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewStore(nil, opts...)
}

func mustTx(t *testing.T, s *Store, fn func(tx domain.Transaction) error) {
	t.Helper()
	if _, err := s.RunInTransaction(context.Background(), fn); err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func createDog(t *testing.T, s *Store, dog domain.Dog) domain.Dog {
	t.Helper()
	var created domain.Dog
	mustTx(t, s, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateDog(dog)
		return err
	})
	return created
}

func view(t *testing.T, s *Store) domain.TransactionView {
	t.Helper()
	var out domain.TransactionView
	if err := s.View(context.Background(), func(v domain.TransactionView) error {
		out = v
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	return out
}

func TestStoreCreateAssignsIDAndTimestamps(t *testing.T) {
	store := newTestStore(t)
	dog := createDog(t, store, domain.Dog{Name: "Ada", Breed: "Vizsla", Sex: domain.SexFemale})
	if dog.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !dog.CreatedAt.Equal(testNow) || !dog.UpdatedAt.Equal(testNow) {
		t.Fatalf("expected timestamps stamped from clock, got %v / %v", dog.CreatedAt, dog.UpdatedAt)
	}
	if dog.Status != domain.DogStatusActive {
		t.Fatalf("expected default active status, got %s", dog.Status)
	}
	if store.RulesEngine() == nil || store.NowFunc() == nil {
		t.Fatalf("expected engine and clock")
	}
}

func TestStoreRejectsDuplicateID(t *testing.T) {
	store := newTestStore(t)
	createDog(t, store, domain.Dog{Base: domain.Base{ID: "d1"}, Name: "Ada", Sex: domain.SexFemale})
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateDog(domain.Dog{Base: domain.Base{ID: "d1"}, Name: "Copy", Sex: domain.SexFemale})
		return err
	})
	if err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestStoreRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	litterID := "l1"
	mustTx(t, store, func(tx domain.Transaction) error {
		_, err := tx.CreateLitter(domain.Litter{Base: domain.Base{ID: litterID}, Name: "A"})
		return err
	})
	sentinel := errors.New("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateDog(domain.Dog{Name: "Pup", Sex: domain.SexMale, LitterID: &litterID}); err != nil {
			return err
		}
		if err := tx.DeleteLitter(litterID); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	v := view(t, store)
	if v.Dogs().Len() != 0 {
		t.Fatalf("expected dog insert rolled back")
	}
	if _, ok := v.Litters().Find(litterID); !ok {
		t.Fatalf("expected litter delete rolled back")
	}
	if got := v.Dogs().ListBy(domain.ByLitter, litterID); len(got) != 0 {
		t.Fatalf("expected litter index cleaned, got %d", len(got))
	}
}

type blockingRule struct{}

func (blockingRule) Name() string { return "block" }

func (blockingRule) Evaluate(context.Context, domain.RuleView, []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{Rule: "block", Severity: domain.SeverityBlock, Message: "no"}}}, nil
}

func TestStoreRuleViolationRollsBack(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockingRule{})
	store := NewStore(engine)
	res, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateClient(domain.Client{Name: "Blocked"})
		return err
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result")
	}
	if view(t, store).Clients().Len() != 0 {
		t.Fatalf("expected client rolled back")
	}
}

type recordingPersister struct {
	changes   [][]domain.Change
	snapshots []domain.Snapshot
	err       error
}

func (p *recordingPersister) PersistChanges(_ context.Context, changes []domain.Change) error {
	if p.err != nil {
		return p.err
	}
	p.changes = append(p.changes, changes)
	return nil
}

func (p *recordingPersister) PersistSnapshot(_ context.Context, snapshot domain.Snapshot) error {
	if p.err != nil {
		return p.err
	}
	p.snapshots = append(p.snapshots, snapshot)
	return nil
}

func TestStorePersisterReceivesChanges(t *testing.T) {
	persister := &recordingPersister{}
	store := newTestStore(t, WithPersister(persister))
	dog := createDog(t, store, domain.Dog{Name: "Ada", Sex: domain.SexFemale})
	if len(persister.changes) != 1 || len(persister.changes[0]) != 1 {
		t.Fatalf("expected one batch with one change, got %+v", persister.changes)
	}
	change := persister.changes[0][0]
	if change.Entity != domain.EntityDog || change.Action != domain.ActionCreate || change.RecordID() != dog.ID {
		t.Fatalf("unexpected change %+v", change)
	}

	// Read-only transactions persist nothing.
	mustTx(t, store, func(domain.Transaction) error { return nil })
	if len(persister.changes) != 1 {
		t.Fatalf("expected no batch for empty transaction")
	}
}

func TestStorePersisterFailureRollsBack(t *testing.T) {
	persister := &recordingPersister{err: errors.New("disk full")}
	store := newTestStore(t, WithPersister(persister))
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateClient(domain.Client{Name: "Nope"})
		return err
	})
	if err == nil {
		t.Fatalf("expected persist error")
	}
	if view(t, store).Clients().Len() != 0 {
		t.Fatalf("expected client rolled back after persist failure")
	}
	if err := store.ImportState(context.Background(), domain.NewSnapshot()); err == nil {
		t.Fatalf("expected import persist error")
	}
}

func TestCreateRejectsMissingForeignKey(t *testing.T) {
	store := newTestStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateVaccination(domain.VaccinationRecord{DogID: "ghost", VaccineType: "DHPP", DateGiven: testNow})
		return err
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "dog_id" {
		t.Fatalf("expected dog_id validation error, got %v", err)
	}
}

func TestDogParentsMustHaveMatchingSex(t *testing.T) {
	store := newTestStore(t)
	dam := createDog(t, store, domain.Dog{Name: "Dam", Sex: domain.SexFemale})
	sire := createDog(t, store, domain.Dog{Name: "Sire", Sex: domain.SexMale})

	cases := []struct {
		name  string
		dog   domain.Dog
		field string
	}{
		{"female sire", domain.Dog{Name: "Pup", Sex: domain.SexMale, SireID: &dam.ID}, "sire_id"},
		{"male dam", domain.Dog{Name: "Pup", Sex: domain.SexMale, DamID: &sire.ID}, "dam_id"},
		{"missing sire", domain.Dog{Name: "Pup", Sex: domain.SexMale, SireID: strPtr("ghost")}, "sire_id"},
		{"missing litter", domain.Dog{Name: "Pup", Sex: domain.SexMale, LitterID: strPtr("ghost")}, "litter_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
				_, err := tx.CreateDog(tc.dog)
				return err
			})
			var verr *domain.ValidationError
			if !errors.As(err, &verr) || verr.Field != tc.field {
				t.Fatalf("expected %s validation error, got %v", tc.field, err)
			}
		})
	}

	pup := createDog(t, store, domain.Dog{Name: "Pup", Sex: domain.SexMale, SireID: &sire.ID, DamID: &dam.ID})
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateDog(sire.ID, func(d *domain.Dog) error {
			d.Sex = domain.SexFemale
			return nil
		})
		return err
	})
	if !domain.IsValidation(err) {
		t.Fatalf("expected sex change of a sire to fail, got %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateDog(pup.ID, func(d *domain.Dog) error {
			d.SireID = &pup.ID
			return nil
		})
		return err
	})
	if !domain.IsValidation(err) {
		t.Fatalf("expected self-sire to fail, got %v", err)
	}
}

func TestUpdateKeepsImmutableFields(t *testing.T) {
	store := newTestStore(t)
	dog := createDog(t, store, domain.Dog{Name: "Ada", Sex: domain.SexFemale})
	later := testNow.Add(time.Hour)
	store.nowFn = func() time.Time { return later }
	var updated domain.Dog
	mustTx(t, store, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateDog(dog.ID, func(d *domain.Dog) error {
			d.ID = "other"
			d.CreatedAt = time.Time{}
			d.Name = "Ada II"
			return nil
		})
		return err
	})
	if updated.ID != dog.ID || !updated.CreatedAt.Equal(dog.CreatedAt) {
		t.Fatalf("expected id and created_at preserved, got %+v", updated.Base)
	}
	if !updated.UpdatedAt.Equal(later) || updated.Name != "Ada II" {
		t.Fatalf("expected merged update, got %+v", updated)
	}
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateDog("missing", func(*domain.Dog) error { return nil })
		return err
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestViewReturnsCopies(t *testing.T) {
	store := newTestStore(t)
	dog := createDog(t, store, domain.Dog{Name: "Ada", Sex: domain.SexFemale, DateOfBirth: &testNow})
	found, _ := view(t, store).Dogs().Find(dog.ID)
	*found.DateOfBirth = time.Time{}
	again, _ := view(t, store).Dogs().Find(dog.ID)
	if !again.DateOfBirth.Equal(testNow) {
		t.Fatalf("expected stored row to be isolated from callers")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := newTestStore(t)
	dam := createDog(t, store, domain.Dog{Name: "Dam", Sex: domain.SexFemale})
	mustTx(t, store, func(tx domain.Transaction) error {
		client, err := tx.CreateClient(domain.Client{Name: "Buyer", Email: "buyer@example.com"})
		if err != nil {
			return err
		}
		sale, err := tx.CreateSale(domain.Sale{ClientID: &client.ID, SaleDate: testNow, Price: decimal.NewFromInt(2500)})
		if err != nil {
			return err
		}
		_, err = tx.AddSalePuppy(domain.SalePuppy{SaleID: sale.ID, DogID: dam.ID, Price: decimal.NewFromInt(2500)})
		return err
	})
	exported, err := store.ExportState(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	restored := newTestStore(t)
	if err := restored.ImportState(context.Background(), exported); err != nil {
		t.Fatalf("import: %v", err)
	}
	again, _ := restored.ExportState(context.Background())
	if got, want := again.Counts(), exported.Counts(); len(got) != len(want) {
		t.Fatalf("count mismatch")
	}
	for entity, n := range exported.Counts() {
		if again.Counts()[entity] != n {
			t.Fatalf("%s: expected %d rows, got %d", entity, n, again.Counts()[entity])
		}
	}
	dog, _ := view(t, restored).Dogs().Find(dam.ID)
	if dog.Status != domain.DogStatusSold {
		t.Fatalf("expected sold status to survive round trip, got %s", dog.Status)
	}
	if len(view(t, restored).SalePuppies().ListBy(domain.ByDog, dam.ID)) != 1 {
		t.Fatalf("expected indexes rebuilt on import")
	}

	if err := restored.ClearState(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if view(t, restored).Dogs().Len() != 0 {
		t.Fatalf("expected empty dataset after clear")
	}
}
