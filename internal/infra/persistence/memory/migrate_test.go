package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"kennelcore/pkg/domain"
)

func legacySnapshot() domain.Snapshot {
	s := domain.Snapshot{}
	s.EnsureMaps()
	clientID, dogID := "c1", "d1"
	s.Clients[clientID] = domain.Client{Base: domain.Base{ID: clientID}, Name: "Legacy Buyer"}
	s.Dogs[dogID] = domain.Dog{Base: domain.Base{ID: dogID}, Name: "Old", Sex: domain.SexMale, Status: domain.DogStatusActive}
	s.Sales["s1"] = domain.Sale{
		Base:          domain.Base{ID: "s1"},
		ClientID:      &clientID,
		SaleDate:      testNow,
		Price:         decimal.NewFromInt(1800),
		PaymentStatus: domain.PaymentPaid,
		Status:        domain.SaleStatusCompleted,
		LegacyDogID:   &dogID,
	}
	s.Expenses["e1"] = domain.Expense{Base: domain.Base{ID: "e1"}, Date: testNow, Category: "puppy pads"}
	s.Expenses["e2"] = domain.Expense{Base: domain.Base{ID: "e2"}, Date: testNow, Category: domain.ExpenseFood}
	s.WaitlistEntries["w1"] = domain.WaitlistEntry{Base: domain.Base{ID: "w1"}, ClientID: clientID, Position: 4, Status: domain.WaitlistWaiting}
	s.WaitlistEntries["w2"] = domain.WaitlistEntry{Base: domain.Base{ID: "w2"}, ClientID: clientID, Position: 9, Status: domain.WaitlistWaiting}
	return s
}

func TestMigrateLegacySaleCreatesOneSalePuppy(t *testing.T) {
	s := legacySnapshot()
	migrated, err := MigrateSnapshot(&s, testNow)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !migrated || s.SchemaVersion != domain.CurrentSchemaVersion {
		t.Fatalf("expected migration to current version, got %d", s.SchemaVersion)
	}
	if len(s.SalePuppies) != 1 {
		t.Fatalf("expected exactly one sale puppy, got %d", len(s.SalePuppies))
	}
	for _, sp := range s.SalePuppies {
		if sp.SaleID != "s1" || sp.DogID != "d1" || !sp.Price.Equal(decimal.NewFromInt(1800)) {
			t.Fatalf("unexpected sale puppy %+v", sp)
		}
	}
	if s.Sales["s1"].LegacyDogID != nil || s.Sales["s1"].ClientName != "Legacy Buyer" {
		t.Fatalf("expected legacy pointer cleared and buyer snapshotted, got %+v", s.Sales["s1"])
	}
	if s.Dogs["d1"].Status != domain.DogStatusSold {
		t.Fatalf("expected legacy sold dog marked sold")
	}
	if e := s.Expenses["e1"]; e.Category != domain.ExpenseCustom || e.CustomCategory != "puppy pads" {
		t.Fatalf("expected free-form category folded into custom, got %+v", e)
	}
	if s.Expenses["e2"].Category != domain.ExpenseFood {
		t.Fatalf("expected built-in category untouched")
	}
	if s.WaitlistEntries["w1"].Position != 1 || s.WaitlistEntries["w2"].Position != 2 {
		t.Fatalf("expected compacted waitlist positions")
	}

	again, err := MigrateSnapshot(&s, testNow)
	if err != nil || again {
		t.Fatalf("expected second migration to be a no-op, got %v %v", again, err)
	}
	if len(s.SalePuppies) != 1 {
		t.Fatalf("expected no duplicate sale puppy")
	}
}

func TestMigrateRejectsNewerSnapshot(t *testing.T) {
	s := domain.NewSnapshot()
	s.SchemaVersion = domain.CurrentSchemaVersion + 1
	if _, err := MigrateSnapshot(&s, testNow); err == nil {
		t.Fatalf("expected error for newer schema")
	}
}

func TestRestoreReportsMigration(t *testing.T) {
	store := newTestStore(t)
	migrated, err := store.Restore(legacySnapshot())
	if err != nil || !migrated {
		t.Fatalf("expected migrated restore, got %v %v", migrated, err)
	}
	if got := view(t, store).SalePuppies().ListBy(domain.BySale, "s1"); len(got) != 1 {
		t.Fatalf("expected migrated sale puppy indexed")
	}
	current, _ := store.ExportState(context.Background())
	migrated, err = store.Restore(current)
	if err != nil || migrated {
		t.Fatalf("expected current snapshot to restore without migration")
	}
}
