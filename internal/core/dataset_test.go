package core_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"kennelcore/internal/core"
	"kennelcore/pkg/domain"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestService(t)
	ctx := context.Background()
	litter, puppies := seedLitter(t, src, domain.Date(2024, 1, 10), "Iris", "Juniper")
	client := mustClient(t, src, "Riley")
	sale := must[domain.Sale](t)(src.CreateSale(ctx, domain.Sale{ClientID: strPtr(client.ID), SaleDate: testNow, Price: decimal.NewFromInt(1800)}))
	must[domain.SalePuppy](t)(src.AddPuppyToSale(ctx, sale.ID, puppies[0].ID, decimal.NewFromInt(1800)))

	payload, err := src.ExportDatabase(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := newTestService(t)
	migrated, err := dst.ImportDatabase(ctx, payload)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if migrated {
		t.Fatalf("current payload should not migrate")
	}
	counts, err := dst.DatasetCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[domain.EntityDog] != 4 || counts[domain.EntitySalePuppy] != 1 || counts[domain.EntityLitter] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
	detail, ok := dst.GetLitter(ctx, litter.ID)
	if !ok || len(detail.Puppies) != 2 {
		t.Fatalf("expected litter with puppies after import, got %+v", detail)
	}
	if dog, _ := dst.GetDog(ctx, puppies[0].ID); dog.Status != domain.DogStatusSold {
		t.Fatalf("expected sold puppy after import, got %s", dog.Status)
	}
}

const legacyPayload = `{
  "schema_version": 0,
  "dogs": {
    "d1": {"id": "d1", "name": "Kestrel", "breed": "Vizsla", "sex": "male", "status": "active",
           "created_at": "2023-01-01T00:00:00Z", "updated_at": "2023-01-01T00:00:00Z"}
  },
  "clients": {
    "c1": {"id": "c1", "name": "Sam Lee", "created_at": "2023-01-01T00:00:00Z", "updated_at": "2023-01-01T00:00:00Z"}
  },
  "sales": {
    "s1": {"id": "s1", "client_id": "c1", "dog_id": "d1", "sale_date": "2023-05-01T00:00:00Z",
           "price": "2100", "payment_status": "paid", "status": "completed",
           "created_at": "2023-05-01T00:00:00Z", "updated_at": "2023-05-01T00:00:00Z"}
  },
  "expenses": {
    "e1": {"id": "e1", "date": "2023-05-02T00:00:00Z", "amount": "45", "category": "Show fees",
           "created_at": "2023-05-02T00:00:00Z", "updated_at": "2023-05-02T00:00:00Z"}
  }
}`

func TestImportMigratesLegacyPayload(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	migrated, err := svc.ImportDatabase(ctx, []byte(legacyPayload))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !migrated {
		t.Fatalf("expected legacy payload to migrate")
	}

	sale, ok := svc.GetSale(ctx, "s1")
	if !ok {
		t.Fatalf("expected migrated sale")
	}
	if len(sale.Puppies) != 1 || sale.Puppies[0].DogID != "d1" || !sale.Puppies[0].Price.Equal(decimal.NewFromInt(2100)) {
		t.Fatalf("expected one sale puppy priced 2100, got %+v", sale.Puppies)
	}
	if sale.ClientName != "Sam Lee" {
		t.Fatalf("expected buyer name snapshot, got %q", sale.ClientName)
	}
	if dog, _ := svc.GetDog(ctx, "d1"); dog.Status != domain.DogStatusSold {
		t.Fatalf("expected migrated dog marked sold, got %s", dog.Status)
	}
	expenses := svc.ListExpenses(ctx, core.ExpenseFilter{})
	if len(expenses) != 1 || expenses[0].Category != domain.ExpenseCustom || expenses[0].CustomCategory != "Show fees" {
		t.Fatalf("expected free-form category folded into custom, got %+v", expenses)
	}
}

func TestImportRejectsCorruptPayload(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	mustDog(t, svc, domain.Dog{Name: "Keeper", Sex: domain.SexFemale})

	if _, err := svc.ImportDatabase(ctx, []byte(`{"dogs": [`)); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := svc.ImportDatabase(ctx, []byte(`{"schema_version": 99}`)); err == nil {
		t.Fatalf("expected error for newer schema")
	}
	if n := len(svc.ListDogs(ctx, core.DogFilter{})); n != 1 {
		t.Fatalf("failed imports must leave data intact, got %d dogs", n)
	}
}

func TestClearDatabase(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedLitter(t, svc, domain.Date(2024, 1, 10), "Larch")

	if err := svc.ClearDatabase(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	counts, err := svc.DatasetCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	for entity, n := range counts {
		if n != 0 {
			t.Fatalf("expected empty %s table, got %d", entity, n)
		}
	}
}
