package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateNamesOffendingField(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		entity EntityType
		field  string
	}{
		{"dog without name", Dog{Sex: SexMale, Status: DogStatusActive}.Validate(), EntityDog, "name"},
		{"dog with unknown sex", Dog{Name: "Rex", Sex: "other", Status: DogStatusActive}.Validate(), EntityDog, "sex"},
		{"client with bad email", Client{Name: "A", Email: "nope"}.Validate(), EntityClient, "email"},
		{"negative expense", Expense{Date: Date(2024, 1, 1), Amount: decimal.NewFromInt(-5), Category: ExpenseFood}.Validate(), EntityExpense, "amount"},
	}
	for _, c := range cases {
		var verr *ValidationError
		if !errors.As(c.err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", c.name, c.err)
		}
		if verr.Entity != c.entity || verr.Field != c.field {
			t.Fatalf("%s: expected %s.%s, got %s.%s", c.name, c.entity, c.field, verr.Entity, verr.Field)
		}
	}
}

func TestValidateAcceptsWellFormedRecords(t *testing.T) {
	if err := (Dog{Name: "Rex", Sex: SexMale, Status: DogStatusActive}).Validate(); err != nil {
		t.Fatalf("dog: %v", err)
	}
	custom := Expense{Date: Date(2024, 1, 1), Amount: decimal.NewFromInt(5), Category: ExpenseCustom, CustomCategory: "Show fees"}
	if err := custom.Validate(); err != nil {
		t.Fatalf("expense: %v", err)
	}
	if custom.CategoryLabel() != "Show fees" {
		t.Fatalf("expected custom label")
	}
}

func TestErrorHelpers(t *testing.T) {
	if !errors.Is(NotFound(EntityDog, "d1"), ErrNotFound) {
		t.Fatalf("expected NotFound to wrap ErrNotFound")
	}
	if !IsPolicy(&PolicyError{Entity: EntityHealthTemplate, EntityID: "t", Reason: "default"}) {
		t.Fatalf("expected policy error detected")
	}
	if IsValidation(errors.New("plain")) {
		t.Fatalf("plain errors are not validation errors")
	}
}
