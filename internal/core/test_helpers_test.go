package core_test

import (
	"context"
	"testing"
	"time"

	"kennelcore/internal/core"
	"kennelcore/pkg/domain"
)

// testNow is a Friday; the due-this-week window runs to 2024-03-08.
var testNow = time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...core.Option) *core.Service {
	t.Helper()
	base := []core.Option{core.WithClock(core.ClockFunc(func() time.Time { return testNow }))}
	return core.NewInMemoryService(core.NewDefaultRulesEngine(), append(base, opts...)...)
}

func strPtr(v string) *string { return &v }

func timePtr(v time.Time) *time.Time { return &v }

// must unwraps a (record, result, error) triple: must[domain.Dog](t)(svc.CreateDog(...)).
func must[T any](t *testing.T) func(T, core.Result, error) T {
	t.Helper()
	return func(v T, _ core.Result, err error) T {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return v
	}
}

func mustDog(t *testing.T, svc *core.Service, dog domain.Dog) domain.Dog {
	t.Helper()
	if dog.Breed == "" {
		dog.Breed = "Labrador Retriever"
	}
	return must[domain.Dog](t)(svc.CreateDog(context.Background(), dog))
}

func mustClient(t *testing.T, svc *core.Service, name string) domain.Client {
	t.Helper()
	return must[domain.Client](t)(svc.CreateClient(context.Background(), domain.Client{Name: name}))
}

// seedLitter creates a sire, a dam and a whelped litter with the named puppies.
func seedLitter(t *testing.T, svc *core.Service, whelp time.Time, puppies ...string) (domain.Litter, []domain.Dog) {
	t.Helper()
	ctx := context.Background()
	sire := mustDog(t, svc, domain.Dog{Name: "Atlas", Sex: domain.SexMale})
	dam := mustDog(t, svc, domain.Dog{Name: "Bella", Sex: domain.SexFemale})
	litter := must[domain.Litter](t)(svc.CreateLitter(ctx, domain.Litter{
		Name:      "A litter",
		SireID:    strPtr(sire.ID),
		DamID:     strPtr(dam.ID),
		WhelpDate: timePtr(whelp),
		Status:    domain.LitterStatusWhelped,
	}))
	out := make([]domain.Dog, 0, len(puppies))
	for i, name := range puppies {
		sex := domain.SexMale
		if i%2 == 1 {
			sex = domain.SexFemale
		}
		out = append(out, mustDog(t, svc, domain.Dog{
			Name:     name,
			Sex:      sex,
			SireID:   strPtr(sire.ID),
			DamID:    strPtr(dam.ID),
			LitterID: strPtr(litter.ID),
		}))
	}
	return litter, out
}
