package memory

import (
	"sort"

	"kennelcore/pkg/domain"
)

// requireRef resolves a foreign key or reports a ValidationError naming field.
func requireRef[T domain.Record](t *table[T], entity domain.EntityType, field, id string) (T, error) {
	row, ok := t.get(id)
	if !ok {
		return row, domain.NewValidationError(entity, field, "%s %q does not exist", t.entity, id)
	}
	return row, nil
}

// requireOptRef resolves a nullable foreign key.
func requireOptRef[T domain.Record](t *table[T], entity domain.EntityType, field string, id *string) error {
	if id == nil {
		return nil
	}
	_, err := requireRef(t, entity, field, *id)
	return err
}

// dropBy deletes every row whose key equals value.
func dropBy[T domain.Record](tx *transaction, t *table[T], key domain.ForeignKey, value string) {
	for _, id := range t.ids(key, value) {
		t.drop(tx, id)
	}
}

// requireParent checks that a sire or dam pointer references a dog of the
// expected sex.
func (tx *transaction) requireParent(entity domain.EntityType, field string, id *string, sex domain.Sex) error {
	if id == nil {
		return nil
	}
	parent, err := requireRef(tx.state.dogs, entity, field, *id)
	if err != nil {
		return err
	}
	if parent.Sex != sex {
		return domain.NewValidationError(entity, field, "dog %q is %s, expected %s", *id, parent.Sex, sex)
	}
	return nil
}

func sameOpt(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func strPtr(s string) *string { return &s }

// sortWaitlist orders a partition by position, then creation time, then id.
func sortWaitlist(entries []domain.WaitlistEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// sortLitterPhotos orders a litter's photos by sort order, then creation time,
// then id.
func sortLitterPhotos(photos []domain.LitterPhoto) {
	sort.SliceStable(photos, func(i, j int) bool {
		a, b := photos[i], photos[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
