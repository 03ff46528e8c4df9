package memory

import (
	"fmt"
	"sort"

	"kennelcore/pkg/domain"
)

// keyFunc extracts a foreign key value from a row; "" means null.
type keyFunc[T any] func(T) string

// table holds the rows of one entity type plus secondary indexes keyed by
// foreign key value. All mutations go through put and remove so the indexes
// never drift from the rows.
type table[T domain.Record] struct {
	entity domain.EntityType
	rows   map[string]T
	clone  func(T) T
	keys   map[domain.ForeignKey]keyFunc[T]
	index  map[domain.ForeignKey]map[string]map[string]struct{}
}

func newTable[T domain.Record](entity domain.EntityType, clone func(T) T, keys map[domain.ForeignKey]keyFunc[T]) *table[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	t := &table[T]{
		entity: entity,
		rows:   make(map[string]T),
		clone:  clone,
		keys:   keys,
		index:  make(map[domain.ForeignKey]map[string]map[string]struct{}, len(keys)),
	}
	for key := range keys {
		t.index[key] = make(map[string]map[string]struct{})
	}
	return t
}

func (t *table[T]) get(id string) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) has(id string) bool {
	_, ok := t.rows[id]
	return ok
}

func (t *table[T]) put(row T) {
	id := row.RecordID()
	if old, ok := t.rows[id]; ok {
		t.unindex(old)
	}
	t.rows[id] = row
	for key, fn := range t.keys {
		value := fn(row)
		bucket := t.index[key][value]
		if bucket == nil {
			bucket = make(map[string]struct{})
			t.index[key][value] = bucket
		}
		bucket[id] = struct{}{}
	}
}

func (t *table[T]) remove(id string) (T, bool) {
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	t.unindex(row)
	delete(t.rows, id)
	return row, true
}

func (t *table[T]) unindex(row T) {
	id := row.RecordID()
	for key, fn := range t.keys {
		value := fn(row)
		bucket := t.index[key][value]
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(t.index[key], value)
		}
	}
}

// ids returns the ids indexed under key=value in ascending order.
func (t *table[T]) ids(key domain.ForeignKey, value string) []string {
	bucket, ok := t.index[key]
	if !ok {
		panic(fmt.Sprintf("memory store: %s has no index %q", t.entity, key))
	}
	out := make([]string, 0, len(bucket[value]))
	for id := range bucket[value] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// rowsBy returns the stored rows (not copies) under key=value.
func (t *table[T]) rowsBy(key domain.ForeignKey, value string) []T {
	ids := t.ids(key, value)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *table[T]) sortedIDs() []string {
	out := make([]string, 0, len(t.rows))
	for id := range t.rows {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Find returns a copy of the row with the given id.
func (t *table[T]) Find(id string) (T, bool) {
	row, ok := t.rows[id]
	if !ok {
		return row, false
	}
	return t.clone(row), true
}

// List returns copies of every row ordered by id.
func (t *table[T]) List() []T {
	ids := t.sortedIDs()
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.clone(t.rows[id]))
	}
	return out
}

// ListBy returns copies of rows whose foreign key equals value.
func (t *table[T]) ListBy(key domain.ForeignKey, value string) []T {
	ids := t.ids(key, value)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.clone(t.rows[id]))
	}
	return out
}

// Len returns the number of rows.
func (t *table[T]) Len() int { return len(t.rows) }

func (t *table[T]) load(rows map[string]T) {
	t.rows = make(map[string]T, len(rows))
	for key := range t.index {
		t.index[key] = make(map[string]map[string]struct{})
	}
	for id, row := range rows {
		if row.RecordID() != id {
			continue
		}
		t.put(t.clone(row))
	}
}

func (t *table[T]) export() map[string]T {
	out := make(map[string]T, len(t.rows))
	for id, row := range t.rows {
		out[id] = t.clone(row)
	}
	return out
}

// insert, replace and drop mutate the table inside a transaction, recording
// the change and an undo step.

func (t *table[T]) insert(tx *transaction, row T) {
	stored := t.clone(row)
	id := stored.RecordID()
	t.put(stored)
	tx.undo(func() { t.remove(id) })
	tx.recordChange(domain.Change{Entity: t.entity, Action: domain.ActionCreate, After: t.clone(stored)})
}

func (t *table[T]) replace(tx *transaction, before, after T) {
	stored := t.clone(after)
	t.put(stored)
	tx.undo(func() { t.put(before) })
	tx.recordChange(domain.Change{Entity: t.entity, Action: domain.ActionUpdate, Before: t.clone(before), After: t.clone(stored)})
}

func (t *table[T]) drop(tx *transaction, id string) (T, bool) {
	before, ok := t.remove(id)
	if !ok {
		return before, false
	}
	tx.undo(func() { t.put(before) })
	tx.recordChange(domain.Change{Entity: t.entity, Action: domain.ActionDelete, Before: t.clone(before)})
	return before, true
}

func optKey(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
