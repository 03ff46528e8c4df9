// Package records maps the kennel dataset onto one JSON row per record, the
// layout shared by the durable SQL drivers.
package records

import (
	"encoding/json"
	"fmt"
	"sort"

	"kennelcore/pkg/domain"
)

// Row is one persisted record.
type Row struct {
	Entity  domain.EntityType
	ID      string
	Payload []byte
}

// Op is a pending write: an upsert of Row, or a delete when Delete is set.
type Op struct {
	Row
	Delete bool
}

// CorruptError reports rows that could not be decoded into the dataset.
type CorruptError struct {
	Rows []Row
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt records (%d rows): %v", len(e.Rows), e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

type binding struct {
	entity domain.EntityType
	encode func(s *domain.Snapshot) ([]Row, error)
	decode func(s *domain.Snapshot, id string, payload []byte) error
}

func bind[T domain.Record](entity domain.EntityType, field func(*domain.Snapshot) *map[string]T) binding {
	return binding{
		entity: entity,
		encode: func(s *domain.Snapshot) ([]Row, error) {
			m := *field(s)
			ids := make([]string, 0, len(m))
			for id := range m {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			out := make([]Row, 0, len(ids))
			for _, id := range ids {
				payload, err := json.Marshal(m[id])
				if err != nil {
					return nil, fmt.Errorf("encode %s %s: %w", entity, id, err)
				}
				out = append(out, Row{Entity: entity, ID: id, Payload: payload})
			}
			return out, nil
		},
		decode: func(s *domain.Snapshot, id string, payload []byte) error {
			var v T
			if err := json.Unmarshal(payload, &v); err != nil {
				return fmt.Errorf("decode %s %s: %w", entity, id, err)
			}
			if v.RecordID() != id {
				return fmt.Errorf("decode %s %s: payload carries id %q", entity, id, v.RecordID())
			}
			(*field(s))[id] = v
			return nil
		},
	}
}

var bindings = []binding{
	bind(domain.EntityDog, func(s *domain.Snapshot) *map[string]domain.Dog { return &s.Dogs }),
	bind(domain.EntityLitter, func(s *domain.Snapshot) *map[string]domain.Litter { return &s.Litters }),
	bind(domain.EntityHeatCycle, func(s *domain.Snapshot) *map[string]domain.HeatCycle { return &s.HeatCycles }),
	bind(domain.EntityHeatEvent, func(s *domain.Snapshot) *map[string]domain.HeatEvent { return &s.HeatEvents }),
	bind(domain.EntityVaccination, func(s *domain.Snapshot) *map[string]domain.VaccinationRecord { return &s.Vaccinations }),
	bind(domain.EntityWeightEntry, func(s *domain.Snapshot) *map[string]domain.WeightEntry { return &s.WeightEntries }),
	bind(domain.EntityMedicalRecord, func(s *domain.Snapshot) *map[string]domain.MedicalRecord { return &s.MedicalRecords }),
	bind(domain.EntityTransport, func(s *domain.Snapshot) *map[string]domain.Transport { return &s.Transports }),
	bind(domain.EntityExpense, func(s *domain.Snapshot) *map[string]domain.Expense { return &s.Expenses }),
	bind(domain.EntityClient, func(s *domain.Snapshot) *map[string]domain.Client { return &s.Clients }),
	bind(domain.EntitySale, func(s *domain.Snapshot) *map[string]domain.Sale { return &s.Sales }),
	bind(domain.EntitySalePuppy, func(s *domain.Snapshot) *map[string]domain.SalePuppy { return &s.SalePuppies }),
	bind(domain.EntityClientInterest, func(s *domain.Snapshot) *map[string]domain.ClientInterest { return &s.ClientInterests }),
	bind(domain.EntityWaitlistEntry, func(s *domain.Snapshot) *map[string]domain.WaitlistEntry { return &s.WaitlistEntries }),
	bind(domain.EntityCommunicationLog, func(s *domain.Snapshot) *map[string]domain.CommunicationLog { return &s.CommunicationLogs }),
	bind(domain.EntityGeneticTest, func(s *domain.Snapshot) *map[string]domain.GeneticTest { return &s.GeneticTests }),
	bind(domain.EntityPuppyHealthTask, func(s *domain.Snapshot) *map[string]domain.PuppyHealthTask { return &s.PuppyHealthTasks }),
	bind(domain.EntityHealthTemplate, func(s *domain.Snapshot) *map[string]domain.HealthScheduleTemplate { return &s.HealthTemplates }),
	bind(domain.EntityDogPhoto, func(s *domain.Snapshot) *map[string]domain.DogPhoto { return &s.DogPhotos }),
	bind(domain.EntityLitterPhoto, func(s *domain.Snapshot) *map[string]domain.LitterPhoto { return &s.LitterPhotos }),
	bind(domain.EntityDocument, func(s *domain.Snapshot) *map[string]domain.Document { return &s.Documents }),
	bind(domain.EntityDocumentTag, func(s *domain.Snapshot) *map[string]domain.DocumentTag { return &s.DocumentTags }),
	bind(domain.EntityDocumentTagLink, func(s *domain.Snapshot) *map[string]domain.DocumentTagLink { return &s.DocumentTagLinks }),
	bind(domain.EntityDogDocument, func(s *domain.Snapshot) *map[string]domain.DogDocument { return &s.DogDocuments }),
	bind(domain.EntityLitterDocument, func(s *domain.Snapshot) *map[string]domain.LitterDocument { return &s.LitterDocuments }),
	bind(domain.EntityExpenseDocument, func(s *domain.Snapshot) *map[string]domain.ExpenseDocument { return &s.ExpenseDocuments }),
}

var byEntity = func() map[domain.EntityType]binding {
	m := make(map[domain.EntityType]binding, len(bindings))
	for _, b := range bindings {
		m[b.entity] = b
	}
	return m
}()

// Entities lists every persisted entity type in a stable order.
func Entities() []domain.EntityType {
	out := make([]domain.EntityType, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, b.entity)
	}
	return out
}

// Encode flattens snapshot into rows ordered by entity then id.
func Encode(snapshot domain.Snapshot) ([]Row, error) {
	snapshot.EnsureMaps()
	var out []Row
	for _, b := range bindings {
		rows, err := b.encode(&snapshot)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

// Decode rebuilds a snapshot at schemaVersion from rows. Any row that fails to
// decode, or names an unknown entity, makes the whole set corrupt; the
// returned *CorruptError carries every row so callers can quarantine them.
func Decode(rows []Row, schemaVersion int) (domain.Snapshot, error) {
	snapshot := domain.Snapshot{SchemaVersion: schemaVersion}
	snapshot.EnsureMaps()
	for _, r := range rows {
		b, ok := byEntity[r.Entity]
		if !ok {
			return domain.Snapshot{}, &CorruptError{Rows: rows, Err: fmt.Errorf("unknown entity %q for record %s", r.Entity, r.ID)}
		}
		if err := b.decode(&snapshot, r.ID, r.Payload); err != nil {
			return domain.Snapshot{}, &CorruptError{Rows: rows, Err: err}
		}
	}
	return snapshot, nil
}

// FromChanges collapses a transaction's change list into one write per
// record, keeping the final state of each.
func FromChanges(changes []domain.Change) ([]Op, error) {
	type key struct {
		entity domain.EntityType
		id     string
	}
	index := make(map[key]int, len(changes))
	var ops []Op
	for _, c := range changes {
		id := c.RecordID()
		if id == "" {
			return nil, fmt.Errorf("change for %s carries no record id", c.Entity)
		}
		op := Op{Row: Row{Entity: c.Entity, ID: id}}
		if c.Action == domain.ActionDelete {
			op.Delete = true
		} else {
			payload, err := json.Marshal(c.After)
			if err != nil {
				return nil, fmt.Errorf("encode %s %s: %w", c.Entity, id, err)
			}
			op.Payload = payload
		}
		k := key{c.Entity, id}
		if i, ok := index[k]; ok {
			ops[i] = op
			continue
		}
		index[k] = len(ops)
		ops = append(ops, op)
	}
	return ops, nil
}
