package memory

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"kennelcore/pkg/domain"
)

type migration struct {
	version int
	name    string
	apply   func(s *domain.Snapshot, now time.Time)
}

// migrations upgrade snapshots in version order. Each step is idempotent so
// a snapshot that was partially hand-edited still converges.
var migrations = []migration{
	{version: 1, name: "sale puppies from legacy sale dog pointers", apply: migrateLegacySales},
	{version: 2, name: "closed expense categories", apply: migrateExpenseCategories},
	{version: 3, name: "derived heat fields and contiguous ordering", apply: migrateDerivedFields},
}

// MigrateSnapshot upgrades snapshot in place to domain.CurrentSchemaVersion and
// reports whether any migration ran.
func MigrateSnapshot(snapshot *domain.Snapshot, now time.Time) (bool, error) {
	snapshot.EnsureMaps()
	if snapshot.SchemaVersion > domain.CurrentSchemaVersion {
		return false, fmt.Errorf("snapshot schema version %d is newer than supported version %d", snapshot.SchemaVersion, domain.CurrentSchemaVersion)
	}
	start := snapshot.SchemaVersion
	for _, m := range migrations {
		if snapshot.SchemaVersion >= m.version {
			continue
		}
		m.apply(snapshot, now)
		snapshot.SchemaVersion = m.version
	}
	return snapshot.SchemaVersion != start, nil
}

// migrateLegacySales turns the single dog pointer of early sales into a
// SalePuppy row priced at the sale price. Pointers to dogs that no longer
// exist are dropped. Buyer names are snapshotted from the client.
func migrateLegacySales(s *domain.Snapshot, now time.Time) {
	linked := make(map[[2]string]bool, len(s.SalePuppies))
	for _, sp := range s.SalePuppies {
		linked[[2]string{sp.SaleID, sp.DogID}] = true
	}
	for id, sale := range s.Sales {
		if sale.ClientName == "" && sale.ClientID != nil {
			if client, ok := s.Clients[*sale.ClientID]; ok {
				sale.ClientName = client.Name
			}
		}
		if sale.LegacyDogID != nil {
			dogID := *sale.LegacyDogID
			dog, exists := s.Dogs[dogID]
			if exists && !linked[[2]string{id, dogID}] {
				sp := domain.SalePuppy{
					Base:   domain.Base{ID: uuid.NewString(), CreatedAt: sale.CreatedAt, UpdatedAt: now},
					SaleID: id,
					DogID:  dogID,
					Price:  sale.Price,
				}
				s.SalePuppies[sp.ID] = sp
				linked[[2]string{id, dogID}] = true
			}
			if exists && sale.IsActive() && dog.Status == domain.DogStatusActive {
				dog.Status = domain.DogStatusSold
				dog.UpdatedAt = now
				s.Dogs[dogID] = dog
			}
			sale.LegacyDogID = nil
		}
		s.Sales[id] = sale
	}
}

// migrateExpenseCategories folds free-form categories into custom.
func migrateExpenseCategories(s *domain.Snapshot, _ time.Time) {
	for id, e := range s.Expenses {
		switch {
		case e.Category == "":
			e.Category = domain.ExpenseOther
		case !slices.Contains(domain.ExpenseCategories, e.Category):
			e.CustomCategory = string(e.Category)
			e.Category = domain.ExpenseCustom
		default:
			continue
		}
		s.Expenses[id] = e
	}
}

// migrateDerivedFields recomputes heat cycle fields from events and compacts
// waitlist positions and litter photo order.
func migrateDerivedFields(s *domain.Snapshot, now time.Time) {
	events := make(map[string][]domain.HeatEvent)
	for _, ev := range s.HeatEvents {
		events[ev.CycleID] = append(events[ev.CycleID], ev)
	}
	for id, c := range s.HeatCycles {
		s.HeatCycles[id] = domain.DeriveHeatCycle(c, events[id], now)
	}

	partitions := make(map[string][]domain.WaitlistEntry)
	for _, e := range s.WaitlistEntries {
		key := optKey(e.LitterID)
		partitions[key] = append(partitions[key], e)
	}
	for _, entries := range partitions {
		sortWaitlist(entries)
		for i, e := range entries {
			e.Position = i + 1
			s.WaitlistEntries[e.ID] = e
		}
	}

	albums := make(map[string][]domain.LitterPhoto)
	for _, p := range s.LitterPhotos {
		albums[p.LitterID] = append(albums[p.LitterID], p)
	}
	for _, photos := range albums {
		sortLitterPhotos(photos)
		for i, p := range photos {
			p.SortOrder = i
			s.LitterPhotos[p.ID] = p
		}
	}
}
