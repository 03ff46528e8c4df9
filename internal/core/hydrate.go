package core

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kennelcore/pkg/domain"
)

// Hydration expands exactly one level of relations: a detail carries its
// related records as stored, never their relations.

func ref[T any](c domain.Collection[T], id *string) *T {
	if id == nil || *id == "" {
		return nil
	}
	return refID(c, *id)
}

func refID[T any](c domain.Collection[T], id string) *T {
	v, ok := c.Find(id)
	if !ok {
		return nil
	}
	return &v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func sortBy[T any](s []T, less func(a, b T) bool) []T {
	sort.SliceStable(s, func(i, j int) bool { return less(s[i], s[j]) })
	return nonNil(s)
}

func newestFirst(a, b time.Time) bool { return a.After(b) }

func foldLess(a, b string) bool { return strings.ToLower(a) < strings.ToLower(b) }

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// asOf re-infers each cycle's phase for now.
func asOf(cycles []domain.HeatCycle, now time.Time) []domain.HeatCycle {
	for i := range cycles {
		cycles[i] = cycles[i].AsOf(now)
	}
	return cycles
}

func hydrateDog(now time.Time) func(domain.TransactionView, domain.Dog) domain.DogDetail {
	return func(v domain.TransactionView, d domain.Dog) domain.DogDetail {
		return domain.DogDetail{
			Dog:         d,
			Sire:        ref(v.Dogs(), d.SireID),
			Dam:         ref(v.Dogs(), d.DamID),
			BirthLitter: ref(v.Litters(), d.LitterID),
			Vaccinations: sortBy(v.Vaccinations().ListBy(domain.ByDog, d.ID), func(a, b domain.VaccinationRecord) bool {
				return newestFirst(a.DateGiven, b.DateGiven)
			}),
			WeightEntries: sortBy(v.WeightEntries().ListBy(domain.ByDog, d.ID), func(a, b domain.WeightEntry) bool {
				return a.Date.Before(b.Date)
			}),
			MedicalRecords: sortBy(v.MedicalRecords().ListBy(domain.ByDog, d.ID), func(a, b domain.MedicalRecord) bool {
				return newestFirst(a.Date, b.Date)
			}),
			HeatCycles: sortBy(asOf(v.HeatCycles().ListBy(domain.ByBitch, d.ID), now), func(a, b domain.HeatCycle) bool {
				return newestFirst(a.StartDate, b.StartDate)
			}),
			Transports: sortBy(v.Transports().ListBy(domain.ByDog, d.ID), func(a, b domain.Transport) bool {
				return newestFirst(a.Date, b.Date)
			}),
			Photos: sortBy(v.DogPhotos().ListBy(domain.ByDog, d.ID), func(a, b domain.DogPhoto) bool {
				return a.IsPrimary && !b.IsPrimary
			}),
			GeneticTests: sortBy(v.GeneticTests().ListBy(domain.ByDog, d.ID), func(a, b domain.GeneticTest) bool {
				return foldLess(a.TestName, b.TestName)
			}),
		}
	}
}

func hydrateLitter(v domain.TransactionView, l domain.Litter) domain.LitterDetail {
	return domain.LitterDetail{
		Litter: l,
		Sire:   ref(v.Dogs(), l.SireID),
		Dam:    ref(v.Dogs(), l.DamID),
		Puppies: sortBy(v.Dogs().ListBy(domain.ByLitter, l.ID), func(a, b domain.Dog) bool {
			return foldLess(a.Name, b.Name)
		}),
		Expenses: sortBy(v.Expenses().ListBy(domain.ByLitter, l.ID), func(a, b domain.Expense) bool {
			return newestFirst(a.Date, b.Date)
		}),
		Photos: sortBy(v.LitterPhotos().ListBy(domain.ByLitter, l.ID), func(a, b domain.LitterPhoto) bool {
			return a.SortOrder < b.SortOrder
		}),
		HealthTasks: sortBy(v.PuppyHealthTasks().ListBy(domain.ByLitter, l.ID), func(a, b domain.PuppyHealthTask) bool {
			return a.DueDate.Before(b.DueDate)
		}),
		Waitlist: sortBy(v.WaitlistEntries().ListBy(domain.ByLitter, l.ID), func(a, b domain.WaitlistEntry) bool {
			return a.Position < b.Position
		}),
	}
}

func hydrateHeatCycle(now time.Time) func(domain.TransactionView, domain.HeatCycle) domain.HeatCycleDetail {
	return func(v domain.TransactionView, c domain.HeatCycle) domain.HeatCycleDetail {
		events := v.HeatEvents().ListBy(domain.ByCycle, c.ID)
		domain.SortHeatEvents(events)
		return domain.HeatCycleDetail{
			HeatCycle: c.AsOf(now),
			Bitch:     refID(v.Dogs(), c.BitchID),
			Events:    nonNil(events),
		}
	}
}

func hydrateHeatEvent(now time.Time) func(domain.TransactionView, domain.HeatEvent) domain.HeatEventDetail {
	return func(v domain.TransactionView, e domain.HeatEvent) domain.HeatEventDetail {
		detail := domain.HeatEventDetail{
			HeatEvent: e,
			Cycle:     refID(v.HeatCycles(), e.CycleID),
			Sire:      ref(v.Dogs(), e.SireID),
		}
		if detail.Cycle != nil {
			*detail.Cycle = detail.Cycle.AsOf(now)
		}
		return detail
	}
}

func hydrateSale(v domain.TransactionView, s domain.Sale) domain.SaleDetail {
	lines := sortBy(v.SalePuppies().ListBy(domain.BySale, s.ID), func(a, b domain.SalePuppy) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	})
	detail := domain.SaleDetail{
		Sale:       s,
		Client:     ref(v.Clients(), s.ClientID),
		Puppies:    make([]domain.SalePuppyDetail, 0, len(lines)),
		PuppyTotal: decimal.Zero,
	}
	for _, line := range lines {
		detail.Puppies = append(detail.Puppies, domain.SalePuppyDetail{SalePuppy: line, Dog: refID(v.Dogs(), line.DogID)})
		detail.PuppyTotal = detail.PuppyTotal.Add(line.Price)
	}
	return detail
}

func hydrateClient(v domain.TransactionView, c domain.Client) domain.ClientDetail {
	return domain.ClientDetail{
		Client: c,
		Sales: sortBy(v.Sales().ListBy(domain.ByClient, c.ID), func(a, b domain.Sale) bool {
			return newestFirst(a.SaleDate, b.SaleDate)
		}),
		Interests: sortBy(v.ClientInterests().ListBy(domain.ByClient, c.ID), func(a, b domain.ClientInterest) bool {
			return newestFirst(a.InterestDate, b.InterestDate)
		}),
		Waitlist: sortBy(v.WaitlistEntries().ListBy(domain.ByClient, c.ID), func(a, b domain.WaitlistEntry) bool {
			return a.Position < b.Position
		}),
		Communications: sortBy(v.CommunicationLogs().ListBy(domain.ByClient, c.ID), func(a, b domain.CommunicationLog) bool {
			return newestFirst(a.Date, b.Date)
		}),
	}
}

func hydrateInterest(v domain.TransactionView, i domain.ClientInterest) domain.ClientInterestDetail {
	return domain.ClientInterestDetail{
		ClientInterest: i,
		Client:         refID(v.Clients(), i.ClientID),
		Dog:            refID(v.Dogs(), i.DogID),
		ConvertedSale:  ref(v.Sales(), i.ConvertedToSaleID),
	}
}

func hydrateExpense(v domain.TransactionView, e domain.Expense) domain.ExpenseDetail {
	var docs []domain.Document
	for _, link := range v.ExpenseDocuments().ListBy(domain.ByExpense, e.ID) {
		if d, ok := v.Documents().Find(link.DocumentID); ok {
			docs = append(docs, d)
		}
	}
	return domain.ExpenseDetail{
		Expense:   e,
		Dog:       ref(v.Dogs(), e.DogID),
		Litter:    ref(v.Litters(), e.LitterID),
		Documents: sortBy(docs, func(a, b domain.Document) bool { return foldLess(a.Title, b.Title) }),
	}
}

func hydrateDocument(v domain.TransactionView, d domain.Document) domain.DocumentDetail {
	detail := domain.DocumentDetail{Document: d}
	for _, link := range v.DocumentTagLinks().ListBy(domain.ByDocument, d.ID) {
		if tag, ok := v.DocumentTags().Find(link.TagID); ok {
			detail.Tags = append(detail.Tags, tag)
		}
	}
	for _, link := range v.DogDocuments().ListBy(domain.ByDocument, d.ID) {
		if dog, ok := v.Dogs().Find(link.DogID); ok {
			detail.Dogs = append(detail.Dogs, dog)
		}
	}
	for _, link := range v.LitterDocuments().ListBy(domain.ByDocument, d.ID) {
		if litter, ok := v.Litters().Find(link.LitterID); ok {
			detail.Litters = append(detail.Litters, litter)
		}
	}
	for _, link := range v.ExpenseDocuments().ListBy(domain.ByDocument, d.ID) {
		if expense, ok := v.Expenses().Find(link.ExpenseID); ok {
			detail.Expenses = append(detail.Expenses, expense)
		}
	}
	detail.Tags = sortBy(detail.Tags, func(a, b domain.DocumentTag) bool { return foldLess(a.Name, b.Name) })
	detail.Dogs = sortBy(detail.Dogs, func(a, b domain.Dog) bool { return foldLess(a.Name, b.Name) })
	detail.Litters = sortBy(detail.Litters, func(a, b domain.Litter) bool { return foldLess(a.Name, b.Name) })
	detail.Expenses = sortBy(detail.Expenses, func(a, b domain.Expense) bool { return newestFirst(a.Date, b.Date) })
	return detail
}

// listDetails filters rows, orders them and hydrates each.
func listDetails[T, D any](rows []T, match func(T) bool, less func(a, b T) bool, hydrate func(T) D) []D {
	kept := rows[:0:0]
	for _, row := range rows {
		if match == nil || match(row) {
			kept = append(kept, row)
		}
	}
	if less != nil {
		sort.SliceStable(kept, func(i, j int) bool { return less(kept[i], kept[j]) })
	}
	out := make([]D, 0, len(kept))
	for _, row := range kept {
		out = append(out, hydrate(row))
	}
	return out
}

// getDetail hydrates the row with id, or reports false.
func getDetail[T, D any](ctx context.Context, s *Service, coll func(domain.TransactionView) domain.Collection[T], id string, hydrate func(domain.TransactionView, T) D) (D, bool) {
	var (
		out   D
		found bool
	)
	s.view(ctx, func(v domain.TransactionView) {
		if row, ok := coll(v).Find(id); ok {
			out, found = hydrate(v, row), true
		}
	})
	return out, found
}

// listAll hydrates every row yielded by rows that passes match.
func listAll[T, D any](ctx context.Context, s *Service, rows func(domain.TransactionView) []T, match func(T) bool, less func(a, b T) bool, hydrate func(domain.TransactionView, T) D) []D {
	var out []D
	s.view(ctx, func(v domain.TransactionView) {
		out = listDetails(rows(v), match, less, func(row T) D { return hydrate(v, row) })
	})
	return nonNil(out)
}

// scoped lists rows by foreign key when id is set, every row otherwise.
func scoped[T any](coll func(domain.TransactionView) domain.Collection[T], key domain.ForeignKey, id string) func(domain.TransactionView) []T {
	return func(v domain.TransactionView) []T {
		if id == "" {
			return coll(v).List()
		}
		return coll(v).ListBy(key, id)
	}
}

func opName(verb string, entity domain.EntityType) string {
	return verb + "_" + string(entity)
}

func all[T any](coll func(domain.TransactionView) domain.Collection[T]) func(domain.TransactionView) []T {
	return scoped(coll, "", "")
}
