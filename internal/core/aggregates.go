package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"kennelcore/pkg/domain"
)

const (
	dueSoonDays          = 30
	defaultPedigreeDepth = 3
	maxPedigreeDepth     = 10
)

type dueState int

const (
	notDue dueState = iota
	dueThisWeek
	overdue
)

func dueStatus(due, now time.Time) dueState {
	from, to := domain.WeekWindow(now)
	switch {
	case domain.Day(due).Before(from):
		return overdue
	case domain.InWindow(due, from, to):
		return dueThisWeek
	default:
		return notDue
	}
}

// vaccinationsDue splits the vaccinations still governing a dog's schedule
// into due-this-week and overdue. Only the latest record per dog and vaccine
// counts, and dogs no longer in the kennel are skipped.
func vaccinationsDue(v domain.TransactionView, now time.Time) (week, late []domain.VaccinationRecord) {
	latest := make(map[[2]string]domain.VaccinationRecord)
	for _, r := range v.Vaccinations().List() {
		key := [2]string{r.DogID, r.VaccineType}
		if cur, ok := latest[key]; !ok || r.DateGiven.After(cur.DateGiven) {
			latest[key] = r
		}
	}
	for _, r := range latest {
		if r.NextDueDate == nil {
			continue
		}
		dog, ok := v.Dogs().Find(r.DogID)
		if !ok || dog.Status == domain.DogStatusSold || dog.Status == domain.DogStatusDeceased {
			continue
		}
		switch dueStatus(*r.NextDueDate, now) {
		case dueThisWeek:
			week = append(week, r)
		case overdue:
			late = append(late, r)
		}
	}
	less := func(a, b domain.VaccinationRecord) bool {
		if !a.NextDueDate.Equal(*b.NextDueDate) {
			return a.NextDueDate.Before(*b.NextDueDate)
		}
		return a.ID < b.ID
	}
	return sortBy(week, less), sortBy(late, less)
}

func healthTasksDue(v domain.TransactionView, now time.Time) (week, late []domain.PuppyHealthTask) {
	for _, t := range v.PuppyHealthTasks().List() {
		if t.IsCompleted {
			continue
		}
		switch dueStatus(t.DueDate, now) {
		case dueThisWeek:
			week = append(week, t)
		case overdue:
			late = append(late, t)
		}
	}
	return sortBy(week, taskLess), sortBy(late, taskLess)
}

func followUpsDue(v domain.TransactionView, now time.Time) (week, late []domain.CommunicationLog) {
	for _, c := range v.CommunicationLogs().List() {
		if !openFollowUp(c) {
			continue
		}
		switch dueStatus(*c.FollowUpDate, now) {
		case dueThisWeek:
			week = append(week, c)
		case overdue:
			late = append(late, c)
		}
	}
	less := func(a, b domain.CommunicationLog) bool {
		if !a.FollowUpDate.Equal(*b.FollowUpDate) {
			return a.FollowUpDate.Before(*b.FollowUpDate)
		}
		return a.ID < b.ID
	}
	return sortBy(week, less), sortBy(late, less)
}

func hydrateAll[T, D any](v domain.TransactionView, rows []T, hydrate func(domain.TransactionView, T) D) []D {
	out := make([]D, len(rows))
	for i, row := range rows {
		out[i] = hydrate(v, row)
	}
	return out
}

// VaccinationsDueThisWeek returns vaccinations whose next dose falls between
// today and a week from today.
func (s *Service) VaccinationsDueThisWeek(ctx context.Context) []domain.VaccinationDetail {
	var out []domain.VaccinationDetail
	s.view(ctx, func(v domain.TransactionView) {
		week, _ := vaccinationsDue(v, s.now())
		out = hydrateAll(v, week, hydrateVaccination)
	})
	return nonNil(out)
}

// OverdueVaccinations returns vaccinations whose next dose is before today.
func (s *Service) OverdueVaccinations(ctx context.Context) []domain.VaccinationDetail {
	var out []domain.VaccinationDetail
	s.view(ctx, func(v domain.TransactionView) {
		_, late := vaccinationsDue(v, s.now())
		out = hydrateAll(v, late, hydrateVaccination)
	})
	return nonNil(out)
}

func (s *Service) PuppyHealthTasksDueThisWeek(ctx context.Context) []domain.PuppyHealthTaskDetail {
	var out []domain.PuppyHealthTaskDetail
	s.view(ctx, func(v domain.TransactionView) {
		week, _ := healthTasksDue(v, s.now())
		out = hydrateAll(v, week, hydrateHealthTask)
	})
	return nonNil(out)
}

func (s *Service) OverduePuppyHealthTasks(ctx context.Context) []domain.PuppyHealthTaskDetail {
	var out []domain.PuppyHealthTaskDetail
	s.view(ctx, func(v domain.TransactionView) {
		_, late := healthTasksDue(v, s.now())
		out = hydrateAll(v, late, hydrateHealthTask)
	})
	return nonNil(out)
}

// FollowUpsDueThisWeek returns open client follow-ups due within the week.
func (s *Service) FollowUpsDueThisWeek(ctx context.Context) []domain.CommunicationLogDetail {
	var out []domain.CommunicationLogDetail
	s.view(ctx, func(v domain.TransactionView) {
		week, _ := followUpsDue(v, s.now())
		out = hydrateAll(v, week, hydrateCommunication)
	})
	return nonNil(out)
}

func (s *Service) OverdueFollowUps(ctx context.Context) []domain.CommunicationLogDetail {
	var out []domain.CommunicationLogDetail
	s.view(ctx, func(v domain.TransactionView) {
		_, late := followUpsDue(v, s.now())
		out = hydrateAll(v, late, hydrateCommunication)
	})
	return nonNil(out)
}

// heldDogs returns the dogs on active sales.
func heldDogs(v domain.TransactionView) map[string]bool {
	held := make(map[string]bool)
	for _, line := range v.SalePuppies().List() {
		if sale, ok := v.Sales().Find(line.SaleID); ok && sale.IsActive() {
			held[line.DogID] = true
		}
	}
	return held
}

// GetDashboardStats summarises the kennel as of the service clock.
func (s *Service) GetDashboardStats(ctx context.Context) domain.DashboardStats {
	now := s.now()
	today := domain.Day(now)
	year := today.Year()
	stats := domain.DashboardStats{
		GeneratedAt:      now,
		RevenueThisYear:  decimal.Zero,
		ExpensesThisYear: decimal.Zero,
	}
	s.view(ctx, func(v domain.TransactionView) {
		held := heldDogs(v)
		for _, d := range v.Dogs().List() {
			stats.TotalDogs++
			switch d.Status {
			case domain.DogStatusActive:
				stats.ActiveDogs++
				if d.LitterID != nil && !held[d.ID] {
					stats.AvailablePuppies++
				}
			case domain.DogStatusSold:
				stats.SoldDogs++
			case domain.DogStatusRetired:
				stats.RetiredDogs++
			}
			switch d.Sex {
			case domain.SexFemale:
				stats.Females++
			case domain.SexMale:
				stats.Males++
			}
		}

		soon := today.AddDate(0, 0, dueSoonDays)
		for _, l := range v.Litters().List() {
			if l.Status != domain.LitterStatusPlanned && l.Status != domain.LitterStatusCompleted {
				stats.ActiveLitters++
			}
			if l.WhelpDate == nil && l.DueDate != nil && domain.InWindow(*l.DueDate, today, soon) {
				stats.LittersDueSoon++
			}
		}

		inHeat := make(map[string]struct{})
		for _, c := range v.HeatCycles().List() {
			if c.EndDate == nil && c.AsOf(now).CurrentPhase.InHeat() {
				inHeat[c.BitchID] = struct{}{}
			}
		}
		stats.DogsInHeat = len(inHeat)

		stats.TotalClients = v.Clients().Len()
		for _, w := range v.WaitlistEntries().List() {
			if w.Status == domain.WaitlistWaiting {
				stats.WaitlistSize++
			}
		}
		for _, sale := range v.Sales().List() {
			if sale.Status == domain.SaleStatusPending {
				stats.PendingSales++
			}
			if sale.IsActive() && sale.SaleDate.Year() == year {
				stats.RevenueThisYear = stats.RevenueThisYear.Add(sale.Price)
			}
		}
		for _, e := range v.Expenses().List() {
			if e.Date.Year() == year {
				stats.ExpensesThisYear = stats.ExpensesThisYear.Add(e.Amount)
			}
		}

		vw, vl := vaccinationsDue(v, now)
		tw, tl := healthTasksDue(v, now)
		fw, fl := followUpsDue(v, now)
		stats.VaccinationsDueThisWeek, stats.OverdueVaccinations = len(vw), len(vl)
		stats.HealthTasksDueThisWeek, stats.OverdueHealthTasks = len(tw), len(tl)
		stats.FollowUpsDueThisWeek, stats.OverdueFollowUps = len(fw), len(fl)
	})
	return stats
}

// GetExpenseSummary totals expenses dated within [from, to] by calendar day,
// keyed by category label so custom categories are reported by name.
func (s *Service) GetExpenseSummary(ctx context.Context, from, to time.Time) domain.ExpenseSummary {
	out := domain.ExpenseSummary{
		From:       domain.Day(from),
		To:         domain.Day(to),
		Total:      decimal.Zero,
		ByCategory: make(map[string]decimal.Decimal),
	}
	s.view(ctx, func(v domain.TransactionView) {
		for _, e := range v.Expenses().List() {
			if !domain.InWindow(e.Date, from, to) {
				continue
			}
			label := e.CategoryLabel()
			out.ByCategory[label] = out.ByCategory[label].Add(e.Amount)
			out.Total = out.Total.Add(e.Amount)
			out.Count++
		}
	})
	return out
}

// GetLitterFinancials compares a litter's expenses with the prices of its
// puppies on active sales.
func (s *Service) GetLitterFinancials(ctx context.Context, litterID string) (domain.LitterFinancials, bool) {
	out := domain.LitterFinancials{LitterID: litterID, Expenses: decimal.Zero, Revenue: decimal.Zero}
	found := false
	s.view(ctx, func(v domain.TransactionView) {
		if _, found = v.Litters().Find(litterID); !found {
			return
		}
		for _, e := range v.Expenses().ListBy(domain.ByLitter, litterID) {
			out.Expenses = out.Expenses.Add(e.Amount)
		}
		for _, puppy := range v.Dogs().ListBy(domain.ByLitter, litterID) {
			out.Puppies++
			sold := false
			for _, line := range v.SalePuppies().ListBy(domain.ByDog, puppy.ID) {
				sale, ok := v.Sales().Find(line.SaleID)
				if !ok || !sale.IsActive() {
					continue
				}
				out.Revenue = out.Revenue.Add(line.Price)
				sold = true
			}
			if sold {
				out.PuppiesSold++
			}
		}
		out.Profit = out.Revenue.Sub(out.Expenses)
	})
	return out, found
}

// birthDate is the dog's date of birth, or its litter's whelp date.
func birthDate(v domain.TransactionView, d domain.Dog) *time.Time {
	if d.DateOfBirth != nil {
		return d.DateOfBirth
	}
	if l := ref(v.Litters(), d.LitterID); l != nil {
		return l.WhelpDate
	}
	return nil
}

func growthSeries(v domain.TransactionView, d domain.Dog) domain.GrowthSeries {
	born := birthDate(v, d)
	entries := sortBy(v.WeightEntries().ListBy(domain.ByDog, d.ID), func(a, b domain.WeightEntry) bool {
		return a.Date.Before(b.Date)
	})
	points := make([]domain.GrowthPoint, len(entries))
	for i, w := range entries {
		points[i] = domain.GrowthPoint{Date: w.Date, Weight: w.Weight, Unit: w.Unit}
		if born != nil {
			age := domain.DaysBetween(*born, w.Date)
			points[i].AgeDays = &age
		}
	}
	return domain.GrowthSeries{Dog: d, Points: points}
}

// GetWeightLog returns a dog's weights in date order with age in days where
// the birth date is known.
func (s *Service) GetWeightLog(ctx context.Context, dogID string) (domain.GrowthSeries, bool) {
	var (
		out   domain.GrowthSeries
		found bool
	)
	s.view(ctx, func(v domain.TransactionView) {
		var d domain.Dog
		if d, found = v.Dogs().Find(dogID); found {
			out = growthSeries(v, d)
		}
	})
	return out, found
}

// GetGrowthChart returns one weight series per puppy of the litter, ordered by
// puppy name.
func (s *Service) GetGrowthChart(ctx context.Context, litterID string) ([]domain.GrowthSeries, bool) {
	var (
		out   []domain.GrowthSeries
		found bool
	)
	s.view(ctx, func(v domain.TransactionView) {
		if _, found = v.Litters().Find(litterID); !found {
			return
		}
		puppies := sortBy(v.Dogs().ListBy(domain.ByLitter, litterID), func(a, b domain.Dog) bool {
			return foldLess(a.Name, b.Name)
		})
		out = hydrateAll(v, puppies, growthSeries)
	})
	return nonNil(out), found
}

// GetPedigree builds the ancestry tree of a dog to the given depth, counting
// the dog itself as the first generation. Non-positive depths use three
// generations. A dog reappearing in its own line ends that branch.
func (s *Service) GetPedigree(ctx context.Context, dogID string, generations int) (*domain.PedigreeNode, bool) {
	if generations <= 0 {
		generations = defaultPedigreeDepth
	}
	generations = min(generations, maxPedigreeDepth)
	var root *domain.PedigreeNode
	s.view(ctx, func(v domain.TransactionView) {
		root = pedigreeNode(v, &dogID, generations, map[string]bool{})
	})
	return root, root != nil
}

func pedigreeNode(v domain.TransactionView, id *string, depth int, line map[string]bool) *domain.PedigreeNode {
	if depth == 0 || id == nil || line[*id] {
		return nil
	}
	d, ok := v.Dogs().Find(*id)
	if !ok {
		return nil
	}
	line[d.ID] = true
	defer delete(line, d.ID)
	return &domain.PedigreeNode{
		Dog:  d,
		Sire: pedigreeNode(v, d.SireID, depth-1, line),
		Dam:  pedigreeNode(v, d.DamID, depth-1, line),
	}
}
