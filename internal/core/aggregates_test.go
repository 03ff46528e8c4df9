package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kennelcore/internal/core"
	"kennelcore/pkg/domain"
)

func TestVaccinationDueLists(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dog := mustDog(t, svc, domain.Dog{Name: "Clover", Sex: domain.SexFemale})
	sold := mustDog(t, svc, domain.Dog{Name: "Gone", Sex: domain.SexMale, Status: domain.DogStatusSold})

	// superseded by the later rabies record, so never reported
	must[domain.VaccinationRecord](t)(svc.CreateVaccination(ctx, domain.VaccinationRecord{
		DogID: dog.ID, VaccineType: "Rabies", DateGiven: domain.Date(2022, 2, 1), NextDueDate: timePtr(domain.Date(2023, 2, 1)),
	}))
	week := must[domain.VaccinationRecord](t)(svc.CreateVaccination(ctx, domain.VaccinationRecord{
		DogID: dog.ID, VaccineType: "Rabies", DateGiven: domain.Date(2023, 3, 5), NextDueDate: timePtr(domain.Date(2024, 3, 5)),
	}))
	late := must[domain.VaccinationRecord](t)(svc.CreateVaccination(ctx, domain.VaccinationRecord{
		DogID: dog.ID, VaccineType: "DHPP", DateGiven: domain.Date(2023, 2, 1), NextDueDate: timePtr(domain.Date(2024, 2, 1)),
	}))
	must[domain.VaccinationRecord](t)(svc.CreateVaccination(ctx, domain.VaccinationRecord{
		DogID: sold.ID, VaccineType: "DHPP", DateGiven: domain.Date(2023, 2, 1), NextDueDate: timePtr(domain.Date(2024, 2, 1)),
	}))

	due := svc.VaccinationsDueThisWeek(ctx)
	if len(due) != 1 || due[0].ID != week.ID || due[0].Dog == nil {
		t.Fatalf("expected rabies due this week, got %+v", due)
	}
	overdue := svc.OverdueVaccinations(ctx)
	if len(overdue) != 1 || overdue[0].ID != late.ID {
		t.Fatalf("expected DHPP overdue, got %+v", overdue)
	}
}

func TestDashboardStats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	litter, puppies := seedLitter(t, svc, domain.Date(2024, 1, 20), "Aster", "Basil", "Cedar")
	must[domain.Litter](t)(svc.CreateLitter(ctx, domain.Litter{
		Name: "Due soon", Status: domain.LitterStatusBred, DueDate: timePtr(domain.Date(2024, 3, 20)),
	}))
	client := mustClient(t, svc, "Morgan")
	sale := must[domain.Sale](t)(svc.CreateSale(ctx, domain.Sale{ClientID: strPtr(client.ID), SaleDate: domain.Date(2024, 2, 15), Price: decimal.NewFromInt(2500)}))
	must[domain.SalePuppy](t)(svc.AddPuppyToSale(ctx, sale.ID, puppies[0].ID, decimal.NewFromInt(2500)))
	must[domain.Sale](t)(svc.CreateSale(ctx, domain.Sale{ClientID: strPtr(client.ID), SaleDate: domain.Date(2023, 12, 1), Price: decimal.NewFromInt(900)}))
	must[domain.WaitlistEntry](t)(svc.CreateWaitlistEntry(ctx, domain.WaitlistEntry{ClientID: client.ID, LitterID: strPtr(litter.ID)}))
	must[domain.Expense](t)(svc.CreateExpense(ctx, domain.Expense{Date: domain.Date(2024, 1, 2), Amount: decimal.RequireFromString("75.50"), Category: domain.ExpenseFood}))
	must[domain.Expense](t)(svc.CreateExpense(ctx, domain.Expense{Date: domain.Date(2023, 6, 2), Amount: decimal.NewFromInt(500), Category: domain.ExpenseVet}))
	must[domain.CommunicationLog](t)(svc.CreateCommunicationLog(ctx, domain.CommunicationLog{
		ClientID: client.ID, Date: domain.Date(2024, 2, 20), Channel: domain.ChannelEmail, Direction: domain.DirectionOutbound,
		FollowUpRequired: true, FollowUpDate: timePtr(domain.Date(2024, 2, 25)),
	}))

	stats := svc.GetDashboardStats(ctx)
	if stats.TotalDogs != 5 || stats.SoldDogs != 1 || stats.ActiveDogs != 4 {
		t.Fatalf("unexpected dog counts %+v", stats)
	}
	if stats.AvailablePuppies != 2 {
		t.Fatalf("expected 2 available puppies, got %d", stats.AvailablePuppies)
	}
	if stats.ActiveLitters != 2 || stats.LittersDueSoon != 1 {
		t.Fatalf("unexpected litter counts: active %d, due soon %d", stats.ActiveLitters, stats.LittersDueSoon)
	}
	if stats.PendingSales != 2 || stats.WaitlistSize != 1 || stats.TotalClients != 1 {
		t.Fatalf("unexpected client counts %+v", stats)
	}
	if !stats.RevenueThisYear.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("expected revenue 2500, got %s", stats.RevenueThisYear)
	}
	if !stats.ExpensesThisYear.Equal(decimal.RequireFromString("75.5")) {
		t.Fatalf("expected expenses 75.50, got %s", stats.ExpensesThisYear)
	}
	if stats.OverdueFollowUps != 1 || stats.FollowUpsDueThisWeek != 0 {
		t.Fatalf("unexpected follow-up counts %+v", stats)
	}
	if !stats.GeneratedAt.Equal(testNow) {
		t.Fatalf("expected service clock, got %s", stats.GeneratedAt)
	}
}

func TestPuppyHealthTasksDue(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	// whelped 2024-01-20: the 42-day vaccination falls on 2024-03-02
	litter, puppies := seedLitter(t, svc, domain.Date(2024, 1, 20), "Dune")
	if _, _, err := svc.GeneratePuppyHealthTasksForLitter(ctx, litter.ID, domain.Date(2024, 1, 20), nil); err != nil {
		t.Fatalf("generate: %v", err)
	}

	week := svc.PuppyHealthTasksDueThisWeek(ctx)
	if len(week) != 1 || week[0].TaskType != "vaccination" || week[0].Puppy == nil || week[0].Puppy.ID != puppies[0].ID {
		t.Fatalf("expected vaccination due this week, got %+v", week)
	}
	overdue := svc.OverduePuppyHealthTasks(ctx)
	if len(overdue) != 6 {
		t.Fatalf("expected six overdue tasks before day 42, got %d", len(overdue))
	}

	if _, _, err := svc.CompletePuppyHealthTask(ctx, week[0].ID, testNow); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if n := len(svc.PuppyHealthTasksDueThisWeek(ctx)); n != 0 {
		t.Fatalf("completed task still due, got %d", n)
	}
}

func TestExpenseSummaryByCategoryLabel(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	must[domain.Expense](t)(svc.CreateExpense(ctx, domain.Expense{Date: domain.Date(2024, 1, 5), Amount: decimal.NewFromInt(40), Category: domain.ExpenseFood}))
	must[domain.Expense](t)(svc.CreateExpense(ctx, domain.Expense{Date: domain.Date(2024, 1, 6), Amount: decimal.NewFromInt(60), Category: domain.ExpenseFood}))
	must[domain.Expense](t)(svc.CreateExpense(ctx, domain.Expense{Date: domain.Date(2024, 1, 31), Amount: decimal.NewFromInt(150), Category: domain.ExpenseCustom, CustomCategory: "Show fees"}))
	must[domain.Expense](t)(svc.CreateExpense(ctx, domain.Expense{Date: domain.Date(2024, 2, 1), Amount: decimal.NewFromInt(999), Category: domain.ExpenseVet}))

	summary := svc.GetExpenseSummary(ctx, domain.Date(2024, 1, 1), domain.Date(2024, 1, 31))
	if summary.Count != 3 || !summary.Total.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected totals %+v", summary)
	}
	if !summary.ByCategory["food"].Equal(decimal.NewFromInt(100)) || !summary.ByCategory["Show fees"].Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected categories %+v", summary.ByCategory)
	}
}

func TestLitterFinancials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	litter, puppies := seedLitter(t, svc, domain.Date(2024, 1, 1), "Echo", "Flint")
	must[domain.Expense](t)(svc.CreateExpense(ctx, domain.Expense{
		Date: domain.Date(2024, 1, 3), Amount: decimal.NewFromInt(800), Category: domain.ExpenseVet, LitterID: strPtr(litter.ID),
	}))
	client := mustClient(t, svc, "Quinn")
	sale := must[domain.Sale](t)(svc.CreateSale(ctx, domain.Sale{ClientID: strPtr(client.ID), SaleDate: testNow, Price: decimal.NewFromInt(2200)}))
	must[domain.SalePuppy](t)(svc.AddPuppyToSale(ctx, sale.ID, puppies[1].ID, decimal.NewFromInt(2200)))

	fin, ok := svc.GetLitterFinancials(ctx, litter.ID)
	if !ok {
		t.Fatalf("expected litter")
	}
	if fin.Puppies != 2 || fin.PuppiesSold != 1 {
		t.Fatalf("unexpected puppy counts %+v", fin)
	}
	if !fin.Profit.Equal(decimal.NewFromInt(1400)) {
		t.Fatalf("expected profit 1400, got %s", fin.Profit)
	}
	if _, ok := svc.GetLitterFinancials(ctx, "missing"); ok {
		t.Fatalf("missing litter should report false")
	}
}

func TestGrowthChartAgesFromWhelpDate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	litter, puppies := seedLitter(t, svc, domain.Date(2024, 1, 1), "Gale", "Holly")
	for i, day := range []int{8, 1} {
		must[domain.WeightEntry](t)(svc.CreateWeightEntry(ctx, domain.WeightEntry{
			DogID: puppies[0].ID, Date: domain.Date(2024, 1, day), Weight: float64(i + 1), Unit: domain.WeightUnitPound,
		}))
	}

	chart, ok := svc.GetGrowthChart(ctx, litter.ID)
	if !ok || len(chart) != 2 {
		t.Fatalf("expected two series, got %d", len(chart))
	}
	points := chart[0].Points
	if chart[0].Dog.ID != puppies[0].ID || len(points) != 2 {
		t.Fatalf("unexpected first series %+v", chart[0])
	}
	if points[0].AgeDays == nil || *points[0].AgeDays != 0 || *points[1].AgeDays != 7 {
		t.Fatalf("expected ages 0 and 7, got %+v", points)
	}
	if len(chart[1].Points) != 0 {
		t.Fatalf("expected empty series for second puppy")
	}
}

func TestPedigreeDepth(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	gs := mustDog(t, svc, domain.Dog{Name: "Grandsire", Sex: domain.SexMale})
	sire := mustDog(t, svc, domain.Dog{Name: "Sire", Sex: domain.SexMale, SireID: strPtr(gs.ID)})
	dam := mustDog(t, svc, domain.Dog{Name: "Dam", Sex: domain.SexFemale})
	pup := mustDog(t, svc, domain.Dog{Name: "Pup", Sex: domain.SexFemale, SireID: strPtr(sire.ID), DamID: strPtr(dam.ID)})

	tree, ok := svc.GetPedigree(ctx, pup.ID, 2)
	if !ok || tree.Sire == nil || tree.Dam == nil {
		t.Fatalf("expected parents in tree, got %+v", tree)
	}
	if tree.Sire.Sire != nil {
		t.Fatalf("depth 2 should stop at parents")
	}
	full, _ := svc.GetPedigree(ctx, pup.ID, 0)
	if full.Sire.Sire == nil || full.Sire.Sire.Dog.ID != gs.ID {
		t.Fatalf("default depth should reach grandparents")
	}
	if _, ok := svc.GetPedigree(ctx, "missing", 3); ok {
		t.Fatalf("missing dog should report false")
	}
}

func TestHeatPhaseFollowsClock(t *testing.T) {
	now := domain.Date(2024, 1, 5)
	svc := newTestService(t, core.WithClock(core.ClockFunc(func() time.Time { return now })))
	ctx := context.Background()
	bitch := mustDog(t, svc, domain.Dog{Name: "Juno", Sex: domain.SexFemale})
	cycle := must[domain.HeatCycle](t)(svc.CreateHeatCycle(ctx, domain.HeatCycle{BitchID: bitch.ID, StartDate: domain.Date(2024, 1, 1)}))
	if cycle.CurrentPhase != domain.PhaseProestrus {
		t.Fatalf("expected proestrus at onset, got %s", cycle.CurrentPhase)
	}
	if _, _, err := svc.CreateHeatCycle(ctx, domain.HeatCycle{BitchID: bitch.ID, StartDate: domain.Date(2024, 1, 2)}); !domain.IsValidation(err) {
		t.Fatalf("second open cycle should be rejected, got %v", err)
	}
	if got := svc.GetDashboardStats(ctx).DogsInHeat; got != 1 {
		t.Fatalf("expected one dog in heat, got %d", got)
	}

	// No writes happen while the clock moves past proestrus.
	now = domain.Date(2024, 1, 20)
	detail, ok := svc.GetHeatCycle(ctx, cycle.ID)
	if !ok || detail.CurrentPhase != domain.PhaseEstrus {
		t.Fatalf("expected estrus on day 19, got %+v", detail.HeatCycle)
	}
	dog, _ := svc.GetDog(ctx, bitch.ID)
	if len(dog.HeatCycles) != 1 || dog.HeatCycles[0].CurrentPhase != domain.PhaseEstrus {
		t.Fatalf("dog detail should carry the current phase, got %+v", dog.HeatCycles)
	}
	if listed := svc.ListHeatCycles(ctx, core.HeatCycleFilter{DogID: bitch.ID}); listed[0].CurrentPhase != domain.PhaseEstrus {
		t.Fatalf("listed cycle phase %s", listed[0].CurrentPhase)
	}

	must[domain.HeatEvent](t)(svc.CreateHeatEvent(ctx, domain.HeatEvent{
		CycleID: cycle.ID, Date: domain.Date(2024, 1, 16), Type: domain.HeatEventEndReceptive,
	}))
	if got := svc.GetDashboardStats(ctx).DogsInHeat; got != 0 {
		t.Fatalf("diestrus is not in heat, got %d", got)
	}

	must[domain.HeatEvent](t)(svc.CreateHeatEvent(ctx, domain.HeatEvent{
		CycleID: cycle.ID, Date: domain.Date(2024, 1, 20), Type: domain.HeatEventCycleEnd,
	}))
	must[domain.HeatCycle](t)(svc.CreateHeatCycle(ctx, domain.HeatCycle{BitchID: bitch.ID, StartDate: domain.Date(2024, 1, 20)}))
	if got := svc.GetDashboardStats(ctx).DogsInHeat; got != 1 {
		t.Fatalf("expected the new cycle in heat, got %d", got)
	}
}
