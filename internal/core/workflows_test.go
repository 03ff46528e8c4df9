package core_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kennelcore/internal/core"
	"kennelcore/pkg/domain"
)

func TestCheckMatingCompatibilityCarrierPair(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dam := mustDog(t, svc, domain.Dog{Name: "Hazel", Sex: domain.SexFemale})
	sire := mustDog(t, svc, domain.Dog{Name: "Bruno", Sex: domain.SexMale})
	must[domain.GeneticTest](t)(svc.CreateGeneticTest(ctx, domain.GeneticTest{DogID: dam.ID, TestName: "DM", Result: domain.GeneticCarrier}))
	must[domain.GeneticTest](t)(svc.CreateGeneticTest(ctx, domain.GeneticTest{DogID: sire.ID, TestName: "DM", Result: domain.GeneticCarrier}))

	report, err := svc.CheckMatingCompatibility(ctx, dam.ID, sire.ID)
	if err != nil {
		t.Fatalf("check compatibility: %v", err)
	}
	if report.IsCompatible {
		t.Fatalf("carrier x carrier must be incompatible")
	}
	if len(report.Warnings) != 1 || report.Warnings[0].TestName != "DM" || report.Warnings[0].Severity != domain.RiskHigh {
		t.Fatalf("expected one high DM warning, got %+v", report.Warnings)
	}

	if _, err := svc.CheckMatingCompatibility(ctx, sire.ID, dam.ID); !domain.IsValidation(err) {
		t.Fatalf("swapped sexes should be rejected, got %v", err)
	}
}

func TestHeatCyclePrediction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	bitch := mustDog(t, svc, domain.Dog{Name: "Ivy", Sex: domain.SexFemale})
	male := mustDog(t, svc, domain.Dog{Name: "Ozzy", Sex: domain.SexMale})

	for _, start := range []time.Time{domain.Date(2023, 1, 1), domain.Date(2023, 7, 1)} {
		cycle := must[domain.HeatCycle](t)(svc.CreateHeatCycle(ctx, domain.HeatCycle{BitchID: bitch.ID, StartDate: start}))
		must[domain.HeatEvent](t)(svc.CreateHeatEvent(ctx, domain.HeatEvent{
			CycleID: cycle.ID, Date: domain.AddDays(start, 21), Type: domain.HeatEventCycleEnd,
		}))
	}

	prediction, err := svc.GetHeatCyclePrediction(ctx, bitch.ID)
	if err != nil {
		t.Fatalf("prediction: %v", err)
	}
	if prediction.Confidence != domain.ConfidenceMedium {
		t.Fatalf("expected medium confidence with two cycles, got %s", prediction.Confidence)
	}
	if prediction.PredictedNextHeat == nil {
		t.Fatalf("expected a predicted date")
	}

	if _, err := svc.GetHeatCyclePrediction(ctx, male.ID); !domain.IsValidation(err) {
		t.Fatalf("males have no heat prediction, got %v", err)
	}
}

func TestGenerateHealthTasksFromDefaultTemplate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	whelp := domain.Date(2024, 2, 1)
	litter, puppies := seedLitter(t, svc, whelp, "Fern", "Moss", "Reed")

	tasks, _, err := svc.GeneratePuppyHealthTasksForLitter(ctx, litter.ID, whelp, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var vaccinations []domain.PuppyHealthTask
	for _, task := range tasks {
		if task.TaskType == "vaccination" {
			vaccinations = append(vaccinations, task)
		}
	}
	if len(vaccinations) != len(puppies) {
		t.Fatalf("expected one vaccination per puppy, got %d", len(vaccinations))
	}
	for _, task := range vaccinations {
		if !task.DueDate.Equal(domain.Date(2024, 3, 14)) {
			t.Fatalf("expected due 2024-03-14, got %s", task.DueDate)
		}
		if task.PuppyID == nil {
			t.Fatalf("vaccination task should be per puppy")
		}
	}

	templates := svc.ListHealthTemplates(ctx)
	if len(templates) != 1 || !templates[0].IsDefault || templates[0].Name != domain.DefaultHealthTemplateName {
		t.Fatalf("expected lazily created default template, got %+v", templates)
	}

	again, _, err := svc.GeneratePuppyHealthTasksForLitter(ctx, litter.ID, time.Time{}, nil)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("regenerating should not duplicate tasks, got %d", len(again))
	}
	if n := len(svc.ListPuppyHealthTasks(ctx, core.HealthTaskFilter{LitterID: litter.ID})); n != len(tasks) {
		t.Fatalf("expected %d stored tasks, got %d", len(tasks), n)
	}
}

func TestGenerateHealthTasksNeedsWhelpDate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	litter := must[domain.Litter](t)(svc.CreateLitter(ctx, domain.Litter{Name: "Planned"}))
	if _, _, err := svc.GeneratePuppyHealthTasksForLitter(ctx, litter.ID, time.Time{}, nil); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n := len(svc.ListHealthTemplates(ctx)); n != 0 {
		t.Fatalf("failed generation must not leave a template behind, got %d", n)
	}
}

func TestConvertInterestAndDeleteSale(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, puppies := seedLitter(t, svc, domain.Date(2024, 1, 1), "Kit", "Lark")
	client := mustClient(t, svc, "Sam Rivera")
	interest := must[domain.ClientInterest](t)(svc.CreateClientInterest(ctx, domain.ClientInterest{ClientID: client.ID, DogID: puppies[0].ID}))

	p1, p2 := decimal.NewFromInt(2000), decimal.NewFromInt(1800)
	sale, _, err := svc.ConvertInterestToSale(ctx, interest.ID, core.SaleInput{
		Puppies: []core.SalePuppyInput{{DogID: puppies[0].ID, Price: &p1}, {DogID: puppies[1].ID, Price: &p2}},
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if sale.ClientID == nil || *sale.ClientID != client.ID {
		t.Fatalf("sale should default to the interest's client")
	}
	if !sale.Price.Equal(decimal.NewFromInt(3800)) {
		t.Fatalf("expected price summed from puppies, got %s", sale.Price)
	}
	for _, p := range puppies {
		d, _ := svc.GetDog(ctx, p.ID)
		if d.Status != domain.DogStatusSold {
			t.Fatalf("expected %s sold, got %s", p.Name, d.Status)
		}
	}
	converted, _ := svc.GetClientInterest(ctx, interest.ID)
	if converted.Status != domain.InterestConverted || converted.ConvertedSale == nil || converted.ConvertedSale.ID != sale.ID {
		t.Fatalf("expected converted interest pointing at sale, got %+v", converted.ClientInterest)
	}

	if ok, _, err := svc.DeleteSale(ctx, sale.ID); err != nil || !ok {
		t.Fatalf("delete sale: %v %v", ok, err)
	}
	for _, p := range puppies {
		d, _ := svc.GetDog(ctx, p.ID)
		if d.Status != domain.DogStatusActive {
			t.Fatalf("expected %s active after sale deletion, got %s", p.Name, d.Status)
		}
	}
	reset, _ := svc.GetClientInterest(ctx, interest.ID)
	if reset.Status != domain.InterestInterested || reset.ConvertedToSaleID != nil {
		t.Fatalf("expected interest reset, got %+v", reset.ClientInterest)
	}
}

func TestConvertInterestIsAtomic(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	pup := mustDog(t, svc, domain.Dog{Name: "Wren", Sex: domain.SexFemale})
	client := mustClient(t, svc, "Avery Park")
	interest := must[domain.ClientInterest](t)(svc.CreateClientInterest(ctx, domain.ClientInterest{ClientID: client.ID, DogID: pup.ID}))

	_, _, err := svc.ConvertInterestToSale(ctx, interest.ID, core.SaleInput{
		Sale:    domain.Sale{Price: decimal.NewFromInt(1500)},
		Puppies: []core.SalePuppyInput{{DogID: pup.ID}, {DogID: "ghost"}},
	})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error for unknown puppy, got %v", err)
	}
	if n := len(svc.ListSales(ctx, core.SaleFilter{})); n != 0 {
		t.Fatalf("failed conversion left %d sales", n)
	}
	d, _ := svc.GetDog(ctx, pup.ID)
	if d.Status != domain.DogStatusActive {
		t.Fatalf("failed conversion changed dog status to %s", d.Status)
	}
	i, _ := svc.GetClientInterest(ctx, interest.ID)
	if i.Status != domain.InterestInterested {
		t.Fatalf("failed conversion changed interest status to %s", i.Status)
	}
}

func TestSaleExclusivity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	pup := mustDog(t, svc, domain.Dog{Name: "Juniper", Sex: domain.SexFemale})
	a := mustClient(t, svc, "Client A")
	b := mustClient(t, svc, "Client B")
	saleA := must[domain.Sale](t)(svc.CreateSale(ctx, domain.Sale{ClientID: strPtr(a.ID), SaleDate: testNow}))
	saleB := must[domain.Sale](t)(svc.CreateSale(ctx, domain.Sale{ClientID: strPtr(b.ID), SaleDate: testNow}))

	must[domain.SalePuppy](t)(svc.AddPuppyToSale(ctx, saleA.ID, pup.ID, decimal.NewFromInt(1000)))
	if _, _, err := svc.AddPuppyToSale(ctx, saleB.ID, pup.ID, decimal.NewFromInt(1000)); !domain.IsValidation(err) {
		t.Fatalf("expected dog held by another active sale to be rejected, got %v", err)
	}

	removed, _, err := svc.RemovePuppyFromSale(ctx, saleA.ID, pup.ID)
	if err != nil || !removed {
		t.Fatalf("remove puppy: %v %v", removed, err)
	}
	d, _ := svc.GetDog(ctx, pup.ID)
	if d.Status != domain.DogStatusActive {
		t.Fatalf("expected dog active after removal, got %s", d.Status)
	}
	removed, _, err = svc.RemovePuppyFromSale(ctx, saleA.ID, pup.ID)
	if err != nil || removed {
		t.Fatalf("second removal should report false, got %v %v", removed, err)
	}
}

func TestReorderWaitlistIsContiguous(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	litter, _ := seedLitter(t, svc, domain.Date(2024, 1, 1))
	var general []domain.WaitlistEntry
	for _, name := range []string{"First", "Second", "Third"} {
		c := mustClient(t, svc, name)
		general = append(general, must[domain.WaitlistEntry](t)(svc.CreateWaitlistEntry(ctx, domain.WaitlistEntry{ClientID: c.ID})))
	}
	other := must[domain.WaitlistEntry](t)(svc.CreateWaitlistEntry(ctx, domain.WaitlistEntry{
		ClientID: general[0].ClientID, LitterID: strPtr(litter.ID),
	}))
	if other.Position != 1 {
		t.Fatalf("litter partition should start at 1, got %d", other.Position)
	}

	ordered, res, err := svc.ReorderWaitlist(ctx, nil, []string{general[2].ID, other.ID, general[0].ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations %+v", res.Violations)
	}
	want := []string{general[2].ID, general[0].ID, general[1].ID}
	for i, e := range ordered {
		if e.ID != want[i] || e.Position != i+1 {
			t.Fatalf("position %d: got %s at %d", i+1, e.ID, e.Position)
		}
	}
	untouched, _ := svc.GetWaitlistEntry(ctx, other.ID)
	if untouched.Position != 1 {
		t.Fatalf("other partition must not change, got %d", untouched.Position)
	}
}

func TestReorderLitterPhotos(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	litter, _ := seedLitter(t, svc, domain.Date(2024, 1, 1))
	var ids []string
	for _, path := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		ids = append(ids, must[domain.LitterPhoto](t)(svc.CreateLitterPhoto(ctx, domain.LitterPhoto{LitterID: litter.ID, FilePath: path})).ID)
	}
	photos, _, err := svc.ReorderLitterPhotos(ctx, litter.ID, []string{ids[1]})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	got := make([]string, len(photos))
	for i, p := range photos {
		if p.SortOrder != i {
			t.Fatalf("expected sort order %d, got %d", i, p.SortOrder)
		}
		got[i] = p.FilePath
	}
	if strings.Join(got, ",") != "b.jpg,a.jpg,c.jpg" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestBreedingRecommendationRejectsNegative(t *testing.T) {
	svc := newTestService(t)
	advice, err := svc.GetBreedingRecommendation(6.0)
	if err != nil || advice.DaysToBreeding != "NOW" {
		t.Fatalf("expected optimal window, got %+v %v", advice, err)
	}
	if _, err := svc.GetBreedingRecommendation(-1); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
