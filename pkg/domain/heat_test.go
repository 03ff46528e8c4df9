package domain

import (
	"testing"
	"time"
)

func heatEvent(id string, date time.Time, typ HeatEventType) HeatEvent {
	return HeatEvent{Base: Base{ID: id}, CycleID: "c1", Date: date, Type: typ}
}

func TestDeriveHeatCycleFromOvulation(t *testing.T) {
	cycle := HeatCycle{Base: Base{ID: "c1"}, BitchID: "b1", StartDate: Date(2024, 1, 1)}
	events := []HeatEvent{heatEvent("e1", Date(2024, 1, 10), HeatEventOvulation)}

	got := DeriveHeatCycle(cycle, events, Date(2024, 1, 12))
	checks := []struct {
		name string
		got  *time.Time
		want time.Time
	}{
		{"ovulation", got.OvulationDate, Date(2024, 1, 10)},
		{"optimal start", got.OptimalBreedingStart, Date(2024, 1, 11)},
		{"optimal end", got.OptimalBreedingEnd, Date(2024, 1, 13)},
		{"expected due", got.ExpectedDueDate, Date(2024, 3, 13)},
	}
	for _, c := range checks {
		if c.got == nil || !c.got.Equal(c.want) {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
	if got.EndDate != nil || got.IsBred {
		t.Fatalf("expected open, unbred cycle")
	}
}

func TestDeriveHeatCycleIsIdempotent(t *testing.T) {
	cycle := HeatCycle{Base: Base{ID: "c1"}, StartDate: Date(2024, 1, 1)}
	events := []HeatEvent{
		heatEvent("e3", Date(2024, 1, 22), HeatEventCycleEnd),
		heatEvent("e1", Date(2024, 1, 9), HeatEventStanding),
		heatEvent("e2", Date(2024, 1, 12), HeatEventBreedingAI),
		heatEvent("e4", Date(2024, 1, 25), HeatEventCycleEnd),
		heatEvent("e5", Date(2024, 1, 11), HeatEventStanding),
	}
	now := Date(2024, 2, 1)
	first := DeriveHeatCycle(cycle, events, now)
	second := DeriveHeatCycle(first, events, now)

	if first.EndDate == nil || !first.EndDate.Equal(Date(2024, 1, 22)) {
		t.Fatalf("expected earliest cycle_end to win, got %v", first.EndDate)
	}
	if first.CycleLength == nil || *first.CycleLength != 21 {
		t.Fatalf("expected cycle length 21, got %v", first.CycleLength)
	}
	if first.NextHeatEstimate == nil || !first.NextHeatEstimate.Equal(AddDays(Date(2024, 1, 1), NextHeatDays)) {
		t.Fatalf("unexpected next heat estimate %v", first.NextHeatEstimate)
	}
	if first.StandingHeatStart == nil || !first.StandingHeatStart.Equal(Date(2024, 1, 9)) {
		t.Fatalf("expected first standing event to set standing start")
	}
	if !first.IsBred || first.CurrentPhase != PhaseAnestrus {
		t.Fatalf("expected bred, closed cycle, got %+v", first)
	}
	if *second.CycleLength != *first.CycleLength || !second.EndDate.Equal(*first.EndDate) {
		t.Fatalf("expected re-derivation to be stable")
	}
}

func TestDeriveHeatCycleIgnoresOtherCycles(t *testing.T) {
	cycle := HeatCycle{Base: Base{ID: "c1"}, StartDate: Date(2024, 1, 1)}
	foreign := heatEvent("x", Date(2024, 1, 5), HeatEventOvulation)
	foreign.CycleID = "c2"
	got := DeriveHeatCycle(cycle, []HeatEvent{foreign}, Date(2024, 1, 5))
	if got.OvulationDate != nil {
		t.Fatalf("expected events of other cycles ignored")
	}
}

func TestInferHeatPhase(t *testing.T) {
	start := Date(2024, 1, 1)
	standingEnd := Date(2024, 1, 15)
	ended := Date(2024, 1, 20)
	cases := []struct {
		name  string
		cycle HeatCycle
		now   time.Time
		want  HeatPhase
	}{
		{"onset", HeatCycle{StartDate: start}, start, PhaseProestrus},
		{"day nine", HeatCycle{StartDate: start}, AddDays(start, 9), PhaseProestrus},
		{"day ten without markers", HeatCycle{StartDate: start}, AddDays(start, 10), PhaseEstrus},
		{"standing heat over", HeatCycle{StartDate: start, StandingHeatEnd: &standingEnd}, AddDays(start, 16), PhaseDiestrus},
		{"standing heat not over yet", HeatCycle{StartDate: start, StandingHeatEnd: &standingEnd}, AddDays(start, 12), PhaseEstrus},
		{"closed", HeatCycle{StartDate: start, EndDate: &ended}, AddDays(start, 3), PhaseAnestrus},
	}
	for _, c := range cases {
		if got := InferHeatPhase(c.cycle, c.now); got != c.want {
			t.Errorf("%s: expected %s, got %s", c.name, c.want, got)
		}
	}
}

func TestAsOfReinfersPhase(t *testing.T) {
	start := Date(2024, 1, 1)
	stored := DeriveHeatCycle(HeatCycle{Base: Base{ID: "c1"}, StartDate: start}, nil, start)
	if stored.CurrentPhase != PhaseProestrus || !stored.CurrentPhase.InHeat() {
		t.Fatalf("expected proestrus at onset, got %s", stored.CurrentPhase)
	}
	later := stored.AsOf(AddDays(start, 30))
	if later.CurrentPhase != PhaseEstrus || stored.CurrentPhase != PhaseProestrus {
		t.Fatalf("AsOf should return a re-inferred copy, got %s and %s", later.CurrentPhase, stored.CurrentPhase)
	}
	if PhaseDiestrus.InHeat() || PhaseAnestrus.InHeat() {
		t.Fatalf("diestrus and anestrus are not in heat")
	}
}
