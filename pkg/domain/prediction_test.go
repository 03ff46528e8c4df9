package domain

import "testing"

func closedCycle(start, end string, length int) HeatCycle {
	s := mustDate(start)
	e := mustDate(end)
	return HeatCycle{StartDate: s, EndDate: &e, CycleLength: &length}
}

func TestPredictNextHeatFromCompletedCycles(t *testing.T) {
	cycles := []HeatCycle{
		closedCycle("2023-07-01", "2023-07-21", 20),
		closedCycle("2023-01-01", "2023-01-22", 21),
	}
	pred := PredictNextHeat("b1", cycles)
	if pred.CompletedCycles != 2 || pred.Confidence != ConfidenceMedium {
		t.Fatalf("unexpected confidence %+v", pred)
	}
	if pred.AverageCycleLength == nil || *pred.AverageCycleLength != 20.5 {
		t.Fatalf("expected average length 20.5, got %v", pred.AverageCycleLength)
	}
	if pred.AverageIntervalDays != 160 {
		t.Fatalf("expected interval 160, got %v", pred.AverageIntervalDays)
	}
	if pred.PredictedNextHeat == nil || !pred.PredictedNextHeat.Equal(Date(2023, 12, 28)) {
		t.Fatalf("expected 2023-12-28, got %v", pred.PredictedNextHeat)
	}
}

func TestPredictNextHeatForOngoingCycle(t *testing.T) {
	pred := PredictNextHeat("b1", []HeatCycle{{StartDate: Date(2024, 1, 1)}})
	if pred.Confidence != ConfidenceLow || pred.CompletedCycles != 0 {
		t.Fatalf("expected low confidence, got %+v", pred)
	}
	if !pred.LastCycleEnd.Equal(Date(2024, 1, 22)) {
		t.Fatalf("expected default cycle length applied, got %v", pred.LastCycleEnd)
	}
	if !pred.PredictedNextHeat.Equal(Date(2024, 7, 20)) {
		t.Fatalf("expected default interval applied, got %v", pred.PredictedNextHeat)
	}
}

func TestPredictNextHeatWithoutHistory(t *testing.T) {
	pred := PredictNextHeat("b1", nil)
	if pred.PredictedNextHeat != nil || pred.Confidence != ConfidenceLow {
		t.Fatalf("expected no prediction, got %+v", pred)
	}
}
