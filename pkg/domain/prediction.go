package domain

import (
	"sort"
	"time"
)

// Defaults used when a dog has too little history for a prediction.
const (
	DefaultHeatIntervalDays = 180
	DefaultCycleLengthDays  = 21
)

// Confidence grades a prediction by how much history backs it.
type Confidence string

// Prediction confidence levels.
const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// HeatPrediction projects a female's next heat from her completed cycles.
type HeatPrediction struct {
	DogID               string     `json:"dog_id"`
	CompletedCycles     int        `json:"completed_cycles"`
	AverageCycleLength  *float64   `json:"average_cycle_length"`
	AverageIntervalDays float64    `json:"average_interval_days"`
	LastCycleEnd        *time.Time `json:"last_cycle_end"`
	PredictedNextHeat   *time.Time `json:"predicted_next_heat"`
	Confidence          Confidence `json:"confidence"`
}

// PredictNextHeat averages cycle lengths over completed cycles and the gap
// between each cycle's start and the previous cycle's end. The next heat is
// projected from the end of the latest cycle; a latest cycle still in progress
// is assumed to last the average cycle length.
func PredictNextHeat(dogID string, cycles []HeatCycle) HeatPrediction {
	ordered := append([]HeatCycle(nil), cycles...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartDate.Before(ordered[j].StartDate)
	})

	pred := HeatPrediction{DogID: dogID, AverageIntervalDays: DefaultHeatIntervalDays, Confidence: ConfidenceLow}

	var lengthSum, completed int
	for _, c := range ordered {
		if c.CycleLength != nil {
			lengthSum += *c.CycleLength
			completed++
		}
	}
	pred.CompletedCycles = completed
	if completed > 0 {
		avg := float64(lengthSum) / float64(completed)
		pred.AverageCycleLength = &avg
	}

	var intervalSum, intervals int
	for i := 1; i < len(ordered); i++ {
		prev := ordered[i-1]
		if prev.EndDate == nil {
			continue
		}
		intervalSum += DaysBetween(*prev.EndDate, ordered[i].StartDate)
		intervals++
	}
	if intervals > 0 {
		pred.AverageIntervalDays = float64(intervalSum) / float64(intervals)
	}

	switch {
	case completed >= 3:
		pred.Confidence = ConfidenceHigh
	case completed == 2:
		pred.Confidence = ConfidenceMedium
	}

	if len(ordered) == 0 {
		return pred
	}
	last := ordered[len(ordered)-1]
	var end time.Time
	if last.EndDate != nil {
		end = Day(*last.EndDate)
	} else {
		length := float64(DefaultCycleLengthDays)
		if pred.AverageCycleLength != nil {
			length = *pred.AverageCycleLength
		}
		end = AddDays(last.StartDate, roundDays(length))
	}
	pred.LastCycleEnd = timePtr(end)
	pred.PredictedNextHeat = timePtr(AddDays(end, roundDays(pred.AverageIntervalDays)))
	return pred
}

func roundDays(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
