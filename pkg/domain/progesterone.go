package domain

import (
	"math"
)

// BreedingAdvice is the breeding guidance for one progesterone reading.
type BreedingAdvice struct {
	Level           float64 `json:"level"`
	Phase           string  `json:"phase"`
	Recommendation  string  `json:"recommendation"`
	DaysToBreeding  string  `json:"days_to_breeding"`
	OvulationStatus string  `json:"ovulation_status"`
}

type progesteroneBand struct {
	low, high       float64
	phase           string
	recommendation  string
	daysToBreeding  string
	ovulationStatus string
}

// Bands are half-open [low, high); the last one is unbounded.
var progesteroneBands = []progesteroneBand{
	{0, 1.0, "Early proestrus",
		"Progesterone is at baseline. Retest in 2-3 days.", "5-10 days", "Not yet"},
	{1.0, 2.0, "Late proestrus (LH approaching)",
		"Progesterone is starting to rise. Retest in 1-2 days.", "4-6 days", "Approaching LH surge"},
	{2.0, 3.0, "LH surge",
		"LH surge is likely under way. Retest tomorrow and plan breeding.", "3-4 days", "LH surge"},
	{3.0, 5.0, "Pre-ovulation",
		"Ovulation is imminent. Breed in 1-2 days.", "1-2 days", "Ovulating"},
	{5.0, 8.0, "Post-ovulation (optimal)",
		"Optimal fertile window. Breed now and repeat in 48 hours.", "NOW", "Ovulated"},
	{8.0, 15.0, "Post-ovulation (good)",
		"Fertile window is open. Breed immediately.", "NOW", "Ovulated"},
	{15.0, 25.0, "Fertile window closing",
		"Eggs are aging. Breed immediately if not already bred.", "NOW (closing)", "Eggs aging"},
	{25.0, math.Inf(1), "Diestrus (window closed)",
		"Fertile window has likely closed. Confirm with cytology.", "Too late", "Window closed"},
}

// BreedingRecommendation classifies a progesterone level in ng/mL. Negative,
// NaN and infinite readings are rejected; the level is echoed back and JSON
// has no encoding for infinity.
func BreedingRecommendation(level float64) (BreedingAdvice, error) {
	if math.IsNaN(level) || math.IsInf(level, 0) || level < 0 {
		return BreedingAdvice{}, NewValidationError(EntityHeatEvent, "progesterone_level",
			"must be a non-negative number, got %v", level)
	}
	for _, band := range progesteroneBands {
		if level >= band.low && level < band.high {
			return BreedingAdvice{
				Level:           level,
				Phase:           band.phase,
				Recommendation:  band.recommendation,
				DaysToBreeding:  band.daysToBreeding,
				OvulationStatus: band.ovulationStatus,
			}, nil
		}
	}
	panic("domain: progesterone bands must cover every finite non-negative level")
}
