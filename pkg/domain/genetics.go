package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RiskSeverity grades a genetic compatibility warning.
type RiskSeverity string

// Warning severities, most severe first.
const (
	RiskHigh   RiskSeverity = "high"
	RiskMedium RiskSeverity = "medium"
	RiskLow    RiskSeverity = "low"
)

func (s RiskSeverity) rank() int {
	switch s {
	case RiskHigh:
		return 0
	case RiskMedium:
		return 1
	default:
		return 2
	}
}

// GeneticWarning flags one test for which the pairing carries risk.
type GeneticWarning struct {
	TestName   string        `json:"test_name"`
	Severity   RiskSeverity  `json:"severity"`
	DamResult  GeneticResult `json:"dam_result,omitempty"`
	SireResult GeneticResult `json:"sire_result,omitempty"`
	Message    string        `json:"message"`
}

// CompatibilityReport is the outcome of a mating compatibility check.
type CompatibilityReport struct {
	DamID        string           `json:"dam_id"`
	SireID       string           `json:"sire_id"`
	IsCompatible bool             `json:"is_compatible"`
	Warnings     []GeneticWarning `json:"warnings"`
	Summary      string           `json:"summary"`
	TestsChecked []string         `json:"tests_checked"`
}

// Summaries by worst severity present.
const (
	SummaryHighRisk   = "High risk: this pairing can produce affected puppies. Not recommended."
	SummaryMediumRisk = "Caution: incomplete testing leaves a risk of affected puppies. Test both parents."
	SummaryLowRisk    = "Low risk: some puppies may be carriers but none will be affected."
	SummaryNoRisk     = "No genetic concerns found for the recorded tests."
)

// latestResults keeps the most recent result per test name. Names compare
// case-insensitively.
func latestResults(tests []GeneticTest) map[string]GeneticTest {
	ordered := append([]GeneticTest(nil), tests...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return testTime(ordered[i]).Before(testTime(ordered[j]))
	})
	out := make(map[string]GeneticTest, len(ordered))
	for _, t := range ordered {
		out[strings.ToLower(strings.TrimSpace(t.TestName))] = t
	}
	return out
}

func testTime(t GeneticTest) time.Time {
	if t.TestDate != nil {
		return *t.TestDate
	}
	return t.CreatedAt
}

// CheckCompatibility scores a dam and sire pairing over the union of their
// test names. Each test yields at most one warning, at its worst severity.
func CheckCompatibility(damID string, damTests []GeneticTest, sireID string, sireTests []GeneticTest) CompatibilityReport {
	dam := latestResults(damTests)
	sire := latestResults(sireTests)

	names := make(map[string]string)
	for key, t := range dam {
		names[key] = strings.TrimSpace(t.TestName)
	}
	for key, t := range sire {
		if _, ok := names[key]; !ok {
			names[key] = strings.TrimSpace(t.TestName)
		}
	}

	report := CompatibilityReport{DamID: damID, SireID: sireID, IsCompatible: true, Warnings: []GeneticWarning{}}
	for key, name := range names {
		report.TestsChecked = append(report.TestsChecked, name)
		damResult := resultOf(dam, key)
		sireResult := resultOf(sire, key)
		w, ok := assessPair(name, damResult, sireResult)
		if !ok {
			continue
		}
		report.Warnings = append(report.Warnings, w)
		if w.Severity == RiskHigh {
			report.IsCompatible = false
		}
	}
	sort.Strings(report.TestsChecked)
	SortWarnings(report.Warnings)
	report.Summary = summaryFor(report.Warnings)
	return report
}

// SortWarnings orders warnings high, medium, low, then by test name.
func SortWarnings(warnings []GeneticWarning) {
	sort.SliceStable(warnings, func(i, j int) bool {
		ri, rj := warnings[i].Severity.rank(), warnings[j].Severity.rank()
		if ri != rj {
			return ri < rj
		}
		return warnings[i].TestName < warnings[j].TestName
	})
}

// resultOf returns "" for untested, treating pending as untested.
func resultOf(results map[string]GeneticTest, key string) GeneticResult {
	t, ok := results[key]
	if !ok || t.Result == GeneticPending {
		return ""
	}
	return t.Result
}

func assessPair(name string, dam, sire GeneticResult) (GeneticWarning, bool) {
	w := GeneticWarning{TestName: name, DamResult: dam, SireResult: sire}
	risky := func(r GeneticResult) bool { return r == GeneticCarrier || r == GeneticAffected }
	switch {
	case dam == GeneticAffected || sire == GeneticAffected:
		w.Severity = RiskHigh
		w.Message = fmt.Sprintf("%s: at least one parent is affected; every puppy will carry at least one copy", name)
	case dam == GeneticCarrier && sire == GeneticCarrier:
		w.Severity = RiskHigh
		w.Message = fmt.Sprintf("%s: both parents are carriers; 25%% of puppies are expected to be affected", name)
	case (dam == "" && risky(sire)) || (sire == "" && risky(dam)):
		w.Severity = RiskMedium
		w.Message = fmt.Sprintf("%s: one parent is untested and the other is a carrier", name)
	case (dam == GeneticCarrier && sire == GeneticClear) || (dam == GeneticClear && sire == GeneticCarrier):
		w.Severity = RiskLow
		w.Message = fmt.Sprintf("%s: carrier to clear pairing; up to 50%% of puppies may be carriers", name)
	default:
		return GeneticWarning{}, false
	}
	return w, true
}

func summaryFor(warnings []GeneticWarning) string {
	if len(warnings) == 0 {
		return SummaryNoRisk
	}
	switch warnings[0].Severity {
	case RiskHigh:
		return SummaryHighRisk
	case RiskMedium:
		return SummaryMediumRisk
	default:
		return SummaryLowRisk
	}
}
