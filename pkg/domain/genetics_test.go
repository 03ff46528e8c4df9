package domain

import (
	"testing"
	"time"
)

func gtest(name string, result GeneticResult) GeneticTest {
	return GeneticTest{TestName: name, Result: result}
}

func TestCheckCompatibilityBothCarriers(t *testing.T) {
	report := CheckCompatibility("dam", []GeneticTest{gtest("DM", GeneticCarrier)}, "sire", []GeneticTest{gtest("DM", GeneticCarrier)})
	if report.IsCompatible {
		t.Fatalf("expected incompatible pairing")
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Severity != RiskHigh || report.Warnings[0].TestName != "DM" {
		t.Fatalf("expected one high DM warning, got %+v", report.Warnings)
	}
	if report.Summary != SummaryHighRisk {
		t.Fatalf("unexpected summary %q", report.Summary)
	}
}

func TestCheckCompatibilityOrdersWarningsBySeverity(t *testing.T) {
	dam := []GeneticTest{
		gtest("PRA", GeneticCarrier),
		gtest("vWD", GeneticCarrier),
		gtest("EIC", GeneticClear),
	}
	sire := []GeneticTest{
		gtest("PRA", GeneticClear),
		gtest("EIC", GeneticAffected),
		gtest("CEA", GeneticClear),
	}
	report := CheckCompatibility("dam", dam, "sire", sire)
	want := []struct {
		test     string
		severity RiskSeverity
	}{
		{"EIC", RiskHigh},
		{"vWD", RiskMedium},
		{"PRA", RiskLow},
	}
	if len(report.Warnings) != len(want) {
		t.Fatalf("expected %d warnings, got %+v", len(want), report.Warnings)
	}
	for i, w := range want {
		if report.Warnings[i].TestName != w.test || report.Warnings[i].Severity != w.severity {
			t.Fatalf("warning %d: expected %s/%s, got %+v", i, w.test, w.severity, report.Warnings[i])
		}
	}
	if len(report.TestsChecked) != 4 {
		t.Fatalf("expected union of test names, got %v", report.TestsChecked)
	}
}

func TestCheckCompatibilityPendingAndLatestResult(t *testing.T) {
	older := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	dam := []GeneticTest{
		{TestName: "DM", Result: GeneticClear, TestDate: &newer},
		{TestName: "dm", Result: GeneticCarrier, TestDate: &older},
		{TestName: "PRA", Result: GeneticCarrier},
	}
	sire := []GeneticTest{
		{TestName: "DM", Result: GeneticCarrier},
		{TestName: "PRA", Result: GeneticPending},
	}
	report := CheckCompatibility("dam", dam, "sire", sire)
	if !report.IsCompatible {
		t.Fatalf("expected compatible pairing, got %+v", report)
	}
	if len(report.Warnings) != 2 || report.Warnings[0].Severity != RiskMedium || report.Warnings[0].TestName != "PRA" {
		t.Fatalf("expected pending treated as untested, got %+v", report.Warnings)
	}
	if report.Warnings[1].Severity != RiskLow {
		t.Fatalf("expected latest clear DM result to give low risk, got %+v", report.Warnings[1])
	}
	if report.Summary != SummaryMediumRisk {
		t.Fatalf("unexpected summary %q", report.Summary)
	}
}

func TestCheckCompatibilityNoConcerns(t *testing.T) {
	report := CheckCompatibility("dam", []GeneticTest{gtest("DM", GeneticClear)}, "sire", nil)
	if !report.IsCompatible || len(report.Warnings) != 0 || report.Summary != SummaryNoRisk {
		t.Fatalf("expected clean report, got %+v", report)
	}
}
