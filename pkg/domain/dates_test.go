package domain

import (
	"testing"
	"time"
)

func mustDate(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDayArithmetic(t *testing.T) {
	late := time.Date(2024, 2, 28, 23, 30, 0, 0, time.UTC)
	if got := AddDays(late, 1); !got.Equal(Date(2024, 2, 29)) {
		t.Fatalf("expected leap day, got %v", got)
	}
	if got := DaysBetween(Date(2024, 1, 1), late); got != 58 {
		t.Fatalf("expected 58 days, got %d", got)
	}
	from, to := WeekWindow(late)
	if !InWindow(Date(2024, 3, 6), from, to) || InWindow(Date(2024, 3, 7), from, to) || InWindow(Date(2024, 2, 27), from, to) {
		t.Fatalf("unexpected week window %v..%v", from, to)
	}
}
