package domain

import "time"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the calendar date n days after t.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// Date is a convenience constructor for calendar dates.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// WeekWindow returns the inclusive [today, today+7] window used by the
// "due this week" queries.
func WeekWindow(now time.Time) (time.Time, time.Time) {
	today := Day(now)
	return today, today.AddDate(0, 0, 7)
}

// InWindow reports whether t falls within [from, to] by calendar date.
func InWindow(t, from, to time.Time) bool {
	d := Day(t)
	return !d.Before(Day(from)) && !d.After(Day(to))
}

func timePtr(t time.Time) *time.Time { return &t }
