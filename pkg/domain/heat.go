package domain

import (
	"sort"
	"time"
)

// Fixed veterinary offsets used when deriving heat cycle fields.
const (
	// ProestrusDays is the number of days after onset still treated as proestrus.
	ProestrusDays = 9
	// BreedingWindowStart and BreedingWindowEnd bound the optimal breeding
	// window in days after ovulation.
	BreedingWindowStart = 1
	BreedingWindowEnd   = 3
	// GestationDays is the expected ovulation-to-whelp interval.
	GestationDays = 63
	// NextHeatDays projects the next onset from the current one.
	NextHeatDays = 195
)

// SortHeatEvents orders events by date, then creation time, then id.
func SortHeatEvents(events []HeatEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// DeriveHeatCycle recomputes every derived field of cycle by replaying events
// in date order. Replaying the same events always yields the same cycle, so a
// duplicated cycle_end or standing event does not shift any field.
func DeriveHeatCycle(cycle HeatCycle, events []HeatEvent, now time.Time) HeatCycle {
	out := cycle
	out.EndDate = nil
	out.CycleLength = nil
	out.NextHeatEstimate = nil
	out.StandingHeatStart = nil
	out.StandingHeatEnd = nil
	out.OvulationDate = nil
	out.OptimalBreedingStart = nil
	out.OptimalBreedingEnd = nil
	out.ExpectedDueDate = nil
	out.IsBred = false

	ordered := make([]HeatEvent, 0, len(events))
	for _, ev := range events {
		if ev.CycleID == cycle.ID {
			ordered = append(ordered, ev)
		}
	}
	SortHeatEvents(ordered)

	for _, ev := range ordered {
		date := Day(ev.Date)
		switch {
		case ev.Type == HeatEventStanding:
			if out.StandingHeatStart == nil {
				out.StandingHeatStart = timePtr(date)
			}
		case ev.Type == HeatEventEndReceptive:
			if out.StandingHeatEnd == nil {
				out.StandingHeatEnd = timePtr(date)
			}
		case ev.Type == HeatEventOvulation:
			out.OvulationDate = timePtr(date)
			out.OptimalBreedingStart = timePtr(AddDays(date, BreedingWindowStart))
			out.OptimalBreedingEnd = timePtr(AddDays(date, BreedingWindowEnd))
			out.ExpectedDueDate = timePtr(AddDays(date, GestationDays))
		case ev.Type == HeatEventCycleEnd:
			if out.EndDate == nil {
				length := DaysBetween(cycle.StartDate, date)
				out.EndDate = timePtr(date)
				out.CycleLength = &length
				out.NextHeatEstimate = timePtr(AddDays(cycle.StartDate, NextHeatDays))
			}
		case ev.Type.IsBreeding():
			out.IsBred = true
		}
	}
	out.CurrentPhase = InferHeatPhase(out, now)
	return out
}

// InferHeatPhase returns the phase of a cycle whose markers have already been
// derived. A closed cycle is in anestrus.
func InferHeatPhase(cycle HeatCycle, now time.Time) HeatPhase {
	if cycle.EndDate != nil {
		return PhaseAnestrus
	}
	if DaysBetween(cycle.StartDate, now) <= ProestrusDays {
		return PhaseProestrus
	}
	if cycle.StandingHeatEnd != nil && !Day(now).Before(*cycle.StandingHeatEnd) {
		return PhaseDiestrus
	}
	// Standing heat without an end, or no markers at all past proestrus.
	return PhaseEstrus
}

// AsOf returns cycle with its phase inferred for now. The stored phase only
// moves when the cycle or its events are written.
func (c HeatCycle) AsOf(now time.Time) HeatCycle {
	c.CurrentPhase = InferHeatPhase(c, now)
	return c
}

// InHeat reports whether the phase is proestrus or estrus.
func (p HeatPhase) InHeat() bool {
	return p == PhaseProestrus || p == PhaseEstrus
}
