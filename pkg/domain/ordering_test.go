package domain

import (
	"slices"
	"testing"
)

func TestReorder(t *testing.T) {
	current := []string{"a", "b", "c", "d"}
	got := Reorder(current, []string{"c", "x", "a", "c"})
	if want := []string{"c", "a", "b", "d"}; !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := Reorder(current, nil); !slices.Equal(got, current) {
		t.Fatalf("expected unchanged order, got %v", got)
	}
}

func TestNextPosition(t *testing.T) {
	if got := NextPosition(nil, 1); got != 1 {
		t.Fatalf("expected start for empty partition, got %d", got)
	}
	if got := NextPosition([]int{3, 1, 2}, 1); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}

func TestCanTransitionInterest(t *testing.T) {
	cases := []struct {
		from, to InterestStatus
		ok       bool
	}{
		{InterestInterested, InterestContacted, true},
		{InterestInterested, InterestScheduledVisit, true},
		{InterestContacted, InterestInterested, false},
		{InterestScheduledVisit, InterestLost, true},
		{InterestInterested, InterestConverted, false},
		{InterestConverted, InterestLost, false},
		{InterestLost, InterestContacted, false},
		{InterestContacted, InterestContacted, true},
	}
	for _, c := range cases {
		if got := CanTransitionInterest(c.from, c.to); got != c.ok {
			t.Errorf("%s -> %s: expected %v", c.from, c.to, c.ok)
		}
	}
}
