package domain

// Reorder returns the ids of a partition in their new order. Requested ids
// come first in the order given; ids outside the partition and duplicates are
// ignored. Partition members that were not requested follow in their current
// order.
func Reorder(current []string, requested []string) []string {
	member := make(map[string]bool, len(current))
	for _, id := range current {
		member[id] = true
	}
	placed := make(map[string]bool, len(current))
	out := make([]string, 0, len(current))
	for _, id := range requested {
		if member[id] && !placed[id] {
			placed[id] = true
			out = append(out, id)
		}
	}
	for _, id := range current {
		if !placed[id] {
			out = append(out, id)
		}
	}
	return out
}

// NextPosition returns max(positions) + 1, or start when the partition is empty.
func NextPosition(positions []int, start int) int {
	next := start
	for _, p := range positions {
		if p+1 > next {
			next = p + 1
		}
	}
	return next
}

// CanTransitionInterest reports whether an interest may move from one status
// to another through an ordinary update. Converted and lost are terminal, and
// converted is only reached through the sale conversion workflow.
func CanTransitionInterest(from, to InterestStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case InterestConverted, InterestLost:
		return false
	}
	rank := map[InterestStatus]int{
		InterestInterested:     0,
		InterestContacted:      1,
		InterestScheduledVisit: 2,
	}
	if to == InterestLost {
		return true
	}
	toRank, ok := rank[to]
	if !ok {
		return false
	}
	return toRank > rank[from]
}
