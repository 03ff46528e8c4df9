package core

import (
	"context"
	"fmt"
	"sort"

	"kennelcore/pkg/domain"
)

// WaitlistContiguityRule checks each waitlist partition touched by a change:
// duplicate positions block, gaps in the 1..n sequence warn.
func WaitlistContiguityRule() domain.Rule {
	return waitlistContiguityRule{}
}

type waitlistContiguityRule struct{}

func (waitlistContiguityRule) Name() string { return "waitlist_contiguity" }

func (r waitlistContiguityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	partitions := make(map[string]struct{})
	for _, c := range changes {
		if c.Entity != domain.EntityWaitlistEntry {
			continue
		}
		for _, payload := range []any{c.Before, c.After} {
			if w, ok := payload.(domain.WaitlistEntry); ok {
				partitions[partitionKey(w.LitterID)] = struct{}{}
			}
		}
	}

	keys := make([]string, 0, len(partitions))
	for k := range partitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		entries := view.WaitlistEntries().ListBy(domain.ByLitter, key)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })
		label := key
		if label == "" {
			label = "general"
		}
		for i, e := range entries {
			if i > 0 && entries[i-1].Position == e.Position {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     r.Name(),
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("waitlist %s has duplicate position %d", label, e.Position),
					Entity:   domain.EntityWaitlistEntry,
					EntityID: e.ID,
				})
				continue
			}
			if e.Position != i+1 {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     r.Name(),
					Severity: domain.SeverityWarn,
					Message:  fmt.Sprintf("waitlist %s entry %s at position %d, expected %d", label, e.ID, e.Position, i+1),
					Entity:   domain.EntityWaitlistEntry,
					EntityID: e.ID,
				})
				break
			}
		}
	}
	return res, nil
}

func partitionKey(litterID *string) string {
	if litterID == nil {
		return ""
	}
	return *litterID
}
