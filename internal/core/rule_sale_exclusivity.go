package core

import (
	"context"
	"fmt"
	"sort"

	"kennelcore/pkg/domain"
)

// SaleExclusivityRule blocks a dog from appearing in more than one active sale
// and warns when a dog on an active sale is not marked sold.
func SaleExclusivityRule() domain.Rule {
	return saleExclusivityRule{}
}

type saleExclusivityRule struct{}

func (saleExclusivityRule) Name() string { return "sale_exclusivity" }

func (r saleExclusivityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	if !touches(changes, domain.EntitySale, domain.EntitySalePuppy, domain.EntityDog) {
		return res, nil
	}

	sales := view.Sales()
	held := make(map[string][]string)
	for _, line := range view.SalePuppies().List() {
		sale, ok := sales.Find(line.SaleID)
		if !ok || !sale.IsActive() {
			continue
		}
		held[line.DogID] = append(held[line.DogID], sale.ID)
	}

	dogIDs := make([]string, 0, len(held))
	for id := range held {
		dogIDs = append(dogIDs, id)
	}
	sort.Strings(dogIDs)

	for _, dogID := range dogIDs {
		saleIDs := held[dogID]
		if len(saleIDs) > 1 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("dog %s is in %d active sales", dogID, len(saleIDs)),
				Entity:   domain.EntityDog,
				EntityID: dogID,
			})
		}
		if dog, ok := view.Dogs().Find(dogID); ok && dog.Status != domain.DogStatusSold && dog.Status != domain.DogStatusDeceased {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("dog %s is on active sale %s but has status %s", dogID, saleIDs[0], dog.Status),
				Entity:   domain.EntityDog,
				EntityID: dogID,
			})
		}
	}
	return res, nil
}
