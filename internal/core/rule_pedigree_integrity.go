package core

import (
	"context"
	"fmt"

	"kennelcore/pkg/domain"
)

const pedigreeRuleName = "pedigree_integrity"

// PedigreeIntegrityRule enforces parent/offspring constraints on dogs and
// litters: parents of the right sex, no dog among its own ancestors, and a
// warning when a litter pairs close relatives.
func PedigreeIntegrityRule() domain.Rule {
	return pedigreeIntegrityRule{}
}

type pedigreeIntegrityRule struct{}

func (pedigreeIntegrityRule) Name() string { return pedigreeRuleName }

func (pedigreeIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	dogs := view.Dogs()

	for _, id := range changedIDs(changes, domain.EntityDog) {
		dog, ok := dogs.Find(id)
		if !ok {
			continue
		}
		checkParent(&res, dogs, domain.EntityDog, dog.ID, "sire", dog.SireID, domain.SexMale)
		checkParent(&res, dogs, domain.EntityDog, dog.ID, "dam", dog.DamID, domain.SexFemale)
		if inAncestry(dogs, dog, dog.ID) {
			res.Violations = append(res.Violations, pedigreeViolation(domain.EntityDog, dog.ID,
				fmt.Sprintf("dog %s appears in its own ancestry", dog.ID)))
		}
	}

	for _, id := range changedIDs(changes, domain.EntityLitter) {
		litter, ok := view.Litters().Find(id)
		if !ok {
			continue
		}
		checkParent(&res, dogs, domain.EntityLitter, litter.ID, "sire", litter.SireID, domain.SexMale)
		checkParent(&res, dogs, domain.EntityLitter, litter.ID, "dam", litter.DamID, domain.SexFemale)
		if litter.SireID == nil || litter.DamID == nil {
			continue
		}
		sire, sok := dogs.Find(*litter.SireID)
		dam, dok := dogs.Find(*litter.DamID)
		if sok && dok && closelyRelated(sire, dam) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     pedigreeRuleName,
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("litter %s pairs closely related dogs %s and %s", litter.ID, sire.ID, dam.ID),
				Entity:   domain.EntityLitter,
				EntityID: litter.ID,
			})
		}
	}
	return res, nil
}

func pedigreeViolation(entity domain.EntityType, entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     pedigreeRuleName,
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: entityID,
	}
}

func checkParent(res *domain.Result, dogs domain.Collection[domain.Dog], entity domain.EntityType, id, role string, parentID *string, sex domain.Sex) {
	if parentID == nil {
		return
	}
	parent, ok := dogs.Find(*parentID)
	if !ok {
		res.Violations = append(res.Violations, pedigreeViolation(entity, id,
			fmt.Sprintf("%s %s references missing %s %s", entity, id, role, *parentID)))
		return
	}
	if parent.Sex != sex {
		res.Violations = append(res.Violations, pedigreeViolation(entity, id,
			fmt.Sprintf("%s %s has %s %s of sex %s", entity, id, role, parent.ID, parent.Sex)))
	}
}

// inAncestry walks dog's sire and dam lines looking for target.
func inAncestry(dogs domain.Collection[domain.Dog], dog domain.Dog, target string) bool {
	visited := make(map[string]struct{})
	queue := parentIDs(dog)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == target {
			return true
		}
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		if parent, ok := dogs.Find(id); ok {
			queue = append(queue, parentIDs(parent)...)
		}
	}
	return false
}

func parentIDs(d domain.Dog) []string {
	var ids []string
	if d.SireID != nil && *d.SireID != "" {
		ids = append(ids, *d.SireID)
	}
	if d.DamID != nil && *d.DamID != "" {
		ids = append(ids, *d.DamID)
	}
	return ids
}

// closelyRelated reports a parent/offspring pairing or a shared parent.
func closelyRelated(a, b domain.Dog) bool {
	aParents, bParents := parentIDs(a), parentIDs(b)
	for _, p := range aParents {
		if p == b.ID {
			return true
		}
		for _, q := range bParents {
			if p == q {
				return true
			}
		}
	}
	for _, q := range bParents {
		if q == a.ID {
			return true
		}
	}
	return false
}
