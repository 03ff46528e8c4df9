package core

import "kennelcore/pkg/domain"

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(PedigreeIntegrityRule())
	engine.Register(SaleExclusivityRule())
	engine.Register(WaitlistContiguityRule())
	return engine
}

// changedIDs collects the ids of entity records created or updated in changes.
func changedIDs(changes []Change, entity EntityType) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, c := range changes {
		if c.Entity != entity || c.After == nil {
			continue
		}
		id := c.RecordID()
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func touches(changes []Change, entities ...EntityType) bool {
	for _, c := range changes {
		for _, e := range entities {
			if c.Entity == e {
				return true
			}
		}
	}
	return false
}
