package memory

import (
	"reflect"

	"kennelcore/pkg/domain"
)

// deriveCycle recomputes the event-derived fields of a cycle.
func (tx *transaction) deriveCycle(c domain.HeatCycle) domain.HeatCycle {
	return domain.DeriveHeatCycle(c, tx.state.heatEvents.rowsBy(domain.ByCycle, c.ID), tx.now)
}

// recomputeCycle refreshes a stored cycle after its events changed.
func (tx *transaction) recomputeCycle(id string) {
	current, ok := tx.state.heatCycles.get(id)
	if !ok {
		return
	}
	derived := tx.deriveCycle(current)
	if reflect.DeepEqual(derived, current) {
		return
	}
	derived.UpdatedAt = tx.now
	tx.state.heatCycles.replace(tx, current, derived)
}

func (tx *transaction) checkHeatCycle(c *domain.HeatCycle) error {
	if err := c.Validate(); err != nil {
		return err
	}
	bitch, err := requireRef(tx.state.dogs, domain.EntityHeatCycle, "bitch_id", c.BitchID)
	if err != nil {
		return err
	}
	if bitch.Sex != domain.SexFemale {
		return domain.NewValidationError(domain.EntityHeatCycle, "bitch_id", "dog %q is not female", c.BitchID)
	}
	*c = tx.deriveCycle(*c)
	if c.EndDate != nil {
		return nil
	}
	for _, other := range tx.state.heatCycles.rowsBy(domain.ByBitch, c.BitchID) {
		if other.ID != c.ID && other.EndDate == nil {
			return domain.NewValidationError(domain.EntityHeatCycle, "bitch_id", "dog %q already has open heat cycle %q", c.BitchID, other.ID)
		}
	}
	return nil
}

// CreateHeatCycle inserts a cycle for a female. Derived fields supplied by the
// caller are discarded and recomputed.
func (tx *transaction) CreateHeatCycle(c domain.HeatCycle) (domain.HeatCycle, error) {
	return createRow(tx, tx.state.heatCycles, c, tx.checkHeatCycle)
}

// UpdateHeatCycle mutates the cycle's own fields and re-derives the rest.
func (tx *transaction) UpdateHeatCycle(id string, mutator func(*domain.HeatCycle) error) (domain.HeatCycle, error) {
	return updateRow(tx, tx.state.heatCycles, id, mutator, func(before domain.HeatCycle, after *domain.HeatCycle) error {
		if err := tx.checkHeatCycle(after); err != nil {
			return err
		}
		for _, ev := range tx.state.heatEvents.rowsBy(domain.ByCycle, id) {
			if domain.Day(ev.Date).Before(domain.Day(after.StartDate)) {
				return domain.NewValidationError(domain.EntityHeatCycle, "start_date", "event %q predates the new start date", ev.ID)
			}
		}
		return nil
	})
}

// DeleteHeatCycle removes a cycle and its events.
func (tx *transaction) DeleteHeatCycle(id string) error {
	if !tx.state.heatCycles.has(id) {
		return domain.NotFound(domain.EntityHeatCycle, id)
	}
	tx.cascadeDeleteHeatCycle(id)
	tx.state.heatCycles.drop(tx, id)
	return nil
}

func (tx *transaction) checkHeatEvent(e *domain.HeatEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	cycle, err := requireRef(tx.state.heatCycles, domain.EntityHeatEvent, "cycle_id", e.CycleID)
	if err != nil {
		return err
	}
	if domain.Day(e.Date).Before(domain.Day(cycle.StartDate)) {
		return domain.NewValidationError(domain.EntityHeatEvent, "date", "event predates cycle start %s", cycle.StartDate.Format("2006-01-02"))
	}
	return tx.requireParent(domain.EntityHeatEvent, "sire_id", e.SireID, domain.SexMale)
}

// CreateHeatEvent appends an event and re-derives its cycle.
func (tx *transaction) CreateHeatEvent(e domain.HeatEvent) (domain.HeatEvent, error) {
	created, err := createRow(tx, tx.state.heatEvents, e, tx.checkHeatEvent)
	if err != nil {
		return created, err
	}
	tx.recomputeCycle(created.CycleID)
	return created, nil
}

// UpdateHeatEvent mutates an event and re-derives every cycle it touched.
func (tx *transaction) UpdateHeatEvent(id string, mutator func(*domain.HeatEvent) error) (domain.HeatEvent, error) {
	var previousCycle string
	updated, err := updateRow(tx, tx.state.heatEvents, id, mutator, func(before domain.HeatEvent, after *domain.HeatEvent) error {
		previousCycle = before.CycleID
		return tx.checkHeatEvent(after)
	})
	if err != nil {
		return updated, err
	}
	tx.recomputeCycle(updated.CycleID)
	if previousCycle != updated.CycleID {
		tx.recomputeCycle(previousCycle)
	}
	return updated, nil
}

// DeleteHeatEvent removes an event and re-derives its cycle.
func (tx *transaction) DeleteHeatEvent(id string) error {
	removed, ok := tx.state.heatEvents.drop(tx, id)
	if !ok {
		return domain.NotFound(domain.EntityHeatEvent, id)
	}
	tx.recomputeCycle(removed.CycleID)
	return nil
}
