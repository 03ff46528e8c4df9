package memory

import (
	"strings"

	"kennelcore/pkg/domain"
)

// litterPhotoOrder returns a litter's photo ids in display order, without skip.
func (tx *transaction) litterPhotoOrder(litterID, skip string) []string {
	photos := tx.state.litterPhotos.rowsBy(domain.ByLitter, litterID)
	sortLitterPhotos(photos)
	ids := make([]string, 0, len(photos))
	for _, p := range photos {
		if p.ID != skip {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// renumberLitterPhotos assigns sort orders 0..N-1 in the given order.
func (tx *transaction) renumberLitterPhotos(ids []string) {
	for i, id := range ids {
		order := i
		if p, ok := tx.state.litterPhotos.get(id); ok && p.SortOrder != order {
			touch(tx, tx.state.litterPhotos, id, func(p *domain.LitterPhoto) { p.SortOrder = order })
		}
	}
}

func (tx *transaction) checkLitterPhoto(p *domain.LitterPhoto) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := requireRef(tx.state.litters, domain.EntityLitterPhoto, "litter_id", p.LitterID)
	return err
}

// CreateLitterPhoto appends a photo at the end of its litter's order.
func (tx *transaction) CreateLitterPhoto(p domain.LitterPhoto) (domain.LitterPhoto, error) {
	return createRow(tx, tx.state.litterPhotos, p, func(p *domain.LitterPhoto) error {
		p.SortOrder = len(tx.state.litterPhotos.ids(domain.ByLitter, p.LitterID))
		return tx.checkLitterPhoto(p)
	})
}

// UpdateLitterPhoto mutates a photo. Order is managed by ReorderLitterPhotos;
// moving a photo to another litter appends it there.
func (tx *transaction) UpdateLitterPhoto(id string, mutator func(*domain.LitterPhoto) error) (domain.LitterPhoto, error) {
	var previousLitter string
	updated, err := updateRow(tx, tx.state.litterPhotos, id, mutator, func(before domain.LitterPhoto, after *domain.LitterPhoto) error {
		previousLitter = before.LitterID
		after.SortOrder = before.SortOrder
		if after.LitterID != before.LitterID {
			after.SortOrder = len(tx.state.litterPhotos.ids(domain.ByLitter, after.LitterID))
		}
		return tx.checkLitterPhoto(after)
	})
	if err != nil {
		return updated, err
	}
	if previousLitter != updated.LitterID {
		tx.renumberLitterPhotos(tx.litterPhotoOrder(previousLitter, ""))
	}
	return updated, nil
}

// DeleteLitterPhoto removes a photo and closes the gap it leaves.
func (tx *transaction) DeleteLitterPhoto(id string) error {
	removed, ok := tx.state.litterPhotos.drop(tx, id)
	if !ok {
		return domain.NotFound(domain.EntityLitterPhoto, id)
	}
	tx.renumberLitterPhotos(tx.litterPhotoOrder(removed.LitterID, ""))
	return nil
}

// ReorderLitterPhotos assigns sort orders 0..N-1 following orderedIDs. Ids of
// other litters are ignored; unlisted photos keep their relative order after
// the listed ones.
func (tx *transaction) ReorderLitterPhotos(litterID string, orderedIDs []string) ([]domain.LitterPhoto, error) {
	if _, err := requireRef(tx.state.litters, domain.EntityLitterPhoto, "litter_id", litterID); err != nil {
		return nil, err
	}
	ordered := domain.Reorder(tx.litterPhotoOrder(litterID, ""), orderedIDs)
	tx.renumberLitterPhotos(ordered)
	out := make([]domain.LitterPhoto, 0, len(ordered))
	for _, id := range ordered {
		p, _ := tx.state.litterPhotos.Find(id)
		out = append(out, p)
	}
	return out, nil
}

func (tx *transaction) checkHealthTask(t *domain.PuppyHealthTask) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := requireRef(tx.state.litters, domain.EntityPuppyHealthTask, "litter_id", t.LitterID); err != nil {
		return err
	}
	if t.PuppyID != nil {
		puppy, err := requireRef(tx.state.dogs, domain.EntityPuppyHealthTask, "puppy_id", *t.PuppyID)
		if err != nil {
			return err
		}
		if puppy.LitterID == nil || *puppy.LitterID != t.LitterID {
			return domain.NewValidationError(domain.EntityPuppyHealthTask, "puppy_id", "dog %q is not in litter %q", puppy.ID, t.LitterID)
		}
	}
	if err := requireOptRef(tx.state.healthTemplates, domain.EntityPuppyHealthTask, "template_id", t.TemplateID); err != nil {
		return err
	}
	switch {
	case t.IsCompleted && t.CompletedDate == nil:
		done := domain.Day(tx.now)
		t.CompletedDate = &done
	case !t.IsCompleted:
		t.CompletedDate = nil
	}
	return nil
}

func (tx *transaction) CreatePuppyHealthTask(t domain.PuppyHealthTask) (domain.PuppyHealthTask, error) {
	return createRow(tx, tx.state.healthTasks, t, tx.checkHealthTask)
}

func (tx *transaction) UpdatePuppyHealthTask(id string, mutator func(*domain.PuppyHealthTask) error) (domain.PuppyHealthTask, error) {
	return updateRow(tx, tx.state.healthTasks, id, mutator, func(_ domain.PuppyHealthTask, after *domain.PuppyHealthTask) error {
		return tx.checkHealthTask(after)
	})
}

func (tx *transaction) DeletePuppyHealthTask(id string) error {
	if _, ok := tx.state.healthTasks.drop(tx, id); !ok {
		return domain.NotFound(domain.EntityPuppyHealthTask, id)
	}
	return nil
}

func (tx *transaction) checkHealthTemplate(t *domain.HealthScheduleTemplate) error {
	t.Name = strings.TrimSpace(t.Name)
	if err := t.Validate(); err != nil {
		return err
	}
	for i, item := range t.Items {
		if err := item.Validate(); err != nil {
			return domain.NewValidationError(domain.EntityHealthTemplate, "items", "item %d: %v", i, err)
		}
	}
	return nil
}

// clearOtherDefaults keeps at most one default template.
func (tx *transaction) clearOtherDefaults(keep string) {
	for _, id := range tx.state.healthTemplates.sortedIDs() {
		if t, _ := tx.state.healthTemplates.get(id); id != keep && t.IsDefault {
			touch(tx, tx.state.healthTemplates, id, func(t *domain.HealthScheduleTemplate) { t.IsDefault = false })
		}
	}
}

// CreateHealthTemplate inserts a template. A new default replaces the old one.
func (tx *transaction) CreateHealthTemplate(t domain.HealthScheduleTemplate) (domain.HealthScheduleTemplate, error) {
	created, err := createRow(tx, tx.state.healthTemplates, t, tx.checkHealthTemplate)
	if err != nil {
		return created, err
	}
	if created.IsDefault {
		tx.clearOtherDefaults(created.ID)
	}
	return created, nil
}

func (tx *transaction) UpdateHealthTemplate(id string, mutator func(*domain.HealthScheduleTemplate) error) (domain.HealthScheduleTemplate, error) {
	updated, err := updateRow(tx, tx.state.healthTemplates, id, mutator, func(_ domain.HealthScheduleTemplate, after *domain.HealthScheduleTemplate) error {
		return tx.checkHealthTemplate(after)
	})
	if err != nil {
		return updated, err
	}
	if updated.IsDefault {
		tx.clearOtherDefaults(updated.ID)
	}
	return updated, nil
}

// DeleteHealthTemplate removes a non-default template. Deleting the default
// template is refused with a PolicyError.
func (tx *transaction) DeleteHealthTemplate(id string) error {
	if !tx.state.healthTemplates.has(id) {
		return domain.NotFound(domain.EntityHealthTemplate, id)
	}
	if err := tx.cascadeDeleteHealthTemplate(id); err != nil {
		return err
	}
	tx.state.healthTemplates.drop(tx, id)
	return nil
}
