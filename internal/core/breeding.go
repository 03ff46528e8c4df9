package core

import (
	"context"
	"time"

	"kennelcore/pkg/domain"
)

// litterDate is the whelp date, falling back to due and breeding dates.
func litterDate(l domain.Litter) *time.Time {
	for _, d := range []*time.Time{l.WhelpDate, l.DueDate, l.BreedingDate} {
		if d != nil {
			return d
		}
	}
	return nil
}

// ListLitters returns hydrated litters, most recent first; undated litters
// sort last.
func (s *Service) ListLitters(ctx context.Context, filter LitterFilter) []domain.LitterDetail {
	return listAll(ctx, s, all(domain.TransactionView.Litters), filter.match, func(a, b domain.Litter) bool {
		at, bt := litterDate(a), litterDate(b)
		switch {
		case at == nil && bt == nil:
			return foldLess(a.Name, b.Name)
		case at == nil || bt == nil:
			return bt == nil
		case !at.Equal(*bt):
			return at.After(*bt)
		}
		return foldLess(a.Name, b.Name)
	}, hydrateLitter)
}

// GetLitter returns a litter with its parents, puppies and owned records.
func (s *Service) GetLitter(ctx context.Context, id string) (domain.LitterDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.Litters, id, hydrateLitter)
}

// CreateLitter stores a litter. The due date defaults to breeding date plus
// the gestation period.
func (s *Service) CreateLitter(ctx context.Context, l domain.Litter) (domain.Litter, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityLitter), func(tx Transaction) (domain.Litter, error) {
		return tx.CreateLitter(l)
	})
}

func (s *Service) UpdateLitter(ctx context.Context, id string, mutator func(*domain.Litter) error) (domain.Litter, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityLitter), func(tx Transaction) (domain.Litter, error) {
		return tx.UpdateLitter(id, mutator)
	})
}

// DeleteLitter removes a litter. Puppies and expenses are detached, not
// deleted; its waitlist entries move to the general list.
func (s *Service) DeleteLitter(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityLitter), id, func(tx Transaction) error {
		return tx.DeleteLitter(id)
	})
}

// ListHeatCycles returns cycles, most recent first.
func (s *Service) ListHeatCycles(ctx context.Context, filter HeatCycleFilter) []domain.HeatCycleDetail {
	return listAll(ctx, s, scoped(domain.TransactionView.HeatCycles, domain.ByBitch, filter.DogID), filter.match,
		func(a, b domain.HeatCycle) bool { return newestFirst(a.StartDate, b.StartDate) }, hydrateHeatCycle(s.now()))
}

func (s *Service) GetHeatCycle(ctx context.Context, id string) (domain.HeatCycleDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.HeatCycles, id, hydrateHeatCycle(s.now()))
}

// CreateHeatCycle starts a cycle for a female. Derived fields are computed
// from events and cannot be set directly.
func (s *Service) CreateHeatCycle(ctx context.Context, c domain.HeatCycle) (domain.HeatCycle, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityHeatCycle), func(tx Transaction) (domain.HeatCycle, error) {
		return tx.CreateHeatCycle(c)
	})
}

func (s *Service) UpdateHeatCycle(ctx context.Context, id string, mutator func(*domain.HeatCycle) error) (domain.HeatCycle, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityHeatCycle), func(tx Transaction) (domain.HeatCycle, error) {
		return tx.UpdateHeatCycle(id, mutator)
	})
}

func (s *Service) DeleteHeatCycle(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityHeatCycle), id, func(tx Transaction) error {
		return tx.DeleteHeatCycle(id)
	})
}

// ListHeatEvents returns events in the order they are replayed.
func (s *Service) ListHeatEvents(ctx context.Context, filter HeatEventFilter) []domain.HeatEventDetail {
	var out []domain.HeatEventDetail
	hydrate := hydrateHeatEvent(s.now())
	s.view(ctx, func(v domain.TransactionView) {
		events := scoped(domain.TransactionView.HeatEvents, domain.ByCycle, filter.CycleID)(v)
		domain.SortHeatEvents(events)
		out = listDetails(events, func(e domain.HeatEvent) bool {
			return filter.Type == "" || e.Type == filter.Type
		}, nil, func(e domain.HeatEvent) domain.HeatEventDetail { return hydrate(v, e) })
	})
	return nonNil(out)
}

func (s *Service) GetHeatEvent(ctx context.Context, id string) (domain.HeatEventDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.HeatEvents, id, hydrateHeatEvent(s.now()))
}

// CreateHeatEvent records an event and re-derives its cycle.
func (s *Service) CreateHeatEvent(ctx context.Context, e domain.HeatEvent) (domain.HeatEvent, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityHeatEvent), func(tx Transaction) (domain.HeatEvent, error) {
		return tx.CreateHeatEvent(e)
	})
}

func (s *Service) UpdateHeatEvent(ctx context.Context, id string, mutator func(*domain.HeatEvent) error) (domain.HeatEvent, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityHeatEvent), func(tx Transaction) (domain.HeatEvent, error) {
		return tx.UpdateHeatEvent(id, mutator)
	})
}

func (s *Service) DeleteHeatEvent(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityHeatEvent), id, func(tx Transaction) error {
		return tx.DeleteHeatEvent(id)
	})
}

func hydrateLitterPhoto(v domain.TransactionView, p domain.LitterPhoto) domain.LitterPhotoDetail {
	return domain.LitterPhotoDetail{LitterPhoto: p, Litter: refID(v.Litters(), p.LitterID)}
}

// ListLitterPhotos returns photos in display order.
func (s *Service) ListLitterPhotos(ctx context.Context, filter LitterRecordFilter) []domain.LitterPhotoDetail {
	return listAll(ctx, s, scoped(domain.TransactionView.LitterPhotos, domain.ByLitter, filter.LitterID), nil,
		func(a, b domain.LitterPhoto) bool {
			if a.LitterID != b.LitterID {
				return a.LitterID < b.LitterID
			}
			return a.SortOrder < b.SortOrder
		}, hydrateLitterPhoto)
}

func (s *Service) GetLitterPhoto(ctx context.Context, id string) (domain.LitterPhotoDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.LitterPhotos, id, hydrateLitterPhoto)
}

// CreateLitterPhoto appends a photo to its litter's display order.
func (s *Service) CreateLitterPhoto(ctx context.Context, p domain.LitterPhoto) (domain.LitterPhoto, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityLitterPhoto), func(tx Transaction) (domain.LitterPhoto, error) {
		return tx.CreateLitterPhoto(p)
	})
}

func (s *Service) UpdateLitterPhoto(ctx context.Context, id string, mutator func(*domain.LitterPhoto) error) (domain.LitterPhoto, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityLitterPhoto), func(tx Transaction) (domain.LitterPhoto, error) {
		return tx.UpdateLitterPhoto(id, mutator)
	})
}

func (s *Service) DeleteLitterPhoto(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityLitterPhoto), id, func(tx Transaction) error {
		return tx.DeleteLitterPhoto(id)
	})
}

func hydrateHealthTask(v domain.TransactionView, t domain.PuppyHealthTask) domain.PuppyHealthTaskDetail {
	return domain.PuppyHealthTaskDetail{
		PuppyHealthTask: t,
		Litter:          refID(v.Litters(), t.LitterID),
		Puppy:           ref(v.Dogs(), t.PuppyID),
	}
}

func taskLess(a, b domain.PuppyHealthTask) bool {
	if !a.DueDate.Equal(b.DueDate) {
		return a.DueDate.Before(b.DueDate)
	}
	return a.TaskName < b.TaskName
}

// ListPuppyHealthTasks returns tasks in due-date order.
func (s *Service) ListPuppyHealthTasks(ctx context.Context, filter HealthTaskFilter) []domain.PuppyHealthTaskDetail {
	return listAll(ctx, s, scoped(domain.TransactionView.PuppyHealthTasks, domain.ByLitter, filter.LitterID), filter.match,
		taskLess, hydrateHealthTask)
}

func (s *Service) GetPuppyHealthTask(ctx context.Context, id string) (domain.PuppyHealthTaskDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.PuppyHealthTasks, id, hydrateHealthTask)
}

func (s *Service) CreatePuppyHealthTask(ctx context.Context, t domain.PuppyHealthTask) (domain.PuppyHealthTask, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityPuppyHealthTask), func(tx Transaction) (domain.PuppyHealthTask, error) {
		return tx.CreatePuppyHealthTask(t)
	})
}

func (s *Service) UpdatePuppyHealthTask(ctx context.Context, id string, mutator func(*domain.PuppyHealthTask) error) (domain.PuppyHealthTask, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityPuppyHealthTask), func(tx Transaction) (domain.PuppyHealthTask, error) {
		return tx.UpdatePuppyHealthTask(id, mutator)
	})
}

// CompletePuppyHealthTask marks a task done on the given date.
func (s *Service) CompletePuppyHealthTask(ctx context.Context, id string, on time.Time) (domain.PuppyHealthTask, Result, error) {
	return s.UpdatePuppyHealthTask(ctx, id, func(t *domain.PuppyHealthTask) error {
		day := domain.Day(on)
		t.IsCompleted = true
		t.CompletedDate = &day
		return nil
	})
}

func (s *Service) DeletePuppyHealthTask(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityPuppyHealthTask), id, func(tx Transaction) error {
		return tx.DeletePuppyHealthTask(id)
	})
}

// ListHealthTemplates returns templates with the default first.
func (s *Service) ListHealthTemplates(ctx context.Context) []domain.HealthScheduleTemplate {
	return listAll(ctx, s, all(domain.TransactionView.HealthTemplates), nil,
		func(a, b domain.HealthScheduleTemplate) bool {
			if a.IsDefault != b.IsDefault {
				return a.IsDefault
			}
			return foldLess(a.Name, b.Name)
		},
		func(_ domain.TransactionView, t domain.HealthScheduleTemplate) domain.HealthScheduleTemplate { return t })
}

func (s *Service) GetHealthTemplate(ctx context.Context, id string) (domain.HealthScheduleTemplate, bool) {
	return getDetail(ctx, s, domain.TransactionView.HealthTemplates, id,
		func(_ domain.TransactionView, t domain.HealthScheduleTemplate) domain.HealthScheduleTemplate { return t })
}

// CreateHealthTemplate stores a template. A template created as default
// replaces the previous default.
func (s *Service) CreateHealthTemplate(ctx context.Context, t domain.HealthScheduleTemplate) (domain.HealthScheduleTemplate, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityHealthTemplate), func(tx Transaction) (domain.HealthScheduleTemplate, error) {
		return tx.CreateHealthTemplate(t)
	})
}

func (s *Service) UpdateHealthTemplate(ctx context.Context, id string, mutator func(*domain.HealthScheduleTemplate) error) (domain.HealthScheduleTemplate, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityHealthTemplate), func(tx Transaction) (domain.HealthScheduleTemplate, error) {
		return tx.UpdateHealthTemplate(id, mutator)
	})
}

// DeleteHealthTemplate removes a template. The default template cannot be
// deleted: the result is false with a *domain.PolicyError.
func (s *Service) DeleteHealthTemplate(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityHealthTemplate), id, func(tx Transaction) error {
		return tx.DeleteHealthTemplate(id)
	})
}
