package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"kennelcore/pkg/domain"
)

// findDog looks a dog up and checks its sex. field names the input in errors.
func findDog(v domain.TransactionView, entity domain.EntityType, field, id string, sex domain.Sex) (domain.Dog, error) {
	dog, ok := v.Dogs().Find(id)
	if !ok {
		return domain.Dog{}, domain.NotFound(domain.EntityDog, id)
	}
	if sex != "" && dog.Sex != sex {
		return domain.Dog{}, domain.NewValidationError(entity, field, "dog %q is %s, expected %s", id, dog.Sex, sex)
	}
	return dog, nil
}

// GetHeatCyclePrediction projects a female's next heat from her cycle
// history.
func (s *Service) GetHeatCyclePrediction(ctx context.Context, dogID string) (domain.HeatPrediction, error) {
	var (
		out domain.HeatPrediction
		err error
	)
	s.view(ctx, func(v domain.TransactionView) {
		if _, err = findDog(v, domain.EntityHeatCycle, "bitch_id", dogID, domain.SexFemale); err != nil {
			return
		}
		out = domain.PredictNextHeat(dogID, v.HeatCycles().ListBy(domain.ByBitch, dogID))
	})
	return out, err
}

// GetBreedingRecommendation classifies a progesterone reading in ng/mL.
func (s *Service) GetBreedingRecommendation(level float64) (domain.BreedingAdvice, error) {
	return domain.BreedingRecommendation(level)
}

// CheckMatingCompatibility compares the genetic test results of a prospective
// dam and sire.
func (s *Service) CheckMatingCompatibility(ctx context.Context, damID, sireID string) (domain.CompatibilityReport, error) {
	var (
		out domain.CompatibilityReport
		err error
	)
	s.view(ctx, func(v domain.TransactionView) {
		if _, err = findDog(v, domain.EntityLitter, "dam_id", damID, domain.SexFemale); err != nil {
			return
		}
		if _, err = findDog(v, domain.EntityLitter, "sire_id", sireID, domain.SexMale); err != nil {
			return
		}
		out = domain.CheckCompatibility(
			damID, v.GeneticTests().ListBy(domain.ByDog, damID),
			sireID, v.GeneticTests().ListBy(domain.ByDog, sireID),
		)
	})
	return out, err
}

// defaultTemplate returns the default health template, creating the built-in
// one when no template is marked default.
func defaultTemplate(tx Transaction) (domain.HealthScheduleTemplate, error) {
	for _, t := range tx.Snapshot().HealthTemplates().List() {
		if t.IsDefault {
			return t, nil
		}
	}
	return tx.CreateHealthTemplate(domain.NewDefaultHealthTemplate())
}

// GeneratePuppyHealthTasksForLitter expands a health template into tasks for
// the litter's current puppies, due relative to whelpDate. A nil templateID
// uses the default template; a zero whelpDate falls back to the litter's
// recorded whelp date. Tasks already present for the same puppy and name are
// not duplicated, so regenerating is safe.
func (s *Service) GeneratePuppyHealthTasksForLitter(ctx context.Context, litterID string, whelpDate time.Time, templateID *string) ([]domain.PuppyHealthTask, Result, error) {
	var created []domain.PuppyHealthTask
	res, err := s.transact(ctx, "generate_health_tasks", litterID, func(tx Transaction) error {
		view := tx.Snapshot()
		litter, ok := view.Litters().Find(litterID)
		if !ok {
			return domain.NotFound(domain.EntityLitter, litterID)
		}
		if whelpDate.IsZero() {
			if litter.WhelpDate == nil {
				return domain.NewValidationError(domain.EntityPuppyHealthTask, "due_date", "litter %q has no whelp date", litterID)
			}
			whelpDate = *litter.WhelpDate
		}

		var template domain.HealthScheduleTemplate
		if templateID != nil {
			t, ok := view.HealthTemplates().Find(*templateID)
			if !ok {
				return domain.NewValidationError(domain.EntityPuppyHealthTask, "template_id", "template %q does not exist", *templateID)
			}
			template = t
		} else {
			t, err := defaultTemplate(tx)
			if err != nil {
				return err
			}
			template = t
		}

		existing := make(map[string]struct{})
		for _, t := range view.PuppyHealthTasks().ListBy(domain.ByLitter, litterID) {
			existing[partitionKey(t.PuppyID)+"|"+t.TaskName] = struct{}{}
		}
		puppies := view.Dogs().ListBy(domain.ByLitter, litterID)
		for _, task := range domain.GenerateHealthTasks(litterID, whelpDate, puppies, template) {
			if _, dup := existing[partitionKey(task.PuppyID)+"|"+task.TaskName]; dup {
				continue
			}
			stored, err := tx.CreatePuppyHealthTask(task)
			if err != nil {
				return err
			}
			created = append(created, stored)
		}
		return nil
	})
	if err != nil {
		return nil, res, err
	}
	return nonNil(created), res, nil
}

// ReorderWaitlist renumbers a waitlist partition 1..N following orderedIDs.
// A nil litterID selects the general list.
func (s *Service) ReorderWaitlist(ctx context.Context, litterID *string, orderedIDs []string) ([]domain.WaitlistEntry, Result, error) {
	var out []domain.WaitlistEntry
	res, err := s.transact(ctx, "reorder_waitlist", partitionKey(litterID), func(tx Transaction) error {
		var err error
		out, err = tx.ReorderWaitlist(litterID, orderedIDs)
		return err
	})
	return out, res, err
}

// ReorderLitterPhotos renumbers a litter's photos 0..N-1 following
// orderedIDs.
func (s *Service) ReorderLitterPhotos(ctx context.Context, litterID string, orderedIDs []string) ([]domain.LitterPhoto, Result, error) {
	var out []domain.LitterPhoto
	res, err := s.transact(ctx, "reorder_litter_photos", litterID, func(tx Transaction) error {
		var err error
		out, err = tx.ReorderLitterPhotos(litterID, orderedIDs)
		return err
	})
	return out, res, err
}

// SalePuppyInput is one puppy on a sale being created. A nil price takes the
// sale price when the sale has a single puppy, zero otherwise.
type SalePuppyInput struct {
	DogID string           `json:"dog_id"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

// SaleInput describes the sale created by ConvertInterestToSale. Sale.ClientID
// defaults to the interest's client; no puppies means the interest's dog. A
// zero sale price is replaced by the sum of the puppy prices.
type SaleInput struct {
	Sale    domain.Sale      `json:"sale"`
	Puppies []SalePuppyInput `json:"puppies,omitempty"`
}

// ConvertInterestToSale creates a sale with its puppies from an interest and
// marks the interest converted, all in one transaction.
func (s *Service) ConvertInterestToSale(ctx context.Context, interestID string, input SaleInput) (domain.Sale, Result, error) {
	return mutate(ctx, s, "convert_interest", func(tx Transaction) (domain.Sale, error) {
		interest, ok := tx.Snapshot().ClientInterests().Find(interestID)
		if !ok {
			return domain.Sale{}, domain.NotFound(domain.EntityClientInterest, interestID)
		}
		if !domain.CanTransitionInterest(interest.Status, domain.InterestConverted) {
			return domain.Sale{}, domain.NewValidationError(domain.EntityClientInterest, "status", "cannot convert a %s interest", interest.Status)
		}

		sale := input.Sale
		if sale.ClientID == nil {
			clientID := interest.ClientID
			sale.ClientID = &clientID
		}
		if sale.SaleDate.IsZero() {
			sale.SaleDate = domain.Day(tx.Now())
		}
		puppies := input.Puppies
		if len(puppies) == 0 {
			puppies = []SalePuppyInput{{DogID: interest.DogID}}
		}
		lines := make([]domain.SalePuppy, len(puppies))
		total := decimal.Zero
		for i, p := range puppies {
			price := decimal.Zero
			switch {
			case p.Price != nil:
				price = *p.Price
			case len(puppies) == 1:
				price = sale.Price
			}
			lines[i] = domain.SalePuppy{DogID: p.DogID, Price: price}
			total = total.Add(price)
		}
		if sale.Price.IsZero() {
			sale.Price = total
		}

		created, err := tx.CreateSale(sale)
		if err != nil {
			return domain.Sale{}, err
		}
		for _, line := range lines {
			line.SaleID = created.ID
			if _, err := tx.AddSalePuppy(line); err != nil {
				return domain.Sale{}, err
			}
		}
		if _, err := tx.ConvertInterest(interestID, created.ID); err != nil {
			return domain.Sale{}, err
		}
		return created, nil
	})
}

// AddPuppyToSale adds a dog to a sale at price. The dog is marked sold while
// the sale is active.
func (s *Service) AddPuppyToSale(ctx context.Context, saleID, dogID string, price decimal.Decimal) (domain.SalePuppy, Result, error) {
	return mutate(ctx, s, "add_sale_puppy", func(tx Transaction) (domain.SalePuppy, error) {
		return tx.AddSalePuppy(domain.SalePuppy{SaleID: saleID, DogID: dogID, Price: price})
	})
}

// RemovePuppyFromSale takes a dog off a sale and reports whether it was on
// it. The dog returns to active unless another active sale holds it.
func (s *Service) RemovePuppyFromSale(ctx context.Context, saleID, dogID string) (bool, Result, error) {
	return s.remove(ctx, "remove_sale_puppy", saleID, func(tx Transaction) error {
		for _, line := range tx.Snapshot().SalePuppies().ListBy(domain.BySale, saleID) {
			if line.DogID == dogID {
				return tx.RemoveSalePuppy(line.ID)
			}
		}
		return domain.NotFound(domain.EntitySalePuppy, saleID+"/"+dogID)
	})
}
