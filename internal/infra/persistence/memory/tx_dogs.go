package memory

import (
	"kennelcore/pkg/domain"
)

func (tx *transaction) checkDog(d *domain.Dog) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.SireID != nil && *d.SireID == d.ID {
		return domain.NewValidationError(domain.EntityDog, "sire_id", "dog cannot be its own sire")
	}
	if d.DamID != nil && *d.DamID == d.ID {
		return domain.NewValidationError(domain.EntityDog, "dam_id", "dog cannot be its own dam")
	}
	if err := tx.requireParent(domain.EntityDog, "sire_id", d.SireID, domain.SexMale); err != nil {
		return err
	}
	if err := tx.requireParent(domain.EntityDog, "dam_id", d.DamID, domain.SexFemale); err != nil {
		return err
	}
	return requireOptRef(tx.state.litters, domain.EntityDog, "litter_id", d.LitterID)
}

// hasReproductiveHistory reports whether a dog's sex is load-bearing: it has
// heat cycles, offspring, litters or recorded matings.
func (tx *transaction) hasReproductiveHistory(id string) bool {
	st := tx.state
	return len(st.heatCycles.ids(domain.ByBitch, id)) > 0 ||
		len(st.dogs.ids(domain.BySire, id)) > 0 ||
		len(st.dogs.ids(domain.ByDam, id)) > 0 ||
		len(st.litters.ids(domain.BySire, id)) > 0 ||
		len(st.litters.ids(domain.ByDam, id)) > 0 ||
		len(st.heatEvents.ids(domain.BySire, id)) > 0
}

// CreateDog inserts a dog. Status defaults to active.
func (tx *transaction) CreateDog(d domain.Dog) (domain.Dog, error) {
	return createRow(tx, tx.state.dogs, d, func(d *domain.Dog) error {
		if d.Status == "" {
			d.Status = domain.DogStatusActive
		}
		return tx.checkDog(d)
	})
}

// UpdateDog mutates a dog. Sex is frozen once the dog has reproductive history.
func (tx *transaction) UpdateDog(id string, mutator func(*domain.Dog) error) (domain.Dog, error) {
	return updateRow(tx, tx.state.dogs, id, mutator, func(before domain.Dog, after *domain.Dog) error {
		if before.Sex != after.Sex && tx.hasReproductiveHistory(id) {
			return domain.NewValidationError(domain.EntityDog, "sex", "cannot change sex of a dog with heat cycles, offspring or matings")
		}
		return tx.checkDog(after)
	})
}

// DeleteDog removes a dog and everything it owns.
func (tx *transaction) DeleteDog(id string) error {
	if !tx.state.dogs.has(id) {
		return domain.NotFound(domain.EntityDog, id)
	}
	tx.cascadeDeleteDog(id)
	tx.state.dogs.drop(tx, id)
	return nil
}

func (tx *transaction) prepareLitter(l *domain.Litter) error {
	if l.Status == "" {
		l.Status = domain.LitterStatusPlanned
	}
	if l.DueDate == nil && l.BreedingDate != nil {
		due := domain.AddDays(*l.BreedingDate, domain.GestationDays)
		l.DueDate = &due
	}
	if err := l.Validate(); err != nil {
		return err
	}
	if l.SireID != nil && l.DamID != nil && *l.SireID == *l.DamID {
		return domain.NewValidationError(domain.EntityLitter, "dam_id", "sire and dam must be different dogs")
	}
	if err := tx.requireParent(domain.EntityLitter, "sire_id", l.SireID, domain.SexMale); err != nil {
		return err
	}
	return tx.requireParent(domain.EntityLitter, "dam_id", l.DamID, domain.SexFemale)
}

// CreateLitter inserts a litter. Status defaults to planned and the due date
// to breeding date plus gestation.
func (tx *transaction) CreateLitter(l domain.Litter) (domain.Litter, error) {
	return createRow(tx, tx.state.litters, l, tx.prepareLitter)
}

// UpdateLitter mutates a litter.
func (tx *transaction) UpdateLitter(id string, mutator func(*domain.Litter) error) (domain.Litter, error) {
	return updateRow(tx, tx.state.litters, id, mutator, func(_ domain.Litter, after *domain.Litter) error {
		return tx.prepareLitter(after)
	})
}

// DeleteLitter removes a litter, detaching its puppies.
func (tx *transaction) DeleteLitter(id string) error {
	if !tx.state.litters.has(id) {
		return domain.NotFound(domain.EntityLitter, id)
	}
	tx.cascadeDeleteLitter(id)
	tx.state.litters.drop(tx, id)
	return nil
}

func (tx *transaction) CreateVaccination(v domain.VaccinationRecord) (domain.VaccinationRecord, error) {
	return createRow(tx, tx.state.vaccinations, v, func(v *domain.VaccinationRecord) error {
		return tx.checkDogOwned(domain.EntityVaccination, v.Validate(), v.DogID)
	})
}

func (tx *transaction) UpdateVaccination(id string, mutator func(*domain.VaccinationRecord) error) (domain.VaccinationRecord, error) {
	return updateRow(tx, tx.state.vaccinations, id, mutator, func(_ domain.VaccinationRecord, v *domain.VaccinationRecord) error {
		return tx.checkDogOwned(domain.EntityVaccination, v.Validate(), v.DogID)
	})
}

func (tx *transaction) DeleteVaccination(id string) error {
	if _, ok := tx.state.vaccinations.drop(tx, id); !ok {
		return domain.NotFound(domain.EntityVaccination, id)
	}
	return nil
}

func (tx *transaction) CreateWeightEntry(w domain.WeightEntry) (domain.WeightEntry, error) {
	return createRow(tx, tx.state.weights, w, func(w *domain.WeightEntry) error {
		return tx.checkDogOwned(domain.EntityWeightEntry, w.Validate(), w.DogID)
	})
}

func (tx *transaction) UpdateWeightEntry(id string, mutator func(*domain.WeightEntry) error) (domain.WeightEntry, error) {
	return updateRow(tx, tx.state.weights, id, mutator, func(_ domain.WeightEntry, w *domain.WeightEntry) error {
		return tx.checkDogOwned(domain.EntityWeightEntry, w.Validate(), w.DogID)
	})
}

func (tx *transaction) DeleteWeightEntry(id string) error {
	if _, ok := tx.state.weights.drop(tx, id); !ok {
		return domain.NotFound(domain.EntityWeightEntry, id)
	}
	return nil
}

func (tx *transaction) CreateMedicalRecord(m domain.MedicalRecord) (domain.MedicalRecord, error) {
	return createRow(tx, tx.state.medical, m, func(m *domain.MedicalRecord) error {
		return tx.checkDogOwned(domain.EntityMedicalRecord, m.Validate(), m.DogID)
	})
}

func (tx *transaction) UpdateMedicalRecord(id string, mutator func(*domain.MedicalRecord) error) (domain.MedicalRecord, error) {
	return updateRow(tx, tx.state.medical, id, mutator, func(_ domain.MedicalRecord, m *domain.MedicalRecord) error {
		return tx.checkDogOwned(domain.EntityMedicalRecord, m.Validate(), m.DogID)
	})
}

func (tx *transaction) DeleteMedicalRecord(id string) error {
	if _, ok := tx.state.medical.drop(tx, id); !ok {
		return domain.NotFound(domain.EntityMedicalRecord, id)
	}
	return nil
}

func (tx *transaction) CreateGeneticTest(g domain.GeneticTest) (domain.GeneticTest, error) {
	return createRow(tx, tx.state.geneticTests, g, func(g *domain.GeneticTest) error {
		return tx.checkDogOwned(domain.EntityGeneticTest, g.Validate(), g.DogID)
	})
}

func (tx *transaction) UpdateGeneticTest(id string, mutator func(*domain.GeneticTest) error) (domain.GeneticTest, error) {
	return updateRow(tx, tx.state.geneticTests, id, mutator, func(_ domain.GeneticTest, g *domain.GeneticTest) error {
		return tx.checkDogOwned(domain.EntityGeneticTest, g.Validate(), g.DogID)
	})
}

func (tx *transaction) DeleteGeneticTest(id string) error {
	if _, ok := tx.state.geneticTests.drop(tx, id); !ok {
		return domain.NotFound(domain.EntityGeneticTest, id)
	}
	return nil
}

// checkDogOwned combines a record's own validation with its dog_id reference.
func (tx *transaction) checkDogOwned(entity domain.EntityType, validationErr error, dogID string) error {
	if validationErr != nil {
		return validationErr
	}
	_, err := requireRef(tx.state.dogs, entity, "dog_id", dogID)
	return err
}

// CreateDogPhoto inserts a photo. A dog's first photo becomes primary, and a
// new primary demotes the previous one.
func (tx *transaction) CreateDogPhoto(p domain.DogPhoto) (domain.DogPhoto, error) {
	created, err := createRow(tx, tx.state.dogPhotos, p, func(p *domain.DogPhoto) error {
		if err := tx.checkDogOwned(domain.EntityDogPhoto, p.Validate(), p.DogID); err != nil {
			return err
		}
		if len(tx.state.dogPhotos.ids(domain.ByDog, p.DogID)) == 0 {
			p.IsPrimary = true
		}
		return nil
	})
	if err != nil {
		return created, err
	}
	if created.IsPrimary {
		tx.demotePrimaryPhotos(created.DogID, created.ID)
	}
	return created, nil
}

func (tx *transaction) UpdateDogPhoto(id string, mutator func(*domain.DogPhoto) error) (domain.DogPhoto, error) {
	updated, err := updateRow(tx, tx.state.dogPhotos, id, mutator, func(_ domain.DogPhoto, p *domain.DogPhoto) error {
		return tx.checkDogOwned(domain.EntityDogPhoto, p.Validate(), p.DogID)
	})
	if err != nil {
		return updated, err
	}
	if updated.IsPrimary {
		tx.demotePrimaryPhotos(updated.DogID, updated.ID)
	}
	return updated, nil
}

func (tx *transaction) DeleteDogPhoto(id string) error {
	if _, ok := tx.state.dogPhotos.drop(tx, id); !ok {
		return domain.NotFound(domain.EntityDogPhoto, id)
	}
	return nil
}

func (tx *transaction) demotePrimaryPhotos(dogID, keep string) {
	for _, photo := range tx.state.dogPhotos.rowsBy(domain.ByDog, dogID) {
		if photo.ID != keep && photo.IsPrimary {
			touch(tx, tx.state.dogPhotos, photo.ID, func(p *domain.DogPhoto) { p.IsPrimary = false })
		}
	}
}
