package core

import (
	"context"

	"kennelcore/pkg/domain"
)

// ListDogs returns hydrated dogs matching filter, ordered by name.
func (s *Service) ListDogs(ctx context.Context, filter DogFilter) []domain.DogDetail {
	return listAll(ctx, s, scoped(domain.TransactionView.Dogs, domain.ByLitter, filter.LitterID), filter.match,
		func(a, b domain.Dog) bool { return foldLess(a.Name, b.Name) }, hydrateDog(s.now()))
}

// GetDog returns a dog with its direct relations.
func (s *Service) GetDog(ctx context.Context, id string) (domain.DogDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.Dogs, id, hydrateDog(s.now()))
}

// CreateDog validates and stores a new dog.
func (s *Service) CreateDog(ctx context.Context, dog domain.Dog) (domain.Dog, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityDog), func(tx Transaction) (domain.Dog, error) {
		return tx.CreateDog(dog)
	})
}

// UpdateDog applies mutator to the stored dog.
func (s *Service) UpdateDog(ctx context.Context, id string, mutator func(*domain.Dog) error) (domain.Dog, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityDog), func(tx Transaction) (domain.Dog, error) {
		return tx.UpdateDog(id, mutator)
	})
}

// DeleteDog removes a dog and everything it owns; pointers to it elsewhere
// are cleared.
func (s *Service) DeleteDog(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityDog), id, func(tx Transaction) error {
		return tx.DeleteDog(id)
	})
}

func hydrateVaccination(v domain.TransactionView, r domain.VaccinationRecord) domain.VaccinationDetail {
	return domain.VaccinationDetail{VaccinationRecord: r, Dog: refID(v.Dogs(), r.DogID)}
}

// ListVaccinations returns vaccinations, most recent first.
func (s *Service) ListVaccinations(ctx context.Context, filter DogRecordFilter) []domain.VaccinationDetail {
	return listAll(ctx, s, scoped(domain.TransactionView.Vaccinations, domain.ByDog, filter.DogID), nil,
		func(a, b domain.VaccinationRecord) bool { return newestFirst(a.DateGiven, b.DateGiven) }, hydrateVaccination)
}

func (s *Service) GetVaccination(ctx context.Context, id string) (domain.VaccinationDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.Vaccinations, id, hydrateVaccination)
}

func (s *Service) CreateVaccination(ctx context.Context, r domain.VaccinationRecord) (domain.VaccinationRecord, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityVaccination), func(tx Transaction) (domain.VaccinationRecord, error) {
		return tx.CreateVaccination(r)
	})
}

func (s *Service) UpdateVaccination(ctx context.Context, id string, mutator func(*domain.VaccinationRecord) error) (domain.VaccinationRecord, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityVaccination), func(tx Transaction) (domain.VaccinationRecord, error) {
		return tx.UpdateVaccination(id, mutator)
	})
}

func (s *Service) DeleteVaccination(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityVaccination), id, func(tx Transaction) error {
		return tx.DeleteVaccination(id)
	})
}

func hydrateWeightEntry(v domain.TransactionView, w domain.WeightEntry) domain.WeightEntryDetail {
	return domain.WeightEntryDetail{WeightEntry: w, Dog: refID(v.Dogs(), w.DogID)}
}

// ListWeightEntries returns weight entries in chronological order.
func (s *Service) ListWeightEntries(ctx context.Context, filter DogRecordFilter) []domain.WeightEntryDetail {
	return listAll(ctx, s, scoped(domain.TransactionView.WeightEntries, domain.ByDog, filter.DogID), nil,
		func(a, b domain.WeightEntry) bool { return a.Date.Before(b.Date) }, hydrateWeightEntry)
}

func (s *Service) GetWeightEntry(ctx context.Context, id string) (domain.WeightEntryDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.WeightEntries, id, hydrateWeightEntry)
}

func (s *Service) CreateWeightEntry(ctx context.Context, w domain.WeightEntry) (domain.WeightEntry, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityWeightEntry), func(tx Transaction) (domain.WeightEntry, error) {
		return tx.CreateWeightEntry(w)
	})
}

func (s *Service) UpdateWeightEntry(ctx context.Context, id string, mutator func(*domain.WeightEntry) error) (domain.WeightEntry, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityWeightEntry), func(tx Transaction) (domain.WeightEntry, error) {
		return tx.UpdateWeightEntry(id, mutator)
	})
}

func (s *Service) DeleteWeightEntry(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityWeightEntry), id, func(tx Transaction) error {
		return tx.DeleteWeightEntry(id)
	})
}

func hydrateMedicalRecord(v domain.TransactionView, m domain.MedicalRecord) domain.MedicalRecordDetail {
	return domain.MedicalRecordDetail{MedicalRecord: m, Dog: refID(v.Dogs(), m.DogID)}
}

// ListMedicalRecords returns medical records, most recent first.
func (s *Service) ListMedicalRecords(ctx context.Context, filter DogRecordFilter) []domain.MedicalRecordDetail {
	return listAll(ctx, s, scoped(domain.TransactionView.MedicalRecords, domain.ByDog, filter.DogID), nil,
		func(a, b domain.MedicalRecord) bool { return newestFirst(a.Date, b.Date) }, hydrateMedicalRecord)
}

func (s *Service) GetMedicalRecord(ctx context.Context, id string) (domain.MedicalRecordDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.MedicalRecords, id, hydrateMedicalRecord)
}

func (s *Service) CreateMedicalRecord(ctx context.Context, m domain.MedicalRecord) (domain.MedicalRecord, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityMedicalRecord), func(tx Transaction) (domain.MedicalRecord, error) {
		return tx.CreateMedicalRecord(m)
	})
}

func (s *Service) UpdateMedicalRecord(ctx context.Context, id string, mutator func(*domain.MedicalRecord) error) (domain.MedicalRecord, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityMedicalRecord), func(tx Transaction) (domain.MedicalRecord, error) {
		return tx.UpdateMedicalRecord(id, mutator)
	})
}

func (s *Service) DeleteMedicalRecord(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityMedicalRecord), id, func(tx Transaction) error {
		return tx.DeleteMedicalRecord(id)
	})
}

func hydrateGeneticTest(v domain.TransactionView, g domain.GeneticTest) domain.GeneticTestDetail {
	return domain.GeneticTestDetail{GeneticTest: g, Dog: refID(v.Dogs(), g.DogID)}
}

// ListGeneticTests returns genetic tests ordered by test name.
func (s *Service) ListGeneticTests(ctx context.Context, filter DogRecordFilter) []domain.GeneticTestDetail {
	return listAll(ctx, s, scoped(domain.TransactionView.GeneticTests, domain.ByDog, filter.DogID), nil,
		func(a, b domain.GeneticTest) bool { return foldLess(a.TestName, b.TestName) }, hydrateGeneticTest)
}

func (s *Service) GetGeneticTest(ctx context.Context, id string) (domain.GeneticTestDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.GeneticTests, id, hydrateGeneticTest)
}

func (s *Service) CreateGeneticTest(ctx context.Context, g domain.GeneticTest) (domain.GeneticTest, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityGeneticTest), func(tx Transaction) (domain.GeneticTest, error) {
		return tx.CreateGeneticTest(g)
	})
}

func (s *Service) UpdateGeneticTest(ctx context.Context, id string, mutator func(*domain.GeneticTest) error) (domain.GeneticTest, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityGeneticTest), func(tx Transaction) (domain.GeneticTest, error) {
		return tx.UpdateGeneticTest(id, mutator)
	})
}

func (s *Service) DeleteGeneticTest(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityGeneticTest), id, func(tx Transaction) error {
		return tx.DeleteGeneticTest(id)
	})
}

func hydrateDogPhoto(v domain.TransactionView, p domain.DogPhoto) domain.DogPhotoDetail {
	return domain.DogPhotoDetail{DogPhoto: p, Dog: refID(v.Dogs(), p.DogID)}
}

// ListDogPhotos returns photos with each dog's primary photo first.
func (s *Service) ListDogPhotos(ctx context.Context, filter DogRecordFilter) []domain.DogPhotoDetail {
	return listAll(ctx, s, scoped(domain.TransactionView.DogPhotos, domain.ByDog, filter.DogID), nil,
		func(a, b domain.DogPhoto) bool { return a.IsPrimary && !b.IsPrimary }, hydrateDogPhoto)
}

func (s *Service) GetDogPhoto(ctx context.Context, id string) (domain.DogPhotoDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.DogPhotos, id, hydrateDogPhoto)
}

// CreateDogPhoto stores a photo. A dog's first photo, or one flagged primary,
// becomes the primary photo.
func (s *Service) CreateDogPhoto(ctx context.Context, p domain.DogPhoto) (domain.DogPhoto, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityDogPhoto), func(tx Transaction) (domain.DogPhoto, error) {
		return tx.CreateDogPhoto(p)
	})
}

func (s *Service) UpdateDogPhoto(ctx context.Context, id string, mutator func(*domain.DogPhoto) error) (domain.DogPhoto, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityDogPhoto), func(tx Transaction) (domain.DogPhoto, error) {
		return tx.UpdateDogPhoto(id, mutator)
	})
}

func (s *Service) DeleteDogPhoto(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityDogPhoto), id, func(tx Transaction) error {
		return tx.DeleteDogPhoto(id)
	})
}

func hydrateTransport(v domain.TransactionView, t domain.Transport) domain.TransportDetail {
	return domain.TransportDetail{Transport: t, Dog: refID(v.Dogs(), t.DogID), Expense: ref(v.Expenses(), t.ExpenseID)}
}

// ListTransports returns transports, most recent first.
func (s *Service) ListTransports(ctx context.Context, filter DogRecordFilter) []domain.TransportDetail {
	return listAll(ctx, s, scoped(domain.TransactionView.Transports, domain.ByDog, filter.DogID), nil,
		func(a, b domain.Transport) bool { return newestFirst(a.Date, b.Date) }, hydrateTransport)
}

func (s *Service) GetTransport(ctx context.Context, id string) (domain.TransportDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.Transports, id, hydrateTransport)
}

// CreateTransport stores a transport. A positive cost books a linked
// transport expense in the same transaction.
func (s *Service) CreateTransport(ctx context.Context, t domain.Transport) (domain.Transport, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityTransport), func(tx Transaction) (domain.Transport, error) {
		return tx.CreateTransport(t)
	})
}

// UpdateTransport applies mutator; the linked expense follows cost and date
// changes.
func (s *Service) UpdateTransport(ctx context.Context, id string, mutator func(*domain.Transport) error) (domain.Transport, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityTransport), func(tx Transaction) (domain.Transport, error) {
		return tx.UpdateTransport(id, mutator)
	})
}

// DeleteTransport removes the transport and keeps its expense.
func (s *Service) DeleteTransport(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityTransport), id, func(tx Transaction) error {
		return tx.DeleteTransport(id)
	})
}
