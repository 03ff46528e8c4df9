package memory

import (
	"kennelcore/pkg/domain"
)

// Cascades run before the parent row is dropped. Each relation either
// deletes the dependent rows or nulls the pointer to the parent; nothing is
// inferred from the schema.

// cascadeDeleteDog removes the records a dog owns and nulls every pointer to
// it held by records that outlive it.
func (tx *transaction) cascadeDeleteDog(id string) {
	st := tx.state
	dropBy(tx, st.vaccinations, domain.ByDog, id)
	dropBy(tx, st.weights, domain.ByDog, id)
	dropBy(tx, st.medical, domain.ByDog, id)
	dropBy(tx, st.geneticTests, domain.ByDog, id)
	dropBy(tx, st.dogPhotos, domain.ByDog, id)
	dropBy(tx, st.transports, domain.ByDog, id)
	for _, cycleID := range st.heatCycles.ids(domain.ByBitch, id) {
		tx.cascadeDeleteHeatCycle(cycleID)
		st.heatCycles.drop(tx, cycleID)
	}
	dropBy(tx, st.salePuppies, domain.ByDog, id)
	dropBy(tx, st.interests, domain.ByDog, id)
	dropBy(tx, st.healthTasks, domain.ByPuppy, id)
	dropBy(tx, st.dogDocuments, domain.ByDog, id)

	for _, childID := range st.dogs.ids(domain.BySire, id) {
		touch(tx, st.dogs, childID, func(d *domain.Dog) { d.SireID = nil })
	}
	for _, childID := range st.dogs.ids(domain.ByDam, id) {
		touch(tx, st.dogs, childID, func(d *domain.Dog) { d.DamID = nil })
	}
	for _, litterID := range st.litters.ids(domain.BySire, id) {
		touch(tx, st.litters, litterID, func(l *domain.Litter) { l.SireID = nil })
	}
	for _, litterID := range st.litters.ids(domain.ByDam, id) {
		touch(tx, st.litters, litterID, func(l *domain.Litter) { l.DamID = nil })
	}
	for _, eventID := range st.heatEvents.ids(domain.BySire, id) {
		touch(tx, st.heatEvents, eventID, func(e *domain.HeatEvent) { e.SireID = nil })
	}
	for _, expenseID := range st.expenses.ids(domain.ByDog, id) {
		touch(tx, st.expenses, expenseID, func(e *domain.Expense) { e.DogID = nil })
	}
}

// cascadeDeleteLitter detaches puppies and expenses, deletes photos, health
// tasks and document links, and moves litter waitlist entries to the end of
// the general partition.
func (tx *transaction) cascadeDeleteLitter(id string) {
	st := tx.state
	for _, dogID := range st.dogs.ids(domain.ByLitter, id) {
		touch(tx, st.dogs, dogID, func(d *domain.Dog) { d.LitterID = nil })
	}
	for _, expenseID := range st.expenses.ids(domain.ByLitter, id) {
		touch(tx, st.expenses, expenseID, func(e *domain.Expense) { e.LitterID = nil })
	}
	dropBy(tx, st.litterPhotos, domain.ByLitter, id)
	dropBy(tx, st.healthTasks, domain.ByLitter, id)
	dropBy(tx, st.litterDocuments, domain.ByLitter, id)

	moved := tx.waitlistOrder(&id, "")
	if len(moved) == 0 {
		return
	}
	general := tx.waitlistOrder(nil, "")
	for _, entryID := range moved {
		touch(tx, st.waitlist, entryID, func(e *domain.WaitlistEntry) { e.LitterID = nil })
	}
	tx.renumberWaitlist(append(general, moved...))
}

// cascadeDeleteSale releases the sale's puppies and resets interests that
// were converted into it.
func (tx *transaction) cascadeDeleteSale(id string) {
	st := tx.state
	puppies := st.salePuppies.rowsBy(domain.BySale, id)
	for _, sp := range puppies {
		st.salePuppies.drop(tx, sp.ID)
	}
	for _, sp := range puppies {
		tx.syncDogSaleStatus(sp.DogID)
	}
	for _, interestID := range st.interests.ids(domain.ByConvertedSale, id) {
		touch(tx, st.interests, interestID, func(i *domain.ClientInterest) {
			i.Status = domain.InterestInterested
			i.ConvertedToSaleID = nil
		})
	}
}

// cascadeDeleteClient deletes the client's interests, waitlist entries and
// communication logs. Sales are historical records and stay, keeping the
// buyer's name after losing the client pointer.
func (tx *transaction) cascadeDeleteClient(id string) {
	st := tx.state
	dropBy(tx, st.interests, domain.ByClient, id)
	dropBy(tx, st.communications, domain.ByClient, id)

	partitions := map[string]*string{}
	for _, entry := range st.waitlist.rowsBy(domain.ByClient, id) {
		partitions[optKey(entry.LitterID)] = clonePtr(entry.LitterID)
		st.waitlist.drop(tx, entry.ID)
	}
	for _, litterID := range partitions {
		tx.renumberWaitlist(tx.waitlistOrder(litterID, ""))
	}

	client, _ := st.clients.get(id)
	for _, saleID := range st.sales.ids(domain.ByClient, id) {
		touch(tx, st.sales, saleID, func(s *domain.Sale) {
			s.ClientID = nil
			if s.ClientName == "" {
				s.ClientName = client.Name
			}
		})
	}
}

func (tx *transaction) cascadeDeleteHeatCycle(id string) {
	dropBy(tx, tx.state.heatEvents, domain.ByCycle, id)
}

// cascadeDeleteExpense clears the owning transport's pointer and document links.
func (tx *transaction) cascadeDeleteExpense(id string) {
	st := tx.state
	for _, transportID := range st.transports.ids(domain.ByExpense, id) {
		touch(tx, st.transports, transportID, func(t *domain.Transport) { t.ExpenseID = nil })
	}
	dropBy(tx, st.expenseDocuments, domain.ByExpense, id)
}

func (tx *transaction) cascadeDeleteDocument(id string) {
	st := tx.state
	dropBy(tx, st.tagLinks, domain.ByDocument, id)
	dropBy(tx, st.dogDocuments, domain.ByDocument, id)
	dropBy(tx, st.litterDocuments, domain.ByDocument, id)
	dropBy(tx, st.expenseDocuments, domain.ByDocument, id)
}

func (tx *transaction) cascadeDeleteDocumentTag(id string) {
	dropBy(tx, tx.state.tagLinks, domain.ByTag, id)
}

// cascadeDeleteHealthTemplate refuses to delete the default template and
// detaches generated tasks from any other.
func (tx *transaction) cascadeDeleteHealthTemplate(id string) error {
	st := tx.state
	template, _ := st.healthTemplates.get(id)
	if template.IsDefault {
		return &domain.PolicyError{
			Entity:   domain.EntityHealthTemplate,
			EntityID: id,
			Reason:   "the default health schedule template cannot be deleted",
		}
	}
	for _, taskID := range st.healthTasks.sortedIDs() {
		task, _ := st.healthTasks.get(taskID)
		if task.TemplateID != nil && *task.TemplateID == id {
			touch(tx, st.healthTasks, taskID, func(t *domain.PuppyHealthTask) { t.TemplateID = nil })
		}
	}
	return nil
}
