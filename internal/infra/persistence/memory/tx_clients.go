package memory

import (
	"slices"

	"kennelcore/pkg/domain"
)

func (tx *transaction) CreateClient(c domain.Client) (domain.Client, error) {
	return createRow(tx, tx.state.clients, c, func(c *domain.Client) error { return c.Validate() })
}

// UpdateClient mutates a client. A name change is copied to the client's
// sales so their buyer snapshot stays current.
func (tx *transaction) UpdateClient(id string, mutator func(*domain.Client) error) (domain.Client, error) {
	updated, err := updateRow(tx, tx.state.clients, id, mutator, func(_ domain.Client, after *domain.Client) error {
		return after.Validate()
	})
	if err != nil {
		return updated, err
	}
	for _, sale := range tx.state.sales.rowsBy(domain.ByClient, id) {
		if sale.ClientName != updated.Name {
			touch(tx, tx.state.sales, sale.ID, func(s *domain.Sale) { s.ClientName = updated.Name })
		}
	}
	return updated, nil
}

// DeleteClient removes a client with its interests, waitlist entries and
// communication logs. Sales are kept and lose their client pointer.
func (tx *transaction) DeleteClient(id string) error {
	if !tx.state.clients.has(id) {
		return domain.NotFound(domain.EntityClient, id)
	}
	tx.cascadeDeleteClient(id)
	tx.state.clients.drop(tx, id)
	return nil
}

// dogHeldByActiveSale reports whether an active sale other than skip lists dogID.
func (tx *transaction) dogHeldByActiveSale(dogID, skip string) (string, bool) {
	for _, sp := range tx.state.salePuppies.rowsBy(domain.ByDog, dogID) {
		if sp.SaleID == skip {
			continue
		}
		if sale, ok := tx.state.sales.get(sp.SaleID); ok && sale.IsActive() {
			return sale.ID, true
		}
	}
	return "", false
}

// syncDogSaleStatus marks a dog sold while an active sale holds it and
// returns a sold dog to active once none does. Retired and deceased dogs are
// left alone.
func (tx *transaction) syncDogSaleStatus(dogID string) {
	dog, ok := tx.state.dogs.get(dogID)
	if !ok {
		return
	}
	_, held := tx.dogHeldByActiveSale(dogID, "")
	switch {
	case held && dog.Status == domain.DogStatusActive:
		touch(tx, tx.state.dogs, dogID, func(d *domain.Dog) { d.Status = domain.DogStatusSold })
	case !held && dog.Status == domain.DogStatusSold:
		touch(tx, tx.state.dogs, dogID, func(d *domain.Dog) { d.Status = domain.DogStatusActive })
	}
}

func (tx *transaction) syncSaleDogs(saleID string) {
	for _, sp := range tx.state.salePuppies.rowsBy(domain.BySale, saleID) {
		tx.syncDogSaleStatus(sp.DogID)
	}
}

func (tx *transaction) checkSale(before *domain.Sale, s *domain.Sale) error {
	if s.PaymentStatus == "" {
		s.PaymentStatus = domain.PaymentPending
	}
	if s.Status == "" {
		s.Status = domain.SaleStatusPending
	}
	s.LegacyDogID = nil
	if err := s.Validate(); err != nil {
		return err
	}
	switch {
	case s.ClientID != nil:
		client, err := requireRef(tx.state.clients, domain.EntitySale, "client_id", *s.ClientID)
		if err != nil {
			return err
		}
		s.ClientName = client.Name
	case before == nil || before.ClientID != nil:
		return domain.NewValidationError(domain.EntitySale, "client_id", "is required")
	}
	if before != nil && !before.IsActive() && s.IsActive() {
		for _, sp := range tx.state.salePuppies.rowsBy(domain.BySale, s.ID) {
			if other, held := tx.dogHeldByActiveSale(sp.DogID, s.ID); held {
				return domain.NewValidationError(domain.EntitySale, "status", "dog %q is already in active sale %q", sp.DogID, other)
			}
		}
	}
	return nil
}

// CreateSale inserts a sale for an existing client, snapshotting the client's
// name. Puppies are attached with AddSalePuppy.
func (tx *transaction) CreateSale(s domain.Sale) (domain.Sale, error) {
	return createRow(tx, tx.state.sales, s, func(s *domain.Sale) error { return tx.checkSale(nil, s) })
}

// UpdateSale mutates a sale. Status changes flip the sold/active status of its
// puppies.
func (tx *transaction) UpdateSale(id string, mutator func(*domain.Sale) error) (domain.Sale, error) {
	updated, err := updateRow(tx, tx.state.sales, id, mutator, func(before domain.Sale, after *domain.Sale) error {
		return tx.checkSale(&before, after)
	})
	if err != nil {
		return updated, err
	}
	tx.syncSaleDogs(id)
	return updated, nil
}

// DeleteSale removes a sale, releasing its puppies and resetting interests
// converted into it.
func (tx *transaction) DeleteSale(id string) error {
	if !tx.state.sales.has(id) {
		return domain.NotFound(domain.EntitySale, id)
	}
	tx.cascadeDeleteSale(id)
	tx.state.sales.drop(tx, id)
	return nil
}

// AddSalePuppy attaches a dog to a sale and marks it sold when the sale is
// active. A dog may be held by one active sale at a time.
func (tx *transaction) AddSalePuppy(p domain.SalePuppy) (domain.SalePuppy, error) {
	created, err := createRow(tx, tx.state.salePuppies, p, func(p *domain.SalePuppy) error {
		if err := p.Validate(); err != nil {
			return err
		}
		sale, err := requireRef(tx.state.sales, domain.EntitySalePuppy, "sale_id", p.SaleID)
		if err != nil {
			return err
		}
		if _, err := requireRef(tx.state.dogs, domain.EntitySalePuppy, "dog_id", p.DogID); err != nil {
			return err
		}
		for _, existing := range tx.state.salePuppies.rowsBy(domain.BySale, p.SaleID) {
			if existing.DogID == p.DogID {
				return domain.NewValidationError(domain.EntitySalePuppy, "dog_id", "dog %q is already in sale %q", p.DogID, p.SaleID)
			}
		}
		if sale.IsActive() {
			if other, held := tx.dogHeldByActiveSale(p.DogID, p.SaleID); held {
				return domain.NewValidationError(domain.EntitySalePuppy, "dog_id", "dog %q is already in active sale %q", p.DogID, other)
			}
		}
		return nil
	})
	if err != nil {
		return created, err
	}
	tx.syncDogSaleStatus(created.DogID)
	return created, nil
}

// UpdateSalePuppy changes the per-puppy price; sale and dog are fixed.
func (tx *transaction) UpdateSalePuppy(id string, mutator func(*domain.SalePuppy) error) (domain.SalePuppy, error) {
	return updateRow(tx, tx.state.salePuppies, id, mutator, func(before domain.SalePuppy, after *domain.SalePuppy) error {
		after.SaleID = before.SaleID
		after.DogID = before.DogID
		return after.Validate()
	})
}

// RemoveSalePuppy detaches a dog from a sale, returning it to active unless
// another active sale holds it.
func (tx *transaction) RemoveSalePuppy(id string) error {
	removed, ok := tx.state.salePuppies.drop(tx, id)
	if !ok {
		return domain.NotFound(domain.EntitySalePuppy, id)
	}
	tx.syncDogSaleStatus(removed.DogID)
	return nil
}

func (tx *transaction) checkInterestRefs(i *domain.ClientInterest) error {
	if err := i.Validate(); err != nil {
		return err
	}
	if _, err := requireRef(tx.state.clients, domain.EntityClientInterest, "client_id", i.ClientID); err != nil {
		return err
	}
	_, err := requireRef(tx.state.dogs, domain.EntityClientInterest, "dog_id", i.DogID)
	return err
}

// CreateClientInterest records a client's interest in a dog.
func (tx *transaction) CreateClientInterest(i domain.ClientInterest) (domain.ClientInterest, error) {
	return createRow(tx, tx.state.interests, i, func(i *domain.ClientInterest) error {
		if i.Status == "" {
			i.Status = domain.InterestInterested
		}
		if i.InterestDate.IsZero() {
			i.InterestDate = domain.Day(tx.now)
		}
		if i.Status == domain.InterestConverted {
			return domain.NewValidationError(domain.EntityClientInterest, "status", "interests are converted through a sale")
		}
		i.ConvertedToSaleID = nil
		return tx.checkInterestRefs(i)
	})
}

// UpdateClientInterest mutates an interest along the allowed status
// transitions. The converted sale pointer is managed by ConvertInterest and
// sale deletion only.
func (tx *transaction) UpdateClientInterest(id string, mutator func(*domain.ClientInterest) error) (domain.ClientInterest, error) {
	return updateRow(tx, tx.state.interests, id, mutator, func(before domain.ClientInterest, after *domain.ClientInterest) error {
		after.ConvertedToSaleID = clonePtr(before.ConvertedToSaleID)
		if !domain.CanTransitionInterest(before.Status, after.Status) {
			return domain.NewValidationError(domain.EntityClientInterest, "status", "cannot move from %s to %s", before.Status, after.Status)
		}
		return tx.checkInterestRefs(after)
	})
}

func (tx *transaction) DeleteClientInterest(id string) error {
	if _, ok := tx.state.interests.drop(tx, id); !ok {
		return domain.NotFound(domain.EntityClientInterest, id)
	}
	return nil
}

// ConvertInterest marks an open interest converted into saleID.
func (tx *transaction) ConvertInterest(interestID, saleID string) (domain.ClientInterest, error) {
	interest, ok := tx.state.interests.get(interestID)
	if !ok {
		return domain.ClientInterest{}, domain.NotFound(domain.EntityClientInterest, interestID)
	}
	if _, err := requireRef(tx.state.sales, domain.EntityClientInterest, "converted_to_sale_id", saleID); err != nil {
		return domain.ClientInterest{}, err
	}
	switch interest.Status {
	case domain.InterestConverted, domain.InterestLost:
		return domain.ClientInterest{}, domain.NewValidationError(domain.EntityClientInterest, "status", "cannot convert a %s interest", interest.Status)
	}
	touch(tx, tx.state.interests, interestID, func(i *domain.ClientInterest) {
		i.Status = domain.InterestConverted
		i.ConvertedToSaleID = strPtr(saleID)
	})
	out, _ := tx.state.interests.Find(interestID)
	return out, nil
}

// waitlistOrder returns a partition's entry ids by position, without skip.
func (tx *transaction) waitlistOrder(litterID *string, skip string) []string {
	entries := tx.state.waitlist.rowsBy(domain.ByLitter, optKey(litterID))
	sortWaitlist(entries)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.ID != skip {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// renumberWaitlist assigns positions 1..N in the given order.
func (tx *transaction) renumberWaitlist(ids []string) {
	for i, id := range ids {
		position := i + 1
		if e, ok := tx.state.waitlist.get(id); ok && e.Position != position {
			touch(tx, tx.state.waitlist, id, func(e *domain.WaitlistEntry) { e.Position = position })
		}
	}
}

// placeWaitlistEntry moves id to position within its partition (0 means the
// end) and renumbers the partition.
func (tx *transaction) placeWaitlistEntry(litterID *string, id string, position int) {
	ordered := tx.waitlistOrder(litterID, id)
	at := len(ordered)
	if position > 0 && position-1 < at {
		at = position - 1
	}
	tx.renumberWaitlist(slices.Insert(ordered, at, id))
}

func (tx *transaction) checkWaitlistEntry(w *domain.WaitlistEntry) error {
	if w.Status == "" {
		w.Status = domain.WaitlistWaiting
	}
	if w.Position < 0 {
		w.Position = 0
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if _, err := requireRef(tx.state.clients, domain.EntityWaitlistEntry, "client_id", w.ClientID); err != nil {
		return err
	}
	return requireOptRef(tx.state.litters, domain.EntityWaitlistEntry, "litter_id", w.LitterID)
}

// CreateWaitlistEntry adds an entry to its partition. A zero position appends
// it; a positive one inserts it there and shifts later entries down.
func (tx *transaction) CreateWaitlistEntry(w domain.WaitlistEntry) (domain.WaitlistEntry, error) {
	created, err := createRow(tx, tx.state.waitlist, w, tx.checkWaitlistEntry)
	if err != nil {
		return created, err
	}
	tx.placeWaitlistEntry(created.LitterID, created.ID, created.Position)
	out, _ := tx.state.waitlist.Find(created.ID)
	return out, nil
}

// UpdateWaitlistEntry mutates an entry. Changing the litter moves the entry to
// the end of the new partition; changing the position moves it within the
// partition.
func (tx *transaction) UpdateWaitlistEntry(id string, mutator func(*domain.WaitlistEntry) error) (domain.WaitlistEntry, error) {
	var before domain.WaitlistEntry
	updated, err := updateRow(tx, tx.state.waitlist, id, mutator, func(b domain.WaitlistEntry, after *domain.WaitlistEntry) error {
		before = b
		return tx.checkWaitlistEntry(after)
	})
	if err != nil {
		return updated, err
	}
	switch {
	case !sameOpt(before.LitterID, updated.LitterID):
		tx.renumberWaitlist(tx.waitlistOrder(before.LitterID, ""))
		tx.placeWaitlistEntry(updated.LitterID, id, 0)
	case before.Position != updated.Position:
		tx.placeWaitlistEntry(updated.LitterID, id, updated.Position)
	}
	out, _ := tx.state.waitlist.Find(id)
	return out, nil
}

// DeleteWaitlistEntry removes an entry and closes the gap.
func (tx *transaction) DeleteWaitlistEntry(id string) error {
	removed, ok := tx.state.waitlist.drop(tx, id)
	if !ok {
		return domain.NotFound(domain.EntityWaitlistEntry, id)
	}
	tx.renumberWaitlist(tx.waitlistOrder(removed.LitterID, ""))
	return nil
}

// ReorderWaitlist assigns positions 1..N within one partition following
// orderedIDs. Ids outside the partition are ignored.
func (tx *transaction) ReorderWaitlist(litterID *string, orderedIDs []string) ([]domain.WaitlistEntry, error) {
	if err := requireOptRef(tx.state.litters, domain.EntityWaitlistEntry, "litter_id", litterID); err != nil {
		return nil, err
	}
	ordered := domain.Reorder(tx.waitlistOrder(litterID, ""), orderedIDs)
	tx.renumberWaitlist(ordered)
	out := make([]domain.WaitlistEntry, 0, len(ordered))
	for _, id := range ordered {
		e, _ := tx.state.waitlist.Find(id)
		out = append(out, e)
	}
	return out, nil
}

func (tx *transaction) checkCommunicationLog(c *domain.CommunicationLog) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := requireRef(tx.state.clients, domain.EntityCommunicationLog, "client_id", c.ClientID)
	return err
}

func (tx *transaction) CreateCommunicationLog(c domain.CommunicationLog) (domain.CommunicationLog, error) {
	return createRow(tx, tx.state.communications, c, tx.checkCommunicationLog)
}

func (tx *transaction) UpdateCommunicationLog(id string, mutator func(*domain.CommunicationLog) error) (domain.CommunicationLog, error) {
	return updateRow(tx, tx.state.communications, id, mutator, func(_ domain.CommunicationLog, after *domain.CommunicationLog) error {
		return tx.checkCommunicationLog(after)
	})
}

func (tx *transaction) DeleteCommunicationLog(id string) error {
	if _, ok := tx.state.communications.drop(tx, id); !ok {
		return domain.NotFound(domain.EntityCommunicationLog, id)
	}
	return nil
}
