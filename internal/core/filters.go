package core

import (
	"time"

	"kennelcore/pkg/domain"
)

// Zero-valued filter fields match everything.

// DogFilter narrows ListDogs.
type DogFilter struct {
	Status       domain.DogStatus
	Sex          domain.Sex
	Breed        string
	LitterID     string
	BreedingOnly bool
	// Search matches name, registered name, call name or microchip.
	Search string
}

func (f DogFilter) match(d domain.Dog) bool {
	switch {
	case f.Status != "" && d.Status != f.Status:
		return false
	case f.Sex != "" && d.Sex != f.Sex:
		return false
	case f.Breed != "" && !containsFold(d.Breed, f.Breed):
		return false
	case f.LitterID != "" && (d.LitterID == nil || *d.LitterID != f.LitterID):
		return false
	case f.BreedingOnly && !d.IsBreeding:
		return false
	}
	if f.Search == "" {
		return true
	}
	for _, field := range []string{d.Name, d.RegisteredName, d.CallName, d.Microchip} {
		if field != "" && containsFold(field, f.Search) {
			return true
		}
	}
	return false
}

// LitterFilter narrows ListLitters.
type LitterFilter struct {
	Status domain.LitterStatus
	// ParentID matches litters sired or whelped by the dog.
	ParentID string
}

func (f LitterFilter) match(l domain.Litter) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.ParentID != "" && !isID(l.SireID, f.ParentID) && !isID(l.DamID, f.ParentID) {
		return false
	}
	return true
}

// DogRecordFilter narrows listings of records owned by a dog.
type DogRecordFilter struct {
	DogID string
}

// LitterRecordFilter narrows listings of records owned by a litter.
type LitterRecordFilter struct {
	LitterID string
}

// HeatCycleFilter narrows ListHeatCycles.
type HeatCycleFilter struct {
	DogID      string
	ActiveOnly bool
}

func (f HeatCycleFilter) match(c domain.HeatCycle) bool {
	return !f.ActiveOnly || c.EndDate == nil
}

// HeatEventFilter narrows ListHeatEvents.
type HeatEventFilter struct {
	CycleID string
	Type    domain.HeatEventType
}

// ExpenseFilter narrows ListExpenses. From and To bound the date inclusively.
type ExpenseFilter struct {
	From          *time.Time
	To            *time.Time
	Category      domain.ExpenseCategory
	DogID         string
	LitterID      string
	TaxDeductible *bool
}

func (f ExpenseFilter) match(e domain.Expense) bool {
	switch {
	case !inRange(e.Date, f.From, f.To):
		return false
	case f.Category != "" && e.Category != f.Category:
		return false
	case f.DogID != "" && !isID(e.DogID, f.DogID):
		return false
	case f.LitterID != "" && !isID(e.LitterID, f.LitterID):
		return false
	case f.TaxDeductible != nil && e.TaxDeductible != *f.TaxDeductible:
		return false
	}
	return true
}

// ClientFilter narrows ListClients.
type ClientFilter struct {
	// Search matches name, email, phone or city.
	Search string
}

func (f ClientFilter) match(c domain.Client) bool {
	if f.Search == "" {
		return true
	}
	for _, field := range []string{c.Name, c.Email, c.Phone, c.City} {
		if field != "" && containsFold(field, f.Search) {
			return true
		}
	}
	return false
}

// SaleFilter narrows ListSales.
type SaleFilter struct {
	ClientID      string
	Status        domain.SaleStatus
	PaymentStatus domain.PaymentStatus
	From          *time.Time
	To            *time.Time
}

func (f SaleFilter) match(s domain.Sale) bool {
	switch {
	case f.ClientID != "" && !isID(s.ClientID, f.ClientID):
		return false
	case f.Status != "" && s.Status != f.Status:
		return false
	case f.PaymentStatus != "" && s.PaymentStatus != f.PaymentStatus:
		return false
	}
	return inRange(s.SaleDate, f.From, f.To)
}

// InterestFilter narrows ListClientInterests.
type InterestFilter struct {
	ClientID string
	DogID    string
	Status   domain.InterestStatus
}

func (f InterestFilter) match(i domain.ClientInterest) bool {
	switch {
	case f.ClientID != "" && i.ClientID != f.ClientID:
		return false
	case f.DogID != "" && i.DogID != f.DogID:
		return false
	case f.Status != "" && i.Status != f.Status:
		return false
	}
	return true
}

// WaitlistFilter narrows ListWaitlistEntries. Entries come back in position
// order within each partition.
type WaitlistFilter struct {
	LitterID string
	// GeneralOnly selects entries not tied to a litter.
	GeneralOnly bool
	ClientID    string
	Status      domain.WaitlistStatus
}

func (f WaitlistFilter) match(w domain.WaitlistEntry) bool {
	switch {
	case f.GeneralOnly && w.LitterID != nil:
		return false
	case f.LitterID != "" && !isID(w.LitterID, f.LitterID):
		return false
	case f.ClientID != "" && w.ClientID != f.ClientID:
		return false
	case f.Status != "" && w.Status != f.Status:
		return false
	}
	return true
}

// CommunicationFilter narrows ListCommunicationLogs.
type CommunicationFilter struct {
	ClientID string
	// PendingFollowUp selects logs with an open follow-up.
	PendingFollowUp bool
}

func (f CommunicationFilter) match(c domain.CommunicationLog) bool {
	if f.ClientID != "" && c.ClientID != f.ClientID {
		return false
	}
	return !f.PendingFollowUp || openFollowUp(c)
}

// HealthTaskFilter narrows ListPuppyHealthTasks.
type HealthTaskFilter struct {
	LitterID    string
	PuppyID     string
	PendingOnly bool
}

func (f HealthTaskFilter) match(t domain.PuppyHealthTask) bool {
	switch {
	case f.LitterID != "" && t.LitterID != f.LitterID:
		return false
	case f.PuppyID != "" && !isID(t.PuppyID, f.PuppyID):
		return false
	}
	return !f.PendingOnly || !t.IsCompleted
}

// DocumentFilter narrows ListDocuments.
type DocumentFilter struct {
	Type      domain.DocumentType
	TagID     string
	DogID     string
	LitterID  string
	ExpenseID string
	// Search matches title, file name or notes.
	Search string
}

func isID(ptr *string, id string) bool {
	return ptr != nil && *ptr == id
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && domain.Day(t).Before(domain.Day(*from)) {
		return false
	}
	if to != nil && domain.Day(t).After(domain.Day(*to)) {
		return false
	}
	return true
}

func openFollowUp(c domain.CommunicationLog) bool {
	return c.FollowUpRequired && !c.FollowUpCompleted && c.FollowUpDate != nil
}
