package core

import (
	"context"

	"kennelcore/pkg/domain"
)

// ListClients returns hydrated clients ordered by name.
func (s *Service) ListClients(ctx context.Context, filter ClientFilter) []domain.ClientDetail {
	return listAll(ctx, s, all(domain.TransactionView.Clients), filter.match,
		func(a, b domain.Client) bool { return foldLess(a.Name, b.Name) }, hydrateClient)
}

// GetClient returns a client with sales, interests, waitlist entries and
// communications.
func (s *Service) GetClient(ctx context.Context, id string) (domain.ClientDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.Clients, id, hydrateClient)
}

func (s *Service) CreateClient(ctx context.Context, c domain.Client) (domain.Client, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityClient), func(tx Transaction) (domain.Client, error) {
		return tx.CreateClient(c)
	})
}

// UpdateClient applies mutator; a rename is copied to the client's sales.
func (s *Service) UpdateClient(ctx context.Context, id string, mutator func(*domain.Client) error) (domain.Client, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityClient), func(tx Transaction) (domain.Client, error) {
		return tx.UpdateClient(id, mutator)
	})
}

// DeleteClient removes a client with its interests, waitlist entries and
// communications. Sales are kept with the client pointer cleared.
func (s *Service) DeleteClient(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityClient), id, func(tx Transaction) error {
		return tx.DeleteClient(id)
	})
}

// ListSales returns hydrated sales, most recent first.
func (s *Service) ListSales(ctx context.Context, filter SaleFilter) []domain.SaleDetail {
	return listAll(ctx, s, scoped(domain.TransactionView.Sales, domain.ByClient, filter.ClientID), filter.match,
		func(a, b domain.Sale) bool { return newestFirst(a.SaleDate, b.SaleDate) }, hydrateSale)
}

// GetSale returns a sale with its client and puppies.
func (s *Service) GetSale(ctx context.Context, id string) (domain.SaleDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.Sales, id, hydrateSale)
}

// CreateSale stores a sale without puppies; puppies are added with
// AddPuppyToSale or supplied to ConvertInterestToSale.
func (s *Service) CreateSale(ctx context.Context, sale domain.Sale) (domain.Sale, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntitySale), func(tx Transaction) (domain.Sale, error) {
		return tx.CreateSale(sale)
	})
}

// UpdateSale applies mutator. Cancelling a sale releases its dogs.
func (s *Service) UpdateSale(ctx context.Context, id string, mutator func(*domain.Sale) error) (domain.Sale, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntitySale), func(tx Transaction) (domain.Sale, error) {
		return tx.UpdateSale(id, mutator)
	})
}

// DeleteSale removes a sale, returns its dogs to active and reopens any
// interest converted into it.
func (s *Service) DeleteSale(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntitySale), id, func(tx Transaction) error {
		return tx.DeleteSale(id)
	})
}

// UpdateSalePuppy changes the price of a sale line.
func (s *Service) UpdateSalePuppy(ctx context.Context, id string, mutator func(*domain.SalePuppy) error) (domain.SalePuppy, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntitySalePuppy), func(tx Transaction) (domain.SalePuppy, error) {
		return tx.UpdateSalePuppy(id, mutator)
	})
}

// ListClientInterests returns interests, most recent first.
func (s *Service) ListClientInterests(ctx context.Context, filter InterestFilter) []domain.ClientInterestDetail {
	return listAll(ctx, s, scoped(domain.TransactionView.ClientInterests, domain.ByClient, filter.ClientID), filter.match,
		func(a, b domain.ClientInterest) bool { return newestFirst(a.InterestDate, b.InterestDate) }, hydrateInterest)
}

func (s *Service) GetClientInterest(ctx context.Context, id string) (domain.ClientInterestDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.ClientInterests, id, hydrateInterest)
}

// CreateClientInterest records a client's interest in a dog. New interests
// cannot start converted.
func (s *Service) CreateClientInterest(ctx context.Context, i domain.ClientInterest) (domain.ClientInterest, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityClientInterest), func(tx Transaction) (domain.ClientInterest, error) {
		return tx.CreateClientInterest(i)
	})
}

// UpdateClientInterest applies mutator. Status may only move forward through
// the pipeline or to lost; conversion goes through ConvertInterestToSale.
func (s *Service) UpdateClientInterest(ctx context.Context, id string, mutator func(*domain.ClientInterest) error) (domain.ClientInterest, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityClientInterest), func(tx Transaction) (domain.ClientInterest, error) {
		return tx.UpdateClientInterest(id, mutator)
	})
}

func (s *Service) DeleteClientInterest(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityClientInterest), id, func(tx Transaction) error {
		return tx.DeleteClientInterest(id)
	})
}

func hydrateWaitlistEntry(v domain.TransactionView, w domain.WaitlistEntry) domain.WaitlistEntryDetail {
	return domain.WaitlistEntryDetail{
		WaitlistEntry: w,
		Client:        refID(v.Clients(), w.ClientID),
		Litter:        ref(v.Litters(), w.LitterID),
	}
}

// ListWaitlistEntries returns entries grouped by partition, general list
// first, each in position order.
func (s *Service) ListWaitlistEntries(ctx context.Context, filter WaitlistFilter) []domain.WaitlistEntryDetail {
	rows := all(domain.TransactionView.WaitlistEntries)
	switch {
	case filter.GeneralOnly:
		rows = func(v domain.TransactionView) []domain.WaitlistEntry { return v.WaitlistEntries().ListBy(domain.ByLitter, "") }
	case filter.LitterID != "":
		rows = scoped(domain.TransactionView.WaitlistEntries, domain.ByLitter, filter.LitterID)
	case filter.ClientID != "":
		rows = scoped(domain.TransactionView.WaitlistEntries, domain.ByClient, filter.ClientID)
	}
	return listAll(ctx, s, rows, filter.match, func(a, b domain.WaitlistEntry) bool {
		ak, bk := partitionKey(a.LitterID), partitionKey(b.LitterID)
		if ak != bk {
			return ak < bk
		}
		return a.Position < b.Position
	}, hydrateWaitlistEntry)
}

func (s *Service) GetWaitlistEntry(ctx context.Context, id string) (domain.WaitlistEntryDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.WaitlistEntries, id, hydrateWaitlistEntry)
}

// CreateWaitlistEntry places an entry in its partition. A position of zero or
// less appends it; otherwise it is inserted there and later entries shift.
func (s *Service) CreateWaitlistEntry(ctx context.Context, w domain.WaitlistEntry) (domain.WaitlistEntry, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityWaitlistEntry), func(tx Transaction) (domain.WaitlistEntry, error) {
		return tx.CreateWaitlistEntry(w)
	})
}

func (s *Service) UpdateWaitlistEntry(ctx context.Context, id string, mutator func(*domain.WaitlistEntry) error) (domain.WaitlistEntry, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityWaitlistEntry), func(tx Transaction) (domain.WaitlistEntry, error) {
		return tx.UpdateWaitlistEntry(id, mutator)
	})
}

// DeleteWaitlistEntry removes an entry and closes the gap in its partition.
func (s *Service) DeleteWaitlistEntry(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityWaitlistEntry), id, func(tx Transaction) error {
		return tx.DeleteWaitlistEntry(id)
	})
}

func hydrateCommunication(v domain.TransactionView, c domain.CommunicationLog) domain.CommunicationLogDetail {
	return domain.CommunicationLogDetail{CommunicationLog: c, Client: refID(v.Clients(), c.ClientID)}
}

// ListCommunicationLogs returns communications, most recent first.
func (s *Service) ListCommunicationLogs(ctx context.Context, filter CommunicationFilter) []domain.CommunicationLogDetail {
	return listAll(ctx, s, scoped(domain.TransactionView.CommunicationLogs, domain.ByClient, filter.ClientID), filter.match,
		func(a, b domain.CommunicationLog) bool { return newestFirst(a.Date, b.Date) }, hydrateCommunication)
}

func (s *Service) GetCommunicationLog(ctx context.Context, id string) (domain.CommunicationLogDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.CommunicationLogs, id, hydrateCommunication)
}

func (s *Service) CreateCommunicationLog(ctx context.Context, c domain.CommunicationLog) (domain.CommunicationLog, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityCommunicationLog), func(tx Transaction) (domain.CommunicationLog, error) {
		return tx.CreateCommunicationLog(c)
	})
}

func (s *Service) UpdateCommunicationLog(ctx context.Context, id string, mutator func(*domain.CommunicationLog) error) (domain.CommunicationLog, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityCommunicationLog), func(tx Transaction) (domain.CommunicationLog, error) {
		return tx.UpdateCommunicationLog(id, mutator)
	})
}

// CompleteFollowUp closes the follow-up on a communication.
func (s *Service) CompleteFollowUp(ctx context.Context, id string) (domain.CommunicationLog, Result, error) {
	return s.UpdateCommunicationLog(ctx, id, func(c *domain.CommunicationLog) error {
		c.FollowUpCompleted = true
		return nil
	})
}

func (s *Service) DeleteCommunicationLog(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityCommunicationLog), id, func(tx Transaction) error {
		return tx.DeleteCommunicationLog(id)
	})
}
