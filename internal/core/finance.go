package core

import (
	"context"

	"kennelcore/pkg/domain"
)

// ListExpenses returns hydrated expenses, most recent first.
func (s *Service) ListExpenses(ctx context.Context, filter ExpenseFilter) []domain.ExpenseDetail {
	rows := all(domain.TransactionView.Expenses)
	switch {
	case filter.DogID != "":
		rows = scoped(domain.TransactionView.Expenses, domain.ByDog, filter.DogID)
	case filter.LitterID != "":
		rows = scoped(domain.TransactionView.Expenses, domain.ByLitter, filter.LitterID)
	}
	return listAll(ctx, s, rows, filter.match, func(a, b domain.Expense) bool {
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID < b.ID
	}, hydrateExpense)
}

// GetExpense returns an expense with its dog, litter and documents.
func (s *Service) GetExpense(ctx context.Context, id string) (domain.ExpenseDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.Expenses, id, hydrateExpense)
}

// CreateExpense stores an expense. Categories outside the known set must use
// the custom category with a label.
func (s *Service) CreateExpense(ctx context.Context, e domain.Expense) (domain.Expense, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityExpense), func(tx Transaction) (domain.Expense, error) {
		return tx.CreateExpense(e)
	})
}

func (s *Service) UpdateExpense(ctx context.Context, id string, mutator func(*domain.Expense) error) (domain.Expense, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityExpense), func(tx Transaction) (domain.Expense, error) {
		return tx.UpdateExpense(id, mutator)
	})
}

// DeleteExpense removes an expense and clears the transport that booked it.
func (s *Service) DeleteExpense(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityExpense), id, func(tx Transaction) error {
		return tx.DeleteExpense(id)
	})
}
