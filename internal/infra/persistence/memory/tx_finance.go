package memory

import (
	"fmt"
	"strings"

	"kennelcore/pkg/domain"
)

func (tx *transaction) checkExpense(e *domain.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := requireOptRef(tx.state.dogs, domain.EntityExpense, "dog_id", e.DogID); err != nil {
		return err
	}
	return requireOptRef(tx.state.litters, domain.EntityExpense, "litter_id", e.LitterID)
}

func (tx *transaction) CreateExpense(e domain.Expense) (domain.Expense, error) {
	return createRow(tx, tx.state.expenses, e, tx.checkExpense)
}

func (tx *transaction) UpdateExpense(id string, mutator func(*domain.Expense) error) (domain.Expense, error) {
	return updateRow(tx, tx.state.expenses, id, mutator, func(_ domain.Expense, after *domain.Expense) error {
		return tx.checkExpense(after)
	})
}

// DeleteExpense removes an expense, clearing any transport that owned it.
func (tx *transaction) DeleteExpense(id string) error {
	if !tx.state.expenses.has(id) {
		return domain.NotFound(domain.EntityExpense, id)
	}
	tx.cascadeDeleteExpense(id)
	tx.state.expenses.drop(tx, id)
	return nil
}

func (tx *transaction) checkTransport(t *domain.Transport) error {
	return tx.checkDogOwned(domain.EntityTransport, t.Validate(), t.DogID)
}

func transportDescription(t domain.Transport) string {
	from, to := strings.TrimSpace(t.FromLocation), strings.TrimSpace(t.ToLocation)
	switch {
	case from != "" && to != "":
		return fmt.Sprintf("Transport from %s to %s", from, to)
	case to != "":
		return "Transport to " + to
	case from != "":
		return "Transport from " + from
	}
	return fmt.Sprintf("Transport (%s)", t.Mode)
}

// syncTransportExpense keeps exactly one expense per transport with a
// positive cost. Amount, date and dog follow the transport; a cost dropping
// to zero deletes the expense.
func (tx *transaction) syncTransportExpense(t domain.Transport) (domain.Transport, error) {
	var existing *domain.Expense
	if t.ExpenseID != nil {
		if e, ok := tx.state.expenses.get(*t.ExpenseID); ok {
			existing = &e
		}
	}

	switch {
	case t.Cost.IsPositive() && existing == nil:
		dogID := t.DogID
		expense, err := tx.CreateExpense(domain.Expense{
			Date:        t.Date,
			Amount:      t.Cost,
			Category:    domain.ExpenseTransport,
			Description: transportDescription(t),
			Vendor:      t.Carrier,
			DogID:       &dogID,
		})
		if err != nil {
			return t, fmt.Errorf("create transport expense: %w", err)
		}
		touch(tx, tx.state.transports, t.ID, func(row *domain.Transport) { row.ExpenseID = strPtr(expense.ID) })
	case t.Cost.IsPositive():
		if existing.Amount.Equal(t.Cost) && existing.Date.Equal(t.Date) && existing.DogID != nil && *existing.DogID == t.DogID {
			break
		}
		_, err := tx.UpdateExpense(existing.ID, func(e *domain.Expense) error {
			e.Amount = t.Cost
			e.Date = t.Date
			e.DogID = strPtr(t.DogID)
			return nil
		})
		if err != nil {
			return t, fmt.Errorf("update transport expense: %w", err)
		}
	case existing != nil:
		if err := tx.DeleteExpense(existing.ID); err != nil {
			return t, err
		}
	case t.ExpenseID != nil:
		// Pointer to an expense deleted elsewhere.
		touch(tx, tx.state.transports, t.ID, func(row *domain.Transport) { row.ExpenseID = nil })
	}
	out, _ := tx.state.transports.Find(t.ID)
	return out, nil
}

// CreateTransport inserts a transport and, for a positive cost, its expense.
// A caller-supplied ExpenseID is ignored.
func (tx *transaction) CreateTransport(t domain.Transport) (domain.Transport, error) {
	created, err := createRow(tx, tx.state.transports, t, func(t *domain.Transport) error {
		t.ExpenseID = nil
		return tx.checkTransport(t)
	})
	if err != nil {
		return created, err
	}
	return tx.syncTransportExpense(created)
}

// UpdateTransport mutates a transport and brings its expense in line.
// ExpenseID cannot be changed by callers.
func (tx *transaction) UpdateTransport(id string, mutator func(*domain.Transport) error) (domain.Transport, error) {
	updated, err := updateRow(tx, tx.state.transports, id, mutator, func(before domain.Transport, after *domain.Transport) error {
		after.ExpenseID = clonePtr(before.ExpenseID)
		return tx.checkTransport(after)
	})
	if err != nil {
		return updated, err
	}
	return tx.syncTransportExpense(updated)
}

// DeleteTransport removes a transport. Its expense stays as a financial record.
func (tx *transaction) DeleteTransport(id string) error {
	if _, ok := tx.state.transports.drop(tx, id); !ok {
		return domain.NotFound(domain.EntityTransport, id)
	}
	return nil
}
