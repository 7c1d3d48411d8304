// Package ledger declares the persistence ports the rest of the module talks
// to. Adapters live in ledger/memory, storage (SQLite) and apiclient (remote).
package ledger

import (
	"context"
	"errors"

	"chitieu/internal/core"
)

var (
	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrPersistence wraps every failure of the underlying store.
	ErrPersistence = errors.New("persistence failure")
)

// Period is an inclusive range of calendar dates. Zero bounds are open.
type Period struct {
	From core.Date
	To   core.Date
}

// Contains reports whether d falls inside p.
func (p Period) Contains(d core.Date) bool {
	if !p.From.IsZero() && d.Before(p.From.Time) {
		return false
	}
	if !p.To.IsZero() && d.After(p.To.Time) {
		return false
	}
	return true
}

// MonthPeriod returns the period covering the given calendar month.
func MonthPeriod(year, month int) Period {
	first := core.NewDate(year, month, 1)
	return Period{From: first, To: core.Date{Time: first.AddDate(0, 1, -1)}}
}

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		CreateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error)
		CreateIncome(ctx context.Context, i core.IncomeRecord) (core.IncomeRecord, error)
	}

	// TransactionReader lists stored transactions, newest date first.
	TransactionReader interface {
		GetExpense(ctx context.Context, id string) (core.ExpenseRecord, error)
		GetIncome(ctx context.Context, id string) (core.IncomeRecord, error)
		ListExpenses(ctx context.Context, p Period) ([]core.ExpenseRecord, error)
		ListIncomes(ctx context.Context, p Period) ([]core.IncomeRecord, error)
	}

	RecurringStore interface {
		CreateRecurring(ctx context.Context, f core.RecurringFields) (core.RecurringTransaction, error)
		UpdateRecurring(ctx context.Context, id string, f core.RecurringFields) (core.RecurringTransaction, error)
		DeleteRecurring(ctx context.Context, id string) error
		// ToggleRecurring flips the active flag and returns the updated record.
		ToggleRecurring(ctx context.Context, id string) (core.RecurringTransaction, error)
		GetRecurring(ctx context.Context, id string) (core.RecurringTransaction, error)
		ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error)
		// AdvanceRecurring moves the next date of a record after an occurrence
		// has been materialized.
		AdvanceRecurring(ctx context.Context, id string, next core.Date) error
	}

	// Store is everything a backend provides.
	Store interface {
		TransactionWriter
		TransactionReader
		RecurringStore
	}
)
