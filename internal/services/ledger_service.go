package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"chitieu/internal/core"
	"chitieu/internal/ledger"
	"chitieu/internal/notify"
	"chitieu/internal/recurrence"
)

// Publisher receives an event for every stored transaction. *notify.Hub
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, e notify.Event)
}

// LedgerService stores transactions and announces them. It is the writer
// used by manual entry and the recurring processor; the candidate workflow
// publishes its own event after a confirm.
type LedgerService struct {
	store  ledger.Store
	events Publisher
	closer io.Closer
	now    func() time.Time
}

// NewLedgerService wraps store. events may be nil.
func NewLedgerService(store ledger.Store, events Publisher) *LedgerService {
	s := &LedgerService{store: store, events: events, now: time.Now}
	if c, ok := store.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Store exposes the underlying store for read paths.
func (s *LedgerService) Store() ledger.Store {
	return s.store
}

func (s *LedgerService) CreateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	if err := e.Validate(); err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("validate expense: %w", err)
	}
	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("save expense: %w", err)
	}
	s.announce(ctx, saved.ID, core.Expense)
	return saved, nil
}

func (s *LedgerService) CreateIncome(ctx context.Context, i core.IncomeRecord) (core.IncomeRecord, error) {
	if err := i.Validate(); err != nil {
		return core.IncomeRecord{}, fmt.Errorf("validate income: %w", err)
	}
	saved, err := s.store.CreateIncome(ctx, i)
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("save income: %w", err)
	}
	s.announce(ctx, saved.ID, core.Income)
	return saved, nil
}

func (s *LedgerService) announce(ctx context.Context, id string, t core.TransactionType) {
	if s.events == nil {
		slog.DebugContext(ctx, "No event publisher, skipping transaction-created", "id", id)
		return
	}
	s.events.Publish(ctx, notify.TransactionCreated(id, t, s.now()))
}

// MonthReport is what the dashboard cards and the budget command show.
type MonthReport struct {
	Period     ledger.Period
	Summary    core.MonthlySummary
	ByCategory []core.CategoryAmount // expenses, first-seen order
	Recurring  core.MonthlySummary   // monthly equivalent of active recurring records
}

// Month loads the month's transactions and recurring records concurrently
// and folds them into totals.
func (s *LedgerService) Month(ctx context.Context, year, month int) (MonthReport, error) {
	if month < 1 || month > 12 {
		return MonthReport{}, fmt.Errorf("invalid month: %d", month)
	}
	period := ledger.MonthPeriod(year, month)

	var (
		expenses  []core.ExpenseRecord
		incomes   []core.IncomeRecord
		recurring []core.RecurringTransaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		expenses, err = s.store.ListExpenses(gctx, period)
		return err
	})
	g.Go(func() (err error) {
		incomes, err = s.store.ListIncomes(gctx, period)
		return err
	})
	g.Go(func() (err error) {
		recurring, err = s.store.ListRecurring(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return MonthReport{}, fmt.Errorf("load month %04d-%02d: %w", year, month, err)
	}

	var expense, income core.Money
	index := map[string]int{}
	var byCat []core.CategoryAmount
	for _, e := range expenses {
		expense = expense.Add(e.Amount)
		i, ok := index[e.Category]
		if !ok {
			i = len(byCat)
			index[e.Category] = i
			byCat = append(byCat, core.CategoryAmount{Category: e.Category})
		}
		byCat[i].Amount = byCat[i].Amount.Add(e.Amount)
	}
	for _, in := range incomes {
		income = income.Add(in.Amount)
	}

	return MonthReport{
		Period:     period,
		Summary:    core.NewMonthlySummary(expense, income),
		ByCategory: byCat,
		Recurring:  recurrence.Totals(recurring),
	}, nil
}

// Close releases the store when it holds resources.
func (s *LedgerService) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
