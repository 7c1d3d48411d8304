// Package memory is an in-process ledger.Store used by tests, the CLI demo
// mode and as the default backend when nothing else is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"chitieu/internal/core"
	"chitieu/internal/ledger"
	"chitieu/internal/recurrence"
)

type Store struct {
	mu        sync.Mutex
	now       func() time.Time
	expenses  []core.ExpenseRecord
	incomes   []core.IncomeRecord
	recurring []core.RecurringTransaction
}

type Option func(*Store)

// WithClock overrides the clock used for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) CreateExpense(_ context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	if err := e.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()
	if e.Source == "" {
		e.Source = core.SourceManual
	}
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) CreateIncome(_ context.Context, i core.IncomeRecord) (core.IncomeRecord, error) {
	if err := i.Validate(); err != nil {
		return core.IncomeRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i.ID = uuid.NewString()
	i.CreatedAt = s.now().UTC()
	if i.Source == "" {
		i.Source = core.SourceManual
	}
	s.incomes = append(s.incomes, i)
	return i, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.ExpenseRecord{}, fmt.Errorf("expense %s: %w", id, ledger.ErrNotFound)
}

func (s *Store) GetIncome(_ context.Context, id string) (core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.incomes {
		if i.ID == id {
			return i, nil
		}
	}
	return core.IncomeRecord{}, fmt.Errorf("income %s: %w", id, ledger.ErrNotFound)
}

// ListExpenses returns the expenses in p, newest date first and, within a
// day, newest insert first.
func (s *Store) ListExpenses(_ context.Context, p ledger.Period) ([]core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ExpenseRecord, 0)
	for i := len(s.expenses) - 1; i >= 0; i-- {
		if p.Contains(s.expenses[i].Date) {
			out = append(out, s.expenses[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Date.After(out[b].Date.Time) })
	return out, nil
}

func (s *Store) ListIncomes(_ context.Context, p ledger.Period) ([]core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.IncomeRecord, 0)
	for i := len(s.incomes) - 1; i >= 0; i-- {
		if p.Contains(s.incomes[i].Date) {
			out = append(out, s.incomes[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Date.After(out[b].Date.Time) })
	return out, nil
}

func (s *Store) CreateRecurring(_ context.Context, f core.RecurringFields) (core.RecurringTransaction, error) {
	if err := f.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	r := core.RecurringTransaction{
		ID:        uuid.NewString(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(&r, f)
	s.recurring = append(s.recurring, r)
	return r, nil
}

func (s *Store) UpdateRecurring(_ context.Context, id string, f core.RecurringFields) (core.RecurringTransaction, error) {
	if err := f.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexRecurring(id)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	apply(&s.recurring[i], f)
	s.recurring[i].UpdatedAt = s.now().UTC()
	return s.recurring[i], nil
}

func (s *Store) DeleteRecurring(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexRecurring(id)
	if err != nil {
		return err
	}
	s.recurring = append(s.recurring[:i], s.recurring[i+1:]...)
	return nil
}

func (s *Store) ToggleRecurring(_ context.Context, id string) (core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexRecurring(id)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	rt := s.recurring[i]
	now := s.now()
	if !rt.IsActive {
		next, err := recurrence.Resume(rt.NextDate, rt.Frequency, rt.AnchorDay, now)
		if err != nil {
			return core.RecurringTransaction{}, err
		}
		rt.NextDate = next
	}
	rt.IsActive = !rt.IsActive
	rt.UpdatedAt = now.UTC()
	s.recurring[i] = rt
	return rt, nil
}

func (s *Store) GetRecurring(_ context.Context, id string) (core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexRecurring(id)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	return s.recurring[i], nil
}

// ListRecurring returns every record, active or not, ordered by next date.
func (s *Store) ListRecurring(_ context.Context) ([]core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.RecurringTransaction{}, s.recurring...)
	sort.SliceStable(out, func(a, b int) bool { return out[a].NextDate.Before(out[b].NextDate.Time) })
	return out, nil
}

func (s *Store) AdvanceRecurring(_ context.Context, id string, next core.Date) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexRecurring(id)
	if err != nil {
		return err
	}
	s.recurring[i].NextDate = next
	s.recurring[i].UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) indexRecurring(id string) (int, error) {
	for i, r := range s.recurring {
		if r.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("recurring %s: %w", id, ledger.ErrNotFound)
}

// apply copies the editable fields; an edit re-anchors the schedule on the
// chosen date.
func apply(r *core.RecurringTransaction, f core.RecurringFields) {
	r.Type = f.Type
	r.Amount = f.Amount
	r.Category = f.Category
	r.Frequency = f.Frequency
	r.NextDate = f.NextDate
	r.AnchorDay = f.NextDate.Day()
	r.Description = f.Description
}

var _ ledger.Store = (*Store)(nil)
