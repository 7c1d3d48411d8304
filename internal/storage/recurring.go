package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"chitieu/internal/core"
	"chitieu/internal/ledger"
	"chitieu/internal/recurrence"
)

const recurringColumns = `id, type, amount, category, frequency, next_date, anchor_day, is_active, description, created_at, updated_at`

// CreateRecurring implements ledger.RecurringStore
func (r *SQLiteRepository) CreateRecurring(ctx context.Context, f core.RecurringFields) (core.RecurringTransaction, error) {
	if err := f.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	now := r.now().UTC()
	rt := core.RecurringTransaction{
		ID:          uuid.NewString(),
		Type:        f.Type,
		Amount:      f.Amount,
		Category:    f.Category,
		Frequency:   f.Frequency,
		NextDate:    f.NextDate,
		AnchorDay:   f.NextDate.Day(),
		IsActive:    true,
		Description: f.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions (`+recurringColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.ID, string(rt.Type), rt.Amount.String(), rt.Category, string(rt.Frequency),
		rt.NextDate.String(), rt.AnchorDay, rt.IsActive, rt.Description,
		rt.CreatedAt.Format(timeLayout), rt.UpdatedAt.Format(timeLayout))
	if err != nil {
		return core.RecurringTransaction{}, persistence("create recurring", err)
	}

	slog.InfoContext(ctx, "Recurring transaction created",
		"id", rt.ID,
		"type", rt.Type,
		"frequency", rt.Frequency,
		"next_date", rt.NextDate.String())

	return rt, nil
}

// UpdateRecurring replaces the editable fields; the schedule is re-anchored
// on the new next date.
func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, id string, f core.RecurringFields) (core.RecurringTransaction, error) {
	if err := f.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions
		 SET type = ?, amount = ?, category = ?, frequency = ?, next_date = ?, anchor_day = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		string(f.Type), f.Amount.String(), f.Category, string(f.Frequency), f.NextDate.String(),
		f.NextDate.Day(), f.Description, r.now().UTC().Format(timeLayout), id)
	if err != nil {
		return core.RecurringTransaction{}, persistence("update recurring", err)
	}
	if err := expectOneRow(res, "recurring", id); err != nil {
		return core.RecurringTransaction{}, err
	}
	return r.GetRecurring(ctx, id)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ?`, id)
	if err != nil {
		return persistence("delete recurring", err)
	}
	if err := expectOneRow(res, "recurring", id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Recurring transaction deleted", "id", id)
	return nil
}

// ToggleRecurring implements ledger.RecurringStore
func (r *SQLiteRepository) ToggleRecurring(ctx context.Context, id string) (core.RecurringTransaction, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET is_active = 1 - is_active, updated_at = ? WHERE id = ?`,
		r.now().UTC().Format(timeLayout), id)
	if err != nil {
		return core.RecurringTransaction{}, persistence("toggle recurring", err)
	}
	if err := expectOneRow(res, "recurring", id); err != nil {
		return core.RecurringTransaction{}, err
	}
	rt, err := r.GetRecurring(ctx, id)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	if rt.IsActive {
		next, err := recurrence.Resume(rt.NextDate, rt.Frequency, rt.AnchorDay, r.now())
		if err != nil {
			return core.RecurringTransaction{}, err
		}
		if !next.Equal(rt.NextDate.Time) {
			if err := r.AdvanceRecurring(ctx, id, next); err != nil {
				return core.RecurringTransaction{}, err
			}
			rt.NextDate = next
		}
	}
	slog.InfoContext(ctx, "Recurring transaction toggled", "id", id, "active", rt.IsActive)
	return rt, nil
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, id string) (core.RecurringTransaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = ?`, id)
	rt, err := scanRecurring(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringTransaction{}, fmt.Errorf("recurring %s: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return core.RecurringTransaction{}, persistence("get recurring", err)
	}
	return rt, nil
}

// ListRecurring returns every record ordered by next date.
func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions ORDER BY next_date, created_at`)
	if err != nil {
		return nil, persistence("list recurring", err)
	}
	defer rows.Close()

	out := make([]core.RecurringTransaction, 0)
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, persistence("scan recurring", err)
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list recurring", err)
	}
	return out, nil
}

// AdvanceRecurring implements ledger.RecurringStore
func (r *SQLiteRepository) AdvanceRecurring(ctx context.Context, id string, next core.Date) error {
	if err := next.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET next_date = ?, updated_at = ? WHERE id = ?`,
		next.String(), r.now().UTC().Format(timeLayout), id)
	if err != nil {
		return persistence("advance recurring", err)
	}
	return expectOneRow(res, "recurring", id)
}

func scanRecurring(s scanner) (core.RecurringTransaction, error) {
	var (
		rt                                        core.RecurringTransaction
		typ, amount, freq, next, created, updated string
	)
	if err := s.Scan(&rt.ID, &typ, &amount, &rt.Category, &freq, &next, &rt.AnchorDay,
		&rt.IsActive, &rt.Description, &created, &updated); err != nil {
		return core.RecurringTransaction{}, err
	}
	rt.Type = core.TransactionType(typ)
	rt.Frequency = core.Frequency(freq)

	var err error
	if rt.Amount, err = parseMoney(amount); err != nil {
		return core.RecurringTransaction{}, err
	}
	if rt.NextDate, err = core.ParseDate(next); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("next_date %q: %w", next, err)
	}
	if rt.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("created_at %q: %w", created, err)
	}
	if rt.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("updated_at %q: %w", updated, err)
	}
	return rt, nil
}

var _ ledger.Store = (*SQLiteRepository)(nil)
