package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"chitieu/internal/core"
	"chitieu/internal/ledger"
	"chitieu/internal/recurrence"
)

// maxCatchUp bounds how many missed occurrences of one record are
// materialized in a single run.
const maxCatchUp = 400

// RecurringProcessor materializes due recurring records into expenses and
// incomes and moves their next date forward.
type RecurringProcessor struct {
	store       ledger.RecurringStore
	writer      ledger.TransactionWriter
	concurrency int
}

// NewRecurringProcessor creates a processor. writer is usually a
// *LedgerService so created transactions are announced.
func NewRecurringProcessor(store ledger.RecurringStore, writer ledger.TransactionWriter) *RecurringProcessor {
	return &RecurringProcessor{store: store, writer: writer, concurrency: 4}
}

// ProcessDue creates every occurrence due at now and returns how many
// transactions were created. A failing record is logged and skipped; the
// next run retries it from its stored next date.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.writer == nil {
		return 0, errors.New("processor not properly initialized")
	}

	records, err := p.store.ListRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"total", len(records),
		"processing_date", core.DateOf(now).String())

	var created atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, r := range records {
		if !r.IsActive || !recurrence.IsDue(r.NextDate, now) {
			continue
		}
		g.Go(func() error {
			n, err := p.processRecord(gctx, r, now)
			created.Add(int64(n))
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.ErrorContext(gctx, "Failed to process recurring transaction",
					"recurring_id", r.ID,
					"created", n,
					"error", err)
			}
			return nil
		})
	}
	err = g.Wait()

	slog.InfoContext(ctx, "Recurring processing complete", "created", created.Load())
	return int(created.Load()), err
}

func (p *RecurringProcessor) processRecord(ctx context.Context, r core.RecurringTransaction, now time.Time) (int, error) {
	created := 0
	next := r.NextDate
	for created < maxCatchUp && recurrence.IsDue(next, now) {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if err := p.materialize(ctx, r, next); err != nil {
			return created, err
		}
		created++

		following, err := recurrence.Advance(next, r.Frequency, r.AnchorDay)
		if err != nil {
			return created, err
		}
		// Advance after each occurrence so a crash never creates it twice.
		if err := p.store.AdvanceRecurring(ctx, r.ID, following); err != nil {
			return created, fmt.Errorf("advance %s to %s: %w", r.ID, following, err)
		}
		next = following

		slog.InfoContext(ctx, "Created transaction from recurring template",
			"recurring_id", r.ID,
			"type", r.Type,
			"amount", r.Amount.String(),
			"frequency", r.Frequency,
			"next_date", next.String())
	}
	return created, nil
}

func (p *RecurringProcessor) materialize(ctx context.Context, r core.RecurringTransaction, on core.Date) error {
	switch r.Type {
	case core.Expense:
		_, err := p.writer.CreateExpense(ctx, core.ExpenseRecord{
			Amount:      r.Amount,
			Category:    r.Category,
			Description: r.Description,
			Date:        on,
			Source:      core.SourceRecurring,
		})
		return err
	case core.Income:
		_, err := p.writer.CreateIncome(ctx, core.IncomeRecord{
			Amount:      r.Amount,
			Category:    r.Category,
			Description: r.Description,
			Date:        on,
			Source:      core.SourceRecurring,
		})
		return err
	default:
		return fmt.Errorf("%w: %q", core.ErrInvalidType, r.Type)
	}
}
