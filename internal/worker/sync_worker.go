// Package worker exports stored transactions to Google Sheets, driven by
// transaction-created messages with a periodic scan as backstop.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chitieu/internal/amqp"
	"chitieu/internal/core"
	"chitieu/internal/ledger"
	"chitieu/internal/sheets"
	"chitieu/internal/storage"
)

// Store is the part of the SQLite repository the worker needs.
type Store interface {
	GetExpense(ctx context.Context, id string) (core.ExpenseRecord, error)
	GetIncome(ctx context.Context, id string) (core.IncomeRecord, error)
	SetSyncStatus(ctx context.Context, t core.TransactionType, id, status string) error
	PendingSync(ctx context.Context, limit int) ([]storage.SyncRef, error)
}

// SyncWorker handles synchronization of transactions from SQLite to a sheet.
type SyncWorker struct {
	store     Store
	exporter  sheets.Exporter
	batchSize int
}

func NewSyncWorker(store Store, exporter sheets.Exporter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{store: store, exporter: exporter, batchSize: batchSize}
}

// HandleMessage processes one transaction-created message. A returned error
// requeues the message.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	slog.InfoContext(ctx, "Processing transaction-created message",
		"id", msg.TransactionID,
		"type", msg.Type)

	err := w.sync(ctx, storage.SyncRef{Type: msg.Type, ID: msg.TransactionID})
	if errors.Is(err, ledger.ErrNotFound) {
		// Published by another backend, or deleted since; nothing to export.
		slog.WarnContext(ctx, "Transaction not found, dropping message", "id", msg.TransactionID)
		return nil
	}
	return err
}

// ProcessPending exports up to one batch of transactions still pending.
// It is the backup path for lost messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) (synced int, err error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck exports transactions left pending while the worker was
// down, with a larger batch than the periodic scan.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced)
	return nil
}

// Run scans for pending transactions every interval until ctx is done.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (int, error) {
	pending, err := w.store.PendingSync(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	synced := 0
	for _, ref := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.sync(ctx, ref); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "type", ref.Type, "id", ref.ID, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

func (w *SyncWorker) sync(ctx context.Context, ref storage.SyncRef) error {
	row, err := w.load(ctx, ref)
	if err != nil {
		return err
	}

	sheetRef, err := w.exporter.Export(ctx, row)
	if err != nil {
		if markErr := w.store.SetSyncStatus(ctx, ref.Type, ref.ID, storage.SyncError); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", ref.ID, "error", markErr)
		}
		return fmt.Errorf("export to sheet: %w", err)
	}

	if err := w.store.SetSyncStatus(ctx, ref.Type, ref.ID, storage.SyncDone); err != nil {
		// The row is in the sheet; a re-export is deduplicated by ID.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", ref.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced transaction",
		"type", ref.Type,
		"id", ref.ID,
		"sheets_ref", sheetRef,
		"amount", row.Amount.String())
	return nil
}

func (w *SyncWorker) load(ctx context.Context, ref storage.SyncRef) (sheets.Row, error) {
	switch ref.Type {
	case core.Expense:
		e, err := w.store.GetExpense(ctx, ref.ID)
		if err != nil {
			return sheets.Row{}, fmt.Errorf("get expense: %w", err)
		}
		return sheets.ExpenseRow(e), nil
	case core.Income:
		i, err := w.store.GetIncome(ctx, ref.ID)
		if err != nil {
			return sheets.Row{}, fmt.Errorf("get income: %w", err)
		}
		return sheets.IncomeRow(i), nil
	default:
		return sheets.Row{}, fmt.Errorf("%w: %q", core.ErrInvalidType, ref.Type)
	}
}
