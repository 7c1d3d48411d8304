package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chitieu/internal/amqp"
	"chitieu/internal/core"
	"chitieu/internal/sheets"
	sheetsmem "chitieu/internal/sheets/memory"
	"chitieu/internal/storage"
)

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seed(t *testing.T, repo *storage.SQLiteRepository) (core.ExpenseRecord, core.IncomeRecord) {
	t.Helper()
	ctx := context.Background()
	e, err := repo.CreateExpense(ctx, core.ExpenseRecord{
		Amount: core.NewMoney(45000), Category: "food", Description: "phở", Date: core.NewDate(2025, 11, 3), Source: core.SourceAI,
	})
	require.NoError(t, err)
	i, err := repo.CreateIncome(ctx, core.IncomeRecord{
		Amount: core.NewMoney(15000000), Category: "salary", Description: "lương", Date: core.NewDate(2025, 11, 1), Source: core.SourceRecurring,
	})
	require.NoError(t, err)
	return e, i
}

func TestSyncWorker_HandleMessage(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	e, _ := seed(t, repo)
	sheet := sheetsmem.New()
	w := NewSyncWorker(repo, sheet, 10)

	err := w.HandleMessage(ctx, &amqp.TransactionCreatedMessage{TransactionID: e.ID, Type: core.Expense, Timestamp: time.Now()})
	require.NoError(t, err)

	rows := sheet.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, e.ID, rows[0].ID)
	assert.Equal(t, "phở", rows[0].Description)

	status, err := repo.SyncStatus(ctx, core.Expense, e.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.SyncDone, status)
}

func TestSyncWorker_HandleMessageUnknownID(t *testing.T) {
	w := NewSyncWorker(newRepo(t), sheetsmem.New(), 10)

	err := w.HandleMessage(context.Background(), &amqp.TransactionCreatedMessage{TransactionID: "missing", Type: core.Income})
	assert.NoError(t, err, "unknown ids are acknowledged, not requeued")
}

func TestSyncWorker_StartupSyncCheck(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	e, i := seed(t, repo)
	sheet := sheetsmem.New()
	w := NewSyncWorker(repo, sheet, 1)

	require.NoError(t, w.StartupSyncCheck(ctx))

	assert.Len(t, sheet.Rows(), 2)
	for _, ref := range []storage.SyncRef{{Type: core.Expense, ID: e.ID}, {Type: core.Income, ID: i.ID}} {
		status, err := repo.SyncStatus(ctx, ref.Type, ref.ID)
		require.NoError(t, err)
		assert.Equal(t, storage.SyncDone, status)
	}

	n, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

type failingExporter struct{ err error }

func (f failingExporter) Export(context.Context, sheets.Row) (string, error) {
	return "", f.err
}

func TestSyncWorker_ExportFailureMarksError(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	e, _ := seed(t, repo)
	boom := errors.New("quota exceeded")
	w := NewSyncWorker(repo, failingExporter{err: boom}, 10)

	err := w.HandleMessage(ctx, &amqp.TransactionCreatedMessage{TransactionID: e.ID, Type: core.Expense})
	assert.ErrorIs(t, err, boom)

	status, err := repo.SyncStatus(ctx, core.Expense, e.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.SyncError, status)

	n, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "only the income is pending and it fails too")
}

func TestSyncWorker_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewSyncWorker(newRepo(t), sheetsmem.New(), 10)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, time.Millisecond) }()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
