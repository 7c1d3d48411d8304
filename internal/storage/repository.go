// Package storage is the SQLite implementation of the ledger ports.
// Amounts are stored as decimal TEXT, dates as YYYY-MM-DD and timestamps as
// RFC 3339 so rows stay readable with the sqlite3 shell.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"chitieu/internal/core"
	"chitieu/internal/ledger"

	_ "modernc.org/sqlite"
)

// Sync states of a stored transaction towards the spreadsheet export.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateExpense implements ledger.TransactionWriter
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	if err := e.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}
	e.ID = uuid.NewString()
	e.CreatedAt = r.now().UTC()
	if e.Source == "" {
		e.Source = core.SourceManual
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, amount, category, description, date, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Amount.String(), e.Category, e.Description, e.Date.String(), e.Source, e.CreatedAt.Format(timeLayout))
	if err != nil {
		return core.ExpenseRecord{}, persistence("create expense", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"amount", e.Amount.String(),
		"category", e.Category,
		"date", e.Date.String())

	return e, nil
}

// CreateIncome implements ledger.TransactionWriter
func (r *SQLiteRepository) CreateIncome(ctx context.Context, i core.IncomeRecord) (core.IncomeRecord, error) {
	if err := i.Validate(); err != nil {
		return core.IncomeRecord{}, err
	}
	i.ID = uuid.NewString()
	i.CreatedAt = r.now().UTC()
	if i.Source == "" {
		i.Source = core.SourceManual
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (id, amount, category, description, date, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.Amount.String(), i.Category, i.Description, i.Date.String(), i.Source, i.CreatedAt.Format(timeLayout))
	if err != nil {
		return core.IncomeRecord{}, persistence("create income", err)
	}

	slog.InfoContext(ctx, "Income saved to SQLite",
		"id", i.ID,
		"amount", i.Amount.String(),
		"category", i.Category,
		"date", i.Date.String())

	return i, nil
}

const transactionColumns = `id, amount, category, description, date, source, created_at`

// txRow is the shared shape of the expenses and incomes tables.
type txRow struct {
	ID          string
	Amount      core.Money
	Category    string
	Description string
	Date        core.Date
	Source      string
	CreatedAt   time.Time
}

func (t txRow) expense() core.ExpenseRecord {
	return core.ExpenseRecord(t)
}

func (t txRow) income() core.IncomeRecord {
	return core.IncomeRecord(t)
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.ExpenseRecord, error) {
	row, err := r.getTransaction(ctx, "expenses", id)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	return row.expense(), nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id string) (core.IncomeRecord, error) {
	row, err := r.getTransaction(ctx, "incomes", id)
	if err != nil {
		return core.IncomeRecord{}, err
	}
	return row.income(), nil
}

// ListExpenses implements ledger.TransactionReader
func (r *SQLiteRepository) ListExpenses(ctx context.Context, p ledger.Period) ([]core.ExpenseRecord, error) {
	rows, err := r.listTransactions(ctx, "expenses", p)
	if err != nil {
		return nil, err
	}
	out := make([]core.ExpenseRecord, len(rows))
	for i, row := range rows {
		out[i] = row.expense()
	}
	return out, nil
}

// ListIncomes implements ledger.TransactionReader
func (r *SQLiteRepository) ListIncomes(ctx context.Context, p ledger.Period) ([]core.IncomeRecord, error) {
	rows, err := r.listTransactions(ctx, "incomes", p)
	if err != nil {
		return nil, err
	}
	out := make([]core.IncomeRecord, len(rows))
	for i, row := range rows {
		out[i] = row.income()
	}
	return out, nil
}

// table is always one of the two literal table names above.
func (r *SQLiteRepository) getTransaction(ctx context.Context, table, id string) (txRow, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM `+table+` WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return txRow{}, fmt.Errorf("%s %s: %w", table, id, ledger.ErrNotFound)
	}
	if err != nil {
		return txRow{}, persistence("get "+table, err)
	}
	return t, nil
}

func (r *SQLiteRepository) listTransactions(ctx context.Context, table string, p ledger.Period) ([]txRow, error) {
	query := `SELECT ` + transactionColumns + ` FROM ` + table + ` WHERE 1 = 1`
	var args []any
	if !p.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, p.From.String())
	}
	if !p.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, p.To.String())
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence("list "+table, err)
	}
	defer rows.Close()

	out := make([]txRow, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, persistence("scan "+table, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list "+table, err)
	}
	return out, nil
}

// SetSyncStatus records the export state of a transaction.
func (r *SQLiteRepository) SetSyncStatus(ctx context.Context, t core.TransactionType, id, status string) error {
	table := "expenses"
	if t == core.Income {
		table = "incomes"
	}
	res, err := r.db.ExecContext(ctx, `UPDATE `+table+` SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return persistence("set sync status", err)
	}
	if err := expectOneRow(res, table, id); err != nil {
		return err
	}

	if status == SyncError {
		slog.WarnContext(ctx, "Transaction marked with sync error", "type", t, "id", id)
	} else {
		slog.InfoContext(ctx, "Transaction sync status updated", "type", t, "id", id, "status", status)
	}
	return nil
}

// SyncStatus returns the export state of a transaction.
func (r *SQLiteRepository) SyncStatus(ctx context.Context, t core.TransactionType, id string) (string, error) {
	table := "expenses"
	if t == core.Income {
		table = "incomes"
	}
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM `+table+` WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s %s: %w", table, id, ledger.ErrNotFound)
	}
	if err != nil {
		return "", persistence("get sync status", err)
	}
	return status, nil
}

// SyncRef identifies a stored transaction awaiting export.
type SyncRef struct {
	Type core.TransactionType
	ID   string
}

// PendingSync lists up to limit transactions not yet exported, oldest first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]SyncRef, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT 'expense', id, created_at FROM expenses WHERE sync_status = ?
		UNION ALL
		SELECT 'income', id, created_at FROM incomes WHERE sync_status = ?
		ORDER BY created_at
		LIMIT ?`, SyncPending, SyncPending, limit)
	if err != nil {
		return nil, persistence("list pending sync", err)
	}
	defer rows.Close()

	var out []SyncRef
	for rows.Next() {
		var (
			ref       SyncRef
			createdAt string
		)
		if err := rows.Scan(&ref.Type, &ref.ID, &createdAt); err != nil {
			return nil, persistence("scan pending sync", err)
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list pending sync", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (txRow, error) {
	var (
		t                       txRow
		amount, date, createdAt string
	)
	if err := s.Scan(&t.ID, &amount, &t.Category, &t.Description, &date, &t.Source, &createdAt); err != nil {
		return txRow{}, err
	}
	var err error
	if t.Amount, err = parseMoney(amount); err != nil {
		return txRow{}, err
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return txRow{}, fmt.Errorf("date %q: %w", date, err)
	}
	if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return txRow{}, fmt.Errorf("created_at %q: %w", createdAt, err)
	}
	return t, nil
}

func parseMoney(s string) (core.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("amount %q: %w", s, err)
	}
	return core.MoneyFrom(d), nil
}

func expectOneRow(res sql.Result, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return persistence("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, ledger.ErrNotFound)
	}
	return nil
}

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ledger.ErrPersistence, err)
}
