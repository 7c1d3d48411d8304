package memory

import (
	"context"
	"errors"
	"testing"

	"chitieu/internal/core"
	"chitieu/internal/sheets"
)

func row(id string, t core.TransactionType, d core.Date, cat string, amount int64) sheets.Row {
	return sheets.Row{ID: id, Type: t, Date: d, Category: cat, Amount: core.NewMoney(amount), Source: core.SourceAI}
}

func TestMemoryStoreExport(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Export(ctx, row("a", core.Expense, core.NewDate(2025, 11, 1), "food", 45000))
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}
	ref, err = s.Export(ctx, row("b", core.Income, core.NewDate(2025, 11, 2), "salary", 15000000))
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}

	// Redelivered messages must not duplicate rows.
	ref, err = s.Export(ctx, row("a", core.Expense, core.NewDate(2025, 11, 1), "food", 45000))
	if err != nil || ref != "mem:1" {
		t.Fatalf("re-export: ref=%q err=%v", ref, err)
	}
	if got := len(s.Rows()); got != 2 {
		t.Errorf("Rows() has %d rows, want 2", got)
	}
}

func TestMemoryStoreExportValidates(t *testing.T) {
	s := New()

	_, err := s.Export(context.Background(), row("", core.Expense, core.NewDate(2025, 11, 1), "food", 1))
	if !errors.Is(err, sheets.ErrMissingID) {
		t.Errorf("expected ErrMissingID, got %v", err)
	}
	_, err = s.Export(context.Background(), row("x", core.Expense, core.NewDate(2025, 11, 1), "food", 0))
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestMemoryStoreReadMonth(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, r := range []sheets.Row{
		row("1", core.Expense, core.NewDate(2025, 11, 1), "food", 100000),
		row("2", core.Expense, core.NewDate(2025, 11, 3), "transport", 50000),
		row("3", core.Expense, core.NewDate(2025, 11, 9), "food", 20000),
		row("4", core.Income, core.NewDate(2025, 11, 5), "salary", 1000000),
		row("5", core.Expense, core.NewDate(2025, 10, 31), "food", 999),
		row("6", core.Expense, core.NewDate(2024, 11, 1), "food", 999),
	} {
		if _, err := s.Export(ctx, r); err != nil {
			t.Fatalf("export %s: %v", r.ID, err)
		}
	}

	rep, err := s.ReadMonth(ctx, 2025, 11)
	if err != nil {
		t.Fatalf("ReadMonth() error = %v", err)
	}
	if !rep.Summary.Expense.Equal(core.NewMoney(170000)) {
		t.Errorf("expense = %s, want 170000", rep.Summary.Expense)
	}
	if !rep.Summary.Net.Equal(core.NewMoney(830000)) {
		t.Errorf("net = %s, want 830000", rep.Summary.Net)
	}
	if len(rep.ByCategory) != 2 || rep.ByCategory[0].Category != "food" ||
		!rep.ByCategory[0].Amount.Equal(core.NewMoney(120000)) {
		t.Errorf("ByCategory = %+v", rep.ByCategory)
	}

	if _, err := s.ReadMonth(ctx, 2025, 13); err == nil {
		t.Error("expected error for month 13")
	}
}
