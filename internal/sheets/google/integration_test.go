//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"chitieu/internal/core"
	ports "chitieu/internal/sheets"
)

// Integration tests require a spreadsheet shared with a service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_ExportAndReadMonth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := New(ctx, Config{
		SpreadsheetID:   spreadsheetID,
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	})
	if err != nil {
		t.Skipf("credentials not configured: %v", err)
	}

	today := core.DateOf(time.Now())
	before, err := client.ReadMonth(ctx, today.Year(), today.Month())
	if err != nil {
		t.Fatalf("ReadMonth() error = %v", err)
	}

	row := ports.Row{
		ID:          uuid.NewString(),
		Type:        core.Expense,
		Date:        today,
		Category:    "food",
		Description: "integration test",
		Amount:      core.NewMoney(1000),
		Source:      core.SourceManual,
	}
	ref, err := client.Export(ctx, row)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	t.Logf("exported to %s", ref)

	again, err := client.Export(ctx, row)
	if err != nil || again != ref {
		t.Errorf("re-export = %q, %v; want %q", again, err, ref)
	}

	after, err := client.ReadMonth(ctx, today.Year(), today.Month())
	if err != nil {
		t.Fatalf("ReadMonth() error = %v", err)
	}
	want := before.Summary.Expense.Add(row.Amount)
	if !after.Summary.Expense.Equal(want) {
		t.Errorf("expense total = %s, want %s", after.Summary.Expense, want)
	}
}
