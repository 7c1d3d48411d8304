package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "chitieu/internal/sheets"
)

const DefaultSheetName = "Giao dịch"

var header = []any{"Tháng", "Ngày", "Mô tả", "Số tiền", "Loại", "Danh mục", "Nguồn", "ID"}

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID   string
	SheetName       string // base name; the year is prefixed, e.g. "2025 Giao dịch"
	CredentialsJSON string
	CredentialsFile string
}

// valuesAPI is the slice of the Sheets API the exporter uses.
type valuesAPI interface {
	get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
	append(ctx context.Context, spreadsheetID, rng string, rows [][]any) (updatedRange string, err error)
	addSheet(ctx context.Context, spreadsheetID, title string) error
}

type Client struct {
	values        valuesAPI
	spreadsheetID string
	sheetBase     string
	now           func() time.Time

	// Transaction IDs already present per sheet, so redelivered messages
	// do not append duplicate rows.
	mu                 sync.Mutex
	known              map[string]map[string]string
	knownExpiresAt     map[string]time.Time
	cacheValidDuration time.Duration
}

var (
	_ ports.Exporter    = (*Client)(nil)
	_ ports.MonthReader = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	credentialsJSON, err := credentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", cfg.SpreadsheetID)

	return newClient(serviceValues{svc: svc}, cfg), nil
}

func newClient(values valuesAPI, cfg Config) *Client {
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = DefaultSheetName
	}
	return &Client{
		values:             values,
		spreadsheetID:      cfg.SpreadsheetID,
		sheetBase:          base,
		now:                time.Now,
		known:              make(map[string]map[string]string),
		knownExpiresAt:     make(map[string]time.Time),
		cacheValidDuration: 10 * time.Minute,
	}
}

// credentials resolves the service account key: inline JSON, then a file,
// then GOOGLE_APPLICATION_CREDENTIALS.
func credentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Export appends the transaction to the sheet of its year, creating the sheet
// on first use. A transaction already in the sheet is not appended again.
func (c *Client) Export(ctx context.Context, r ports.Row) (string, error) {
	if err := r.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	sheet := yearPrefixedName(c.sheetBase, r.Date.Year())

	known, err := c.knownIDs(ctx, sheet)
	if err != nil {
		return "", err
	}
	if ref, ok := known[r.ID]; ok {
		slog.InfoContext(ctx, "Transaction already exported", "id", r.ID, "sheets_ref", ref)
		return ref, nil
	}

	values := [][]any{{
		r.Date.Month(),
		r.Date.Day(),
		r.Description,
		r.Amount.Amount.InexactFloat64(),
		string(r.Type),
		r.Category,
		r.Source,
		r.ID,
	}}
	ref, err := c.values.append(ctx, c.spreadsheetID, sheet+"!A:H", values)
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	c.mu.Lock()
	if ids, ok := c.known[sheet]; ok {
		ids[r.ID] = ref
	}
	c.mu.Unlock()
	return ref, nil
}

func (c *Client) knownIDs(ctx context.Context, sheet string) (map[string]string, error) {
	c.mu.Lock()
	if ids, ok := c.known[sheet]; ok && c.now().Before(c.knownExpiresAt[sheet]) {
		c.mu.Unlock()
		return ids, nil
	}
	c.mu.Unlock()

	col, err := c.values.get(ctx, c.spreadsheetID, sheet+"!H:H")
	if isMissingSheet(err) {
		if err := c.createSheet(ctx, sheet); err != nil {
			return nil, err
		}
		col, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ids of %s: %w", sheet, err)
	}

	ids := make(map[string]string, len(col))
	for i, row := range col {
		if len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(fmt.Sprint(row[0]))
		if id == "" || id == header[7] {
			continue
		}
		ids[id] = fmt.Sprintf("%s!A%d:H%d", sheet, i+1, i+1)
	}

	c.mu.Lock()
	c.known[sheet] = ids
	c.knownExpiresAt[sheet] = c.now().Add(c.cacheValidDuration)
	c.mu.Unlock()
	return ids, nil
}

// InvalidateCache forgets the known IDs so the next export re-reads them.
func (c *Client) InvalidateCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.known = make(map[string]map[string]string)
	c.knownExpiresAt = make(map[string]time.Time)
}

func (c *Client) createSheet(ctx context.Context, sheet string) error {
	slog.InfoContext(ctx, "Creating yearly sheet", "sheet", sheet)
	if err := c.values.addSheet(ctx, c.spreadsheetID, sheet); err != nil {
		return fmt.Errorf("add sheet %s: %w", sheet, err)
	}
	if _, err := c.values.append(ctx, c.spreadsheetID, sheet+"!A1:H1", [][]any{header}); err != nil {
		return fmt.Errorf("write header of %s: %w", sheet, err)
	}
	return nil
}

// ReadMonth rebuilds the month totals from the exported rows.
func (c *Client) ReadMonth(ctx context.Context, year, month int) (ports.MonthReport, error) {
	if month < 1 || month > 12 {
		return ports.MonthReport{}, fmt.Errorf("invalid month: %d", month)
	}
	sheet := yearPrefixedName(c.sheetBase, year)
	values, err := c.values.get(ctx, c.spreadsheetID, sheet+"!A:H")
	if isMissingSheet(err) {
		return ports.Summarize(year, month, nil), nil
	}
	if err != nil {
		return ports.MonthReport{}, fmt.Errorf("read %s: %w", sheet, err)
	}
	return ports.Summarize(year, month, parseRows(values, year)), nil
}

func isMissingSheet(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

type serviceValues struct {
	svc *gsheet.Service
}

func (s serviceValues) get(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s serviceValues) append(ctx context.Context, spreadsheetID, rng string, rows [][]any) (string, error) {
	resp, err := s.svc.Spreadsheets.Values.Append(spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Updates == nil {
		return rng, nil
	}
	return resp.Updates.UpdatedRange, nil
}

func (s serviceValues) addSheet(ctx context.Context, spreadsheetID, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	_, err := s.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}
