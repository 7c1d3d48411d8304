package google

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"chitieu/internal/core"
	ports "chitieu/internal/sheets"
)

var groupedAmount = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)

// parseRows converts a values matrix (Month, Day, Description, Amount, Type,
// Category, Source, ID) into rows. Header lines and rows that do not parse
// are skipped; the sheet is edited by hand and the export is best-effort.
func parseRows(values [][]any, year int) []ports.Row {
	var out []ports.Row
	for _, raw := range values {
		if len(raw) < 4 {
			continue
		}
		month, ok := intCell(raw[0])
		if !ok || month < 1 || month > 12 {
			continue
		}
		day, ok := intCell(raw[1])
		if !ok {
			continue
		}
		amount, ok := amountCell(raw[3])
		if !ok {
			continue
		}
		date := core.NewDate(year, month, day)
		if date.Month() != month {
			// Day 31 in a 30-day month rolls over; reject it.
			continue
		}

		r := ports.Row{
			Date:        date,
			Description: stringCell(raw, 2),
			Amount:      core.MoneyFrom(amount),
			Type:        core.TransactionType(stringCell(raw, 4)),
			Category:    stringCell(raw, 5),
			Source:      stringCell(raw, 6),
			ID:          stringCell(raw, 7),
		}
		if !r.Type.Valid() {
			r.Type = core.Expense
		}
		if r.Category == "" {
			r.Category = core.DefaultCategory
		}
		out = append(out, r)
	}
	return out
}

func stringCell(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

func intCell(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), x == float64(int(x))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	default:
		return 0, false
	}
}

// amountCell accepts numbers and the strings a hand-edited cell may hold:
// "45000", "1.500.000", "1,500,000 ₫", "12,5".
func amountCell(v any) (decimal.Decimal, bool) {
	var d decimal.Decimal
	switch x := v.(type) {
	case float64:
		d = decimal.NewFromFloat(x)
	case string:
		s := strings.TrimSpace(strings.NewReplacer("₫", "", "đ", "", " ", "").Replace(x))
		if groupedAmount.MatchString(s) {
			s = strings.NewReplacer(".", "", ",", "").Replace(s)
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
		var err error
		if d, err = decimal.NewFromString(s); err != nil {
			return decimal.Decimal{}, false
		}
	default:
		return decimal.Decimal{}, false
	}
	return d, d.IsPositive()
}
