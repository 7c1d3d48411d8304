// Package sheets defines the spreadsheet export of confirmed transactions.
package sheets

import (
	"context"

	"chitieu/internal/core"
)

// Row is one exported transaction, in the column order of the sheet.
type Row struct {
	ID          string
	Type        core.TransactionType
	Date        core.Date
	Category    string
	Description string
	Amount      core.Money
	Source      string
}

// MonthReport aggregates the exported rows of one month.
type MonthReport struct {
	Year       int
	Month      int
	Summary    core.MonthlySummary
	ByCategory []core.CategoryAmount // expenses only, first-seen order
}

// Ports for outbound adapters.
type (
	Exporter interface {
		Export(ctx context.Context, r Row) (rowRef string, err error)
	}

	MonthReader interface {
		ReadMonth(ctx context.Context, year, month int) (MonthReport, error)
	}
)

func ExpenseRow(e core.ExpenseRecord) Row {
	return Row{
		ID:          e.ID,
		Type:        core.Expense,
		Date:        e.Date,
		Category:    e.Category,
		Description: e.Description,
		Amount:      e.Amount,
		Source:      e.Source,
	}
}

func IncomeRow(i core.IncomeRecord) Row {
	return Row{
		ID:          i.ID,
		Type:        core.Income,
		Date:        i.Date,
		Category:    i.Category,
		Description: i.Description,
		Amount:      i.Amount,
		Source:      i.Source,
	}
}

func (r Row) Validate() error {
	if r.ID == "" {
		return ErrMissingID
	}
	if !r.Type.Valid() {
		return core.ErrInvalidType
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	return r.Date.Validate()
}

// Summarize folds rows of one month into a report.
func Summarize(year, month int, rows []Row) MonthReport {
	var expense, income core.Money
	byCat := map[string]int{}
	var list []core.CategoryAmount
	for _, r := range rows {
		if r.Date.Year() != year || r.Date.Month() != month {
			continue
		}
		if r.Type == core.Income {
			income = income.Add(r.Amount)
			continue
		}
		expense = expense.Add(r.Amount)
		i, ok := byCat[r.Category]
		if !ok {
			i = len(list)
			byCat[r.Category] = i
			list = append(list, core.CategoryAmount{Category: r.Category})
		}
		list[i].Amount = list[i].Amount.Add(r.Amount)
	}
	return MonthReport{
		Year:       year,
		Month:      month,
		Summary:    core.NewMonthlySummary(expense, income),
		ByCategory: list,
	}
}
