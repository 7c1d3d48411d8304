package recurrence

import "chitieu/internal/core"

// Totals sums the monthly equivalents of active records per type.
// Inactive records are skipped entirely.
func Totals(records []core.RecurringTransaction) core.MonthlySummary {
	var expense, income core.Money
	for _, r := range records {
		if !r.IsActive {
			continue
		}
		m := MonthlyEquivalent(r.Amount, r.Frequency)
		switch r.Type {
		case core.Expense:
			expense = expense.Add(m)
		case core.Income:
			income = income.Add(m)
		}
	}
	return core.NewMonthlySummary(expense, income)
}

// ByCategory returns the monthly equivalent of active records of type t per
// category, in first-seen order.
func ByCategory(records []core.RecurringTransaction, t core.TransactionType) []core.CategoryAmount {
	var out []core.CategoryAmount
	index := map[string]int{}
	for _, r := range records {
		if !r.IsActive || r.Type != t {
			continue
		}
		m := MonthlyEquivalent(r.Amount, r.Frequency)
		if i, ok := index[r.Category]; ok {
			out[i].Amount = out[i].Amount.Add(m)
			continue
		}
		index[r.Category] = len(out)
		out = append(out, core.CategoryAmount{Category: r.Category, Amount: m})
	}
	return out
}
