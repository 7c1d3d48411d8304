package core

// CategoryAmount represents an amount aggregated by category code.
type CategoryAmount struct {
	Category string
	Amount   Money
}

// MonthlySummary holds the three figures shown on summary cards.
// It is recomputed for every query and never cached.
type MonthlySummary struct {
	Expense Money
	Income  Money
	Net     Money // Income - Expense
}

// NewMonthlySummary derives Net from the two totals.
func NewMonthlySummary(expense, income Money) MonthlySummary {
	return MonthlySummary{
		Expense: expense,
		Income:  income,
		Net:     income.Sub(expense),
	}
}
