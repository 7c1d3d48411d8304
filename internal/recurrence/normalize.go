// Package recurrence turns recurring transaction templates into monthly
// figures and moves their schedule forward.
package recurrence

import (
	"time"

	"github.com/shopspring/decimal"

	"chitieu/internal/core"
)

// Monthly factors. These are approximations used for summary cards, not
// calendar-exact conversions.
var (
	daysPerMonth  = decimal.NewFromInt(30)
	weeksPerMonth = decimal.NewFromInt(4)
	monthsPerYear = decimal.NewFromInt(12)
)

// MonthlyEquivalent converts a per-occurrence amount into its monthly figure.
// Unknown frequencies are treated as monthly.
func MonthlyEquivalent(amount core.Money, freq core.Frequency) core.Money {
	switch freq {
	case core.Daily:
		return core.MoneyFrom(amount.Amount.Mul(daysPerMonth))
	case core.Weekly:
		return core.MoneyFrom(amount.Amount.Mul(weeksPerMonth))
	case core.Yearly:
		return core.MoneyFrom(amount.Amount.Div(monthsPerYear))
	default:
		return amount
	}
}

// NextOccurrence suggests the first next date of a salary-style template.
//
// When creating, anything after the 1st rolls to the 1st of next month and
// the 1st itself stays. Outside creation the user's date stands, so today is
// returned unchanged. This is a form default only; the scheduler never relies
// on it.
func NextOccurrence(today time.Time, creating bool) core.Date {
	d := core.DateOf(today)
	if !creating || d.Day() == 1 {
		return d
	}
	return core.NewDate(d.Year(), d.Month()+1, 1)
}
