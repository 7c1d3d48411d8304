// Package budget compares monthly spending per category with its limit.
package budget

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"chitieu/internal/core"
	"chitieu/internal/parsing"
)

// Level classifies how much of a budget has been used.
type Level string

const (
	LevelOK       Level = "ok"
	LevelWarning  Level = "warning"
	LevelExceeded Level = "exceeded"
)

var (
	warningAt  = decimal.NewFromInt(80)
	exceededAt = decimal.NewFromInt(100)
	hundred    = decimal.NewFromInt(100)
)

// LevelFor maps a usage percentage to its level: warning from 80%,
// exceeded from 100%.
func LevelFor(percentage decimal.Decimal) Level {
	switch {
	case percentage.GreaterThanOrEqual(exceededAt):
		return LevelExceeded
	case percentage.GreaterThanOrEqual(warningAt):
		return LevelWarning
	default:
		return LevelOK
	}
}

// Percentage returns spent as a percentage of limit, rounded to one decimal.
// Any spending against a zero limit counts as 100%.
func Percentage(spent, limit core.Money) decimal.Decimal {
	if !limit.Amount.IsPositive() {
		if spent.Amount.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return spent.Amount.Mul(hundred).Div(limit.Amount).Round(1)
}

// Limit is the monthly budget of one expense category.
type Limit struct {
	Category string
	Amount   core.Money
}

type CategoryOverview struct {
	Category   string
	Budget     core.Money
	Spent      core.Money
	Remaining  core.Money // negative once exceeded
	Percentage decimal.Decimal
	Level      Level
}

type Overview struct {
	Year           int
	Month          int
	TotalBudget    core.Money
	TotalSpent     core.Money
	TotalRemaining core.Money
	Categories     []CategoryOverview // in limit order
}

// Build compares limits with the month's spending per category. Categories
// without a limit are not part of the overview.
func Build(year, month int, limits []Limit, spent []core.CategoryAmount) Overview {
	byCat := make(map[string]core.Money, len(spent))
	for _, s := range spent {
		byCat[s.Category] = byCat[s.Category].Add(s.Amount)
	}

	ov := Overview{Year: year, Month: month}
	for _, l := range limits {
		used := byCat[l.Category]
		pct := Percentage(used, l.Amount)
		ov.Categories = append(ov.Categories, CategoryOverview{
			Category:   l.Category,
			Budget:     l.Amount,
			Spent:      used,
			Remaining:  l.Amount.Sub(used),
			Percentage: pct,
			Level:      LevelFor(pct),
		})
		ov.TotalBudget = ov.TotalBudget.Add(l.Amount)
		ov.TotalSpent = ov.TotalSpent.Add(used)
	}
	ov.TotalRemaining = ov.TotalBudget.Sub(ov.TotalSpent)
	return ov
}

type fileLimit struct {
	Category string `yaml:"category"`
	Amount   string `yaml:"amount"`
}

// LoadLimits reads limits from a YAML file:
//
//	budgets:
//	  - category: food
//	    amount: 3tr
//	  - category: transport
//	    amount: 800000
func LoadLimits(path string) ([]Limit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read budget file: %w", err)
	}
	var doc struct {
		Budgets []fileLimit `yaml:"budgets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse budget file %s: %w", path, err)
	}

	seen := map[string]bool{}
	limits := make([]Limit, 0, len(doc.Budgets))
	for i, b := range doc.Budgets {
		if !core.IsCategory(core.Expense, b.Category) {
			return nil, fmt.Errorf("budget %d: %w: %q", i+1, core.ErrInvalidCategory, b.Category)
		}
		if seen[b.Category] {
			return nil, fmt.Errorf("budget %d: duplicate category %q", i+1, b.Category)
		}
		seen[b.Category] = true
		amount, ok := parsing.ExtractAmount(b.Amount)
		if !ok {
			return nil, fmt.Errorf("budget %d (%s): %w: %q", i+1, b.Category, core.ErrInvalidAmount, b.Amount)
		}
		limits = append(limits, Limit{Category: b.Category, Amount: amount})
	}
	if len(limits) == 0 {
		return nil, errors.New("budget file defines no budgets")
	}
	return limits, nil
}
