package chart

import (
	"github.com/shopspring/decimal"

	"chitieu/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Shares converts per-category totals into percentage slices rounded to one
// decimal, keeping input order. Non-positive totals are left out. label maps a
// category code to its display name; nil keeps the code.
func Shares(amounts []core.CategoryAmount, label func(code string) string) []Point {
	total := decimal.Zero
	for _, a := range amounts {
		if a.Amount.Amount.IsPositive() {
			total = total.Add(a.Amount.Amount)
		}
	}
	if total.IsZero() {
		return []Point{}
	}

	points := make([]Point, 0, len(amounts))
	for _, a := range amounts {
		if !a.Amount.Amount.IsPositive() {
			continue
		}
		name := a.Category
		if label != nil {
			name = label(a.Category)
		}
		pct, _ := a.Amount.Amount.Mul(hundred).Div(total).Round(1).Float64()
		points = append(points, Point{Name: name, Value: pct})
	}
	return points
}
