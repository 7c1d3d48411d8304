package budget

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chitieu/internal/core"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		pct  string
		want Level
	}{
		{"0", LevelOK},
		{"45", LevelOK},
		{"79.9", LevelOK},
		{"80", LevelWarning},
		{"99.9", LevelWarning},
		{"100", LevelExceeded},
		{"105", LevelExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.pct, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFor(decimal.RequireFromString(tt.pct)))
		})
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "33.3", Percentage(core.NewMoney(1), core.NewMoney(3)).String())
	assert.Equal(t, "150", Percentage(core.NewMoney(3000), core.NewMoney(2000)).String())
	assert.True(t, Percentage(core.Money{}, core.Money{}).IsZero())
	assert.Equal(t, "100", Percentage(core.NewMoney(1), core.Money{}).String())
}

func TestBuild(t *testing.T) {
	limits := []Limit{
		{Category: "food", Amount: core.NewMoney(3000000)},
		{Category: "transport", Amount: core.NewMoney(500000)},
		{Category: "shopping", Amount: core.NewMoney(1000000)},
	}
	spent := []core.CategoryAmount{
		{Category: "transport", Amount: core.NewMoney(600000)},
		{Category: "food", Amount: core.NewMoney(2500000)},
		{Category: "bills", Amount: core.NewMoney(900000)},
	}

	ov := Build(2025, 11, limits, spent)

	require.Len(t, ov.Categories, 3)
	assert.Equal(t, "food", ov.Categories[0].Category)
	assert.Equal(t, LevelWarning, ov.Categories[0].Level)
	assert.Equal(t, "83.3", ov.Categories[0].Percentage.String())
	assert.Equal(t, LevelExceeded, ov.Categories[1].Level)
	assert.True(t, ov.Categories[1].Remaining.Equal(core.NewMoney(-100000)))
	assert.Equal(t, LevelOK, ov.Categories[2].Level)
	assert.True(t, ov.Categories[2].Spent.IsZero())

	assert.True(t, ov.TotalBudget.Equal(core.NewMoney(4500000)))
	assert.True(t, ov.TotalSpent.Equal(core.NewMoney(3100000)), "bills has no budget")
	assert.True(t, ov.TotalRemaining.Equal(core.NewMoney(1400000)))
}

func TestLoadLimits(t *testing.T) {
	write := func(t *testing.T, body string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "budgets.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	limits, err := LoadLimits(write(t, "budgets:\n  - category: food\n    amount: 3tr\n  - category: transport\n    amount: 800000\n"))
	require.NoError(t, err)
	require.Len(t, limits, 2)
	assert.True(t, limits[0].Amount.Equal(core.NewMoney(3000000)))
	assert.True(t, limits[1].Amount.Equal(core.NewMoney(800000)))

	tests := map[string]string{
		"unknown category": "budgets:\n  - category: salary\n    amount: 1\n",
		"bad amount":       "budgets:\n  - category: food\n    amount: lots\n",
		"duplicate":        "budgets:\n  - category: food\n    amount: 1\n  - category: food\n    amount: 2\n",
		"empty":            "budgets: []\n",
		"not yaml":         "budgets: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadLimits(write(t, body))
			assert.Error(t, err)
		})
	}

	_, err = LoadLimits(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
