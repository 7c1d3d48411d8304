package main

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"chitieu/internal/budget"
	"chitieu/internal/chart"
	"chitieu/internal/core"
	"chitieu/internal/grouping"
	"chitieu/internal/ledger"
	"chitieu/internal/parsing"
	"chitieu/internal/sheets"
	"chitieu/internal/sheets/google"
)

// parseMonth reads "2025-11"; empty means the current month.
func parseMonth(s string, now time.Time) (year, month int, err error) {
	if s == "" {
		return now.Year(), int(now.Month()), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYY-MM", s)
	}
	return t.Year(), int(t.Month()), nil
}

// parseMoney accepts the shorthand the parser understands, e.g. "45k" or "3tr".
func parseMoney(s string) (core.Money, error) {
	m, ok := parsing.ExtractAmount(s)
	if !ok {
		return core.Money{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, s)
	}
	return m, nil
}

func newAddCmd(a *app) *cobra.Command {
	var (
		txType, amount, category, description, date string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense or income directly",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			money, err := parseMoney(amount)
			if err != nil {
				return err
			}
			day := core.DateOf(a.now())
			if date != "" {
				if day, err = core.ParseDate(date); err != nil {
					return err
				}
			}
			svc, err := a.open(ctx)
			if err != nil {
				return err
			}

			switch core.TransactionType(txType) {
			case core.Expense:
				e, err := svc.CreateExpense(ctx, core.ExpenseRecord{
					Amount: money, Category: category, Description: description, Date: day, Source: core.SourceManual,
				})
				if err != nil {
					return err
				}
				a.printf("Saved expense %s: %s\n", e.ID, core.FormatVND(e.Amount))
			case core.Income:
				i, err := svc.CreateIncome(ctx, core.IncomeRecord{
					Amount: money, Category: category, Description: description, Date: day, Source: core.SourceManual,
				})
				if err != nil {
					return err
				}
				a.printf("Saved income %s: %s\n", i.ID, core.FormatVND(i.Amount))
			default:
				return fmt.Errorf("%w: %q", core.ErrInvalidType, txType)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&txType, "type", "t", string(core.Expense), "expense or income")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount, e.g. 45000, 45k or 1tr5")
	cmd.Flags().StringVarP(&category, "category", "c", core.DefaultCategory, "category code")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// entry is an expense or income line in the grouped history.
type entry struct {
	Type        core.TransactionType
	Amount      core.Money
	Category    string
	Description string
	Date        core.Date
}

func (e entry) TransactionDate() time.Time { return e.Date.Time }

func newGroupCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "group",
		Short: "List recent transactions grouped by day, week and month",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.open(ctx)
			if err != nil {
				return err
			}
			today := core.DateOf(a.now())
			entries, err := loadEntries(ctx, svc.Store(), ledger.Period{From: today.AddDays(-days), To: today})
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				a.printf("Không có giao dịch.\n")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			for _, g := range grouping.GroupByDate(entries, a.now(), grouping.LocaleByName(a.cfg.Locale)) {
				fmt.Fprintf(w, "%s\n", g.Label)
				for _, e := range g.Items {
					sign := "-"
					if e.Type == core.Income {
						sign = "+"
					}
					fmt.Fprintf(w, "  %s\t%s%s\t%s\t%s\n", e.Date, sign, core.FormatVND(e.Amount),
						core.CategoryLabel(e.Type, e.Category), e.Description)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&days, "days", 45, "how many days back to list")
	return cmd
}

// loadEntries merges expenses and incomes of p, newest date first.
func loadEntries(ctx context.Context, store ledger.TransactionReader, p ledger.Period) ([]entry, error) {
	var (
		expenses []core.ExpenseRecord
		incomes  []core.IncomeRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		expenses, err = store.ListExpenses(gctx, p)
		return err
	})
	g.Go(func() (err error) {
		incomes, err = store.ListIncomes(gctx, p)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]entry, 0, len(expenses)+len(incomes))
	for _, e := range expenses {
		entries = append(entries, entry{core.Expense, e.Amount, e.Category, e.Description, e.Date})
	}
	for _, i := range incomes {
		entries = append(entries, entry{core.Income, i.Amount, i.Category, i.Description, i.Date})
	}
	slices.SortStableFunc(entries, func(x, y entry) int {
		return -cmp.Compare(x.Date.Unix(), y.Date.Unix())
	})
	return entries, nil
}

func newReportCmd(a *app) *cobra.Command {
	var (
		month     string
		fromSheet bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the month's totals and spending by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			year, mon, err := parseMonth(month, a.now())
			if err != nil {
				return err
			}

			var (
				summary   core.MonthlySummary
				byCat     []core.CategoryAmount
				recurring *core.MonthlySummary
			)
			if fromSheet {
				rep, err := a.readSheetMonth(ctx, year, mon)
				if err != nil {
					return err
				}
				summary, byCat = rep.Summary, rep.ByCategory
			} else {
				svc, err := a.open(ctx)
				if err != nil {
					return err
				}
				rep, err := svc.Month(ctx, year, mon)
				if err != nil {
					return err
				}
				summary, byCat, recurring = rep.Summary, rep.ByCategory, &rep.Recurring
			}

			a.printf("Tháng %02d/%d\n", mon, year)
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "  Thu nhập\t%s\n", core.FormatVND(summary.Income))
			fmt.Fprintf(w, "  Chi tiêu\t%s\n", core.FormatVND(summary.Expense))
			fmt.Fprintf(w, "  Còn lại\t%s\n", core.FormatVND(summary.Net))
			if recurring != nil {
				fmt.Fprintf(w, "  Định kỳ (chi/thu)\t%s / %s\n", core.FormatVND(recurring.Expense), core.FormatVND(recurring.Income))
			}
			label := func(code string) string { return core.CategoryLabel(core.Expense, code) }
			share := make(map[string]float64)
			for _, p := range chart.Shares(byCat, label) {
				share[p.Name] = p.Value
			}
			for _, c := range byCat {
				fmt.Fprintf(w, "  - %s\t%s\t(%.1f%%)\n", label(c.Category), core.FormatVND(c.Amount), share[label(c.Category)])
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "month as YYYY-MM (default current)")
	cmd.Flags().BoolVar(&fromSheet, "sheet", false, "read the totals from the exported Google Sheet")
	return cmd
}

func (a *app) readSheetMonth(ctx context.Context, year, month int) (sheets.MonthReport, error) {
	client, err := google.New(ctx, google.Config{
		SpreadsheetID:   a.cfg.GoogleSpreadsheetID,
		SheetName:       a.cfg.GoogleSheetName,
		CredentialsJSON: a.cfg.GoogleServiceAccountJSON,
		CredentialsFile: a.cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return sheets.MonthReport{}, err
	}
	return client.ReadMonth(ctx, year, month)
}

func newBudgetCmd(a *app) *cobra.Command {
	var (
		file  string
		month string
	)
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Compare the month's spending with per-category budgets",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			year, mon, err := parseMonth(month, a.now())
			if err != nil {
				return err
			}
			limits, err := budget.LoadLimits(file)
			if err != nil {
				return err
			}
			svc, err := a.open(ctx)
			if err != nil {
				return err
			}
			rep, err := svc.Month(ctx, year, mon)
			if err != nil {
				return err
			}

			ov := budget.Build(year, mon, limits, rep.ByCategory)
			a.printf("Ngân sách %02d/%d\n", mon, year)
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			for _, c := range ov.Categories {
				fmt.Fprintf(w, "  %s\t%s / %s\t%s%%\t%s\n", core.CategoryLabel(core.Expense, c.Category),
					core.FormatVND(c.Spent), core.FormatVND(c.Budget), c.Percentage.String(), c.Level)
			}
			fmt.Fprintf(w, "  Tổng\t%s / %s\tcòn %s\n", core.FormatVND(ov.TotalSpent), core.FormatVND(ov.TotalBudget), core.FormatVND(ov.TotalRemaining))
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "budgets.yaml", "YAML file with the monthly limits")
	cmd.Flags().StringVarP(&month, "month", "m", "", "month as YYYY-MM (default current)")
	return cmd
}
