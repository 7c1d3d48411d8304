package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"chitieu/internal/core"
	"chitieu/internal/recurrence"
	"chitieu/internal/services"
)

func newRecurringCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recurring",
		Aliases: []string{"rec"},
		Short:   "Manage recurring transactions",
	}
	cmd.AddCommand(
		newRecurringAddCmd(a),
		newRecurringUpdateCmd(a),
		newRecurringListCmd(a),
		newRecurringToggleCmd(a),
		newRecurringDeleteCmd(a),
		newRecurringSummaryCmd(a),
		newRecurringRunCmd(a),
	)
	return cmd
}

// recurringFlags are shared by add and update.
type recurringFlags struct {
	txType, amount, category, frequency, next, description string
}

func (f *recurringFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.txType, "type", "t", string(core.Expense), "expense or income")
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "amount per occurrence, e.g. 3tr")
	cmd.Flags().StringVarP(&f.category, "category", "c", core.DefaultCategory, "category code")
	cmd.Flags().StringVarP(&f.frequency, "frequency", "f", string(core.Monthly), "daily, weekly, monthly or yearly")
	cmd.Flags().StringVar(&f.next, "next", "", "next date as YYYY-MM-DD")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "description")
}

// apply copies the flags the user set onto fields.
func (f *recurringFlags) apply(cmd *cobra.Command, fields *core.RecurringFields) error {
	changed := cmd.Flags().Changed
	if changed("type") {
		fields.Type = core.TransactionType(f.txType)
	}
	if changed("amount") {
		m, err := parseMoney(f.amount)
		if err != nil {
			return err
		}
		fields.Amount = m
	}
	if changed("category") {
		fields.Category = f.category
	}
	if changed("frequency") {
		fields.Frequency = core.Frequency(f.frequency)
	}
	if changed("next") {
		d, err := core.ParseDate(f.next)
		if err != nil {
			return err
		}
		fields.NextDate = d
	}
	if changed("description") {
		fields.Description = f.description
	}
	return nil
}

func newRecurringAddCmd(a *app) *cobra.Command {
	var f recurringFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a recurring transaction",
		Long:  "Without --next the first occurrence is today when today is the 1st, otherwise the 1st of next month.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fields := core.RecurringFields{
				Type:      core.TransactionType(f.txType),
				Category:  f.category,
				Frequency: core.Frequency(f.frequency),
				NextDate:  recurrence.NextOccurrence(a.now(), true),
			}
			if err := f.apply(cmd, &fields); err != nil {
				return err
			}
			if err := fields.Validate(); err != nil {
				return err
			}
			svc, err := a.open(ctx)
			if err != nil {
				return err
			}
			r, err := svc.Store().CreateRecurring(ctx, fields)
			if err != nil {
				return err
			}
			a.printf("Created recurring %s, next on %s\n", r.ID, r.NextDate)
			return nil
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newRecurringUpdateCmd(a *app) *cobra.Command {
	var f recurringFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a recurring transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.open(ctx)
			if err != nil {
				return err
			}
			r, err := svc.Store().GetRecurring(ctx, args[0])
			if err != nil {
				return err
			}
			fields := r.Fields()
			if err := f.apply(cmd, &fields); err != nil {
				return err
			}
			if err := fields.Validate(); err != nil {
				return err
			}
			updated, err := svc.Store().UpdateRecurring(ctx, r.ID, fields)
			if err != nil {
				return err
			}
			a.printf("Updated recurring %s, next on %s\n", updated.ID, updated.NextDate)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newRecurringListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			records, err := svc.Store().ListRecurring(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tAMOUNT\tFREQUENCY\tNEXT\tACTIVE\tDESCRIPTION")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
					r.ID, r.Type, core.FormatVND(r.Amount), r.Frequency, r.NextDate, r.IsActive, r.Description)
			}
			return w.Flush()
		},
	}
}

func newRecurringToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Pause or resume a recurring transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			r, err := svc.Store().ToggleRecurring(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			state := "paused"
			if r.IsActive {
				state = "active"
			}
			a.printf("Recurring %s is %s\n", r.ID, state)
			return nil
		},
	}
}

func newRecurringDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recurring transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Store().DeleteRecurring(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("Deleted recurring %s\n", args[0])
			return nil
		},
	}
}

func newRecurringSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the monthly equivalent of active recurring transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			records, err := svc.Store().ListRecurring(cmd.Context())
			if err != nil {
				return err
			}
			totals := recurrence.Totals(records)
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Thu nhập/tháng\t%s\n", core.FormatVND(totals.Income))
			fmt.Fprintf(w, "Chi tiêu/tháng\t%s\n", core.FormatVND(totals.Expense))
			fmt.Fprintf(w, "Còn lại/tháng\t%s\n", core.FormatVND(totals.Net))
			for _, c := range recurrence.ByCategory(records, core.Expense) {
				fmt.Fprintf(w, "  - %s\t%s\n", core.CategoryLabel(core.Expense, c.Category), core.FormatVND(c.Amount))
			}
			return w.Flush()
		},
	}
}

func newRecurringRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Create the transactions of every due recurring record now",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			n, err := services.NewRecurringProcessor(svc.Store(), svc).ProcessDue(cmd.Context(), a.now())
			a.metrics.AddRecurring(n)
			if err != nil {
				return err
			}
			a.printf("Created %d transaction(s)\n", n)
			return nil
		},
	}
}
