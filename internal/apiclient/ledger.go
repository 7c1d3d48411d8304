package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"chitieu/internal/core"
	"chitieu/internal/ledger"
)

const pageSize = 100

// CreateExpense implements ledger.TransactionWriter
func (c *Client) CreateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	if err := e.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}
	var out transactionDTO
	err := c.do(ctx, http.MethodPost, "/expenses", transactionDTO{
		Amount:      number(e.Amount),
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date.String(),
	}, &out)
	if err != nil {
		return core.ExpenseRecord{}, ledgerError("create expense", err)
	}
	return out.expense()
}

func (c *Client) CreateIncome(ctx context.Context, i core.IncomeRecord) (core.IncomeRecord, error) {
	if err := i.Validate(); err != nil {
		return core.IncomeRecord{}, err
	}
	var out transactionDTO
	err := c.do(ctx, http.MethodPost, "/incomes", transactionDTO{
		Amount:      number(i.Amount),
		Category:    i.Category,
		Description: i.Description,
		Date:        i.Date.String(),
	}, &out)
	if err != nil {
		return core.IncomeRecord{}, ledgerError("create income", err)
	}
	return out.income()
}

func (c *Client) GetExpense(ctx context.Context, id string) (core.ExpenseRecord, error) {
	var out transactionDTO
	if err := c.do(ctx, http.MethodGet, "/expenses/"+url.PathEscape(id), nil, &out); err != nil {
		return core.ExpenseRecord{}, ledgerError("get expense", err)
	}
	return out.expense()
}

func (c *Client) GetIncome(ctx context.Context, id string) (core.IncomeRecord, error) {
	var out transactionDTO
	if err := c.do(ctx, http.MethodGet, "/incomes/"+url.PathEscape(id), nil, &out); err != nil {
		return core.IncomeRecord{}, ledgerError("get income", err)
	}
	return out.income()
}

// ListExpenses walks every page of /expenses inside p.
func (c *Client) ListExpenses(ctx context.Context, p ledger.Period) ([]core.ExpenseRecord, error) {
	rows, err := c.listAll(ctx, "/expenses", p)
	if err != nil {
		return nil, ledgerError("list expenses", err)
	}
	out := make([]core.ExpenseRecord, 0, len(rows))
	for _, r := range rows {
		e, err := r.expense()
		if err != nil {
			return nil, ledgerError("list expenses", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *Client) ListIncomes(ctx context.Context, p ledger.Period) ([]core.IncomeRecord, error) {
	rows, err := c.listAll(ctx, "/incomes", p)
	if err != nil {
		return nil, ledgerError("list incomes", err)
	}
	out := make([]core.IncomeRecord, 0, len(rows))
	for _, r := range rows {
		i, err := r.income()
		if err != nil {
			return nil, ledgerError("list incomes", err)
		}
		out = append(out, i)
	}
	return out, nil
}

func (c *Client) listAll(ctx context.Context, path string, p ledger.Period) ([]transactionDTO, error) {
	var all []transactionDTO
	for n := 1; ; n++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(n))
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("sortBy", "date")
		q.Set("sortOrder", "desc")
		if !p.From.IsZero() {
			q.Set("dateFrom", p.From.String())
		}
		if !p.To.IsZero() {
			q.Set("dateTo", p.To.String())
		}

		var pg page[transactionDTO]
		if err := c.do(ctx, http.MethodGet, path+"?"+q.Encode(), nil, &pg); err != nil {
			return nil, err
		}
		all = append(all, pg.Data...)
		if !pg.Meta.HasNextPage || len(pg.Data) == 0 {
			return all, nil
		}
	}
}

// CreateRecurring implements ledger.RecurringStore
func (c *Client) CreateRecurring(ctx context.Context, f core.RecurringFields) (core.RecurringTransaction, error) {
	if err := f.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	var out recurringDTO
	if err := c.do(ctx, http.MethodPost, "/recurring", recurringBody(f), &out); err != nil {
		return core.RecurringTransaction{}, ledgerError("create recurring", err)
	}
	return out.record()
}

func (c *Client) UpdateRecurring(ctx context.Context, id string, f core.RecurringFields) (core.RecurringTransaction, error) {
	if err := f.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	var out recurringDTO
	if err := c.do(ctx, http.MethodPatch, "/recurring/"+url.PathEscape(id), recurringBody(f), &out); err != nil {
		return core.RecurringTransaction{}, ledgerError("update recurring", err)
	}
	return out.record()
}

func (c *Client) DeleteRecurring(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/recurring/"+url.PathEscape(id), nil, nil); err != nil {
		return ledgerError("delete recurring", err)
	}
	return nil
}

func (c *Client) ToggleRecurring(ctx context.Context, id string) (core.RecurringTransaction, error) {
	var out recurringDTO
	if err := c.do(ctx, http.MethodPatch, "/recurring/"+url.PathEscape(id)+"/toggle", nil, &out); err != nil {
		return core.RecurringTransaction{}, ledgerError("toggle recurring", err)
	}
	return out.record()
}

func (c *Client) GetRecurring(ctx context.Context, id string) (core.RecurringTransaction, error) {
	var out recurringDTO
	if err := c.do(ctx, http.MethodGet, "/recurring/"+url.PathEscape(id), nil, &out); err != nil {
		return core.RecurringTransaction{}, ledgerError("get recurring", err)
	}
	return out.record()
}

func (c *Client) ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	var rows []recurringDTO
	if err := c.do(ctx, http.MethodGet, "/recurring", nil, &rows); err != nil {
		return nil, ledgerError("list recurring", err)
	}
	out := make([]core.RecurringTransaction, 0, len(rows))
	for _, r := range rows {
		rt, err := r.record()
		if err != nil {
			return nil, ledgerError("list recurring", err)
		}
		out = append(out, rt)
	}
	return out, nil
}

// AdvanceRecurring patches only the next date.
func (c *Client) AdvanceRecurring(ctx context.Context, id string, next core.Date) error {
	if err := next.Validate(); err != nil {
		return err
	}
	body := map[string]string{"nextDate": next.String()}
	if err := c.do(ctx, http.MethodPatch, "/recurring/"+url.PathEscape(id), body, nil); err != nil {
		return ledgerError("advance recurring", err)
	}
	return nil
}

// ledgerError maps transport failures onto the ledger sentinels.
func ledgerError(op string, err error) error {
	if statusOf(err) == http.StatusNotFound {
		return fmt.Errorf("%s: %w: %w", op, ledger.ErrNotFound, err)
	}
	if errors.Is(err, ledger.ErrPersistence) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ledger.ErrPersistence, err)
}

var _ ledger.Store = (*Client)(nil)
