package apiclient

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"chitieu/internal/core"
)

// Wire shapes of the backend. Amounts travel as JSON numbers.

type transactionDTO struct {
	ID          string      `json:"id,omitempty"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description,omitempty"`
	Date        string      `json:"date,omitempty"`
	Type        string      `json:"type,omitempty"`
	Source      string      `json:"source,omitempty"`
	CreatedAt   string      `json:"createdAt,omitempty"`
}

type recurringDTO struct {
	ID          string      `json:"id,omitempty"`
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Frequency   string      `json:"frequency"`
	NextDate    string      `json:"nextDate"`
	IsActive    *bool       `json:"isActive,omitempty"`
	Description string      `json:"description,omitempty"`
	CreatedAt   string      `json:"createdAt,omitempty"`
	UpdatedAt   string      `json:"updatedAt,omitempty"`
}

type parsedDTO struct {
	Amount       json.Number `json:"amount"`
	Category     string      `json:"category"`
	Description  string      `json:"description"`
	Date         string      `json:"date"`
	Type         string      `json:"type"`
	OriginalText string      `json:"originalText"`
}

type page[T any] struct {
	Data []T `json:"data"`
	Meta struct {
		Page        int  `json:"page"`
		TotalPages  int  `json:"totalPages"`
		HasNextPage bool `json:"hasNextPage"`
	} `json:"meta"`
}

func amountOf(n json.Number) (core.Money, error) {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return core.Money{}, fmt.Errorf("amount %q: %w", n, err)
	}
	return core.MoneyFrom(d), nil
}

func number(m core.Money) json.Number {
	return json.Number(m.Amount.String())
}

// optionalDate parses an empty string as the zero date.
func optionalDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

func optionalTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d transactionDTO) expense() (core.ExpenseRecord, error) {
	amount, err := amountOf(d.Amount)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	date, err := optionalDate(d.Date)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	return core.ExpenseRecord{
		ID:          d.ID,
		Amount:      amount,
		Category:    d.Category,
		Description: d.Description,
		Date:        date,
		Source:      d.Source,
		CreatedAt:   optionalTime(d.CreatedAt),
	}, nil
}

func (d transactionDTO) income() (core.IncomeRecord, error) {
	e, err := d.expense()
	if err != nil {
		return core.IncomeRecord{}, err
	}
	return core.IncomeRecord(e), nil
}

func (d recurringDTO) record() (core.RecurringTransaction, error) {
	amount, err := amountOf(d.Amount)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	next, err := optionalDate(d.NextDate)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	return core.RecurringTransaction{
		ID:          d.ID,
		Type:        core.TransactionType(d.Type),
		Amount:      amount,
		Category:    d.Category,
		Frequency:   core.Frequency(d.Frequency),
		NextDate:    next,
		IsActive:    d.IsActive == nil || *d.IsActive,
		Description: d.Description,
		CreatedAt:   optionalTime(d.CreatedAt),
		UpdatedAt:   optionalTime(d.UpdatedAt),
	}, nil
}

func recurringBody(f core.RecurringFields) recurringDTO {
	return recurringDTO{
		Type:        string(f.Type),
		Amount:      number(f.Amount),
		Category:    f.Category,
		Frequency:   string(f.Frequency),
		NextDate:    f.NextDate.String(),
		Description: f.Description,
	}
}

func (d parsedDTO) candidate() (core.Candidate, error) {
	amount, err := amountOf(d.Amount)
	if err != nil {
		return core.Candidate{}, err
	}
	date, err := optionalDate(d.Date)
	if err != nil {
		return core.Candidate{}, err
	}
	return core.Candidate{
		Amount:       amount,
		Category:     d.Category,
		Description:  d.Description,
		Date:         date,
		Type:         core.TransactionType(d.Type),
		OriginalText: d.OriginalText,
	}, nil
}
