package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type (
	// TransactionType tells whether money leaves or enters the wallet.
	TransactionType string

	// Frequency is how often a recurring transaction occurs.
	Frequency string

	// Candidate is a parsed transaction waiting for the user to confirm it.
	// It is never persisted as such; confirming turns it into an
	// ExpenseRecord or IncomeRecord.
	Candidate struct {
		Amount       Money
		Category     string
		Description  string
		Date         Date
		Type         TransactionType
		OriginalText string
	}

	ExpenseRecord struct {
		ID          string
		Amount      Money
		Category    string
		Description string
		Date        Date
		Source      string // "manual", "ai", "recurring"
		CreatedAt   time.Time
	}

	IncomeRecord struct {
		ID          string
		Amount      Money
		Category    string
		Description string
		Date        Date
		Source      string
		CreatedAt   time.Time
	}

	// RecurringTransaction is a template materialized once per period.
	RecurringTransaction struct {
		ID          string
		Type        TransactionType
		Amount      Money
		Category    string
		Frequency   Frequency
		NextDate    Date
		// AnchorDay is the day of month that monthly and yearly schedules
		// aim for after clamping to a shorter month; 0 means NextDate's day.
		AnchorDay   int
		IsActive    bool
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// RecurringFields carries the user-editable part of a recurring record.
	RecurringFields struct {
		Type        TransactionType
		Amount      Money
		Category    string
		Frequency   Frequency
		NextDate    Date
		Description string
	}
)

const (
	SourceManual    = "manual"
	SourceAI        = "ai"
	SourceRecurring = "recurring"
)

const maxDescriptionLength = 200

var (
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrDescriptionLong  = fmt.Errorf("description too long (max %d characters)", maxDescriptionLength)
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == Expense || t == Income
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

// TransactionDate makes records usable with date grouping.
func (e ExpenseRecord) TransactionDate() time.Time { return e.Date.Time }

func (i IncomeRecord) TransactionDate() time.Time { return i.Date.Time }

func (c Candidate) Validate() error {
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	if err := c.Amount.Validate(); err != nil {
		return err
	}
	if !IsCategory(c.Type, c.Category) {
		return fmt.Errorf("%w: %q for %s", ErrInvalidCategory, c.Category, c.Type)
	}
	if err := c.Date.Validate(); err != nil {
		return err
	}
	if len(c.Description) > maxDescriptionLength {
		return ErrDescriptionLong
	}
	return nil
}

// ToExpense converts a confirmed expense candidate into a record ready to be stored.
func (c Candidate) ToExpense() ExpenseRecord {
	return ExpenseRecord{
		Amount:      c.Amount,
		Category:    c.Category,
		Description: strings.TrimSpace(c.Description),
		Date:        c.Date,
		Source:      SourceAI,
	}
}

func (c Candidate) ToIncome() IncomeRecord {
	return IncomeRecord{
		Amount:      c.Amount,
		Category:    c.Category,
		Description: strings.TrimSpace(c.Description),
		Date:        c.Date,
		Source:      SourceAI,
	}
}

func (e ExpenseRecord) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !IsCategory(Expense, e.Category) {
		return fmt.Errorf("%w: %q for expense", ErrInvalidCategory, e.Category)
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(e.Description) > maxDescriptionLength {
		return ErrDescriptionLong
	}
	return nil
}

func (i IncomeRecord) Validate() error {
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if !IsCategory(Income, i.Category) {
		return fmt.Errorf("%w: %q for income", ErrInvalidCategory, i.Category)
	}
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if len(i.Description) > maxDescriptionLength {
		return ErrDescriptionLong
	}
	return nil
}

func (f RecurringFields) Validate() error {
	if !f.Type.Valid() {
		return ErrInvalidType
	}
	if err := f.Amount.Validate(); err != nil {
		return err
	}
	if !IsCategory(f.Type, f.Category) {
		return fmt.Errorf("%w: %q for %s", ErrInvalidCategory, f.Category, f.Type)
	}
	if !f.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if err := f.NextDate.Validate(); err != nil {
		return errors.New("invalid next date: " + err.Error())
	}
	if len(f.Description) > maxDescriptionLength {
		return ErrDescriptionLong
	}
	return nil
}

// Fields returns the editable part of the record.
func (r RecurringTransaction) Fields() RecurringFields {
	return RecurringFields{
		Type:        r.Type,
		Amount:      r.Amount,
		Category:    r.Category,
		Frequency:   r.Frequency,
		NextDate:    r.NextDate,
		Description: r.Description,
	}
}

func (r RecurringTransaction) Validate() error {
	return r.Fields().Validate()
}
