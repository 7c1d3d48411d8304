package workflow

import (
	"context"
	"fmt"

	"chitieu/internal/core"
	"chitieu/internal/ledger"
)

// LedgerSaver saves candidates through a ledger writer, choosing expense or
// income by the candidate type.
type LedgerSaver struct {
	Writer ledger.TransactionWriter
}

func (s LedgerSaver) Save(ctx context.Context, c core.Candidate) (string, error) {
	switch c.Type {
	case core.Expense:
		e, err := s.Writer.CreateExpense(ctx, c.ToExpense())
		if err != nil {
			return "", err
		}
		return e.ID, nil
	case core.Income:
		i, err := s.Writer.CreateIncome(ctx, c.ToIncome())
		if err != nil {
			return "", err
		}
		return i.ID, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrInvalidType, c.Type)
	}
}
