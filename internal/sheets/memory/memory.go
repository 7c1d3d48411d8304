// Package memory is an in-process sheet used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"chitieu/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []sheets.Row
	seen map[string]int
}

var (
	_ sheets.Exporter    = (*Store)(nil)
	_ sheets.MonthReader = (*Store)(nil)
)

func New() *Store {
	return &Store{seen: make(map[string]int)}
}

// Export stores the row and returns a synthetic row reference. Exporting the
// same transaction twice returns the first reference.
func (s *Store) Export(_ context.Context, r sheets.Row) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.seen[r.ID]; ok {
		return fmt.Sprintf("mem:%d", n), nil
	}
	s.rows = append(s.rows, r)
	s.seen[r.ID] = len(s.rows)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) ReadMonth(_ context.Context, year, month int) (sheets.MonthReport, error) {
	if month < 1 || month > 12 {
		return sheets.MonthReport{}, fmt.Errorf("invalid month: %d", month)
	}
	return sheets.Summarize(year, month, s.Rows()), nil
}

// Rows returns a copy of everything exported so far.
func (s *Store) Rows() []sheets.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Row(nil), s.rows...)
}
