package memory

import (
	"context"
	"fmt"
	"sync"

	"vida/internal/sheets"
)

// Store is an in-memory backup destination for tests and local runs.
type Store struct {
	mu   sync.Mutex
	rows []sheets.BackupRow
}

func New() *Store {
	return &Store{}
}

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, row sheets.BackupRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.BackupRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.BackupRow(nil), s.rows...)
}
