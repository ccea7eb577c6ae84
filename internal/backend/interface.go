package backend

import (
	"context"

	"vida/internal/storage"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result contains the item store and optional cleanup function.
type Result struct {
	Store   storage.ItemStore
	Cleanup CleanupFunc
}

// Factory creates item stores based on configuration.
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for store creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string
}

// Type selects the storage backend.
type Type string

const (
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
	MemoryBackend   Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
