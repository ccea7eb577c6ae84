package backend

import (
	"context"
	"fmt"
	"log/slog"

	"vida/internal/storage"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateStore implements Factory.CreateStore.
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteStore(config)
	case PostgresBackend:
		return f.createPostgresStore(ctx, config)
	case MemoryBackend:
		return f.createMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteStore(config Config) (*Result, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)

	return &Result{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresStore(ctx context.Context, config Config) (*Result, error) {
	store, err := storage.NewPostgresStore(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
	}

	f.logger.Info("Initialized Postgres store")

	return &Result{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryStore() (*Result, error) {
	store := storage.NewMemoryStore()

	f.logger.Info("Initialized in-memory store")

	return &Result{
		Store:   store,
		Cleanup: nil,
	}, nil
}
