package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"vida/internal/core"
)

// PostgresStore persists items in an external managed Postgres service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := ensurePostgresSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func ensurePostgresSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS items (
			id UUID PRIMARY KEY,
			owner_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			occurred_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			status TEXT NOT NULL,
			properties JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_items_owner_kind_occurred
			ON items (owner_id, kind, occurred_at DESC);
	`)
	return err
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const pgItemColumns = "id, owner_id, kind, title, description, occurred_at, created_at, status, properties"

func (s *PostgresStore) ListByOwner(ctx context.Context, owner string) ([]core.Item, error) {
	query := "SELECT " + pgItemColumns + " FROM items WHERE owner_id = $1 ORDER BY occurred_at DESC"
	return s.queryItems(ctx, query, owner)
}

func (s *PostgresStore) ListByOwnerKind(ctx context.Context, owner string, kind core.Kind) ([]core.Item, error) {
	query := "SELECT " + pgItemColumns + " FROM items WHERE owner_id = $1 AND kind = $2 ORDER BY occurred_at DESC"
	return s.queryItems(ctx, query, owner, string(kind))
}

func (s *PostgresStore) ListByOwnerKindRange(ctx context.Context, owner string, kind core.Kind, from, to time.Time) ([]core.Item, error) {
	query := "SELECT " + pgItemColumns + ` FROM items
		WHERE owner_id = $1 AND kind = $2 AND occurred_at >= $3 AND occurred_at < $4
		ORDER BY occurred_at DESC`
	return s.queryItems(ctx, query, owner, string(kind), from.UTC(), to.UTC())
}

func (s *PostgresStore) GetItem(ctx context.Context, owner string, id uuid.UUID) (core.Item, error) {
	query := "SELECT " + pgItemColumns + " FROM items WHERE id = $1 AND owner_id = $2"
	row := s.db.QueryRowContext(ctx, query, id, owner)
	it, err := scanPostgresItem(row)
	if err == sql.ErrNoRows {
		return core.Item{}, ErrItemNotFound
	}
	if err != nil {
		return core.Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func (s *PostgresStore) InsertItem(ctx context.Context, it core.Item) (core.Item, error) {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now().UTC()
	}

	props, err := core.EncodeProperties(it.Kind, it.Properties)
	if err != nil {
		return core.Item{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (id, owner_id, kind, title, description, occurred_at, created_at, status, properties)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		it.ID, it.OwnerID, string(it.Kind), it.Title, it.Description,
		it.OccurredAt.UTC(), it.CreatedAt.UTC(), it.Status, string(props))
	if err != nil {
		return core.Item{}, fmt.Errorf("insert item: %w", err)
	}
	return it, nil
}

func (s *PostgresStore) UpdateItem(ctx context.Context, owner string, id uuid.UUID, patch ItemPatch) (core.Item, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 7)
	next := func() string { return "$" + strconv.Itoa(len(args)) }

	if patch.Title != nil {
		args = append(args, *patch.Title)
		sets = append(sets, "title = "+next())
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, "description = "+next())
	}
	if patch.OccurredAt != nil {
		args = append(args, patch.OccurredAt.UTC())
		sets = append(sets, "occurred_at = "+next())
	}
	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, "status = "+next())
	}
	if patch.Properties != nil {
		props, err := core.EncodeProperties(patch.Kind, *patch.Properties)
		if err != nil {
			return core.Item{}, err
		}
		args = append(args, string(props))
		sets = append(sets, "properties = "+next())
	}
	if len(sets) == 0 {
		return s.GetItem(ctx, owner, id)
	}

	args = append(args, id)
	idArg := next()
	args = append(args, owner)
	ownerArg := next()

	// Single statement scoped by id+owner, returning the updated row.
	query := "UPDATE items SET " + strings.Join(sets, ", ") +
		" WHERE id = " + idArg + " AND owner_id = " + ownerArg +
		" RETURNING " + pgItemColumns

	row := s.db.QueryRowContext(ctx, query, args...)
	it, err := scanPostgresItem(row)
	if err == sql.ErrNoRows {
		return core.Item{}, ErrItemNotFound
	}
	if err != nil {
		return core.Item{}, fmt.Errorf("update item: %w", err)
	}
	return it, nil
}

func (s *PostgresStore) DeleteItem(ctx context.Context, owner string, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = $1 AND owner_id = $2", id, owner)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item rows affected: %w", err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (s *PostgresStore) queryItems(ctx context.Context, query string, args ...any) ([]core.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := make([]core.Item, 0)
	for rows.Next() {
		it, err := scanPostgresItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func scanPostgresItem(row rowScanner) (core.Item, error) {
	var (
		it       core.Item
		kindStr  string
		propsStr string
	)
	err := row.Scan(&it.ID, &it.OwnerID, &kindStr, &it.Title, &it.Description,
		&it.OccurredAt, &it.CreatedAt, &it.Status, &propsStr)
	if err != nil {
		return core.Item{}, err
	}

	it.Kind = core.Kind(kindStr)
	it.Properties, err = core.DecodeProperties(it.Kind, []byte(propsStr))
	if err != nil {
		return core.Item{}, err
	}
	return it, nil
}
