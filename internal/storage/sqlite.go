package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"vida/internal/core"
)

// SQLiteStore persists items in a local SQLite database. It backs the
// single-user deployment where no external database service is available.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const sqliteItemColumns = "id, owner_id, kind, title, description, occurred_at, created_at, status, properties"

func (s *SQLiteStore) ListByOwner(ctx context.Context, owner string) ([]core.Item, error) {
	query := "SELECT " + sqliteItemColumns + " FROM items WHERE owner_id = ? ORDER BY occurred_at DESC"
	return s.queryItems(ctx, query, owner)
}

func (s *SQLiteStore) ListByOwnerKind(ctx context.Context, owner string, kind core.Kind) ([]core.Item, error) {
	query := "SELECT " + sqliteItemColumns + " FROM items WHERE owner_id = ? AND kind = ? ORDER BY occurred_at DESC"
	return s.queryItems(ctx, query, owner, string(kind))
}

func (s *SQLiteStore) ListByOwnerKindRange(ctx context.Context, owner string, kind core.Kind, from, to time.Time) ([]core.Item, error) {
	query := "SELECT " + sqliteItemColumns + ` FROM items
		WHERE owner_id = ? AND kind = ? AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at DESC`
	return s.queryItems(ctx, query, owner, string(kind), sqliteTime(from), sqliteTime(to))
}

func (s *SQLiteStore) GetItem(ctx context.Context, owner string, id uuid.UUID) (core.Item, error) {
	query := "SELECT " + sqliteItemColumns + " FROM items WHERE id = ? AND owner_id = ?"
	row := s.db.QueryRowContext(ctx, query, id.String(), owner)
	it, err := scanSQLiteItem(row)
	if err == sql.ErrNoRows {
		return core.Item{}, ErrItemNotFound
	}
	if err != nil {
		return core.Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func (s *SQLiteStore) InsertItem(ctx context.Context, it core.Item) (core.Item, error) {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID.String(), it.OwnerID, string(it.Kind), it.Title, it.Description,
		sqliteTime(it.OccurredAt), sqliteTime(it.CreatedAt), it.Status, string(props))
	if err != nil {
		return core.Item{}, fmt.Errorf("insert item: %w", err)
	}
	return it, nil
}

func (s *SQLiteStore) UpdateItem(ctx context.Context, owner string, id uuid.UUID, patch ItemPatch) (core.Item, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 7)

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.OccurredAt != nil {
		sets = append(sets, "occurred_at = ?")
		args = append(args, sqliteTime(*patch.OccurredAt))
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.Properties != nil {
		props, err := core.EncodeProperties(patch.Kind, *patch.Properties)
		if err != nil {
			return core.Item{}, err
		}
		sets = append(sets, "properties = ?")
		args = append(args, string(props))
	}
	if len(sets) == 0 {
		return s.GetItem(ctx, owner, id)
	}

	// Owner scoping lives in the statement itself, not in a prior check.
	query := "UPDATE items SET " + strings.Join(sets, ", ") + " WHERE id = ? AND owner_id = ?"
	args = append(args, id.String(), owner)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.Item{}, fmt.Errorf("update item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Item{}, fmt.Errorf("update item rows affected: %w", err)
	}
	if affected == 0 {
		return core.Item{}, ErrItemNotFound
	}
	return s.GetItem(ctx, owner, id)
}

func (s *SQLiteStore) DeleteItem(ctx context.Context, owner string, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ? AND owner_id = ?", id.String(), owner)
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

func (s *SQLiteStore) queryItems(ctx context.Context, query string, args ...any) ([]core.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := make([]core.Item, 0)
	for rows.Next() {
		it, err := scanSQLiteItem(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteItem(row rowScanner) (core.Item, error) {
	var (
		it                   core.Item
		idStr, kindStr       string
		occurredStr, created string
		propsStr             string
	)
	err := row.Scan(&idStr, &it.OwnerID, &kindStr, &it.Title, &it.Description,
		&occurredStr, &created, &it.Status, &propsStr)
	if err != nil {
		return core.Item{}, err
	}

	it.ID, err = uuid.Parse(idStr)
	if err != nil {
		return core.Item{}, fmt.Errorf("parse item id: %w", err)
	}
	it.Kind = core.Kind(kindStr)
	it.OccurredAt, err = parseSQLiteTime(occurredStr)
	if err != nil {
		return core.Item{}, fmt.Errorf("parse occurred_at: %w", err)
	}
	it.CreatedAt, err = parseSQLiteTime(created)
	if err != nil {
		return core.Item{}, fmt.Errorf("parse created_at: %w", err)
	}
	it.Properties, err = core.DecodeProperties(it.Kind, []byte(propsStr))
	if err != nil {
		return core.Item{}, err
	}
	return it, nil
}

// Fixed-width RFC3339 with nanoseconds. RFC3339Nano trims trailing zeros,
// which breaks lexicographic range comparisons in SQL.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteTime stores timestamps in UTC so lexicographic comparison matches
// chronological order in range queries.
func sqliteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
