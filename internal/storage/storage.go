package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"vida/internal/core"
)

// ErrItemNotFound covers both a missing item and an ownership mismatch.
// Callers cannot tell the two apart, so record existence never leaks.
var ErrItemNotFound = errors.New("item not found")

// ItemPatch describes a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Title       *string
	Description *string
	OccurredAt  *time.Time
	Status      *string
	Properties  *core.Properties

	// Kind of the item being patched. Required when Properties is set so
	// the payload can be encoded for storage; the kind itself never changes.
	Kind core.Kind
}

// IsEmpty returns true when the patch would change nothing.
func (p ItemPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.OccurredAt == nil &&
		p.Status == nil && p.Properties == nil
}

// ItemStore is the owner-scoped query interface over the items collection.
// Every read and write filters by owner; Update and Delete are single
// statements scoped by id+owner so there is no check-then-act window.
type ItemStore interface {
	ListByOwner(ctx context.Context, owner string) ([]core.Item, error)
	ListByOwnerKind(ctx context.Context, owner string, kind core.Kind) ([]core.Item, error)
	// ListByOwnerKindRange filters occurred_at to the half-open window [from, to).
	ListByOwnerKindRange(ctx context.Context, owner string, kind core.Kind, from, to time.Time) ([]core.Item, error)
	GetItem(ctx context.Context, owner string, id uuid.UUID) (core.Item, error)
	InsertItem(ctx context.Context, it core.Item) (core.Item, error)
	UpdateItem(ctx context.Context, owner string, id uuid.UUID, patch ItemPatch) (core.Item, error)
	DeleteItem(ctx context.Context, owner string, id uuid.UUID) error
	Close() error
}
