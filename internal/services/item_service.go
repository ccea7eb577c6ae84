package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vida/internal/auth"
	"vida/internal/core"
	"vida/internal/storage"
)

// EventPublisher publishes item change events for downstream consumers
// (the backup worker). Implemented by amqp.Client.
type EventPublisher interface {
	PublishItemEvent(ctx context.Context, action string, it core.Item) error
}

// Item event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// CreateItemInput carries the caller-supplied fields of a new item.
type CreateItemInput struct {
	Kind        core.Kind
	Title       string
	Description string
	OccurredAt  time.Time
	Properties  core.Properties
}

// UpdateItemInput is a partial update; nil fields are left untouched.
type UpdateItemInput struct {
	Title       *string
	Description *string
	OccurredAt  *time.Time
	Status      *string
	Properties  *core.Properties
}

// ItemService applies all item mutations. Every operation takes the
// authenticated owner explicitly; an empty owner short-circuits as an
// authentication error before anything touches the store.
type ItemService struct {
	store  storage.ItemStore
	caches *ViewCaches
	events EventPublisher
}

func NewItemService(store storage.ItemStore, caches *ViewCaches, events EventPublisher) *ItemService {
	return &ItemService{
		store:  store,
		caches: caches,
		events: events,
	}
}

// ListItems returns every item owned by the caller, newest first.
func (s *ItemService) ListItems(ctx context.Context, owner string) ([]core.Item, error) {
	if owner == "" {
		return nil, auth.ErrNotAuthenticated
	}
	items, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// GetItem returns a single item owned by the caller.
func (s *ItemService) GetItem(ctx context.Context, owner string, id uuid.UUID) (core.Item, error) {
	if owner == "" {
		return core.Item{}, auth.ErrNotAuthenticated
	}
	return s.store.GetItem(ctx, owner, id)
}

// CreateItem validates the payload shape against the kind, assigns the
// kind's default status and persists the item.
func (s *ItemService) CreateItem(ctx context.Context, owner string, in CreateItemInput) (core.Item, error) {
	if owner == "" {
		return core.Item{}, auth.ErrNotAuthenticated
	}

	it := core.Item{
		ID:          uuid.New(),
		OwnerID:     owner,
		Kind:        in.Kind,
		Title:       in.Title,
		Description: in.Description,
		OccurredAt:  in.OccurredAt,
		CreatedAt:   time.Now().UTC(),
		Status:      in.Kind.DefaultStatus(),
		Properties:  in.Properties,
	}
	if err := it.Validate(); err != nil {
		return core.Item{}, err
	}

	created, err := s.store.InsertItem(ctx, it)
	if err != nil {
		return core.Item{}, fmt.Errorf("insert item: %w", err)
	}

	s.afterMutation(ctx, ActionCreated, created)
	return created, nil
}

// UpdateItem applies a partial update. The store statement itself is
// scoped by id+owner, so a foreign id reports not-found without a separate
// ownership check racing against the write.
func (s *ItemService) UpdateItem(ctx context.Context, owner string, id uuid.UUID, in UpdateItemInput) (core.Item, error) {
	if owner == "" {
		return core.Item{}, auth.ErrNotAuthenticated
	}

	// Read the current item to validate the merged result. This read is
	// validation only; ownership enforcement stays inside the update
	// statement below.
	existing, err := s.store.GetItem(ctx, owner, id)
	if err != nil {
		return core.Item{}, err
	}

	merged := existing
	if in.Title != nil {
		merged.Title = *in.Title
	}
	if in.Description != nil {
		merged.Description = *in.Description
	}
	if in.OccurredAt != nil {
		merged.OccurredAt = *in.OccurredAt
	}
	if in.Status != nil {
		merged.Status = *in.Status
	}
	if in.Properties != nil {
		merged.Properties = *in.Properties
	}
	if err := merged.Validate(); err != nil {
		return core.Item{}, err
	}

	updated, err := s.store.UpdateItem(ctx, owner, id, storage.ItemPatch{
		Title:       in.Title,
		Description: in.Description,
		OccurredAt:  in.OccurredAt,
		Status:      in.Status,
		Properties:  in.Properties,
		Kind:        existing.Kind,
	})
	if err != nil {
		return core.Item{}, err
	}

	s.afterMutation(ctx, ActionUpdated, updated)
	return updated, nil
}

// DeleteItem removes the item. There is no soft delete.
func (s *ItemService) DeleteItem(ctx context.Context, owner string, id uuid.UUID) error {
	if owner == "" {
		return auth.ErrNotAuthenticated
	}

	it, err := s.store.GetItem(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, owner, id); err != nil {
		return err
	}

	s.afterMutation(ctx, ActionDeleted, it)
	return nil
}

// ToggleTaskComplete flips a task between pending and completed. Status and
// is_checked always move together in one scoped update statement.
func (s *ItemService) ToggleTaskComplete(ctx context.Context, owner string, id uuid.UUID) (core.Item, error) {
	if owner == "" {
		return core.Item{}, auth.ErrNotAuthenticated
	}

	it, err := s.store.GetItem(ctx, owner, id)
	if err != nil {
		return core.Item{}, err
	}
	if it.Kind != core.KindTask || it.Properties.Task == nil {
		// A non-task id behaves like a missing one.
		return core.Item{}, storage.ErrItemNotFound
	}

	newStatus := core.StatusPending
	if it.Status != core.StatusCompleted {
		newStatus = core.StatusCompleted
	}
	newProps := core.Properties{Task: &core.TaskProperties{
		IsChecked:        !it.Properties.Task.IsChecked,
		Priority:         it.Properties.Task.Priority,
		EstimatedMinutes: it.Properties.Task.EstimatedMinutes,
	}}

	updated, err := s.store.UpdateItem(ctx, owner, id, storage.ItemPatch{
		Status:     &newStatus,
		Properties: &newProps,
		Kind:       core.KindTask,
	})
	if err != nil {
		return core.Item{}, err
	}

	s.afterMutation(ctx, ActionUpdated, updated)
	return updated, nil
}

// afterMutation invalidates the owner's derived views and publishes the
// change event. Publishing is best effort: the item is already persisted,
// so a broker failure only degrades the backup and is logged, never
// returned.
func (s *ItemService) afterMutation(ctx context.Context, action string, it core.Item) {
	s.caches.InvalidateOwner(it.OwnerID)

	if s.events == nil {
		return
	}
	if err := s.events.PublishItemEvent(ctx, action, it); err != nil {
		slog.ErrorContext(ctx, "Failed to publish item event",
			"action", action,
			"item_id", it.ID.String(),
			"kind", string(it.Kind),
			"error", err)
	}
}
