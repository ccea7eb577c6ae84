package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vida/internal/core"
)

// MemoryStore is an in-memory ItemStore used by tests and dev mode.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]core.Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[uuid.UUID]core.Item)}
}

func (s *MemoryStore) ListByOwner(ctx context.Context, owner string) ([]core.Item, error) {
	return s.list(owner, func(core.Item) bool { return true })
}

func (s *MemoryStore) ListByOwnerKind(ctx context.Context, owner string, kind core.Kind) ([]core.Item, error) {
	return s.list(owner, func(it core.Item) bool { return it.Kind == kind })
}

func (s *MemoryStore) ListByOwnerKindRange(ctx context.Context, owner string, kind core.Kind, from, to time.Time) ([]core.Item, error) {
	return s.list(owner, func(it core.Item) bool {
		return it.Kind == kind && !it.OccurredAt.Before(from) && it.OccurredAt.Before(to)
	})
}

func (s *MemoryStore) list(owner string, keep func(core.Item) bool) ([]core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Item, 0)
	for _, it := range s.items {
		if it.OwnerID == owner && keep(it) {
			out = append(out, it)
		}
	}
	// Newest first, matching the SQL stores.
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out, nil
}

func (s *MemoryStore) GetItem(ctx context.Context, owner string, id uuid.UUID) (core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok || it.OwnerID != owner {
		return core.Item{}, ErrItemNotFound
	}
	return it, nil
}

func (s *MemoryStore) InsertItem(ctx context.Context, it core.Item) (core.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now().UTC()
	}
	s.items[it.ID] = it
	return it, nil
}

func (s *MemoryStore) UpdateItem(ctx context.Context, owner string, id uuid.UUID, patch ItemPatch) (core.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok || it.OwnerID != owner {
		return core.Item{}, ErrItemNotFound
	}

	if patch.Title != nil {
		it.Title = *patch.Title
	}
	if patch.Description != nil {
		it.Description = *patch.Description
	}
	if patch.OccurredAt != nil {
		it.OccurredAt = *patch.OccurredAt
	}
	if patch.Status != nil {
		it.Status = *patch.Status
	}
	if patch.Properties != nil {
		it.Properties = *patch.Properties
	}

	s.items[id] = it
	return it, nil
}

func (s *MemoryStore) DeleteItem(ctx context.Context, owner string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok || it.OwnerID != owner {
		return ErrItemNotFound
	}
	delete(s.items, it.ID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
