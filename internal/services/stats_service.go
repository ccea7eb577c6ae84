package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"vida/internal/auth"
	"vida/internal/core"
	"vida/internal/storage"
)

// StatsService computes derived views: task counts, monthly transaction
// rollups and the day-grouped timeline. Reads are cached per owner; the
// mutation service invalidates on every write.
type StatsService struct {
	store  storage.ItemStore
	caches *ViewCaches
	loc    *time.Location
	now    func() time.Time
}

func NewStatsService(store storage.ItemStore, caches *ViewCaches, loc *time.Location) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsService{
		store:  store,
		caches: caches,
		loc:    loc,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Tests use this to fix "today".
func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

// TaskStats returns the owner's task counters.
func (s *StatsService) TaskStats(ctx context.Context, owner string) (TaskStats, error) {
	if owner == "" {
		return TaskStats{}, auth.ErrNotAuthenticated
	}

	if s.caches != nil && s.caches.TaskStats != nil {
		if cached, ok := s.caches.TaskStats.Get(owner); ok {
			return cached, nil
		}
	}

	tasks, err := s.store.ListByOwnerKind(ctx, owner, core.KindTask)
	if err != nil {
		return TaskStats{}, fmt.Errorf("list tasks: %w", err)
	}

	stats := ComputeTaskStats(tasks, s.now(), s.loc)
	if s.caches != nil && s.caches.TaskStats != nil {
		s.caches.TaskStats.Set(owner, stats)
	}
	return stats, nil
}

// TransactionStats returns the owner's monthly rollup. The two disjoint
// month windows are fetched concurrently; a failure in either aborts the
// whole computation, there are no partial stats.
func (s *StatsService) TransactionStats(ctx context.Context, owner string) (TransactionStats, error) {
	if owner == "" {
		return TransactionStats{}, auth.ErrNotAuthenticated
	}

	if s.caches != nil && s.caches.TransactionStats != nil {
		if cached, ok := s.caches.TransactionStats.Get(owner); ok {
			return cached, nil
		}
	}

	curStart, nextStart, prevStart := MonthWindows(s.now(), s.loc)

	var current, previous []core.Item
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.store.ListByOwnerKindRange(gctx, owner, core.KindTransaction, curStart, nextStart)
		if err != nil {
			return fmt.Errorf("list current month transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		previous, err = s.store.ListByOwnerKindRange(gctx, owner, core.KindTransaction, prevStart, curStart)
		if err != nil {
			return fmt.Errorf("list previous month transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return TransactionStats{}, err
	}

	stats := ComputeTransactionStats(current, previous)
	if s.caches != nil && s.caches.TransactionStats != nil {
		s.caches.TransactionStats.Set(owner, stats)
	}
	return stats, nil
}

// Timeline returns the owner's items grouped by calendar day.
func (s *StatsService) Timeline(ctx context.Context, owner string) ([]TimelineGroup, error) {
	if owner == "" {
		return nil, auth.ErrNotAuthenticated
	}

	if s.caches != nil && s.caches.Timeline != nil {
		if cached, ok := s.caches.Timeline.Get(owner); ok {
			return cached, nil
		}
	}

	items, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	groups := GroupByDay(items, s.now(), s.loc)
	if s.caches != nil && s.caches.Timeline != nil {
		s.caches.Timeline.Set(owner, groups)
	}
	return groups, nil
}
