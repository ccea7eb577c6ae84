package services

import (
	"vida/internal/cache"
)

// ViewCaches holds the per-owner caches of derived views. Keys are owner
// ids; every successful mutation invalidates all three for the owner, so a
// read after a write always recomputes from the store.
type ViewCaches struct {
	TaskStats        cache.Cache[TaskStats]
	TransactionStats cache.Cache[TransactionStats]
	Timeline         cache.Cache[[]TimelineGroup]
}

// InvalidateOwner drops every cached view belonging to the owner.
func (v *ViewCaches) InvalidateOwner(owner string) {
	if v == nil {
		return
	}
	if v.TaskStats != nil {
		v.TaskStats.Delete(owner)
	}
	if v.TransactionStats != nil {
		v.TransactionStats.Delete(owner)
	}
	if v.Timeline != nil {
		v.Timeline.Delete(owner)
	}
}
