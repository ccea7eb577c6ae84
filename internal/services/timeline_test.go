package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"vida/internal/core"
)

// Fixed -03:00 offset matching the configured Brazil zone.
var spZone = time.FixedZone("-03", -3*60*60)

func noteAt(occurred time.Time) core.Item {
	return core.Item{
		ID:         uuid.New(),
		OwnerID:    "u1",
		Kind:       core.KindNote,
		Title:      "note",
		OccurredAt: occurred,
		Status:     core.StatusPending,
		Properties: core.Properties{Note: &core.NoteProperties{}},
	}
}

func TestGroupByDayTodayYesterday(t *testing.T) {
	// now = 2025-12-16 in the fixed zone.
	now := time.Date(2025, 12, 16, 12, 0, 0, 0, spZone)

	today := noteAt(time.Date(2025, 12, 16, 9, 0, 0, 0, spZone))
	yesterday := noteAt(time.Date(2025, 12, 15, 23, 30, 0, 0, spZone))
	older := noteAt(time.Date(2025, 12, 10, 8, 0, 0, 0, spZone))

	groups := GroupByDay([]core.Item{today, yesterday, older}, now, spZone)

	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	wantLabels := []string{"Today", "Yesterday", "10 de dez"}
	for i, want := range wantLabels {
		if groups[i].Label != want {
			t.Errorf("groups[%d].Label = %q, want %q", i, groups[i].Label, want)
		}
	}
}

func TestGroupByDayFixedZoneIndependentOfHostZone(t *testing.T) {
	// 2025-12-17T01:00Z is still 2025-12-16 22:00 in the -03 zone, so an
	// aggregator running in UTC must still file it under Today.
	now := time.Date(2025, 12, 16, 12, 0, 0, 0, spZone)
	late := noteAt(time.Date(2025, 12, 17, 1, 0, 0, 0, time.UTC))

	groups := GroupByDay([]core.Item{late}, now, spZone)
	if len(groups) != 1 || groups[0].Label != "Today" {
		t.Fatalf("expected single Today group, got %+v", labelsOf(groups))
	}
}

func TestGroupByDayMergesNonContiguousSameDay(t *testing.T) {
	now := time.Date(2025, 12, 16, 12, 0, 0, 0, spZone)

	a := noteAt(time.Date(2025, 12, 14, 9, 0, 0, 0, spZone))
	b := noteAt(time.Date(2025, 12, 15, 9, 0, 0, 0, spZone))
	c := noteAt(time.Date(2025, 12, 14, 18, 0, 0, 0, spZone))

	// Same-day items arriving apart still end up in one group, keyed by
	// label rather than scan position.
	groups := GroupByDay([]core.Item{a, b, c}, now, spZone)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %v", labelsOf(groups))
	}
	// First-occurrence order: 14 de dez was seen first.
	if groups[0].Label != "14 de dez" || groups[1].Label != "Yesterday" {
		t.Fatalf("unexpected label order: %v", labelsOf(groups))
	}
	if len(groups[0].Items) != 2 {
		t.Fatalf("expected both dec 14 items merged, got %d", len(groups[0].Items))
	}
	// Intra-group order follows the input.
	if groups[0].Items[0].ID != a.ID || groups[0].Items[1].ID != c.ID {
		t.Fatal("intra-group order should follow input order")
	}
}

func TestGroupByDayMembershipStableUnderPermutation(t *testing.T) {
	now := time.Date(2025, 12, 16, 12, 0, 0, 0, spZone)

	items := []core.Item{
		noteAt(time.Date(2025, 12, 16, 8, 0, 0, 0, spZone)),
		noteAt(time.Date(2025, 12, 16, 10, 0, 0, 0, spZone)),
		noteAt(time.Date(2025, 12, 15, 9, 0, 0, 0, spZone)),
	}
	permuted := []core.Item{items[2], items[1], items[0]}

	membership := func(groups []TimelineGroup) map[string]map[uuid.UUID]bool {
		out := make(map[string]map[uuid.UUID]bool)
		for _, g := range groups {
			set := make(map[uuid.UUID]bool)
			for _, it := range g.Items {
				set[it.ID] = true
			}
			out[g.Label] = set
		}
		return out
	}

	a := membership(GroupByDay(items, now, spZone))
	b := membership(GroupByDay(permuted, now, spZone))

	if len(a) != len(b) {
		t.Fatalf("group count differs: %d vs %d", len(a), len(b))
	}
	for label, set := range a {
		other, ok := b[label]
		if !ok || len(set) != len(other) {
			t.Fatalf("label %q membership differs", label)
		}
		for id := range set {
			if !other[id] {
				t.Fatalf("item %s moved out of label %q", id, label)
			}
		}
	}
}

func labelsOf(groups []TimelineGroup) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Label
	}
	return out
}
