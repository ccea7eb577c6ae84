package services

import (
	"time"

	"vida/internal/core"
)

// TimelineGroup is one day's worth of items under a display label.
type TimelineGroup struct {
	Label string      `json:"label"`
	Items []core.Item `json:"items"`
}

// Portuguese month abbreviations for timeline labels ("16 de dez").
var monthAbbrev = [12]string{
	"jan", "fev", "mar", "abr", "mai", "jun",
	"jul", "ago", "set", "out", "nov", "dez",
}

const (
	labelToday     = "Today"
	labelYesterday = "Yesterday"
)

// GroupByDay buckets items by the calendar day of occurred_at in the given
// zone. The zone is fixed by configuration, never the host's local zone, so
// grouping is stable wherever the service runs.
//
// Group order follows the first occurrence of each label while scanning the
// input; items within a group keep their input order. Same-day items that
// arrive non-contiguously merge into the one group for that day.
func GroupByDay(items []core.Item, now time.Time, loc *time.Location) []TimelineGroup {
	today := dayOf(now, loc)
	yesterday := today.AddDate(0, 0, -1)

	groups := make([]TimelineGroup, 0)
	index := make(map[string]int)

	for _, it := range items {
		day := dayOf(it.OccurredAt, loc)

		var label string
		switch {
		case day.Equal(today):
			label = labelToday
		case day.Equal(yesterday):
			label = labelYesterday
		default:
			label = formatDayLabel(day)
		}

		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, TimelineGroup{Label: label})
		}
		groups[i].Items = append(groups[i].Items, it)
	}

	return groups
}

// dayOf truncates a timestamp to midnight of its calendar day in loc.
func dayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func formatDayLabel(day time.Time) string {
	return day.Format("2") + " de " + monthAbbrev[day.Month()-1]
}
