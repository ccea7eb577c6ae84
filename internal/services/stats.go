package services

import (
	"time"

	"vida/internal/core"
)

// TaskStats summarizes the caller's tasks.
type TaskStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	DueToday  int `json:"dueToday"`
}

// TransactionStats summarizes the current month's transactions against the
// previous month. Amounts are in cents; PercentageChange is a percentage.
type TransactionStats struct {
	MonthlyBalance       core.Money `json:"monthlyBalance"`
	TotalIncome          core.Money `json:"totalIncome"`
	TotalExpense         core.Money `json:"totalExpense"`
	PreviousMonthBalance core.Money `json:"previousMonthBalance"`
	PercentageChange     float64    `json:"percentageChange"`
}

// ComputeTaskStats reduces a list of task items. Items of other kinds are
// ignored. DueToday counts pending tasks whose occurred_at falls within
// [start of today, start of tomorrow) in the given zone.
func ComputeTaskStats(tasks []core.Item, now time.Time, loc *time.Location) TaskStats {
	dayStart := dayOf(now, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var stats TaskStats
	for _, it := range tasks {
		if it.Kind != core.KindTask {
			continue
		}
		stats.Total++
		switch it.Status {
		case core.StatusPending:
			stats.Pending++
			if !it.OccurredAt.Before(dayStart) && it.OccurredAt.Before(dayEnd) {
				stats.DueToday++
			}
		case core.StatusCompleted:
			stats.Completed++
		}
	}
	return stats
}

// ComputeTransactionStats reduces two already-windowed transaction lists:
// the current month and the previous month. Income is the sum of positive
// amounts, expense the absolute sum of the rest; the previous month
// contributes only its raw signed balance.
func ComputeTransactionStats(current, previous []core.Item) TransactionStats {
	var income, expense int64
	for _, it := range current {
		amount, ok := transactionAmount(it)
		if !ok {
			continue
		}
		if amount > 0 {
			income += amount
		} else {
			expense += -amount
		}
	}
	balance := income - expense

	var prevBalance int64
	for _, it := range previous {
		if amount, ok := transactionAmount(it); ok {
			prevBalance += amount
		}
	}

	return TransactionStats{
		MonthlyBalance:       core.Money{Cents: balance},
		TotalIncome:          core.Money{Cents: income},
		TotalExpense:         core.Money{Cents: expense},
		PreviousMonthBalance: core.Money{Cents: prevBalance},
		PercentageChange:     percentageChange(balance, prevBalance),
	}
}

// percentageChange avoids division by zero while still signaling new
// activity from nothing: no prior balance and any current balance reads as
// exactly 100%.
func percentageChange(balance, prevBalance int64) float64 {
	switch {
	case prevBalance != 0:
		prev := float64(prevBalance)
		if prev < 0 {
			prev = -prev
		}
		return (float64(balance) - float64(prevBalance)) / prev * 100
	case balance != 0:
		return 100
	default:
		return 0
	}
}

func transactionAmount(it core.Item) (int64, bool) {
	if it.Kind != core.KindTransaction || it.Properties.Transaction == nil {
		return 0, false
	}
	return it.Properties.Transaction.Amount.Cents, true
}

// MonthWindows returns the half-open aggregation windows for the current
// and previous calendar months around now, in the given zone.
func MonthWindows(now time.Time, loc *time.Location) (curStart, nextStart, prevStart time.Time) {
	y, m, _ := now.In(loc).Date()
	curStart = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	nextStart = curStart.AddDate(0, 1, 0)
	prevStart = curStart.AddDate(0, -1, 0)
	return curStart, nextStart, prevStart
}
