package sheets

import (
	"context"
	"time"

	"vida/internal/core"
)

// BackupRow is one appended line of the spreadsheet backup. The backup is
// an append-only change log, so deletions show up as tombstone rows rather
// than removed ones.
type BackupRow struct {
	RecordedAt  time.Time
	Action      string
	ItemID      string
	OwnerID     string
	Kind        string
	Title       string
	Status      string
	OccurredAt  time.Time
	AmountCents int64 // zero unless the item is a transaction
}

// ItemBackupWriter is the outbound port for the backup destination.
type ItemBackupWriter interface {
	Append(ctx context.Context, row BackupRow) (rowRef string, err error)
}

// RowFromItem builds the backup row for an item change.
func RowFromItem(action string, it core.Item, at time.Time) BackupRow {
	row := BackupRow{
		RecordedAt: at,
		Action:     action,
		ItemID:     it.ID.String(),
		OwnerID:    it.OwnerID,
		Kind:       string(it.Kind),
		Title:      it.Title,
		Status:     it.Status,
		OccurredAt: it.OccurredAt,
	}
	if it.Properties.Transaction != nil {
		row.AmountCents = it.Properties.Transaction.Amount.Cents
	}
	return row
}
