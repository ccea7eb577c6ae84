package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vida/internal/amqp"
	applog "vida/internal/log"
	"vida/internal/sheets"
	"vida/internal/storage"
)

// BackupWorker mirrors item changes into the spreadsheet backup. It
// consumes change events, fetches the current item from the store and
// appends one change-log row per event.
type BackupWorker struct {
	store  storage.ItemStore
	writer sheets.ItemBackupWriter
	logger *applog.Logger
	now    func() time.Time
}

func NewBackupWorker(store storage.ItemStore, writer sheets.ItemBackupWriter) *BackupWorker {
	return &BackupWorker{
		store:  store,
		writer: writer,
		logger: applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker),
		now:    time.Now,
	}
}

// HandleItemEvent processes a single item event.
//
// Deletions append a tombstone built from the message alone, since the
// item is already gone from the store. For creates and updates, an item
// that has vanished by the time the event is consumed means a later
// delete event is in flight; the event is skipped rather than retried.
func (w *BackupWorker) HandleItemEvent(ctx context.Context, msg *amqp.ItemEventMessage) error {
	w.logger.InfoContext(ctx, "Processing item event",
		applog.FieldItemID, msg.ItemID.String(),
		applog.FieldItemAction, msg.Action,
		applog.FieldItemKind, msg.Kind)

	if msg.Action == "deleted" {
		row := sheets.BackupRow{
			RecordedAt: w.now(),
			Action:     msg.Action,
			ItemID:     msg.ItemID.String(),
			OwnerID:    msg.OwnerID,
			Kind:       msg.Kind,
		}
		ref, err := w.writer.Append(ctx, row)
		if err != nil {
			return fmt.Errorf("append tombstone row: %w", err)
		}
		w.logger.InfoContext(ctx, "Appended tombstone row",
			applog.FieldItemID, msg.ItemID.String(),
			applog.FieldRowRef, ref)
		return nil
	}

	it, err := w.store.GetItem(ctx, msg.OwnerID, msg.ItemID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			w.logger.WarnContext(ctx, "Item gone before backup, skipping event",
				applog.FieldItemID, msg.ItemID.String(),
				applog.FieldItemAction, msg.Action)
			return nil
		}
		return fmt.Errorf("get item from storage: %w", err)
	}

	row := sheets.RowFromItem(msg.Action, it, w.now())
	ref, err := w.writer.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("append backup row: %w", err)
	}

	w.logger.InfoContext(ctx, "Appended backup row",
		applog.FieldItemID, msg.ItemID.String(),
		applog.FieldItemAction, msg.Action,
		applog.FieldRowRef, ref)
	return nil
}

// Run consumes item events until ctx is cancelled.
func (w *BackupWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeItemEvents(ctx, func(msg *amqp.ItemEventMessage) error {
		return w.HandleItemEvent(ctx, msg)
	})
}
