package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"vida/internal/amqp"
	"vida/internal/core"
	"vida/internal/sheets/memory"
	"vida/internal/storage"
)

func seedItem(t *testing.T, store *storage.MemoryStore) core.Item {
	t.Helper()
	it := core.Item{
		ID:         uuid.New(),
		OwnerID:    "u1",
		Kind:       core.KindTransaction,
		Title:      "mercado",
		OccurredAt: time.Date(2025, 12, 16, 9, 0, 0, 0, time.UTC),
		CreatedAt:  time.Now().UTC(),
		Status:     core.StatusPaid,
		Properties: core.Properties{Transaction: &core.TransactionProperties{
			Amount:    core.Money{Cents: -4550},
			Currency:  "BRL",
			Direction: core.DirectionExpense,
			Category:  "food",
		}},
	}
	created, err := store.InsertItem(context.Background(), it)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	return created
}

func TestHandleItemEventAppendsRow(t *testing.T) {
	store := storage.NewMemoryStore()
	writer := memory.New()
	w := NewBackupWorker(store, writer)

	it := seedItem(t, store)

	msg := amqp.NewItemEventMessage(it.ID, it.OwnerID, "created", string(it.Kind))
	if err := w.HandleItemEvent(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	rows := writer.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.ItemID != it.ID.String() || row.Action != "created" {
		t.Errorf("unexpected row: %+v", row)
	}
	if row.Title != "mercado" || row.AmountCents != -4550 {
		t.Errorf("row should carry item fields, got %+v", row)
	}
}

func TestHandleItemEventDeletedWritesTombstone(t *testing.T) {
	store := storage.NewMemoryStore()
	writer := memory.New()
	w := NewBackupWorker(store, writer)

	// The item never existed in the store; a tombstone only needs the
	// message fields.
	id := uuid.New()
	msg := amqp.NewItemEventMessage(id, "u1", "deleted", "note")
	if err := w.HandleItemEvent(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	rows := writer.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Action != "deleted" || rows[0].ItemID != id.String() || rows[0].Kind != "note" {
		t.Errorf("unexpected tombstone: %+v", rows[0])
	}
}

func TestHandleItemEventSkipsVanishedItem(t *testing.T) {
	store := storage.NewMemoryStore()
	writer := memory.New()
	w := NewBackupWorker(store, writer)

	msg := amqp.NewItemEventMessage(uuid.New(), "u1", "updated", "task")
	if err := w.HandleItemEvent(context.Background(), msg); err != nil {
		t.Fatalf("vanished item should be skipped, got %v", err)
	}
	if len(writer.Rows()) != 0 {
		t.Error("no row should be appended for a vanished item")
	}
}
