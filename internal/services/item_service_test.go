package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"vida/internal/auth"
	"vida/internal/cache"
	"vida/internal/core"
	"vida/internal/storage"
)

type recordedEvent struct {
	action string
	itemID uuid.UUID
}

type fakePublisher struct {
	events []recordedEvent
	fail   bool
}

func (f *fakePublisher) PublishItemEvent(ctx context.Context, action string, it core.Item) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.events = append(f.events, recordedEvent{action: action, itemID: it.ID})
	return nil
}

func newTestCaches() *ViewCaches {
	return &ViewCaches{
		TaskStats:        cache.NewLRUCache[TaskStats](10, time.Minute),
		TransactionStats: cache.NewLRUCache[TransactionStats](10, time.Minute),
		Timeline:         cache.NewLRUCache[[]TimelineGroup](10, time.Minute),
	}
}

func newTestItemService() (*ItemService, *storage.MemoryStore, *ViewCaches, *fakePublisher) {
	store := storage.NewMemoryStore()
	caches := newTestCaches()
	pub := &fakePublisher{}
	return NewItemService(store, caches, pub), store, caches, pub
}

func TestCreateItemDefaultsStatusByKind(t *testing.T) {
	svc, _, _, _ := newTestItemService()
	ctx := context.Background()
	occurred := time.Date(2025, 12, 16, 9, 0, 0, 0, time.UTC)

	task, err := svc.CreateItem(ctx, "u1", CreateItemInput{
		Kind:       core.KindTask,
		Title:      "buy groceries",
		OccurredAt: occurred,
		Properties: core.Properties{Task: &core.TaskProperties{Priority: core.PriorityHigh}},
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != core.StatusPending {
		t.Errorf("task status = %q, want pending", task.Status)
	}
	if task.ID == uuid.Nil || task.CreatedAt.IsZero() {
		t.Error("created task should have id and created_at assigned")
	}

	tx, err := svc.CreateItem(ctx, "u1", CreateItemInput{
		Kind:       core.KindTransaction,
		Title:      "salary",
		OccurredAt: occurred,
		Properties: core.Properties{Transaction: &core.TransactionProperties{
			Amount: core.Money{Cents: 500000}, Currency: "BRL",
			Direction: core.DirectionIncome, Category: "salary",
		}},
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if tx.Status != core.StatusPaid {
		t.Errorf("transaction status = %q, want paid", tx.Status)
	}
}

func TestCreateItemRejectsMismatchedProperties(t *testing.T) {
	svc, _, _, _ := newTestItemService()

	_, err := svc.CreateItem(context.Background(), "u1", CreateItemInput{
		Kind:       core.KindTransaction,
		Title:      "wrong shape",
		OccurredAt: time.Now(),
		Properties: core.Properties{Task: &core.TaskProperties{Priority: core.PriorityLow}},
	})
	if !errors.Is(err, core.ErrPropertiesMismatch) {
		t.Fatalf("got %v, want ErrPropertiesMismatch", err)
	}
}

func TestOperationsRequireAuthentication(t *testing.T) {
	svc, _, _, _ := newTestItemService()
	ctx := context.Background()
	id := uuid.New()

	if _, err := svc.ListItems(ctx, ""); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Errorf("ListItems: got %v, want ErrNotAuthenticated", err)
	}
	if _, err := svc.CreateItem(ctx, "", CreateItemInput{}); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Errorf("CreateItem: got %v, want ErrNotAuthenticated", err)
	}
	if _, err := svc.UpdateItem(ctx, "", id, UpdateItemInput{}); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Errorf("UpdateItem: got %v, want ErrNotAuthenticated", err)
	}
	if err := svc.DeleteItem(ctx, "", id); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Errorf("DeleteItem: got %v, want ErrNotAuthenticated", err)
	}
	if _, err := svc.ToggleTaskComplete(ctx, "", id); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Errorf("ToggleTaskComplete: got %v, want ErrNotAuthenticated", err)
	}
}

func TestUpdateItemForeignOwnerIsNotFound(t *testing.T) {
	svc, _, _, _ := newTestItemService()
	ctx := context.Background()

	theirs, err := svc.CreateItem(ctx, "bob", CreateItemInput{
		Kind:       core.KindNote,
		Title:      "bob's note",
		OccurredAt: time.Now(),
		Properties: core.Properties{Note: &core.NoteProperties{}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "stolen"
	_, err = svc.UpdateItem(ctx, "alice", theirs.ID, UpdateItemInput{Title: &title})
	if !errors.Is(err, storage.ErrItemNotFound) {
		t.Fatalf("got %v, want ErrItemNotFound (never a permission error)", err)
	}
}

func TestUpdateItemRejectsInconsistentTaskState(t *testing.T) {
	svc, _, _, _ := newTestItemService()
	ctx := context.Background()

	task, err := svc.CreateItem(ctx, "u1", CreateItemInput{
		Kind:       core.KindTask,
		Title:      "task",
		OccurredAt: time.Now(),
		Properties: core.Properties{Task: &core.TaskProperties{Priority: core.PriorityLow}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Setting status completed without checking the box would split the
	// status/is_checked pair.
	completed := core.StatusCompleted
	if _, err := svc.UpdateItem(ctx, "u1", task.ID, UpdateItemInput{Status: &completed}); err == nil {
		t.Fatal("expected validation error for status without is_checked")
	}
}

func TestToggleTaskCompleteIsItsOwnInverse(t *testing.T) {
	svc, _, _, _ := newTestItemService()
	ctx := context.Background()

	task, err := svc.CreateItem(ctx, "u1", CreateItemInput{
		Kind:       core.KindTask,
		Title:      "task",
		OccurredAt: time.Now(),
		Properties: core.Properties{Task: &core.TaskProperties{Priority: core.PriorityLow}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	once, err := svc.ToggleTaskComplete(ctx, "u1", task.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if once.Status != core.StatusCompleted || !once.Properties.Task.IsChecked {
		t.Fatalf("after one toggle: status=%q checked=%v", once.Status, once.Properties.Task.IsChecked)
	}

	twice, err := svc.ToggleTaskComplete(ctx, "u1", task.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if twice.Status != task.Status || twice.Properties.Task.IsChecked != task.Properties.Task.IsChecked {
		t.Fatalf("two toggles should restore the original pair, got status=%q checked=%v",
			twice.Status, twice.Properties.Task.IsChecked)
	}
}

func TestToggleTaskCompleteRejectsNonTasks(t *testing.T) {
	svc, _, _, _ := newTestItemService()
	ctx := context.Background()

	note, err := svc.CreateItem(ctx, "u1", CreateItemInput{
		Kind:       core.KindNote,
		Title:      "note",
		OccurredAt: time.Now(),
		Properties: core.Properties{Note: &core.NoteProperties{}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.ToggleTaskComplete(ctx, "u1", note.ID); !errors.Is(err, storage.ErrItemNotFound) {
		t.Fatalf("got %v, want ErrItemNotFound", err)
	}
}

func TestMutationsInvalidateCachedViews(t *testing.T) {
	svc, _, caches, _ := newTestItemService()
	ctx := context.Background()

	// Seed stale derived views for the owner.
	caches.TaskStats.Set("u1", TaskStats{Total: 99})
	caches.TransactionStats.Set("u1", TransactionStats{})
	caches.Timeline.Set("u1", []TimelineGroup{{Label: "stale"}})

	_, err := svc.CreateItem(ctx, "u1", CreateItemInput{
		Kind:       core.KindNote,
		Title:      "note",
		OccurredAt: time.Now(),
		Properties: core.Properties{Note: &core.NoteProperties{}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, ok := caches.TaskStats.Get("u1"); ok {
		t.Error("task stats cache should be invalidated after mutation")
	}
	if _, ok := caches.TransactionStats.Get("u1"); ok {
		t.Error("transaction stats cache should be invalidated after mutation")
	}
	if _, ok := caches.Timeline.Get("u1"); ok {
		t.Error("timeline cache should be invalidated after mutation")
	}
}

func TestMutationsPublishEventsBestEffort(t *testing.T) {
	svc, _, _, pub := newTestItemService()
	ctx := context.Background()

	it, err := svc.CreateItem(ctx, "u1", CreateItemInput{
		Kind:       core.KindNote,
		Title:      "note",
		OccurredAt: time.Now(),
		Properties: core.Properties{Note: &core.NoteProperties{}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteItem(ctx, "u1", it.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	if pub.events[0].action != ActionCreated || pub.events[1].action != ActionDeleted {
		t.Fatalf("unexpected actions: %+v", pub.events)
	}

	// A failing broker must not fail the mutation itself.
	pub.fail = true
	if _, err := svc.CreateItem(ctx, "u1", CreateItemInput{
		Kind:       core.KindNote,
		Title:      "another",
		OccurredAt: time.Now(),
		Properties: core.Properties{Note: &core.NoteProperties{}},
	}); err != nil {
		t.Fatalf("create with failing publisher: %v", err)
	}
}
