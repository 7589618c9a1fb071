package reminders

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("can't open test database: %s", err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("can't create store: %s", err)
	}
	return store
}

// Second precision, local zone: what survives a storage round trip.
func storeNow() time.Time {
	return time.Now().In(time.Local).Truncate(time.Second)
}

func TestStoreCreateAndListPending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := storeNow()

	later, err := store.Create(ctx, "alice", "irc/#chat", "water plants", now.Add(2*time.Hour), now)
	if err != nil {
		t.Fatalf("create failed: %s", err)
	}
	sooner, err := store.Create(ctx, "alice", "irc/#chat", "stand up", now.Add(time.Hour), now)
	if err != nil {
		t.Fatalf("create failed: %s", err)
	}
	if _, err := store.Create(ctx, "bob", "irc/#chat", "bob's own", now.Add(time.Hour), now); err != nil {
		t.Fatalf("create failed: %s", err)
	}

	pending, err := store.ListPending(ctx, "alice")
	if err != nil {
		t.Fatalf("list failed: %s", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending reminders, got %d", len(pending))
	}
	if pending[0].ID != sooner || pending[1].ID != later {
		t.Errorf("pending not ordered by due time: %d, %d", pending[0].ID, pending[1].ID)
	}
	if pending[0].Text != "stand up" || pending[0].OwnerID != "alice" || pending[0].Sent {
		t.Errorf("unexpected reminder contents: %+v", pending[0])
	}
	if !pending[0].DueAt.Equal(now.Add(time.Hour)) {
		t.Errorf("due time did not survive the round trip: %s", pending[0].DueAt)
	}
}

func TestStoreCreateRejectsNonFutureDue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := storeNow()

	if _, err := store.Create(ctx, "alice", "t", "text", now, now); !errors.Is(err, ErrInvalidReminder) {
		t.Fatalf("expected ErrInvalidReminder, got %v", err)
	}
	if _, err := store.Create(ctx, "alice", "t", "text", now.Add(-time.Minute), now); !errors.Is(err, ErrInvalidReminder) {
		t.Fatalf("expected ErrInvalidReminder, got %v", err)
	}
	pending, err := store.ListPending(ctx, "alice")
	if err != nil {
		t.Fatalf("list failed: %s", err)
	}
	if len(pending) != 0 {
		t.Errorf("rejected create persisted %d rows", len(pending))
	}
}

func TestStoreDeleteOwnership(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := storeNow()

	id, err := store.Create(ctx, "alice", "t", "text", now.Add(time.Hour), now)
	if err != nil {
		t.Fatalf("create failed: %s", err)
	}

	if err := store.Delete(ctx, 999, "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, id, "mallory"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	// The failed delete left the row untouched.
	pending, _ := store.ListPending(ctx, "alice")
	if len(pending) != 1 {
		t.Fatalf("reminder vanished after denied delete")
	}
	if err := store.Delete(ctx, id, "alice"); err != nil {
		t.Fatalf("owner delete failed: %s", err)
	}
	if pending, _ = store.ListPending(ctx, "alice"); len(pending) != 0 {
		t.Errorf("reminder still listed after delete")
	}
}

func TestStoreDueAndMarkSent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := storeNow()

	past, _ := store.Create(ctx, "alice", "t", "overdue", now.Add(-time.Hour), now.Add(-2*time.Hour))
	atNow, _ := store.Create(ctx, "alice", "t", "due right now", now, now.Add(-time.Hour))
	if _, err := store.Create(ctx, "alice", "t", "future", now.Add(time.Hour), now); err != nil {
		t.Fatalf("create failed: %s", err)
	}

	due, err := store.Due(ctx, now)
	if err != nil {
		t.Fatalf("due query failed: %s", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due reminders, got %d", len(due))
	}
	if due[0].ID != past || due[1].ID != atNow {
		t.Errorf("due not ordered by due time: %d, %d", due[0].ID, due[1].ID)
	}

	// Once marked sent, a reminder never shows up as due again.
	if err := store.MarkSent(ctx, past); err != nil {
		t.Fatalf("mark sent failed: %s", err)
	}
	if err := store.MarkSent(ctx, past); err != nil {
		t.Fatalf("mark sent is not idempotent: %s", err)
	}
	due, _ = store.Due(ctx, now.Add(24*time.Hour))
	for _, r := range due {
		if r.ID == past {
			t.Errorf("sent reminder returned by due query")
		}
	}
}
