package reminders

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	service := NewService(newTestStore(t), nil, testLogger())
	service.clock = storeNow
	return service
}

func TestServiceCreateListDelete(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	confirmation, err := service.CreateReminder(ctx, "alice", "irc/#chat", "stretch", "in 2 hours")
	if err != nil {
		t.Fatalf("create failed: %s", err)
	}
	if !confirmation.DueAt.After(storeNow()) {
		t.Errorf("confirmation due time not in the future: %s", confirmation.DueAt)
	}

	reminders, err := service.ListReminders(ctx, "alice")
	if err != nil {
		t.Fatalf("list failed: %s", err)
	}
	if len(reminders) != 1 || reminders[0].ID != confirmation.ID {
		t.Fatalf("created reminder not listed: %+v", reminders)
	}

	if err := service.DeleteReminder(ctx, confirmation.ID, "bob"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if err := service.DeleteReminder(ctx, confirmation.ID, "alice"); err != nil {
		t.Fatalf("delete failed: %s", err)
	}
	if reminders, _ = service.ListReminders(ctx, "alice"); len(reminders) != 0 {
		t.Errorf("deleted reminder still listed")
	}
}

func TestServiceCreateRejectsBadExpressions(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	var parseErr *ParseError
	_, err := service.CreateReminder(ctx, "alice", "t", "text", "gibberish")
	if !errors.As(err, &parseErr) || parseErr.Kind != Unparseable {
		t.Errorf("expected Unparseable, got %v", err)
	}
	_, err = service.CreateReminder(ctx, "alice", "t", "text", "2019-01-01")
	if !errors.As(err, &parseErr) || parseErr.Kind != PastTime {
		t.Errorf("expected PastTime, got %v", err)
	}
	reminders, _ := service.ListReminders(ctx, "alice")
	if len(reminders) != 0 {
		t.Errorf("failed create persisted a reminder")
	}
}

func TestServiceCreateResolvesAbsoluteTime(t *testing.T) {
	service := newTestService(t)
	now := storeNow()
	service.clock = func() time.Time { return now }

	confirmation, err := service.CreateReminder(
		context.Background(), "alice", "t", "text", now.Add(30*time.Minute).Format("2006-01-02 15:04"))
	if err != nil {
		t.Fatalf("create failed: %s", err)
	}
	want := now.Add(30 * time.Minute).Truncate(time.Minute)
	if !confirmation.DueAt.Equal(want) {
		t.Errorf("due = %s, want %s", confirmation.DueAt, want)
	}
}
