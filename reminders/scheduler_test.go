package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type fakeSink struct {
	mutex sync.Mutex
	ready bool
	fail  error
	sends []fakeSend
}

type fakeSend struct {
	target, text, owner string
}

func (sink *fakeSink) Send(targetID, text, ownerID string) error {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	sink.sends = append(sink.sends, fakeSend{targetID, text, ownerID})
	return sink.fail
}

func (sink *fakeSink) Ready() bool {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	return sink.ready
}

func (sink *fakeSink) setReady(ready bool) {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	sink.ready = ready
}

func (sink *fakeSink) sent() []fakeSend {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	return append([]fakeSend(nil), sink.sends...)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestSchedulerDeliversEachReminderOnce(t *testing.T) {
	store := newTestStore(t)
	sink := &fakeSink{ready: true}
	scheduler := NewScheduler(store, sink, testLogger(), time.Minute)

	ctx := context.Background()
	now := storeNow()
	if _, err := store.Create(ctx, "alice", "irc/#chat", "it is time", now.Add(-time.Minute), now.Add(-time.Hour)); err != nil {
		t.Fatalf("create failed: %s", err)
	}
	if _, err := store.Create(ctx, "alice", "irc/#chat", "not yet", now.Add(time.Hour), now); err != nil {
		t.Fatalf("create failed: %s", err)
	}

	scheduler.deliverDue(ctx)
	sends := sink.sent()
	if len(sends) != 1 {
		t.Fatalf("expected exactly 1 delivery, got %d", len(sends))
	}
	if sends[0].target != "irc/#chat" || sends[0].text != "it is time" || sends[0].owner != "alice" {
		t.Errorf("wrong delivery: %+v", sends[0])
	}

	// A second pass must not redeliver the same reminder.
	scheduler.deliverDue(ctx)
	if len(sink.sent()) != 1 {
		t.Fatalf("reminder delivered twice")
	}
}

func TestSchedulerMarksSentEvenWhenDeliveryFails(t *testing.T) {
	store := newTestStore(t)
	sink := &fakeSink{ready: true, fail: errors.New("gateway down")}
	scheduler := NewScheduler(store, sink, testLogger(), time.Minute)

	ctx := context.Background()
	now := storeNow()
	id, err := store.Create(ctx, "alice", "t", "text", now.Add(-time.Minute), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("create failed: %s", err)
	}

	scheduler.deliverDue(ctx)
	if len(sink.sent()) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(sink.sent()))
	}
	due, err := store.Due(ctx, now)
	if err != nil {
		t.Fatalf("due query failed: %s", err)
	}
	for _, r := range due {
		if r.ID == id {
			t.Fatalf("failed delivery was not marked sent")
		}
	}
}

func TestSchedulerEndToEnd(t *testing.T) {
	store := newTestStore(t)
	sink := &fakeSink{ready: true}
	scheduler := NewScheduler(store, sink, testLogger(), 20*time.Millisecond)

	ctx := context.Background()
	now := storeNow()
	if _, err := store.Create(ctx, "alice", "t", "soon", now.Add(time.Second), now); err != nil {
		t.Fatalf("create failed: %s", err)
	}

	scheduler.Start()
	defer scheduler.Stop()

	deadline := time.After(5 * time.Second)
	for len(sink.sent()) == 0 {
		select {
		case <-deadline:
			t.Fatal("reminder was never delivered")
		case <-time.After(20 * time.Millisecond):
		}
	}

	// Give the scheduler a few more ticks; the count must stay at one.
	time.Sleep(100 * time.Millisecond)
	if attempts := len(sink.sent()); attempts != 1 {
		t.Fatalf("expected exactly 1 delivery attempt, got %d", attempts)
	}
	pending, _ := store.ListPending(ctx, "alice")
	if len(pending) != 0 {
		t.Errorf("delivered reminder still pending")
	}
}

func TestSchedulerWaitsForSinkReadiness(t *testing.T) {
	store := newTestStore(t)
	sink := &fakeSink{ready: false}
	scheduler := NewScheduler(store, sink, testLogger(), 20*time.Millisecond)

	ctx := context.Background()
	now := storeNow()
	if _, err := store.Create(ctx, "alice", "t", "text", now.Add(-time.Minute), now.Add(-time.Hour)); err != nil {
		t.Fatalf("create failed: %s", err)
	}

	scheduler.Start()
	defer scheduler.Stop()

	time.Sleep(200 * time.Millisecond)
	if len(sink.sent()) != 0 {
		t.Fatalf("scheduler delivered before the sink was ready")
	}

	sink.setReady(true)
	deadline := time.After(5 * time.Second)
	for len(sink.sent()) == 0 {
		select {
		case <-deadline:
			t.Fatal("reminder was never delivered after readiness")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestSchedulerStopBeforeReadiness(t *testing.T) {
	store := newTestStore(t)
	sink := &fakeSink{ready: false}
	scheduler := NewScheduler(store, sink, testLogger(), 20*time.Millisecond)

	scheduler.Start()
	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop hung while waiting for sink readiness")
	}
}
