package events

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestDispatcher() *EventDispatcher {
	log := logrus.New()
	log.Level = logrus.PanicLevel
	return New(log)
}

func waitForMessage(t *testing.T, received chan EventMessage) EventMessage {
	t.Helper()
	select {
	case message := <-received:
		return message
	case <-time.After(2 * time.Second):
		t.Fatal("Listener was not called.")
		return EventMessage{}
	}
}

func TestDispatcherDeliversToListener(t *testing.T) {
	dispatcher := newTestDispatcher()
	received := make(chan EventMessage, 1)
	dispatcher.RegisterListener(EventChatMessage, func(message EventMessage) {
		received <- message
	})

	dispatcher.Trigger(EventMessage{EventCode: EventChatMessage, Nick: "tester", Message: "hi"})

	message := waitForMessage(t, received)
	if message.Nick != "tester" || message.Message != "hi" {
		t.Errorf("Listener got wrong message: %+v", message)
	}
}

func TestDispatcherMultiListener(t *testing.T) {
	dispatcher := newTestDispatcher()
	received := make(chan EventMessage, 2)
	dispatcher.RegisterMultiListener(
		[]EventCode{EventChatMessage, EventPrivateMessage}, func(message EventMessage) {
			received <- message
		})

	dispatcher.Trigger(EventMessage{EventCode: EventChatMessage})
	dispatcher.Trigger(EventMessage{EventCode: EventPrivateMessage})

	waitForMessage(t, received)
	waitForMessage(t, received)
}

func TestDispatcherBlackList(t *testing.T) {
	dispatcher := newTestDispatcher()
	received := make(chan EventMessage, 2)
	dispatcher.RegisterListener(EventChatMessage, func(message EventMessage) {
		received <- message
	})
	dispatcher.SetBlackList([]string{"spammer-id"})

	dispatcher.Trigger(EventMessage{EventCode: EventChatMessage, Nick: "spammer", UserID: "spammer-id"})
	dispatcher.Trigger(EventMessage{EventCode: EventChatMessage, Nick: "friend", UserID: "friend-id"})

	message := waitForMessage(t, received)
	if message.Nick != "friend" {
		t.Errorf("Expected only the friend's message, got one from %s.", message.Nick)
	}
	select {
	case extra := <-received:
		t.Errorf("Got an unexpected extra message: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatcherSurvivesPanickingListener(t *testing.T) {
	dispatcher := newTestDispatcher()
	received := make(chan EventMessage, 1)
	dispatcher.RegisterListener(EventChatMessage, func(message EventMessage) {
		panic("listener gone wrong")
	})
	dispatcher.RegisterListener(EventChatMessage, func(message EventMessage) {
		received <- message
	})

	dispatcher.Trigger(EventMessage{EventCode: EventChatMessage})

	waitForMessage(t, received)
}
