package events

// Events and dispatcher.

import (
	"github.com/sirupsen/logrus"
)

type EventCode int

// Single event codes.
const (
	// Normal chat message.
	EventChatMessage EventCode = iota
	// Chat notice.
	EventChatNotice
	// Private message received.
	EventPrivateMessage

	// Transport connected and ready to send.
	EventConnected
	// Bot joined a channel.
	EventJoinedChannel

	// Bot tick.
	EventTick
	// Daily bot tick.
	EventDailyTick
)

// Message formatting options.
type Formatting int

const (
	FormatPlain Formatting = iota
	FormatIRC
	FormatMarkdown
)

// Message for the events channel.
type EventMessage struct {
	// Name of the transport that triggered the event.
	TransportName string
	// Message formatting accepted by the transport.
	TransportFormatting Formatting
	// Event code.
	EventCode EventCode
	// Sender information.
	Nick, UserID string
	Channel      string
	Message      string
	// Context for the message, will be passed back if any listener replies.
	Context string
	// Was the message directed at the bot? If yes, bot will check for commands.
	// Message directed at the bot should be stripped of prefixes like the dot
	// or the bot's name.
	AtBot bool
}

// IsPrivate will tell if an event was triggered by a private chat message.
func (message *EventMessage) IsPrivate() bool {
	return message.EventCode == EventPrivateMessage
}

// Type for a valid event listener function.
type EventListenerFunc func(message EventMessage)

// Event dispatcher.
type EventDispatcher struct {
	listeners map[EventCode][]EventListenerFunc
	log       *logrus.Logger
	// People whose events will be ignored, as user ids.
	blackList []string
}

// New will create a new event dispatcher instance.
func New(logger *logrus.Logger) *EventDispatcher {
	return &EventDispatcher{
		listeners: map[EventCode][]EventListenerFunc{},
		log:       logger,
	}
}

// RegisterMultiListener will attach a listener to multiple events.
func (dispatcher *EventDispatcher) RegisterMultiListener(eventCodes []EventCode, listener EventListenerFunc) {
	for _, eventCode := range eventCodes {
		dispatcher.RegisterListener(eventCode, listener)
	}
}

// RegisterListener will register a listener to an event.
func (dispatcher *EventDispatcher) RegisterListener(eventCode EventCode, listener EventListenerFunc) {
	dispatcher.listeners[eventCode] = append(dispatcher.listeners[eventCode], listener)
	dispatcher.log.Debugf("Added listener for event %d: %v", eventCode, listener)
}

// Trigger will trigger an event. Each listener runs in its own goroutine and
// a panicking listener never takes the dispatcher down with it.
func (dispatcher *EventDispatcher) Trigger(eventMessage EventMessage) {
	if dispatcher.isIgnored(eventMessage) {
		dispatcher.log.Infof(
			"Ignoring event %d from %s (%s)", eventMessage.EventCode, eventMessage.Nick, eventMessage.UserID)
		return
	}
	for _, listener := range dispatcher.listeners[eventMessage.EventCode] {
		go func(listener EventListenerFunc) {
			defer func() {
				if r := recover(); r != nil {
					dispatcher.log.Errorf("FATAL ERROR in event handler for %d: %v", eventMessage.EventCode, r)
				}
			}()
			listener(eventMessage)
		}(listener)
	}
}

// isIgnored will check whether the message comes from an ignored person.
func (dispatcher *EventDispatcher) isIgnored(eventMessage EventMessage) bool {
	if eventMessage.UserID == "" {
		return false
	}
	for _, person := range dispatcher.blackList {
		if person == eventMessage.UserID {
			return true
		}
	}
	return false
}

// SetBlackList sets the ignore list.
func (dispatcher *EventDispatcher) SetBlackList(blackList []string) {
	dispatcher.blackList = blackList
}
