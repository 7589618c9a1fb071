package transports

import "github.com/jonathanwall/brobot/events"

// Transport delivers bot messages over one chat network.
type Transport interface {
	// Name of the transport, used as a config section and target prefix.
	Name() string
	// Run starts the transport. It should block and reconnect on failures.
	Run()
	// Ready tells whether the transport is connected and can deliver messages.
	Ready() bool
	NickIsMe(nick string) bool
	// Replies to an event that came through this transport.
	SendMessage(sourceEvent *events.EventMessage, message string)
	SendPrivateMessage(sourceEvent *events.EventMessage, nick, message string)
	SendNotice(sourceEvent *events.EventMessage, message string)
	// Unsolicited sends, used by scheduled deliveries.
	SendToChannel(channel, message string) error
	SendMassNotice(message string)
}
