package mattermostTransport

// Connection handling.

import (
	"time"

	"github.com/mattermost/mattermost-server/model"
)

// connect will establish a connection to the server.
func (transport *MattermostTransport) connect() {
	// Create the client.
	transport.client = model.NewAPIv4Client(transport.server)

	// Check server connection.
	if props, response := transport.client.GetOldClientConfig(""); response.Error != nil {
		transport.log.Fatalf("Couldn't connect to Mattermost at %s.", transport.server)
	} else {
		transport.log.Infof("Connected to %s, running version %s.", transport.server, props["Version"])
	}

	// Login.
	if user, response := transport.client.Login(transport.user, transport.password); response.Error != nil {
		transport.log.Fatalf("Login failed as %s.", transport.user)
	} else {
		transport.mmUser = user
		transport.log.Infof("Logged in as %s (%s).", user.Username, user.Id)
	}
}

// connectWebsocket creates a websocket connection and sets it for the client.
func (transport *MattermostTransport) connectWebsocket() {
	// Retry loop.
	retries := 0
	for {
		time.Sleep(time.Duration(retries*retries) * time.Second)
		transport.log.Infof("Connecting websocket...")
		// Start websocket for communication.
		retries++
		webClient, err := model.NewWebSocketClient4(transport.websocket, transport.client.AuthToken)
		if err == nil {
			transport.webSocketClient = webClient
			break
		} else {
			transport.log.Errorf(
				"Could not connect: %s. Will retry in %d seconds...", err.DetailedError, retries*retries)
		}
	}
	transport.webSocketClient.Listen()
}

// Run will execute the main loop.
func (transport *MattermostTransport) Run() {
	transport.connect()
	transport.updateInfo()
	transport.updateStatus()

	// Register transport event handlers.
	transport.registerAllEventHandlers()

	// Connect websocket for actual message transfer.
	transport.connectWebsocket()

	// Main loop.
	for {
		select {
		case timeout := <-transport.webSocketClient.PingTimeoutChannel:
			if timeout {
				errorMsg := "Unknown error"
				// Maybe the socket knows what happened?
				if transport.webSocketClient.ListenError != nil {
					errorMsg = transport.webSocketClient.ListenError.DetailedError
				}
				transport.log.Errorf("Mattermost disconnected: %s.", errorMsg)
				transport.readyMutex.Lock()
				transport.ready = false
				transport.readyMutex.Unlock()
				transport.connectWebsocket()
			}
		case event, ok := <-transport.webSocketClient.EventChannel:
			if !ok {
				transport.log.Infof("Mattermost transport exiting...")
				return
			}
			// Are there any handlers registered for this event?
			if handlers, exists := transport.eventHandlers[event.Event]; exists {
				for _, handler := range handlers {
					handler(event)
				}
			}
		}
	}
}
