package core

// Client is one connected socket as seen by the hub. The identity fields
// are bound at handshake time from a verified token, never from event
// payloads.
type Client struct {
	// ConnID identifies this socket; a user may hold several.
	ConnID string
	// UserID is the authenticated identity behind the socket.
	UserID string
	// Name is the display name broadcast alongside messages.
	Name string

	Commands chan *Command
	Events   chan *Event

	// room is the id of the broadcast group this socket is joined to,
	// empty when not joined. Owned by the hub goroutine.
	room string

	// gone is set once the hub lets go of the socket. Owned by the hub
	// goroutine like room; queued commands for a gone socket still run,
	// only delivery back to it stops.
	gone bool
}

// NewClient constructs a client with initialized channels.
func NewClient(connID, userID, name string) *Client {
	if name == "" {
		name = userID
	}
	return &Client{
		ConnID:   connID,
		UserID:   userID,
		Name:     name,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 8),
	}
}
