package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinChat binds the socket to the room derived from the
	// authenticated user and the peer. Re-joining switches room.
	CommandJoinChat CommandKind = iota
	// CommandSendMessage persists a message and broadcasts it to the room.
	CommandSendMessage
	// CommandMarkSeen flips unseen peer messages and notifies the room.
	CommandMarkSeen
)

// Command represents an action requested by a client. The acting user is
// always the client's bound identity; only the peer comes from the wire.
type Command struct {
	Kind   CommandKind
	PeerID string
	Text   string
}
