package core

import "time"

// EventKind is a notification the hub emits to clients.
type EventKind int

const (
	// EventReceiveMessage delivers a newly persisted message to a room.
	EventReceiveMessage EventKind = iota
	// EventStatusUpdate notifies a room that messages transitioned to seen.
	EventStatusUpdate
	// EventError notifies the originating client about a rejected command.
	EventError
)

// ChatMessage is the broadcast view of a persisted message.
type ChatMessage struct {
	ID         string
	SenderID   string
	SenderName string
	Text       string
	Status     string
	CreatedAt  time.Time
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind EventKind
	Room string

	// Message is set for EventReceiveMessage.
	Message ChatMessage

	// Status and MessageIDs are set for EventStatusUpdate.
	Status     string
	MessageIDs []string

	// Error is set for EventError.
	Error *CoreError
}
