package store

import (
	"context"
	"errors"
	"time"
)

// Common storage errors. Services translate these to transport responses.
var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned when input fails a domain constraint.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
)

// User represents a registered member.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Age          *int
	Gender       *string
	PhotoURL     string
	About        string
	Skills       []string
	CreatedAt    time.Time
}

// DisplayName is the name shown next to messages and cards.
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RequestStatus defines the lifecycle of a connection request.
type RequestStatus string

const (
	// RequestStatusInterested is a pending request awaiting review.
	RequestStatusInterested RequestStatus = "interested"
	// RequestStatusIgnored records a left-swipe; the pair never matches.
	RequestStatusIgnored RequestStatus = "ignored"
	// RequestStatusAccepted means the recipient approved the request.
	RequestStatusAccepted RequestStatus = "accepted"
	// RequestStatusRejected means the recipient declined the request.
	RequestStatusRejected RequestStatus = "rejected"
)

// ConnectionRequest is a directed edge between two users.
type ConnectionRequest struct {
	ID         string
	FromUserID string
	ToUserID   string
	Status     RequestStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MessageStatus tracks whether the non-sending participant observed a message.
type MessageStatus string

const (
	MessageStatusSent MessageStatus = "sent"
	MessageStatusSeen MessageStatus = "seen"
)

// Conversation is the persisted message history between exactly two users.
// Participants are stored sorted; the sorted pair is the lookup key.
type Conversation struct {
	ID           string
	Participants [2]string
	CreatedAt    time.Time
}

// HasParticipant reports whether id is one of the two participants.
func (c *Conversation) HasParticipant(id string) bool {
	return c.Participants[0] == id || c.Participants[1] == id
}

// Message is one chat utterance inside a conversation.
// Seq is the storage-assigned append order; IDs are opaque.
type Message struct {
	ID             string
	Seq            int64
	ConversationID string
	SenderID       string
	Body           string
	Status         MessageStatus
	CreatedAt      time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser persists a new user. Fails with ErrDuplicate on a taken email.
	CreateUser(ctx context.Context, user *User) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUsersByIDs retrieves users for a set of ids, keyed by id.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*User, error)

	// UpdateUserProfile overwrites the editable profile fields.
	UpdateUserProfile(ctx context.Context, user *User) error

	// ListFeedCandidates pages users excluding the given ids.
	ListFeedCandidates(ctx context.Context, exclude []string, limit, offset int) ([]*User, error)
}

// RequestStore handles connection-request persistence.
type RequestStore interface {
	// CreateRequest creates a directed request between two users.
	CreateRequest(ctx context.Context, fromID, toID string, status RequestStatus) (*ConnectionRequest, error)

	// GetRequestBetween retrieves the request linking two users in either direction.
	GetRequestBetween(ctx context.Context, userA, userB string) (*ConnectionRequest, error)

	// UpdateRequestStatus transitions a request to a new status.
	UpdateRequestStatus(ctx context.Context, id string, status RequestStatus) error

	// ListReceived lists requests addressed to a user with the given status.
	ListReceived(ctx context.Context, toID string, status RequestStatus) ([]*ConnectionRequest, error)

	// ListConnections lists accepted requests touching a user in either direction.
	ListConnections(ctx context.Context, userID string) ([]*ConnectionRequest, error)

	// ListRequestPeers lists ids of every user sharing a request edge with
	// userID, regardless of direction or status. Used to filter the feed.
	ListRequestPeers(ctx context.Context, userID string) ([]string, error)
}

// ChatStore handles conversation and message persistence.
type ChatStore interface {
	// FindOrCreateConversation returns the conversation for an unordered pair,
	// creating it atomically if absent. Concurrent callers for the same pair
	// observe a single conversation.
	FindOrCreateConversation(ctx context.Context, userA, userB string) (*Conversation, error)

	// FindConversation returns the conversation for a pair or ErrNotFound.
	FindConversation(ctx context.Context, userA, userB string) (*Conversation, error)

	// ListMessages returns a conversation's messages in append order.
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)

	// AppendMessage validates and appends a message with status "sent".
	// Fails with ErrValidation when the trimmed body is empty or the sender
	// is not a participant of the conversation.
	AppendMessage(ctx context.Context, conversationID, senderID, body string) (*Message, error)

	// MarkSeen transitions every "sent" message not authored by reader to
	// "seen" and returns the transitioned ids in append order. It writes
	// nothing when no message qualifies.
	MarkSeen(ctx context.Context, conversationID, reader string) ([]string, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RequestStore
	ChatStore

	// Close closes the underlying database connection.
	Close() error
}
