package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for events coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinChat    = "joinChat"
	InboundTypeSendMessage = "sendMessage"
	InboundTypeMarkAsSeen  = "markAsSeen"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventReceiveMessage      = "receiveMessage"
	EventUpdateMessageStatus = "updateMessageStatus"
)

// JoinChatData binds the socket to the room shared with a peer.
// SelfID is optional; when present it must match the authenticated user.
type JoinChatData struct {
	SelfID string `json:"selfId,omitempty"`
	PeerID string `json:"peerId"`
}

// SendMessageData is a chat message from the client. CreatedAt is accepted
// for wire compatibility but ignored; the server assigns timestamps.
type SendMessageData struct {
	SelfID    string `json:"selfId,omitempty"`
	PeerID    string `json:"peerId"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// MarkAsSeenData asks the server to flip unseen peer messages.
type MarkAsSeenData struct {
	SelfID string `json:"selfId,omitempty"`
	PeerID string `json:"peerId"`
}

// Outbound is the envelope for events sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ReceiveMessageData announces a newly persisted message to a room.
type ReceiveMessageData struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UpdateMessageStatusData announces that messages transitioned to seen.
type UpdateMessageStatusData struct {
	Status     string   `json:"status"`
	MessageIDs []string `json:"messageIds,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
