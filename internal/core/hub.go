package core

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/devconnect/devconnect-server/internal/chat"
	"github.com/devconnect/devconnect-server/internal/store"
)

// Hub coordinates chat sockets: it owns the room registry, persists
// messages through the chat store and fans events out to rooms. All state
// is touched from the single Run goroutine; handlers for one socket run to
// completion before the next command is processed.
type Hub struct {
	chats store.ChatStore
	log   *zerolog.Logger

	registry *Registry
	clients  map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// NewHub creates a new chat hub instance.
func NewHub(chats store.ChatStore, logger *zerolog.Logger) *Hub {
	return &Hub{
		chats:      chats,
		log:        logger,
		registry:   NewRegistry(),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand, 64),
	}
}

// RegisterClient attaches a connected socket to the hub.
func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

// UnregisterClient detaches a socket, dropping its room membership.
// In-flight persistence for already queued commands still completes.
func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// Run processes hub traffic until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			go h.pump(ctx, c)
		case c := <-h.unregister:
			h.drop(c)
		case cc := <-h.commands:
			// Commands queued before a disconnect still run: the append
			// persists and the room hears it, only delivery back to the
			// departed socket is suppressed.
			h.handle(ctx, cc.client, cc.cmd)
		}
	}
}

// drop detaches a socket: room membership, client set, events channel.
// Idempotent; the events channel is closed exactly once.
func (h *Hub) drop(c *Client) {
	if c.gone {
		return
	}
	c.gone = true
	h.registry.Leave(c)
	delete(h.clients, c)
	close(c.Events)
}

// deliver queues an event to one socket. A full buffer marks the socket
// as a slow consumer and the hub lets go of it rather than losing an
// event silently.
func (h *Hub) deliver(c *Client, event *Event) {
	if !c.send(event) {
		h.log.Warn().Str("user", c.UserID).Str("conn", c.ConnID).Msg("dropping slow consumer")
		h.drop(c)
	}
}

// broadcast fans an event out to a room, dropping any member that could
// not keep up.
func (h *Hub) broadcast(roomID string, event *Event) {
	for _, c := range h.registry.Broadcast(roomID, event) {
		h.log.Warn().Str("user", c.UserID).Str("conn", c.ConnID).Msg("dropping slow consumer")
		h.drop(c)
	}
}

// pump forwards one client's commands into the hub loop.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Hub) handle(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinChat:
		h.handleJoin(c, cmd)
	case CommandSendMessage:
		h.handleSend(ctx, c, cmd)
	case CommandMarkSeen:
		h.handleMarkSeen(ctx, c, cmd)
	default:
		h.deliver(c, &Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "unknown command")})
	}
}

func (h *Hub) handleJoin(c *Client, cmd *Command) {
	// A socket the hub already let go of must not re-enter a room.
	if c.gone {
		return
	}
	roomID := chat.DeriveRoomID(c.UserID, cmd.PeerID)
	h.registry.Join(roomID, c)
	h.log.Debug().Str("user", c.UserID).Str("room", roomID).Msg("socket joined room")
}

func (h *Hub) handleSend(ctx context.Context, c *Client, cmd *Command) {
	// Validate before touching the store so a rejected message never
	// creates an empty conversation.
	if strings.TrimSpace(cmd.Text) == "" {
		h.deliver(c, &Event{Kind: EventError, Error: coreError(ErrCodeValidationFailed, "message rejected")})
		return
	}

	conv, err := h.chats.FindOrCreateConversation(ctx, c.UserID, cmd.PeerID)
	if err != nil {
		h.log.Error().Err(err).Str("user", c.UserID).Msg("find-or-create conversation")
		h.deliver(c, &Event{Kind: EventError, Error: coreError(ErrCodePersistenceFailed, "message not delivered")})
		return
	}

	msg, err := h.chats.AppendMessage(ctx, conv.ID, c.UserID, cmd.Text)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			h.deliver(c, &Event{Kind: EventError, Error: coreError(ErrCodeValidationFailed, "message rejected")})
			return
		}
		h.log.Error().Err(err).Str("conversation", conv.ID).Msg("append message")
		h.deliver(c, &Event{Kind: EventError, Error: coreError(ErrCodePersistenceFailed, "message not delivered")})
		return
	}

	roomID := chat.DeriveRoomID(c.UserID, cmd.PeerID)
	h.broadcast(roomID, &Event{
		Kind: EventReceiveMessage,
		Room: roomID,
		Message: ChatMessage{
			ID:         msg.ID,
			SenderID:   msg.SenderID,
			SenderName: c.Name,
			Text:       msg.Body,
			Status:     string(msg.Status),
			CreatedAt:  msg.CreatedAt,
		},
	})
}

func (h *Hub) handleMarkSeen(ctx context.Context, c *Client, cmd *Command) {
	conv, err := h.chats.FindConversation(ctx, c.UserID, cmd.PeerID)
	if err != nil {
		// No conversation yet: nothing to mark.
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Error().Err(err).Str("user", c.UserID).Msg("find conversation")
		}
		return
	}

	ids, err := h.chats.MarkSeen(ctx, conv.ID, c.UserID)
	if err != nil {
		h.log.Error().Err(err).Str("conversation", conv.ID).Msg("mark seen")
		h.deliver(c, &Event{Kind: EventError, Error: coreError(ErrCodePersistenceFailed, "status not updated")})
		return
	}
	if len(ids) == 0 {
		return
	}

	roomID := chat.DeriveRoomID(c.UserID, cmd.PeerID)
	h.broadcast(roomID, &Event{
		Kind:       EventStatusUpdate,
		Room:       roomID,
		Status:     string(store.MessageStatusSeen),
		MessageIDs: ids,
	})
}
