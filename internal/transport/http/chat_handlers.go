package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/devconnect/devconnect-server/internal/service/profiles"
	"github.com/devconnect/devconnect-server/internal/store"
)

// ChatHandlers provides the REST side of the chat feature: history
// fetches. Live traffic goes over the WebSocket.
type ChatHandlers struct {
	chats    store.ChatStore
	profiles *profiles.Service
	log      *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(chats store.ChatStore, profileService *profiles.Service, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		chats:    chats,
		profiles: profileService,
		log:      logger,
	}
}

// History returns the conversation with a peer, creating it lazily, with
// every message's sender expanded to a display name.
// GET /chat/:peerId
func (h *ChatHandlers) History(c *gin.Context) {
	userID := currentUserID(c)
	peerID := c.Param("peerId")
	if peerID == "" || peerID == userID {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid peer"})
		return
	}

	ctx := c.Request.Context()
	conv, err := h.chats.FindOrCreateConversation(ctx, userID, peerID)
	if err != nil {
		h.log.Error().Err(err).Str("user", userID).Msg("find-or-create conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	messages, err := h.chats.ListMessages(ctx, conv.ID)
	if err != nil {
		h.log.Error().Err(err).Str("conversation", conv.ID).Msg("list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	senders, err := h.profiles.GetMany(ctx, conv.Participants[:])
	if err != nil {
		h.log.Error().Err(err).Msg("expand senders")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := ConversationResponse{
		ID:           conv.ID,
		Participants: conv.Participants[:],
		Messages:     make([]MessageResponse, 0, len(messages)),
	}
	for _, msg := range messages {
		name := msg.SenderID
		if sender, ok := senders[msg.SenderID]; ok {
			name = sender.DisplayName()
		}
		resp.Messages = append(resp.Messages, MessageResponse{
			ID:         msg.ID,
			SenderID:   msg.SenderID,
			SenderName: name,
			Text:       msg.Body,
			Status:     string(msg.Status),
			CreatedAt:  msg.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, resp)
}
