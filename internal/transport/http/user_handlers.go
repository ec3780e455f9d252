package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/devconnect/devconnect-server/internal/service/feed"
)

// UserHandlers provides HTTP handlers for the swipe feed.
type UserHandlers struct {
	feed *feed.Service
	log  *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(feedService *feed.Service, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		feed: feedService,
		log:  logger,
	}
}

// Feed returns one page of candidate profiles.
// GET /feed?page=1&limit=10
func (h *UserHandlers) Feed(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	users, err := h.feed.Page(c.Request.Context(), currentUserID(c), page, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load feed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": publicUsers(users)})
}
