package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/devconnect/devconnect-server/internal/service/requests"
	"github.com/devconnect/devconnect-server/internal/store"
)

// RequestHandlers provides HTTP handlers for the connection-request flow.
type RequestHandlers struct {
	requests *requests.Service
	log      *zerolog.Logger
}

// NewRequestHandlers creates a new request handlers instance.
func NewRequestHandlers(requestService *requests.Service, logger *zerolog.Logger) *RequestHandlers {
	return &RequestHandlers{
		requests: requestService,
		log:      logger,
	}
}

// Send records a swipe on another profile.
// POST /request/send/:status/:userId   (status: interested | ignored)
func (h *RequestHandlers) Send(c *gin.Context) {
	status := store.RequestStatus(c.Param("status"))
	toUserID := c.Param("userId")

	req, err := h.requests.Send(c.Request.Context(), currentUserID(c), toUserID, status)
	if err != nil {
		switch {
		case errors.Is(err, requests.ErrInvalidStatus),
			errors.Is(err, requests.ErrCannotRequestSelf):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, requests.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		case errors.Is(err, requests.ErrAlreadyExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "connection request already exists"})
		default:
			h.log.Error().Err(err).Msg("failed to send request")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, requestResponse(req, nil))
}

// Review accepts or rejects a pending request addressed to the caller.
// POST /request/review/:status/:userId   (status: accepted | rejected;
// userId identifies the request sender)
func (h *RequestHandlers) Review(c *gin.Context) {
	status := store.RequestStatus(c.Param("status"))
	fromUserID := c.Param("userId")

	req, err := h.requests.Review(c.Request.Context(), currentUserID(c), fromUserID, status)
	if err != nil {
		switch {
		case errors.Is(err, requests.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, requests.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "connection request not found"})
		case errors.Is(err, requests.ErrNotReviewable):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "request cannot be reviewed"})
		default:
			h.log.Error().Err(err).Msg("failed to review request")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, requestResponse(req, nil))
}

// Received lists pending interested requests addressed to the caller.
// GET /user/requests/received
func (h *RequestHandlers) Received(c *gin.Context) {
	views, err := h.requests.ListReceived(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list received requests")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]RequestResponse, 0, len(views))
	for _, v := range views {
		out = append(out, requestResponse(v.Request, v.From))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// Connections lists the caller's accepted connections.
// GET /user/connections
func (h *RequestHandlers) Connections(c *gin.Context) {
	users, err := h.requests.ListConnections(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list connections")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": publicUsers(users)})
}

func requestResponse(req *store.ConnectionRequest, from *store.User) RequestResponse {
	resp := RequestResponse{
		ID:         req.ID,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Status:     string(req.Status),
		CreatedAt:  req.CreatedAt,
	}
	if from != nil {
		u := publicUser(from)
		resp.From = &u
	}
	return resp
}
