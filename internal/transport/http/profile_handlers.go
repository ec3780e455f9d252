package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/devconnect/devconnect-server/internal/service/profiles"
	"github.com/devconnect/devconnect-server/internal/store"
)

// ProfileHandlers provides HTTP handlers for viewing and editing profiles.
type ProfileHandlers struct {
	profiles *profiles.Service
	log      *zerolog.Logger
}

// NewProfileHandlers creates a new profile handlers instance.
func NewProfileHandlers(profileService *profiles.Service, logger *zerolog.Logger) *ProfileHandlers {
	return &ProfileHandlers{
		profiles: profileService,
		log:      logger,
	}
}

// EditProfileRequest carries the editable profile fields; absent fields
// are left untouched.
type EditProfileRequest struct {
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	Age       *int      `json:"age"`
	Gender    *string   `json:"gender"`
	PhotoURL  *string   `json:"photoUrl"`
	About     *string   `json:"about"`
	Skills    *[]string `json:"skills"`
}

// View returns the authenticated user's own profile.
// GET /profile/view
func (h *ProfileHandlers) View(c *gin.Context) {
	user, err := h.profiles.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
			return
		}
		h.log.Error().Err(err).Msg("failed to load profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ownUser(user))
}

// Edit patches the authenticated user's profile.
// PATCH /profile/edit
func (h *ProfileHandlers) Edit(c *gin.Context) {
	var req EditProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.profiles.Update(c.Request.Context(), currentUserID(c), profiles.Edit{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Age:       req.Age,
		Gender:    req.Gender,
		PhotoURL:  req.PhotoURL,
		About:     req.About,
		Skills:    req.Skills,
	})
	if err != nil {
		switch {
		case errors.Is(err, profiles.ErrInvalidField):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
		default:
			h.log.Error().Err(err).Msg("failed to update profile")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, ownUser(user))
}
