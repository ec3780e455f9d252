package http

import (
	"time"

	"github.com/devconnect/devconnect-server/internal/store"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse is the public view of a profile. The email is only
// included for the profile owner.
type UserResponse struct {
	ID        string   `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName,omitempty"`
	Email     string   `json:"email,omitempty"`
	Age       *int     `json:"age,omitempty"`
	Gender    *string  `json:"gender,omitempty"`
	PhotoURL  string   `json:"photoUrl,omitempty"`
	About     string   `json:"about,omitempty"`
	Skills    []string `json:"skills,omitempty"`
}

func publicUser(u *store.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
		Gender:    u.Gender,
		PhotoURL:  u.PhotoURL,
		About:     u.About,
		Skills:    u.Skills,
	}
}

func ownUser(u *store.User) UserResponse {
	resp := publicUser(u)
	resp.Email = u.Email
	return resp
}

func publicUsers(users []*store.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, publicUser(u))
	}
	return out
}

// MessageResponse is one transcript entry with the sender expanded.
type MessageResponse struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ConversationResponse is the REST view of a conversation history.
type ConversationResponse struct {
	ID           string            `json:"id"`
	Participants []string          `json:"participants"`
	Messages     []MessageResponse `json:"messages"`
}

// RequestResponse is the wire view of a connection request.
type RequestResponse struct {
	ID         string        `json:"id"`
	FromUserID string        `json:"fromUserId"`
	ToUserID   string        `json:"toUserId"`
	Status     string        `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	From       *UserResponse `json:"from,omitempty"`
}
