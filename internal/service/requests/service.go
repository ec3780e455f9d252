// Package requests implements the swipe/connection-request flow: a user
// marks a profile as interested or ignored, and the recipient of an
// interested request reviews it to accepted or rejected.
package requests

import (
	"context"
	"errors"
	"fmt"

	"github.com/devconnect/devconnect-server/internal/store"
)

// Common errors for request operations.
var (
	ErrCannotRequestSelf = errors.New("cannot send connection request to yourself")
	ErrUserNotFound      = errors.New("user not found")
	ErrAlreadyExists     = errors.New("connection request already exists")
	ErrRequestNotFound   = errors.New("connection request not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrNotReviewable     = errors.New("request cannot be reviewed")
)

// Service provides connection-request business logic.
type Service struct {
	store store.Store
}

// New creates a new request service.
func New(st store.Store) *Service {
	return &Service{store: st}
}

// Send records a swipe from one user on another. Status must be
// "interested" or "ignored"; at most one request exists per pair.
func (s *Service) Send(ctx context.Context, fromUserID, toUserID string, status store.RequestStatus) (*store.ConnectionRequest, error) {
	if status != store.RequestStatusInterested && status != store.RequestStatusIgnored {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	if fromUserID == toUserID {
		return nil, ErrCannotRequestSelf
	}

	if _, err := s.store.GetUserByID(ctx, toUserID); err != nil {
		return nil, ErrUserNotFound
	}

	if _, err := s.store.GetRequestBetween(ctx, fromUserID, toUserID); err == nil {
		return nil, ErrAlreadyExists
	}

	req, err := s.store.CreateRequest(ctx, fromUserID, toUserID, status)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create request: %w", err)
	}

	return req, nil
}

// Review lets the recipient of a pending interested request accept or
// reject it. Only the recipient may review, and only from "interested".
func (s *Service) Review(ctx context.Context, reviewerID, fromUserID string, status store.RequestStatus) (*store.ConnectionRequest, error) {
	if status != store.RequestStatusAccepted && status != store.RequestStatusRejected {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	existing, err := s.store.GetRequestBetween(ctx, reviewerID, fromUserID)
	if err != nil {
		return nil, ErrRequestNotFound
	}
	if existing.Status != store.RequestStatusInterested {
		return nil, ErrNotReviewable
	}
	if existing.ToUserID != reviewerID || existing.FromUserID != fromUserID {
		return nil, ErrRequestNotFound
	}

	if err := s.store.UpdateRequestStatus(ctx, existing.ID, status); err != nil {
		return nil, fmt.Errorf("review request: %w", err)
	}

	existing.Status = status
	return existing, nil
}

// ReceivedView is a pending request expanded with the sender's profile.
type ReceivedView struct {
	Request *store.ConnectionRequest
	From    *store.User
}

// ListReceived lists pending interested requests addressed to a user,
// with the sender profiles attached.
func (s *Service) ListReceived(ctx context.Context, userID string) ([]*ReceivedView, error) {
	reqs, err := s.store.ListReceived(ctx, userID, store.RequestStatusInterested)
	if err != nil {
		return nil, fmt.Errorf("list received: %w", err)
	}

	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.FromUserID)
	}
	senders, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load senders: %w", err)
	}

	views := make([]*ReceivedView, 0, len(reqs))
	for _, r := range reqs {
		views = append(views, &ReceivedView{Request: r, From: senders[r.FromUserID]})
	}
	return views, nil
}

// ListConnections lists the profiles a user is connected with, i.e. the
// other end of every accepted request touching the user.
func (s *Service) ListConnections(ctx context.Context, userID string) ([]*store.User, error) {
	reqs, err := s.store.ListConnections(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if r.FromUserID == userID {
			ids = append(ids, r.ToUserID)
		} else {
			ids = append(ids, r.FromUserID)
		}
	}

	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load connections: %w", err)
	}

	ordered := make([]*store.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}
