// Package feed serves pages of candidate profiles for the swipe view.
package feed

import (
	"context"
	"fmt"

	"github.com/devconnect/devconnect-server/internal/store"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

// Service pages feed candidates for a user.
type Service struct {
	store store.Store
}

// New creates a new feed service.
func New(st store.Store) *Service {
	return &Service{store: st}
}

// Page returns one page of profiles the user has no request edge with,
// excluding the user themselves. Page numbers start at 1; limit defaults
// to 10 and is capped at 50.
func (s *Service) Page(ctx context.Context, userID string, page, limit int) ([]*store.User, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	peers, err := s.store.ListRequestPeers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list request peers: %w", err)
	}
	exclude := append(peers, userID)

	users, err := s.store.ListFeedCandidates(ctx, exclude, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return users, nil
}
