// Package profiles provides profile reads and edits, with an optional
// read-through cache in front of the user store.
package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/devconnect/devconnect-server/internal/cache"
	"github.com/devconnect/devconnect-server/internal/store"
)

// Common errors for profile operations.
var (
	ErrInvalidField = errors.New("invalid profile field")
)

var validGenders = map[string]struct{}{
	"male":   {},
	"female": {},
	"others": {},
}

const cacheTTL = 5 * time.Minute

// Service reads and mutates user profiles. The cache may be nil, in which
// case every read goes to the store.
type Service struct {
	store store.UserStore
	cache cache.Cache
	log   *zerolog.Logger
}

// New creates a new profile service.
func New(st store.UserStore, c cache.Cache, logger *zerolog.Logger) *Service {
	return &Service{store: st, cache: c, log: logger}
}

// Get returns a user's profile, preferring the cache when available.
// Cache failures are logged and fall back to the store.
func (s *Service) Get(ctx context.Context, userID string) (*store.User, error) {
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, cacheKey(userID)); err != nil {
			s.log.Warn().Err(err).Str("user", userID).Msg("profile cache read failed")
		} else if ok {
			var user store.User
			if err := json.Unmarshal([]byte(raw), &user); err == nil {
				return &user, nil
			}
			s.log.Warn().Str("user", userID).Msg("dropping undecodable cache entry")
			_ = s.cache.Delete(ctx, cacheKey(userID))
		}
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, user)
	return user, nil
}

// GetMany returns profiles keyed by id, reading through the cache per user.
func (s *Service) GetMany(ctx context.Context, ids []string) (map[string]*store.User, error) {
	users := make(map[string]*store.User, len(ids))
	var misses []string

	if s.cache == nil {
		misses = ids
	} else {
		for _, id := range ids {
			raw, ok, err := s.cache.Get(ctx, cacheKey(id))
			if err != nil || !ok {
				misses = append(misses, id)
				continue
			}
			var user store.User
			if err := json.Unmarshal([]byte(raw), &user); err != nil {
				misses = append(misses, id)
				continue
			}
			users[id] = &user
		}
	}

	if len(misses) > 0 {
		loaded, err := s.store.GetUsersByIDs(ctx, misses)
		if err != nil {
			return nil, fmt.Errorf("load users: %w", err)
		}
		for id, user := range loaded {
			users[id] = user
			s.fill(ctx, user)
		}
	}

	return users, nil
}

// Edit applies the editable fields onto the stored profile and returns
// the updated user. The email and password are not editable here.
type Edit struct {
	FirstName *string
	LastName  *string
	Age       *int
	Gender    *string
	PhotoURL  *string
	About     *string
	Skills    *[]string
}

// Update validates and persists a profile edit, then invalidates the cache.
func (s *Service) Update(ctx context.Context, userID string, edit Edit) (*store.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if edit.FirstName != nil {
		if len(*edit.FirstName) < 2 || len(*edit.FirstName) > 50 {
			return nil, fmt.Errorf("%w: firstName", ErrInvalidField)
		}
		user.FirstName = *edit.FirstName
	}
	if edit.LastName != nil {
		user.LastName = *edit.LastName
	}
	if edit.Age != nil {
		if *edit.Age < 18 {
			return nil, fmt.Errorf("%w: age must be at least 18", ErrInvalidField)
		}
		user.Age = edit.Age
	}
	if edit.Gender != nil {
		if _, ok := validGenders[*edit.Gender]; !ok {
			return nil, fmt.Errorf("%w: gender", ErrInvalidField)
		}
		user.Gender = edit.Gender
	}
	if edit.PhotoURL != nil {
		if u, err := url.Parse(*edit.PhotoURL); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%w: photoUrl", ErrInvalidField)
		}
		user.PhotoURL = *edit.PhotoURL
	}
	if edit.About != nil {
		user.About = *edit.About
	}
	if edit.Skills != nil {
		user.Skills = *edit.Skills
	}

	if err := s.store.UpdateUserProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKey(userID)); err != nil {
			s.log.Warn().Err(err).Str("user", userID).Msg("profile cache invalidation failed")
		}
	}

	return user, nil
}

// fill writes a profile into the cache, best effort.
func (s *Service) fill(ctx context.Context, user *store.User) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(user.ID), string(raw), cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("user", user.ID).Msg("profile cache write failed")
	}
}

func cacheKey(userID string) string {
	return "profile:" + userID
}
