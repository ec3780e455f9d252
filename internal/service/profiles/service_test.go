package profiles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devconnect/devconnect-server/internal/log"
	"github.com/devconnect/devconnect-server/internal/store"
	"github.com/devconnect/devconnect-server/internal/store/sqlite"
)

// mapCache is an in-process Cache used to observe read-through behavior.
type mapCache struct {
	values map[string]string
	gets   int
	sets   int
}

func newMapCache() *mapCache {
	return &mapCache{values: make(map[string]string)}
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.gets++
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.sets++
	c.values[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	delete(c.values, key)
	return nil
}

func (c *mapCache) Close() error { return nil }

func newTestService(t *testing.T, withCache bool) (*Service, *mapCache, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	var mc *mapCache
	svc := New(st, nil, log.Discard())
	if withCache {
		mc = newMapCache()
		svc = New(st, mc, log.Discard())
	}
	return svc, mc, st
}

func seedUser(t *testing.T, st store.Store) *store.User {
	t.Helper()

	user, err := st.CreateUser(context.Background(), &store.User{
		FirstName:    "Alice",
		LastName:     "Doe",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestGetReadsThroughCache(t *testing.T) {
	svc, mc, st := newTestService(t, true)
	ctx := context.Background()
	user := seedUser(t, st)

	got, err := svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("wrong user %s", got.ID)
	}
	if mc.sets != 1 {
		t.Fatalf("expected cache fill after miss, sets=%d", mc.sets)
	}

	// Second read is served from the cache.
	if _, err := svc.Get(ctx, user.ID); err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if mc.sets != 1 {
		t.Fatalf("cache hit should not refill, sets=%d", mc.sets)
	}
}

func TestUpdateValidatesAndInvalidates(t *testing.T) {
	svc, mc, st := newTestService(t, true)
	ctx := context.Background()
	user := seedUser(t, st)

	// Warm the cache.
	if _, err := svc.Get(ctx, user.ID); err != nil {
		t.Fatalf("get: %v", err)
	}

	age := 17
	if _, err := svc.Update(ctx, user.ID, Edit{Age: &age}); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("underage: expected ErrInvalidField, got %v", err)
	}
	gender := "unknown"
	if _, err := svc.Update(ctx, user.ID, Edit{Gender: &gender}); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("bad gender: expected ErrInvalidField, got %v", err)
	}
	photo := "not a url"
	if _, err := svc.Update(ctx, user.ID, Edit{PhotoURL: &photo}); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("bad photo url: expected ErrInvalidField, got %v", err)
	}

	about := "Go and distributed systems"
	skills := []string{"go", "sql"}
	okAge := 30
	updated, err := svc.Update(ctx, user.ID, Edit{About: &about, Skills: &skills, Age: &okAge})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.About != about || len(updated.Skills) != 2 || *updated.Age != 30 {
		t.Fatalf("update not applied: %+v", updated)
	}

	// The stale cache entry is gone; a fresh read sees the new profile.
	if _, ok := mc.values["profile:"+user.ID]; ok {
		t.Fatal("cache entry should be invalidated after update")
	}
	fresh, err := svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if fresh.About != about {
		t.Fatalf("stale profile after update: %q", fresh.About)
	}
}

func TestGetManyMixedHits(t *testing.T) {
	svc, _, st := newTestService(t, true)
	ctx := context.Background()
	alice := seedUser(t, st)
	bob, err := st.CreateUser(ctx, &store.User{
		FirstName:    "Bob",
		Email:        "bob@example.com",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("seed bob: %v", err)
	}

	// Warm only alice.
	if _, err := svc.Get(ctx, alice.ID); err != nil {
		t.Fatalf("get: %v", err)
	}

	users, err := svc.GetMany(ctx, []string{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("get many: %v", err)
	}
	if len(users) != 2 || users[alice.ID] == nil || users[bob.ID] == nil {
		t.Fatalf("expected both users, got %+v", users)
	}
}

func TestNoCacheStillWorks(t *testing.T) {
	svc, _, st := newTestService(t, false)
	ctx := context.Background()
	user := seedUser(t, st)

	got, err := svc.Get(ctx, user.ID)
	if err != nil || got.ID != user.ID {
		t.Fatalf("get without cache: %v", err)
	}
}
