package feed

import (
	"context"
	"fmt"
	"testing"

	"github.com/devconnect/devconnect-server/internal/store"
	"github.com/devconnect/devconnect-server/internal/store/sqlite"
)

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return New(st), st
}

func seedUsers(t *testing.T, st store.Store, n int) []*store.User {
	t.Helper()

	users := make([]*store.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := st.CreateUser(context.Background(), &store.User{
			FirstName:    fmt.Sprintf("User%02d", i),
			Email:        fmt.Sprintf("user%02d@example.com", i),
			PasswordHash: "hash",
		})
		if err != nil {
			t.Fatalf("seed user: %v", err)
		}
		users = append(users, u)
	}
	return users
}

func TestPageExcludesSelfAndRequestPeers(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	users := seedUsers(t, st, 5)
	me := users[0]

	// An edge in either direction hides the peer, regardless of status.
	if _, err := st.CreateRequest(ctx, me.ID, users[1].ID, store.RequestStatusInterested); err != nil {
		t.Fatalf("create request: %v", err)
	}
	if _, err := st.CreateRequest(ctx, users[2].ID, me.ID, store.RequestStatusIgnored); err != nil {
		t.Fatalf("create request: %v", err)
	}

	page, err := svc.Page(ctx, me.ID, 1, 10)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(page))
	}
	for _, u := range page {
		if u.ID == me.ID || u.ID == users[1].ID || u.ID == users[2].ID {
			t.Fatalf("user %s should be hidden from the feed", u.ID)
		}
	}
}

func TestPageLimits(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	users := seedUsers(t, st, 60)
	me := users[0]

	// Zero limit falls back to the default page size.
	page, err := svc.Page(ctx, me.ID, 1, 0)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 10 {
		t.Fatalf("expected default page of 10, got %d", len(page))
	}

	// Oversized limits are capped at 50.
	page, err = svc.Page(ctx, me.ID, 1, 500)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 50 {
		t.Fatalf("expected capped page of 50, got %d", len(page))
	}

	// Pages beyond the data are empty, not an error.
	page, err = svc.Page(ctx, me.ID, 100, 10)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("expected empty page, got %d", len(page))
	}
}

func TestPagesDoNotOverlap(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	users := seedUsers(t, st, 21)
	me := users[0]

	seen := make(map[string]struct{})
	for page := 1; page <= 2; page++ {
		batch, err := svc.Page(ctx, me.ID, page, 10)
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if len(batch) != 10 {
			t.Fatalf("page %d: expected 10, got %d", page, len(batch))
		}
		for _, u := range batch {
			if _, dup := seen[u.ID]; dup {
				t.Fatalf("user %s appeared on two pages", u.ID)
			}
			seen[u.ID] = struct{}{}
		}
	}
}
