package core

import (
	"context"
	"testing"
	"time"

	"github.com/devconnect/devconnect-server/internal/log"
	"github.com/devconnect/devconnect-server/internal/store"
	"github.com/devconnect/devconnect-server/internal/store/sqlite"
)

func newTestHub(t *testing.T) (*Hub, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return NewHub(st, log.Discard()), st
}

func seedUser(t *testing.T, st store.Store, first, email string) *store.User {
	t.Helper()

	user, err := st.CreateUser(context.Background(), &store.User{
		FirstName:    first,
		Email:        email,
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return user
}

// settle gives the hub a beat to drain commands arriving on separate
// client pumps, where ordering is not guaranteed.
func settle() {
	time.Sleep(100 * time.Millisecond)
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustClosed drains ch until it is closed, returning how many events
// were still buffered.
func mustClosed(t *testing.T, ch <-chan *Event) int {
	t.Helper()

	deadline := time.After(2 * time.Second)
	drained := 0
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return drained
			}
			drained++
		case <-deadline:
			t.Fatal("events channel never closed")
		}
	}
}

func mustNoEvent(t *testing.T, ch <-chan *Event, wait time.Duration) {
	t.Helper()

	select {
	case ev := <-ch:
		if ev != nil {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(wait):
	}
}
