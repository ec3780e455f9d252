package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devconnect/devconnect-server/internal/auth"
	"github.com/devconnect/devconnect-server/internal/config"
	"github.com/devconnect/devconnect-server/internal/core"
	"github.com/devconnect/devconnect-server/internal/log"
	"github.com/devconnect/devconnect-server/internal/service/feed"
	"github.com/devconnect/devconnect-server/internal/service/profiles"
	"github.com/devconnect/devconnect-server/internal/service/requests"
	"github.com/devconnect/devconnect-server/internal/store"
	"github.com/devconnect/devconnect-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(st store.Store) *auth.Service {
	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

// startTestServer wires the full service stack behind an httptest server.
func startTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()

	logger := log.Discard()
	st := createTestStore(t)
	authService := createTestAuthService(st)
	profileService := profiles.New(st, nil, logger)

	hub := core.NewHub(st, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	server := NewServer(Services{
		Auth:     authService,
		Profiles: profileService,
		Requests: requests.New(st),
		Feed:     feed.New(st),
		Store:    st,
		Hub:      hub,
	}, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		MessageRateLimit:  100,
	}, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, st
}

// signupUser registers a user over the API and returns the auth response.
func signupUser(t *testing.T, ts *httptest.Server, firstName, email string) AuthResponse {
	t.Helper()

	body, _ := json.Marshal(SignupRequest{
		FirstName: firstName,
		LastName:  "Tester",
		Email:     email,
		Password:  "super-secret",
	})

	resp, err := ts.Client().Post(ts.URL+"/signup", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("signup request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		t.Fatalf("signup returned status %d", resp.StatusCode)
	}

	var out AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	return out
}
