package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp, raw
}

func TestSignupAndLogin(t *testing.T) {
	ts, _ := startTestServer(t)

	alice := signupUser(t, ts, "Alice", "alice@example.com")
	if alice.Token == "" || alice.User.ID == "" {
		t.Fatalf("incomplete signup response: %+v", alice)
	}
	if alice.User.Email != "alice@example.com" {
		t.Fatalf("own view should include email, got %+v", alice.User)
	}

	resp, _ := doJSON(t, ts, http.MethodPost, "/signup", "", SignupRequest{
		FirstName: "Alice2",
		Email:     "alice@example.com",
		Password:  "super-secret",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", resp.StatusCode)
	}

	resp, raw := doJSON(t, ts, http.MethodPost, "/login", "", LoginRequest{
		Email:    "alice@example.com",
		Password: "super-secret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", resp.StatusCode, raw)
	}
	var out AuthResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if out.User.ID != alice.User.ID {
		t.Fatalf("login returned a different user: %+v", out.User)
	}

	resp, _ = doJSON(t, ts, http.MethodPost, "/login", "", LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthMiddlewareRejectsAnonymous(t *testing.T) {
	ts, _ := startTestServer(t)

	for _, path := range []string{"/profile/view", "/feed", "/user/connections"} {
		resp, _ := doJSON(t, ts, http.MethodGet, path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s without token: expected 401, got %d", path, resp.StatusCode)
		}
	}

	resp, _ := doJSON(t, ts, http.MethodGet, "/profile/view", "garbage-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", resp.StatusCode)
	}
}

func TestProfileViewAndEdit(t *testing.T) {
	ts, _ := startTestServer(t)

	alice := signupUser(t, ts, "Alice", "alice@example.com")

	resp, raw := doJSON(t, ts, http.MethodGet, "/profile/view", alice.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile view: expected 200, got %d", resp.StatusCode)
	}
	var view UserResponse
	if err := json.Unmarshal(raw, &view); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if view.FirstName != "Alice" || view.Email != "alice@example.com" {
		t.Fatalf("unexpected profile: %+v", view)
	}

	age := 30
	about := "Go developer"
	resp, raw = doJSON(t, ts, http.MethodPatch, "/profile/edit", alice.Token, EditProfileRequest{
		Age:   &age,
		About: &about,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile edit: expected 200, got %d (%s)", resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, &view); err != nil {
		t.Fatalf("decode updated profile: %v", err)
	}
	if view.Age == nil || *view.Age != 30 || view.About != "Go developer" {
		t.Fatalf("edit did not stick: %+v", view)
	}
	if view.FirstName != "Alice" {
		t.Fatalf("untouched field changed: %+v", view)
	}

	badAge := 12
	resp, _ = doJSON(t, ts, http.MethodPatch, "/profile/edit", alice.Token, EditProfileRequest{Age: &badAge})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("underage edit: expected 400, got %d", resp.StatusCode)
	}
}

func TestConnectionRequestFlow(t *testing.T) {
	ts, _ := startTestServer(t)

	alice := signupUser(t, ts, "Alice", "alice@example.com")
	bob := signupUser(t, ts, "Bob", "bob@example.com")

	resp, raw := doJSON(t, ts, http.MethodPost, "/request/send/interested/"+bob.User.ID, alice.Token, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send request: expected 201, got %d (%s)", resp.StatusCode, raw)
	}

	resp, _ = doJSON(t, ts, http.MethodPost, "/request/send/interested/"+bob.User.ID, alice.Token, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate request: expected 409, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, ts, http.MethodPost, "/request/send/accepted/"+bob.User.ID, alice.Token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("accepted is not a send status: expected 400, got %d", resp.StatusCode)
	}

	resp, raw = doJSON(t, ts, http.MethodGet, "/user/requests/received", bob.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("received: expected 200, got %d", resp.StatusCode)
	}
	var received struct {
		Data []RequestResponse `json:"data"`
	}
	if err := json.Unmarshal(raw, &received); err != nil {
		t.Fatalf("decode received: %v", err)
	}
	if len(received.Data) != 1 || received.Data[0].FromUserID != alice.User.ID {
		t.Fatalf("unexpected received requests: %+v", received.Data)
	}
	if received.Data[0].From == nil || received.Data[0].From.FirstName != "Alice" {
		t.Fatalf("sender not expanded: %+v", received.Data[0])
	}

	resp, raw = doJSON(t, ts, http.MethodPost, "/request/review/accepted/"+alice.User.ID, bob.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("review: expected 200, got %d (%s)", resp.StatusCode, raw)
	}

	for name, token := range map[string]string{"alice": alice.Token, "bob": bob.Token} {
		resp, raw = doJSON(t, ts, http.MethodGet, "/user/connections", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s connections: expected 200, got %d", name, resp.StatusCode)
		}
		var conns struct {
			Data []UserResponse `json:"data"`
		}
		if err := json.Unmarshal(raw, &conns); err != nil {
			t.Fatalf("decode connections: %v", err)
		}
		if len(conns.Data) != 1 {
			t.Fatalf("%s: expected one connection, got %+v", name, conns.Data)
		}
	}
}

func TestFeedExcludesRequestPeers(t *testing.T) {
	ts, _ := startTestServer(t)

	alice := signupUser(t, ts, "Alice", "alice@example.com")
	bob := signupUser(t, ts, "Bob", "bob@example.com")
	carol := signupUser(t, ts, "Carol", "carol@example.com")

	resp, _ := doJSON(t, ts, http.MethodPost, "/request/send/ignored/"+bob.User.ID, alice.Token, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send request: expected 201, got %d", resp.StatusCode)
	}

	resp, raw := doJSON(t, ts, http.MethodGet, "/feed", alice.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("feed: expected 200, got %d", resp.StatusCode)
	}
	var feedOut struct {
		Data []UserResponse `json:"data"`
	}
	if err := json.Unmarshal(raw, &feedOut); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if len(feedOut.Data) != 1 || feedOut.Data[0].ID != carol.User.ID {
		t.Fatalf("feed should contain only carol, got %+v", feedOut.Data)
	}
	if feedOut.Data[0].Email != "" {
		t.Fatalf("feed leaked an email: %+v", feedOut.Data[0])
	}
}

func TestChatHistory(t *testing.T) {
	ts, st := startTestServer(t)

	alice := signupUser(t, ts, "Alice", "alice@example.com")
	bob := signupUser(t, ts, "Bob", "bob@example.com")

	ctx := context.Background()
	conv, err := st.FindOrCreateConversation(ctx, alice.User.ID, bob.User.ID)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if _, err := st.AppendMessage(ctx, conv.ID, alice.User.ID, "hello bob"); err != nil {
		t.Fatalf("append message: %v", err)
	}
	if _, err := st.AppendMessage(ctx, conv.ID, bob.User.ID, "hi alice"); err != nil {
		t.Fatalf("append message: %v", err)
	}

	resp, raw := doJSON(t, ts, http.MethodGet, "/chat/"+bob.User.ID, alice.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat history: expected 200, got %d (%s)", resp.StatusCode, raw)
	}
	var out ConversationResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if out.ID != conv.ID || len(out.Messages) != 2 {
		t.Fatalf("unexpected history: %+v", out)
	}
	if out.Messages[0].Text != "hello bob" || out.Messages[1].Text != "hi alice" {
		t.Fatalf("messages out of order: %+v", out.Messages)
	}
	if out.Messages[0].SenderName != "Alice Tester" {
		t.Fatalf("sender not expanded: %+v", out.Messages[0])
	}

	// Self chat is rejected.
	resp, _ = doJSON(t, ts, http.MethodGet, "/chat/"+alice.User.ID, alice.Token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("self chat: expected 400, got %d", resp.StatusCode)
	}
}
