package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/devconnect/devconnect-server/internal/proto"
)

func wsEndpoint(ts *httptest.Server, token string) string {
	url := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	return url
}

func dialWS(ctx context.Context, t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, wsEndpoint(ts, token), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendEvent(ctx context.Context, t *testing.T, conn *websocket.Conn, eventType string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", eventType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: eventType, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", eventType, err)
	}
}

func readOutbound(ctx context.Context, t *testing.T, conn *websocket.Conn) rawOutbound {
	t.Helper()

	var out rawOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

type rawOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

func TestWebSocketRequiresToken(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, wsEndpoint(ts, ""), nil)
	if err == nil {
		t.Fatal("expected dial without token to fail")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401 handshake rejection, got %+v", resp)
	}

	_, resp, err = websocket.Dial(ctx, wsEndpoint(ts, "not-a-token"), nil)
	if err == nil {
		t.Fatal("expected dial with garbage token to fail")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401 handshake rejection, got %+v", resp)
	}
}

func TestWebSocketMessageRoundTrip(t *testing.T) {
	ts, _ := startTestServer(t)

	alice := signupUser(t, ts, "Alice", "alice@example.com")
	bob := signupUser(t, ts, "Bob", "bob@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(ctx, t, ts, alice.Token)
	connB := dialWS(ctx, t, ts, bob.Token)

	sendEvent(ctx, t, connA, proto.InboundTypeJoinChat, proto.JoinChatData{PeerID: bob.User.ID})
	sendEvent(ctx, t, connB, proto.InboundTypeJoinChat, proto.JoinChatData{PeerID: alice.User.ID})

	// joinChat produces no acknowledgement, so give the hub a beat to
	// process both joins before the first message.
	time.Sleep(100 * time.Millisecond)

	sendEvent(ctx, t, connA, proto.InboundTypeSendMessage, proto.SendMessageData{
		PeerID: bob.User.ID,
		Text:   "hey bob",
	})

	for name, conn := range map[string]*websocket.Conn{"sender": connA, "peer": connB} {
		out := readOutbound(ctx, t, conn)
		if out.Type != proto.OutboundTypeEvent || out.Event != proto.EventReceiveMessage {
			t.Fatalf("%s: unexpected outbound %+v", name, out)
		}

		var msg proto.ReceiveMessageData
		if err := json.Unmarshal(out.Data, &msg); err != nil {
			t.Fatalf("%s: unmarshal message: %v", name, err)
		}
		if msg.SenderID != alice.User.ID || msg.SenderName == "" || msg.Text != "hey bob" {
			t.Fatalf("%s: unexpected message payload: %+v", name, msg)
		}
		if msg.Status != "sent" {
			t.Fatalf("%s: expected status sent, got %q", name, msg.Status)
		}
		if msg.CreatedAt.IsZero() {
			t.Fatalf("%s: server did not assign a timestamp", name)
		}
	}
}

func TestWebSocketClientTimestampIgnored(t *testing.T) {
	ts, _ := startTestServer(t)

	alice := signupUser(t, ts, "Alice", "alice@example.com")
	bob := signupUser(t, ts, "Bob", "bob@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(ctx, t, ts, alice.Token)
	sendEvent(ctx, t, connA, proto.InboundTypeJoinChat, proto.JoinChatData{PeerID: bob.User.ID})
	time.Sleep(100 * time.Millisecond)

	sendEvent(ctx, t, connA, proto.InboundTypeSendMessage, proto.SendMessageData{
		PeerID:    bob.User.ID,
		Text:      "time traveller",
		CreatedAt: "1999-12-31T23:59:59Z",
	})

	out := readOutbound(ctx, t, connA)
	var msg proto.ReceiveMessageData
	if err := json.Unmarshal(out.Data, &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	if msg.CreatedAt.Year() < 2020 {
		t.Fatalf("client-supplied timestamp leaked through: %v", msg.CreatedAt)
	}
}

func TestWebSocketIdentityMismatchRejected(t *testing.T) {
	ts, _ := startTestServer(t)

	alice := signupUser(t, ts, "Alice", "alice@example.com")
	bob := signupUser(t, ts, "Bob", "bob@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(ctx, t, ts, alice.Token)

	// Alice tries to speak as Bob.
	sendEvent(ctx, t, connA, proto.InboundTypeSendMessage, proto.SendMessageData{
		SelfID: bob.User.ID,
		PeerID: bob.User.ID,
		Text:   "impersonation attempt",
	})

	out := readOutbound(ctx, t, connA)
	if out.Type != proto.OutboundTypeError || out.Error == nil {
		t.Fatalf("expected error outbound, got %+v", out)
	}
	if out.Error.Code != "identity_mismatch" {
		t.Fatalf("expected identity_mismatch, got %q", out.Error.Code)
	}
}

func TestWebSocketMissingPeerRejected(t *testing.T) {
	ts, _ := startTestServer(t)

	alice := signupUser(t, ts, "Alice", "alice@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(ctx, t, ts, alice.Token)
	sendEvent(ctx, t, connA, proto.InboundTypeJoinChat, proto.JoinChatData{})

	out := readOutbound(ctx, t, connA)
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != "bad_request" {
		t.Fatalf("expected bad_request error, got %+v", out)
	}
}

func TestWebSocketMarkAsSeenPropagates(t *testing.T) {
	ts, _ := startTestServer(t)

	alice := signupUser(t, ts, "Alice", "alice@example.com")
	bob := signupUser(t, ts, "Bob", "bob@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(ctx, t, ts, alice.Token)
	connB := dialWS(ctx, t, ts, bob.Token)

	sendEvent(ctx, t, connA, proto.InboundTypeJoinChat, proto.JoinChatData{PeerID: bob.User.ID})
	sendEvent(ctx, t, connB, proto.InboundTypeJoinChat, proto.JoinChatData{PeerID: alice.User.ID})
	time.Sleep(100 * time.Millisecond)

	sendEvent(ctx, t, connA, proto.InboundTypeSendMessage, proto.SendMessageData{
		PeerID: bob.User.ID,
		Text:   "read me",
	})

	// Both sides see the message first.
	readOutbound(ctx, t, connA)
	out := readOutbound(ctx, t, connB)
	var msg proto.ReceiveMessageData
	if err := json.Unmarshal(out.Data, &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}

	sendEvent(ctx, t, connB, proto.InboundTypeMarkAsSeen, proto.MarkAsSeenData{PeerID: alice.User.ID})

	for name, conn := range map[string]*websocket.Conn{"sender": connA, "reader": connB} {
		out := readOutbound(ctx, t, conn)
		if out.Event != proto.EventUpdateMessageStatus {
			t.Fatalf("%s: expected status update, got %+v", name, out)
		}
		var status proto.UpdateMessageStatusData
		if err := json.Unmarshal(out.Data, &status); err != nil {
			t.Fatalf("%s: unmarshal status: %v", name, err)
		}
		if status.Status != "seen" {
			t.Fatalf("%s: expected seen, got %q", name, status.Status)
		}
		if len(status.MessageIDs) != 1 || status.MessageIDs[0] != msg.ID {
			t.Fatalf("%s: unexpected message ids: %v", name, status.MessageIDs)
		}
	}
}

func TestWebSocketRoomIsolation(t *testing.T) {
	ts, _ := startTestServer(t)

	alice := signupUser(t, ts, "Alice", "alice@example.com")
	bob := signupUser(t, ts, "Bob", "bob@example.com")
	carol := signupUser(t, ts, "Carol", "carol@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(ctx, t, ts, alice.Token)
	connC := dialWS(ctx, t, ts, carol.Token)

	sendEvent(ctx, t, connA, proto.InboundTypeJoinChat, proto.JoinChatData{PeerID: bob.User.ID})
	// Carol joins her own chat with Bob, a different room.
	sendEvent(ctx, t, connC, proto.InboundTypeJoinChat, proto.JoinChatData{PeerID: bob.User.ID})
	time.Sleep(100 * time.Millisecond)

	sendEvent(ctx, t, connA, proto.InboundTypeSendMessage, proto.SendMessageData{
		PeerID: bob.User.ID,
		Text:   "private to bob",
	})

	// Alice gets the echo.
	readOutbound(ctx, t, connA)

	// Carol must not.
	readCtx, readCancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer readCancel()
	var out rawOutbound
	if err := wsjson.Read(readCtx, connC, &out); err == nil {
		t.Fatalf("carol received a message from another room: %+v", out)
	}
}
