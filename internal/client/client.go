// Package client implements a chat client for the DevConnect server. It
// fetches transcripts over REST, keeps a live connection over WebSocket,
// and mirrors only what the server confirms: sent messages appear in the
// transcript when the server echoes them back, never before.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdhttp "net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/devconnect/devconnect-server/internal/proto"
)

// Message is one transcript entry.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// History is the REST view of a conversation.
type History struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	Messages     []Message `json:"messages"`
}

// Client talks to one DevConnect server on behalf of one authenticated
// user. Safe for concurrent use once connected.
type Client struct {
	baseURL string
	token   string
	httpc   *stdhttp.Client

	// OnError receives protocol errors the server addressed to this
	// socket. Set before Connect; nil means errors are dropped.
	OnError func(code, msg string)

	// OnUpdate fires after every transcript change. Set before Connect.
	OnUpdate func()

	mu         sync.Mutex
	conn       *websocket.Conn
	transcript []Message
	closed     chan struct{}
	readDone   chan struct{}
}

// New creates a client for the server at baseURL using the given token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &stdhttp.Client{Timeout: 10 * time.Second},
		closed:  make(chan struct{}),
	}
}

// FetchHistory loads the conversation with a peer over REST and seeds the
// transcript with it.
func (c *Client) FetchHistory(ctx context.Context, peerID string) (*History, error) {
	req, err := stdhttp.NewRequestWithContext(ctx, stdhttp.MethodGet, c.baseURL+"/chat/"+peerID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != stdhttp.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch history: status %d: %s", resp.StatusCode, body)
	}

	var hist History
	if err := json.NewDecoder(resp.Body).Decode(&hist); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	c.mu.Lock()
	c.transcript = append([]Message(nil), hist.Messages...)
	c.mu.Unlock()
	c.notify()

	return &hist, nil
}

// Connect dials the WebSocket endpoint and starts consuming server
// events into the transcript.
func (c *Client) Connect(ctx context.Context) error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/ws?token=" + c.token

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.readDone = make(chan struct{})
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// OpenChat binds the connection to the room shared with a peer and marks
// the peer's pending messages as seen, matching what a user opening a
// chat window does.
func (c *Client) OpenChat(ctx context.Context, peerID string) error {
	if err := c.send(ctx, proto.InboundTypeJoinChat, proto.JoinChatData{PeerID: peerID}); err != nil {
		return err
	}
	return c.send(ctx, proto.InboundTypeMarkAsSeen, proto.MarkAsSeenData{PeerID: peerID})
}

// Send submits a message. The transcript is not touched here: the entry
// appears when the server echoes it back with its assigned id and
// timestamp.
func (c *Client) Send(ctx context.Context, peerID, text string) error {
	return c.send(ctx, proto.InboundTypeSendMessage, proto.SendMessageData{
		PeerID: peerID,
		Text:   text,
	})
}

// MarkSeen asks the server to flip the peer's unseen messages.
func (c *Client) MarkSeen(ctx context.Context, peerID string) error {
	return c.send(ctx, proto.InboundTypeMarkAsSeen, proto.MarkAsSeenData{PeerID: peerID})
}

// Transcript returns a copy of the current transcript in order.
func (c *Client) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.transcript...)
}

// Close shuts the WebSocket connection down and waits for the read loop.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	done := c.readDone
	c.conn = nil
	c.mu.Unlock()

	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	if conn == nil {
		return nil
	}
	err := conn.Close(websocket.StatusNormalClosure, "bye")
	if done != nil {
		<-done
	}
	return err
}

func (c *Client) send(ctx context.Context, eventType string, data any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, proto.Inbound{Type: eventType, Data: payload})
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer close(c.readDone)

	ctx := context.Background()
	for {
		var out struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return
		}

		switch {
		case out.Type == proto.OutboundTypeError && out.Error != nil:
			if c.OnError != nil {
				c.OnError(out.Error.Code, out.Error.Msg)
			}
		case out.Event == proto.EventReceiveMessage:
			var msg proto.ReceiveMessageData
			if err := json.Unmarshal(out.Data, &msg); err != nil {
				continue
			}
			c.appendMessage(msg)
		case out.Event == proto.EventUpdateMessageStatus:
			var status proto.UpdateMessageStatusData
			if err := json.Unmarshal(out.Data, &status); err != nil {
				continue
			}
			c.applyStatus(status)
		}
	}
}

func (c *Client) appendMessage(msg proto.ReceiveMessageData) {
	c.mu.Lock()
	c.transcript = append(c.transcript, Message{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Text:       msg.Text,
		Status:     msg.Status,
		CreatedAt:  msg.CreatedAt,
	})
	c.mu.Unlock()
	c.notify()
}

func (c *Client) applyStatus(status proto.UpdateMessageStatusData) {
	ids := make(map[string]struct{}, len(status.MessageIDs))
	for _, id := range status.MessageIDs {
		ids[id] = struct{}{}
	}

	c.mu.Lock()
	for i := range c.transcript {
		if _, ok := ids[c.transcript[i].ID]; ok {
			c.transcript[i].Status = status.Status
		}
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Client) notify() {
	if c.OnUpdate != nil {
		c.OnUpdate()
	}
}
