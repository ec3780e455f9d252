package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/devconnect/devconnect-server/internal/proto"
)

// Smoke test for a running server: logs in over REST, opens the socket,
// joins the chat with a peer and sends one message.
func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	peer := flag.String("peer", "", "peer user id to chat with")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *email == "" || *password == "" || *peer == "" {
		log.Fatal("email, password and peer are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token, err := login(ctx, *addr, *email, *password)
	if err != nil {
		log.Fatalf("login: %v", err)
	}

	wsURL := strings.Replace(*addr, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(eventType string, data any) {
		payload, _ := json.Marshal(data)
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: eventType, Data: payload}); err != nil {
			log.Fatalf("send %s: %v", eventType, err)
		}
	}

	mustSend(proto.InboundTypeJoinChat, proto.JoinChatData{PeerID: *peer})
	mustSend(proto.InboundTypeSendMessage, proto.SendMessageData{PeerID: *peer, Text: *text})

	var outbound struct {
		Type  string          `json:"type"`
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
		Error *proto.Error    `json:"error"`
	}

	if err := wsjson.Read(ctx, conn, &outbound); err != nil {
		log.Fatalf("read: %v", err)
	}

	fmt.Printf("Received outbound: type=%s", outbound.Type)
	if outbound.Event != "" {
		fmt.Printf(" event=%s", outbound.Event)
	}
	fmt.Println()
	if outbound.Error != nil {
		fmt.Printf("Error: %s (%s)\n", outbound.Error.Msg, outbound.Error.Code)
	}

	if len(outbound.Data) > 0 {
		var msg proto.ReceiveMessageData
		if err := json.Unmarshal(outbound.Data, &msg); err == nil {
			fmt.Printf("Message: from=%s (%s) text=%q status=%s at=%s\n",
				msg.SenderName, msg.SenderID, msg.Text, msg.Status, msg.CreatedAt.Format(time.RFC3339))
		} else {
			fmt.Printf("Raw data: %s\n", string(outbound.Data))
		}
	}
}

func login(ctx context.Context, addr, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr+"/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}
