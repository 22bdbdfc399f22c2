package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Tyrowin/chatrelay/internal/chat"
	"github.com/Tyrowin/chatrelay/internal/storage"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestWebSocket_Fresh_Start_Sends_Empty_History(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, nil)

	_, history := stack.connect(t)

	req.Empty(history)
	stack.waitForClients(t, 1)
}

func TestWebSocket_Sender_Receives_Own_Message(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, nil)
	conn, _ := stack.connect(t)
	stack.waitForClients(t, 1)

	sendText(t, conn, "hi")
	msg := readChatMessage(t, conn)

	req.Equal("hi", msg.Text)
	req.NotEmpty(msg.Sender)
	req.NotEmpty(msg.Timestamp)
	req.Equal([]chat.Message{msg}, stack.store.Snapshot())
}

func TestWebSocket_Late_Joiner_Gets_History(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, nil)
	a, _ := stack.connect(t)
	stack.waitForClients(t, 1)
	sendText(t, a, "hi")
	sent := readChatMessage(t, a)

	_, history := stack.connect(t)

	req.Equal([]chat.Message{sent}, history)
}

func TestWebSocket_Two_Clients_See_Same_Order(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, nil)
	a, _ := stack.connect(t)
	b, _ := stack.connect(t)
	stack.waitForClients(t, 2)

	sendText(t, a, "m1")
	req.Equal("m1", readChatMessage(t, a).Text)
	req.Equal("m1", readChatMessage(t, b).Text)

	sendText(t, b, "m2")
	req.Equal("m2", readChatMessage(t, a).Text)
	req.Equal("m2", readChatMessage(t, b).Text)

	persisted, err := storage.ReadFile(stack.config.MessagesFile)
	req.NoError(err)
	req.Len(persisted, 2)
	req.Equal([]string{"m1", "m2"}, []string{persisted[0].Text, persisted[1].Text})
}

func TestWebSocket_Concurrent_Senders_Share_One_Order(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, func(cfg *Config) {
		cfg.RateLimit.Burst = 100
	})

	const clients, perClient = 4, 10
	conns := make([]*websocket.Conn, clients)
	for i := range conns {
		conns[i], _ = stack.connect(t)
	}
	stack.waitForClients(t, clients)

	var wg sync.WaitGroup
	for i, conn := range conns {
		wg.Add(1)
		go func(i int, conn *websocket.Conn) {
			defer wg.Done()
			for j := 0; j < perClient; j++ {
				if err := conn.WriteJSON(InboundMessage{Text: fmt.Sprintf("c%d-%d", i, j)}); err != nil {
					t.Errorf("client %d write: %v", i, err)
					return
				}
			}
		}(i, conn)
	}
	wg.Wait()

	received := make([][]chat.Message, clients)
	for i, conn := range conns {
		for j := 0; j < clients*perClient; j++ {
			received[i] = append(received[i], readChatMessage(t, conn))
		}
	}

	log := stack.store.Snapshot()
	req.Len(log, clients*perClient)
	for i := range received {
		req.Equal(log, received[i], "client %d order differs from the log", i)
	}
}

func TestWebSocket_Disconnect_Does_Not_Affect_Others(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, nil)
	a, _ := stack.connect(t)
	b, _ := stack.connect(t)
	c, _ := stack.connect(t)
	stack.waitForClients(t, 3)

	req.NoError(b.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	req.NoError(b.Close())
	stack.waitForClients(t, 2)

	sendText(t, a, "still here")
	req.Equal("still here", readChatMessage(t, a).Text)
	req.Equal("still here", readChatMessage(t, c).Text)
}

func TestWebSocket_Invalid_Frames_Are_Skipped(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, nil)
	conn, _ := stack.connect(t)
	stack.waitForClients(t, 1)

	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	req.NoError(conn.WriteJSON(map[string]string{"type": "typing", "text": "ignored"}))
	sendText(t, conn, "valid")

	req.Equal("valid", readChatMessage(t, conn).Text)
	req.Len(stack.store.Snapshot(), 1)
}

func TestWebSocket_Type_Is_Optional(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, nil)
	conn, _ := stack.connect(t)
	stack.waitForClients(t, 1)

	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte(`{"text":"bare"}`)))

	req.Equal("bare", readChatMessage(t, conn).Text)
}

func TestWebSocket_Oversized_Message_Closes_Connection(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, func(cfg *Config) {
		cfg.MaxMessageSize = 64
	})
	big, _ := stack.connect(t)
	other, _ := stack.connect(t)
	stack.waitForClients(t, 2)

	sendText(t, big, strings.Repeat("x", 200))

	req.NoError(big.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := big.ReadMessage()
	req.Error(err)
	stack.waitForClients(t, 1)

	sendText(t, other, "ok")
	req.Equal("ok", readChatMessage(t, other).Text)
	req.Len(stack.store.Snapshot(), 1)
}

func TestWebSocket_Rate_Limit_Discards_Excess(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, func(cfg *Config) {
		cfg.RateLimit = RateLimitConfig{Burst: 2, RefillInterval: time.Minute}
	})
	conn, _ := stack.connect(t)
	stack.waitForClients(t, 1)

	for i := 0; i < 5; i++ {
		sendText(t, conn, fmt.Sprintf("burst-%d", i))
	}

	req.Equal("burst-0", readChatMessage(t, conn).Text)
	req.Equal("burst-1", readChatMessage(t, conn).Text)
	expectNoMessage(t, conn, 300*time.Millisecond)
	req.Len(stack.store.Snapshot(), 2)
}

func TestWebSocket_Origin_Validation(t *testing.T) {
	stack := newTestStack(t, nil)

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"configured origin", testOrigin, true},
		{"case insensitive", "HTTP://LOCALHOST:3000", true},
		{"other origin", "http://evil.example", false},
		{"missing origin", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			conn, resp, err := dial(stack.wsURL, tt.origin)
			if !tt.allowed {
				req.Error(err)
				req.NotNil(resp)
				req.Equal(http.StatusForbidden, resp.StatusCode)
				return
			}
			req.NoError(err)
			defer conn.Close()
			req.Equal(chat.EventHistory, readEvent(t, conn).Type)
		})
	}
}

func TestWebSocket_Wildcard_Origin(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, func(cfg *Config) {
		cfg.AllowedOrigins = []string{"*"}
	})

	conn, _, err := dial(stack.wsURL, "http://anywhere.example")
	req.NoError(err)
	defer conn.Close()
	req.Equal(chat.EventHistory, readEvent(t, conn).Type)
}

func TestHub_Shutdown_Closes_Clients(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, nil)
	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conns[i], _ = stack.connect(t)
	}
	stack.waitForClients(t, 3)

	req.NoError(stack.hub.Shutdown(2 * time.Second))

	for i, conn := range conns {
		req.NoError(conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, _, err := conn.ReadMessage()
		req.Error(err, "client %d still connected after shutdown", i)
	}
	req.Zero(stack.hub.ClientCount())
	req.Zero(stack.hub.handler.Registry().Count())
}

func TestHub_Rejects_Connections_After_Shutdown(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t, nil)
	req.NoError(stack.hub.Shutdown(time.Second))

	conn, _, err := dial(stack.wsURL, testOrigin)
	req.NoError(err)
	defer conn.Close()

	req.NoError(conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err = conn.ReadMessage()
	req.Error(err)
}
