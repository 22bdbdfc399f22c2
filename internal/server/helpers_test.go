package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/chatrelay/internal/chat"
	"github.com/Tyrowin/chatrelay/internal/storage"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://localhost:3000"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testStack is a running relay behind an httptest server.
type testStack struct {
	server *httptest.Server
	hub    *Hub
	store  *storage.FileStore
	config *Config
	wsURL  string
}

func newTestStack(t *testing.T, customize func(cfg *Config)) *testStack {
	t.Helper()

	cfg := NewConfig()
	cfg.MessagesFile = filepath.Join(t.TempDir(), "messages.json")
	cfg.AllowedOrigins = []string{testOrigin}
	if customize != nil {
		customize(cfg)
	}
	require.NoError(t, cfg.Validate())

	log := discardLogger()
	store := storage.NewFileStore(cfg.MessagesFile, log)
	store.LoadAll()
	hub := NewHub(chat.NewHandler(store, log), log)
	StartHub(hub)

	ts := httptest.NewServer(SetupRoutes(hub, cfg, log))
	t.Cleanup(func() {
		_ = hub.Shutdown(2 * time.Second)
		ts.Close()
	})

	return &testStack{
		server: ts,
		hub:    hub,
		store:  store,
		config: cfg,
		wsURL:  "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
	}
}

func originHeader(origin string) http.Header {
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}
	return headers
}

func dial(wsURL, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.Dial(wsURL, originHeader(origin))
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// connect dials the relay and consumes the history event.
func (s *testStack) connect(t *testing.T) (*websocket.Conn, []chat.Message) {
	t.Helper()
	conn, _, err := dial(s.wsURL, testOrigin)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	evt := readEvent(t, conn)
	require.Equal(t, chat.EventHistory, evt.Type)
	return conn, evt.History
}

func (s *testStack) waitForClients(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.hub.ClientCount() == n
	}, 2*time.Second, 10*time.Millisecond, "expected %d clients", n)
}

func sendText(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(InboundMessage{Type: chat.EventMessage, Text: text}))
}

func readEvent(t *testing.T, conn *websocket.Conn) chat.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt chat.Event
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func readChatMessage(t *testing.T, conn *websocket.Conn) chat.Message {
	t.Helper()
	evt := readEvent(t, conn)
	require.Equal(t, chat.EventMessage, evt.Type)
	require.NotNil(t, evt.Message)
	return *evt.Message
}

func expectNoMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected message: %s", data)
}
