// Package server coordinates client registration, message broadcast, and
// connection cleanup for the relay via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/chatrelay/internal/chat"
)

// Hub turns WebSocket lifecycle events into chat.Handler calls. Connects,
// inbound messages and disconnects all pass through the single Run loop, so
// they reach the handler in one total order.
type Hub struct {
	handler    *chat.Handler
	log        *slog.Logger
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub that drives handler. The returned Hub is ready to
// manage WebSocket connections once Run is started.
func NewHub(handler *chat.Handler, log *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		handler:    handler,
		log:        log,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Join queues a new client for registration. It returns false once the hub is
// shutting down.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) submit(evt inboundEvent) bool {
	select {
	case h.inbound <- evt:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// ClientCount returns the number of clients with a live chat session.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Run starts the hub's main event loop. It should be called in a separate
// goroutine and returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case evt := <-h.inbound:
			if evt.client.sessionID == "" {
				continue
			}
			h.handler.OnMessage(evt.client.sessionID, evt.text)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	if client == nil {
		h.log.Warn("Received nil client registration; skipping")
		return
	}

	session, err := h.handler.OnConnect(client)
	if err != nil {
		h.log.Error("Rejecting client", "addr", client.addr, "err", err)
		client.Close()
		if client.conn != nil {
			_ = client.conn.Close()
		}
		return
	}
	client.sessionID = session.ID
	client.log = client.log.With("session", session.ID)

	h.mutex.Lock()
	h.clients[client] = struct{}{}
	clientCount := len(h.clients)
	h.mutex.Unlock()
	h.log.Info("Client registered", "addr", client.addr, "session", session.ID, "clients", clientCount)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) handleUnregister(client *Client) {
	h.mutex.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	clientCount := len(h.clients)
	h.mutex.Unlock()

	if !ok {
		return
	}

	h.handler.OnDisconnect(client.sessionID)
	client.Close()
	h.log.Info("Client unregistered", "addr", client.addr, "session", client.sessionID, "clients", clientCount)
}

// shutdownClients gracefully closes all active client connections
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]struct{})
	h.mutex.Unlock()

	for _, client := range clients {
		h.handler.OnDisconnect(client.sessionID)
		client.Close()
		if err := client.conn.Close(); err != nil {
			if !isExpectedCloseError(err) {
				h.log.Warn("Error closing client connection", "addr", client.addr, "err", err)
			}
		}
	}

	h.log.Info("Closed client connections", "count", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()

	select {
	case <-h.done:
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached before event loop stopped")
		return context.DeadlineExceeded
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
