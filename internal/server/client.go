// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/chatrelay/internal/chat"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var (
	errClientClosed   = errors.New("client closed")
	errSendBufferFull = errors.New("send buffer full")
)

// Client is the WebSocket side of one chat session. It implements
// chat.Channel by queueing encoded events for its write pump.
type Client struct {
	conn           *websocket.Conn
	hub            *Hub
	addr           string
	log            *slog.Logger
	maxMessageSize int64
	rateLimiter    *rateLimiter
	rateLimit      RateLimitConfig

	sessionID string

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

var _ chat.Channel = (*Client)(nil)

// NewClient creates a new Client instance with the provided WebSocket connection,
// hub reference, and client address. The client's send channel is buffered
// to handle message queuing.
func NewClient(conn *websocket.Conn, hub *Hub, addr string, cfg *Config) *Client {
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Client{
		conn:           conn,
		hub:            hub,
		addr:           addr,
		log:            hub.log.With("addr", addr),
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		rateLimit:      cfg.RateLimit,
		send:           make(chan []byte, cfg.SendBufferSize),
	}
}

// GetSendChan returns the client's send channel for reading outgoing messages.
// This channel is read-only from the caller's perspective.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// SessionID returns the chat session bound to this client, empty until the hub
// has registered it.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Send encodes evt and queues it without blocking. A client whose queue is
// full is closed so it cannot silently miss messages.
func (c *Client) Send(evt chat.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.Type, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClientClosed
	}

	select {
	case c.send <- payload:
		return nil
	default:
		c.closeLocked()
		c.log.Warn("Client removed due to full send buffer")
		return errSendBufferFull
	}
}

// Close stops accepting events. The write pump drains what is queued, sends a
// close frame and exits.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("Error setting initial read deadline", "err", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warn("Error setting read deadline in pong handler", "err", err)
		}
		return nil
	})
}

// handleReadError logs appropriate error messages based on the error type
// and returns true if the read loop should break
func (c *Client) handleReadError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, websocket.ErrReadLimit) {
		c.log.Warn("Message exceeded maximum size", "limit", c.maxMessageSize)
		return true
	}

	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		c.log.Debug("Client disconnected", "err", err)
		return true
	}

	if errors.Is(err, io.EOF) || isExpectedCloseError(err) {
		c.log.Debug("Client connection closed", "err", err)
		return true
	}

	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig) {
		c.log.Warn("Unexpected WebSocket error", "err", err)
		return true
	}

	c.log.Warn("WebSocket read error", "err", err)
	return true
}

// checkRateLimit verifies if the client has exceeded rate limits
// and returns true if the message should be processed
func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		c.log.Warn("Rate limit exceeded; discarding message",
			"burst", c.rateLimit.Burst, "interval", c.rateLimit.RefillInterval)
		return false
	}
	return true
}

// processMessage decodes a raw frame and hands its text to the hub.
// It returns false if the frame was rejected.
func (c *Client) processMessage(rawMessage []byte) bool {
	var msg InboundMessage
	if err := json.Unmarshal(rawMessage, &msg); err != nil {
		c.log.Warn("Invalid message", "err", err)
		return false
	}
	if msg.Type != "" && msg.Type != chat.EventMessage {
		c.log.Warn("Unsupported event type", "type", msg.Type)
		return false
	}

	return c.hub.submit(inboundEvent{client: c, text: msg.Text})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		if err := c.conn.Close(); err != nil {
			if !isExpectedCloseError(err) {
				c.log.Warn("Error closing connection in readPump", "err", err)
			}
		}
	}()

	c.setupReadConnection()

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if c.handleReadError(err) {
			return
		}

		if !c.checkRateLimit() {
			continue
		}

		c.processMessage(rawMessage)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("Error closing connection in writePump", "err", err)
		}
	}
}

// handleMessage processes outgoing messages and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("Error setting write deadline", "err", err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("Error writing message", "err", err)
		}
		return false
	}
	return true
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() bool {
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Debug("Error writing close message", "err", err)
		}
	}
	return false
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("Error setting write deadline for ping", "err", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.log.Warn("Error writing ping message", "err", err)
		return false
	}
	return true
}
