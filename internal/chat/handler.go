package chat

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type options struct {
	clock func() time.Time
	newID func() string
}

// Option customizes a Handler or Broadcaster.
type Option func(*options)

// WithClock replaces time.Now as the source of message timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithIDGenerator replaces the random UUID session id generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func newOptions(opts []Option) options {
	o := options{clock: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Handler reacts to connection lifecycle events coming from the transport.
type Handler struct {
	registry    *Registry
	broadcaster *Broadcaster
	newID       func() string
	log         *slog.Logger
}

// NewHandler wires a Registry and a Broadcaster around store.
func NewHandler(store Store, log *slog.Logger, opts ...Option) *Handler {
	o := newOptions(opts)
	registry := NewRegistry()
	return &Handler{
		registry:    registry,
		broadcaster: NewBroadcaster(store, registry, log, opts...),
		newID:       o.newID,
		log:         log,
	}
}

// Registry exposes the live session set.
func (h *Handler) Registry() *Registry {
	return h.registry
}

// OnConnect creates a session for channel, registers it and sends it the
// message history.
func (h *Handler) OnConnect(channel Channel) (*Session, error) {
	session := NewSession(h.newID(), channel)
	history, err := h.broadcaster.Join(session)
	if err != nil {
		if errors.Is(err, ErrDuplicateSession) {
			h.log.Error("Session id collision", "session", session.ID, "err", err)
		}
		return nil, fmt.Errorf("join session: %w", err)
	}
	h.log.Info("Session connected", "session", session.ID, "history", len(history), "sessions", h.registry.Count())
	return session, nil
}

// OnMessage publishes text on behalf of the session. Failures are logged and
// never reported back to the sender.
func (h *Handler) OnMessage(sessionID, text string) {
	if _, ok := h.registry.Get(sessionID); !ok {
		h.log.Warn("Dropping message", "session", sessionID, "err", ErrUnknownSession)
		return
	}
	// Persist failures are already logged by the broadcaster.
	_, _ = h.broadcaster.Publish(text, sessionID)
}

// OnDisconnect removes the session. Unknown ids are ignored.
func (h *Handler) OnDisconnect(sessionID string) {
	if h.registry.Unregister(sessionID) {
		h.log.Info("Session disconnected", "session", sessionID, "sessions", h.registry.Count())
	}
}
