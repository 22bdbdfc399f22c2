package chat_test

import (
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/Tyrowin/chatrelay/internal/chat"
)

var errChannelClosed = errors.New("channel closed")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory chat.Store.
type memStore struct {
	mu       sync.Mutex
	messages []chat.Message
	fail     error
}

func (s *memStore) Append(msg chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return s.fail
}

func (s *memStore) Snapshot() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// recordingChannel keeps every event it receives.
type recordingChannel struct {
	mu     sync.Mutex
	events []chat.Event
	closed bool
}

func (c *recordingChannel) Send(evt chat.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errChannelClosed
	}
	c.events = append(c.events, evt)
	return nil
}

func (c *recordingChannel) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *recordingChannel) snapshotEvents() []chat.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.events)
}

func (c *recordingChannel) history() []chat.Message {
	for _, evt := range c.snapshotEvents() {
		if evt.Type == chat.EventHistory {
			return evt.History
		}
	}
	return nil
}

func (c *recordingChannel) messages() []chat.Message {
	var out []chat.Message
	for _, evt := range c.snapshotEvents() {
		if evt.Type == chat.EventMessage {
			out = append(out, *evt.Message)
		}
	}
	return out
}

func texts(messages []chat.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Text)
	}
	return out
}
