//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=mocks/mock_channel.go -package=mocks
package chat

import (
	"fmt"
	"sync/atomic"
)

// Channel is the outbound event sink of one connected client. Send must not
// block; a channel that can no longer accept events returns an error.
type Channel interface {
	Send(evt Event) error
}

// State is the lifecycle position of a Session.
type State int32

const (
	StateConnecting State = iota
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Session is one connected client.
type Session struct {
	ID      string
	channel Channel
	seq     uint64
	state   atomic.Int32
}

// NewSession returns a Session in the Connecting state.
func NewSession(id string, channel Channel) *Session {
	return &Session{ID: id, channel: channel}
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) connected() {
	s.state.CompareAndSwap(int32(StateConnecting), int32(StateConnected))
}

func (s *Session) disconnected() {
	s.state.Store(int32(StateDisconnected))
}

// Deliver hands evt to the session's channel. Disconnected sessions and channel
// failures both yield an ErrDelivery error.
func (s *Session) Deliver(evt Event) error {
	if s.State() == StateDisconnected {
		return fmt.Errorf("%w: session %s is disconnected", ErrDelivery, s.ID)
	}
	if err := s.channel.Send(evt); err != nil {
		return fmt.Errorf("%w: session %s: %w", ErrDelivery, s.ID, err)
	}
	return nil
}
