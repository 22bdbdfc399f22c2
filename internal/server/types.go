// Package server defines the inbound wire format and utility helpers shared by
// client and hub logic.
package server

import (
	"strings"

	"github.com/Tyrowin/chatrelay/internal/chat"
)

// InboundMessage is the JSON frame a client sends to post a message. Type may
// be omitted; when present it must name the chat message event.
type InboundMessage struct {
	Type chat.EventType `json:"type,omitempty"`
	Text string         `json:"text"`
}

type inboundEvent struct {
	client *Client
	text   string
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
