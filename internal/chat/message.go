package chat

import "time"

// TimeOfDayLayout formats Message timestamps.
const TimeOfDayLayout = "3:04:05 PM"

// Message is an immutable chat record. It is created once by the Broadcaster
// and copied into the log and into every delivery.
type Message struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Sender    string `json:"sender"`
}

func newMessage(text, sender string, at time.Time) Message {
	return Message{
		Text:      text,
		Timestamp: at.Format(TimeOfDayLayout),
		Sender:    sender,
	}
}

// EventType names an outbound event.
type EventType string

const (
	EventHistory EventType = "history"
	EventMessage EventType = "chat message"
)

// Event is the envelope delivered to a session's Channel. History events carry
// the log snapshot; chat message events carry a single Message.
type Event struct {
	Type    EventType `json:"type"`
	Message *Message  `json:"message,omitempty"`
	History []Message `json:"history,omitempty"`
}

func historyEvent(messages []Message) Event {
	return Event{Type: EventHistory, History: messages}
}

func messageEvent(msg Message) Event {
	return Event{Type: EventMessage, Message: &msg}
}
