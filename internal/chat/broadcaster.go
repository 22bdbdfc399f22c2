package chat

import (
	"log/slog"
	"sync"
	"time"
)

// Broadcaster appends messages to the Store and fans them out to every
// registered session. The mutex is held across append and fanout, and across
// Join, so all sessions observe one global order equal to the log order.
type Broadcaster struct {
	mu       sync.Mutex
	store    Store
	registry *Registry
	clock    func() time.Time
	log      *slog.Logger
}

func NewBroadcaster(store Store, registry *Registry, log *slog.Logger, opts ...Option) *Broadcaster {
	o := newOptions(opts)
	return &Broadcaster{
		store:    store,
		registry: registry,
		clock:    o.clock,
		log:      log,
	}
}

// Publish builds a Message from text, appends it to the store and delivers it to
// every registered session, sender included. A failed append does not stop the
// fanout: the message is still returned together with the persist error.
func (b *Broadcaster) Publish(text, sender string) (Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg := newMessage(text, sender, b.clock())

	persistErr := b.store.Append(msg)
	if persistErr != nil {
		b.log.Error("Message kept in memory only", "sender", sender, "err", persistErr)
	}

	b.fanout(messageEvent(msg))
	return msg, persistErr
}

func (b *Broadcaster) fanout(evt Event) {
	sessions := b.registry.Sessions()
	delivered := 0
	for _, session := range sessions {
		if err := session.Deliver(evt); err != nil {
			b.log.Warn("Delivery skipped", "session", session.ID, "err", err)
			continue
		}
		delivered++
	}
	b.log.Debug("Broadcast message", "delivered", delivered, "sessions", len(sessions))
}

// Join registers session and delivers the current history to it alone. No
// Publish can run between the snapshot and the registration, so every message
// is either in the history or delivered later by fanout.
func (b *Broadcaster) Join(session *Session) ([]Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.registry.Register(session); err != nil {
		return nil, err
	}
	history := b.store.Snapshot()
	if err := session.Deliver(historyEvent(history)); err != nil {
		b.log.Warn("History delivery failed", "session", session.ID, "err", err)
	}
	session.connected()
	return history, nil
}
