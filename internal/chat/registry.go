package chat

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Registry tracks the live set of sessions keyed by id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	nextSeq  uint64
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register adds session. It fails with ErrDuplicateSession when the id is
// already present.
func (r *Registry) Register(session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSession, session.ID)
	}
	r.nextSeq++
	session.seq = r.nextSeq
	r.sessions[session.ID] = session
	return nil
}

// Unregister removes the session with the given id and marks it Disconnected.
// Unknown ids are ignored; it reports whether a session was removed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if ok {
		session.disconnected()
	}
	return ok
}

// Get returns the registered session with the given id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

// Sessions returns a snapshot of the registered sessions in registration order.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	sessions := lo.Values(r.sessions)
	r.mu.RUnlock()

	slices.SortFunc(sessions, func(a, b *Session) int {
		return cmp.Compare(a.seq, b.seq)
	})
	return sessions
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
