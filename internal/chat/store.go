//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
package chat

// Store is the durable message log used by the Broadcaster.
//
// Append must leave msg in the in-memory log even when persisting fails; the
// returned error only reports the failed write. Snapshot returns a copy that
// later appends do not affect.
type Store interface {
	Append(msg Message) error
	Snapshot() []Message
}
