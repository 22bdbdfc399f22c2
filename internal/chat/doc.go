// Package chat implements the connection-and-broadcast core of the relay.
//
// A Handler drives the per-connection lifecycle, a Registry tracks the live
// sessions, and a Broadcaster appends every accepted message to a Store before
// fanning it out to all registered sessions. Publish and Join are serialized by
// the Broadcaster so every session observes messages in MessageLog order.
package chat
