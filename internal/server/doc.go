// Package server implements the HTTP and WebSocket transport of the chat relay.
//
// The implementation is organized into specialized files for configuration, hub
// management, clients, routing, and HTTP handlers. The hub feeds connection
// lifecycle events into the chat package, which owns ordering and persistence.
package server
