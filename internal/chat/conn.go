// Package chat provides the core relay logic: the live-connection registry
// and the in-band protocol interpreter. It knows nothing about transports.
package chat

import "context"

// Conn abstracts a bidirectional message channel to one remote peer.
// This interface isolates transport details from relay logic.
type Conn interface {
	// Read reads a single text frame.
	// Returns io.EOF when the connection is closed.
	Read(ctx context.Context) ([]byte, error)

	// Write sends a single text frame.
	Write(ctx context.Context, data []byte) error

	// Close closes the connection.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}
