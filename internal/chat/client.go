package chat

import (
	"sync"

	"github.com/google/uuid"
)

// outgoingBuffer bounds how many frames may be queued for one client before
// broadcast starts dropping frames for it.
const outgoingBuffer = 16

// Client represents one connected peer. The pointer itself is the registry
// handle; ID exists for logging only.
type Client struct {
	ID       string
	Conn     Conn
	Outgoing chan []byte

	done chan struct{}
	once sync.Once
}

// NewClient wraps a transport connection in a Client with a fresh handle.
func NewClient(conn Conn) *Client {
	return &Client{
		ID:       uuid.NewString(),
		Conn:     conn,
		Outgoing: make(chan []byte, outgoingBuffer),
		done:     make(chan struct{}),
	}
}

// Done is closed when the client's lifecycle ends. The write loop selects on
// it rather than on a closed Outgoing channel, so an in-flight broadcast can
// never send on a closed channel.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close tears down the transport and releases the write loop. Idempotent.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.Conn.Close()
	})
}
