// Package ws adapts gorilla/websocket connections to the chat.Conn interface.
package ws

import (
	"context"

	"github.com/gorilla/websocket"
)

// Conn adapts a *websocket.Conn to chat.Conn.
type Conn struct {
	conn *websocket.Conn
}

// NewConn wraps an upgraded websocket connection.
func NewConn(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn}
}

// Read implements chat.Conn.
// Returns the next text frame; control frames are handled by the library and
// non-text data frames are skipped.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType == websocket.TextMessage {
			return data, nil
		}
	}
}

// Write implements chat.Conn.
// Writes a text frame. The caller must serialize writes; gorilla allows one
// concurrent writer.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close implements chat.Conn.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
