package chat_test

import (
	"context"
	"io"

	"github.com/xeot403/chatx/internal/chat"
)

// mockConn is a minimal chat.Conn for tests. Frames pushed into readCh come
// out of Read; writes are discarded because registry tests observe delivery
// through the Outgoing channel, not the transport.
type mockConn struct {
	readCh     chan []byte
	remoteAddr string
}

func newMockConn(addr string) *mockConn {
	return &mockConn{
		readCh:     make(chan []byte, 10),
		remoteAddr: addr,
	}
}

func (m *mockConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data, ok := <-m.readCh:
		if !ok {
			return nil, io.EOF
		}
		return data, nil
	}
}

func (m *mockConn) Write(ctx context.Context, data []byte) error {
	return nil
}

func (m *mockConn) Close() error {
	close(m.readCh)
	return nil
}

func (m *mockConn) RemoteAddr() string {
	return m.remoteAddr
}

// Compile-time check that mockConn implements chat.Conn
var _ chat.Conn = (*mockConn)(nil)
