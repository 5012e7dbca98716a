package server_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}
}

func receive(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to receive frame: %v", err)
	}
	return string(data)
}

func TestWebSocket_ChatFanOut(t *testing.T) {
	srv := newTestServer(t)

	a := dialWS(t, srv)
	b := dialWS(t, srv)
	c := dialWS(t, srv)
	waitFor(t, "clients registered", func() bool {
		var h map[string]any
		getJSON(t, srv, "/health", &h)
		return h["connected_clients"] == float64(3)
	})

	send(t, a, "hello")

	// Everyone receives the frame, the sender included.
	for i, conn := range []*websocket.Conn{a, b, c} {
		if got := receive(t, conn); got != "hello" {
			t.Errorf("client %d received %q, want %q", i, got, "hello")
		}
	}
}

func TestWebSocket_SenderFIFO(t *testing.T) {
	srv := newTestServer(t)

	a := dialWS(t, srv)
	b := dialWS(t, srv)
	waitFor(t, "clients registered", func() bool {
		var h map[string]any
		getJSON(t, srv, "/health", &h)
		return h["connected_clients"] == float64(2)
	})

	for i := 0; i < 5; i++ {
		send(t, a, fmt.Sprintf("msg-%d", i))
	}

	// Messages from one sender arrive in the order they were sent.
	for _, conn := range []*websocket.Conn{a, b} {
		for i := 0; i < 5; i++ {
			want := fmt.Sprintf("msg-%d", i)
			if got := receive(t, conn); got != want {
				t.Fatalf("received %q, want %q", got, want)
			}
		}
	}
}

func TestWebSocket_JoinIsNotEchoed(t *testing.T) {
	srv := newTestServer(t)

	a := dialWS(t, srv)
	b := dialWS(t, srv)
	waitFor(t, "clients registered", func() bool {
		var h map[string]any
		getJSON(t, srv, "/health", &h)
		return h["connected_clients"] == float64(2)
	})

	send(t, a, `{"type":"join","email":"alice@x.com","name":"Alice"}`)
	send(t, a, "after-join")

	// A's frames are relayed in order, so if the join had been broadcast it
	// would arrive before the chat frame.
	for i, conn := range []*websocket.Conn{a, b} {
		if got := receive(t, conn); got != "after-join" {
			t.Errorf("client %d received %q, want %q", i, got, "after-join")
		}
	}
}

func TestWebSocket_SearchForwardedVerbatim(t *testing.T) {
	srv := newTestServer(t)

	a := dialWS(t, srv)
	b := dialWS(t, srv)
	waitFor(t, "clients registered", func() bool {
		var h map[string]any
		getJSON(t, srv, "/health", &h)
		return h["connected_clients"] == float64(2)
	})

	// Spacing and key order must come back untouched.
	raw := `{ "type":"search",  "query":"Bob" }`
	send(t, a, raw)

	for i, conn := range []*websocket.Conn{a, b} {
		if got := receive(t, conn); got != raw {
			t.Errorf("client %d received %q, want %q", i, got, raw)
		}
	}
}

func TestWebSocket_MalformedFrameBroadcast(t *testing.T) {
	srv := newTestServer(t)

	a := dialWS(t, srv)
	b := dialWS(t, srv)
	waitFor(t, "clients registered", func() bool {
		var h map[string]any
		getJSON(t, srv, "/health", &h)
		return h["connected_clients"] == float64(2)
	})

	raw := `{"type": "join", broken`
	send(t, a, raw)

	if got := receive(t, b); got != raw {
		t.Errorf("received %q, want %q", got, raw)
	}
}

func TestWebSocket_DisconnectCleansUp(t *testing.T) {
	srv := newTestServer(t)

	a := dialWS(t, srv)
	dialWS(t, srv)
	waitFor(t, "clients registered", func() bool {
		var h map[string]any
		getJSON(t, srv, "/health", &h)
		return h["connected_clients"] == float64(2)
	})

	send(t, a, `{"type":"join","email":"alice@x.com","name":"Alice"}`)
	waitFor(t, "join processed", func() bool {
		var members []map[string]string
		getJSON(t, srv, "/online", &members)
		return len(members) == 1
	})

	a.Close()

	// The entry and its identity disappear once the read loop exits.
	waitFor(t, "client unregistered", func() bool {
		var h map[string]any
		getJSON(t, srv, "/health", &h)
		return h["connected_clients"] == float64(1)
	})
	var members []map[string]string
	getJSON(t, srv, "/online", &members)
	if len(members) != 0 {
		t.Errorf("online listing still has %d entries after disconnect", len(members))
	}
}

func TestWebSocket_PeerFailureIsolation(t *testing.T) {
	srv := newTestServer(t)

	a := dialWS(t, srv)
	b := dialWS(t, srv)
	c := dialWS(t, srv)
	waitFor(t, "clients registered", func() bool {
		var h map[string]any
		getJSON(t, srv, "/health", &h)
		return h["connected_clients"] == float64(3)
	})

	// Kill B's transport abruptly.
	_ = b.UnderlyingConn().Close()
	waitFor(t, "dead client unregistered", func() bool {
		var h map[string]any
		getJSON(t, srv, "/health", &h)
		return h["connected_clients"] == float64(2)
	})

	send(t, a, "still here")

	for i, conn := range []*websocket.Conn{a, c} {
		if got := receive(t, conn); got != "still here" {
			t.Errorf("client %d received %q, want %q", i, got, "still here")
		}
	}
}

func TestWebSocket_JoinVisibleThroughSearchFilter(t *testing.T) {
	srv := newTestServer(t)

	a := dialWS(t, srv)
	waitFor(t, "client registered", func() bool {
		var h map[string]any
		getJSON(t, srv, "/health", &h)
		return h["connected_clients"] == float64(1)
	})

	join, _ := json.Marshal(map[string]string{
		"type": "join", "email": "Carol@Example.COM", "name": "Carol",
	})
	send(t, a, string(join))

	waitFor(t, "join processed", func() bool {
		var members []map[string]string
		getJSON(t, srv, "/online?q=example", &members)
		return len(members) == 1
	})
}
