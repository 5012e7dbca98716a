package server

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xeot403/chatx/internal/chat"
	"github.com/xeot403/chatx/internal/transport/ws"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin policy is the deployment's concern, CORS covers the API.
	},
}

// handleWebSocket upgrades the request and hands the connection to the chat
// core: one read loop, one write loop, one registry entry.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := chat.NewClient(ws.NewConn(conn))
	s.registry.Register(client)
	s.logger.Info("client connected",
		zap.String("client", client.ID),
		zap.String("remote", client.Conn.RemoteAddr()))

	s.wg.Add(2)
	go s.writeLoop(client)
	go s.readLoop(client)
}

// readLoop owns the client's lifecycle: every inbound text frame goes to the
// relay, and whatever way the loop exits the registry entry is removed
// exactly once.
func (s *Server) readLoop(client *chat.Client) {
	defer s.wg.Done()
	defer func() {
		s.registry.Unregister(client)
		client.Close()
		s.logger.Info("client disconnected", zap.String("client", client.ID))
	}()

	ctx := context.Background()
	for {
		frame, err := client.Conn.Read(ctx)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				s.logger.Warn("websocket read failed",
					zap.String("client", client.ID), zap.Error(err))
			}
			return
		}
		s.relay.HandleFrame(client, frame)
	}
}

// writeLoop drains the client's outgoing queue to the socket. A write
// failure only ends this client's delivery; cleanup stays with the read loop.
func (s *Server) writeLoop(client *chat.Client) {
	defer s.wg.Done()

	ctx := context.Background()
	for {
		select {
		case <-client.Done():
			return
		case frame := <-client.Outgoing:
			if err := client.Conn.Write(ctx, frame); err != nil {
				s.logger.Debug("websocket write failed",
					zap.String("client", client.ID), zap.Error(err))
				return
			}
		}
	}
}
