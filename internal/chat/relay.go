package chat

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Frame discriminants the relay acts on. Anything else is a chat frame.
const (
	frameJoin   = "join"
	frameSearch = "search"
)

// envelope is the decoded shape of a structured frame. Only the fields the
// relay acts on are declared; everything else stays in the raw bytes.
type envelope struct {
	Type  string `json:"type"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Relay interprets inbound frames and drives the registry.
type Relay struct {
	registry *Registry
	logger   *zap.Logger
}

// NewRelay creates a Relay bound to registry.
func NewRelay(registry *Registry, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{registry: registry, logger: logger}
}

// HandleFrame classifies one inbound text frame from client. Join frames
// update the sender's identity and are never forwarded. Search frames and
// everything else, unparseable input included, are fanned out as the
// original raw bytes so every peer receives exactly what was sent.
// Classification never fails.
func (r *Relay) HandleFrame(client *Client, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		switch env.Type {
		case frameJoin:
			r.registry.Identify(client, env.Email, env.Name)
			r.logger.Debug("client joined",
				zap.String("client", client.ID),
				zap.String("email", env.Email))
			return
		case frameSearch:
			r.registry.Broadcast(raw)
			return
		}
	}
	r.registry.Broadcast(raw)
}
