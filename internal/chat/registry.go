package chat

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Identity is the metadata a client announces with a join frame.
// The zero value marks a connection that has not joined yet.
type Identity struct {
	Email string
	Name  string
}

// Member is one entry of an online listing.
type Member struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Registry tracks every live client and its identity. It is the single piece
// of shared mutable state in the server; every operation is safe for
// concurrent use from any number of connection handlers.
type Registry struct {
	clients map[*Client]Identity
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		clients: make(map[*Client]Identity),
		logger:  logger,
	}
}

// Register adds a client with no identity yet.
func (r *Registry) Register(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client] = Identity{}
}

// Identify overwrites both identity fields for the client. A client that was
// concurrently unregistered is silently ignored.
func (r *Registry) Identify(client *Client, email, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[client]; !ok {
		return
	}
	r.clients[client] = Identity{Email: email, Name: name}
}

// Unregister removes a client. Removing an absent client is a no-op.
func (r *Registry) Unregister(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, client)
}

// Broadcast queues payload for every live client, the sender included.
// The lock is held only while copying the target set, never across a send.
// Delivery is best effort: a client whose buffer is full misses this frame
// and stays registered; cleanup belongs to that client's read loop alone.
func (r *Registry) Broadcast(payload []byte) {
	for _, client := range r.Clients() {
		select {
		case client.Outgoing <- payload:
		default:
			r.logger.Debug("dropping frame for slow client",
				zap.String("client", client.ID))
		}
	}
}

// Clients returns a point-in-time copy of the live client set.
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]*Client, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

// Snapshot lists every client that has joined, optionally filtered by a
// case-insensitive substring match on email. Clients without an email are
// always excluded. Order is unspecified.
func (r *Registry) Snapshot(filter string) []Member {
	filter = strings.ToLower(filter)

	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]Member, 0, len(r.clients))
	for _, identity := range r.clients {
		if identity.Email == "" {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(identity.Email), filter) {
			continue
		}
		members = append(members, Member{Email: identity.Email, Name: identity.Name})
	}
	return members
}

// Count returns the number of live clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
