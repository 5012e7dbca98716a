// Package server wires the chat core to its WebSocket and HTTP surface.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xeot403/chatx/internal/chat"
	"github.com/xeot403/chatx/internal/store"
)

// Config holds the server's listen address and static asset location.
type Config struct {
	Addr string
	// StaticDir is the directory with the web client; static routes are
	// skipped when empty.
	StaticDir string
}

// Server serves the chat relay and its HTTP API on one listener.
type Server struct {
	config   Config
	listener net.Listener
	server   *http.Server
	registry *chat.Registry
	relay    *chat.Relay
	users    *store.Store
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// New creates a Server around an existing registry and user store.
func New(config Config, registry *chat.Registry, users *store.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		config:   config,
		registry: registry,
		relay:    chat.NewRelay(registry, logger),
		users:    users,
		logger:   logger,
	}
}

// Start listens on the configured address and serves until Stop is called.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	s.server = &http.Server{Handler: s.routes()}

	s.logger.Info("server started", zap.String("addr", listener.Addr().String()))

	if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop shuts the HTTP server down, closes every live chat connection and
// waits for all connection goroutines to exit.
func (s *Server) Stop() {
	if s.server != nil {
		if err := s.server.Shutdown(context.Background()); err != nil {
			s.logger.Warn("shutdown error", zap.Error(err))
		}
	}

	// Shutdown does not touch hijacked websocket connections.
	for _, client := range s.registry.Clients() {
		client.Close()
	}

	s.wg.Wait()
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/online", s.handleOnline).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	if s.config.StaticDir != "" {
		r.PathPrefix("/static/").Handler(
			http.StripPrefix("/static/", http.FileServer(http.Dir(s.config.StaticDir))))
		r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	}

	// Permissive CORS so development frontends on other ports can talk to
	// the API.
	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)(r)
}
