package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/detekto/cellwatch/internal/app"
	"github.com/detekto/cellwatch/internal/bus"
	"github.com/detekto/cellwatch/internal/connectors"
)

const (
	clientSendBuffer = 8
	writeTimeout     = 5 * time.Second
	shutdownTimeout  = 3 * time.Second
)

// StateSource exposes the latest signal state.
type StateSource interface {
	State() app.SignalState
}

// StatusSource exposes modem link statuses.
type StatusSource interface {
	ConnStatuses() []connectors.ConnectionStatus
}

// Message is the websocket envelope.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type health struct {
	Status string                        `json:"status"`
	Build  app.BuildInfo                 `json:"build"`
	Modems []connectors.ConnectionStatus `json:"modems"`
}

// Server serves the latest signal state over HTTP and pushes every new
// snapshot to websocket clients.
type Server struct {
	state    StateSource
	statuses StatusSource
	bus      bus.MessageBus
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan Message
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func NewServer(state StateSource, statuses StatusSource, b bus.MessageBus, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default().With("component", "api")
	}

	return &Server{
		state:    state,
		statuses: statuses,
		bus:      b,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		clients: make(map[*client]struct{}),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/signals", s.getOnly(s.handleSignals))
	mux.HandleFunc("/api/providers", s.getOnly(s.handleProviders))
	mux.HandleFunc("/api/state", s.getOnly(s.handleState))
	mux.HandleFunc("/api/health", s.getOnly(s.handleHealth))
	mux.HandleFunc("/ws", s.handleWebSocket)

	return mux
}

// Start forwards bus snapshots to websocket clients until ctx is done.
func (s *Server) Start(ctx context.Context) {
	if s.bus == nil {
		return
	}
	sub := s.bus.Subscribe(connectors.TopicSignalSnapshot)
	go func() {
		defer s.bus.Unsubscribe(sub, connectors.TopicSignalSnapshot)
		defer s.closeClients()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sub:
				if !ok {
					return
				}
				state, ok := raw.(app.SignalState)
				if !ok {
					continue
				}
				s.broadcast(Message{Type: "state", Data: state})
			}
		}
	}()
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.closeClients()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return nil
	}
}

func (s *Server) getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

			return
		}
		next(w, r)
	}
}

func (s *Server) handleSignals(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, nonNil(s.state.State().Signals))
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, nonNil(s.state.State().Providers))
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.state.State())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h := health{Status: "ok", Build: app.CurrentBuildInfo(), Modems: []connectors.ConnectionStatus{}}
	if s.statuses != nil {
		h.Modems = append(h.Modems, s.statuses.ConnStatuses()...)
	}
	if s.state.State().Error != "" {
		h.Status = "degraded"
	}
	s.writeJSON(w, h)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)

		return
	}
	c := &client{
		conn: conn,
		send: make(chan Message, clientSendBuffer),
		done: make(chan struct{}),
	}
	c.send <- Message{Type: "state", Data: s.state.State()}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()
	s.logger.Debug("websocket client connected", "remote", r.RemoteAddr, "clients", count)

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop discards client frames and detects disconnects.
func (s *Server) readLoop(c *client) {
	defer s.removeClient(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	defer s.removeClient(c)
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				s.logger.Debug("websocket write failed", "error", err)

				return
			}
		}
	}
}

// broadcast drops clients that are too slow to keep up.
func (s *Server) broadcast(msg Message) {
	s.mu.Lock()
	var slow []*client
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	s.mu.Unlock()

	for _, c := range slow {
		s.logger.Warn("dropping slow websocket client")
		s.removeClient(c)
	}
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
}

func (s *Server) closeClients() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode api response", "error", err)
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}
