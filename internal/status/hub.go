// Package status mirrors the assistant's state to a small web surface.
// A browser page connects over a websocket and renders what Sami is
// doing (listening, thinking, speaking, idle). The mirror is purely
// observational: the assistant never waits on it.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
)

// stateMessage is the JSON shape pushed to clients.
type stateMessage struct {
	State     string `json:"state"`
	Text      string `json:"text,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Hub fans state updates out to connected websocket clients. Slow
// clients have updates dropped rather than stalling the publisher.
type Hub struct {
	log      *logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    *stateMessage
}

type client struct {
	conn *websocket.Conn
	send chan stateMessage
}

var _ domain.StatusSink = (*Hub)(nil)

// NewHub creates a status hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish broadcasts a state update. Never blocks.
func (h *Hub) Publish(update domain.StatusUpdate) {
	msg := stateMessage{
		State:     string(update.State),
		Text:      update.Text,
		Timestamp: update.Timestamp.UnixMilli(),
	}

	h.mu.Lock()
	h.last = &msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Client isn't keeping up; it'll catch the next update.
		}
	}
	h.mu.Unlock()
}

// Routes returns the HTTP surface: a websocket feed and a snapshot of
// the last published state.
func (h *Hub) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/ws", h.handleWS)
	r.Get("/state", h.handleState)
	return r
}

// Serve runs the status server until ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: h.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		h.log.Info("status: serving on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("status: upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan stateMessage, 8)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- *h.last
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("status: client connected (%d total)", n)

	go h.writeLoop(c)
	h.readLoop(c)
}

// writeLoop pushes updates to one client until its channel closes.
func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			h.log.Debug("status: write failed: %v", err)
			h.drop(c)
			return
		}
	}
}

// readLoop discards inbound frames; it exists to notice disconnects.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	c.conn.Close()
	h.log.Debug("status: client disconnected (%d total)", n)
}

func (h *Hub) handleState(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	last := h.last
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if last == nil {
		w.Write([]byte(`{"state":"idle"}`))
		return
	}
	json.NewEncoder(w).Encode(last)
}
