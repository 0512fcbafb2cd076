// Package diagstream broadcasts diagnostics to connected websocket
// clients as they are raised, for an editor/LSP-style live listing
// instead of only a final batch. Grounded on
// internal/network/websocket_server.go's client-registry/broadcast
// shape (Clients map, mutex-guarded broadcast loop that marks a client
// closed on write error instead of aborting the whole broadcast).
package diagstream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"a68front/internal/diag"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// Server holds the set of connected clients for one compilation
// session's live diagnostic feed.
type Server struct {
	mu      sync.RWMutex
	clients map[string]*client
	nextID  int
}

func NewServer() *Server {
	return &Server{clients: map[string]*client{}}
}

// HandleUpgrade upgrades an incoming HTTP request to a websocket
// connection and registers it as a broadcast target.
func (s *Server) HandleUpgrade(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	s.mu.Lock()
	id := fmtID(s.nextID)
	s.nextID++
	s.clients[id] = &client{conn: conn}
	s.mu.Unlock()
	return nil
}

func fmtID(n int) string {
	const digits = "0123456789"
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{digits[n%10]}, b...)
		n /= 10
	}
	return string(b)
}

// Broadcast sends d to every connected client concurrently, dropping
// (and marking closed) any client whose write fails rather than
// letting one dead connection block the rest — the same
// mark-closed-on-error behavior as WebSocketBroadcast.
func (s *Server) Broadcast(ctx context.Context, d diag.Diagnostic) error {
	payload, err := json.Marshal(map[string]interface{}{
		"severity": d.Severity.String(),
		"file":     d.File,
		"line":     d.Line,
		"column":   d.Column,
		"message":  d.String(),
	})
	if err != nil {
		return err
	}

	s.mu.RLock()
	targets := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	g, _ := errgroup.WithContext(ctx)
	for _, c := range targets {
		c := c
		g.Go(func() error {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.closed {
				return nil
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.closed = true
			}
			return nil
		})
	}
	return g.Wait()
}

// StreamAll broadcasts every diagnostic already in sink, in order, for
// a client that connects after compilation already finished.
func (s *Server) StreamAll(ctx context.Context, sink *diag.Sink) error {
	for _, d := range sink.All() {
		if err := s.Broadcast(ctx, d); err != nil {
			return err
		}
	}
	return nil
}
