package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hailam/tilechess/internal/game"
)

// event is the message pushed to WebSocket clients.
type event struct {
	Type   string      `json:"type"`
	GameID string      `json:"gameId,omitempty"`
	State  *game.State `json:"state,omitempty"`
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

type hub struct {
	clientsLock sync.RWMutex
	clients     map[*client]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*client]struct{})}
}

func (h *hub) add(c *client) {
	h.clientsLock.Lock()
	h.clients[c] = struct{}{}
	h.clientsLock.Unlock()
}

func (h *hub) remove(c *client) {
	h.clientsLock.Lock()
	delete(h.clients, c)
	h.clientsLock.Unlock()
	c.conn.Close()
}

func (h *hub) broadcast(ev event) {
	h.clientsLock.RLock()
	defer h.clientsLock.RUnlock()
	for c := range h.clients {
		if err := c.send(ev); err != nil {
			log.Warn("websocket write", "remote", c.conn.RemoteAddr().String(), "error", err)
		}
	}
}

func (h *hub) closeAll() {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()
	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
}

// wsHandler upgrades the connection and keeps it registered until the
// client goes away. Incoming messages are ignored apart from close frames.
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade", "error", err)
		return
	}
	log.Info("new websocket connection", "remote", conn.RemoteAddr().String())

	c := &client{conn: conn}
	s.hub.add(c)
	if err := c.send(event{Type: "hello"}); err != nil {
		s.hub.remove(c)
		return
	}

	go func() {
		for {
			if _, _, err := c.conn.ReadMessage(); err != nil {
				log.Info("websocket closed", "remote", c.conn.RemoteAddr().String(), "error", err)
				s.hub.remove(c)
				return
			}
		}
	}()
}
