package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/orrery/internal/command"
)

// client is one WebSocket connection. Only writeLoop writes to conn.
type client struct {
	conn *websocket.Conn
	key  string
	send chan Message
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade: %v", err)
		return
	}
	c := &client{
		conn: conn,
		key:  clientKey(r),
		send: make(chan Message, sendBuffer),
		done: make(chan struct{}),
	}
	s.register(c)
	s.log.Info("client %s connected", c.key)

	go s.writeLoop(c)
	s.readLoop(c)

	s.unregister(c)
	s.log.Info("client %s disconnected", c.key)
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.connected.Inc()
}

func (s *Server) unregister(c *client) {
	c.close()
	s.mu.Lock()
	delete(s.clients, c)
	remaining := 0
	for other := range s.clients {
		if other.key == c.key {
			remaining++
		}
	}
	s.mu.Unlock()
	if remaining == 0 {
		s.limiter.Forget(c.key)
	}
	s.connected.Dec()
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.close()
	}
}

// readLoop decodes commands until the connection fails.
func (s *Server) readLoop(c *client) {
	c.conn.SetReadLimit(maxCommandBytes)
	for {
		var cmd command.Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("client %s: %v", c.key, err)
			}
			return
		}
		res := s.apply(c.key, cmd)
		// results must not be dropped; block until there is room
		select {
		case c.send <- Message{Type: "result", Result: &res}:
		case <-c.done:
			return
		}
	}
}

// writeLoop streams a snapshot every interval and forwards results.
func (s *Server) writeLoop(c *client) {
	ticker := time.NewTicker(s.cfg.StreamInterval)
	defer ticker.Stop()
	defer c.close()

	// a fresh client sees the current state immediately
	snap := s.snapshot()
	if !s.write(c, Message{Type: "state", State: &snap}) {
		return
	}

	for {
		select {
		case <-c.done:
			return
		case m := <-c.send:
			if !s.write(c, m) {
				return
			}
		case <-ticker.C:
			snap := s.snapshot()
			if !s.write(c, Message{Type: "state", State: &snap}) {
				return
			}
		}
	}
}

func (s *Server) write(c *client, m Message) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(m); err != nil {
		s.log.Debug("client %s write: %v", c.key, err)
		return false
	}
	return true
}
