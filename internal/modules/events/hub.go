package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// connection is one dashboard client. An empty contracts set means "all contracts".
type connection struct {
	userID    uuid.UUID
	conn      *websocket.Conn
	send      chan []byte
	contracts map[uuid.UUID]bool
}

// Hub pushes committed events to connected dashboard users.
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]struct{}
}

func NewHub() *Hub {
	return &Hub{connections: make(map[*connection]struct{})}
}

func (h *Hub) Name() string { return "websocket" }

// Publish never waits on a slow client; its copy of the event is skipped instead.
func (h *Hub) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections {
		if !c.wants(e) {
			continue
		}
		select {
		case c.send <- data:
		default:
		}
	}
	return nil
}

// Broadcast is the forwarder callback used when events arrive from redis.
func (h *Hub) Broadcast(e Event) {
	_ = h.Publish(context.Background(), e)
}

func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.connections {
		delete(h.connections, c)
		close(c.send)
	}
}

func (c *connection) wants(e Event) bool {
	if len(c.contracts) == 0 {
		return true
	}
	return e.ContractID != nil && c.contracts[*e.ContractID]
}

// ServeWS registers the connection and blocks until the client disconnects.
func (h *Hub) ServeWS(conn *websocket.Conn, userID uuid.UUID, contracts []uuid.UUID) {
	c := &connection{
		userID:    userID,
		conn:      conn,
		send:      make(chan []byte, 64),
		contracts: make(map[uuid.UUID]bool, len(contracts)),
	}
	for _, id := range contracts {
		c.contracts[id] = true
	}

	h.mu.Lock()
	h.connections[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd struct {
			Type       string    `json:"type"`
			ContractID uuid.UUID `json:"contract_id"`
		}
		if err := json.Unmarshal(msg, &cmd); err != nil || cmd.ContractID == uuid.Nil {
			continue
		}

		h.mu.Lock()
		switch cmd.Type {
		case "subscribe":
			c.contracts[cmd.ContractID] = true
		case "unsubscribe":
			delete(c.contracts, cmd.ContractID)
		}
		h.mu.Unlock()
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
