// Package events fans out node status updates to WebSocket subscribers,
// consuming an engine's update channel and broadcasting each one as a
// JSON message.
package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Upgrader is the shared websocket.Upgrader handlers use to promote an
// HTTP request to a connection before handing it to Hub.Register.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub tracks connected subscribers and broadcasts node updates to all
// of them.
type Hub struct {
	mutex   sync.RWMutex
	clients map[*client]struct{}
	running bool
}

type client struct {
	conn *websocket.Conn
	send chan model.Node
}

// NewHub creates an empty hub. Call Run with the engine's update
// channel to start broadcasting.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Run consumes updates until the channel closes or stop fires,
// broadcasting each one to every registered client.
func (h *Hub) Run(updates <-chan model.Node, stop <-chan struct{}) {
	h.mutex.Lock()
	h.running = true
	h.mutex.Unlock()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.broadcast(update)
		case <-stop:
			h.mutex.Lock()
			h.running = false
			h.mutex.Unlock()
			return
		}
	}
}

func (h *Hub) broadcast(update model.Node) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- update:
		default:
			// slow client, drop this update rather than block the hub
		}
	}
}

// Register upgrades conn into a tracked client and starts its
// read/write pumps. It blocks until the client disconnects.
func (h *Hub) Register(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan model.Node, sendBuffer)}

	h.mutex.Lock()
	h.clients[c] = struct{}{}
	h.mutex.Unlock()

	done := make(chan struct{})
	go c.writePump(done)
	c.readPump()
	close(done)

	h.mutex.Lock()
	delete(h.clients, c)
	h.mutex.Unlock()
	conn.Close()
}

// readPump drains and discards inbound frames purely to detect
// disconnects and keep the read deadline fed by pong handling.
func (c *client) readPump() {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case update := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			payload, err := json.Marshal(update)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// ClientCount returns the number of currently registered subscribers.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// IsRunning reports whether Run is actively consuming updates.
func (h *Hub) IsRunning() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.running
}
