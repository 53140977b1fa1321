// internal/handlers/hub.go
package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Dylanuga/werewolf-game/service/internal/game"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// ErrAlreadyConnected is returned when a player handle already has a live
// connection.
var ErrAlreadyConnected = errors.New("player already connected")

type client struct {
	conn     *websocket.Conn
	send     chan game.GameEvent
	done     chan struct{}
	stopOnce sync.Once
}

func (c *client) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Hub maps player handles to connections. Sends never block the caller:
// each connection has its own buffered queue and writer goroutine, and a
// full queue drops the event.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*client
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[uuid.UUID]*client)}
}

// Register attaches conn to playerID and starts its writer.
func (h *Hub) Register(playerID uuid.UUID, conn *websocket.Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[playerID]; ok {
		return ErrAlreadyConnected
	}
	c := &client{
		conn: conn,
		send: make(chan game.GameEvent, sendBuffer),
		done: make(chan struct{}),
	}
	h.clients[playerID] = c
	go h.writeLoop(playerID, c)
	return nil
}

// Unregister detaches conn from playerID and stops its writer. Queued events
// are dropped. A handle since registered to another connection is left alone.
func (h *Hub) Unregister(playerID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	c, ok := h.clients[playerID]
	if ok && c.conn == conn {
		delete(h.clients, playerID)
	}
	h.mu.Unlock()
	if ok && c.conn == conn {
		c.stop()
	}
}

// SendToPlayer queues ev for playerID. Unknown players are ignored.
func (h *Hub) SendToPlayer(playerID uuid.UUID, ev game.GameEvent) {
	h.mu.RLock()
	c, ok := h.clients[playerID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- ev:
	case <-c.done:
	default:
		log.Warnf("Hub: send queue full for %s, dropping %s.", playerID, ev.Type)
	}
}

// Connected reports whether playerID has a live connection.
func (h *Hub) Connected(playerID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[playerID]
	return ok
}

// writeLoop drains c.send. A failed write unregisters the client and closes
// its connection, which ends the read loop.
func (h *Hub) writeLoop(playerID uuid.UUID, c *client) {
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := wsjson.Write(ctx, c.conn, ev)
			cancel()
			if err != nil {
				log.Debugf("Hub: write to %s failed: %v", playerID, err)
				h.Unregister(playerID, c.conn)
				c.conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}
