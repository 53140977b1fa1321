package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Player is a connected participant as seen by the service layer.
// Roles live in the engine session; the player only carries identity and
// connection state.
type Player struct {
	ID        uuid.UUID       `json:"id"`
	Username  string          `json:"username"`
	IsHost    bool            `json:"is_host"`
	Connected bool            `json:"connected"`
	Conn      *websocket.Conn `json:"-"`
}

// Snapshot returns a detached copy of p.
func (p *Player) Snapshot() *Player {
	cp := *p
	return &cp
}
