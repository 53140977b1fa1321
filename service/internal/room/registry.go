// internal/room/registry.go
package room

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/Dylanuga/werewolf-game/engine"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CodeLength is the number of letters in a room code.
const CodeLength = 4

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Registry is the directory of live rooms and of which room each player is in.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	playerRooms map[uuid.UUID]string

	newCode func() string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[string]*Room),
		playerRooms: make(map[uuid.UUID]string),
		newCode:     randomCode,
	}
}

func randomCode() string {
	var b strings.Builder
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(codeAlphabet[rand.IntN(len(codeAlphabet))])
	}
	return b.String()
}

// NormalizeCode trims and upper-cases a human-typed room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create registers a new empty room under a fresh code.
func (r *Registry) Create() *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.newCode()
	for r.rooms[code] != nil {
		code = r.newCode()
	}
	rm := newRoom(code)
	r.rooms[code] = rm
	log.Printf("Room %s: created (%d live).", code, len(r.rooms))
	return rm
}

// Lookup returns the room with the given code.
func (r *Registry) Lookup(code string) (*Room, error) {
	code = NormalizeCode(code)
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", engine.ErrRoomNotFound, code)
	}
	return rm, nil
}

// RoomOf returns the room playerID is in.
func (r *Registry) RoomOf(playerID uuid.UUID) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.playerRooms[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: player %s", engine.ErrNotInSession, playerID)
	}
	rm, ok := r.rooms[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", engine.ErrRoomNotFound, code)
	}
	return rm, nil
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) bind(playerID uuid.UUID, code string) {
	r.mu.Lock()
	r.playerRooms[playerID] = code
	r.mu.Unlock()
}

func (r *Registry) unbind(playerID uuid.UUID) {
	r.mu.Lock()
	delete(r.playerRooms, playerID)
	r.mu.Unlock()
}

// RemoveIfEmpty deletes the room when nobody is left in it and reports
// whether it did. A removed room refuses further joins.
func (r *Registry) RemoveIfEmpty(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return false
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if len(rm.players) > 0 {
		return false
	}
	rm.removed = true
	delete(r.rooms, code)
	log.Printf("Room %s: removed (%d live).", code, len(r.rooms))
	return true
}
