// internal/room/room.go
package room

import (
	"errors"
	"sync"

	"github.com/Dylanuga/werewolf-game/service/internal/game"
	"github.com/Dylanuga/werewolf-game/service/internal/models"
	"github.com/google/uuid"
)

// Lobby errors. Engine errors (room not found, wrong phase, ...) pass
// through unchanged.
var (
	ErrRoomFull       = errors.New("room is full")
	ErrNameTaken      = errors.New("name already taken in this room")
	ErrInvalidName    = errors.New("invalid name")
	ErrNotHost        = errors.New("only the host can start the game")
	ErrTooFewPlayers  = errors.New("not enough players to start")
	ErrGameInProgress = errors.New("game already in progress")
	ErrAlreadyInRoom  = errors.New("player is already in a room")
)

// Error codes sent to clients for lobby errors.
const (
	CodeRoomFull       = "room_full"
	CodeNameTaken      = "name_taken"
	CodeInvalidName    = "invalid_name"
	CodeNotHost        = "not_host"
	CodeTooFewPlayers  = "too_few_players"
	CodeGameInProgress = "game_in_progress"
	CodeAlreadyInRoom  = "already_in_room"
)

// ErrorCode maps a lobby error to its wire code, or returns "".
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRoomFull):
		return CodeRoomFull
	case errors.Is(err, ErrNameTaken):
		return CodeNameTaken
	case errors.Is(err, ErrInvalidName):
		return CodeInvalidName
	case errors.Is(err, ErrNotHost):
		return CodeNotHost
	case errors.Is(err, ErrTooFewPlayers):
		return CodeTooFewPlayers
	case errors.Is(err, ErrGameInProgress):
		return CodeGameInProgress
	case errors.Is(err, ErrAlreadyInRoom):
		return CodeAlreadyInRoom
	}
	return ""
}

// Room events.
const (
	EventRoomCreated  game.GameEventType = "room_created"
	EventRoomJoined   game.GameEventType = "room_joined"
	EventRoomUpdated  game.GameEventType = "room_updated"
	EventGameStarting game.GameEventType = "game_starting"
	EventError        game.GameEventType = "error"
)

// PlayerInfo is the public description of a room member.
type PlayerInfo struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	IsHost   bool      `json:"is_host"`
}

// Room is one lobby and, once started, its night game.
// Lock order: a game's Mu may be held while taking a room's mu, never the
// reverse.
type Room struct {
	Code string

	mu        sync.Mutex
	players   []*models.Player // Join order.
	game      *game.NightGame
	nightOver bool
	removed   bool
}

func newRoom(code string) *Room {
	return &Room{Code: code}
}

// Players returns the members in join order.
func (r *Room) Players() []PlayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerInfos()
}

// Game returns the room's game, nil before the host starts it.
func (r *Room) Game() *game.NightGame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game
}

// NightOver reports whether the room's night has reached discussion.
func (r *Room) NightOver() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nightOver
}

// playerInfos assumes r.mu is held.
func (r *Room) playerInfos() []PlayerInfo {
	out := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, PlayerInfo{ID: p.ID, Username: p.Username, IsHost: p.IsHost})
	}
	return out
}

// host assumes r.mu is held.
func (r *Room) host() *models.Player {
	for _, p := range r.players {
		if p.IsHost {
			return p
		}
	}
	return nil
}
