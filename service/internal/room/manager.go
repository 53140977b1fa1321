// internal/room/manager.go
package room

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Dylanuga/werewolf-game/engine"
	"github.com/Dylanuga/werewolf-game/service/internal/game"
	"github.com/Dylanuga/werewolf-game/service/internal/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MaxNameLength is the longest accepted username, in characters.
const MaxNameLength = 20

// Sender delivers an event to one connected player. Unknown or departed
// players are ignored.
type Sender interface {
	SendToPlayer(playerID uuid.UUID, ev game.GameEvent)
}

// Options configures room limits and night timings.
type Options struct {
	MaxPlayers int
	MinPlayers int
	Timings    game.Timings
}

// DefaultOptions returns the production limits.
func DefaultOptions() Options {
	return Options{
		MaxPlayers: engine.MaxSeats,
		MinPlayers: 3,
		Timings:    game.DefaultTimings(),
	}
}

// Manager implements the lobby entry points on top of a Registry.
type Manager struct {
	reg    *Registry
	sender Sender
	opts   Options
}

// NewManager wires a manager to its registry and outbound sender.
func NewManager(reg *Registry, sender Sender, opts Options) *Manager {
	if opts.MaxPlayers <= 0 || opts.MaxPlayers > engine.MaxSeats {
		opts.MaxPlayers = engine.MaxSeats
	}
	if opts.MinPlayers < engine.MinSeats {
		opts.MinPlayers = engine.MinSeats
	}
	return &Manager{reg: reg, sender: sender, opts: opts}
}

// Registry returns the manager's room directory.
func (m *Manager) Registry() *Registry { return m.reg }

// ValidateName trims a username and checks its length.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("%w: must be 1-%d characters", ErrInvalidName, MaxNameLength)
	}
	return name, nil
}

// CreateRoom opens a new room with p as its host.
func (m *Manager) CreateRoom(p *models.Player) (*Room, error) {
	name, err := ValidateName(p.Username)
	if err != nil {
		return nil, err
	}
	if _, err := m.reg.RoomOf(p.ID); err == nil {
		return nil, ErrAlreadyInRoom
	}

	rm := m.reg.Create()
	rm.mu.Lock()
	p.Username = name
	p.IsHost = true
	p.Connected = true
	rm.players = append(rm.players, p)
	infos := rm.playerInfos()
	rm.mu.Unlock()
	m.reg.bind(p.ID, rm.Code)

	log.Printf("Room %s: %s (%s) created the room.", rm.Code, name, p.ID)
	m.sender.SendToPlayer(p.ID, game.GameEvent{
		Type: EventRoomCreated,
		Payload: map[string]interface{}{
			"room_code": rm.Code,
			"player_id": p.ID,
			"is_host":   true,
		},
	})
	m.broadcastRoster(rm.Code, infos)
	return rm, nil
}

// JoinRoom adds p to the room with the given code. Joining is only allowed
// before the game starts.
func (m *Manager) JoinRoom(code string, p *models.Player) (*Room, error) {
	name, err := ValidateName(p.Username)
	if err != nil {
		return nil, err
	}
	if _, err := m.reg.RoomOf(p.ID); err == nil {
		return nil, ErrAlreadyInRoom
	}
	rm, err := m.reg.Lookup(code)
	if err != nil {
		return nil, err
	}

	rm.mu.Lock()
	switch {
	case rm.removed:
		rm.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", engine.ErrRoomNotFound, rm.Code)
	case rm.game != nil:
		rm.mu.Unlock()
		return nil, ErrGameInProgress
	case len(rm.players) >= m.opts.MaxPlayers:
		rm.mu.Unlock()
		return nil, ErrRoomFull
	}
	for _, other := range rm.players {
		if strings.EqualFold(other.Username, name) {
			rm.mu.Unlock()
			return nil, ErrNameTaken
		}
	}
	p.Username = name
	p.IsHost = false
	p.Connected = true
	rm.players = append(rm.players, p)
	infos := rm.playerInfos()
	rm.mu.Unlock()
	m.reg.bind(p.ID, rm.Code)

	log.Printf("Room %s: %s (%s) joined, %d player(s).", rm.Code, name, p.ID, len(infos))
	m.sender.SendToPlayer(p.ID, game.GameEvent{
		Type: EventRoomJoined,
		Payload: map[string]interface{}{
			"room_code": rm.Code,
			"player_id": p.ID,
			"is_host":   false,
		},
	})
	m.broadcastRoster(rm.Code, infos)
	return rm, nil
}

// LeaveRoom removes a player from whatever room they are in. The host role
// passes to the longest-standing member; an empty room is removed and its
// game closed. A player leaving mid-night keeps their seat but never acts.
func (m *Manager) LeaveRoom(playerID uuid.UUID) {
	rm, err := m.reg.RoomOf(playerID)
	if err != nil {
		return
	}

	rm.mu.Lock()
	wasHost := false
	for i, p := range rm.players {
		if p.ID == playerID {
			wasHost = p.IsHost
			p.Connected = false
			rm.players = append(rm.players[:i], rm.players[i+1:]...)
			break
		}
	}
	if wasHost && len(rm.players) > 0 {
		rm.players[0].IsHost = true
		log.Printf("Room %s: host passed to %s.", rm.Code, rm.players[0].ID)
	}
	g := rm.game
	infos := rm.playerInfos()
	rm.mu.Unlock()
	m.reg.unbind(playerID)

	log.Printf("Room %s: player %s left, %d remaining.", rm.Code, playerID, len(infos))
	if g != nil {
		g.HandleDisconnect(playerID)
	}
	if len(infos) == 0 {
		if m.reg.RemoveIfEmpty(rm.Code) && g != nil {
			g.Close()
		}
		return
	}
	m.broadcastRoster(rm.Code, infos)
}

// StartGame deals roles in the room and opens the night. Only the host may
// start, and only once.
func (m *Manager) StartGame(code string, requester uuid.UUID) ([]engine.Role, error) {
	rm, err := m.reg.Lookup(code)
	if err != nil {
		return nil, err
	}

	rm.mu.Lock()
	if host := rm.host(); host == nil || host.ID != requester {
		rm.mu.Unlock()
		return nil, ErrNotHost
	}
	if rm.game != nil {
		rm.mu.Unlock()
		return nil, ErrGameInProgress
	}
	if len(rm.players) < m.opts.MinPlayers {
		n := len(rm.players)
		rm.mu.Unlock()
		return nil, fmt.Errorf("%w: need %d, have %d", ErrTooFewPlayers, m.opts.MinPlayers, n)
	}
	g, err := game.NewNightGame(rm.Code, rm.players, m.opts.Timings)
	if err != nil {
		rm.mu.Unlock()
		return nil, err
	}
	members := make([]uuid.UUID, len(rm.players))
	for i, p := range rm.players {
		members[i] = p.ID
	}
	g.BroadcastFn = func(ev game.GameEvent) {
		for _, id := range members {
			m.sender.SendToPlayer(id, ev)
		}
	}
	g.BroadcastToPlayerFn = m.sender.SendToPlayer
	g.OnNightEnd = func(gameID uuid.UUID, roomCode string) {
		rm.mu.Lock()
		rm.nightOver = true
		rm.mu.Unlock()
		log.Printf("Room %s: game %s reached discussion.", roomCode, gameID)
	}
	rm.game = g
	rm.mu.Unlock()

	m.broadcast(members, game.GameEvent{
		Type:    EventGameStarting,
		Payload: map[string]interface{}{"room_code": rm.Code},
	})

	summary, err := g.Start()
	if err != nil {
		rm.mu.Lock()
		rm.game = nil
		rm.mu.Unlock()
		g.Close()
		return nil, err
	}
	log.Printf("Room %s: game %s started with %d players.", rm.Code, g.ID, len(members))
	return summary.PhaseOrder, nil
}

// SubmitAction routes a night action to the player's game. The player
// always gets an action_result, including when there is no game to route to.
func (m *Manager) SubmitAction(playerID uuid.UUID, phase string, payload models.ActionPayload) (game.ActionResult, error) {
	g, err := m.gameOf(playerID)
	if err != nil {
		m.sender.SendToPlayer(playerID, game.GameEvent{
			Type: game.EventActionResult,
			Payload: map[string]interface{}{
				"success": false,
				"phase":   phase,
				"error":   engine.ErrorCode(err),
				"message": err.Error(),
			},
		})
		return game.ActionResult{}, err
	}
	return g.SubmitAction(playerID, phase, payload)
}

// SyncState unicasts the player's view of their game.
func (m *Manager) SyncState(playerID uuid.UUID) error {
	g, err := m.gameOf(playerID)
	if err != nil {
		return err
	}
	return g.SendSyncState(playerID)
}

func (m *Manager) gameOf(playerID uuid.UUID) (*game.NightGame, error) {
	rm, err := m.reg.RoomOf(playerID)
	if err != nil {
		return nil, err
	}
	g := rm.Game()
	if g == nil {
		return nil, fmt.Errorf("%w: room %s has not started", engine.ErrWrongPhase, rm.Code)
	}
	return g, nil
}

func (m *Manager) broadcastRoster(code string, infos []PlayerInfo) {
	ids := make([]uuid.UUID, len(infos))
	for i, p := range infos {
		ids[i] = p.ID
	}
	m.broadcast(ids, game.GameEvent{
		Type: EventRoomUpdated,
		Payload: map[string]interface{}{
			"room_code": code,
			"players":   infos,
		},
	})
}

func (m *Manager) broadcast(ids []uuid.UUID, ev game.GameEvent) {
	for _, id := range ids {
		m.sender.SendToPlayer(id, ev)
	}
}
