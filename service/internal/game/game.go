// internal/game/game.go
package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Dylanuga/werewolf-game/engine"
	"github.com/Dylanuga/werewolf-game/service/internal/cache"
	"github.com/Dylanuga/werewolf-game/service/internal/database"
	"github.com/Dylanuga/werewolf-game/service/internal/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// OnNightEndFunc is called once when the last night phase has been exhausted.
type OnNightEndFunc func(gameID uuid.UUID, roomCode string)

// GameEventType represents the type of a game-related event sent over the websocket.
type GameEventType string

// Event types emitted by a NightGame.
const (
	EventGameStarted      GameEventType = "game_started"       // Public: roles dealt, phase order and center count.
	EventYourRole         GameEventType = "your_role"          // Private: the role dealt to the player.
	EventPhaseStarted     GameEventType = "phase_started"      // Public: a night phase opened.
	EventYourTurn         GameEventType = "your_turn"          // Private: the player may act in the open phase.
	EventWerewolfInfo     GameEventType = "werewolf_info"      // Private: pack members or lone wolf notice.
	EventActionResult     GameEventType = "action_result"      // Private: reply to a submitted action.
	EventPhaseCompleted   GameEventType = "phase_completed"    // Public: every eligible player acted, or the phase timed out.
	EventNightEnded       GameEventType = "night_ended"        // Public: discussion begins.
	EventPrivateSyncState GameEventType = "private_sync_state" // Private: the player's view of the game.
)

// EventUser identifies a player within a GameEvent payload.
type EventUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username,omitempty"`
}

// GameEvent is the envelope for everything the game sends to players.
type GameEvent struct {
	Type    GameEventType          `json:"type"`
	User    *EventUser             `json:"user,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Timings controls the scheduled tasks of a night.
// A zero TransitionDelay or AutoRevealDelay runs the step inline. The
// fallback is always armed: a non-positive PhaseTimeout is replaced by the
// default one.
type Timings struct {
	PhaseTimeout    time.Duration // Fallback: force the phase to complete.
	TransitionDelay time.Duration // Pause between phase_completed and the next phase.
	AutoRevealDelay time.Duration // Delay before werewolves are resolved automatically.
}

// DefaultTimings returns the production timings.
func DefaultTimings() Timings {
	return Timings{
		PhaseTimeout:    30 * time.Second,
		TransitionDelay: 2 * time.Second,
		AutoRevealDelay: time.Second,
	}
}

// NightGame owns the night of one room: the engine session, the mapping
// between player handles and seats, and every timer armed for the night.
// All state is guarded by Mu.
type NightGame struct {
	ID       uuid.UUID
	RoomCode string

	Players      []*models.Player // Snapshot of the lobby at start, in seat order.
	Session      *engine.Session
	PlayerToSeat map[uuid.UUID]int
	SeatToPlayer []uuid.UUID

	Timings Timings
	Seed    uint64 // Shuffle seed; random unless overridden before Start.
	Started bool

	timers       []*time.Timer
	closed       bool
	completedSeq int // Phase sequence number phase_completed was last emitted for.
	actionIndex  int

	Mu sync.Mutex

	BroadcastFn         func(ev GameEvent)
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)
	OnNightEnd          OnNightEndFunc
}

// NewNightGame creates an undealt game for the given lobby members.
// The players are copied; later lobby changes do not reach the game.
func NewNightGame(roomCode string, players []*models.Player, timings Timings) (*NightGame, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: no players", engine.ErrConfiguration)
	}
	if timings.PhaseTimeout <= 0 {
		timings.PhaseTimeout = DefaultTimings().PhaseTimeout
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate game id: %w", err)
	}

	g := &NightGame{
		ID:           id,
		RoomCode:     roomCode,
		Session:      engine.NewSession(len(players)),
		PlayerToSeat: make(map[uuid.UUID]int, len(players)),
		SeatToPlayer: make([]uuid.UUID, len(players)),
		Timings:      timings,
		Seed:         rand.Uint64(),
	}
	for i, p := range players {
		if _, dup := g.PlayerToSeat[p.ID]; dup {
			return nil, fmt.Errorf("%w: player %s listed twice", engine.ErrConfiguration, p.ID)
		}
		g.Players = append(g.Players, p.Snapshot())
		g.PlayerToSeat[p.ID] = i
		g.SeatToPlayer[i] = p.ID
	}
	return g, nil
}

// Start deals the roles, tells every connected player their role and opens
// the first night phase. It returns the public deal summary.
func (g *NightGame) Start() (engine.DealSummary, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.closed {
		return engine.DealSummary{}, fmt.Errorf("%w: game %s is closed", engine.ErrRoomNotFound, g.ID)
	}
	if g.Started {
		return engine.DealSummary{}, engine.ErrAlreadyDealt
	}
	summary, err := g.Session.Deal(g.Seed)
	if err != nil {
		log.Warnf("Game %s: deal failed for %d players: %v", g.ID, len(g.Players), err)
		return engine.DealSummary{}, err
	}
	g.Started = true
	log.Printf("Game %s: roles dealt to %d players in room %s.", g.ID, len(g.Players), g.RoomCode)

	g.persistInitialGameState()
	g.logAction(uuid.Nil, string(EventGameStarted), map[string]interface{}{"players": len(g.Players)})

	g.fireEvent(GameEvent{
		Type: EventGameStarted,
		Payload: map[string]interface{}{
			"phase_order":  roleStrings(summary.PhaseOrder),
			"center_count": summary.CenterCount,
		},
	})
	for i, p := range g.Players {
		seat, _ := g.Session.Seat(i)
		g.fireEventToPlayer(p.ID, GameEvent{
			Type: EventYourRole,
			User: g.eventUser(p.ID),
			Payload: map[string]interface{}{
				"role":       string(seat.OriginalRole()),
				"role_label": seat.OriginalRole().Label(),
			},
		})
	}

	g.advance()
	return summary, nil
}

// HandleDisconnect marks a player as gone. Their seat stays in the night;
// an unfinished turn is covered by the phase fallback timer.
func (g *NightGame) HandleDisconnect(playerID uuid.UUID) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p := g.getPlayerByID(playerID)
	if p == nil || !p.Connected {
		return
	}
	p.Connected = false
	log.Printf("Game %s: player %s disconnected.", g.ID, playerID)
	g.logAction(playerID, "player_disconnect", nil)
}

// Close cancels every pending timer. A closed game ignores timer callbacks
// that were already running and rejects further actions.
func (g *NightGame) Close() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	g.stopTimers()
	log.Printf("Game %s: closed.", g.ID)
}

// Closed reports whether Close has been called.
func (g *NightGame) Closed() bool {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.closed
}

// getPlayerByID returns the game's copy of the player.
// Assumes lock is held by caller.
func (g *NightGame) getPlayerByID(playerID uuid.UUID) *models.Player {
	if seat, ok := g.PlayerToSeat[playerID]; ok {
		return g.Players[seat]
	}
	return nil
}

// fireEvent broadcasts to the room.
// Assumes lock is held by caller.
func (g *NightGame) fireEvent(ev GameEvent) {
	if g.BroadcastFn == nil {
		log.Warnf("Game %s: BroadcastFn is nil, dropping %s.", g.ID, ev.Type)
		return
	}
	g.BroadcastFn(ev)
}

// fireEventToPlayer unicasts to one player. Disconnected players are skipped.
// Assumes lock is held by caller.
func (g *NightGame) fireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	if g.BroadcastToPlayerFn == nil {
		log.Warnf("Game %s: BroadcastToPlayerFn is nil, dropping %s for %s.", g.ID, ev.Type, playerID)
		return
	}
	p := g.getPlayerByID(playerID)
	if p == nil || !p.Connected {
		return
	}
	g.BroadcastToPlayerFn(playerID, ev)
}

// persistInitialGameState stores the deal, center included, for auditing.
// Assumes lock is held by caller.
func (g *NightGame) persistInitialGameState() {
	snap := g.stateSnapshot()
	if database.DB != nil {
		go database.UpsertInitialGameState(g.ID, g.RoomCode, snap)
	}
}

// persistFinalState stores the roles as they stand when the night ends.
// Assumes lock is held by caller.
func (g *NightGame) persistFinalState() {
	snap := g.stateSnapshot()
	if database.DB != nil {
		go database.StoreFinalGameStateInDB(context.Background(), g.ID, snap)
	}
}

type seatRecord struct {
	PlayerID     uuid.UUID `json:"playerId"`
	Username     string    `json:"username"`
	OriginalRole string    `json:"originalRole"`
	CurrentRole  string    `json:"currentRole"`
	HasActed     bool      `json:"hasActed"`
}

type stateRecord struct {
	Stage  string       `json:"stage"`
	Seats  []seatRecord `json:"seats"`
	Center []string     `json:"center"`
}

// stateSnapshot is server-side only; it contains the center cards.
// Assumes lock is held by caller.
func (g *NightGame) stateSnapshot() stateRecord {
	rec := stateRecord{Stage: string(g.Session.Stage())}
	for i, p := range g.Players {
		seat, _ := g.Session.Seat(i)
		rec.Seats = append(rec.Seats, seatRecord{
			PlayerID:     p.ID,
			Username:     p.Username,
			OriginalRole: string(seat.OriginalRole()),
			CurrentRole:  string(seat.CurrentRole()),
			HasActed:     seat.HasActed(),
		})
	}
	center := g.Session.Center()
	rec.Center = roleStrings(center[:])
	return rec
}

// logAction publishes an action record to Redis without blocking the game.
// Assumes lock is held by caller.
func (g *NightGame) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        g.ID,
		RoomCode:      g.RoomCode,
		ActionIndex:   g.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	if cache.Rdb == nil {
		return
	}
	go func(rec cache.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishGameAction(ctx, rec); err != nil {
			log.Errorf("Game %s: failed publishing action %d (%s): %v", rec.GameID, rec.ActionIndex, rec.ActionType, err)
		}
	}(record)
}

func roleStrings(roles []engine.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
