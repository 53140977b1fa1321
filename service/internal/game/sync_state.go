// internal/game/sync_state.go
package game

import (
	"fmt"

	"github.com/Dylanuga/werewolf-game/engine"
	"github.com/google/uuid"
)

// PlayerView is one player's view of the game. It never contains another
// player's role or the center cards.
type PlayerView struct {
	GameID          uuid.UUID   `json:"game_id"`
	RoomCode        string      `json:"room_code"`
	Stage           string      `json:"stage"`
	Phase           string      `json:"phase,omitempty"`
	PhaseSeq        int         `json:"phase_seq"`
	RemainingPhases []string    `json:"remaining_phases"`
	Role            string      `json:"role,omitempty"`
	RoleLabel       string      `json:"role_label,omitempty"`
	HasActed        bool        `json:"has_acted"`
	CanAct          bool        `json:"can_act"`
	CenterCount     int         `json:"center_count"`
	Players         []EventUser `json:"players"`
}

// GetPlayerView returns the view of playerID. The role shown is the dealt
// role; swaps made during the night are not revealed.
func (g *NightGame) GetPlayerView(playerID uuid.UUID) (PlayerView, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.playerView(playerID)
}

// SendSyncState unicasts the player's view as private_sync_state.
func (g *NightGame) SendSyncState(playerID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	view, err := g.playerView(playerID)
	if err != nil {
		return err
	}
	g.fireEventToPlayer(playerID, GameEvent{
		Type:    EventPrivateSyncState,
		Payload: map[string]interface{}{"state": view},
	})
	return nil
}

// playerView assumes lock is held by caller.
func (g *NightGame) playerView(playerID uuid.UUID) (PlayerView, error) {
	seatIdx, ok := g.PlayerToSeat[playerID]
	if !ok {
		return PlayerView{}, fmt.Errorf("%w: player %s", engine.ErrNotInSession, playerID)
	}
	s := g.Session

	view := PlayerView{
		GameID:          g.ID,
		RoomCode:        g.RoomCode,
		Stage:           string(s.Stage()),
		Phase:           string(s.CurrentPhase()),
		PhaseSeq:        s.PhaseSeq(),
		RemainingPhases: roleStrings(s.PhaseOrder()),
		Players:         make([]EventUser, 0, len(g.Players)),
	}
	for _, p := range g.Players {
		view.Players = append(view.Players, EventUser{ID: p.ID, Username: p.Username})
	}
	if !s.IsDealt() {
		return view, nil
	}

	seat, _ := s.Seat(seatIdx)
	view.Role = string(seat.OriginalRole())
	view.RoleLabel = seat.OriginalRole().Label()
	view.HasActed = seat.HasActed()
	view.CanAct = s.CurrentPhase() != "" && !g.phaseClosing() && s.CanAct(seatIdx, s.CurrentPhase())
	view.CenterCount = engine.CenterSize
	return view, nil
}
