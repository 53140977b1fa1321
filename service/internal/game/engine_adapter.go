// internal/game/engine_adapter.go
package game

import (
	"fmt"
	"time"

	"github.com/Dylanuga/werewolf-game/engine"
	"github.com/Dylanuga/werewolf-game/service/internal/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CenterCardView is a center card revealed to the acting player.
type CenterCardView struct {
	Index     int    `json:"index"`
	Role      string `json:"role"`
	RoleLabel string `json:"role_label"`
}

// ActionResult is the data returned for a successful night action.
type ActionResult struct {
	Phase           string          `json:"phase"`
	Completed       bool            `json:"completed"`
	IsLoneWolf      bool            `json:"is_lone_wolf"`
	AutoReveal      bool            `json:"auto_reveal"`
	OtherWerewolves []EventUser     `json:"other_werewolves"`
	CenterCard      *CenterCardView `json:"center_card"`
}

// SubmitAction applies a player's action for phase. The outcome, success or
// failure, is also unicast to the player as action_result. Action
// application, the completion check and any inline advance run under one
// hold of Mu.
func (g *NightGame) SubmitAction(playerID uuid.UUID, phase string, payload models.ActionPayload) (ActionResult, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	res, err := g.applyAction(playerID, phase, payload)
	if err != nil {
		log.Debugf("Game %s: action %s from %s rejected: %v", g.ID, phase, playerID, err)
		g.fireEventToPlayer(playerID, GameEvent{
			Type: EventActionResult,
			Payload: map[string]interface{}{
				"success": false,
				"phase":   phase,
				"error":   engine.ErrorCode(err),
				"message": err.Error(),
			},
		})
		return ActionResult{}, err
	}

	g.fireEventToPlayer(playerID, GameEvent{
		Type:    EventActionResult,
		Payload: map[string]interface{}{"success": true, "data": res},
	})
	if res.Phase == string(engine.RoleWerewolf) {
		g.fireWerewolfInfo(playerID, res)
	}

	g.checkPhaseComplete()
	return res, nil
}

// applyAction maps handles to seats and runs the engine resolver.
// Assumes lock is held by caller.
func (g *NightGame) applyAction(playerID uuid.UUID, phase string, payload models.ActionPayload) (ActionResult, error) {
	if g.closed {
		return ActionResult{}, fmt.Errorf("%w: game %s is closed", engine.ErrRoomNotFound, g.ID)
	}
	seat, ok := g.PlayerToSeat[playerID]
	if !ok {
		return ActionResult{}, fmt.Errorf("%w: player %s", engine.ErrNotInSession, playerID)
	}
	if g.phaseClosing() && g.Session.CanAct(seat, engine.Role(phase)) {
		return ActionResult{}, fmt.Errorf("%w: phase %s already completed", engine.ErrWrongPhase, g.Session.CurrentPhase())
	}
	targets := g.targetSeats(payload.Targets)
	res, err := g.Session.ApplyAction(seat, engine.Action{
		Phase:       engine.Role(phase),
		CenterIndex: payload.CenterIndex,
		Targets:     targets,
	})
	if err != nil {
		return ActionResult{}, err
	}

	logPayload := map[string]interface{}{"phase": phase, "completed": res.Completed}
	if payload.CenterIndex != nil {
		logPayload["center_index"] = *payload.CenterIndex
	}
	if len(targets) > 0 {
		logPayload["targets"] = payload.Targets
	}
	g.logAction(playerID, "night_action", logPayload)

	return g.resultView(res), nil
}

// targetSeats resolves target handles to seats. A handle outside the game
// maps to seat -1, which the engine rejects as an invalid target once the
// phase and eligibility checks have passed.
// Assumes lock is held by caller.
func (g *NightGame) targetSeats(ids []uuid.UUID) []int {
	if len(ids) == 0 {
		return nil
	}
	seats := make([]int, 0, len(ids))
	for _, id := range ids {
		seat, ok := g.PlayerToSeat[id]
		if !ok {
			seat = -1
		}
		seats = append(seats, seat)
	}
	return seats
}

// resultView translates seat indices in an engine result to player handles.
// Assumes lock is held by caller.
func (g *NightGame) resultView(res engine.Result) ActionResult {
	out := ActionResult{
		Phase:           string(res.Phase),
		Completed:       res.Completed,
		IsLoneWolf:      res.IsLoneWolf,
		AutoReveal:      res.AutoReveal,
		OtherWerewolves: g.seatUsers(res.OtherWerewolves),
	}
	if res.CenterCard != nil {
		out.CenterCard = &CenterCardView{
			Index:     res.CenterCard.Index,
			Role:      string(res.CenterCard.Role),
			RoleLabel: res.CenterCard.Role.Label(),
		}
	}
	return out
}

// seatUsers never returns nil so payloads carry [] rather than null.
// Assumes lock is held by caller.
func (g *NightGame) seatUsers(seats []int) []EventUser {
	out := make([]EventUser, 0, len(seats))
	for _, s := range seats {
		if s < 0 || s >= len(g.SeatToPlayer) {
			continue
		}
		out = append(out, *g.eventUser(g.SeatToPlayer[s]))
	}
	return out
}

// eventUser assumes lock is held by caller.
func (g *NightGame) eventUser(playerID uuid.UUID) *EventUser {
	u := &EventUser{ID: playerID}
	if p := g.getPlayerByID(playerID); p != nil {
		u.Username = p.Username
	}
	return u
}

// advance opens the next phase, or ends the night when none is left.
// Assumes lock is held by caller.
func (g *NightGame) advance() {
	if g.closed {
		return
	}
	g.stopTimers()

	start, ok, err := g.Session.Advance()
	if err != nil {
		log.Warnf("Game %s: advance refused: %v", g.ID, err)
		return
	}
	if !ok {
		g.endNight()
		return
	}

	log.Printf("Game %s: phase %d (%s) started with %d eligible player(s).", g.ID, start.Seq, start.Phase, len(start.Eligible))
	g.logAction(uuid.Nil, string(EventPhaseStarted), map[string]interface{}{
		"phase": string(start.Phase),
		"seq":   start.Seq,
	})
	g.fireEvent(GameEvent{
		Type: EventPhaseStarted,
		Payload: map[string]interface{}{
			"phase":            string(start.Phase),
			"seq":              start.Seq,
			"role_label":       start.Label,
			"description":      start.Prompt,
			"eligible_players": g.seatUsers(start.Eligible),
		},
	})
	for _, seat := range start.Eligible {
		g.fireEventToPlayer(g.SeatToPlayer[seat], GameEvent{
			Type: EventYourTurn,
			Payload: map[string]interface{}{
				"phase":       string(start.Phase),
				"can_act":     true,
				"action_type": g.actionType(start.Phase),
			},
		})
	}

	seq := start.Seq
	g.schedule(g.Timings.PhaseTimeout, seq, func() { g.onPhaseTimeout(seq) })
	if start.Phase == engine.RoleWerewolf && len(start.Eligible) > 0 {
		g.armWerewolfReveal(seq)
	}

	// A phase nobody holds completes here.
	g.checkPhaseComplete()
}

// checkPhaseComplete emits phase_completed once per phase when every
// eligible player has acted.
// Assumes lock is held by caller.
func (g *NightGame) checkPhaseComplete() {
	if g.closed || !g.Session.PhaseComplete() {
		return
	}
	seq := g.Session.PhaseSeq()
	if g.completedSeq == seq {
		return
	}
	g.completePhase(seq, false)
}

// completePhase announces the end of the open phase and schedules the next.
// Assumes lock is held by caller.
func (g *NightGame) completePhase(seq int, timedOut bool) {
	phase := g.Session.CurrentPhase()
	g.completedSeq = seq
	g.stopTimers()

	log.Printf("Game %s: phase %d (%s) completed (timed out: %v).", g.ID, seq, phase, timedOut)
	g.logAction(uuid.Nil, string(EventPhaseCompleted), map[string]interface{}{
		"phase":     string(phase),
		"seq":       seq,
		"timed_out": timedOut,
	})
	g.fireEvent(GameEvent{
		Type: EventPhaseCompleted,
		Payload: map[string]interface{}{
			"phase":     string(phase),
			"seq":       seq,
			"timed_out": timedOut,
		},
	})

	if g.Timings.TransitionDelay <= 0 {
		g.advance()
		return
	}
	g.schedule(g.Timings.TransitionDelay, seq, g.advance)
}

// phaseClosing reports whether the open phase has been completed and is
// waiting for the transition delay.
// Assumes lock is held by caller.
func (g *NightGame) phaseClosing() bool {
	return g.Session.PhaseSeq() > 0 && g.completedSeq == g.Session.PhaseSeq()
}

// onPhaseTimeout forces the phase to end regardless of who has acted.
// Assumes lock is held by caller.
func (g *NightGame) onPhaseTimeout(seq int) {
	if g.completedSeq == seq {
		return
	}
	pending := len(g.Session.Eligible(g.Session.CurrentPhase()))
	log.Warnf("Game %s: phase %d (%s) timed out with %d player(s) yet to act.", g.ID, seq, g.Session.CurrentPhase(), pending)
	g.completePhase(seq, true)
}

// endNight moves the room to discussion.
// Assumes lock is held by caller.
func (g *NightGame) endNight() {
	g.stopTimers()
	log.Printf("Game %s: night ended in room %s.", g.ID, g.RoomCode)
	g.logAction(uuid.Nil, string(EventNightEnded), nil)
	g.fireEvent(GameEvent{
		Type:    EventNightEnded,
		Payload: map[string]interface{}{"stage": string(g.Session.Stage())},
	})
	g.persistFinalState()
	if g.OnNightEnd != nil {
		g.OnNightEnd(g.ID, g.RoomCode)
	}
}

// schedule runs fn under Mu after d, unless the game was closed or the
// phase numbered seq is no longer the latest one opened.
// Assumes lock is held by caller.
func (g *NightGame) schedule(d time.Duration, seq int, fn func()) {
	t := time.AfterFunc(d, func() {
		g.Mu.Lock()
		defer g.Mu.Unlock()
		if g.closed || g.Session.PhaseSeq() != seq {
			log.Debugf("Game %s: dropping stale timer for phase %d.", g.ID, seq)
			return
		}
		fn()
	})
	g.timers = append(g.timers, t)
}

// stopTimers assumes lock is held by caller.
func (g *NightGame) stopTimers() {
	for _, t := range g.timers {
		t.Stop()
	}
	g.timers = g.timers[:0]
}

func (g *NightGame) actionType(phase engine.Role) string {
	if phase != engine.RoleWerewolf {
		return "acknowledge"
	}
	if len(g.Session.SeatsWithCurrentRole(engine.RoleWerewolf)) == 1 {
		return "peek_center"
	}
	return "auto_reveal"
}
