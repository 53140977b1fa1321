// internal/game/special_actions.go
package game

import (
	"github.com/Dylanuga/werewolf-game/engine"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	msgLoneWolf = "You are the only werewolf. You may look at one card from the center."
	msgPack     = "These are the other werewolves."
)

// armWerewolfReveal schedules the automatic werewolf resolution for the
// phase numbered seq, or runs it inline when no delay is configured.
// Assumes lock is held by caller.
func (g *NightGame) armWerewolfReveal(seq int) {
	if g.Timings.AutoRevealDelay <= 0 {
		g.resolveWerewolves(seq)
		return
	}
	g.schedule(g.Timings.AutoRevealDelay, seq, func() { g.resolveWerewolves(seq) })
}

// resolveWerewolves submits an empty werewolf action for every werewolf that
// has not acted. A pack is revealed to each other and completes the phase;
// a lone wolf only learns it is alone and keeps its turn for the peek.
// Assumes lock is held by caller.
func (g *NightGame) resolveWerewolves(seq int) {
	if g.completedSeq == seq || g.Session.CurrentPhase() != engine.RoleWerewolf {
		return
	}
	for _, seat := range g.Session.Eligible(engine.RoleWerewolf) {
		playerID := g.SeatToPlayer[seat]
		res, err := g.Session.ApplyAction(seat, engine.Action{Phase: engine.RoleWerewolf})
		if err != nil {
			log.Warnf("Game %s: automatic werewolf resolution failed for %s: %v", g.ID, playerID, err)
			continue
		}
		view := g.resultView(res)
		if res.Completed {
			g.logAction(playerID, "werewolf_auto_reveal", map[string]interface{}{
				"others": len(view.OtherWerewolves),
			})
		}
		g.fireWerewolfInfo(playerID, view)
	}
	g.checkPhaseComplete()
}

// fireWerewolfInfo tells a werewolf who else is in the pack, or that it is
// alone. A lone wolf that already peeked gets nothing further.
// Assumes lock is held by caller.
func (g *NightGame) fireWerewolfInfo(playerID uuid.UUID, res ActionResult) {
	if res.IsLoneWolf && res.CenterCard != nil {
		return
	}
	msg := msgPack
	if res.IsLoneWolf {
		msg = msgLoneWolf
	}
	g.fireEventToPlayer(playerID, GameEvent{
		Type: EventWerewolfInfo,
		Payload: map[string]interface{}{
			"other_werewolves": res.OtherWerewolves,
			"is_lone_wolf":     res.IsLoneWolf,
			"message":          msg,
		},
	})
}
