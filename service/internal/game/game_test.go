// internal/game/game_test.go
package game

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Dylanuga/werewolf-game/engine"
	"github.com/Dylanuga/werewolf-game/service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBroadcaster captures game events for testing assertions.
type mockBroadcaster struct {
	mu           sync.Mutex
	allEvents    []GameEvent
	playerEvents map[uuid.UUID][]GameEvent
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{playerEvents: make(map[uuid.UUID][]GameEvent)}
}

func (mb *mockBroadcaster) broadcastFn(ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) broadcastToPlayerFn(playerID uuid.UUID, ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[playerID] = append(mb.playerEvents[playerID], ev)
}

// eventsOfType returns the broadcast events of type t, oldest first.
func (mb *mockBroadcaster) eventsOfType(t GameEventType) []GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var out []GameEvent
	for _, ev := range mb.allEvents {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// playerEventsOfType returns the events of type t unicast to playerID.
func (mb *mockBroadcaster) playerEventsOfType(playerID uuid.UUID, t GameEventType) []GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var out []GameEvent
	for _, ev := range mb.playerEvents[playerID] {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (mb *mockBroadcaster) countPlayerEvents(playerID uuid.UUID) int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.playerEvents[playerID])
}

func instant() Timings { return Timings{} }

func newTestPlayers(n int) []*models.Player {
	players := make([]*models.Player, n)
	for i := range players {
		players[i] = &models.Player{
			ID:        uuid.New(),
			Username:  fmt.Sprintf("player%d", i+1),
			Connected: true,
		}
	}
	return players
}

// werewolfSeats counts dealt werewolves among the seats of a session.
func werewolfSeats(s *engine.Session) int {
	n := 0
	for i := 0; i < s.NumSeats(); i++ {
		if seat, _ := s.Seat(i); seat.OriginalRole() == engine.RoleWerewolf {
			n++
		}
	}
	return n
}

// seedWithWerewolves finds a seed whose deal for n seats has exactly wolves
// werewolves among the players.
func seedWithWerewolves(t *testing.T, n, wolves int) uint64 {
	t.Helper()
	for seed := uint64(1); seed < 10000; seed++ {
		s := engine.NewSession(n)
		_, err := s.Deal(seed)
		require.NoError(t, err)
		if werewolfSeats(s) == wolves {
			return seed
		}
	}
	t.Fatalf("no seed deals %d werewolves to %d players", wolves, n)
	return 0
}

// setupTestGame creates an undealt game with the given seed and timings.
func setupTestGame(t *testing.T, n int, seed uint64, timings Timings) (*NightGame, *mockBroadcaster, *int) {
	t.Helper()
	g, err := NewNightGame("ABCD", newTestPlayers(n), timings)
	require.NoError(t, err)
	g.Seed = seed

	mb := newMockBroadcaster()
	g.BroadcastFn = mb.broadcastFn
	g.BroadcastToPlayerFn = mb.broadcastToPlayerFn

	nightEnds := new(int)
	g.OnNightEnd = func(gameID uuid.UUID, roomCode string) {
		assert.Equal(t, g.ID, gameID)
		assert.Equal(t, "ABCD", roomCode)
		*nightEnds++
	}
	t.Cleanup(g.Close)
	return g, mb, nightEnds
}

// werewolfPlayers returns the players dealt the werewolf role.
func werewolfPlayers(g *NightGame) []uuid.UUID {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	var out []uuid.UUID
	for i, id := range g.SeatToPlayer {
		if seat, _ := g.Session.Seat(i); seat.OriginalRole() == engine.RoleWerewolf {
			out = append(out, id)
		}
	}
	return out
}

func firstNonWerewolf(g *NightGame) uuid.UUID {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	for i, id := range g.SeatToPlayer {
		if seat, _ := g.Session.Seat(i); seat.OriginalRole() != engine.RoleWerewolf {
			return id
		}
	}
	return uuid.Nil
}

func currentPhase(g *NightGame) (engine.Stage, engine.Role) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.Session.Stage(), g.Session.CurrentPhase()
}

func phasesIn(events []GameEvent) []string {
	var out []string
	for _, ev := range events {
		out = append(out, ev.Payload["phase"].(string))
	}
	return out
}

func TestNewNightGameRejectsEmptyLobby(t *testing.T) {
	_, err := NewNightGame("ABCD", nil, instant())
	require.ErrorIs(t, err, engine.ErrConfiguration)
}

func TestNewNightGameKeepsFallbackArmed(t *testing.T) {
	g, err := NewNightGame("ABCD", newTestPlayers(3), Timings{PhaseTimeout: 0})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimings().PhaseTimeout, g.Timings.PhaseTimeout)

	g, err = NewNightGame("ABCD", newTestPlayers(3), Timings{PhaseTimeout: -time.Second})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimings().PhaseTimeout, g.Timings.PhaseTimeout)
}

func TestNewNightGameSnapshotsPlayers(t *testing.T) {
	players := newTestPlayers(3)
	g, err := NewNightGame("ABCD", players, instant())
	require.NoError(t, err)

	players[0].Username = "renamed"
	players[1].Connected = false

	assert.Equal(t, "player1", g.Players[0].Username)
	assert.True(t, g.Players[1].Connected)
	assert.Equal(t, 0, g.PlayerToSeat[players[0].ID])
	assert.Equal(t, players[2].ID, g.SeatToPlayer[2])
}

// TestStartSendsRolesToConnectedPlayers verifies your_role is unicast once per
// connected player with the dealt role, and never to a disconnected one.
func TestStartSendsRolesToConnectedPlayers(t *testing.T) {
	g, mb, _ := setupTestGame(t, 5, 1, Timings{TransitionDelay: time.Hour})
	g.Players[0].Connected = false

	summary, err := g.Start()
	require.NoError(t, err)
	assert.Equal(t, engine.CenterSize, summary.CenterCount)
	assert.Equal(t, roleStrings(engine.NightOrder[:]), roleStrings(summary.PhaseOrder))

	assert.Zero(t, mb.countPlayerEvents(g.SeatToPlayer[0]))
	for i := 1; i < 5; i++ {
		id := g.SeatToPlayer[i]
		evs := mb.playerEventsOfType(id, EventYourRole)
		require.Len(t, evs, 1, "player %d", i)
		seat, _ := g.Session.Seat(i)
		assert.Equal(t, string(seat.OriginalRole()), evs[0].Payload["role"])
		assert.Equal(t, seat.OriginalRole().Label(), evs[0].Payload["role_label"])
	}

	started := mb.eventsOfType(EventGameStarted)
	require.Len(t, started, 1)
	assert.Equal(t, engine.CenterSize, started[0].Payload["center_count"])
	assert.NotContains(t, started[0].Payload, "center")
}

func TestStartTwice(t *testing.T) {
	g, _, _ := setupTestGame(t, 3, 1, Timings{TransitionDelay: time.Hour})
	_, err := g.Start()
	require.NoError(t, err)
	_, err = g.Start()
	require.ErrorIs(t, err, engine.ErrAlreadyDealt)
}

// TestNightRunsToDiscussionWithPack plays a whole night with two werewolves
// and inline transitions.
func TestNightRunsToDiscussionWithPack(t *testing.T) {
	g, mb, nightEnds := setupTestGame(t, 5, seedWithWerewolves(t, 5, 2), instant())
	_, err := g.Start()
	require.NoError(t, err)

	wolves := werewolfPlayers(g)
	require.Len(t, wolves, 2)
	for i, id := range wolves {
		info := mb.playerEventsOfType(id, EventWerewolfInfo)
		require.Len(t, info, 1)
		assert.Equal(t, false, info[0].Payload["is_lone_wolf"])
		others := info[0].Payload["other_werewolves"].([]EventUser)
		require.Len(t, others, 1)
		assert.Equal(t, wolves[1-i], others[0].ID)
	}

	for i := 0; i < 10; i++ {
		g.Mu.Lock()
		stage, phase := g.Session.Stage(), g.Session.CurrentPhase()
		eligible := g.Session.Eligible(phase)
		g.Mu.Unlock()
		if stage != engine.StageNight {
			break
		}
		require.NotEmpty(t, eligible, "phase %s stalled without eligible players", phase)
		for _, seat := range eligible {
			res, err := g.SubmitAction(g.SeatToPlayer[seat], string(phase), models.ActionPayload{})
			require.NoError(t, err)
			assert.True(t, res.Completed)
		}
	}

	stage, _ := currentPhase(g)
	assert.Equal(t, engine.StageDiscussion, stage)
	assert.Equal(t, roleStrings(engine.NightOrder[:]), phasesIn(mb.eventsOfType(EventPhaseStarted)))
	assert.Equal(t, roleStrings(engine.NightOrder[:]), phasesIn(mb.eventsOfType(EventPhaseCompleted)))
	assert.Len(t, mb.eventsOfType(EventNightEnded), 1)
	assert.Equal(t, 1, *nightEnds)
}

// TestLoneWolfPeek verifies the lone werewolf keeps the phase open until a
// valid center card is chosen.
func TestLoneWolfPeek(t *testing.T) {
	g, mb, _ := setupTestGame(t, 5, seedWithWerewolves(t, 5, 1), Timings{TransitionDelay: time.Hour})
	_, err := g.Start()
	require.NoError(t, err)

	wolves := werewolfPlayers(g)
	require.Len(t, wolves, 1)
	wolf := wolves[0]

	turn := mb.playerEventsOfType(wolf, EventYourTurn)
	require.Len(t, turn, 1)
	assert.Equal(t, "peek_center", turn[0].Payload["action_type"])

	info := mb.playerEventsOfType(wolf, EventWerewolfInfo)
	require.Len(t, info, 1)
	assert.Equal(t, true, info[0].Payload["is_lone_wolf"])
	assert.Empty(t, info[0].Payload["other_werewolves"])

	_, phase := currentPhase(g)
	require.Equal(t, engine.RoleWerewolf, phase)
	assert.Empty(t, mb.eventsOfType(EventPhaseCompleted))

	bad := 5
	_, err = g.SubmitAction(wolf, "werewolf", models.ActionPayload{CenterIndex: &bad})
	require.ErrorIs(t, err, engine.ErrInvalidIndex)
	results := mb.playerEventsOfType(wolf, EventActionResult)
	require.NotEmpty(t, results)
	last := results[len(results)-1]
	assert.Equal(t, false, last.Payload["success"])
	assert.Equal(t, engine.CodeInvalidIndex, last.Payload["error"])
	assert.Empty(t, mb.eventsOfType(EventPhaseCompleted))

	idx := 1
	res, err := g.SubmitAction(wolf, "werewolf", models.ActionPayload{CenterIndex: &idx})
	require.NoError(t, err)
	require.NotNil(t, res.CenterCard)
	assert.Equal(t, 1, res.CenterCard.Index)
	assert.Equal(t, string(g.Session.Center()[1]), res.CenterCard.Role)
	assert.True(t, res.IsLoneWolf)
	assert.True(t, res.Completed)

	completed := mb.eventsOfType(EventPhaseCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, "werewolf", completed[0].Payload["phase"])
	assert.Equal(t, false, completed[0].Payload["timed_out"])

	// A second peek is refused.
	_, err = g.SubmitAction(wolf, "werewolf", models.ActionPayload{CenterIndex: &idx})
	require.ErrorIs(t, err, engine.ErrNotEligible)
}

// TestSubmitActionErrors verifies phase and eligibility are judged before
// targets, and a target outside the game is reported as invalid input.
func TestSubmitActionErrors(t *testing.T) {
	g, mb, _ := setupTestGame(t, 5, seedWithWerewolves(t, 5, 1), Timings{TransitionDelay: time.Hour})
	_, err := g.Start()
	require.NoError(t, err)
	stray := []uuid.UUID{uuid.New()}

	_, err = g.SubmitAction(uuid.New(), "werewolf", models.ActionPayload{})
	require.ErrorIs(t, err, engine.ErrNotInSession)

	villager := firstNonWerewolf(g)
	_, err = g.SubmitAction(villager, "werewolf", models.ActionPayload{})
	require.ErrorIs(t, err, engine.ErrNotEligible)

	_, err = g.SubmitAction(villager, "seer", models.ActionPayload{})
	require.ErrorIs(t, err, engine.ErrWrongPhase)

	_, err = g.SubmitAction(villager, "werewolf", models.ActionPayload{Targets: stray})
	require.ErrorIs(t, err, engine.ErrNotEligible)

	_, err = g.SubmitAction(villager, "seer", models.ActionPayload{Targets: stray})
	require.ErrorIs(t, err, engine.ErrWrongPhase)

	results := mb.playerEventsOfType(villager, EventActionResult)
	require.Len(t, results, 4)
	assert.Equal(t, engine.CodeNotEligible, results[0].Payload["error"])
	assert.Equal(t, engine.CodeWrongPhase, results[1].Payload["error"])
	assert.Equal(t, engine.CodeNotEligible, results[2].Payload["error"])
	assert.Equal(t, engine.CodeWrongPhase, results[3].Payload["error"])

	wolf := werewolfPlayers(g)[0]
	idx := 0
	_, err = g.SubmitAction(wolf, "werewolf", models.ActionPayload{CenterIndex: &idx, Targets: stray})
	require.ErrorIs(t, err, engine.ErrInvalidTarget)
	wolfResults := mb.playerEventsOfType(wolf, EventActionResult)
	require.NotEmpty(t, wolfResults)
	assert.Equal(t, engine.CodeInvalidTarget, wolfResults[len(wolfResults)-1].Payload["error"])

	// The rejected submission did not use up the turn.
	_, err = g.SubmitAction(wolf, "werewolf", models.ActionPayload{CenterIndex: &idx})
	require.NoError(t, err)
}

// TestAutoRevealDelayed verifies a pack is resolved by the auto-reveal task
// and that an early manual submission gets the same answer.
func TestAutoRevealDelayed(t *testing.T) {
	g, mb, _ := setupTestGame(t, 5, seedWithWerewolves(t, 5, 2), Timings{
		AutoRevealDelay: 200 * time.Millisecond,
		TransitionDelay: time.Hour,
	})
	_, err := g.Start()
	require.NoError(t, err)

	wolves := werewolfPlayers(g)
	require.Len(t, wolves, 2)
	assert.Empty(t, mb.playerEventsOfType(wolves[1], EventWerewolfInfo))

	res, err := g.SubmitAction(wolves[0], "werewolf", models.ActionPayload{})
	require.NoError(t, err)
	assert.True(t, res.AutoReveal)
	assert.False(t, res.IsLoneWolf)
	require.Len(t, res.OtherWerewolves, 1)
	assert.Equal(t, wolves[1], res.OtherWerewolves[0].ID)

	require.Eventually(t, func() bool {
		return len(mb.playerEventsOfType(wolves[1], EventWerewolfInfo)) == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return len(mb.eventsOfType(EventPhaseCompleted)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	// The first wolf was told once, by its own submission.
	assert.Len(t, mb.playerEventsOfType(wolves[0], EventWerewolfInfo), 1)
}

// TestFallbackTimerForcesAdvance verifies a phase nobody finishes still ends
// and the night reaches discussion.
func TestFallbackTimerForcesAdvance(t *testing.T) {
	g, mb, _ := setupTestGame(t, 5, seedWithWerewolves(t, 5, 1), Timings{PhaseTimeout: 20 * time.Millisecond})
	_, err := g.Start()
	require.NoError(t, err)
	wolf := werewolfPlayers(g)[0]

	require.Eventually(t, func() bool {
		return len(mb.eventsOfType(EventNightEnded)) == 1
	}, 3*time.Second, 5*time.Millisecond)

	completed := mb.eventsOfType(EventPhaseCompleted)
	require.Len(t, completed, len(engine.NightOrder))
	assert.Equal(t, "werewolf", completed[0].Payload["phase"])
	assert.Equal(t, true, completed[0].Payload["timed_out"])

	g.Mu.Lock()
	seat, _ := g.Session.Seat(g.PlayerToSeat[wolf])
	g.Mu.Unlock()
	assert.False(t, seat.HasActed())

	idx := 0
	_, err = g.SubmitAction(wolf, "werewolf", models.ActionPayload{CenterIndex: &idx})
	require.ErrorIs(t, err, engine.ErrWrongPhase)
}

// TestConcurrentSubmitsWithTimers races every player's submissions against
// the auto-reveal, fallback and transition timers. Each phase must open and
// complete exactly once and the night must end exactly once.
func TestConcurrentSubmitsWithTimers(t *testing.T) {
	for run := 0; run < 20; run++ {
		g, err := NewNightGame("ABCD", newTestPlayers(10), Timings{
			PhaseTimeout:    5 * time.Millisecond,
			TransitionDelay: time.Millisecond,
			AutoRevealDelay: 2 * time.Millisecond,
		})
		require.NoError(t, err)
		g.Seed = uint64(run + 1)
		mb := newMockBroadcaster()
		g.BroadcastFn = mb.broadcastFn
		g.BroadcastToPlayerFn = mb.broadcastToPlayerFn
		var endMu sync.Mutex
		nightEnds := 0
		g.OnNightEnd = func(uuid.UUID, string) {
			endMu.Lock()
			nightEnds++
			endMu.Unlock()
		}

		_, err = g.Start()
		require.NoError(t, err)

		stop := make(chan struct{})
		var wg sync.WaitGroup
		for _, id := range g.SeatToPlayer {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				idx := 0
				for {
					select {
					case <-stop:
						return
					default:
					}
					for _, phase := range engine.NightOrder {
						_, _ = g.SubmitAction(id, string(phase), models.ActionPayload{CenterIndex: &idx})
					}
					_, _ = g.GetPlayerView(id)
				}
			}(id)
		}

		require.Eventually(t, func() bool {
			return len(mb.eventsOfType(EventNightEnded)) > 0
		}, 3*time.Second, time.Millisecond, "run %d", run)
		close(stop)
		wg.Wait()
		time.Sleep(20 * time.Millisecond)
		g.Close()

		assert.Equal(t, roleStrings(engine.NightOrder[:]), phasesIn(mb.eventsOfType(EventPhaseStarted)), "run %d", run)
		assert.Equal(t, roleStrings(engine.NightOrder[:]), phasesIn(mb.eventsOfType(EventPhaseCompleted)), "run %d", run)
		assert.Len(t, mb.eventsOfType(EventNightEnded), 1, "run %d", run)
		endMu.Lock()
		assert.Equal(t, 1, nightEnds, "run %d", run)
		endMu.Unlock()
	}
}

// TestCloseCancelsTimers verifies no callback runs against a closed game.
func TestCloseCancelsTimers(t *testing.T) {
	g, mb, _ := setupTestGame(t, 5, seedWithWerewolves(t, 5, 1), Timings{
		PhaseTimeout:    20 * time.Millisecond,
		TransitionDelay: 10 * time.Millisecond,
	})
	_, err := g.Start()
	require.NoError(t, err)

	g.Close()
	assert.True(t, g.Closed())
	time.Sleep(100 * time.Millisecond)

	assert.Empty(t, mb.eventsOfType(EventPhaseCompleted))
	g.Mu.Lock()
	assert.Equal(t, 1, g.Session.PhaseSeq())
	g.Mu.Unlock()

	_, err = g.SubmitAction(werewolfPlayers(g)[0], "werewolf", models.ActionPayload{})
	require.ErrorIs(t, err, engine.ErrRoomNotFound)
}

// TestHandleDisconnect verifies a disconnected player receives nothing more
// and the fallback still moves the night on.
func TestHandleDisconnect(t *testing.T) {
	g, mb, _ := setupTestGame(t, 5, seedWithWerewolves(t, 5, 1), Timings{PhaseTimeout: 20 * time.Millisecond})
	_, err := g.Start()
	require.NoError(t, err)
	wolf := werewolfPlayers(g)[0]

	g.HandleDisconnect(wolf)
	before := mb.countPlayerEvents(wolf)

	require.Eventually(t, func() bool {
		return len(mb.eventsOfType(EventNightEnded)) == 1
	}, 3*time.Second, 5*time.Millisecond)
	assert.Equal(t, before, mb.countPlayerEvents(wolf))
}

func TestGetPlayerView(t *testing.T) {
	g, mb, _ := setupTestGame(t, 5, seedWithWerewolves(t, 5, 1), Timings{TransitionDelay: time.Hour})
	wolf := g.SeatToPlayer[0]

	view, err := g.GetPlayerView(wolf)
	require.NoError(t, err)
	assert.Equal(t, string(engine.StageSetup), view.Stage)
	assert.Empty(t, view.Role)

	_, err = g.Start()
	require.NoError(t, err)
	wolf = werewolfPlayers(g)[0]

	view, err = g.GetPlayerView(wolf)
	require.NoError(t, err)
	assert.Equal(t, "werewolf", view.Role)
	assert.Equal(t, "werewolf", view.Phase)
	assert.True(t, view.CanAct)
	assert.False(t, view.HasActed)
	assert.Equal(t, engine.CenterSize, view.CenterCount)
	assert.Len(t, view.Players, 5)
	assert.Len(t, view.RemainingPhases, len(engine.NightOrder)-1)

	other := firstNonWerewolf(g)
	view, err = g.GetPlayerView(other)
	require.NoError(t, err)
	assert.False(t, view.CanAct)

	require.NoError(t, g.SendSyncState(wolf))
	assert.Len(t, mb.playerEventsOfType(wolf, EventPrivateSyncState), 1)

	_, err = g.GetPlayerView(uuid.New())
	require.ErrorIs(t, err, engine.ErrNotInSession)
}
