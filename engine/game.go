// Package engine implements the night rules of One Night Werewolf.
//
// A Session is seat-indexed and has no notion of connections, clocks or
// identities; the service layer maps players to seats and drives the
// session from its own lock. Given the same seed, Deal is deterministic.
package engine

import (
	"fmt"
	"math/rand/v2"
)

// Session holds the complete night state of one game.
type Session struct {
	seats  []Seat
	center [CenterSize]Role

	stage        Stage
	currentPhase Role   // Phase open for action, "" when none.
	phaseOrder   []Role // Phases not yet opened, consumed from the front.
	phaseSeq     int    // Number of phases opened so far.

	dealt     bool
	resolvers map[Role]Resolver
}

// NewSession creates an undealt session with numSeats seats.
func NewSession(numSeats int) *Session {
	if numSeats < 0 {
		numSeats = 0
	}
	return &Session{
		seats:     make([]Seat, numSeats),
		stage:     StageSetup,
		resolvers: defaultResolvers(),
	}
}

// ---------------------------------------------------------------------------
// Role assignment
// ---------------------------------------------------------------------------

// Deal shuffles the role bag for the seat count, gives one role to each seat
// in seat order and keeps the remaining three as the center. It queues the
// full canonical night order and moves the session to the night stage.
// A session can only be dealt once.
func (s *Session) Deal(seed uint64) (DealSummary, error) {
	if s.dealt || s.stage != StageSetup {
		return DealSummary{}, ErrAlreadyDealt
	}
	bag, err := RoleBag(len(s.seats))
	if err != nil {
		return DealSummary{}, err
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rng.Shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })

	n := len(s.seats)
	for i := range s.seats {
		s.seats[i] = Seat{originalRole: bag[i], currentRole: bag[i]}
	}
	copy(s.center[:], bag[n:n+CenterSize])

	s.phaseOrder = append(s.phaseOrder[:0], NightOrder[:]...)
	s.currentPhase = ""
	s.stage = StageNight
	s.dealt = true

	return DealSummary{
		CenterCount: CenterSize,
		PhaseOrder:  clone(s.phaseOrder),
	}, nil
}

// IsDealt reports whether roles have been assigned.
func (s *Session) IsDealt() bool { return s.dealt }

// ---------------------------------------------------------------------------
// Phase sequencing
// ---------------------------------------------------------------------------

// Advance opens the next queued phase. When the queue is exhausted the
// session moves to discussion and Advance returns ok=false. Advancing a
// session that is not in the night stage fails with ErrWrongPhase.
func (s *Session) Advance() (start PhaseStart, ok bool, err error) {
	if s.stage != StageNight {
		return PhaseStart{}, false, fmt.Errorf("%w: cannot advance during %s", ErrWrongPhase, s.stage)
	}
	if len(s.phaseOrder) == 0 {
		s.currentPhase = ""
		s.stage = StageDiscussion
		return PhaseStart{}, false, nil
	}

	next := s.phaseOrder[0]
	s.phaseOrder = s.phaseOrder[1:]
	s.currentPhase = next
	s.phaseSeq++

	return PhaseStart{
		Seq:      s.phaseSeq,
		Phase:    next,
		Label:    next.Label(),
		Prompt:   next.Prompt(),
		Eligible: s.Eligible(next),
	}, true, nil
}

// ---------------------------------------------------------------------------
// Query methods
// ---------------------------------------------------------------------------

// Stage returns the lifecycle stage of the session.
func (s *Session) Stage() Stage { return s.stage }

// CurrentPhase returns the phase open for action, "" when none.
func (s *Session) CurrentPhase() Role { return s.currentPhase }

// PhaseOrder returns a copy of the phases not yet opened, next first.
func (s *Session) PhaseOrder() []Role { return clone(s.phaseOrder) }

// PhaseSeq returns the number of phases opened so far.
func (s *Session) PhaseSeq() int { return s.phaseSeq }

// NumSeats returns the number of seats.
func (s *Session) NumSeats() int { return len(s.seats) }

// Seat returns a copy of seat i.
func (s *Session) Seat(i int) (Seat, bool) {
	if i < 0 || i >= len(s.seats) {
		return Seat{}, false
	}
	return s.seats[i], true
}

// Center returns a copy of the center cards.
func (s *Session) Center() [CenterSize]Role { return s.center }

// SeatsWithCurrentRole returns the seats currently holding role, in seat order.
func (s *Session) SeatsWithCurrentRole(role Role) []int {
	var out []int
	for i, seat := range s.seats {
		if seat.currentRole == role {
			out = append(out, i)
		}
	}
	return out
}

// SwapCurrentRoles exchanges the current roles of seats a and b.
// Original roles are never touched.
func (s *Session) SwapCurrentRoles(a, b int) error {
	if !s.validSeat(a) || !s.validSeat(b) {
		return fmt.Errorf("%w: seats %d and %d", ErrInvalidTarget, a, b)
	}
	s.seats[a].currentRole, s.seats[b].currentRole = s.seats[b].currentRole, s.seats[a].currentRole
	return nil
}

func (s *Session) validSeat(i int) bool { return i >= 0 && i < len(s.seats) }
