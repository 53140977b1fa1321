package engine

import "fmt"

// Eligible returns the seats that may still act in phase: seats whose
// original role is phase and that have not acted yet.
func (s *Session) Eligible(phase Role) []int {
	var out []int
	for i, seat := range s.seats {
		if seat.originalRole == phase && !seat.hasActed {
			out = append(out, i)
		}
	}
	return out
}

// PhaseComplete reports whether every seat dealt the open phase's role has
// acted. A phase nobody was dealt is complete as soon as it opens.
func (s *Session) PhaseComplete() bool {
	if s.stage != StageNight || s.currentPhase == "" {
		return false
	}
	for _, seat := range s.seats {
		if seat.originalRole == s.currentPhase && !seat.hasActed {
			return false
		}
	}
	return true
}

// checkCanAct validates that seat may submit an action for phase.
func (s *Session) checkCanAct(seat int, phase Role) error {
	if !s.validSeat(seat) {
		return fmt.Errorf("%w: seat %d", ErrNotInSession, seat)
	}
	if s.stage != StageNight {
		return fmt.Errorf("%w: game is in %s", ErrWrongPhase, s.stage)
	}
	if s.currentPhase == "" || s.currentPhase != phase {
		return fmt.Errorf("%w: %q is not the open phase", ErrWrongPhase, phase)
	}
	st := s.seats[seat]
	if st.originalRole != phase {
		return fmt.Errorf("%w: seat %d was not dealt %s", ErrNotEligible, seat, phase)
	}
	if st.hasActed {
		return fmt.Errorf("%w: seat %d has already acted", ErrNotEligible, seat)
	}
	return nil
}

// CanAct reports whether seat may submit an action for phase right now.
func (s *Session) CanAct(seat int, phase Role) bool {
	return s.checkCanAct(seat, phase) == nil
}
