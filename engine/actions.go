package engine

import "fmt"

// Resolver applies one role's night action for an eligible seat.
// Resolvers must not mark the seat as acted themselves; returning
// Result.Completed does that. A resolver that returns an error must leave
// the session unchanged.
type Resolver interface {
	Resolve(s *Session, seat int, a Action) (Result, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(s *Session, seat int, a Action) (Result, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(s *Session, seat int, a Action) (Result, error) {
	return f(s, seat, a)
}

// acknowledge ends the seat's turn without changing any roles. It stands in
// for night roles that have no resolver registered.
var acknowledge = ResolverFunc(func(_ *Session, _ int, _ Action) (Result, error) {
	return Result{Completed: true}, nil
})

func defaultResolvers() map[Role]Resolver {
	return map[Role]Resolver{
		RoleWerewolf: ResolverFunc(resolveWerewolf),
	}
}

// RegisterResolver installs r for role, replacing any existing resolver.
// A nil r restores the acknowledge behaviour.
func (s *Session) RegisterResolver(role Role, r Resolver) {
	if r == nil {
		delete(s.resolvers, role)
		return
	}
	s.resolvers[role] = r
}

func (s *Session) resolverFor(role Role) Resolver {
	if r, ok := s.resolvers[role]; ok {
		return r
	}
	return acknowledge
}

// ApplyAction validates and applies a seat's action for the open phase.
// Phase and eligibility are checked before targets. On error nothing is
// changed. A successful result with Completed=false
// leaves the seat eligible (the lone werewolf before choosing a card).
func (s *Session) ApplyAction(seat int, a Action) (Result, error) {
	if err := s.checkCanAct(seat, a.Phase); err != nil {
		return Result{}, err
	}
	for _, t := range a.Targets {
		if !s.validSeat(t) {
			return Result{}, fmt.Errorf("%w: seat %d", ErrInvalidTarget, t)
		}
	}

	res, err := s.resolverFor(a.Phase).Resolve(s, seat, a)
	if err != nil {
		return Result{}, err
	}
	res.Phase = a.Phase
	if res.Completed {
		s.seats[seat].hasActed = true
	}
	return res, nil
}
