package engine

import "fmt"

// resolveWerewolf handles the werewolf phase.
//
// Werewolf membership is read from current roles, while eligibility was
// checked against original roles. With more than one werewolf the seat is
// shown the others and its turn ends at once. A lone werewolf may peek at
// one center card; until it names an index the turn stays open.
func resolveWerewolf(s *Session, seat int, a Action) (Result, error) {
	wolves := s.SeatsWithCurrentRole(RoleWerewolf)

	others := make([]int, 0, len(wolves))
	for _, w := range wolves {
		if w != seat {
			others = append(others, w)
		}
	}

	res := Result{OtherWerewolves: others}
	if len(wolves) != 1 {
		res.AutoReveal = true
		res.Completed = true
		return res, nil
	}

	res.IsLoneWolf = true
	if a.CenterIndex == nil {
		return res, nil
	}
	idx := *a.CenterIndex
	if idx < 0 || idx >= len(s.center) {
		return Result{}, fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidIndex, idx, len(s.center))
	}
	res.CenterCard = &CenterCard{Index: idx, Role: s.center[idx]}
	res.Completed = true
	return res, nil
}
