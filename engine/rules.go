package engine

import "fmt"

const (
	CenterSize = 3
	MinSeats   = 2
	MaxSeats   = 10
)

// NightOrder is the canonical wake-up order. Every session queues all of
// these phases; phases for roles nobody holds open and complete immediately.
var NightOrder = [...]Role{
	RoleWerewolf,
	RoleSeer,
	RoleRobber,
	RoleTroublemaker,
	RoleDrunk,
	RoleInsomniac,
}

// roleBags maps player count to the roles shuffled for that count.
// Each bag holds exactly count+CenterSize roles.
var roleBags = func() map[int][]Role {
	two := []Role{RoleWerewolf, RoleWerewolf, RoleSeer, RoleVillager, RoleVillager}
	three := []Role{RoleWerewolf, RoleWerewolf, RoleSeer, RoleRobber, RoleVillager, RoleVillager}
	four := []Role{RoleWerewolf, RoleWerewolf, RoleSeer, RoleRobber, RoleTroublemaker, RoleDrunk, RoleVillager}
	five := append(clone(four), RoleVillager)
	six := append(clone(five), RoleInsomniac)
	seven := append(clone(six), RoleVillager)
	eight := append(clone(seven), RoleTanner)
	nine := append(clone(eight), RoleVillager)
	ten := append(clone(nine), RoleVillager)
	return map[int][]Role{
		2: two, 3: three, 4: four, 5: five, 6: six,
		7: seven, 8: eight, 9: nine, 10: ten,
	}
}()

// RoleBag returns a fresh copy of the role bag for numPlayers.
func RoleBag(numPlayers int) ([]Role, error) {
	if numPlayers <= 0 {
		return nil, fmt.Errorf("%w: no players", ErrConfiguration)
	}
	bag, ok := roleBags[numPlayers]
	if !ok {
		return nil, fmt.Errorf("%w: %d players (supported %d-%d)", ErrConfiguration, numPlayers, MinSeats, MaxSeats)
	}
	if len(bag) != numPlayers+CenterSize {
		return nil, fmt.Errorf("%w: bag for %d players has %d roles", ErrConfiguration, numPlayers, len(bag))
	}
	return clone(bag), nil
}

func clone(roles []Role) []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}
