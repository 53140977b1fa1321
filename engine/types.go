package engine

import "strings"

// Role identifies a card in the role bag. Night phases are named after the
// role that wakes up in them, so a Role doubles as a phase identifier.
type Role string

// Role constants.
const (
	RoleWerewolf     Role = "werewolf"
	RoleSeer         Role = "seer"
	RoleRobber       Role = "robber"
	RoleTroublemaker Role = "troublemaker"
	RoleDrunk        Role = "drunk"
	RoleInsomniac    Role = "insomniac"
	RoleTanner       Role = "tanner"
	RoleVillager     Role = "villager"
)

// RoleInfo is the static catalog entry for a role.
type RoleInfo struct {
	Label       string // Display label shown to players.
	NightAction bool   // Does the role wake up during the night?
	Prompt      string // Narration read out when the role's phase opens.
}

// roleCatalog is read-only after package init.
var roleCatalog = map[Role]RoleInfo{
	RoleWerewolf: {
		Label:       "Werewolf",
		NightAction: true,
		Prompt:      "Werewolves, wake up and look for other werewolves.",
	},
	RoleSeer: {
		Label:       "Seer",
		NightAction: true,
		Prompt:      "Seer, wake up. You may look at another player's card or two of the center cards.",
	},
	RoleRobber: {
		Label:       "Robber",
		NightAction: true,
		Prompt:      "Robber, wake up. You may exchange your card with another player's card.",
	},
	RoleTroublemaker: {
		Label:       "Troublemaker",
		NightAction: true,
		Prompt:      "Troublemaker, wake up. You may exchange cards between two other players.",
	},
	RoleDrunk: {
		Label:       "Drunk",
		NightAction: true,
		Prompt:      "Drunk, wake up and exchange your card with a card from the center.",
	},
	RoleInsomniac: {
		Label:       "Insomniac",
		NightAction: true,
		Prompt:      "Insomniac, wake up and look at your card.",
	},
	RoleTanner:   {Label: "Tanner"},
	RoleVillager: {Label: "Villager"},
}

// LookupRole returns the catalog entry for r.
func LookupRole(r Role) (RoleInfo, bool) {
	info, ok := roleCatalog[r]
	return info, ok
}

// Label returns the display label for r. Unknown roles fall back to the
// identifier with its first letter upper-cased.
func (r Role) Label() string {
	if info, ok := roleCatalog[r]; ok {
		return info.Label
	}
	if r == "" {
		return ""
	}
	s := string(r)
	return strings.ToUpper(s[:1]) + s[1:]
}

// ActsAtNight reports whether r has a night phase.
func (r Role) ActsAtNight() bool {
	return roleCatalog[r].NightAction
}

// Prompt returns the narration for r's night phase.
func (r Role) Prompt() string {
	if info, ok := roleCatalog[r]; ok && info.Prompt != "" {
		return info.Prompt
	}
	return "It is the " + r.Label() + "'s turn."
}

// Stage is the coarse lifecycle of a session.
type Stage string

// Stage constants. Voting and scoring are not modelled; discussion is terminal.
const (
	StageSetup      Stage = "setup"
	StageNight      Stage = "night"
	StageDiscussion Stage = "discussion"
)

// Seat holds one player's dealt role and night progress.
// The original role is fixed at deal time; only the current role can change.
type Seat struct {
	originalRole Role
	currentRole  Role
	hasActed     bool
}

// OriginalRole returns the role dealt to the seat at setup.
func (s Seat) OriginalRole() Role { return s.originalRole }

// CurrentRole returns the role the seat holds now, after any swaps.
func (s Seat) CurrentRole() Role { return s.currentRole }

// HasActed reports whether the seat has completed its night action.
func (s Seat) HasActed() bool { return s.hasActed }

// Action is a player's submission for the open phase.
type Action struct {
	Phase       Role
	CenterIndex *int  // Lone werewolf peek choice, nil until chosen.
	Targets     []int // Seat targets for roles that swap or inspect players.
}

// CenterCard is a center card revealed to a single player.
type CenterCard struct {
	Index int
	Role  Role
}

// Result is the outcome of applying an Action.
type Result struct {
	Phase           Role
	Completed       bool  // The seat's turn is over (HasActed was set).
	IsLoneWolf      bool  // Exactly one werewolf holds the werewolf card.
	AutoReveal      bool  // Werewolves were shown to each other without input.
	OtherWerewolves []int // Seats of the other current werewolves.
	CenterCard      *CenterCard
}

// PhaseStart describes a phase that has just opened.
type PhaseStart struct {
	Seq      int // 1-based count of phases opened in this session.
	Phase    Role
	Label    string
	Prompt   string
	Eligible []int
}

// DealSummary is the public part of a deal. Center roles are never included.
type DealSummary struct {
	CenterCount int
	PhaseOrder  []Role
}
