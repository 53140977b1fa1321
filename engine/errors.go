package engine

import "errors"

// Request errors. All of them are recoverable: they are reported back to the
// requesting player and never end the session.
var (
	ErrNotInSession  = errors.New("player is not in a game")
	ErrRoomNotFound  = errors.New("room not found")
	ErrWrongPhase    = errors.New("action is not allowed in the current phase")
	ErrNotEligible   = errors.New("player cannot act in this phase")
	ErrInvalidIndex  = errors.New("center card index out of range")
	ErrInvalidTarget = errors.New("target is not a seat in this game")
	ErrConfiguration = errors.New("no role bag for this player count")
	ErrAlreadyDealt  = errors.New("roles have already been dealt")
)

// Wire codes for request errors.
const (
	CodeNotInSession  = "not_in_session"
	CodeRoomNotFound  = "room_not_found"
	CodeWrongPhase    = "wrong_phase"
	CodeNotEligible   = "not_eligible"
	CodeInvalidIndex  = "invalid_index"
	CodeInvalidTarget = "invalid_target"
	CodeConfiguration = "configuration_error"
	CodeAlreadyDealt  = "already_dealt"
	CodeInternal      = "internal"
)

// ErrorCode maps err, possibly wrapped, to its wire code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotInSession):
		return CodeNotInSession
	case errors.Is(err, ErrRoomNotFound):
		return CodeRoomNotFound
	case errors.Is(err, ErrWrongPhase):
		return CodeWrongPhase
	case errors.Is(err, ErrNotEligible):
		return CodeNotEligible
	case errors.Is(err, ErrInvalidIndex):
		return CodeInvalidIndex
	case errors.Is(err, ErrInvalidTarget):
		return CodeInvalidTarget
	case errors.Is(err, ErrConfiguration):
		return CodeConfiguration
	case errors.Is(err, ErrAlreadyDealt):
		return CodeAlreadyDealt
	default:
		return CodeInternal
	}
}
