package models

import "github.com/google/uuid"

// Inbound message types sent by clients over the websocket.
const (
	MsgCreateRoom  = "create_room"
	MsgJoinRoom    = "join_room"
	MsgLeaveRoom   = "leave_room"
	MsgStartGame   = "start_game"
	MsgNightAction = "night_action"
	MsgSyncState   = "sync_state"
)

// ClientMessage is the envelope for every inbound frame. Fields not used by
// a given type are left empty.
type ClientMessage struct {
	Type        string      `json:"type"`
	Username    string      `json:"username,omitempty"`
	RoomCode    string      `json:"room_code,omitempty"`
	Phase       string      `json:"phase,omitempty"`
	CenterIndex *int        `json:"center_index,omitempty"`
	Targets     []uuid.UUID `json:"targets,omitempty"`
}

// ActionPayload carries the role-specific part of a night action.
type ActionPayload struct {
	CenterIndex *int        `json:"center_index,omitempty"`
	Targets     []uuid.UUID `json:"targets,omitempty"` // Players targeted by swap/inspect roles.
}
