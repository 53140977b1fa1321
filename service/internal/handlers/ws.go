// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dylanuga/werewolf-game/engine"
	"github.com/Dylanuga/werewolf-game/service/internal/auth"
	"github.com/Dylanuga/werewolf-game/service/internal/game"
	"github.com/Dylanuga/werewolf-game/service/internal/models"
	"github.com/Dylanuga/werewolf-game/service/internal/room"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Connection-level events.
const (
	EventStatus game.GameEventType = "status"
)

// Error codes that are neither lobby nor engine errors.
const (
	CodeBadMessage     = "bad_message"
	CodeUnknownMessage = "unknown_message"
)

// Handler serves the websocket endpoint.
type Handler struct {
	hub    *Hub
	rooms  *room.Manager
	signer *auth.Signer
}

// NewHandler wires a handler. rooms must send through hub.
func NewHandler(hub *Hub, rooms *room.Manager, signer *auth.Signer) *Handler {
	return &Handler{hub: hub, rooms: rooms, signer: signer}
}

// ServeWS upgrades the request and runs the connection's read loop until the
// client goes away. A valid ?token= reuses the player handle it carries;
// otherwise a new handle is minted and returned in the status event.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := uuid.New()
	if tok := r.URL.Query().Get("token"); tok != "" {
		id, err := h.signer.Parse(tok)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		playerID = id
	}
	if h.hub.Connected(playerID) {
		http.Error(w, ErrAlreadyConnected.Error(), http.StatusConflict)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Warnf("WebSocket accept failed: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := h.hub.Register(playerID, conn); err != nil {
		conn.Close(websocket.StatusPolicyViolation, err.Error())
		return
	}
	log.Printf("WebSocket connected: %s", playerID)
	defer func() {
		h.rooms.LeaveRoom(playerID)
		h.hub.Unregister(playerID, conn)
		log.Printf("WebSocket disconnected: %s", playerID)
	}()

	token, err := h.signer.Issue(playerID)
	if err != nil {
		log.Errorf("Issuing token for %s: %v", playerID, err)
		return
	}
	h.hub.SendToPlayer(playerID, game.GameEvent{
		Type: EventStatus,
		Payload: map[string]interface{}{
			"msg":       "Connected to server",
			"player_id": playerID,
			"token":     token,
		},
	})

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Debugf("WebSocket read error for %s: %v", playerID, err)
			}
			return
		}
		var msg models.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(playerID, CodeBadMessage, "malformed message")
			continue
		}
		h.dispatch(playerID, conn, msg)
	}
}

func (h *Handler) dispatch(playerID uuid.UUID, conn *websocket.Conn, msg models.ClientMessage) {
	var err error
	switch msg.Type {
	case models.MsgCreateRoom:
		_, err = h.rooms.CreateRoom(&models.Player{ID: playerID, Username: msg.Username, Conn: conn})
	case models.MsgJoinRoom:
		_, err = h.rooms.JoinRoom(msg.RoomCode, &models.Player{ID: playerID, Username: msg.Username, Conn: conn})
	case models.MsgLeaveRoom:
		h.rooms.LeaveRoom(playerID)
	case models.MsgStartGame:
		var rm *room.Room
		if rm, err = h.rooms.Registry().RoomOf(playerID); err == nil {
			_, err = h.rooms.StartGame(rm.Code, playerID)
		}
	case models.MsgNightAction:
		// The outcome is delivered as action_result.
		_, _ = h.rooms.SubmitAction(playerID, msg.Phase, models.ActionPayload{
			CenterIndex: msg.CenterIndex,
			Targets:     msg.Targets,
		})
	case models.MsgSyncState:
		err = h.rooms.SyncState(playerID)
	default:
		h.sendError(playerID, CodeUnknownMessage, "unknown message type "+msg.Type)
		return
	}
	if err != nil {
		log.Debugf("Player %s: %s failed: %v", playerID, msg.Type, err)
		h.sendError(playerID, errorCode(err), err.Error())
	}
}

func (h *Handler) sendError(playerID uuid.UUID, code, text string) {
	h.hub.SendToPlayer(playerID, game.GameEvent{
		Type:    room.EventError,
		Payload: map[string]interface{}{"code": code, "msg": text},
	})
}

func errorCode(err error) string {
	if code := room.ErrorCode(err); code != "" {
		return code
	}
	return engine.ErrorCode(err)
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

var _ room.Sender = (*Hub)(nil)
