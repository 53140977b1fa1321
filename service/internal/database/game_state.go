// internal/database/game_state.go
package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// UpsertInitialGameState records the deal for a game. The snapshot is stored
// as JSONB; it contains the center cards and is never sent to clients.
// Errors are logged, not returned, since this runs detached from the game.
func UpsertInitialGameState(gameID uuid.UUID, roomCode string, snapshot interface{}) {
	if DB == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := DB.Exec(ctx, `
		INSERT INTO night_games (id, room_code, initial_state)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET initial_state = EXCLUDED.initial_state`,
		gameID, roomCode, snapshot)
	if err != nil {
		log.Errorf("Game %s: failed to store initial state: %v", gameID, err)
	}
}

// StoreFinalGameStateInDB records the state at the end of the night.
func StoreFinalGameStateInDB(ctx context.Context, gameID uuid.UUID, snapshot interface{}) {
	if DB == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := DB.Exec(ctx, `
		UPDATE night_games SET final_state = $2, ended_at = now()
		WHERE id = $1`,
		gameID, snapshot)
	if err != nil {
		log.Errorf("Game %s: failed to store final state: %v", gameID, err)
		return
	}
	if tag.RowsAffected() == 0 {
		log.Warnf("Game %s: no initial row found when storing final state", gameID)
	}
}
