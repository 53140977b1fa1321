// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Rdb is the shared Redis client. It stays nil when no REDIS_URL is configured,
// in which case action publishing is skipped.
var Rdb *redis.Client

// GameActionsKey is the list every game action record is appended to.
const GameActionsKey = "werewolf:game_actions"

// GameActionRecord is one entry in a game's action log.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"gameId"`
	RoomCode      string                 `json:"roomCode"`
	ActionIndex   int                    `json:"actionIndex"`
	ActorUserID   uuid.UUID              `json:"actorUserId"` // uuid.Nil for game-driven events.
	ActionType    string                 `json:"actionType"`
	ActionPayload map[string]interface{} `json:"actionPayload"`
	Timestamp     int64                  `json:"timestamp"`
}

// ConnectRedis parses url, connects and pings. On success Rdb is set.
func ConnectRedis(ctx context.Context, url string) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping redis: %w", err)
	}
	Rdb = client
	log.Infof("Connected to Redis at %s", opts.Addr)
	return nil
}

// PublishGameAction appends rec to the action log.
func PublishGameAction(ctx context.Context, rec GameActionRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action record: %w", err)
	}
	return Rdb.RPush(ctx, GameActionsKey, data).Err()
}

// Close releases the Redis client, if any.
func Close() {
	if Rdb == nil {
		return
	}
	if err := Rdb.Close(); err != nil {
		log.Warnf("Error closing Redis client: %v", err)
	}
	Rdb = nil
}
