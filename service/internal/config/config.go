// internal/config/config.go
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Addr      string
	JWTSecret []byte

	RedisURL    string // Empty disables the action log.
	DatabaseURL string // Empty disables the audit store.

	PhaseTimeout         time.Duration
	PhaseTransitionDelay time.Duration
	AutoRevealDelay      time.Duration

	MaxPlayers int
	MinPlayers int

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Addr:        getenv("ADDR", ":8080"),
		RedisURL:    os.Getenv("REDIS_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.PhaseTimeout, err = durationEnv("PHASE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.PhaseTimeout == 0 {
		return nil, fmt.Errorf("parse PHASE_TIMEOUT: the phase fallback cannot be disabled")
	}
	if cfg.PhaseTransitionDelay, err = durationEnv("PHASE_TRANSITION_DELAY", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.AutoRevealDelay, err = durationEnv("AUTO_REVEAL_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxPlayers, err = intEnv("MAX_PLAYERS", 10); err != nil {
		return nil, err
	}
	if cfg.MinPlayers, err = intEnv("MIN_PLAYERS", 3); err != nil {
		return nil, err
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = []byte(secret)
	} else {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.JWTSecret = []byte(hex.EncodeToString(buf))
		log.Warn("JWT_SECRET not set; using a random secret, tokens will not survive a restart.")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("parse %s: negative duration %s", key, d)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

// ConfigureLogging applies LOG_LEVEL and LOG_FORMAT to the standard logrus logger.
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info.", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
