// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dylanuga/werewolf-game/service/internal/auth"
	"github.com/Dylanuga/werewolf-game/service/internal/cache"
	"github.com/Dylanuga/werewolf-game/service/internal/config"
	"github.com/Dylanuga/werewolf-game/service/internal/database"
	"github.com/Dylanuga/werewolf-game/service/internal/game"
	"github.com/Dylanuga/werewolf-game/service/internal/handlers"
	"github.com/Dylanuga/werewolf-game/service/internal/room"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	cfg.ConfigureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RedisURL != "" {
		if err := cache.ConnectRedis(ctx, cfg.RedisURL); err != nil {
			log.Warnf("Redis unavailable, action log disabled: %v", err)
		}
		defer cache.Close()
	}
	if cfg.DatabaseURL != "" {
		if err := database.ConnectDB(ctx, cfg.DatabaseURL); err != nil {
			log.Warnf("Postgres unavailable, audit store disabled: %v", err)
		}
		defer database.Close()
	}

	hub := handlers.NewHub()
	rooms := room.NewManager(room.NewRegistry(), hub, room.Options{
		MaxPlayers: cfg.MaxPlayers,
		MinPlayers: cfg.MinPlayers,
		Timings: game.Timings{
			PhaseTimeout:    cfg.PhaseTimeout,
			TransitionDelay: cfg.PhaseTransitionDelay,
			AutoRevealDelay: cfg.AutoRevealDelay,
		},
	})
	h := handlers.NewHandler(hub, rooms, auth.NewSigner(cfg.JWTSecret, auth.DefaultTTL))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/healthz", handlers.Healthz)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Shutdown: %v", err)
	}
}
