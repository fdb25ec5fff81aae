package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"darts-live/internal/config"
	"darts-live/internal/logging"
	"darts-live/internal/session"
	httptransport "darts-live/internal/transport/http"
	"darts-live/internal/ws"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	registry := session.NewRegistry(cfg.Server.SessionTTL())
	registry.SetJoinLimit(cfg.Server.JoinWindow(), cfg.Server.JoinMaxAttempts)
	registry.StartJanitor(context.Background(), cfg.Server.JanitorInterval())

	gateway := ws.NewServer(registry, cfg.Server.BotThrowDelay())
	r := httptransport.NewRouter(registry, gateway)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
