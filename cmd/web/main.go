package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"otomar/internal/apiclient"
	"otomar/internal/client"
	"otomar/internal/config"
	"otomar/internal/logger"
	"otomar/internal/session"
	"otomar/internal/web"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	cfg, log, err := loadConfig()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("parse config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	rdb, err := client.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to redis")
	}
	defer rdb.Close()

	store := session.NewRedisStore(rdb, cfg.Session.TTL)
	api := apiclient.New(cfg, session.ContextCredentialStore{}, session.ContextCartResolver{}, log)

	srv := web.NewServer(cfg, api, store, log)

	log.Info().Str("addr", cfg.HTTP.Addr()).Str("api", cfg.APIBaseURL).Msg("starting HTTP server")
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info().Msg("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
}

// loadConfig reads .env when present, parses the environment and builds the
// process logger.
func loadConfig() (*config.Web, zerolog.Logger, error) {
	envErr := godotenv.Load()

	cfg := &config.Web{}
	if err := env.Parse(cfg); err != nil {
		return nil, zerolog.Nop(), err
	}

	log := logger.New(cfg.Log, "web")
	if envErr != nil {
		log.Debug().Msg("no .env file found (ok in prod)")
	}
	return cfg, log, nil
}
