package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"otomar/internal/cache"
	"otomar/internal/client"
	"otomar/internal/config"
	"otomar/internal/logger"
	"otomar/internal/repository"
	"otomar/internal/server"
	"otomar/internal/service"

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

	ctx := context.Background()

	db, err := client.OpenDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := client.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	rdb, err := client.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to redis")
	}
	defer rdb.Close()

	bankClient := client.NewBankClient(&cfg.Bank)
	mailer := client.NewMailer(&cfg.SMTP)
	recaptcha := client.NewRecaptchaVerifier(&cfg.Recaptcha)

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	userRepo := repository.NewUserRepository(db)
	listSearchRepo := repository.NewListSearchRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)

	if cfg.SeedCatalog {
		if err := productRepo.Seed(ctx); err != nil {
			log.Fatal().Err(err).Msg("seed catalog")
		}
	}

	carts := cache.NewRedisCartStore(rdb)
	shipping := service.NewShippingPolicy(cfg.Shipping)
	tokens := service.NewTokenIssuer(cfg.JWT)

	services := &server.Services{
		Catalog:    service.NewCatalogService(productRepo),
		Cart:       service.NewCartService(carts, productRepo, shipping, log),
		Order:      service.NewOrderService(db, orderRepo, productRepo, carts, shipping, log),
		Payment:    service.NewPaymentService(db, bankClient, mailer, orderRepo, paymentRepo, inventoryRepo, log),
		User:       service.NewUserService(userRepo, tokens, cfg.JWT.RefreshTokenTTL, log),
		ListSearch: service.NewListSearchService(listSearchRepo, mailer, cfg.UploadDir, cfg.SMTP.NotifyTo, log),
		Health:     service.NewHealthService(db, rdb),
		Tokens:     tokens,
		Recaptcha:  recaptcha,
	}

	// Init HTTP server
	srv := server.NewServer(cfg, services, log)

	log.Info().Str("addr", cfg.HTTP.Addr()).Str("environment", cfg.Environment.Name).Msg("starting HTTP server")
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

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// loadConfig reads .env when present, parses the environment and builds the
// process logger.
func loadConfig() (*config.API, zerolog.Logger, error) {
	envErr := godotenv.Load()

	cfg := &config.API{}
	if err := env.Parse(cfg); err != nil {
		return nil, zerolog.Nop(), err
	}

	log := logger.New(cfg.Log, "api")
	if envErr != nil {
		log.Debug().Msg("no .env file found (ok in prod)")
	}
	return cfg, log, nil
}
