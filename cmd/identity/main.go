package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sellerhub/identity-service/internal/api"
	"github.com/sellerhub/identity-service/internal/core/service"
	"github.com/sellerhub/identity-service/internal/crypto"
	"github.com/sellerhub/identity-service/internal/infrastructure/config"
	mongodb "github.com/sellerhub/identity-service/internal/infrastructure/db/mongo"
	redisdb "github.com/sellerhub/identity-service/internal/infrastructure/db/redis"
	"github.com/sellerhub/identity-service/internal/infrastructure/queue"
	"github.com/sellerhub/identity-service/internal/token"
	"github.com/sellerhub/identity-service/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("mongo index bootstrap failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	accountRepo := mongodb.NewAccountRepository(db)
	pendingRepo := mongodb.NewPendingRepository(db)
	tokenRepo := mongodb.NewTokenRepository(db)
	txRunner := mongodb.NewTxRunner(mongoClient)

	// --- Capabilities ---
	issuer, err := token.NewIssuer(token.Config{
		AccessSecret:  cfg.JWT.AccessSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshSecret: cfg.JWT.RefreshSecret,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer configuration invalid")
	}

	hasher := crypto.NewArgon2Hasher()
	tokenHasher := crypto.NewSHA256TokenHasher()
	clock := service.NewClock()

	dispatcher := queue.NewDispatcher(0, queue.LogSender{Log: log}, log)
	dispatcher.Start(ctx)

	throttle := redisdb.NewResendThrottle(rdb, cfg.Registration.ResendWindow)

	// --- Flows ---
	registration := service.NewRegistrationService(
		pendingRepo, accountRepo, hasher, tokenHasher, dispatcher, throttle, txRunner, clock,
		service.RegistrationConfig{
			PendingTTL:             cfg.Registration.PendingTTL,
			VerificationCodeLength: cfg.Registration.VerificationCodeLength,
		},
		log,
	)
	sessions := service.NewSessionService(
		accountRepo, tokenRepo, issuer, hasher, clock, cfg.Registration.LockoutThreshold, log,
	)
	federated := service.NewFederatedService(accountRepo, sessions, clock, log)

	reaper := service.NewCleanupService(pendingRepo, tokenRepo, clock, log)
	reaper.Start(ctx, cfg.Reaper.Interval)

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Registration: registration,
		Sessions:     sessions,
		Federated:    federated,
		AccessSecret: cfg.JWT.AccessSecret,
		Mongo:        db,
		Redis:        rdb,
		Log:          log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("identity service started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("identity service stopped")
}
