package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tenantgrid/authd/internal/api"
	"github.com/tenantgrid/authd/internal/api/handler"
	"github.com/tenantgrid/authd/internal/core/service"
	"github.com/tenantgrid/authd/internal/infrastructure/config"
	"github.com/tenantgrid/authd/internal/infrastructure/db/mongo"
	"github.com/tenantgrid/authd/internal/infrastructure/db/redis"
	"github.com/tenantgrid/authd/internal/infrastructure/mail"
	"github.com/tenantgrid/authd/internal/infrastructure/queue"
	"github.com/tenantgrid/authd/pkg/logger"
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
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}
	store := mongo.NewCredentialStore(db)

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Event outbox ---
	dispatcher := queue.NewDispatcher(0, queue.NewTelemetryConsumer(log), log)
	dispatcher.Start(ctx)

	// --- Services ---
	codes := service.NewConfirmationCodeService()
	codec := service.NewTokenCodec(cfg.Auth.JWTSecret, 0, log)
	mailer := mail.NewLogMailer(log)
	flow := service.NewAuthFlowService(store, codes, codec, mailer, dispatcher, cfg.Auth.SignupDisabled, log)
	access := service.NewClientAccessResolver(store, dispatcher, log)
	limiter := redis.NewLoginLimiter(rdb, 0, 0)

	e, err := api.NewRouter(api.Deps{
		AuthCfg: &cfg.Auth,
		Flow:    flow,
		Access:  access,
		Users:   store.Users(),
		Codec:   codec,
		Limiter: limiter,
		Events:  dispatcher,
		Health:  handler.NewHealthHandler(),
		Ready:   handler.NewReadinessHandler(db, rdb),
		Log:     log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("router construction failed")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("auth_method", cfg.Auth.Method()).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
