// Command api serves the sweet shop inventory HTTP API.
//
// @title                       Sweet Shop Inventory API
// @version                     1.0
// @description                 Catalog and stock management for a sweet shop.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sweetshop/inventory-api/internal/api"
	"github.com/sweetshop/inventory-api/internal/api/metrics"
	"github.com/sweetshop/inventory-api/internal/core/ports"
	"github.com/sweetshop/inventory-api/internal/core/service"
	"github.com/sweetshop/inventory-api/internal/infrastructure/config"
	"github.com/sweetshop/inventory-api/internal/infrastructure/db/memory"
	mongostore "github.com/sweetshop/inventory-api/internal/infrastructure/db/mongo"
	redisstore "github.com/sweetshop/inventory-api/internal/infrastructure/db/redis"
	health "github.com/sweetshop/inventory-api/internal/infrastructure/http/handlers"
	"github.com/sweetshop/inventory-api/internal/infrastructure/security"
	"github.com/sweetshop/inventory-api/internal/infrastructure/token"
	"github.com/sweetshop/inventory-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load() // load .env if present

	ctx := context.Background()

	cfg, err := config.Load(ctx, nil)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: "inventory-api"})
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "inventory-api",
		Env:     cfg.Env,
	})

	tokens, err := token.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpire)
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}

	var (
		users    ports.AuthRepository
		sweets   ports.SweetRepository
		keys     ports.IdempotencyStore
		checkers []health.Checker
		counter  *redisstore.WindowCounter
	)

	switch cfg.Store {
	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.MongoURI(), Database: cfg.Mongo.Database})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mongodb")
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to create indexes")
		}
		users = mongostore.NewUserRepository(db)
		sweets = mongostore.NewSweetRepository(db)
		checkers = append(checkers, health.MongoChecker(db))
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
	default:
		users = memory.NewUserStore()
		sweets = memory.NewSweetStore()
		keys = memory.NewKeyStore()
		log.Warn().Msg("using in-memory store; data is lost on exit")
	}

	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer func() { _ = rdb.Close() }()

		keys = redisstore.NewIdempotencyStore(rdb)
		counter = redisstore.NewWindowCounter(rdb, cfg.RateLimit.Window)
		checkers = append(checkers, health.RedisChecker(rdb))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	}

	recorder := metrics.NewRecorder()
	authService := service.NewAuthService(users, security.NewBcryptHasher(cfg.Auth.BcryptCost), tokens,
		service.WithAdminSignup(cfg.Auth.AllowAdminSignup),
		service.WithAuthMetrics(recorder),
		service.WithAuthLogger(log.With().Str("component", "auth").Logger()),
	)
	sweetService := service.NewSweetService(sweets, keys, log.With().Str("component", "inventory").Logger(),
		service.WithInventoryMetrics(recorder),
	)

	deps := api.Dependencies{
		AuthService:  authService,
		SweetService: sweetService,
		Tokens:       tokens,
		RateLimit:    cfg.RateLimit,
		HTTP:         cfg.HTTP,
		Checkers:     checkers,
		Logger:       log,
	}
	if counter != nil {
		deps.RateCounter = counter
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	waitForShutdown(srv, log)
}

func waitForShutdown(srv *http.Server, log zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}
	log.Info().Msg("server exited properly")
}
