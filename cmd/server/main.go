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
	goredis "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/peoplehub/identity-system/internal/api"
	"github.com/peoplehub/identity-system/internal/core/service"
	"github.com/peoplehub/identity-system/internal/infrastructure/config"
	"github.com/peoplehub/identity-system/internal/infrastructure/db/failover"
	"github.com/peoplehub/identity-system/internal/infrastructure/db/localstore"
	"github.com/peoplehub/identity-system/internal/infrastructure/db/mongo"
	"github.com/peoplehub/identity-system/internal/infrastructure/db/redis"
	"github.com/peoplehub/identity-system/internal/pkg/secrets"
	"github.com/peoplehub/identity-system/pkg/logger"
)

func main() {
	// .env is optional; real environments inject variables directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "identity-directory",
	})

	ctx := context.Background()

	// Primary store. A down primary is not fatal: the failover decorator
	// serves from the local fallback until it returns.
	var (
		mongoClient *mongodriver.Client
		mongoDB     *mongodriver.Database
	)
	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Warn().Err(err).Msg("primary store unavailable at boot, starting on fallback only")
	} else {
		mongoClient, mongoDB = client, db
		defer func() { _ = mongoClient.Disconnect(ctx) }()
	}

	fallbackStore, err := localstore.Open(cfg.Directory.FallbackPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Directory.FallbackPath).Msg("fallback store unusable")
	}

	var primary *mongo.DirectoryRepository
	store := failover.New(nil, fallbackStore, log)
	if mongoDB != nil {
		primary = mongo.NewDirectoryRepository(mongoDB)
		if err := primary.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("index creation failed")
		}
		store = failover.New(primary, fallbackStore, log)
	}

	// Redis backs the OTP request limiter and the edge session cache; both
	// are best-effort, so a down redis only logs.
	var (
		limiter  service.OTPRateLimiter
		sessions service.SessionSync
		rdb      *goredis.Client
	)
	rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, OTP rate limiting and session sync disabled")
		rdb = nil
	} else {
		defer func() { _ = rdb.Close() }()
		limiter = redis.NewOTPRateLimiter(rdb, cfg.Directory.OTPRateWindow, cfg.Directory.OTPRateMax)
		sessions = redis.NewSessionVersionCache(rdb)
	}

	bootstrap := make([]service.BootstrapAccount, 0)
	for _, b := range cfg.Directory.ParseBootstrapAccounts() {
		bootstrap = append(bootstrap, service.BootstrapAccount{Email: b.Email, Role: b.Role})
	}

	directory := service.NewDirectory(
		store,
		secrets.NewHasher(cfg.HashSecret),
		limiter,
		sessions,
		service.Settings{
			DefaultCountryCode: cfg.Directory.DefaultCountryCode,
			Roles:              cfg.Directory.Roles,
			Bootstrap:          bootstrap,
			LegacySeeds:        cfg.Directory.LegacySeedEmails,
			InviteTTL:          cfg.Directory.InviteTTL,
			OTPTTL:             cfg.Directory.OTPTTL,
			OTPResendCooldown:  cfg.Directory.OTPResendCooldown,
			OTPMaxAttempts:     cfg.Directory.OTPMaxAttempts,
			MFAChallengeTTL:    cfg.Directory.MFAChallengeTTL,
			RetentionYears:     cfg.Directory.RetentionYears,
		},
		log,
	).WithPreparationBackends(store.Backends()...)

	if err := directory.PrepareDirectory(ctx); err != nil {
		log.Warn().Err(err).Msg("directory preparation finished with errors")
	}

	e := api.NewRouter(api.RouterDeps{
		Directory:    directory,
		Mongo:        mongoDB,
		Redis:        rdb,
		FallbackPath: cfg.Directory.FallbackPath,
		JWTSecret:    cfg.JWTSecret,
		Logger:       log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("identity directory listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
