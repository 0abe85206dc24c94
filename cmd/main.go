package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Likith-Yadav/echo-us/internal/app/registry"
	"github.com/Likith-Yadav/echo-us/internal/app/server"
	"github.com/Likith-Yadav/echo-us/internal/app/worker"
	"github.com/Likith-Yadav/echo-us/internal/config"
	"github.com/Likith-Yadav/echo-us/internal/core/services"
	"github.com/Likith-Yadav/echo-us/internal/platform/logger"
	"github.com/Likith-Yadav/echo-us/internal/platform/telemetry"
	"github.com/Likith-Yadav/echo-us/internal/plugins/cloudinary"
	"github.com/Likith-Yadav/echo-us/internal/plugins/expo"
	"github.com/Likith-Yadav/echo-us/internal/plugins/postgres"
	redisPlugin "github.com/Likith-Yadav/echo-us/internal/plugins/redis"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.NewLogger(*cfg)
	log.Info("starting application", "service", cfg.Service.Name, "env", cfg.Service.Env)

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		log.Info("flushing telemetry...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	var pdb *sql.DB
	if pdb, err = postgres.New(ctx, *cfg.Postgres); err != nil {
		log.Error("postgres connection failed", "err", err)
		return
	}
	defer pdb.Close()
	log.Info("postgres connected")

	var rdb *redis.Client
	if rdb, err = redisPlugin.NewRedisClient(ctx, *cfg.Redis); err != nil {
		log.Error("redis connection failed", "url", cfg.Redis.URL)
		return
	}
	defer rdb.Close()
	log.Info("redis connected")

	// Adapters
	userRepo := postgres.NewUserRepo(pdb)
	msgRepo := postgres.NewMessageRepo(pdb)
	callRepo := postgres.NewCallRepo(pdb)
	pushQueue := redisPlugin.NewRedisPushQueue(rdb, log)
	limiter := redisPlugin.NewRedisRateLimiter(rdb)
	media := cloudinary.NewClient(*cfg.Cloudinary)
	notifier := expo.NewClient(*cfg.Expo)

	// Core services
	hub := registry.NewRegistry()
	txManager := postgres.NewTxManager(pdb)
	tokenSvc := services.NewTokenService(cfg.JWTSecret)
	userSvc := services.NewUserService(log, userRepo, msgRepo, media, txManager)
	sessSvc := services.NewSessionService(log, userRepo, tokenSvc, hub)
	msgSvc := services.NewMessageService(log, msgRepo, hub, pushQueue, cfg.Worker.PushStream)
	callSvc := services.NewCallService(log, callRepo, hub, pushQueue, cfg.Worker.PushStream)

	// Background push delivery
	pushWorker := worker.NewPushWorker(log, pushQueue, notifier, userRepo, cfg.Worker.PushStream, cfg.Worker.PushGroup)
	go func() {
		if err := pushWorker.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("push worker stopped", "err", err)
		}
	}()

	// Server
	srv := server.NewServer(*cfg.Service, log, userSvc, tokenSvc, sessSvc, msgSvc, callSvc, hub, limiter, media)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "err", err)
		}
	case err := <-errCh:
		log.Error("server exited", "err", err)
	}
}
