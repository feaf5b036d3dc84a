package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courier/internal/app/registry"
	"courier/internal/app/server"
	"courier/internal/config"
	"courier/internal/core/domain"
	"courier/internal/core/services"
	"courier/internal/platform/logger"
	"courier/internal/platform/telemetry"
	badgerPlugin "courier/internal/plugins/badger"
	"courier/internal/plugins/identity"
	"courier/internal/plugins/postgres"
	redisPlugin "courier/internal/plugins/redis"
	s3Plugin "courier/internal/plugins/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(*cfg)
	log.Info("starting application")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Durable message store
	var store domain.MessageStore
	switch cfg.Store.Backend {
	case "badger":
		bs, err := badgerPlugin.Open(cfg.Badger.Path)
		if err != nil {
			log.Error("badger open failed", "path", cfg.Badger.Path, "err", err)
			return
		}
		defer bs.Close()
		store = bs
		log.Info("badger store opened", "path", cfg.Badger.Path)
	default:
		pdb, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			log.Error("postgres connection failed", "err", err)
			return
		}
		defer pdb.Close()
		if err := postgres.Migrate(ctx, pdb); err != nil {
			log.Error("postgres migrations failed", "err", err)
			return
		}
		store = postgres.NewMessageStore(pdb)
		log.Info("postgres connected")
	}

	rdb, err := redisPlugin.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "url", cfg.Redis.URL, "err", err)
		return
	}
	defer rdb.Close()
	log.Info("redis connected")

	uploader, err := s3Plugin.NewUploader(ctx, cfg.S3)
	if err != nil {
		log.Error("s3 uploader init failed", "err", err)
		return
	}

	// Adapters
	presence := redisPlugin.NewPresenceStore(rdb, cfg.Redis.HeartbeatTTL)
	provider := identity.NewClient(cfg.Identity)

	// Core services
	reg := registry.New()
	tokenSvc := services.NewTokenService(cfg.Token.Secret, cfg.Service.Name, cfg.Token.TTL)
	accountSvc := services.NewAccountService(log, provider, tokenSvc)
	routerSvc := services.NewRouter(log, store, reg)

	// Server
	srv := server.New(
		log,
		cfg.Service.Name,
		cfg.Service.Addr,
		accountSvc,
		tokenSvc,
		routerSvc,
		reg,
		uploader,
		presence,
		cfg.Redis.HeartbeatTTL,
	)
	if err := srv.Start(ctx); err != nil {
		log.Error("server stopped", "err", err)
	}
}
