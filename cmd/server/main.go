package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warehouse-backend/internal/auth"
	"warehouse-backend/internal/bom"
	"warehouse-backend/internal/config"
	"warehouse-backend/internal/database"
	"warehouse-backend/internal/layout"
	"warehouse-backend/internal/ledger"
	"warehouse-backend/internal/locker"
	"warehouse-backend/internal/logger"
	"warehouse-backend/internal/metrics"
	"warehouse-backend/internal/repository"
	"warehouse-backend/internal/server"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		Development: !cfg.IsProduction(),
		Level:       cfg.LogLevel,
		Encoding:    cfg.LogEncoding,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	var lk locker.Locker = locker.NewKeyedMutex()
	if cfg.LockBackend == config.BackendRedis {
		lk = locker.NewRedisLocker(rdb, log)
	}
	var sessions auth.SessionStore = auth.NewMemorySessionStore()
	if cfg.SessionBackend == config.BackendRedis {
		sessions = auth.NewRedisSessionStore(rdb)
	}

	if err := seed(ctx, cfg, store, log); err != nil {
		return err
	}

	m := metrics.New()
	engine := ledger.NewEngine(store, lk, log, m)

	if bad, err := engine.CheckIntegrity(ctx); err != nil {
		log.Warn("startup integrity scan failed", zap.Error(err))
	} else if len(bad) > 0 {
		log.Warn("inventory has rows with negative stock", zap.Int("rows", len(bad)))
	}

	app := server.NewApp(server.Deps{
		Config:   cfg,
		Store:    store,
		Engine:   engine,
		Bom:      bom.NewService(store),
		Sessions: sessions,
		Metrics:  m,
		Logger:   log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("port", cfg.HTTPPort), zap.String("storage", cfg.StorageDriver))
		return app.Listen(":" + cfg.HTTPPort)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openStore(cfg *config.Config, log *zap.Logger) (repository.Store, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}

	db, err := database.Open(cfg.DatabaseDSN, log)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db, log); err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return repository.NewGormStore(db), closeFn, nil
}

func seed(ctx context.Context, cfg *config.Config, store repository.Store, log *zap.Logger) error {
	if err := auth.SeedUsers(ctx, store, cfg.SeedAdminPassword, cfg.SeedViewerPassword, log); err != nil {
		return err
	}
	if n, err := store.Users().Count(ctx); err == nil && n == 0 {
		log.Warn("no users exist, create one with warehousectl user create or set SEED_ADMIN_PASSWORD")
	}

	if !cfg.SeedDefaultLayout {
		return nil
	}
	zones, err := store.Layout().List(ctx)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	if len(zones) > 0 {
		return nil
	}
	return store.Atomic(ctx, func(tx repository.Store) error {
		for _, z := range layout.DefaultZones() {
			if err := tx.Layout().Create(ctx, &z); err != nil {
				return fmt.Errorf("seed layout: %w", err)
			}
		}
		log.Info("default warehouse layout seeded")
		return nil
	})
}
