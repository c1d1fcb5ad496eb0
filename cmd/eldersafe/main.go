package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rxnen/eldersafe/common/database"
	"github.com/rxnen/eldersafe/common/logger"
	commonredis "github.com/rxnen/eldersafe/common/redis"
	"github.com/rxnen/eldersafe/internal/catalog"
	"github.com/rxnen/eldersafe/internal/client"
	"github.com/rxnen/eldersafe/internal/config"
	"github.com/rxnen/eldersafe/internal/evaluator"
	httpapi "github.com/rxnen/eldersafe/internal/http"
	"github.com/rxnen/eldersafe/internal/repository"
	"github.com/rxnen/eldersafe/internal/service"
	"github.com/rxnen/eldersafe/internal/store"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// eldersafe healthcheck：容器健康检查
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(healthcheck(cfg, log))
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("eldersafe exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	kv, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	profiles := repository.NewProfileRepository(kv, log)
	rooms := repository.NewRoomRepository(kv, log)
	svc := service.NewHazardService(evaluator.NewEngine(cat), profiles, rooms, cfg.TimelineLimit, log)

	// 启动时迁移旧数据；失败不阻止启动，读取时仍按旧版 answers 兜底
	if n, err := svc.MigrateRoomData(ctx); err != nil {
		log.Warn("Room data migration failed", zap.Error(err))
	} else {
		log.Info("Room data migration finished", zap.Int("migrated", n))
	}

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes()
	router.RegisterHazardRoutes(httpapi.NewHazardHandler(svc, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigCh:
		log.Info("Received signal", zap.String("signal", sig.String()))
	case serveErr = <-errCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown failed", zap.Error(err))
	}
	return serveErr
}

// openStore 按配置选择存储后端
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.KV, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		rdb, err := commonredis.Connect(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using redis storage", zap.String("addr", cfg.Redis.Addr), zap.String("prefix", cfg.Storage.KeyPrefix))
		return store.NewRedisKV(rdb, cfg.Storage.KeyPrefix), func() { _ = commonredis.Close(rdb) }, nil

	case config.BackendPostgres:
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		kv := store.NewPostgresKV(db, cfg.Storage.KeyPrefix)
		if err := kv.EnsureSchema(ctx); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
		log.Info("Using postgres storage", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Database))
		return kv, func() { closeDB(db, log) }, nil

	case config.BackendMemory:
		log.Warn("Using in-memory storage, data is lost on restart")
		return store.NewMemoryKV(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
}

func closeDB(db *sql.DB, log *zap.Logger) {
	if err := database.Close(db); err != nil {
		log.Warn("Failed to close database", zap.Error(err))
	}
}

func healthcheck(cfg *config.Config, log *zap.Logger) int {
	addr := cfg.HTTP.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.New("http://"+addr, log).Health(ctx); err != nil {
		log.Error("Health check failed", zap.Error(err))
		return 1
	}
	return 0
}
