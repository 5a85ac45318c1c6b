package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/eventdesk/auth"
	"github.com/diewo77/eventdesk/internal/config"
	"github.com/diewo77/eventdesk/internal/db"
	"github.com/diewo77/eventdesk/internal/logger"
	"github.com/diewo77/eventdesk/internal/metrics"
	"github.com/diewo77/eventdesk/internal/middleware"
	"github.com/diewo77/eventdesk/internal/policy"
	"github.com/diewo77/eventdesk/internal/store"
	"github.com/diewo77/eventdesk/internal/upstream"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

const janitorInterval = 15 * time.Minute

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	dbConn, err := db.Connect(cfg.Database, log, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(dbConn); err != nil {
			log.Warn("closing database", zap.Error(err))
		}
	}()

	// Handle migrate-only flag
	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations completed")
		return nil
	}

	// Run migrations on startup if enabled
	if cfg.App.Migrations {
		if err := db.Migrate(dbConn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations completed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions, err := sessionStore(ctx, cfg, dbConn)
	if err != nil {
		return err
	}
	go janitor(ctx, sessions, store.NewSnapshots(dbConn), cfg.Session.TTL, log)

	m := metrics.New()
	client, err := upstream.NewClient(
		upstream.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout},
		upstream.WithObserver(m.ObserveUpstream),
	)
	if err != nil {
		return err
	}
	manager := auth.NewManager(cfg.Session.Secret, sessions, cfg.Session.TTL, cfg.IsProduction())

	var limiter *middleware.LoginLimiter
	if cfg.Security.LoginRateLimit > 0 {
		limiter = middleware.NewLoginLimiter(cfg.Security.LoginRateLimit, cfg.Security.LoginRateBurst)
	}

	routerCfg := policy.NewRouterConfig(policy.Deps{
		DB:       dbConn,
		Client:   client,
		Sessions: manager,
		Limiter:  limiter,
		Metrics:  m,
	})
	app := NewApp(cfg, log, manager, m, routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("api", cfg.API.BaseURL),
			zap.String("session_store", cfg.Session.Store),
			zap.Bool("dev", cfg.App.Dev),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutdown signal received")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server stopped gracefully")
	return nil
}

// sessionStore picks the configured session backend. Redis expires its
// keys on its own; database sessions are swept by the janitor.
func sessionStore(ctx context.Context, cfg *config.Config, dbConn *gorm.DB) (store.Sessions, error) {
	if cfg.Session.Store != "redis" {
		return store.NewGormSessions(dbConn), nil
	}
	rdb, err := store.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		_ = rdb.Close()
	}()
	return store.NewRedisSessions(rdb), nil
}

// janitor periodically removes expired database sessions and the snapshots
// and drafts no live session can own any more.
func janitor(ctx context.Context, sessions store.Sessions, snapshots *store.Snapshots, ttl time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if gs, ok := sessions.(*store.GormSessions); ok {
			n, err := gs.DeleteExpired(ctx)
			if err != nil {
				log.Warn("session cleanup failed", zap.Error(err))
			} else if n > 0 {
				log.Debug("expired sessions removed", zap.Int64("count", n))
			}
			n, err = snapshots.PurgeOrphans(ctx)
			if err != nil {
				log.Warn("orphan cleanup failed", zap.Error(err))
			} else if n > 0 {
				log.Debug("orphaned snapshots and drafts removed", zap.Int64("count", n))
			}
		}

		n, err := snapshots.PurgeIdle(ctx, time.Now().Add(-ttl))
		if err != nil {
			log.Warn("idle cleanup failed", zap.Error(err))
		} else if n > 0 {
			log.Debug("idle snapshots and drafts removed", zap.Int64("count", n))
		}
	}
}
