// Command mockapi serves an in-memory copy of the upstream REST API, seeded
// with generated events, for local development of the dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/diewo77/eventdesk/internal/logger"
	"github.com/diewo77/eventdesk/internal/mockapi"
)

var (
	addrFlag     = flag.String("addr", ":5000", "Listen address")
	seedFlag     = flag.Uint64("seed", mockapi.DefaultSeed.Seed, "Fixture seed, 0 for random")
	eventsFlag   = flag.Int("events", mockapi.DefaultSeed.Events, "Number of generated events")
	emptyFlag    = flag.Bool("empty", false, "Start with the admin account only")
	tokenTTLFlag = flag.Duration("token-ttl", 2*time.Hour, "Lifetime of issued tokens")
	logLevelFlag = flag.String("log-level", "info", "Log level")
)

func main() {
	flag.Parse()
	log := logger.New(logger.Config{Level: *logLevelFlag, Format: "console"})
	defer func() { _ = log.Sync() }()

	api := mockapi.New(mockapi.WithTokenTTL(*tokenTTLFlag))
	if !*emptyFlag {
		opts := mockapi.DefaultSeed
		opts.Seed = *seedFlag
		opts.Events = *eventsFlag
		api.Seed(opts)
	}
	log.Info("fixtures ready", zap.Any("collections", api.Counts()))

	r := chi.NewRouter()
	r.Use(chimw.RequestID, logger.Middleware(log))
	r.Mount("/", api)

	srv := &http.Server{Addr: *addrFlag, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("mock API listening", zap.String("addr", *addrFlag))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("mock API failed", zap.Error(err))
	}
}
