package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/diewo77/freelance-pro/internal/cache"
	"github.com/diewo77/freelance-pro/internal/config"
	"github.com/diewo77/freelance-pro/internal/db"
	"github.com/diewo77/freelance-pro/internal/events"
	"github.com/diewo77/freelance-pro/internal/handlers"
	"github.com/diewo77/freelance-pro/internal/ids"
	"github.com/diewo77/freelance-pro/internal/metrics"
	"github.com/diewo77/freelance-pro/internal/services"
	"github.com/diewo77/freelance-pro/internal/storage"
	"github.com/diewo77/freelance-pro/internal/storage/backend"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations for the sqlite/postgres storage and exit")

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()
	cfg := config.Load()
	logger := newLogger(cfg.App.Dev)
	slog.SetDefault(logger)

	if *migrateOnlyFlag {
		if err := migrate(cfg); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStorage, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Driver, err)
	}
	defer closeStorage()

	gen, err := ids.New(cfg.App.IDStrategy, cfg.App.SnowflakeNode)
	if err != nil {
		log.Fatalf("Invalid id strategy: %v", err)
	}
	var rec *metrics.Recorder
	if cfg.Metrics.Enabled {
		rec = metrics.New()
	}
	stores := services.NewStores(st, cache.Options{
		Bus:     events.NewBus(),
		IDs:     gen,
		Logger:  logger,
		Metrics: rec,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(withRecover(NewApp(cfg, stores, rec))),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		// event streams end with the process context
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server starting on port %s (storage=%s dev=%v)", cfg.Server.Port, st.Driver(), cfg.App.Dev)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		watchChanges(gctx, logger, stores)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Printf("Server error: %v", err)
	}
	log.Println("Server stopped gracefully")
}

func newLogger(dev bool) *slog.Logger {
	level := slog.LevelInfo
	if dev {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func migrate(cfg *config.Config) error {
	switch storage.Driver(cfg.Storage.Driver) {
	case storage.DriverSQLite, storage.DriverPostgres:
	default:
		return errors.New("migrations need STORAGE_DRIVER=sqlite or postgres")
	}
	conn, err := db.Open(cfg.Storage.Driver, cfg.Storage, cfg.App.Dev)
	if err != nil {
		return err
	}
	if sqlDB, err := conn.DB(); err == nil {
		defer sqlDB.Close()
	}
	return db.Migrate(conn)
}

// watchChanges logs every collection change, including those made by other
// processes sharing the storage, until ctx is done.
func watchChanges(ctx context.Context, logger *slog.Logger, stores *services.Stores) {
	for _, n := range []handlers.Notifier{stores.Clients, stores.Contracts, stores.Invoices, stores.Projects} {
		topic := n.Topic()
		stop := n.OnChanged(func() { logger.Debug("collection changed", "topic", topic) })
		defer stop()
	}
	<-ctx.Done()
}
