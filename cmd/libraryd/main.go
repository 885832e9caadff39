package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benjikir/Book-Alchemy/internal/config"
	"github.com/benjikir/Book-Alchemy/internal/db"
	"github.com/benjikir/Book-Alchemy/internal/events"
	"github.com/benjikir/Book-Alchemy/internal/metrics"
	"github.com/benjikir/Book-Alchemy/internal/repo"
	"github.com/benjikir/Book-Alchemy/internal/web"
	"github.com/benjikir/Book-Alchemy/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize logger
	log := logger.NewLogger(cfg.ServiceName, cfg.LogLevel, cfg.Env)
	defer log.Sync()

	log.Info("Library service starting", zap.String("env", cfg.Env), zap.String("db_driver", cfg.DBDriver))

	// Connect to database
	database, err := db.Connect(db.Options{
		Driver: cfg.DBDriver,
		DSN:    cfg.DBDSN,
		LogSQL: cfg.DBLogSQL,
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	log.Info("Running database migrations...")
	if err := db.RunMigrations(database); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	if cfg.SeedData {
		seeded, err := db.Seed(context.Background(), database)
		if err != nil {
			log.Fatal("Failed to seed database", zap.Error(err))
		}
		if seeded {
			log.Info("Seeded empty database with sample authors and books")
		}
	}

	emitter := newEmitter(cfg, log)
	defer emitter.Close()

	libraryRepo := repo.NewLibraryRepository(database, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg, libraryRepo.GetStats, log)

	server := web.NewServer(libraryRepo, emitter, m, log)

	appServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      server.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	opsServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPOpsPort),
		Handler:      web.NewOpsHandler(database, emitter, reg, log),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range []*http.Server{appServer, opsServer} {
		srv := srv
		g.Go(func() error {
			log.Info("Starting HTTP server", zap.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	// Either a signal or a failed listener stops both servers.
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Join(
			appServer.Shutdown(shutdownCtx),
			opsServer.Shutdown(shutdownCtx),
		)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return
	}

	log.Info("Server stopped")
}

// newEmitter connects to RabbitMQ when configured. A broker that cannot be
// reached at startup disables events rather than the whole service.
func newEmitter(cfg *config.Config, log *zap.Logger) events.Emitter {
	if !cfg.EventsEnabled() {
		log.Info("RABBITMQ_URL not set, catalog events disabled")
		return events.NewNopEmitter(log)
	}

	log.Info("Connecting to RabbitMQ")
	publisher, err := events.NewPublisher(cfg.RabbitMQURL, cfg.ServiceName, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, catalog events disabled", zap.Error(err))
		return events.NewNopEmitter(log)
	}
	return publisher
}
