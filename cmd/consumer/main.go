package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/nats-io/nats.go"

	"github.com/numline-systems/numline-ingest/internal/config"
	"github.com/numline-systems/numline-ingest/internal/consumer"
	"github.com/numline-systems/numline-ingest/internal/logging"
	"github.com/numline-systems/numline-ingest/internal/pipeline"
	"github.com/numline-systems/numline-ingest/internal/server"
	"github.com/numline-systems/numline-ingest/internal/store/opensearch"
	"github.com/numline-systems/numline-ingest/internal/store/postgres"
	"github.com/numline-systems/numline-ingest/internal/store/redisstore"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format).
		With(slog.String("service", "consumer"))
	slog.SetDefault(logger)

	slog.Info("Starting record consumer",
		slog.Int("port", cfg.Server.Port),
		slog.String("nats_url", cfg.NATS.URL),
		slog.String("opensearch_url", cfg.OpenSearch.URL),
	)

	// Run database migrations
	connString := cfg.Postgres.ConnString()
	m, err := migrate.New("file://migrations", connString)
	if err != nil {
		log.Fatalf("Failed to initialize migrations: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database migrations completed")

	// Connect sinks in write order: primary, audit, index
	primary, err := redisstore.New(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer primary.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	audit, err := postgres.New(ctx, connString)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer audit.Close()

	index, err := opensearch.New(opensearch.Config{
		URL:      cfg.OpenSearch.URL,
		Username: cfg.OpenSearch.Username,
		Password: cfg.OpenSearch.Password,
		Insecure: cfg.OpenSearch.Insecure,
		Index:    cfg.OpenSearch.Index,
	})
	if err != nil {
		log.Fatalf("Failed to connect to OpenSearch: %v", err)
	}

	// Assemble the pipeline
	fanout := pipeline.NewFanoutWriter(primary, audit, index)
	creationHandler := pipeline.NewCreationHandler(
		pipeline.NewValidator(),
		pipeline.NewDeduplicator(primary),
		fanout,
	)
	updateHandler := pipeline.NewUpdateHandler(fanout)

	// Connect to the feed
	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("numline-consumer"),
		nats.MaxReconnects(cfg.NATS.MaxReconnects),
		nats.ReconnectWait(cfg.NATS.ReconnectWait),
	)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Close()

	cons := consumer.New(nc, creationHandler, updateHandler, logger)
	if err := cons.Start(); err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}
	defer cons.Stop()
	slog.Info("Subscribed to record feed",
		slog.String("creation_subject", consumer.SubjectRecordsCreated),
		slog.String("update_subject", consumer.SubjectRecordsPostprocessing),
	)

	// Ops HTTP server (health, readiness, metrics)
	router := server.NewRouter(map[string]server.Pinger{
		"redis":      primary,
		"postgres":   audit,
		"opensearch": index,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Ops server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Let in-flight events finish before the deferred Close calls run.
	if err := nc.Drain(); err != nil {
		slog.Warn("NATS drain failed", slog.String("error", err.Error()))
	}

	slog.Info("Stopped")
}
