package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"crypto-pulse/internal/api"
	"crypto-pulse/internal/ingest"
	"crypto-pulse/internal/interfaces"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/notify"
	"crypto-pulse/internal/prices"
	"crypto-pulse/internal/sentiment"
	"crypto-pulse/internal/signalengine"
	"crypto-pulse/internal/signallog"
	"crypto-pulse/internal/store"
	"crypto-pulse/internal/trace"
)

// initializeSystem initializes logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// initializeStore selects the persistence backend. POSTGRES requires
// DATABASE_URL; anything else gets the in-memory store.
func initializeStore(ctx context.Context, cfg *store.Config) (interfaces.Store, error) {
	if strings.ToUpper(cfg.StorageBackend) == "POSTGRES" {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return nil, fmt.Errorf("storage_backend POSTGRES requires DATABASE_URL")
		}
		pg, err := store.OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		logger.Info(ctx, "Using Postgres storage")
		return pg, nil
	}
	logger.Warn(ctx, "Using in-memory storage - data is lost on restart")
	return store.NewMemory(), nil
}

// initializePriceClient builds the rate-limited upstream client from config.
func initializePriceClient(cfg *store.Config) *api.Client {
	return api.NewClient(
		api.WithBaseURL(cfg.Upstream.PriceBaseURL),
		api.WithMinInterval(time.Duration(cfg.Upstream.MinRequestIntervalSec*float64(time.Second))),
		api.WithTimeout(time.Duration(cfg.Upstream.RequestTimeoutSec)*time.Second),
		api.WithMaxRetries(cfg.Upstream.MaxRetries),
		api.WithLogging(true),
	)
}

// initializeIngestor wires the feed reader to the store and the notifier.
func initializeIngestor(ctx context.Context, cfg *store.Config, st interfaces.Store) *ingest.Ingestor {
	notifier := notify.FromEnv(ctx, cfg.Notify.TelegramEnabled)
	return ingest.NewIngestor(st, notifier, cfg.Ingest.Feeds, cfg.Ingest.MaxPerFeed,
		time.Duration(cfg.Ingest.ExtractTimeout)*time.Second)
}

// initializeSignalLog points the signal log at its configured directory.
func initializeSignalLog(cfg *store.Config) {
	if cfg.SignalLog.Dir != "" {
		signallog.SetDir(cfg.SignalLog.Dir)
	}
}

func initializeEngine(st interfaces.Store) *signalengine.Engine {
	return signalengine.New(st)
}

func initializeScorer(st interfaces.Store) *sentiment.Scorer {
	return sentiment.NewScorer(st)
}

func initializeTracker(client *api.Client, st interfaces.Store) *prices.Tracker {
	return prices.NewTracker(client, st)
}
