package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/scheduler"
	"crypto-pulse/internal/server"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	must(initializeSystem())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	must(err)

	st, err := initializeStore(ctx, cfg)
	must(err)

	initializeSignalLog(cfg)

	client := initializePriceClient(cfg)
	tracker := initializeTracker(client, st)
	ingestor := initializeIngestor(ctx, cfg, st)
	scorer := initializeScorer(st)
	engine := initializeEngine(st)

	sched := scheduler.New(tracker, ingestor, scorer, engine, st,
		time.Duration(cfg.Scheduler.PricePollMinutes)*time.Minute,
		time.Duration(cfg.Scheduler.PipelineMinutes)*time.Minute,
		cfg.Signals.LookbackDays,
		cfg.SignalLog.RetentionDays)
	go sched.Run(ctx)

	srv := server.New(st, tracker, engine, cfg.Signals.LookbackDays)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: srv.Router(),
	}

	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithErr(ctx, "HTTP server failed", err)
			cancel()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigc:
		logger.Info(ctx, "Shutting down...")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(context.Background(), "HTTP shutdown error", "error", err)
	}
}
