package scheduler

import (
	"context"
	"time"

	"crypto-pulse/internal/ingest"
	"crypto-pulse/internal/interfaces"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/prices"
	"crypto-pulse/internal/sentiment"
	"crypto-pulse/internal/signalengine"
	"crypto-pulse/internal/signallog"
	"crypto-pulse/internal/trace"
	"crypto-pulse/internal/types"
)

// Scheduler drives the two periodic tasks: a fast price refresh and the full
// ingest pipeline. Tasks run cooperatively on independent timers; every stage
// failure is contained so the next scheduled run always happens. Overlapping
// runs are harmless because all store mutation is upsert- or
// insert-if-absent-shaped.
type Scheduler struct {
	tracker  *prices.Tracker
	ingestor *ingest.Ingestor
	scorer   *sentiment.Scorer
	engine   *signalengine.Engine
	store    interfaces.Store

	priceInterval    time.Duration
	pipelineInterval time.Duration
	lookbackDays     int
	retentionDays    int
}

func New(tracker *prices.Tracker, ingestor *ingest.Ingestor, scorer *sentiment.Scorer, engine *signalengine.Engine, st interfaces.Store, priceInterval, pipelineInterval time.Duration, lookbackDays, retentionDays int) *Scheduler {
	return &Scheduler{
		tracker:          tracker,
		ingestor:         ingestor,
		scorer:           scorer,
		engine:           engine,
		store:            st,
		priceInterval:    priceInterval,
		pipelineInterval: pipelineInterval,
		lookbackDays:     lookbackDays,
		retentionDays:    retentionDays,
	}
}

// Run executes one cold-start pipeline pass, then services both timers until
// the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	logger.Info(ctx, "Scheduler started",
		"price_interval", s.priceInterval.String(),
		"pipeline_interval", s.pipelineInterval.String())

	s.RunPipeline(ctx)

	priceTick := time.NewTicker(s.priceInterval)
	defer priceTick.Stop()
	pipelineTick := time.NewTicker(s.pipelineInterval)
	defer pipelineTick.Stop()

	for {
		select {
		case <-priceTick.C:
			s.refreshPrices(ctx)
		case <-pipelineTick.C:
			s.RunPipeline(ctx)
		case <-ctx.Done():
			logger.Info(ctx, "Scheduler stopped")
			return
		}
	}
}

// refreshPrices is the fast task: one batched price refresh, failures logged
// and dropped.
func (s *Scheduler) refreshPrices(ctx context.Context) {
	if _, err := s.tracker.RefreshAll(ctx); err != nil {
		logger.Stage(ctx, "price_refresh", err)
	}
}

// RunPipeline executes one full pass: price refresh, ingest, sentiment
// scoring, source-count reconciliation, signal computation. Stages run
// strictly in that order; each failure is logged and the next stage still
// gets its attempt. Scoring is skipped when ingestion found nothing new.
func (s *Scheduler) RunPipeline(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "pipeline-run")
	defer span.End()

	logger.Info(ctx, "Starting pipeline run")
	start := time.Now()

	if _, err := s.tracker.RefreshAll(ctx); err != nil {
		logger.Stage(ctx, "price_refresh", err)
	}

	added, err := s.ingestor.IngestAll(ctx)
	if err != nil {
		logger.Stage(ctx, "ingest", err)
	}

	if added > 0 {
		if _, err := s.scorer.ProcessPending(ctx); err != nil {
			logger.Stage(ctx, "sentiment", err)
		}
	} else {
		logger.Debug(ctx, "No new articles, skipping sentiment pass")
	}

	if err := s.ingestor.ReconcileSourceCounts(ctx); err != nil {
		logger.Stage(ctx, "reconcile", err)
	}

	s.logSignals(ctx)

	if err := signallog.CompressOlder(s.retentionDays); err != nil {
		logger.Warn(ctx, "Signal log compression failed", "error", err)
	}

	logger.Info(ctx, "Pipeline run completed", "new_articles", added, "duration_ms", time.Since(start).Milliseconds())
}

// logSignals recomputes the signal for every symbol with a price point and
// appends the result to the signal log. Buy and sell decisions also go to
// the structured log.
func (s *Scheduler) logSignals(ctx context.Context) {
	points, err := s.store.Prices(ctx)
	if err != nil {
		logger.Stage(ctx, "signals", err)
		return
	}
	for i := range points {
		p := &points[i]
		sig, err := s.engine.Compute(ctx, p.Symbol, s.lookbackDays)
		if err != nil {
			logger.ErrorWithErr(ctx, "Signal computation failed", err, "symbol", p.Symbol)
			continue
		}
		if err := signallog.Append(sig, p); err != nil {
			logger.Warn(ctx, "Failed to append signal log", "symbol", p.Symbol, "error", err)
		}
		if sig.Action != types.SignalHold {
			logger.Signal(ctx, sig.Symbol, string(sig.Action), sig.Confidence, sig.TotalArticles)
		}
	}
}
