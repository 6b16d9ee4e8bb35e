package scheduler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"crypto-pulse/internal/api"
	"crypto-pulse/internal/ingest"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/prices"
	"crypto-pulse/internal/sentiment"
	"crypto-pulse/internal/signalengine"
	"crypto-pulse/internal/signallog"
	"crypto-pulse/internal/store"
	"crypto-pulse/internal/types"
)

func TestMain(m *testing.M) {
	_ = logger.InitWithConfig(logger.LogConfig{Level: "ERROR", Format: "text"})
	os.Exit(m.Run())
}

// newUpstream serves both the price API and a one-item news feed so a whole
// pipeline pass runs offline.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/simple/price", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin": {"usd": 50000, "usd_24h_change": 5.0}}`))
	})
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Feed</title><link>%s</link><description>t</description>
<item>
<title>BTC surge continues after partnership news</title>
<link>%s/story</link>
<description>BTC prices surge after a major partnership announcement drives adoption.</description>
</item>
</channel></rss>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/story", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><article>
<p>BTC prices surge after a major partnership announcement drives institutional adoption.</p>
<p>Analysts call the rally a breakout for the whole market this quarter.</p>
</article></body></html>`)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestScheduler(t *testing.T, st *store.Memory, feedURL, priceURL string) *Scheduler {
	t.Helper()
	client := api.NewClient(api.WithBaseURL(priceURL), api.WithMinInterval(0), api.WithMaxRetries(0))
	tracker := prices.NewTracker(client, st)
	feeds := []store.FeedConfig{{Name: "Feed", URL: feedURL}}
	ingestor := ingest.NewIngestor(st, nil, feeds, 10, 5*time.Second)
	scorer := sentiment.NewScorer(st)
	engine := signalengine.New(st)
	return New(tracker, ingestor, scorer, engine, st, time.Minute, time.Minute, 3, 14)
}

func TestRunPipelineEndToEnd(t *testing.T) {
	t.Setenv("SIGNAL_LOG_DIR", t.TempDir())
	srv := newUpstream(t)
	st := store.NewMemory()
	sched := newTestScheduler(t, st, srv.URL+"/feed", srv.URL)
	ctx := context.Background()

	sched.RunPipeline(ctx)

	// price refreshed
	p, err := st.Price(ctx, "BTC")
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if p.PriceUSD != 50000 || p.PercentChange24 != 5.0 {
		t.Errorf("Unexpected price point: %+v", p)
	}

	// article ingested and scored in the same pass
	a, err := st.FindArticleByURL(ctx, srv.URL+"/story")
	if err != nil {
		t.Fatalf("FindArticleByURL failed: %v", err)
	}
	if !a.Scored() {
		t.Error("Expected article scored by the pipeline")
	}
	if a.SentimentLabel != types.SentimentPositive {
		t.Errorf("Expected positive label, got %s", a.SentimentLabel)
	}

	// positive sentiment plus a +5% move yields a buy
	sig, err := signalengine.New(st).Compute(ctx, "BTC", 3)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if sig.Action != types.SignalBuy {
		t.Errorf("Expected buy, got %s", sig.Action)
	}

	// signal appended to the daily log
	path := filepath.Join(os.Getenv("SIGNAL_LOG_DIR"), "signals", time.Now().UTC().Format("2006-01-02")+".txt")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("expected signal log file: %v", err)
	}
	defer f.Close()

	found := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e signallog.Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad log line: %v", err)
		}
		if e.Symbol == "BTC" && e.Action == "buy" {
			found = true
		}
	}
	if !found {
		t.Error("Expected a logged BTC buy signal")
	}
}

func TestRunPipelineIsolatesFailingStages(t *testing.T) {
	t.Setenv("SIGNAL_LOG_DIR", t.TempDir())
	srv := newUpstream(t)
	st := store.NewMemory()
	// feed URL points nowhere, price upstream is healthy
	sched := newTestScheduler(t, st, srv.URL+"/missing-feed", srv.URL)
	ctx := context.Background()

	sched.RunPipeline(ctx)

	if _, err := st.Price(ctx, "BTC"); err != nil {
		t.Errorf("Expected price refresh to survive feed failure: %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Setenv("SIGNAL_LOG_DIR", t.TempDir())
	srv := newUpstream(t)
	st := store.NewMemory()
	sched := newTestScheduler(t, st, srv.URL+"/feed", srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	// let the cold-start pass finish, then cancel
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
