package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crypto-pulse/internal/api"
	"crypto-pulse/internal/prices"
	"crypto-pulse/internal/signalengine"
	"crypto-pulse/internal/store"
	"crypto-pulse/internal/types"
)

func newTestServer(t *testing.T, st *store.Memory, upstreamHandler http.HandlerFunc) *Server {
	t.Helper()
	if upstreamHandler == nil {
		upstreamHandler = func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}
	}
	upstream := httptest.NewServer(upstreamHandler)
	t.Cleanup(upstream.Close)
	client := api.NewClient(api.WithBaseURL(upstream.URL), api.WithMinInterval(0), api.WithMaxRetries(0))
	tracker := prices.NewTracker(client, st)
	return New(st, tracker, signalengine.New(st), 3)
}

func doGet(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, store.NewMemory(), nil)

	rec, body := doGet(t, s, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
}

func TestPricesEndpoint(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	for _, p := range []types.PricePoint{
		{Symbol: "ETH", PriceUSD: 3000, PercentChange24: -1.0},
		{Symbol: "BTC", PriceUSD: 50000, PercentChange24: 2.0},
	} {
		cp := p
		if err := st.UpsertPrice(ctx, &cp); err != nil {
			t.Fatal(err)
		}
	}
	s := newTestServer(t, st, nil)

	rec, body := doGet(t, s, "/api/prices")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["count"].(float64) != 2 {
		t.Errorf("Expected count 2, got %v", body["count"])
	}
	list := body["prices"].([]any)
	first := list[0].(map[string]any)
	if first["symbol"] != "BTC" {
		t.Errorf("Expected symbol-sorted output starting with BTC, got %v", first["symbol"])
	}
}

func TestCryptoEndpoint(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	if err := st.UpsertPrice(ctx, &types.PricePoint{Symbol: "BTC", PriceUSD: 50000, PercentChange24: 3.0}); err != nil {
		t.Fatal(err)
	}
	a := &types.Article{
		Title:          "BTC partnership news",
		SourceURL:      "https://e.com/1",
		CreatedAt:      time.Now().UTC(),
		SentimentLabel: types.SentimentPositive,
	}
	if err := st.InsertArticle(ctx, a); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, st, nil)

	rec, body := doGet(t, s, "/api/crypto/btc")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["symbol"] != "BTC" {
		t.Errorf("Expected uppercased symbol, got %v", body["symbol"])
	}
	sig := body["signal"].(map[string]any)
	if sig["signal"] != "buy" {
		t.Errorf("Expected buy signal, got %v", sig["signal"])
	}
	price := body["price"].(map[string]any)
	if price["price_usd"].(float64) != 50000 {
		t.Errorf("Unexpected price payload: %v", price)
	}
}

func TestCryptoEndpointUnknownSymbol(t *testing.T) {
	s := newTestServer(t, store.NewMemory(), nil)

	rec, _ := doGet(t, s, "/api/crypto/NOPE")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown symbol, got %d", rec.Code)
	}
}

func TestCryptoEndpointWithoutPrice(t *testing.T) {
	s := newTestServer(t, store.NewMemory(), nil)

	rec, body := doGet(t, s, "/api/crypto/ETH")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 without a stored price, got %d", rec.Code)
	}
	if _, ok := body["price"]; ok {
		t.Error("Expected no price field when none is stored")
	}
}

func TestPriceHistoryEndpoint(t *testing.T) {
	st := store.NewMemory()
	s := newTestServer(t, st, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin/market_chart" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"prices": [[1700000000000, 49000.0]], "total_volumes": [[1700000000000, 1.0]]}`))
	})

	rec, body := doGet(t, s, "/api/price-history/BTC?days=7")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["days"].(float64) != 7 {
		t.Errorf("Expected days 7, got %v", body["days"])
	}

	rec, _ = doGet(t, s, "/api/price-history/BTC?days=zero")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for junk days, got %d", rec.Code)
	}

	rec, _ = doGet(t, s, "/api/price-history/NOPE")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown symbol, got %d", rec.Code)
	}
}

func TestArticlesEndpoint(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		a := &types.Article{
			Title:          "Story",
			SourceURL:      "https://e.com/" + string(rune('a'+i)),
			CreatedAt:      time.Now().UTC(),
			SentimentLabel: types.SentimentNeutral,
		}
		if err := st.InsertArticle(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	s := newTestServer(t, st, nil)

	rec, body := doGet(t, s, "/api/articles?limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["count"].(float64) != 2 {
		t.Errorf("Expected limit applied, got count %v", body["count"])
	}

	rec, _ = doGet(t, s, "/api/articles?limit=-1")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative limit, got %d", rec.Code)
	}
}

func TestSourcesEndpoint(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	if _, err := st.FindOrCreateSourceMetrics(ctx, "CoinDesk"); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, st, nil)

	rec, body := doGet(t, s, "/api/sources")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["count"].(float64) != 1 {
		t.Errorf("Expected 1 source, got %v", body["count"])
	}
}

func TestSearchEndpoint(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	if err := st.UpsertPrice(ctx, &types.PricePoint{Symbol: "BTC", PriceUSD: 50000, PercentChange24: 1.5}); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, st, nil)

	rec, body := doGet(t, s, "/api/search?q=bitcoin")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	results := body["results"].([]any)
	if len(results) == 0 {
		t.Fatal("Expected at least one result for bitcoin")
	}
	first := results[0].(map[string]any)
	if first["symbol"] != "BTC" {
		t.Errorf("Expected BTC, got %v", first["symbol"])
	}
	if first["price_usd"].(float64) != 50000 {
		t.Errorf("Expected stored price attached, got %v", first["price_usd"])
	}

	rec, _ = doGet(t, s, "/api/search")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing query, got %d", rec.Code)
	}
}
