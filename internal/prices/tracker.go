package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"crypto-pulse/internal/api"
	"crypto-pulse/internal/interfaces"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/types"
)

var (
	// ErrUnsupportedSymbol means the symbol is outside the tracked universe.
	ErrUnsupportedSymbol = errors.New("prices: unsupported symbol")
	// ErrNoData means the upstream returned an empty or unusable series.
	ErrNoData = errors.New("prices: no data")
	// ErrMalformedData means the upstream payload failed schema validation.
	ErrMalformedData = errors.New("prices: malformed upstream data")
)

// Tracker polls the market-data upstream for the tracked symbol universe and
// upserts the results into the store.
type Tracker struct {
	client *api.Client
	store  interfaces.Store
}

func NewTracker(client *api.Client, st interfaces.Store) *Tracker {
	return &Tracker{client: client, store: st}
}

// RefreshAll fetches current USD prices and 24h change for every tracked
// symbol in a single batched call and upserts one PricePoint per symbol
// found. Symbols missing from the response keep their previous point.
// Returns the number of symbols updated.
func (t *Tracker) RefreshAll(ctx context.Context) (int, error) {
	ids := make([]string, 0, len(trackedSymbols))
	for _, id := range trackedSymbols {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")

	body, err := t.client.GetJSON(ctx, "/simple/price", params)
	if err != nil {
		return 0, fmt.Errorf("fetch prices: %w", err)
	}

	var quotes map[string]struct {
		USD       *float64 `json:"usd"`
		USDChange float64  `json:"usd_24h_change"`
	}
	if err := json.Unmarshal(body, &quotes); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}

	now := time.Now().UTC()
	updated := 0
	for symbol, id := range trackedSymbols {
		q, ok := quotes[id]
		if !ok {
			continue
		}
		if q.USD == nil || *q.USD < 0 {
			logger.Warn(ctx, "Dropping invalid quote", "symbol", symbol, "id", id)
			continue
		}
		p := &types.PricePoint{
			Symbol:          symbol,
			PriceUSD:        *q.USD,
			PercentChange24: q.USDChange,
			LastUpdated:     now,
		}
		if err := t.store.UpsertPrice(ctx, p); err != nil {
			logger.ErrorWithErr(ctx, "Failed to upsert price", err, "symbol", symbol)
			continue
		}
		updated++
	}

	logger.Info(ctx, "Price refresh completed", "updated", updated, "tracked", len(trackedSymbols))
	return updated, nil
}

// History fetches the price and volume series for one symbol over the given
// number of days. Up to 30 days the series is hourly, beyond that daily.
func (t *Tracker) History(ctx context.Context, symbol string, days int) (types.PriceHistory, error) {
	id, ok := trackedSymbols[symbol]
	if !ok {
		return types.PriceHistory{}, fmt.Errorf("%w: %s", ErrUnsupportedSymbol, symbol)
	}
	if days <= 0 {
		days = 30
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", fmt.Sprintf("%d", days))
	if days > 30 {
		params.Set("interval", "daily")
	} else {
		params.Set("interval", "hourly")
	}

	body, err := t.client.GetJSON(ctx, "/coins/"+id+"/market_chart", params)
	if err != nil {
		return types.PriceHistory{}, fmt.Errorf("fetch history for %s: %w", symbol, err)
	}

	var raw struct {
		Prices       [][]json.Number `json:"prices"`
		TotalVolumes [][]json.Number `json:"total_volumes"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return types.PriceHistory{}, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}

	hist := types.PriceHistory{
		Symbol:  symbol,
		Prices:  validPairs(raw.Prices),
		Volumes: validPairs(raw.TotalVolumes),
	}
	if len(hist.Prices) == 0 {
		return types.PriceHistory{}, fmt.Errorf("%w: %s over %d days", ErrNoData, symbol, days)
	}
	return hist, nil
}

// validPairs keeps only well-formed two-element numeric points.
func validPairs(points [][]json.Number) [][2]float64 {
	out := make([][2]float64, 0, len(points))
	for _, p := range points {
		if len(p) != 2 {
			continue
		}
		ts, err1 := p[0].Float64()
		v, err2 := p[1].Float64()
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, [2]float64{ts, v})
	}
	return out
}
