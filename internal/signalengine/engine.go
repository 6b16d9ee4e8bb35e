package signalengine

import (
	"context"
	"errors"
	"math"
	"time"

	"crypto-pulse/internal/interfaces"
	"crypto-pulse/internal/store"
	"crypto-pulse/internal/types"
)

// Decision thresholds. These were tuned empirically in production; treat them
// as fixed contract values, not knobs.
const (
	buyScoreThreshold   = 0.4
	buyChangeThreshold  = 2.0
	sellScoreThreshold  = -0.4
	sellChangeThreshold = -6.0

	positiveWeight = 1.2
	neutralWeight  = 0.2
	negativeWeight = 0.8

	priceWeightStep = 0.5
	confidenceBase  = 50.0
	confidenceScale = 40.0
	confidenceMin   = 5.0
	confidenceMax   = 95.0
)

// Engine fuses recent article sentiment with price momentum into a buy, hold,
// or sell recommendation. Compute is a pure function of the stored articles
// and price point: identical inputs always reproduce the same signal.
type Engine struct {
	store interfaces.Store
}

func New(st interfaces.Store) *Engine {
	return &Engine{store: st}
}

// Compute builds the signal for one symbol over the trailing lookback window.
// Articles mention the symbol if its ticker appears in the title or body,
// case-insensitive. A missing price point degrades to sentiment-only scoring
// rather than failing.
func (e *Engine) Compute(ctx context.Context, symbol string, lookbackDays int) (types.Signal, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -lookbackDays)
	articles, err := e.store.ArticlesMatching(ctx, symbol, cutoff)
	if err != nil {
		return types.Signal{}, err
	}

	var price *types.PricePoint
	price, err = e.store.Price(ctx, symbol)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return types.Signal{}, err
		}
		price = nil
	}

	sig := types.Signal{Symbol: symbol, Action: types.SignalHold, Confidence: confidenceBase}
	for _, a := range articles {
		switch a.SentimentLabel {
		case types.SentimentPositive:
			sig.Positive++
		case types.SentimentNegative:
			sig.Negative++
		case types.SentimentNeutral:
			sig.Neutral++
		default:
			continue // unscored articles carry no signal
		}
		sig.TotalArticles++
	}

	if sig.TotalArticles == 0 {
		return sig, nil
	}

	weighted := (float64(sig.Positive)*positiveWeight +
		float64(sig.Neutral)*neutralWeight -
		float64(sig.Negative)*negativeWeight) / float64(sig.TotalArticles)

	var change, priceWeight, changeBoost float64
	if price != nil {
		change = price.PercentChange24
		switch {
		case change > buyChangeThreshold:
			priceWeight = priceWeightStep
		case change < -buyChangeThreshold:
			priceWeight = -priceWeightStep
		}
		changeBoost = math.Min(10.0, math.Abs(change))
	}

	totalScore := weighted + priceWeight

	sig.Confidence = clamp(confidenceBase+totalScore*confidenceScale+changeBoost, confidenceMin, confidenceMax)

	// Buy needs sentiment and price to confirm each other; sell triggers on
	// either strong negative sentiment or a sharp drop alone.
	switch {
	case totalScore > buyScoreThreshold && price != nil && change > buyChangeThreshold:
		sig.Action = types.SignalBuy
	case totalScore < sellScoreThreshold || (price != nil && change < sellChangeThreshold):
		sig.Action = types.SignalSell
	default:
		sig.Action = types.SignalHold
	}

	return sig, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
