package types

import "time"

// SentimentLabel classifies an article's tone toward the market.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// SignalAction is the per-symbol recommendation.
type SignalAction string

const (
	SignalBuy  SignalAction = "buy"
	SignalHold SignalAction = "hold"
	SignalSell SignalAction = "sell"
)

// Article is one ingested news item. SourceURL is the dedup key: at most one
// article per URL ever exists. Sentiment fields stay empty until the scorer
// has processed the article.
type Article struct {
	ID             int64          `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	Body           string         `db:"body" json:"body"`
	Summary        string         `db:"summary" json:"summary"`
	SourceURL      string         `db:"source_url" json:"source_url"`
	SourceName     string         `db:"source_name" json:"source_name"`
	Category       string         `db:"category" json:"category"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	SentimentScore float64        `db:"sentiment_score" json:"sentiment_score"`
	SentimentLabel SentimentLabel `db:"sentiment_label" json:"sentiment_label"`
	Published      bool           `db:"published" json:"published"`
}

// Scored reports whether the sentiment pass has run for this article.
func (a *Article) Scored() bool {
	return a.SentimentLabel != ""
}

// PricePoint is the latest quote for one tracked symbol, upserted on every
// price refresh cycle.
type PricePoint struct {
	Symbol          string    `db:"symbol" json:"symbol"`
	PriceUSD        float64   `db:"price_usd" json:"price_usd"`
	PercentChange24 float64   `db:"percent_change_24h" json:"percent_change_24h"`
	LastUpdated     time.Time `db:"last_updated" json:"last_updated"`
}

// SourceMetrics tracks per-source trust data. ArticleCount is a cached,
// periodically reconciled count; the persisted articles are the source of
// truth.
type SourceMetrics struct {
	SourceName    string    `db:"source_name" json:"source_name"`
	TrustScore    float64   `db:"trust_score" json:"trust_score"`
	ArticleCount  int       `db:"article_count" json:"article_count"`
	AccuracyScore float64   `db:"accuracy_score" json:"accuracy_score"`
	LastUpdated   time.Time `db:"last_updated" json:"last_updated"`
}

// Signal is the computed per-symbol recommendation. It is derived on demand
// from recent articles plus the current price point and is never persisted as
// a source of truth.
type Signal struct {
	Symbol        string       `json:"symbol"`
	Action        SignalAction `json:"signal"`
	Confidence    float64      `json:"confidence"`
	TotalArticles int          `json:"total_articles"`
	Positive      int          `json:"positive"`
	Neutral       int          `json:"neutral"`
	Negative      int          `json:"negative"`
}

// PriceHistory holds parallel (timestamp, value) series for one symbol, as
// returned by the market-chart upstream. Timestamps are unix milliseconds.
type PriceHistory struct {
	Symbol  string       `json:"symbol"`
	Prices  [][2]float64 `json:"prices"`
	Volumes [][2]float64 `json:"total_volumes"`
}
