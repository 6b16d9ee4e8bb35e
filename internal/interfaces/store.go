package interfaces

import (
	"context"
	"time"

	"crypto-pulse/internal/types"
)

// Store is the persistence boundary for the pipeline. All mutation goes
// through upsert / insert-if-absent operations so overlapping pipeline runs
// stay safe without external locking.
type Store interface {
	// FindArticleByURL returns the article with the given source URL, or
	// ErrNotFound.
	FindArticleByURL(ctx context.Context, sourceURL string) (*types.Article, error)
	// InsertArticle persists a new article. A duplicate source URL returns
	// ErrDuplicate and leaves the existing row untouched.
	InsertArticle(ctx context.Context, a *types.Article) error
	// UpdateArticleSentiment writes the scorer's result back to one article.
	UpdateArticleSentiment(ctx context.Context, id int64, score float64, label types.SentimentLabel) error
	// MarkArticlePublished flips the published flag after distribution.
	MarkArticlePublished(ctx context.Context, id int64) error
	// UnscoredArticles returns articles with no sentiment label yet.
	UnscoredArticles(ctx context.Context) ([]types.Article, error)
	// RecentArticles returns scored articles created after cutoff, newest
	// first, capped at limit (0 = no cap).
	RecentArticles(ctx context.Context, cutoff time.Time, limit int) ([]types.Article, error)
	// ArticlesMatching returns articles created after cutoff whose title or
	// body contains the keyword, case-insensitive.
	ArticlesMatching(ctx context.Context, keyword string, cutoff time.Time) ([]types.Article, error)
	// CountArticlesBySource returns the true persisted article count for one
	// source name.
	CountArticlesBySource(ctx context.Context, sourceName string) (int, error)

	// UpsertPrice inserts or replaces the price point for its symbol.
	UpsertPrice(ctx context.Context, p *types.PricePoint) error
	// Price returns the current price point for a symbol, or ErrNotFound.
	Price(ctx context.Context, symbol string) (*types.PricePoint, error)
	// Prices returns all stored price points.
	Prices(ctx context.Context) ([]types.PricePoint, error)

	// FindOrCreateSourceMetrics returns the metrics row for a source,
	// creating it with zeroed scores on first sight.
	FindOrCreateSourceMetrics(ctx context.Context, sourceName string) (*types.SourceMetrics, error)
	// UpdateSourceArticleCount rewrites the cached article count.
	UpdateSourceArticleCount(ctx context.Context, sourceName string, count int) error
	// SourceMetrics returns all source metric rows.
	SourceMetrics(ctx context.Context) ([]types.SourceMetrics, error)
}
