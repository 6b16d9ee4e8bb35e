package interfaces

import (
	"context"

	"crypto-pulse/internal/types"
)

// Notifier receives newly ingested articles. Implementations are best-effort:
// a notification failure never fails the ingest that produced the article.
type Notifier interface {
	OnNewArticle(ctx context.Context, a *types.Article) error
}
