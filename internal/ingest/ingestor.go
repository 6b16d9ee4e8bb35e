package ingest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"crypto-pulse/internal/interfaces"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/store"
	"crypto-pulse/internal/types"
)

const summarySentences = 3

// Ingestor pulls articles from a fixed list of syndication feeds, extracts
// and cleans their bodies, and persists anything new. Re-running it against
// an unchanged upstream adds nothing: the source URL is the dedup key.
type Ingestor struct {
	store      interfaces.Store
	notifier   interfaces.Notifier
	feeds      []store.FeedConfig
	parser     *gofeed.Parser
	extractor  *Extractor
	maxPerFeed int
}

func NewIngestor(st interfaces.Store, notifier interfaces.Notifier, feeds []store.FeedConfig, maxPerFeed int, extractTimeout time.Duration) *Ingestor {
	parser := gofeed.NewParser()
	// A hung feed must not stall the whole scheduler loop.
	parser.Client = &http.Client{Timeout: extractTimeout}
	return &Ingestor{
		store:      st,
		notifier:   notifier,
		feeds:      feeds,
		parser:     parser,
		extractor:  NewExtractor(extractTimeout),
		maxPerFeed: maxPerFeed,
	}
}

// IngestAll walks every configured feed and returns the number of newly
// persisted articles. A failing source is logged and skipped; it never
// aborts ingestion of the remaining sources.
func (ing *Ingestor) IngestAll(ctx context.Context) (int, error) {
	logger.Info(ctx, "Starting article ingestion", "sources", len(ing.feeds))

	added := 0
	for _, feed := range ing.feeds {
		n, err := ing.ingestFeed(ctx, feed)
		if err != nil {
			logger.ErrorWithErr(ctx, "Feed ingestion failed", err, "source", feed.Name, "url", feed.URL)
			continue
		}
		added += n
	}

	logger.Info(ctx, "Article ingestion completed", "added", added)
	return added, nil
}

func (ing *Ingestor) ingestFeed(ctx context.Context, feed store.FeedConfig) (int, error) {
	parsed, err := ing.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return 0, err
	}

	items := parsed.Items
	if len(items) > ing.maxPerFeed {
		items = items[:ing.maxPerFeed]
	}

	added := 0
	for _, item := range items {
		ok, err := ing.ingestItem(ctx, feed, item)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to ingest entry", err, "source", feed.Name, "link", item.Link)
			continue
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// ingestItem persists one feed entry. Returns true only when a new article
// was stored.
func (ing *Ingestor) ingestItem(ctx context.Context, feed store.FeedConfig, item *gofeed.Item) (bool, error) {
	articleURL := strings.TrimSpace(item.Link)
	if articleURL == "" {
		return false, nil
	}

	// Cheap pre-check; the insert below still handles the race where a
	// concurrent run stores the same URL first.
	if _, err := ing.store.FindArticleByURL(ctx, articleURL); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	body := ing.extractor.Extract(ctx, articleURL)
	if body == "" {
		body = CleanHTML(firstNonEmpty(item.Content, item.Description))
	}
	if body == "" {
		logger.Debug(ctx, "Entry has no usable content, skipping", "link", articleURL)
		return false, nil
	}

	summary := CleanHTML(item.Description)
	if summary == "" {
		summary = Summarize(body, summarySentences)
	}

	createdAt := time.Now().UTC()
	if item.PublishedParsed != nil {
		createdAt = item.PublishedParsed.UTC()
	}

	title := CleanHTML(item.Title)
	if title == "" {
		title = "Untitled"
	}

	article := &types.Article{
		Title:      title,
		Body:       body,
		Summary:    summary,
		SourceURL:  articleURL,
		SourceName: feed.Name,
		Category:   Categorize(title + " " + body),
		CreatedAt:  createdAt,
	}

	if err := ing.store.InsertArticle(ctx, article); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}

	if _, err := ing.store.FindOrCreateSourceMetrics(ctx, feed.Name); err != nil {
		logger.Warn(ctx, "Failed to ensure source metrics", "source", feed.Name, "error", err)
	}

	ing.notify(ctx, article)

	logger.Info(ctx, "Stored new article", "source", feed.Name, "title", article.Title, "category", article.Category)
	return true, nil
}

// notify hands the article to the outbound notifier. Best-effort: failures
// are logged and swallowed, success flips the published flag.
func (ing *Ingestor) notify(ctx context.Context, article *types.Article) {
	if ing.notifier == nil {
		return
	}
	if err := ing.notifier.OnNewArticle(ctx, article); err != nil {
		logger.Debug(ctx, "Article notification skipped", "article_id", article.ID, "reason", err)
		return
	}
	if err := ing.store.MarkArticlePublished(ctx, article.ID); err != nil {
		logger.Warn(ctx, "Failed to mark article published", "article_id", article.ID, "error", err)
	}
}

// ReconcileSourceCounts rewrites each source's cached article count from the
// persisted articles. Idempotent and independent of the ingest path.
func (ing *Ingestor) ReconcileSourceCounts(ctx context.Context) error {
	for _, feed := range ing.feeds {
		if _, err := ing.store.FindOrCreateSourceMetrics(ctx, feed.Name); err != nil {
			logger.ErrorWithErr(ctx, "Failed to load source metrics", err, "source", feed.Name)
			continue
		}
		count, err := ing.store.CountArticlesBySource(ctx, feed.Name)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to count articles", err, "source", feed.Name)
			continue
		}
		if err := ing.store.UpdateSourceArticleCount(ctx, feed.Name, count); err != nil {
			logger.ErrorWithErr(ctx, "Failed to update source count", err, "source", feed.Name)
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
