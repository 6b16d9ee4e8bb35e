package ingest

import (
	"context"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"

	"crypto-pulse/internal/logger"
)

// Extractor pulls full article text from a URL. Readability does the heavy
// lifting; when it finds nothing usable a plain paragraph scrape has a second
// try before the caller falls back to the feed's inline description.
type Extractor struct {
	timeout time.Duration
}

func NewExtractor(timeout time.Duration) *Extractor {
	return &Extractor{timeout: timeout}
}

// Extract returns cleaned article text, or "" when nothing could be pulled.
// Extraction failures are logged, never propagated: a broken article page
// must not sink the rest of the batch.
func (e *Extractor) Extract(ctx context.Context, articleURL string) string {
	if text := e.extractReadable(ctx, articleURL); text != "" {
		return text
	}
	return e.scrapeParagraphs(ctx, articleURL)
}

func (e *Extractor) extractReadable(ctx context.Context, articleURL string) string {
	article, err := readability.FromURL(articleURL, e.timeout)
	if err != nil {
		logger.Debug(ctx, "Readability extraction failed", "url", articleURL, "error", err)
		return ""
	}
	return CleanHTML(article.TextContent)
}

// scrapeParagraphs collects paragraph text from common article containers.
func (e *Extractor) scrapeParagraphs(ctx context.Context, articleURL string) string {
	c := colly.NewCollector(colly.MaxDepth(1))
	c.SetRequestTimeout(e.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	})

	var paragraphs []string
	c.OnHTML("article, div.article-body, div.content-body, div.story-content, div.post-content", func(el *colly.HTMLElement) {
		el.ForEach("p", func(_ int, p *colly.HTMLElement) {
			text := strings.TrimSpace(p.Text)
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
	})

	if err := c.Visit(articleURL); err != nil {
		logger.Debug(ctx, "Paragraph scrape failed", "url", articleURL, "error", err)
		return ""
	}
	c.Wait()

	return CleanHTML(strings.Join(paragraphs, "\n\n"))
}
