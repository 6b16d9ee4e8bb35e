package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"crypto-pulse/internal/types"
)

// Memory is an in-process Store. It backs tests and the MEMORY storage
// backend; all operations take the same upsert/insert-if-absent shape as the
// Postgres implementation so the two are interchangeable.
type Memory struct {
	mu       sync.RWMutex
	nextID   int64
	articles map[string]*types.Article // keyed by source URL
	prices   map[string]*types.PricePoint
	sources  map[string]*types.SourceMetrics
}

func NewMemory() *Memory {
	return &Memory{
		nextID:   1,
		articles: make(map[string]*types.Article),
		prices:   make(map[string]*types.PricePoint),
		sources:  make(map[string]*types.SourceMetrics),
	}
}

func (m *Memory) FindArticleByURL(_ context.Context, sourceURL string) (*types.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.articles[sourceURL]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) InsertArticle(_ context.Context, a *types.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.articles[a.SourceURL]; exists {
		return ErrDuplicate
	}
	a.ID = m.nextID
	m.nextID++
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	cp := *a
	m.articles[a.SourceURL] = &cp
	return nil
}

func (m *Memory) UpdateArticleSentiment(_ context.Context, id int64, score float64, label types.SentimentLabel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ID == id {
			a.SentimentScore = score
			a.SentimentLabel = label
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) MarkArticlePublished(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ID == id {
			a.Published = true
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) UnscoredArticles(_ context.Context) ([]types.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.Article
	for _, a := range m.articles {
		if !a.Scored() {
			out = append(out, *a)
		}
	}
	sortByCreatedDesc(out)
	return out, nil
}

func (m *Memory) RecentArticles(_ context.Context, cutoff time.Time, limit int) ([]types.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.Article
	for _, a := range m.articles {
		if a.Scored() && !a.CreatedAt.Before(cutoff) {
			out = append(out, *a)
		}
	}
	sortByCreatedDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) ArticlesMatching(_ context.Context, keyword string, cutoff time.Time) ([]types.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kw := strings.ToLower(keyword)
	var out []types.Article
	for _, a := range m.articles {
		if a.CreatedAt.Before(cutoff) {
			continue
		}
		if strings.Contains(strings.ToLower(a.Title), kw) || strings.Contains(strings.ToLower(a.Body), kw) {
			out = append(out, *a)
		}
	}
	sortByCreatedDesc(out)
	return out, nil
}

func (m *Memory) CountArticlesBySource(_ context.Context, sourceName string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, a := range m.articles {
		if a.SourceName == sourceName {
			n++
		}
	}
	return n, nil
}

func (m *Memory) UpsertPrice(_ context.Context, p *types.PricePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.prices[p.Symbol] = &cp
	return nil
}

func (m *Memory) Price(_ context.Context, symbol string) (*types.PricePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prices[symbol]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) Prices(_ context.Context) ([]types.PricePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.PricePoint, 0, len(m.prices))
	for _, p := range m.prices {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *Memory) FindOrCreateSourceMetrics(_ context.Context, sourceName string) (*types.SourceMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sources[sourceName]
	if !ok {
		s = &types.SourceMetrics{
			SourceName:  sourceName,
			LastUpdated: time.Now().UTC(),
		}
		m.sources[sourceName] = s
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) UpdateSourceArticleCount(_ context.Context, sourceName string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sources[sourceName]
	if !ok {
		return ErrNotFound
	}
	s.ArticleCount = count
	s.LastUpdated = time.Now().UTC()
	return nil
}

func (m *Memory) SourceMetrics(_ context.Context) ([]types.SourceMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.SourceMetrics, 0, len(m.sources))
	for _, s := range m.sources {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrustScore > out[j].TrustScore })
	return out, nil
}

func sortByCreatedDesc(articles []types.Article) {
	sort.Slice(articles, func(i, j int) bool {
		return articles[i].CreatedAt.After(articles[j].CreatedAt)
	})
}
