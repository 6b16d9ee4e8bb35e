package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"crypto-pulse/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id               BIGSERIAL PRIMARY KEY,
	title            TEXT NOT NULL,
	body             TEXT NOT NULL,
	summary          TEXT NOT NULL DEFAULT '',
	source_url       TEXT NOT NULL UNIQUE,
	source_name      TEXT NOT NULL,
	category         TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	sentiment_score  DOUBLE PRECISION NOT NULL DEFAULT 0,
	sentiment_label  TEXT NOT NULL DEFAULT '',
	published        BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_source_name ON articles (source_name);

CREATE TABLE IF NOT EXISTS prices (
	symbol             TEXT PRIMARY KEY,
	price_usd          DOUBLE PRECISION NOT NULL CHECK (price_usd >= 0),
	percent_change_24h DOUBLE PRECISION NOT NULL DEFAULT 0,
	last_updated       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS source_metrics (
	source_name    TEXT PRIMARY KEY,
	trust_score    DOUBLE PRECISION NOT NULL DEFAULT 0,
	article_count  INTEGER NOT NULL DEFAULT 0,
	accuracy_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	last_updated   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Postgres is the production Store, backed by sqlx over lib/pq.
type Postgres struct {
	db *sqlx.DB
}

// OpenPostgres connects using the given DSN, verifies the connection, and
// ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) FindArticleByURL(ctx context.Context, sourceURL string) (*types.Article, error) {
	var a types.Article
	err := p.db.GetContext(ctx, &a, `SELECT * FROM articles WHERE source_url = $1`, sourceURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (p *Postgres) InsertArticle(ctx context.Context, a *types.Article) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO articles (title, body, summary, source_url, source_name, category, created_at, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		a.Title, a.Body, a.Summary, a.SourceURL, a.SourceName, a.Category, a.CreatedAt, a.Published,
	).Scan(&a.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (p *Postgres) UpdateArticleSentiment(ctx context.Context, id int64, score float64, label types.SentimentLabel) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE articles SET sentiment_score = $1, sentiment_label = $2 WHERE id = $3`,
		score, label, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (p *Postgres) MarkArticlePublished(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `UPDATE articles SET published = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (p *Postgres) UnscoredArticles(ctx context.Context) ([]types.Article, error) {
	var out []types.Article
	err := p.db.SelectContext(ctx, &out,
		`SELECT * FROM articles WHERE sentiment_label = '' ORDER BY created_at DESC`)
	return out, err
}

func (p *Postgres) RecentArticles(ctx context.Context, cutoff time.Time, limit int) ([]types.Article, error) {
	q := `SELECT * FROM articles WHERE sentiment_label <> '' AND created_at >= $1 ORDER BY created_at DESC`
	var out []types.Article
	var err error
	if limit > 0 {
		err = p.db.SelectContext(ctx, &out, q+` LIMIT $2`, cutoff, limit)
	} else {
		err = p.db.SelectContext(ctx, &out, q, cutoff)
	}
	return out, err
}

func (p *Postgres) ArticlesMatching(ctx context.Context, keyword string, cutoff time.Time) ([]types.Article, error) {
	var out []types.Article
	pattern := "%" + keyword + "%"
	err := p.db.SelectContext(ctx, &out, `
		SELECT * FROM articles
		WHERE created_at >= $1 AND (title ILIKE $2 OR body ILIKE $2)
		ORDER BY created_at DESC`,
		cutoff, pattern)
	return out, err
}

func (p *Postgres) CountArticlesBySource(ctx context.Context, sourceName string) (int, error) {
	var n int
	err := p.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM articles WHERE source_name = $1`, sourceName)
	return n, err
}

func (p *Postgres) UpsertPrice(ctx context.Context, pt *types.PricePoint) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO prices (symbol, price_usd, percent_change_24h, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol) DO UPDATE SET
			price_usd = EXCLUDED.price_usd,
			percent_change_24h = EXCLUDED.percent_change_24h,
			last_updated = EXCLUDED.last_updated`,
		pt.Symbol, pt.PriceUSD, pt.PercentChange24, pt.LastUpdated)
	return err
}

func (p *Postgres) Price(ctx context.Context, symbol string) (*types.PricePoint, error) {
	var pt types.PricePoint
	err := p.db.GetContext(ctx, &pt, `SELECT * FROM prices WHERE symbol = $1`, symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

func (p *Postgres) Prices(ctx context.Context) ([]types.PricePoint, error) {
	var out []types.PricePoint
	err := p.db.SelectContext(ctx, &out, `SELECT * FROM prices ORDER BY symbol`)
	return out, err
}

func (p *Postgres) FindOrCreateSourceMetrics(ctx context.Context, sourceName string) (*types.SourceMetrics, error) {
	// Insert-if-absent, then read back. Safe under concurrent callers.
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO source_metrics (source_name) VALUES ($1)
		ON CONFLICT (source_name) DO NOTHING`, sourceName)
	if err != nil {
		return nil, err
	}
	var s types.SourceMetrics
	if err := p.db.GetContext(ctx, &s, `SELECT * FROM source_metrics WHERE source_name = $1`, sourceName); err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *Postgres) UpdateSourceArticleCount(ctx context.Context, sourceName string, count int) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE source_metrics SET article_count = $1, last_updated = now() WHERE source_name = $2`,
		count, sourceName)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (p *Postgres) SourceMetrics(ctx context.Context) ([]types.SourceMetrics, error) {
	var out []types.SourceMetrics
	err := p.db.SelectContext(ctx, &out, `SELECT * FROM source_metrics ORDER BY trust_score DESC`)
	return out, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
