package server

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"crypto-pulse/internal/interfaces"
	"crypto-pulse/internal/prices"
	"crypto-pulse/internal/signalengine"
	"crypto-pulse/internal/store"
)

// Server exposes the read-only HTTP API over the store and the signal
// engine. All endpoints are GET; mutation happens only through the
// scheduler.
type Server struct {
	store        interfaces.Store
	tracker      *prices.Tracker
	engine       *signalengine.Engine
	lookbackDays int
}

func New(st interfaces.Store, tracker *prices.Tracker, engine *signalengine.Engine, lookbackDays int) *Server {
	return &Server{
		store:        st,
		tracker:      tracker,
		engine:       engine,
		lookbackDays: lookbackDays,
	}
}

// Router constructs a Gin engine with the read API registered. Recovery
// only; request logging goes through the app logger, not gin's.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)

	g := r.Group("/api")
	g.GET("/prices", s.handlePrices)
	g.GET("/crypto/:symbol", s.handleCrypto)
	g.GET("/price-history/:symbol", s.handlePriceHistory)
	g.GET("/articles", s.handleArticles)
	g.GET("/sources", s.handleSources)
	g.GET("/search", s.handleSearch)

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handlePrices returns every tracked price point, sorted by symbol.
func (s *Server) handlePrices(c *gin.Context) {
	points, err := s.store.Prices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Symbol < points[j].Symbol })
	c.JSON(http.StatusOK, gin.H{"count": len(points), "prices": points})
}

// handleCrypto bundles the current price point with a freshly computed
// signal for one symbol.
func (s *Server) handleCrypto(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	if !prices.Tracked(symbol) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol: " + symbol})
		return
	}

	ctx := c.Request.Context()
	sig, err := s.engine.Compute(ctx, symbol, s.lookbackDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"symbol": symbol, "signal": sig}
	point, err := s.store.Price(ctx, symbol)
	switch {
	case err == nil:
		resp["price"] = point
	case errors.Is(err, store.ErrNotFound):
		// no price yet, signal alone is still useful
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handlePriceHistory proxies the upstream market chart for one symbol.
// days defaults to 30 and is capped upstream.
func (s *Server) handlePriceHistory(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	days := 30
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = n
	}

	hist, err := s.tracker.History(c.Request.Context(), symbol, days)
	switch {
	case errors.Is(err, prices.ErrUnsupportedSymbol):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol: " + symbol})
	case errors.Is(err, prices.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"error": "no history for " + symbol})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"symbol": symbol, "days": days, "history": hist})
	}
}

// handleArticles returns recent scored articles, newest first. limit
// defaults to 50 and is clamped to 200.
func (s *Server) handleArticles(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if limit > 200 {
		limit = 200
	}

	cutoff := time.Now().AddDate(0, 0, -7)
	articles, err := s.store.RecentArticles(c.Request.Context(), cutoff, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(articles), "articles": articles})
}

func (s *Server) handleSources(c *gin.Context) {
	metrics, err := s.store.SourceMetrics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].SourceName < metrics[j].SourceName })
	c.JSON(http.StatusOK, gin.H{"count": len(metrics), "sources": metrics})
}

// handleSearch resolves a free-text query to tracked symbols. Matches on
// ticker prefix and on common asset names.
func (s *Server) handleSearch(c *gin.Context) {
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	seen := make(map[string]bool)
	var matches []string
	for _, sym := range prices.TrackedSymbols() {
		if strings.HasPrefix(strings.ToLower(sym), q) {
			seen[sym] = true
			matches = append(matches, sym)
		}
	}
	for name, sym := range prices.CommonNames {
		if strings.Contains(name, q) && !seen[sym] {
			seen[sym] = true
			matches = append(matches, sym)
		}
	}
	sort.Strings(matches)

	results := make([]gin.H, 0, len(matches))
	ctx := c.Request.Context()
	for _, sym := range matches {
		entry := gin.H{"symbol": sym}
		if point, err := s.store.Price(ctx, sym); err == nil {
			entry["price_usd"] = point.PriceUSD
			entry["percent_change_24h"] = point.PercentChange24
		}
		results = append(results, entry)
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "count": len(results), "results": results})
}
