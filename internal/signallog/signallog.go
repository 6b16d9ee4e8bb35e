package signallog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"crypto-pulse/internal/types"
)

var mu sync.Mutex

// Entry is one computed signal as appended to the daily JSONL file.
type Entry struct {
	Time       string  `json:"time"`
	Symbol     string  `json:"symbol"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Articles   int     `json:"articles"`
	PriceUSD   float64 `json:"price_usd,omitempty"`
	Change24h  float64 `json:"change_24h,omitempty"`
}

var dir = "logs"

// SetDir overrides the log directory (set once at startup).
func SetDir(d string) {
	mu.Lock()
	defer mu.Unlock()
	if d != "" {
		dir = d
	}
}

func logDir() string {
	if v := os.Getenv("SIGNAL_LOG_DIR"); v != "" {
		return v
	}
	return dir
}

func dailyFilepath(t time.Time) string {
	return filepath.Join(logDir(), "signals", t.UTC().Format("2006-01-02")+".txt")
}

// Append writes one signal record to today's file.
func Append(sig types.Signal, price *types.PricePoint) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e := Entry{
		Time:       now.Format("2006-01-02 15:04:05"),
		Symbol:     sig.Symbol,
		Action:     string(sig.Action),
		Confidence: sig.Confidence,
		Articles:   sig.TotalArticles,
	}
	if price != nil {
		e.PriceUSD = price.PriceUSD
		e.Change24h = price.PercentChange24
	}
	p := dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(e)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips signal files older than retentionDays and removes the
// originals. Best-effort: unreadable files are skipped.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}
		in, e3 := os.Open(p)
		if e3 != nil {
			return nil
		}
		defer in.Close()
		out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if e4 != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, e5 := io.Copy(gw, in); e5 == nil {
			_ = gw.Close()
			_ = out.Close()
			_ = os.Remove(p)
		} else {
			_ = gw.Close()
			_ = out.Close()
		}
		return nil
	})
}
