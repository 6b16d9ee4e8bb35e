package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Config struct {
	HTTPPort       int    `yaml:"http_port"`
	StorageBackend string `yaml:"storage_backend"` // POSTGRES or MEMORY

	Scheduler struct {
		PricePollMinutes int `yaml:"price_poll_minutes"`
		PipelineMinutes  int `yaml:"pipeline_minutes"`
	} `yaml:"scheduler"`

	Upstream struct {
		PriceBaseURL          string  `yaml:"price_base_url"`
		MinRequestIntervalSec float64 `yaml:"min_request_interval_sec"`
		RequestTimeoutSec     int     `yaml:"request_timeout_sec"`
		MaxRetries            int     `yaml:"max_retries"`
	} `yaml:"upstream"`

	Ingest struct {
		Feeds          []FeedConfig `yaml:"feeds"`
		MaxPerFeed     int          `yaml:"max_per_feed"`
		ExtractTimeout int          `yaml:"extract_timeout_sec"`
	} `yaml:"ingest"`

	Signals struct {
		LookbackDays int `yaml:"lookback_days"`
	} `yaml:"signals"`

	SignalLog struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"signal_log"`

	Notify struct {
		TelegramEnabled bool `yaml:"telegram_enabled"`
	} `yaml:"notify"`
}

func (c *Config) Validate() error {
	if c.StorageBackend != "POSTGRES" && c.StorageBackend != "MEMORY" {
		return fmt.Errorf("invalid storage_backend '%s': must be 'POSTGRES' or 'MEMORY'", c.StorageBackend)
	}
	if len(c.Ingest.Feeds) == 0 {
		return errors.New("ingest.feeds cannot be empty")
	}
	for _, f := range c.Ingest.Feeds {
		if f.Name == "" || f.URL == "" {
			return fmt.Errorf("feed entries need both name and url, got %+v", f)
		}
	}
	if c.Signals.LookbackDays != 3 && c.Signals.LookbackDays != 7 {
		return fmt.Errorf("signals.lookback_days must be 3 or 7, got %d", c.Signals.LookbackDays)
	}
	if c.Upstream.MinRequestIntervalSec < 0 {
		return fmt.Errorf("upstream.min_request_interval_sec cannot be negative, got %.2f", c.Upstream.MinRequestIntervalSec)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.HTTPPort == 0 {
		c.HTTPPort = 5000
	}
	if c.StorageBackend == "" {
		c.StorageBackend = "POSTGRES"
	}
	if c.Scheduler.PricePollMinutes == 0 {
		c.Scheduler.PricePollMinutes = 5
	}
	if c.Scheduler.PipelineMinutes == 0 {
		c.Scheduler.PipelineMinutes = 15
	}
	if c.Upstream.PriceBaseURL == "" {
		c.Upstream.PriceBaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.Upstream.MinRequestIntervalSec == 0 {
		c.Upstream.MinRequestIntervalSec = 1.2
	}
	if c.Upstream.RequestTimeoutSec == 0 {
		c.Upstream.RequestTimeoutSec = 10
	}
	if c.Upstream.MaxRetries == 0 {
		c.Upstream.MaxRetries = 3
	}
	if c.Ingest.MaxPerFeed == 0 {
		c.Ingest.MaxPerFeed = 10
	}
	if c.Ingest.ExtractTimeout == 0 {
		c.Ingest.ExtractTimeout = 15
	}
	if c.Signals.LookbackDays == 0 {
		c.Signals.LookbackDays = 3
	}
	if c.SignalLog.Dir == "" {
		c.SignalLog.Dir = "logs"
	}
	if c.SignalLog.RetentionDays == 0 {
		c.SignalLog.RetentionDays = 14
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
