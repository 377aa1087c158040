package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Keys are optional; Load fills
// defaults before Validate runs. A validation failure is fatal at startup.
type Config struct {
	Mode string `yaml:"mode"` // DRY_RUN or LIVE

	EventDBPath       string `yaml:"event_db_path"`
	EventDBBackupPath string `yaml:"event_db_backup_path"`

	Threshold struct {
		Price  float64 `yaml:"price"`
		Volume float64 `yaml:"volume"`
		ATR    float64 `yaml:"atr"`
	} `yaml:"threshold"`

	News struct {
		ConfidenceCutoff float64 `yaml:"confidence_cutoff"`
		MaxArticles      int     `yaml:"max_articles"`
		MaxEntities      int     `yaml:"max_entities"`
	} `yaml:"news"`

	// Empty lists fall back to the analyzer's built-in vocabularies.
	PositiveWords []string `yaml:"positive_words"`
	NegativeWords []string `yaml:"negative_words"`

	Universe []string `yaml:"universe"`

	Prices struct {
		Source       string         `yaml:"source"` // YAHOO, KITE, or STATIC
		LookbackDays int            `yaml:"lookback_days"`
		Exchange     string         `yaml:"exchange"`
		Instruments  map[string]int `yaml:"instruments"` // symbol -> kite instrument token
	} `yaml:"prices"`

	Recorder struct {
		SQLitePath string `yaml:"sqlite_path"` // empty disables run recording
	} `yaml:"recorder"`

	Schedule struct {
		BatchCron  string `yaml:"batch_cron"`
		BackupCron string `yaml:"backup_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
}

func LoadConfig(path string) (*Config, error) {
	var c Config

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.EventDBPath == "" {
		c.EventDBPath = "./events.db"
	}
	if c.EventDBBackupPath == "" {
		c.EventDBBackupPath = "./events.db.bak"
	}
	if c.Threshold.Price == 0 {
		c.Threshold.Price = 0.05
	}
	if c.Threshold.Volume == 0 {
		c.Threshold.Volume = 3.0
	}
	if c.Threshold.ATR == 0 {
		c.Threshold.ATR = 2.0
	}
	if c.News.ConfidenceCutoff == 0 {
		c.News.ConfidenceCutoff = 0.6
	}
	if c.News.MaxArticles == 0 {
		c.News.MaxArticles = 15
	}
	if len(c.Universe) == 0 {
		c.Universe = []string{"RELIANCE", "TCS", "INFY", "HDFCBANK"}
	}
	if c.Prices.Source == "" {
		c.Prices.Source = "STATIC"
	}
	if c.Prices.LookbackDays == 0 {
		c.Prices.LookbackDays = 250
	}
	if c.Schedule.BatchCron == "" {
		c.Schedule.BatchCron = "0 30 18 * * 1-5" // weekday evenings after close
	}
	if c.Schedule.BackupCron == "" {
		c.Schedule.BackupCron = "0 0 20 * * 1-5"
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("EVENT_DB_PATH"); v != "" {
		c.EventDBPath = v
	}
	if v := os.Getenv("EVENT_DB_BACKUP_PATH"); v != "" {
		c.EventDBBackupPath = v
	}
	if v := os.Getenv("MONITOR_MODE"); v != "" {
		c.Mode = v
	}
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode %q: must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Threshold.Price <= 0 || c.Threshold.Volume <= 0 || c.Threshold.ATR <= 0 {
		return fmt.Errorf("thresholds must be positive, got price=%v volume=%v atr=%v",
			c.Threshold.Price, c.Threshold.Volume, c.Threshold.ATR)
	}
	if c.News.ConfidenceCutoff <= 0 || c.News.ConfidenceCutoff > 1 {
		return fmt.Errorf("news.confidence_cutoff must be in (0, 1], got %v", c.News.ConfidenceCutoff)
	}
	switch c.Prices.Source {
	case "YAHOO", "KITE", "STATIC":
	default:
		return fmt.Errorf("prices.source must be 'YAHOO', 'KITE', or 'STATIC', got %q", c.Prices.Source)
	}
	if c.Prices.Source == "KITE" && len(c.Prices.Instruments) == 0 {
		return fmt.Errorf("prices.instruments cannot be empty with the KITE source")
	}
	return nil
}
