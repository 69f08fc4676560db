package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	DataDir  string `json:"data_dir"`
	InboxDir string `json:"inbox_dir"`
	LogLevel string `json:"log_level"`

	// Timezone is the IANA name used to bucket artifacts and sessions into
	// trading dates.
	Timezone string `json:"timezone"`

	// Symbols is the instrument universe accepted by the inbox parser.
	Symbols []string `json:"symbols"`

	// DangerWindowMinutes is the half-width W of the interval computed
	// around medium/high-impact calendar events.
	DangerWindowMinutes int `json:"danger_window_minutes"`

	// NewsLookbackHours bounds how far back assembled prompts reach for news.
	NewsLookbackHours int `json:"news_lookback_hours"`

	// RetainResponses keeps raw response payloads on disk after a
	// successful ingestion (invalid payloads are always retained).
	RetainResponses bool `json:"retain_responses"`

	Calendar struct {
		Enabled    bool     `json:"enabled"`
		BaseURL    string   `json:"base_url"`
		Currencies []string `json:"currencies"`
	} `json:"calendar"`

	News struct {
		Enabled bool     `json:"enabled"`
		Sources []string `json:"sources"`
	} `json:"news"`

	Prompt struct {
		TokenizerModel string `json:"tokenizer_model"`
	} `json:"prompt"`

	Schedules struct {
		Calendar string `json:"calendar"`
		News     string `json:"news"`
		Inbox    string `json:"inbox"`
	} `json:"schedules"`

	Serve struct {
		Addr string `json:"addr"`
	} `json:"serve"`

	Telegram struct {
		Token  string `json:"token"`
		ChatID int64  `json:"chat_id"`
	} `json:"telegram"`
}

// Load reads the config file, writing defaults on first run, then applies
// environment overrides for secrets.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{
		DataDir:             filepath.Join(os.Getenv("HOME"), ".chartadvisor"),
		LogLevel:            "info",
		Timezone:            "America/New_York",
		Symbols:             []string{"XAUUSD", "EURUSD"},
		DangerWindowMinutes: 30,
		NewsLookbackHours:   48,
		RetainResponses:     true,
	}
	cfg.InboxDir = filepath.Join(cfg.DataDir, "inbox")
	cfg.Calendar.Enabled = true
	cfg.Calendar.BaseURL = "https://www.forexfactory.com/calendar"
	cfg.Calendar.Currencies = []string{"USD", "EUR"}
	cfg.News.Enabled = true
	cfg.News.Sources = []string{"fed"}
	cfg.Prompt.TokenizerModel = "gpt-4"
	cfg.Schedules.Calendar = "0 6 * * *"
	cfg.Schedules.News = "0 * * * *"
	cfg.Schedules.Inbox = "*/5 * * * *"
	cfg.Serve.Addr = "127.0.0.1:8484"
	return cfg
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.DangerWindowMinutes <= 0 {
		return fmt.Errorf("danger_window_minutes must be positive, got %d", c.DangerWindowMinutes)
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols cannot be empty")
	}
	return nil
}

// Location resolves the configured timezone. Validate guarantees it parses.
func (c *Config) Location() *time.Location {
	loc, _ := time.LoadLocation(c.Timezone)
	return loc
}

// Save writes the config atomically (temp file + rename).
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
