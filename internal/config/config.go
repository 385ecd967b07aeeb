package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jdelaire/tgrambot/adapters/telegram_webhook"
)

// Config holds all configuration for a tgrambot deployment.
type Config struct {
	Bot     BotConfig     `toml:"bot"`
	API     APIConfig     `toml:"api"`
	Polling PollingConfig `toml:"polling"`
	Webhook WebhookConfig `toml:"webhook"`
	Gateway GatewayConfig `toml:"gateway"`
	Log     LogConfig     `toml:"log"`
}

type BotConfig struct {
	Token   string `toml:"token"`
	Name    string `toml:"name"`
	Webhook bool   `toml:"webhook"`
}

type APIConfig struct {
	BaseURL string `toml:"base_url"`
}

type PollingConfig struct {
	Timeout    int `toml:"timeout"`
	IntervalMS int `toml:"interval_ms"`
}

type WebhookConfig struct {
	Addr        string `toml:"addr"`
	SecretToken string `toml:"secret_token"`
	PublicURL   string `toml:"public_url"`
}

type GatewayConfig struct {
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// TokenLookup returns a stored bot token for the named bot.
type TokenLookup func(name string) (string, error)

func defaults() Config {
	return Config{
		API:     APIConfig{BaseURL: "https://api.telegram.org"},
		Polling: PollingConfig{Timeout: 100, IntervalMS: 1000},
		Webhook: WebhookConfig{Addr: ":5000"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from the TOML config file (if it exists) and
// applies environment variable overrides. Env vars always win. A token still
// missing afterwards is looked up with lookup, when given.
//
// Config file resolution: TGRAMBOT_CONFIG env var → ~/.config/tgrambot/config.toml → skip.
func Load(lookup TokenLookup) (*Config, error) {
	cfg := defaults()

	if path := Path(); path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if cfg.Bot.Token == "" && lookup != nil {
		if tok, err := lookup(cfg.Bot.Name); err == nil {
			cfg.Bot.Token = tok
		}
	}
	return &cfg, nil
}

// Path is the config file Load reads, or "" when none can be resolved.
func Path() string {
	if p := os.Getenv("TGRAMBOT_CONFIG"); p != "" {
		return expandHome(p)
	}
	home := os.Getenv("HOME")
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "tgrambot", "config.toml")
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"TGRAMBOT_TOKEN":          &cfg.Bot.Token,
		"TGRAMBOT_NAME":           &cfg.Bot.Name,
		"TGRAMBOT_API_URL":        &cfg.API.BaseURL,
		"TGRAMBOT_WEBHOOK_ADDR":   &cfg.Webhook.Addr,
		"TGRAMBOT_WEBHOOK_SECRET": &cfg.Webhook.SecretToken,
		"TGRAMBOT_WEBHOOK_URL":    &cfg.Webhook.PublicURL,
		"TGRAMBOT_GATEWAY_URL":    &cfg.Gateway.URL,
		"TGRAMBOT_GATEWAY_TOKEN":  &cfg.Gateway.Token,
		"TGRAMBOT_LOG_LEVEL":      &cfg.Log.Level,
		"TGRAMBOT_LOG_FORMAT":     &cfg.Log.Format,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"TGRAMBOT_POLL_TIMEOUT":     &cfg.Polling.Timeout,
		"TGRAMBOT_POLL_INTERVAL_MS": &cfg.Polling.IntervalMS,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("TGRAMBOT_WEBHOOK"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TGRAMBOT_WEBHOOK: %w", err)
		}
		cfg.Bot.Webhook = b
	}
	return nil
}

// Validate checks that required fields are set for the configured mode.
func (c *Config) Validate() error {
	var errs []error
	if c.Bot.Token == "" {
		errs = append(errs, errors.New("bot.token is required (TGRAMBOT_TOKEN or keychain)"))
	}
	switch {
	case c.Bot.Webhook && c.Bot.Name == "":
		errs = append(errs, errors.New("bot.name is required in webhook mode"))
	case c.Bot.Name != "":
		if err := telegram_webhook.ValidateName(c.Bot.Name); err != nil {
			errs = append(errs, fmt.Errorf("bot.name: %w", err))
		}
	}
	if c.Polling.Timeout < 0 {
		errs = append(errs, fmt.Errorf("polling.timeout must not be negative, got %d", c.Polling.Timeout))
	}
	if c.Polling.IntervalMS < 0 {
		errs = append(errs, fmt.Errorf("polling.interval_ms must not be negative, got %d", c.Polling.IntervalMS))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// PollInterval is polling.interval_ms as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Polling.IntervalMS) * time.Millisecond
}

// ParseLevel maps log.level to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
