package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	envSignatureKey     = "SIGNATURE_KEY"
	envTelegramBotToken = "TELEGRAM_BOT_TOKEN"
	envTelegramAllow    = "TELEGRAM_ALLOW_FROM"
	envDiscordBotToken  = "DISCORD_BOT_TOKEN"
	envSMTPPassword     = "SMTP_PASSWORD"
	envPhantomDBPass    = "PHANTOM_DB_PASSWORD"
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Signature SignatureConfig `json:"signature"`
	Processor ProcessorConfig `json:"processor"`
	Handlers  HandlersConfig  `json:"handlers"`
	Logging   LoggingConfig   `json:"logging,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// SignatureConfig configures command authentication.
type SignatureConfig struct {
	Secret              string `json:"secret"`
	MaxAgeSeconds       int    `json:"max_age_seconds"`
	MaxClockSkewSeconds int    `json:"max_clock_skew_seconds"`
}

// ProcessorConfig configures command extraction.
type ProcessorConfig struct {
	CacheCapacity int `json:"cache_capacity"`
}

// HandlersConfig stores per-subsystem handler settings.
type HandlersConfig struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Discord   DiscordConfig   `json:"discord"`
	Email     EmailConfig     `json:"email"`
	Athena    AthenaConfig    `json:"athena"`
	Phantom   PhantomConfig   `json:"phantom"`
	Sovereign SovereignConfig `json:"sovereign"`
}

// TelegramConfig configures the Telegram subsystem.
type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allow_from"`
}

// DiscordConfig configures the Discord subsystem.
type DiscordConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
}

// EmailConfig configures the SMTP subsystem.
type EmailConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

// AthenaConfig configures the trading-signal subsystem.
type AthenaConfig struct {
	Enabled           bool `json:"enabled"`
	TenkanPeriod      int  `json:"tenkan_period"`
	KijunPeriod       int  `json:"kijun_period"`
	SenkouSpanBPeriod int  `json:"senkou_span_b_period"`
}

// PhantomConfig configures the retrieval-and-archive subsystem.
type PhantomConfig struct {
	Enabled       bool     `json:"enabled"`
	MinDelayMS    int      `json:"min_delay_ms"`
	MaxDelayMS    int      `json:"max_delay_ms"`
	Proxies       []string `json:"proxies,omitempty"`
	EncryptionKey string   `json:"encryption_key"`
	Database      DBConfig `json:"database"`
}

// DBConfig configures the Postgres archive connection.
type DBConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
	SSLMode  string `json:"ssl_mode"`
}

// SovereignConfig configures the data-collection subsystem.
type SovereignConfig struct {
	Enabled  bool           `json:"enabled"`
	Sources  []SourceConfig `json:"sources"`
	Keywords []string       `json:"keywords"`
}

// SourceConfig describes one monitored feed or page.
type SourceConfig struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	URL            string `json:"url"`
	UpdateInterval int    `json:"update_interval"`
}

// Load resolves config.json, unmarshals it, and applies environment
// overrides.
func Load() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides injects secret material from the environment on top of
// file config so credentials never have to live in config.json.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if secret := strings.TrimSpace(os.Getenv(envSignatureKey)); secret != "" {
		cfg.Signature.Secret = secret
	}
	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Handlers.Telegram.Token = token
	}
	if rawAllowFrom := strings.TrimSpace(os.Getenv(envTelegramAllow)); rawAllowFrom != "" {
		cfg.Handlers.Telegram.AllowFrom = parseCSV(rawAllowFrom)
	}
	if token := strings.TrimSpace(os.Getenv(envDiscordBotToken)); token != "" {
		cfg.Handlers.Discord.Token = token
	}
	if password := strings.TrimSpace(os.Getenv(envSMTPPassword)); password != "" {
		cfg.Handlers.Email.Password = password
	}
	if password := strings.TrimSpace(os.Getenv(envPhantomDBPass)); password != "" {
		cfg.Handlers.Phantom.Database.Password = password
	}
}

// parseCSV splits comma-separated values and returns a trimmed compact slice.
func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

// findConfigPath resolves the active config file location.
//
// Precedence is SHADOWNEXUS_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv("SHADOWNEXUS_CONFIG")); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("SHADOWNEXUS_CONFIG does not point to a file: %s", value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}
