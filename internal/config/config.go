// Package config loads the releasebot YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/releasebot/internal/chat"
	ferrors "git.home.luguber.info/inful/releasebot/internal/foundation/errors"
	"git.home.luguber.info/inful/releasebot/internal/manifest"
	"git.home.luguber.info/inful/releasebot/internal/state"
	"git.home.luguber.info/inful/releasebot/internal/watcher"
)

// Config represents the application configuration
type Config struct {
	Manifest     ManifestConfig     `yaml:"manifest"`
	Telegram     TelegramConfig     `yaml:"telegram"`
	Announcement AnnouncementConfig `yaml:"announcement"`
	State        StateConfig        `yaml:"state"`
	Schedule     ScheduleConfig     `yaml:"schedule"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ManifestConfig describes where releases are detected.
type ManifestConfig struct {
	URL string `yaml:"url"`
	// Product is the name inside the installer file name, Setup_<product>_x.y.z.exe.zip.
	Product     string                   `yaml:"product"`
	Fingerprint manifest.FingerprintMode `yaml:"fingerprint"`
	Timeout     time.Duration            `yaml:"timeout"`
	MaxBytes    int64                    `yaml:"max_bytes"`
	UserAgent   string                   `yaml:"user_agent"`
}

// TelegramConfig holds the Bot API credentials and destination.
type TelegramConfig struct {
	Token    string        `yaml:"token"`
	ChatID   string        `yaml:"chat_id"`
	APIURL   string        `yaml:"api_url"`
	ProxyURL string        `yaml:"proxy_url,omitempty"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AnnouncementConfig shapes the announcement message.
type AnnouncementConfig struct {
	Language   string `yaml:"language"`
	ReleaseURL string `yaml:"release_url"`
	// ProductName is the display name in the headline. Defaults to manifest.product.
	ProductName string              `yaml:"product_name,omitempty"`
	ParseMode   chat.ParseMode      `yaml:"parse_mode"`
	Silent      *bool               `yaml:"silent"`
	UnpinPolicy watcher.UnpinPolicy `yaml:"unpin_policy"`
}

// IsSilent reports whether messages are sent without notification. Default true.
func (a AnnouncementConfig) IsSilent() bool {
	return a.Silent == nil || *a.Silent
}

// StateConfig selects the state backend.
type StateConfig struct {
	Backend        state.Backend `yaml:"backend"`
	Namespace      string        `yaml:"namespace"`
	Dir            string        `yaml:"dir"`
	FingerprintKey string        `yaml:"fingerprint_key"`
	PinKey         string        `yaml:"pin_key"`
	SQLitePath     string        `yaml:"sqlite_path"`
	NATSURL        string        `yaml:"nats_url"`
	NATSBucket     string        `yaml:"nats_bucket"`
}

// ScheduleConfig drives the watch command. Cron wins over Interval.
type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval"`
	Cron     string        `yaml:"cron,omitempty"`
}

// MetricsConfig enables Prometheus export.
type MetricsConfig struct {
	// PushgatewayURL receives metrics after each one-shot run.
	PushgatewayURL string `yaml:"pushgateway_url,omitempty"`
	Job            string `yaml:"job"`
	// ListenAddr serves /metrics in watch mode.
	ListenAddr string `yaml:"listen_addr,omitempty"`
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Environment variables consulted when the file leaves a credential empty.
const (
	EnvToken  = "TELEGRAM_TOKEN"
	EnvChatID = "CHAT_ID"
)

// Load reads configPath, expands ${VAR} references, applies defaults and
// validates the result. An empty configPath runs from defaults plus the
// environment.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, ferrors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).Build()
			}
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").Build()
		}
		if err := decode(os.ExpandEnv(string(data)), cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
				WithContext("path", configPath).
				Build()
		}
	}

	applyEnvFallbacks(cfg)
	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode rejects unknown keys so typos do not silently fall back to defaults.
func decode(text string, cfg *Config) error {
	dec := yaml.NewDecoder(strings.NewReader(text))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnvFallbacks(cfg *Config) {
	if cfg.Telegram.Token == "" {
		cfg.Telegram.Token = os.Getenv(EnvToken)
	}
	if cfg.Telegram.ChatID == "" {
		cfg.Telegram.ChatID = os.Getenv(EnvChatID)
	}
}
