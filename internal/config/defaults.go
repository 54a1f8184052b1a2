package config

import (
	"time"

	"git.home.luguber.info/inful/releasebot/internal/manifest"
	"git.home.luguber.info/inful/releasebot/internal/release"
	"git.home.luguber.info/inful/releasebot/internal/state"
	"git.home.luguber.info/inful/releasebot/internal/telegram"
	"git.home.luguber.info/inful/releasebot/internal/version"
	"git.home.luguber.info/inful/releasebot/internal/watcher"
)

// Default values not owned by another package.
const (
	DefaultReleaseURL      = "https://factorio.com/download"
	DefaultLanguage        = "ru"
	DefaultNamespace       = "default"
	DefaultSQLitePath      = "releasebot.db"
	DefaultNATSURL         = "nats://127.0.0.1:4222"
	DefaultNATSBucket      = "releasebot"
	DefaultInterval        = 10 * time.Minute
	DefaultMetricsJob      = "releasebot"
	DefaultManifestTimeout = 30 * time.Second
	DefaultMaxBytes        = 4 << 20
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// defaultAppliers run in order; announcement depends on manifest.
var defaultAppliers = []DefaultApplier{
	&ManifestDefaultApplier{},
	&TelegramDefaultApplier{},
	&AnnouncementDefaultApplier{},
	&StateDefaultApplier{},
	&ScheduleDefaultApplier{},
	&MetricsDefaultApplier{},
	&LoggingDefaultApplier{},
}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return invalid(a.Domain(), err)
		}
	}
	return nil
}

// ManifestDefaultApplier handles Manifest configuration defaults.
type ManifestDefaultApplier struct{}

func (m *ManifestDefaultApplier) Domain() string { return "manifest" }

func (m *ManifestDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Manifest.URL == "" {
		cfg.Manifest.URL = manifest.DefaultURL
	}
	if cfg.Manifest.Product == "" {
		cfg.Manifest.Product = release.DefaultProduct
	}
	mode, err := fingerprintModes.Parse(string(cfg.Manifest.Fingerprint))
	if err != nil {
		return err
	}
	cfg.Manifest.Fingerprint = mode
	if cfg.Manifest.Timeout <= 0 {
		cfg.Manifest.Timeout = DefaultManifestTimeout
	}
	if cfg.Manifest.MaxBytes <= 0 {
		cfg.Manifest.MaxBytes = DefaultMaxBytes
	}
	if cfg.Manifest.UserAgent == "" {
		cfg.Manifest.UserAgent = version.UserAgent()
	}
	return nil
}

// TelegramDefaultApplier handles Telegram configuration defaults.
type TelegramDefaultApplier struct{}

func (t *TelegramDefaultApplier) Domain() string { return "telegram" }

func (t *TelegramDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Telegram.APIURL == "" {
		cfg.Telegram.APIURL = telegram.DefaultBaseURL
	}
	if cfg.Telegram.Timeout <= 0 {
		cfg.Telegram.Timeout = telegram.DefaultTimeout
	}
	return nil
}

// AnnouncementDefaultApplier handles Announcement configuration defaults.
type AnnouncementDefaultApplier struct{}

func (a *AnnouncementDefaultApplier) Domain() string { return "announcement" }

func (a *AnnouncementDefaultApplier) ApplyDefaults(cfg *Config) error {
	ann := &cfg.Announcement
	if ann.Language == "" {
		ann.Language = DefaultLanguage
	}
	if ann.ReleaseURL == "" {
		ann.ReleaseURL = DefaultReleaseURL
	}
	if ann.ProductName == "" {
		ann.ProductName = cfg.Manifest.Product
	}
	mode, err := parseModes.Parse(string(ann.ParseMode))
	if err != nil {
		return err
	}
	ann.ParseMode = mode
	policy, err := unpinPolicies.Parse(string(ann.UnpinPolicy))
	if err != nil {
		return err
	}
	ann.UnpinPolicy = policy
	if ann.Silent == nil {
		silent := true
		ann.Silent = &silent
	}
	return nil
}

// StateDefaultApplier handles State configuration defaults.
type StateDefaultApplier struct{}

func (s *StateDefaultApplier) Domain() string { return "state" }

func (s *StateDefaultApplier) ApplyDefaults(cfg *Config) error {
	st := &cfg.State
	backend, err := stateBackends.Parse(string(st.Backend))
	if err != nil {
		return err
	}
	st.Backend = backend
	if st.Namespace == "" {
		st.Namespace = DefaultNamespace
	}
	if st.Dir == "" {
		st.Dir = "."
	}
	if st.FingerprintKey == "" {
		st.FingerprintKey = state.DefaultFingerprintKey
	}
	if st.PinKey == "" {
		st.PinKey = state.DefaultPinKey
	}
	if st.SQLitePath == "" {
		st.SQLitePath = DefaultSQLitePath
	}
	if st.NATSURL == "" {
		st.NATSURL = DefaultNATSURL
	}
	if st.NATSBucket == "" {
		st.NATSBucket = DefaultNATSBucket
	}
	return nil
}

// ScheduleDefaultApplier handles Schedule configuration defaults.
type ScheduleDefaultApplier struct{}

func (s *ScheduleDefaultApplier) Domain() string { return "schedule" }

func (s *ScheduleDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Schedule.Interval <= 0 {
		cfg.Schedule.Interval = DefaultInterval
	}
	return nil
}

// MetricsDefaultApplier handles Metrics configuration defaults.
type MetricsDefaultApplier struct{}

func (m *MetricsDefaultApplier) Domain() string { return "metrics" }

func (m *MetricsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = DefaultMetricsJob
	}
	return nil
}

// LoggingDefaultApplier handles Logging configuration defaults.
type LoggingDefaultApplier struct{}

func (l *LoggingDefaultApplier) Domain() string { return "logging" }

func (l *LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	level, err := logLevelNormalizer.Parse(string(cfg.Logging.Level))
	if err != nil {
		return err
	}
	cfg.Logging.Level = level
	format, err := logFormatNormalizer.Parse(string(cfg.Logging.Format))
	if err != nil {
		return err
	}
	cfg.Logging.Format = format
	return nil
}
