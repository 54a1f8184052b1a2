package config

import (
	"fmt"
	"net/url"

	ferrors "git.home.luguber.info/inful/releasebot/internal/foundation/errors"
	"git.home.luguber.info/inful/releasebot/internal/state"
)

func invalid(domain string, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryConfig, fmt.Sprintf("invalid %s configuration", domain)).
		WithContext("section", domain).
		Build()
}

// Validate checks values every command relies on. Credentials are checked
// separately by ValidateForRun.
func (c *Config) Validate() error {
	if err := requireHTTPURL(c.Manifest.URL); err != nil {
		return invalid("manifest", fmt.Errorf("url: %w", err))
	}
	if err := requireHTTPURL(c.Telegram.APIURL); err != nil {
		return invalid("telegram", fmt.Errorf("api_url: %w", err))
	}
	if c.Telegram.ProxyURL != "" {
		u, err := url.Parse(c.Telegram.ProxyURL)
		if err != nil {
			return invalid("telegram", fmt.Errorf("proxy_url: %w", err))
		}
		switch u.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return invalid("telegram", fmt.Errorf("proxy_url: unsupported scheme %q", u.Scheme))
		}
	}
	if err := requireHTTPURL(c.Announcement.ReleaseURL); err != nil {
		return invalid("announcement", fmt.Errorf("release_url: %w", err))
	}
	if _, err := languages.Parse(c.Announcement.Language); err != nil {
		return invalid("announcement", err)
	}
	switch c.State.Backend {
	case state.BackendSQLite:
		if c.State.SQLitePath == "" {
			return invalid("state", fmt.Errorf("sqlite_path is required for the sqlite backend"))
		}
	case state.BackendNATS:
		if err := requireScheme(c.State.NATSURL, "nats", "tls"); err != nil {
			return invalid("state", fmt.Errorf("nats_url: %w", err))
		}
	}
	if c.Metrics.PushgatewayURL != "" {
		if err := requireHTTPURL(c.Metrics.PushgatewayURL); err != nil {
			return invalid("metrics", fmt.Errorf("pushgateway_url: %w", err))
		}
	}
	return nil
}

// ValidateForRun additionally requires the Telegram credentials.
func (c *Config) ValidateForRun() error {
	if c.Telegram.Token == "" {
		return ferrors.ConfigError("telegram token is not set").
			WithContext("hint", "set telegram.token or "+EnvToken).
			Build()
	}
	if c.Telegram.ChatID == "" {
		return ferrors.ConfigError("telegram chat id is not set").
			WithContext("hint", "set telegram.chat_id or "+EnvChatID).
			Build()
	}
	return nil
}

func requireHTTPURL(raw string) error {
	return requireScheme(raw, "http", "https")
}

func requireScheme(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%q must be an absolute %v URL", raw, schemes)
}
