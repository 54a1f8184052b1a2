// Package telegram is a small Bot API client implementing chat.Transport.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"git.home.luguber.info/inful/releasebot/internal/chat"
	"git.home.luguber.info/inful/releasebot/internal/logfields"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	DefaultTimeout = 15 * time.Second

	maxResponseBytes = 1 << 20
)

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL of the Bot API. Defaults to DefaultBaseURL.
	BaseURL string
	Token   string
	// ProxyURL routes requests through a socks5:// or http(s):// proxy.
	ProxyURL string
	// Timeout applies to each request. Ignored when HTTPClient is set.
	Timeout time.Duration
	// HTTPClient overrides the client built from Timeout and ProxyURL.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client calls the Telegram Bot API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ chat.Transport = (*Client)(nil)

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram: token is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("telegram: invalid base URL %q: %w", baseURL, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		var err error
		httpClient, err = newHTTPClient(cfg.Timeout, cfg.ProxyURL)
		if err != nil {
			return nil, err
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      cfg.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

func newHTTPClient(timeout time.Duration, proxyURL string) (*http.Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("telegram: invalid proxy URL: %w", err)
		}
		switch u.Scheme {
		case "http", "https":
			transport.Proxy = http.ProxyURL(u)
		case "socks5", "socks5h":
			dialer, err := proxy.FromURL(u, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("telegram: proxy dialer: %w", err)
			}
			transport.Proxy = nil
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				transport.DialContext = cd.DialContext
			} else {
				transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
					return dialer.Dial(network, addr)
				}
			}
		default:
			return nil, fmt.Errorf("telegram: unsupported proxy scheme %q", u.Scheme)
		}
	}

	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

// GetMe returns the bot's own user. Used as a credentials check.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var user User
	if err := c.call(ctx, "getMe", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SendMessage posts a message and returns its id.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (chat.MessageID, error) {
	var msg sentMessage
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return 0, err
	}
	return chat.MessageID(msg.MessageID), nil
}

// PinChatMessage pins a message in a chat.
func (c *Client) PinChatMessage(ctx context.Context, req PinChatMessageRequest) error {
	return c.call(ctx, "pinChatMessage", req, nil)
}

// UnpinChatMessage unpins a message. A zero MessageID unpins the most recent pin.
func (c *Client) UnpinChatMessage(ctx context.Context, req UnpinChatMessageRequest) error {
	return c.call(ctx, "unpinChatMessage", req, nil)
}

func (c *Client) Send(ctx context.Context, msg chat.Message) (chat.MessageID, error) {
	return c.SendMessage(ctx, SendMessageRequest{
		ChatID:              msg.ChatID,
		Text:                msg.Text,
		ParseMode:           string(msg.ParseMode),
		DisableNotification: msg.Silent,
	})
}

func (c *Client) Pin(ctx context.Context, chatID string, id chat.MessageID, silent bool) error {
	return c.PinChatMessage(ctx, PinChatMessageRequest{
		ChatID:              chatID,
		MessageID:           int64(id),
		DisableNotification: silent,
	})
}

func (c *Client) Unpin(ctx context.Context, chatID string, id chat.MessageID) error {
	return c.UnpinChatMessage(ctx, UnpinChatMessageRequest{ChatID: chatID, MessageID: int64(id)})
}

// call posts params as JSON to method and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	body, err := c.doRequest(ctx, method, params)
	if err != nil {
		return err
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !resp.OK {
		apiErr := &APIError{Method: method, Code: resp.ErrorCode, Description: resp.Description}
		if resp.Parameters != nil && resp.Parameters.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(resp.Parameters.RetryAfter) * time.Second
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("telegram %s: decode result: %w", method, err)
	}
	return nil
}

// doRequest returns the raw body for any HTTP status: the Bot API reports
// failures in the JSON envelope, including on 4xx and 5xx.
func (c *Client) doRequest(ctx context.Context, method string, params any) ([]byte, error) {
	var reader io.Reader = http.NoBody
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("telegram %s: encode request: %w", method, err)
		}
		reader = bytes.NewReader(data)
	}

	endpoint := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return nil, redact(fmt.Errorf("telegram %s: build request: %w", method, err), c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, redact(fmt.Errorf("telegram %s: %w", method, err), c.token)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, redact(fmt.Errorf("telegram %s: read response: %w", method, err), c.token)
	}

	c.logger.Debug("telegram request",
		slog.String("method", method),
		slog.Int("status", resp.StatusCode),
		logfields.Duration(time.Since(start)))

	if resp.StatusCode >= 500 && !json.Valid(body) {
		return nil, fmt.Errorf("telegram %s: HTTP %d", method, resp.StatusCode)
	}
	return body, nil
}
