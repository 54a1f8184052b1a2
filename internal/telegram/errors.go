package telegram

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// APIError is a Bot API response with "ok": false.
type APIError struct {
	Method      string
	Code        int
	Description string
	// RetryAfter is set when the API asks the caller to back off (code 429).
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram %s: %d %s (retry after %s)", e.Method, e.Code, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// IsAPIError reports whether err carries an APIError with the given code.
func IsAPIError(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

const redacted = "<redacted>"

// redactedError hides the bot token that net/http embeds in request URLs.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	if err == nil || token == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(msg, token, redacted), err: err}
}
