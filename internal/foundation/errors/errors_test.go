package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	t.Run("wraps cause and keeps context", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := FetchError("fetch release manifest").
			WithCause(cause).
			WithContext("url", "https://example.com/sums").
			Build()

		assert.Equal(t, CategoryNetwork, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, RetryNextRun, err.RetryStrategy())
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "https://example.com/sums", err.Context()["url"])
		assert.Equal(t, "[network:fatal] fetch release manifest: connection refused", err.Error())
	})

	t.Run("state errors are fatal and not transient", func(t *testing.T) {
		err := StateError("save fingerprint").Build()
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, RetryNever, err.RetryStrategy())
	})
}

func TestAsClassified_FindsWrappedError(t *testing.T) {
	inner := StateError("load pin record").Build()
	wrapped := fmt.Errorf("run: %w", inner)

	got, ok := AsClassified(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)
	assert.True(t, HasCategory(wrapped, CategoryState))
	assert.False(t, HasCategory(stderrors.New("plain"), CategoryState))

	_, ok = AsClassified(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, ExitOK},
		{"validation", ValidationError("bad flag").Build(), ExitUsage},
		{"config", ConfigError("missing token").Build(), ExitConfig},
		{"fetch", FetchError("fetch failed").Build(), ExitNetwork},
		{"transport", TransportError("send failed").Build(), ExitTransport},
		{"state", StateError("disk full").Build(), ExitState},
		{"internal", NewError(CategoryInternal, "missing collaborator").Build(), ExitInternal},
		{"wrapped state", fmt.Errorf("run: %w", StateError("disk full").Build()), ExitState},
		{"unclassified", stderrors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := ConfigError("telegram token is required").Build()

	quiet := NewCLIErrorAdapter(false, nil)
	assert.Equal(t, "Error (config): telegram token is required", quiet.FormatError(err))

	verbose := NewCLIErrorAdapter(true, nil)
	assert.Equal(t, err.Error(), verbose.FormatError(err))

	assert.Equal(t, "Error: boom", quiet.FormatError(stderrors.New("boom")))
	assert.Empty(t, quiet.FormatError(nil))
}
