package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/releasebot/internal/chat"
)

const testToken = "123456:SECRET-token"

type recordedCall struct {
	Method string
	Body   map[string]any
}

// fakeBotAPI answers Bot API calls with the given per-method responses.
func fakeBotAPI(t *testing.T, responses map[string]string) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var calls []recordedCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := "/bot" + testToken + "/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			http.NotFound(w, r)
			return
		}
		method := strings.TrimPrefix(r.URL.Path, prefix)
		assert.Equal(t, http.MethodPost, r.Method)

		call := recordedCall{Method: method}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &call.Body))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		}
		calls = append(calls, call)

		resp, ok := responses[method]
		if !ok {
			resp = `{"ok":true,"result":true}`
		}
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(resp, `"ok":false`) {
			w.WriteHeader(http.StatusBadRequest)
		}
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: srv.URL + "/", Token: testToken, HTTPClient: srv.Client()})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestNewClient_Proxy(t *testing.T) {
	for _, u := range []string{"socks5://127.0.0.1:1080", "http://proxy.local:3128"} {
		c, err := NewClient(Config{Token: testToken, ProxyURL: u, Timeout: time.Second})
		require.NoError(t, err, u)
		assert.Equal(t, time.Second, c.httpClient.Timeout)
	}

	_, err := NewClient(Config{Token: testToken, ProxyURL: "ftp://nope"})
	require.Error(t, err)
}

func TestSend(t *testing.T) {
	srv, calls := fakeBotAPI(t, map[string]string{
		"sendMessage": `{"ok":true,"result":{"message_id":42,"chat":{"id":-100}}}`,
	})
	c := newTestClient(t, srv)

	id, err := c.Send(context.Background(), chat.Message{
		ChatID:    "-100",
		Text:      "*hi*",
		ParseMode: chat.ParseModeMarkdownV2,
		Silent:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, chat.MessageID(42), id)

	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, "sendMessage", got.Method)
	assert.Equal(t, "-100", got.Body["chat_id"])
	assert.Equal(t, "*hi*", got.Body["text"])
	assert.Equal(t, "MarkdownV2", got.Body["parse_mode"])
	assert.Equal(t, true, got.Body["disable_notification"])
}

func TestPinAndUnpin(t *testing.T) {
	srv, calls := fakeBotAPI(t, nil)
	c := newTestClient(t, srv)
	ctx := context.Background()

	require.NoError(t, c.Pin(ctx, "-100", 42, true))
	require.NoError(t, c.Unpin(ctx, "-100", 41))

	require.Len(t, *calls, 2)
	assert.Equal(t, "pinChatMessage", (*calls)[0].Method)
	assert.EqualValues(t, 42, (*calls)[0].Body["message_id"])
	assert.Equal(t, true, (*calls)[0].Body["disable_notification"])
	assert.Equal(t, "unpinChatMessage", (*calls)[1].Method)
	assert.EqualValues(t, 41, (*calls)[1].Body["message_id"])
}

func TestAPIError(t *testing.T) {
	srv, _ := fakeBotAPI(t, map[string]string{
		"sendMessage":      `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":7}}`,
		"unpinChatMessage": `{"ok":false,"error_code":400,"description":"Bad Request: message to unpin not found"}`,
	})
	c := newTestClient(t, srv)

	_, err := c.Send(context.Background(), chat.Message{ChatID: "1", Text: "x"})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.Code)
	assert.Equal(t, 7*time.Second, apiErr.RetryAfter)
	assert.Contains(t, err.Error(), "Too Many Requests")

	err = c.Unpin(context.Background(), "1", 5)
	assert.True(t, IsAPIError(err, 400))
}

func TestGetMe(t *testing.T) {
	srv, _ := fakeBotAPI(t, map[string]string{
		"getMe": `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Release","username":"release_bot"}}`,
	})
	c := newTestClient(t, srv)

	me, err := c.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "release_bot", me.Username)
	assert.True(t, me.IsBot)
}

func TestTransportErrorsDoNotLeakToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Token: testToken, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Send(context.Background(), chat.Message{ChatID: "1", Text: "x"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), testToken)
	assert.Contains(t, err.Error(), redacted)
}

func TestServerErrorWithoutJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Token: testToken, HTTPClient: srv.Client()})
	require.NoError(t, err)

	err = c.Pin(context.Background(), "1", 2, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}
