package notify

import (
	"ShortLink-Backend/internal/config"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingTransport struct {
	calls int
}

func (f *failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.calls++
	return nil, errors.New("network must not be used")
}

func TestTelegramNotifier_DisabledWithoutCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Telegram
	}{
		{"no token", config.Telegram{ChatID: "123"}},
		{"no chat", config.Telegram{BotToken: "1:abc"}},
		{"nothing", config.Telegram{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewTelegramNotifier(tt.cfg, zap.NewNop())
			transport := &failingTransport{}
			n.client.Transport = transport

			assert.False(t, n.Enabled())
			assert.NoError(t, n.Notify(context.Background(), "hello"))
			assert.Zero(t, transport.calls)
		})
	}
}

func TestTelegramNotifier_SendsMessage(t *testing.T) {
	var got sendMessageRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(config.Telegram{
		BotToken: "42:secret",
		ChatID:   "-100500",
		APIURL:   srv.URL,
		Timeout:  time.Second,
	}, zap.NewNop())

	require.NoError(t, n.Notify(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "/bot42:secret/sendMessage", path)
	assert.Equal(t, "-100500", got.ChatID)
	assert.Equal(t, "<b>hi</b>", got.Text)
	assert.Equal(t, "HTML", got.ParseMode)
	assert.True(t, got.DisableWebPagePreview)
}

func TestTelegramNotifier_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(config.Telegram{BotToken: "1:x", ChatID: "2", APIURL: srv.URL}, zap.NewNop())

	err := n.Notify(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramNotifier_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	n := NewTelegramNotifier(config.Telegram{
		BotToken: "1:topsecret",
		ChatID:   "2",
		APIURL:   srv.URL,
		Timeout:  50 * time.Millisecond,
	}, zap.NewNop())

	start := time.Now()
	err := n.Notify(context.Background(), "text")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.NotContains(t, err.Error(), "topsecret")
}

func TestFormatter_Format(t *testing.T) {
	f := NewFormatter("Asia/Ho_Chi_Minh")
	at := time.Date(2025, 3, 10, 7, 5, 9, 0, time.UTC)

	msg := f.Format(Click{
		ShortID:     "abc1234",
		OriginalURL: "https://example.com/?a=1&b=<2>",
		IP:          "203.0.113.7",
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		Referer:     "https://ref.example",
		At:          at,
	})

	assert.True(t, strings.HasPrefix(msg, "🔗 <b>Link Clicked!</b>"))
	assert.Contains(t, msg, "<code>abc1234</code>")
	assert.Contains(t, msg, "https://example.com/?a=1&amp;b=&lt;2&gt;")
	assert.Contains(t, msg, "<code>203.0.113.7</code>")
	assert.Contains(t, msg, "14:05:09 10/3/2025")
	assert.Contains(t, msg, "📤 <b>Referer:</b> https://ref.example")
	assert.Contains(t, msg, "📱 <b>Device:</b> Windows")
}

func TestFormatter_TruncatesAndOmits(t *testing.T) {
	f := NewFormatter("Not/AZone")
	longURL := "https://example.com/" + strings.Repeat("x", 200)

	msg := f.Format(Click{
		ShortID:     "abc1234",
		OriginalURL: longURL,
		IP:          "unknown",
		At:          time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	assert.Contains(t, msg, longURL[:100]+"...")
	assert.NotContains(t, msg, longURL[:101])
	assert.NotContains(t, msg, "Referer")
	assert.Contains(t, msg, "📱 <b>Device:</b> Unknown")
	assert.Contains(t, msg, "03:04:05 2/1/2025", "unknown zones fall back to UTC")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10, "..."))
	assert.Equal(t, "abc...", truncate("abcdef", 3, "..."))
	assert.Equal(t, "héé", truncate("hééllo", 3, ""))
}
