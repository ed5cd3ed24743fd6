package notify

import (
	"ShortLink-Backend/internal/config"
	"ShortLink-Backend/internal/metrics"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TelegramNotifier posts messages to a chat through the Telegram Bot API.
type TelegramNotifier struct {
	client   *http.Client
	baseURL  string
	botToken string
	chatID   string
	log      *zap.Logger
}

// sendMessageRequest is the sendMessage payload.
type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewTelegramNotifier builds a notifier from config. With an empty token or
// chat id it returns a notifier that skips every message without network I/O.
func NewTelegramNotifier(cfg config.Telegram, log *zap.Logger) *TelegramNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := cfg.APIURL
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	n := &TelegramNotifier{
		client:   &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(baseURL, "/"),
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		log:      log,
	}
	if !n.Enabled() {
		log.Info("telegram notifications disabled: bot token or chat id not configured")
	}
	return n
}

// Enabled reports whether both credentials are present.
func (n *TelegramNotifier) Enabled() bool {
	return n.botToken != "" && n.chatID != ""
}

// Notify sends text as an HTML message. Any non-2xx answer is an error.
func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	if !n.Enabled() {
		metrics.RecordNotification("skipped")
		return nil
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:                n.chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		metrics.RecordNotification("failed")
		// the token is part of the URL; keep it out of logs
		return fmt.Errorf("telegram request failed: %w", redactToken(err, n.botToken))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordNotification("failed")
		var apiResp apiResponse
		if json.Unmarshal(body, &apiResp) == nil && apiResp.Description != "" {
			return fmt.Errorf("telegram returned status %d: %s", resp.StatusCode, apiResp.Description)
		}
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	metrics.RecordNotification("sent")
	n.log.Debug("telegram notification sent")
	return nil
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), err: err}
}
