package notifier

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"OptionsIntraday/internal/config"
	"OptionsIntraday/internal/logger"
)

// Notifier delivers a text message to an operator.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BaseURL  string
	BotToken string
	ChatID   string
	Retries  int
	Client   *http.Client

	backoff time.Duration
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(cfg *config.Config) (*TelegramNotifier, error) {
	proxy, err := cfg.ProxyURL()
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{}
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy)
	}
	return &TelegramNotifier{
		BaseURL:  cfg.Telegram.BaseURL,
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		Retries:  3,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		backoff: time.Second,
	}, nil
}

type sendMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Send posts one message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	body, err := sonic.Marshal(sendMessage{ChatID: t.ChatID, Text: text})
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}
	endpoint := strings.TrimRight(t.BaseURL, "/") + "/bot" + t.BotToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		// the token is part of the path
		return errors.New("send message: " + strings.ReplaceAll(err.Error(), t.BotToken, "REDACTED"))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Notify sends text with exponential backoff retry.
func (t *TelegramNotifier) Notify(ctx context.Context, text string) error {
	var lastErr error
	backoff := t.backoff
	for i := 0; i <= t.Retries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == t.Retries {
			break
		}
		logger.Warnf("telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, t.Retries+1, err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return errors.Wrapf(lastErr, "all %d attempts exhausted", t.Retries+1)
}
