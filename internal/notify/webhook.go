package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teemow/inboxalert/internal/inbox"
	"github.com/teemow/inboxalert/internal/logging"
)

const (
	// DefaultWebhookTimeout bounds a single webhook POST.
	DefaultWebhookTimeout = 30 * time.Second

	// maxErrorBody caps how much of a rejected response is kept in the error.
	maxErrorBody = 256
)

type webhookPayload struct {
	Text string `json:"text"`
}

// Webhook posts alerts to a Slack-compatible incoming webhook.
type Webhook struct {
	url           string
	client        *http.Client
	previewLength int
	logger        *slog.Logger
}

// NewWebhook creates a webhook notifier posting to url.
func NewWebhook(url string, opts ...Option) *Webhook {
	o := newOptions(opts)
	client := o.httpClient
	if client == nil {
		client = &http.Client{Timeout: DefaultWebhookTimeout}
	}
	return &Webhook{
		url:           url,
		client:        client,
		previewLength: o.previewLength,
		logger:        logging.WithChannel(o.logger, ChannelWebhook),
	}
}

// Name returns the channel name.
func (w *Webhook) Name() string { return ChannelWebhook }

// Notify posts the chat message. Any 2xx status counts as delivered.
func (w *Webhook) Notify(ctx context.Context, email inbox.Email, category string) error {
	body, err := json.Marshal(webhookPayload{Text: FormatChat(email, category, w.previewLength)})
	if err != nil {
		return w.fail(fmt.Errorf("failed to encode payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return w.fail(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return w.fail(fmt.Errorf("failed to post webhook: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return w.fail(fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	w.logger.Debug("webhook accepted message",
		logging.MessageID(email.ID),
		slog.Int("status_code", resp.StatusCode))
	return nil
}

func (w *Webhook) fail(err error) error {
	return &Error{Channel: ChannelWebhook, Err: err}
}
