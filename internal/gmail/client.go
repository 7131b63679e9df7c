package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxalert/internal/inbox"
	"github.com/teemow/inboxalert/internal/instrumentation"
	"github.com/teemow/inboxalert/internal/logging"
)

const (
	// DefaultMaxResults caps the number of ids one run collects.
	DefaultMaxResults = 500

	// maxPageSize is the largest page the Gmail API returns.
	maxPageSize = 500

	labelUnread = "UNREAD"
)

// Client wraps the Gmail messages service.
type Client struct {
	svc        MessageService
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	maxResults int
	label      string
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records Gmail API operations.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithMaxResults caps the number of ids ListUnread returns.
func WithMaxResults(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithLabel restricts listing to messages carrying label (e.g. INBOX).
func WithLabel(label string) Option {
	return func(c *Client) {
		c.label = label
	}
}

// WithClock overrides the time source used for the listing window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a Client on top of svc.
func NewClient(svc MessageService, opts ...Option) *Client {
	c := &Client{
		svc:        svc,
		logger:     slog.Default(),
		maxResults: DefaultMaxResults,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UnreadQuery builds the search query for unread messages received within
// window before now. A non-positive window matches all unread messages.
func UnreadQuery(now time.Time, window time.Duration) string {
	q := "is:unread"
	if window > 0 {
		q += fmt.Sprintf(" after:%d", now.Add(-window).Unix())
	}
	return q
}

// ListUnread returns the ids of unread messages received within window, in
// provider order. Errors are logged and yield an empty result.
func (c *Client) ListUnread(ctx context.Context, window time.Duration) []string {
	q := UnreadQuery(c.now(), window)
	if c.label != "" {
		q += " label:" + c.label
	}
	logger := logging.WithOperation(c.logger, "gmail.list")

	var ids []string
	pageToken := ""
	for len(ids) < c.maxResults {
		pageSize := int64(c.maxResults - len(ids))
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		var res *gmail.ListMessagesResponse
		err := c.observe(ctx, instrumentation.OperationList, func(ctx context.Context) error {
			var err error
			res, err = c.svc.List(ctx, q, pageToken, pageSize)
			return err
		})
		if err != nil {
			logger.Error("failed to list unread messages", "query", q, logging.Err(err))
			return nil
		}

		for _, m := range res.Messages {
			if m != nil && m.Id != "" {
				ids = append(ids, m.Id)
			}
		}

		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	if len(ids) > c.maxResults {
		ids = ids[:c.maxResults]
	}

	logger.Info("listed unread messages", "count", len(ids), "window", window)
	return ids
}

// Fetch retrieves the sender, subject and, when withBody is set, the plain
// text body of a message. Errors are logged and yield an Email carrying only
// the id.
func (c *Client) Fetch(ctx context.Context, id string, withBody bool) inbox.Email {
	logger := logging.WithOperation(c.logger, "gmail.get")

	var msg *gmail.Message
	err := c.observe(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		var err error
		if withBody {
			msg, err = c.svc.Get(ctx, id, FormatFull)
		} else {
			msg, err = c.svc.Get(ctx, id, FormatMetadata, "From", "Subject")
		}
		return err
	})
	if err != nil {
		logger.Error("failed to fetch message details", logging.MessageID(id), logging.Err(err))
		return inbox.Email{ID: id}
	}

	email := inbox.Email{ID: id}
	if msg == nil || msg.Payload == nil {
		return email
	}

	email.From = HeaderValue(msg.Payload, "From")
	email.Subject = HeaderValue(msg.Payload, "Subject")
	if withBody {
		email.Body = PlainTextBody(msg.Payload)
	}
	return email
}

// MarkRead removes the UNREAD label from a message and reports success.
func (c *Client) MarkRead(ctx context.Context, id string) bool {
	err := c.observe(ctx, instrumentation.OperationModify, func(ctx context.Context) error {
		return c.svc.Modify(ctx, id, &gmail.ModifyMessageRequest{
			RemoveLabelIds: []string{labelUnread},
		})
	})
	if err != nil {
		c.logger.Error("failed to mark message as read",
			logging.Operation("gmail.modify"), logging.MessageID(id), logging.Err(err))
		return false
	}
	return true
}

// observe wraps one Gmail API call in a span and records its outcome.
func (c *Client) observe(ctx context.Context, operation string, call func(context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, operation)
	defer span.End()

	start := time.Now()
	err := call(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operation, status, time.Since(start))
	return err
}
