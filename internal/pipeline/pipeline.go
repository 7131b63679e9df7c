package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/inboxalert/internal/inbox"
	"github.com/teemow/inboxalert/internal/instrumentation"
	"github.com/teemow/inboxalert/internal/logging"
	"github.com/teemow/inboxalert/internal/notify"
)

// Lister returns the ids of unread messages.
type Lister interface {
	ListUnread(ctx context.Context, window time.Duration) []string
}

// Fetcher returns the details of a message. On failure it returns an Email
// carrying only the id.
type Fetcher interface {
	Fetch(ctx context.Context, id string, withBody bool) inbox.Email
}

// Classifier assigns a category label to a message.
type Classifier interface {
	ClassifyEmail(email inbox.Email) string
}

// Acknowledger marks a message as read.
type Acknowledger interface {
	MarkRead(ctx context.Context, id string) bool
}

// Deps are the collaborators of a Pipeline. Logger, Metrics and Audit are optional.
type Deps struct {
	Lister       Lister
	Fetcher      Fetcher
	Classifier   Classifier
	Notifier     notify.Notifier
	Acknowledger Acknowledger
	Logger       *slog.Logger
	Metrics      *instrumentation.Metrics
	Audit        *instrumentation.AuditLogger
}

// Options control a run.
type Options struct {
	// Window limits listing to messages received within this duration.
	// Zero lists all unread messages.
	Window time.Duration

	// WithBody fetches full messages so the body can be classified and previewed.
	WithBody bool

	// DryRun classifies messages and logs the alert that would be sent,
	// without notifying or marking anything read.
	DryRun bool
}

// Summary is the outcome of one run.
type Summary struct {
	RunID string `json:"run_id"`

	// Processed counts messages that were delivered and marked read.
	Processed int `json:"processed"`

	// Failed counts messages left unread, including skipped ones.
	Failed int `json:"failed"`

	// Skipped counts messages whose sender and subject could not be fetched.
	Skipped int `json:"skipped"`

	Total      int            `json:"total"`
	DryRun     bool           `json:"dry_run,omitempty"`
	Categories map[string]int `json:"categories,omitempty"`
}

// String renders the summary line printed at the end of a run.
func (s Summary) String() string {
	line := fmt.Sprintf("Processed: %d, Failed: %d, Total: %d", s.Processed, s.Failed, s.Total)
	if s.Skipped > 0 {
		line += fmt.Sprintf(" (skipped: %d)", s.Skipped)
	}
	if len(s.Categories) == 0 {
		return line
	}

	labels := make([]string, 0, len(s.Categories))
	for label := range s.Categories {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("%s: %d", label, s.Categories[label]))
	}
	return line + "\n" + strings.Join(parts, "\n")
}

// Pipeline wires the inbox, classifier and notifier together.
type Pipeline struct {
	deps Deps
	opts Options
}

// New creates a Pipeline.
func New(deps Deps, opts Options) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Pipeline{deps: deps, opts: opts}
}

// Run performs one pass: list unread messages, then fetch, classify, notify
// and acknowledge each in order. It never fails as a whole; per-message
// errors are logged and counted.
func (p *Pipeline) Run(ctx context.Context) Summary {
	summary := Summary{
		RunID:      uuid.NewString(),
		DryRun:     p.opts.DryRun,
		Categories: map[string]int{},
	}
	logger := logging.WithOperation(logging.WithRunID(p.deps.Logger, summary.RunID), "run")

	ctx, span := instrumentation.StartSpan(ctx, "inboxalert.run",
		instrumentation.NewSpanAttributeBuilder().
			WithChannel(p.deps.Notifier.Name()).
			WithDryRun(p.opts.DryRun).
			Build()...)
	defer span.End()
	start := time.Now()

	ids := p.deps.Lister.ListUnread(ctx, p.opts.Window)
	summary.Total = len(ids)

	if len(ids) == 0 {
		logger.Info("No unread messages found")
	} else {
		logger.Info("processing unread messages", "count", len(ids))
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			remaining := len(ids) - i
			summary.Failed += remaining
			logger.Warn("run interrupted, leaving remaining messages unread",
				"remaining", remaining, logging.Err(err))
			break
		}

		result, category := p.process(ctx, logger, id)
		switch result {
		case instrumentation.ResultProcessed:
			summary.Processed++
		case instrumentation.ResultSkipped:
			summary.Skipped++
			summary.Failed++
		default:
			summary.Failed++
		}
		if category != "" {
			summary.Categories[category]++
		}
	}

	status := instrumentation.StatusSuccess
	if summary.Failed > 0 {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, fmt.Errorf("%d of %d messages failed", summary.Failed, summary.Total))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	p.deps.Metrics.RecordRun(ctx, status, time.Since(start))

	logger.Info("run complete",
		"processed", summary.Processed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"total", summary.Total,
		slog.Duration(logging.KeyDuration, time.Since(start)))

	return summary
}

// process handles a single message and returns its result and category.
func (p *Pipeline) process(ctx context.Context, logger *slog.Logger, id string) (string, string) {
	ctx, span := instrumentation.StartSpan(ctx, "inboxalert.message",
		instrumentation.NewSpanAttributeBuilder().WithMessageID(id).Build()...)
	defer span.End()

	logger = logger.With(logging.MessageID(id))

	email := p.deps.Fetcher.Fetch(ctx, id, p.opts.WithBody)
	if email.IsEmpty() {
		logger.Warn("could not fetch message details, skipping", logging.Status(logging.StatusSkipped))
		instrumentation.AddSpanEvent(span, "message.skipped")
		p.deps.Metrics.RecordMessage(ctx, instrumentation.ResultSkipped, "")
		return instrumentation.ResultSkipped, ""
	}

	category := p.deps.Classifier.ClassifyEmail(email)
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithCategory(category).Build()...)
	logger.Info("classified message",
		logging.Category(category),
		logging.Sender(email.SenderAddress()),
		"subject", email.Subject)

	channel := p.deps.Notifier.Name()
	delivery := instrumentation.NewDelivery(id, channel).
		WithMessage(email.From, category).
		WithDryRun(p.opts.DryRun).
		WithSpanContext(ctx)

	if p.opts.DryRun {
		logger.Info("dry run, not sending notification", logging.Channel(channel))
		p.deps.Audit.LogDelivery(delivery.Complete(false, false, nil))
		p.deps.Metrics.RecordMessage(ctx, instrumentation.ResultProcessed, category)
		return instrumentation.ResultProcessed, category
	}

	if err := p.notify(ctx, email, category); err != nil {
		logger.Error("failed to send notification, leaving message unread",
			logging.Channel(channel), logging.Err(err))
		instrumentation.SetSpanError(span, err)
		p.deps.Audit.LogDelivery(delivery.Complete(false, false, err))
		p.deps.Metrics.RecordMessage(ctx, instrumentation.ResultFailed, category)
		return instrumentation.ResultFailed, category
	}

	if !p.deps.Acknowledger.MarkRead(ctx, id) {
		err := errors.New("failed to mark message as read")
		logger.Warn("notification sent but message not marked read", logging.Channel(channel))
		instrumentation.SetSpanError(span, err)
		p.deps.Audit.LogDelivery(delivery.Complete(true, false, err))
		p.deps.Metrics.RecordMessage(ctx, instrumentation.ResultFailed, category)
		return instrumentation.ResultFailed, category
	}

	logger.Info("notification sent and message marked read",
		logging.Channel(channel), logging.Status(logging.StatusSuccess))
	instrumentation.SetSpanSuccess(span)
	p.deps.Audit.LogDelivery(delivery.Complete(true, true, nil))
	p.deps.Metrics.RecordMessage(ctx, instrumentation.ResultProcessed, category)
	return instrumentation.ResultProcessed, category
}

// notify sends one alert and records its outcome.
func (p *Pipeline) notify(ctx context.Context, email inbox.Email, category string) error {
	channel := p.deps.Notifier.Name()
	ctx, span := instrumentation.StartNotifySpan(ctx, channel, email.ID)
	defer span.End()

	start := time.Now()
	err := p.deps.Notifier.Notify(ctx, email, category)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	p.deps.Metrics.RecordNotification(ctx, channel, status, email.From, time.Since(start))
	return err
}
