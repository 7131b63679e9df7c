package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/inboxalert/internal/logging"
)

// Delivery captures the outcome of forwarding one message for audit logging.
//
// # Privacy Considerations
//
// From contains the sender address. It is only logged verbatim when the
// audit logger is configured with IncludePII; otherwise a hash is logged.
type Delivery struct {
	MessageID string
	From      string
	Category  string
	Channel   string
	DryRun    bool

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Delivered bool
	Read      bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// NewDelivery starts timing the delivery of one message.
func NewDelivery(messageID, channel string) *Delivery {
	return &Delivery{
		MessageID: messageID,
		Channel:   channel,
		StartTime: time.Now(),
	}
}

// WithMessage sets the sender and category of the message being delivered.
func (d *Delivery) WithMessage(from, category string) *Delivery {
	d.From = from
	d.Category = category
	return d
}

// WithDryRun marks the delivery as simulated.
func (d *Delivery) WithDryRun(dryRun bool) *Delivery {
	d.DryRun = dryRun
	return d
}

// WithSpanContext extracts trace context from the current span.
func (d *Delivery) WithSpanContext(ctx context.Context) *Delivery {
	d.TraceID = GetTraceID(ctx)
	d.SpanID = GetSpanID(ctx)
	return d
}

// Complete records whether the notification was delivered and the message
// marked read, and calculates the duration.
func (d *Delivery) Complete(delivered, read bool, err error) *Delivery {
	d.Duration = time.Since(d.StartTime)
	d.Delivered = delivered
	d.Read = read
	if err != nil {
		d.Error = err.Error()
	}
	return d
}

// Status returns "success", "dry_run" or "error".
func (d *Delivery) Status() string {
	switch {
	case d.DryRun:
		return StatusDryRun
	case d.Delivered && d.Read:
		return StatusSuccess
	default:
		return StatusError
	}
}

// LogAttrs returns slog attributes with the sender hashed.
func (d *Delivery) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		logging.MessageID(d.MessageID),
		logging.Channel(d.Channel),
		logging.Sender(SenderAddress(d.From)),
		logging.Domain(SenderAddress(d.From)),
	}
	return append(attrs, d.commonAttrs()...)
}

// LogAuditAttrs returns slog attributes including the full sender.
//
// # Security Warning
//
// This method includes PII. Route audit logs to storage with appropriate
// access controls.
func (d *Delivery) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		logging.MessageID(d.MessageID),
		logging.Channel(d.Channel),
		slog.String("from", d.From),
	}
	attrs = append(attrs, d.commonAttrs()...)
	if d.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", d.SpanID))
	}
	return attrs
}

func (d *Delivery) commonAttrs() []slog.Attr {
	attrs := []slog.Attr{
		logging.Category(d.Category),
		logging.Status(d.Status()),
		slog.Duration(logging.KeyDuration, d.Duration),
		slog.Bool("delivered", d.Delivered),
		slog.Bool("marked_read", d.Read),
	}
	if d.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", d.TraceID))
	}
	if d.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, d.Error))
	}
	return attrs
}

// AuditLogger writes one structured record per delivered (or failed) message.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given configuration.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogDelivery logs a delivery record. A nil AuditLogger discards it.
func (al *AuditLogger) LogDelivery(d *Delivery) {
	if al == nil || !al.enabled || d == nil {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = d.LogAuditAttrs()
	} else {
		attrs = d.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if d.Status() == StatusError {
		al.logger.Warn("delivery_failed", args...)
		return
	}
	al.logger.Info("delivery_audit", args...)
}
