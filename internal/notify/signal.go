package notify

import (
	"context"
	"log/slog"

	"github.com/teemow/inboxalert/internal/inbox"
	"github.com/teemow/inboxalert/internal/logging"
)

// signalSender is the part of the signal client used for delivery.
type signalSender interface {
	SendMessage(ctx context.Context, recipient, message string) error
	SendGroupMessage(ctx context.Context, group, message string) error
}

// Signal sends alerts through signal-cli to a number or a group.
type Signal struct {
	sender        signalSender
	recipient     string
	group         string
	previewLength int
	logger        *slog.Logger
}

// NewSignal creates a Signal notifier. When group is set it is used instead
// of recipient.
func NewSignal(sender signalSender, recipient, group string, opts ...Option) *Signal {
	o := newOptions(opts)
	return &Signal{
		sender:        sender,
		recipient:     recipient,
		group:         group,
		previewLength: o.previewLength,
		logger:        logging.WithChannel(o.logger, ChannelSignal),
	}
}

// Name returns the channel name.
func (s *Signal) Name() string { return ChannelSignal }

// Notify sends the alert block.
func (s *Signal) Notify(ctx context.Context, email inbox.Email, category string) error {
	text := FormatAlert(email, category, s.previewLength)

	var err error
	if s.group != "" {
		err = s.sender.SendGroupMessage(ctx, s.group, text)
	} else {
		err = s.sender.SendMessage(ctx, s.recipient, text)
	}
	if err != nil {
		return &Error{Channel: ChannelSignal, Err: err}
	}

	s.logger.Debug("Signal message sent", logging.MessageID(email.ID))
	return nil
}
