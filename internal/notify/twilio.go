package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/teemow/inboxalert/internal/inbox"
	"github.com/teemow/inboxalert/internal/logging"
)

// messageCreator is the part of the Twilio REST API used for sending.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// Twilio sends alerts through the Twilio Messages API (WhatsApp or SMS).
type Twilio struct {
	api           messageCreator
	from          string
	to            string
	previewLength int
	logger        *slog.Logger
}

// NewTwilio creates a Twilio notifier for the given account.
func NewTwilio(cfg TwilioConfig, opts ...Option) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilio(client.Api, cfg.From, cfg.To, opts...)
}

func newTwilio(api messageCreator, from, to string, opts ...Option) *Twilio {
	o := newOptions(opts)
	return &Twilio{
		api:           api,
		from:          from,
		to:            to,
		previewLength: o.previewLength,
		logger:        logging.WithChannel(o.logger, ChannelTwilio),
	}
}

// Name returns the channel name.
func (t *Twilio) Name() string { return ChannelTwilio }

// Notify creates a message. A returned SID means Twilio accepted it.
func (t *Twilio) Notify(ctx context.Context, email inbox.Email, category string) error {
	if err := ctx.Err(); err != nil {
		return &Error{Channel: ChannelTwilio, Err: err}
	}

	params := &openapi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(t.to)
	params.SetBody(FormatAlert(email, category, t.previewLength))

	msg, err := t.api.CreateMessage(params)
	if err != nil {
		return &Error{Channel: ChannelTwilio, Err: fmt.Errorf("failed to create message: %w", err)}
	}
	if msg == nil || msg.Sid == nil || *msg.Sid == "" {
		return &Error{Channel: ChannelTwilio, Err: fmt.Errorf("no message SID returned")}
	}

	t.logger.Info("Twilio message sent",
		logging.MessageID(email.ID),
		slog.String("sid", *msg.Sid))
	return nil
}
