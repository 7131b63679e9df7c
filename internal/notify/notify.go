package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/teemow/inboxalert/internal/inbox"
	"github.com/teemow/inboxalert/internal/logging"
	"github.com/teemow/inboxalert/internal/signal"
)

// Supported channel names.
const (
	ChannelWebhook = "webhook"
	ChannelTwilio  = "twilio"
	ChannelSignal  = "signal"
)

// DefaultPreviewLength is the number of body characters shown in an alert.
const DefaultPreviewLength = 100

var (
	// ErrUnknownChannel is returned by New for an unsupported channel name.
	ErrUnknownChannel = errors.New("unknown notification channel")

	// ErrMissingSetting is returned by New when a required channel setting is empty.
	ErrMissingSetting = errors.New("missing notification setting")
)

// Notifier delivers one alert per message.
type Notifier interface {
	// Name returns the channel name used in logs and metrics.
	Name() string

	// Notify sends the alert for email. A nil error means the channel
	// accepted the message.
	Notify(ctx context.Context, email inbox.Email, category string) error
}

// Error is a delivery failure on a channel.
type Error struct {
	Channel string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Channel, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Err
}

// WebhookConfig holds the chat webhook settings.
type WebhookConfig struct {
	URL string
}

// TwilioConfig holds the Twilio account and addressing settings. From and To
// carry the "whatsapp:" prefix for WhatsApp delivery.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// SignalConfig holds the signal-cli account and destination. Group wins over
// Recipient when both are set.
type SignalConfig struct {
	User      string
	Recipient string
	Group     string
}

// Config selects and configures the notification channel.
type Config struct {
	Channel string

	// PreviewLength is the number of body characters included in an alert.
	// Zero leaves the body out.
	PreviewLength int

	Webhook WebhookConfig
	Twilio  TwilioConfig
	Signal  SignalConfig
}

// Validate checks that the settings required by the selected channel are present.
func (c Config) Validate() error {
	missing := func(name string) error {
		return fmt.Errorf("%w: %s is required for channel %q", ErrMissingSetting, name, c.Channel)
	}

	switch c.Channel {
	case ChannelWebhook:
		if c.Webhook.URL == "" {
			return missing("SLACK_WEBHOOK_URL")
		}
	case ChannelTwilio:
		switch {
		case c.Twilio.AccountSID == "":
			return missing("TWILIO_SID")
		case c.Twilio.AuthToken == "":
			return missing("TWILIO_AUTH_TOKEN")
		case c.Twilio.From == "":
			return missing("TWILIO_FROM")
		case c.Twilio.To == "":
			return missing("TWILIO_TO")
		}
	case ChannelSignal:
		if c.Signal.User == "" {
			return missing("SIGNAL_USER")
		}
		if c.Signal.Recipient == "" && c.Signal.Group == "" {
			return missing("SIGNAL_RECIPIENT or SIGNAL_GROUP")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChannel, c.Channel)
	}
	return nil
}

type options struct {
	logger        *slog.Logger
	previewLength int
	httpClient    *http.Client
	signalRunner  signal.Runner
}

// Option configures a notifier.
type Option func(*options)

// WithLogger sets the logger used for delivery messages.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPreviewLength sets the body preview length. Zero disables the preview.
func WithPreviewLength(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.previewLength = n
		}
	}
}

// WithHTTPClient replaces the HTTP client used by the webhook notifier.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithSignalRunner replaces the signal-cli runner used by the Signal notifier.
func WithSignalRunner(r signal.Runner) Option {
	return func(o *options) {
		o.signalRunner = r
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:        logging.Discard(),
		previewLength: DefaultPreviewLength,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New builds the notifier for cfg.Channel.
func New(cfg Config, opts ...Option) (Notifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts = append([]Option{WithPreviewLength(cfg.PreviewLength)}, opts...)

	switch cfg.Channel {
	case ChannelWebhook:
		return NewWebhook(cfg.Webhook.URL, opts...), nil
	case ChannelTwilio:
		return NewTwilio(cfg.Twilio, opts...), nil
	default:
		o := newOptions(opts)
		var clientOpts []signal.Option
		if o.signalRunner != nil {
			clientOpts = append(clientOpts, signal.WithRunner(o.signalRunner))
		}
		clientOpts = append(clientOpts, signal.WithLogger(logging.NewSlogAdapter(o.logger)))
		client, err := signal.NewClient(cfg.Signal.User, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create signal client: %w", err)
		}
		return NewSignal(client, cfg.Signal.Recipient, cfg.Signal.Group, opts...), nil
	}
}
