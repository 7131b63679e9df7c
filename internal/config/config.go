package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/teemow/inboxalert/internal/classifier"
	"github.com/teemow/inboxalert/internal/gmail"
	"github.com/teemow/inboxalert/internal/notify"
)

// Keys used for flags, the config file and the environment.
const (
	KeyChannel         = "notify_channel"
	KeyWebhookURL      = "slack_webhook_url"
	KeyTwilioSID       = "twilio_sid"
	KeyTwilioToken     = "twilio_auth_token"
	KeyTwilioFrom      = "twilio_from"
	KeyTwilioTo        = "twilio_to"
	KeySignalUser      = "signal_user"
	KeySignalRecipient = "signal_recipient"
	KeySignalGroup     = "signal_group"

	KeyWindow          = "window"
	KeyMaxResults      = "max-results"
	KeyDryRun          = "dry-run"
	KeyWithBody        = "with-body"
	KeyPreviewLength   = "preview-length"
	KeyRules           = "rules"
	KeyLabel           = "label"
	KeyTokenFile       = "token-file"
	KeyCredentialsFile = "credentials-file"
	KeyDebug           = "debug"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
)

// Defaults.
const (
	DefaultWindow          = 24 * time.Hour
	DefaultTokenFile       = "token.json"
	DefaultCredentialsFile = "credentials.json"
	DefaultConfigName      = "inboxalert"
	DefaultEnvFile         = ".env"
)

// ErrChannelConfig is returned when no usable notification channel is configured.
var ErrChannelConfig = errors.New("invalid notification channel configuration")

// Config is the resolved configuration of one invocation.
type Config struct {
	Notify notify.Config

	Window     time.Duration
	MaxResults int
	DryRun     bool
	WithBody   bool
	Rules      string
	Label      string

	TokenFile       string
	CredentialsFile string

	LogLevel  string
	LogFormat string
}

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables already set are not overridden and a missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// NewViper returns a viper instance with defaults, environment bindings and,
// when found, the YAML config file applied. An empty configFile searches for
// inboxalert.yaml in the working directory.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// SetDefaults registers the default values.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyWindow, DefaultWindow)
	v.SetDefault(KeyMaxResults, gmail.DefaultMaxResults)
	v.SetDefault(KeyPreviewLength, notify.DefaultPreviewLength)
	v.SetDefault(KeyRules, classifier.RuleSetDefault)
	v.SetDefault(KeyTokenFile, DefaultTokenFile)
	v.SetDefault(KeyCredentialsFile, DefaultCredentialsFile)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

func bindEnv(v *viper.Viper) {
	// Names differ from the key, or several names are accepted.
	_ = v.BindEnv(KeyWebhookURL, "SLACK_WEBHOOK_URL", "WEBHOOK_URL")
	_ = v.BindEnv(KeyTokenFile, "INBOXALERT_TOKEN_FILE")
	_ = v.BindEnv(KeyCredentialsFile, "INBOXALERT_CREDENTIALS_FILE")
	_ = v.BindEnv(KeyLogLevel, "LOG_LEVEL")
	_ = v.BindEnv(KeyLogFormat, "LOG_FORMAT")
	_ = v.BindEnv(KeyWindow, "INBOXALERT_WINDOW")
	_ = v.BindEnv(KeyLabel, "INBOXALERT_LABEL")
}

// Load resolves the configuration from v. Channel problems are reported
// wrapped in ErrChannelConfig.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Notify: notify.Config{
			Channel:       strings.ToLower(strings.TrimSpace(v.GetString(KeyChannel))),
			PreviewLength: v.GetInt(KeyPreviewLength),
			Webhook: notify.WebhookConfig{
				URL: v.GetString(KeyWebhookURL),
			},
			Twilio: notify.TwilioConfig{
				AccountSID: v.GetString(KeyTwilioSID),
				AuthToken:  v.GetString(KeyTwilioToken),
				From:       v.GetString(KeyTwilioFrom),
				To:         v.GetString(KeyTwilioTo),
			},
			Signal: notify.SignalConfig{
				User:      v.GetString(KeySignalUser),
				Recipient: v.GetString(KeySignalRecipient),
				Group:     v.GetString(KeySignalGroup),
			},
		},
		Window:          v.GetDuration(KeyWindow),
		MaxResults:      v.GetInt(KeyMaxResults),
		DryRun:          v.GetBool(KeyDryRun),
		Rules:           v.GetString(KeyRules),
		Label:           v.GetString(KeyLabel),
		TokenFile:       v.GetString(KeyTokenFile),
		CredentialsFile: v.GetString(KeyCredentialsFile),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFormat:       v.GetString(KeyLogFormat),
	}

	if v.GetBool(KeyDebug) {
		cfg.LogLevel = "debug"
	}

	if cfg.Notify.Channel == "" {
		cfg.Notify.Channel = InferChannel(cfg.Notify)
	}

	// Only the chat webhook shows a body preview unless asked otherwise.
	if v.IsSet(KeyWithBody) {
		cfg.WithBody = v.GetBool(KeyWithBody)
	} else {
		cfg.WithBody = cfg.Notify.Channel == notify.ChannelWebhook
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InferChannel picks a channel from the credentials present: webhook when a
// webhook URL is set, else twilio when an account SID is set. It returns ""
// when neither is configured.
func InferChannel(n notify.Config) string {
	switch {
	case n.Webhook.URL != "":
		return notify.ChannelWebhook
	case n.Twilio.AccountSID != "":
		return notify.ChannelTwilio
	default:
		return ""
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Notify.Channel == "" {
		return fmt.Errorf("%w: set NOTIFY_CHANNEL or provide SLACK_WEBHOOK_URL or TWILIO_SID", ErrChannelConfig)
	}
	if err := c.Notify.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrChannelConfig, err)
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max-results must be positive, got %d", c.MaxResults)
	}
	if c.Window < 0 {
		return fmt.Errorf("window must not be negative, got %s", c.Window)
	}
	if c.Notify.PreviewLength < 0 {
		return fmt.Errorf("preview-length must not be negative, got %d", c.Notify.PreviewLength)
	}
	return nil
}
