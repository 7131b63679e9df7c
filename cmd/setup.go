package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teemow/inboxalert/internal/classifier"
	"github.com/teemow/inboxalert/internal/config"
	"github.com/teemow/inboxalert/internal/gmail"
	"github.com/teemow/inboxalert/internal/google"
	"github.com/teemow/inboxalert/internal/instrumentation"
	"github.com/teemow/inboxalert/internal/logging"
	"github.com/teemow/inboxalert/internal/notify"
	"github.com/teemow/inboxalert/internal/pipeline"
)

// loadViper loads .env, the optional config file and binds the command's flags.
func loadViper(cmd *cobra.Command) (*viper.Viper, error) {
	if err := config.LoadEnvFile(""); err != nil {
		return nil, err
	}

	configFile, _ := cmd.Flags().GetString("config")
	v, err := config.NewViper(configFile)
	if err != nil {
		return nil, err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	return v, nil
}

// setupLogger builds the process logger from the log flags and installs it
// as the slog default.
func setupLogger(v *viper.Viper) (*slog.Logger, error) {
	level := v.GetString(config.KeyLogLevel)
	if v.GetBool(config.KeyDebug) {
		level = "debug"
	}

	logger, err := logging.New(logging.Options{
		Level:  level,
		Format: v.GetString(config.KeyLogFormat),
		Writer: os.Stderr,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// setupInstrumentation creates the OpenTelemetry provider from the
// environment. The caller must shut it down.
func setupInstrumentation(ctx context.Context) (*instrumentation.Provider, instrumentation.Config, error) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, instrConfig, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	return provider, instrConfig, nil
}

func newAuthenticator(v *viper.Viper, logger *slog.Logger, metrics *instrumentation.Metrics) *google.Authenticator {
	return google.NewAuthenticator(google.AuthConfig{
		TokenFile:        v.GetString(config.KeyTokenFile),
		ClientSecretFile: v.GetString(config.KeyCredentialsFile),
	},
		google.WithLogger(logger),
		google.WithMetrics(metrics),
	)
}

// newGmailClient authenticates and returns a Gmail client for the account.
func newGmailClient(ctx context.Context, v *viper.Viper, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*gmail.Client, error) {
	session, err := newAuthenticator(v, logger, metrics).Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with Google: %w", err)
	}

	svc, err := gmail.NewService(ctx, session.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return gmail.NewClient(svc,
		gmail.WithLogger(logger),
		gmail.WithMetrics(metrics),
		gmail.WithMaxResults(cfg.MaxResults),
		gmail.WithLabel(cfg.Label),
	), nil
}

// newClassifier builds the classifier for the configured rule set.
func newClassifier(rules string, withBody bool) (*classifier.Classifier, error) {
	set, defaultLabel, err := classifier.Resolve(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to load classification rules: %w", err)
	}
	return classifier.New(set,
		classifier.WithBody(withBody),
		classifier.WithDefault(defaultLabel),
	), nil
}

// newPipeline wires a pipeline for one account and channel.
func newPipeline(cfg *config.Config, client *gmail.Client, c *classifier.Classifier, n notify.Notifier, logger *slog.Logger, provider *instrumentation.Provider, instrConfig instrumentation.Config) *pipeline.Pipeline {
	deps := pipeline.Deps{
		Lister:       client,
		Fetcher:      client,
		Classifier:   c,
		Notifier:     n,
		Acknowledger: client,
		Logger:       logger,
	}
	if provider.Enabled() {
		deps.Metrics = provider.Metrics()
		deps.Audit = instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging)
	}

	return pipeline.New(deps, pipeline.Options{
		Window:   cfg.Window,
		WithBody: cfg.WithBody,
		DryRun:   cfg.DryRun,
	})
}
