package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxalert/internal/classifier"
	"github.com/teemow/inboxalert/internal/config"
	"github.com/teemow/inboxalert/internal/gmail"
	"github.com/teemow/inboxalert/internal/notify"
)

// pushTimeout bounds the final metrics push of a one-shot run.
const pushTimeout = 10 * time.Second

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Check the inbox once and send alerts for unread messages",
		Long: `Check the Gmail inbox once: list unread messages, classify each one,
send an alert over the configured channel and mark the message as read
once the alert was delivered.

The channel is taken from NOTIFY_CHANNEL (webhook, twilio or signal). When
unset, SLACK_WEBHOOK_URL selects the webhook and TWILIO_SID selects Twilio.

The command exits 0 even when single messages fail; those stay unread and
are retried on the next run. It exits non-zero only for configuration or
authentication errors.`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}

	flags := cmd.Flags()
	flags.Duration(config.KeyWindow, config.DefaultWindow, "Only consider messages newer than this (0 for all unread)")
	flags.Int(config.KeyMaxResults, gmail.DefaultMaxResults, "Maximum number of messages per run")
	flags.Bool(config.KeyDryRun, false, "Classify and log alerts without sending or marking read")
	flags.Bool(config.KeyWithBody, false, "Fetch message bodies for classification and preview (default: on for webhook)")
	flags.Int(config.KeyPreviewLength, notify.DefaultPreviewLength, "Characters of body preview in alerts (0 disables)")
	flags.String(config.KeyRules, classifier.RuleSetDefault, "Rule set: default, legacy or a path to a YAML rules file")
	flags.String(config.KeyLabel, "", "Restrict the check to a Gmail label")

	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	v, err := loadViper(cmd)
	if err != nil {
		return err
	}
	logger, err := setupLogger(v)
	if err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	provider, instrConfig, err := setupInstrumentation(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()

	c, err := newClassifier(cfg.Rules, cfg.WithBody)
	if err != nil {
		return err
	}

	notifier, err := notify.New(cfg.Notify, notify.WithLogger(logger))
	if err != nil {
		return err
	}

	client, err := newGmailClient(ctx, v, cfg, logger, provider.Metrics())
	if err != nil {
		return err
	}

	logger.Info("checking inbox",
		"channel", notifier.Name(),
		"window", cfg.Window,
		"with_body", cfg.WithBody,
		"dry_run", cfg.DryRun)

	summary := newPipeline(cfg, client, c, notifier, logger, provider, instrConfig).Run(ctx)
	fmt.Fprintln(cmd.OutOrStdout(), summary.String())

	pushCtx, pushCancel := context.WithTimeout(context.Background(), pushTimeout)
	defer pushCancel()
	if err := provider.Push(pushCtx); err != nil {
		logger.Warn("failed to push metrics", "error", err)
	}

	return nil
}
