package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxalert/internal/config"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize Gmail access and cache the OAuth token",
		Long: `Authorize inboxalert to read and modify your Gmail messages.

A valid cached token is reused and an expired one is refreshed. Otherwise a
browser opens for the Google consent screen and the resulting token is
written to the token file (--token-file, default token.json) with mode 0600.

The OAuth client is read from --credentials-file (default credentials.json),
the JSON downloaded from the Google Cloud console.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			if _, err := newAuthenticator(v, logger, nil).Authenticate(ctx); err != nil {
				return fmt.Errorf("failed to authenticate with Google: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Gmail access authorized, token cached in %s\n", v.GetString(config.KeyTokenFile))
			return nil
		},
	}
}
