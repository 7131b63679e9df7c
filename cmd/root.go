package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxalert/internal/config"
)

// rootCmd represents the base command for the inboxalert application
var rootCmd = &cobra.Command{
	Use:   "inboxalert",
	Short: "Forwards alerts for unread Gmail messages to Slack, WhatsApp or Signal",
	Long: `inboxalert checks your Gmail inbox for unread messages, sorts each one
into a category by keyword, sends an alert to a chat webhook, Twilio
(WhatsApp/SMS) or Signal, and marks the message as read once the alert
was delivered. Messages whose alert fails stay unread and are retried on
the next run.

It can run as:
  - A one-shot CLI, scheduled by cron or a Kubernetes CronJob (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxalert version %s\n" .Version}}`)

	// If no subcommand is provided, run the inbox check by default
	if defaultsToRun(os.Args[1:]) {
		os.Args = append([]string{os.Args[0], "run"}, os.Args[1:]...)
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// defaultsToRun reports whether args name no subcommand, e.g. "" or
// "--dry-run --window 2h". Root flags may precede a subcommand, as in
// "--debug serve".
func defaultsToRun(args []string) bool {
	if len(args) == 0 {
		return true
	}
	switch args[0] {
	case "-h", "--help", "-v", "--version":
		return false
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return true
		}
		if !strings.HasPrefix(arg, "-") {
			return !isSubcommand(arg)
		}
		if strings.Contains(arg, "=") {
			continue
		}
		// Skip the value of a root flag given as "--flag value".
		if f := rootCmd.PersistentFlags().Lookup(strings.TrimLeft(arg, "-")); f != nil && f.Value.Type() != "bool" {
			i++
		}
	}
	return true
}

// isSubcommand reports whether name is a command of rootCmd or one cobra
// adds itself.
func isSubcommand(name string) bool {
	switch name {
	case "help", "completion":
		return true
	}
	for _, c := range rootCmd.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ./inboxalert.yaml if present)")
	flags.String(config.KeyTokenFile, config.DefaultTokenFile, "OAuth token cache file")
	flags.String(config.KeyCredentialsFile, config.DefaultCredentialsFile, "OAuth client secret file from the Google Cloud console")
	flags.Bool(config.KeyDebug, false, "Enable debug logging")
	flags.String(config.KeyLogLevel, "info", "Log level: debug, info, warn, error")
	flags.String(config.KeyLogFormat, "text", "Log format: text or json")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
