package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teemow/inboxalert/internal/classifier"
	"github.com/teemow/inboxalert/internal/config"
	"github.com/teemow/inboxalert/internal/gmail"
	"github.com/teemow/inboxalert/internal/instrumentation"
	"github.com/teemow/inboxalert/internal/notify"
	"github.com/teemow/inboxalert/internal/pipeline"
	"github.com/teemow/inboxalert/internal/resources"
	"github.com/teemow/inboxalert/internal/server"
	"github.com/teemow/inboxalert/internal/tools/inbox_tools"
)

// Flag names only used by serve.
const (
	flagYolo        = "yolo"
	flagMetrics     = "metrics"
	flagMetricsAddr = "metrics-addr"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server on standard input/output,
so AI assistants can trigger inbox checks and try classification rules.

Tools:
  - inbox_check: run one inbox pass and return the summary
  - inbox_classify: classify a subject with the configured rules

Resources:
  - inboxalert://rules: the active classification rules
  - inboxalert://last-run: the summary of the most recent pass

Safety Mode:
  By default, the server operates in read-only mode: inbox_check only
  classifies and never sends alerts or marks messages read.
  Use --yolo to let inbox_check deliver alerts.

Gmail is authorized on the first inbox_check call, using the cached token
written by 'inboxalert auth'.

Metrics:
  --metrics serves Prometheus metrics and health probes on --metrics-addr
  (or METRICS_ENABLED=true and METRICS_ADDR). Requires
  METRICS_EXPORTER=prometheus.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	flags := cmd.Flags()
	flags.Bool(flagYolo, false, "Enable alert delivery and marking messages read (default is read-only)")
	flags.Bool(flagMetrics, false, "Serve Prometheus metrics and health probes")
	flags.String(flagMetricsAddr, server.DefaultMetricsAddr, "Metrics server listen address")
	flags.Duration(config.KeyWindow, config.DefaultWindow, "Default window for inbox_check")
	flags.Int(config.KeyMaxResults, gmail.DefaultMaxResults, "Maximum number of messages per pass")
	flags.Bool(config.KeyWithBody, false, "Fetch message bodies by default (default: on for webhook)")
	flags.Int(config.KeyPreviewLength, notify.DefaultPreviewLength, "Characters of body preview in alerts (0 disables)")
	flags.String(config.KeyRules, classifier.RuleSetDefault, "Rule set: default, legacy or a path to a YAML rules file")
	flags.String(config.KeyLabel, "", "Restrict checks to a Gmail label")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	v, err := loadViper(cmd)
	if err != nil {
		return err
	}
	_ = v.BindEnv(flagMetrics, "METRICS_ENABLED")
	_ = v.BindEnv(flagMetricsAddr, "METRICS_ADDR")

	logger, err := setupLogger(v)
	if err != nil {
		return err
	}

	provider, instrConfig, err := setupInstrumentation(shutdownCtx)
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()

	readOnly := !v.GetBool(flagYolo)
	if readOnly {
		logger.Info("starting server in READ-ONLY mode (use --yolo to enable alert delivery)")
	} else {
		logger.Info("starting server with alert delivery enabled (--yolo flag is set)")
	}

	// A missing channel only disables inbox_check; classification still works.
	cfg, cfgErr := config.Load(v)
	if cfgErr != nil && !errors.Is(cfgErr, config.ErrChannelConfig) {
		return cfgErr
	}

	// Bodies are only present when a pass fetches them, so body matching
	// can stay on for every pass and for inbox_classify.
	c, err := newClassifier(v.GetString(config.KeyRules), true)
	if err != nil {
		return err
	}

	scConfig := server.Config{
		Classifier: c,
		ReadOnly:   readOnly,
		Metrics:    provider.Metrics(),
		Logger:     logger,
	}
	if cfg != nil {
		notifier, err := notify.New(cfg.Notify, notify.WithLogger(logger))
		if err != nil {
			return err
		}
		r := &inboxRunner{
			v:           v,
			cfg:         cfg,
			classifier:  c,
			notifier:    notifier,
			logger:      logger,
			provider:    provider,
			instrConfig: instrConfig,
		}
		scConfig.Run = r.run
		scConfig.Defaults = pipeline.Options{Window: cfg.Window, WithBody: cfg.WithBody}
	} else {
		logger.Warn("inbox_check is disabled", "error", cfgErr)
	}

	serverContext := server.NewServerContext(shutdownCtx, scConfig)

	var metricsServer *server.MetricsServer
	if v.GetBool(flagMetrics) {
		metricsServer, err = startMetricsServer(v.GetString(flagMetricsAddr), provider, serverContext, logger)
		if err != nil {
			return err
		}
	}
	defer func() {
		// Shutdown metrics server first
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", "error", err)
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", "error", err)
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("inboxalert", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	if err := registerAll(mcpSrv, serverContext); err != nil {
		return err
	}

	return runStdioServer(shutdownCtx, mcpSrv)
}

// registerAll registers all MCP tools and resources.
func registerAll(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := inbox_tools.RegisterInboxTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register inbox tools: %w", err)
	}
	if err := resources.RegisterInboxResources(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register inbox resources: %w", err)
	}
	return nil
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}

// startMetricsServer binds addr and serves metrics in the background.
func startMetricsServer(addr string, provider *instrumentation.Provider, sc *server.ServerContext, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
		Health:                  server.NewHealthChecker(sc),
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Bind synchronously so a busy port fails startup.
	ln, err := net.Listen("tcp", metricsServer.Addr())
	if err != nil {
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	}

	go func() {
		if err := metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	return metricsServer, nil
}

// inboxRunner performs inbox passes for the MCP server. Gmail is authorized
// lazily on the first pass and the client is reused afterwards.
type inboxRunner struct {
	v           *viper.Viper
	cfg         *config.Config
	classifier  *classifier.Classifier
	notifier    notify.Notifier
	logger      *slog.Logger
	provider    *instrumentation.Provider
	instrConfig instrumentation.Config

	mu     sync.Mutex
	client *gmail.Client
}

func (r *inboxRunner) gmailClient(ctx context.Context) (*gmail.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		return r.client, nil
	}
	client, err := newGmailClient(ctx, r.v, r.cfg, r.logger, r.provider.Metrics())
	if err != nil {
		return nil, err
	}
	r.client = client
	return client, nil
}

func (r *inboxRunner) run(ctx context.Context, opts pipeline.Options) (pipeline.Summary, error) {
	client, err := r.gmailClient(ctx)
	if err != nil {
		return pipeline.Summary{}, err
	}

	cfg := *r.cfg
	cfg.Window = opts.Window
	cfg.WithBody = opts.WithBody
	cfg.DryRun = opts.DryRun

	start := time.Now()
	summary := newPipeline(&cfg, client, r.classifier, r.notifier, r.logger, r.provider, r.instrConfig).Run(ctx)
	r.logger.Debug("inbox pass finished", "duration", time.Since(start))
	return summary, nil
}
