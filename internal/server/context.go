package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/inboxalert/internal/classifier"
	"github.com/teemow/inboxalert/internal/instrumentation"
	"github.com/teemow/inboxalert/internal/pipeline"
)

var (
	// ErrRunInProgress is returned when an inbox pass is requested while
	// another one is still running.
	ErrRunInProgress = errors.New("an inbox check is already running")

	// ErrShutdown is returned once the server context has been shut down.
	ErrShutdown = errors.New("server is shutting down")
)

// RunFunc performs one inbox pass with the given options.
type RunFunc func(ctx context.Context, opts pipeline.Options) (pipeline.Summary, error)

// Config holds the dependencies of a ServerContext.
type Config struct {
	// Run performs an inbox pass. Required for the inbox_check tool.
	Run RunFunc

	// Classifier classifies ad-hoc subjects.
	Classifier *classifier.Classifier

	// Defaults are the run options used when a tool call does not override them.
	Defaults pipeline.Options

	// ReadOnly forces every pass into dry-run mode.
	ReadOnly bool

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// ServerContext holds the state shared by the MCP tools.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    Config

	// runMu serializes inbox passes so a message is never notified twice.
	runMu sync.Mutex

	mu       sync.RWMutex
	shutdown bool
	lastRun  *RunRecord
}

// RunRecord describes the most recent completed inbox pass.
type RunRecord struct {
	Finished time.Time        `json:"finished"`
	Summary  pipeline.Summary `json:"summary"`
	Error    string           `json:"error,omitempty"`
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, cfg Config) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Classifier == nil {
		cfg.Classifier = classifier.New(classifier.DefaultRules())
	}

	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		cfg:    cfg,
	}
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Classifier returns the classifier used for ad-hoc classification.
func (sc *ServerContext) Classifier() *classifier.Classifier {
	return sc.cfg.Classifier
}

// Defaults returns the default run options.
func (sc *ServerContext) Defaults() pipeline.Options {
	return sc.cfg.Defaults
}

// CanRun reports whether inbox passes are configured.
func (sc *ServerContext) CanRun() bool {
	return sc.cfg.Run != nil
}

// ReadOnly reports whether passes are forced into dry-run mode.
func (sc *ServerContext) ReadOnly() bool {
	return sc.cfg.ReadOnly
}

// Metrics returns the metrics instance (may be nil).
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.cfg.Metrics
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.cfg.Logger
}

// Run performs one inbox pass. Only one pass runs at a time; a concurrent
// request fails with ErrRunInProgress instead of waiting.
func (sc *ServerContext) Run(ctx context.Context, opts pipeline.Options) (pipeline.Summary, error) {
	if sc.IsShutdown() {
		return pipeline.Summary{}, ErrShutdown
	}
	if sc.cfg.Run == nil {
		return pipeline.Summary{}, errors.New("inbox runner not configured")
	}
	if !sc.runMu.TryLock() {
		return pipeline.Summary{}, ErrRunInProgress
	}
	defer sc.runMu.Unlock()

	if sc.cfg.ReadOnly {
		opts.DryRun = true
	}

	// Stop the pass when either the request or the server goes away.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(sc.ctx, cancel)
	defer stop()

	summary, err := sc.cfg.Run(ctx, opts)

	record := &RunRecord{Finished: time.Now(), Summary: summary}
	if err != nil {
		record.Error = err.Error()
	}
	sc.mu.Lock()
	sc.lastRun = record
	sc.mu.Unlock()

	return summary, err
}

// LastRun returns the most recent completed pass, or nil before the first one.
func (sc *ServerContext) LastRun() *RunRecord {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.lastRun
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
