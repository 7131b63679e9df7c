package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/inboxalert/internal/instrumentation"
	"github.com/teemow/inboxalert/internal/logging"
)

// ErrClientSecretMissing is returned when a consent flow is required but
// the OAuth client secret file does not exist.
var ErrClientSecretMissing = errors.New("client secret file not found")

// Flow obtains tokens from Google.
type Flow interface {
	// Refresh exchanges the refresh token of tok for a new access token.
	Refresh(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (*oauth2.Token, error)

	// Consent asks the user to authorize the application and returns the
	// resulting token.
	Consent(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// AuthConfig locates the token cache and the OAuth client.
type AuthConfig struct {
	// TokenFile is the cached token (default: token.json).
	TokenFile string

	// ClientSecretFile is the client JSON downloaded from the Google console
	// (default: credentials.json). Only needed for the consent flow.
	ClientSecretFile string

	// Scopes requested during consent (default: DefaultScopes).
	Scopes []string
}

// Session is an authenticated Gmail session.
type Session struct {
	// TokenSource yields valid access tokens, refreshing as needed.
	TokenSource oauth2.TokenSource

	// HTTPClient attaches the access token to every request.
	HTTPClient *http.Client
}

// Authenticator produces a Session from cached credentials, refreshing or
// re-consenting when needed.
type Authenticator struct {
	cfg     AuthConfig
	store   *TokenStore
	flow    Flow
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithFlow replaces the default LocalServerFlow.
func WithFlow(flow Flow) Option {
	return func(a *Authenticator) {
		a.flow = flow
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// WithMetrics records authentication outcomes.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(a *Authenticator) {
		a.metrics = m
	}
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(cfg AuthConfig, opts ...Option) *Authenticator {
	if cfg.TokenFile == "" {
		cfg.TokenFile = "token.json"
	}
	if cfg.ClientSecretFile == "" {
		cfg.ClientSecretFile = "credentials.json"
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}

	a := &Authenticator{
		cfg:    cfg,
		store:  NewTokenStore(cfg.TokenFile),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.flow == nil {
		a.flow = &LocalServerFlow{Logger: a.logger}
	}
	return a
}

// Authenticate returns a Session, in order: from a valid cached token, by
// refreshing an expired one, or by running the consent flow. New tokens are
// persisted before returning.
func (a *Authenticator) Authenticate(ctx context.Context) (*Session, error) {
	logger := logging.WithOperation(a.logger, "google.authenticate")

	creds, err := a.store.Load()
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("no cached token", "path", a.store.Path())
	case err != nil:
		logger.Warn("ignoring unreadable token file", "path", a.store.Path(), logging.Err(err))
		creds = nil
	}

	secretCfg, secretErr := a.clientConfig()
	if secretErr != nil && !errors.Is(secretErr, ErrClientSecretMissing) {
		logger.Warn("client secret file unusable", logging.Err(secretErr))
	}

	if creds != nil {
		cfg := secretCfg
		if cfg == nil {
			cfg = creds.Config()
		}

		if creds.Token.Valid() {
			logger.Debug("using cached token")
			a.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultCached)
			return a.session(ctx, cfg, creds.Token), nil
		}

		if creds.Token.RefreshToken != "" {
			tok, err := a.flow.Refresh(ctx, cfg, creds.Token)
			if err == nil {
				a.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
				logger.Info("refreshed access token")
				if err := a.store.Save(tok, cfg); err != nil {
					return nil, err
				}
				return a.session(ctx, cfg, tok), nil
			}
			a.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
			logger.Warn("token refresh failed, falling back to consent", logging.Err(err))
		}
	}

	if secretErr != nil {
		a.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return nil, secretErr
	}

	tok, err := a.flow.Consent(ctx, secretCfg)
	if err != nil {
		a.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	a.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	logger.Info("authorization complete", "path", a.store.Path())

	if err := a.store.Save(tok, secretCfg); err != nil {
		return nil, err
	}
	return a.session(ctx, secretCfg, tok), nil
}

// clientConfig loads the client secret file. A missing file yields an error
// wrapping ErrClientSecretMissing.
func (a *Authenticator) clientConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(a.cfg.ClientSecretFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrClientSecretMissing, a.cfg.ClientSecretFile)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, a.cfg.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	return cfg, nil
}

// session builds a Session whose token source refreshes transparently and
// writes refreshed tokens back to the store. The token source keeps its
// context for every later refresh, so it is detached from ctx cancellation;
// a session outlives the call that authenticated it.
func (a *Authenticator) session(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) *Session {
	src := &persistingSource{
		base:   cfg.TokenSource(context.WithoutCancel(ctx), tok),
		store:  a.store,
		cfg:    cfg,
		last:   tok.AccessToken,
		logger: a.logger,
	}
	ts := oauth2.ReuseTokenSource(tok, src)

	// Force HTTP/1.1 by disabling HTTP/2
	client := &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				ForceAttemptHTTP2: false,
			},
		},
	}

	return &Session{TokenSource: ts, HTTPClient: client}
}

// persistingSource saves tokens refreshed during a long run.
type persistingSource struct {
	base   oauth2.TokenSource
	store  *TokenStore
	cfg    *oauth2.Config
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.store.Save(tok, s.cfg); err != nil {
			s.logger.Warn("failed to persist refreshed token", logging.Err(err))
		}
	}
	return tok, nil
}
