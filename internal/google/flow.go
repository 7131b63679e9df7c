package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/teemow/inboxalert/internal/logging"
)

// DefaultConsentTimeout bounds how long the consent flow waits for the
// browser redirect.
const DefaultConsentTimeout = 5 * time.Minute

// LocalServerFlow refreshes tokens with the OAuth token endpoint and runs the
// installed-app consent flow with a loopback redirect and PKCE.
type LocalServerFlow struct {
	// Host is the loopback address to listen on (default: 127.0.0.1).
	Host string

	// Port is the redirect port (default: 0, any free port).
	Port int

	// Timeout bounds the wait for the redirect (default: DefaultConsentTimeout).
	Timeout time.Duration

	// Out receives the authorization URL (default: os.Stderr).
	Out io.Writer

	// OpenBrowser opens the authorization URL. Defaults to the platform opener;
	// failures are logged and the user can follow the printed URL instead.
	OpenBrowser func(url string) error

	Logger *slog.Logger
}

// Refresh forces a refresh of tok using its refresh token.
func (f *LocalServerFlow) Refresh(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok.RefreshToken == "" {
		return nil, errors.New("token has no refresh token")
	}
	// Dropping the access token makes the source go to the token endpoint
	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: tok.RefreshToken})
	fresh, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return fresh, nil
}

// callbackResult is what the redirect handler observed.
type callbackResult struct {
	code string
	err  error
}

// Consent runs the authorization code flow and exchanges the returned code.
func (f *LocalServerFlow) Consent(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithOperation(logger, "google.consent")

	host := f.Host
	if host == "" {
		host = "127.0.0.1"
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultConsentTimeout
	}
	out := f.Out
	if out == nil {
		out = os.Stderr
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(f.Port)))
	if err != nil {
		return nil, fmt.Errorf("cannot open redirect listener: %w", err)
	}
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	flowCfg := *cfg
	flowCfg.RedirectURL = fmt.Sprintf("http://localhost:%d/", port)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := flowCfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callbackResult{err: err}:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(out, "Please visit this URL to authorize this application:\n%s\n", authURL)

	open := f.OpenBrowser
	if open == nil {
		open = openBrowser
	}
	if err := open(authURL); err != nil {
		logger.Debug("could not open browser", logging.Err(err))
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var res callbackResult
	select {
	case res = <-results:
	case <-waitCtx.Done():
		return nil, fmt.Errorf("timed out waiting for authorization: %w", waitCtx.Err())
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := flowCfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if tok.RefreshToken == "" {
		logger.Warn("authorization returned no refresh token, the next run will ask again")
	}
	return tok, nil
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()

		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = errors.New("authorization redirect carried an unexpected state")
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization error: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("authorization redirect carried no code")
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			_, _ = io.WriteString(w, "The authentication flow has completed. You may close this window.\n")
		}

		select {
		case results <- res:
		default:
		}
	})
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
