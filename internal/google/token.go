package google

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// expiryLayout matches the naive UTC timestamps google-auth writes.
const expiryLayout = "2006-01-02T15:04:05.000000Z"

// storedToken is the on-disk token format.
type storedToken struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	TokenURI     string   `json:"token_uri,omitempty"`
	ClientID     string   `json:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	Expiry       string   `json:"expiry,omitempty"`
}

// Credentials is a cached token together with the OAuth client it was
// issued to.
type Credentials struct {
	Token        *oauth2.Token
	ClientID     string
	ClientSecret string
	TokenURI     string
	Scopes       []string
}

// Config builds an OAuth configuration able to refresh the token without
// the client secret file.
func (c *Credentials) Config() *oauth2.Config {
	endpoint := google.Endpoint
	if c.TokenURI != "" {
		endpoint.TokenURL = c.TokenURI
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       c.Scopes,
	}
}

// TokenStore reads and writes the token file.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store for the token file at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the cached credentials. A missing file is reported with an
// error wrapping os.ErrNotExist.
func (s *TokenStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", s.path, err)
	}
	if st.Token == "" && st.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s holds neither an access nor a refresh token", s.path)
	}

	tok := &oauth2.Token{
		AccessToken:  st.Token,
		TokenType:    "Bearer",
		RefreshToken: st.RefreshToken,
	}
	if st.Expiry != "" {
		expiry, err := parseExpiry(st.Expiry)
		if err != nil {
			return nil, fmt.Errorf("failed to parse token expiry %q: %w", st.Expiry, err)
		}
		tok.Expiry = expiry
	}

	return &Credentials{
		Token:        tok,
		ClientID:     st.ClientID,
		ClientSecret: st.ClientSecret,
		TokenURI:     st.TokenURI,
		Scopes:       st.Scopes,
	}, nil
}

// Save writes the token and the OAuth client identity with mode 0600.
// The file is replaced atomically so a crash never leaves a partial token.
func (s *TokenStore) Save(tok *oauth2.Token, cfg *oauth2.Config) error {
	st := storedToken{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if cfg != nil {
		st.TokenURI = cfg.Endpoint.TokenURL
		st.ClientID = cfg.ClientID
		st.ClientSecret = cfg.ClientSecret
		st.Scopes = cfg.Scopes
	}
	if !tok.Expiry.IsZero() {
		st.Expiry = tok.Expiry.UTC().Format(expiryLayout)
	}

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary token file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict token file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

func parseExpiry(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	// google-auth may omit the zone designator
	return time.ParseInLocation("2006-01-02T15:04:05.999999", v, time.UTC)
}
