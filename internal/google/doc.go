// Package google provides OAuth2 authentication for the Gmail API.
//
// Tokens are cached in a JSON file in the authorized-user layout the
// google-auth client libraries write (token, refresh_token, token_uri, ...), so a
// token.json produced by an earlier deployment keeps working. When the cached
// token is missing or cannot be refreshed, the Authenticator runs an
// interactive consent flow on a loopback redirect.
//
// The Flow interface separates token refresh and user consent from token
// persistence so both can be replaced in tests.
package google
