package google

import gmail "google.golang.org/api/gmail/v1"

// DefaultScopes are the OAuth scopes inboxalert requests.
//
// The scopes provide access to:
//   - Gmail: read messages and headers
//   - Gmail: modify labels (remove UNREAD once a message was forwarded)
var DefaultScopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailModifyScope,
}
