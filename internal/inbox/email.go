package inbox

import "strings"

// Email holds the details of a single unread message.
//
// ID is always set. From and Subject are empty when the details could not be
// fetched. Body is only populated when the run fetches full messages.
type Email struct {
	ID      string
	From    string
	Subject string
	Body    string
}

// IsEmpty reports whether neither sender nor subject could be determined.
// Such messages are skipped; a missing body alone is not a reason to skip.
func (e Email) IsEmpty() bool {
	return e.From == "" && e.Subject == ""
}

// SenderName returns the display name part of the From header,
// e.g. "Jane Doe" for "Jane Doe <jane@example.com>".
// If there is no display name the raw header value is returned.
func (e Email) SenderName() string {
	name := strings.TrimSpace(strings.SplitN(e.From, "<", 2)[0])
	if name == "" {
		return strings.Trim(strings.TrimSpace(e.From), "<>")
	}
	return name
}

// SenderAddress returns the address part of the From header.
func (e Email) SenderAddress() string {
	from := strings.TrimSpace(e.From)
	start := strings.LastIndex(from, "<")
	end := strings.LastIndex(from, ">")
	if start >= 0 && end > start {
		return from[start+1 : end]
	}
	return from
}
