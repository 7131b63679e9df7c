package notify

import (
	"strings"

	"github.com/teemow/inboxalert/internal/inbox"
)

// Preview flattens body onto one line and truncates it to n characters,
// appending "..." only when something was cut off.
func Preview(body string, n int) string {
	flat := strings.ReplaceAll(body, "\r\n", " ")
	flat = strings.TrimSpace(strings.ReplaceAll(flat, "\n", " "))
	if n < 0 {
		n = 0
	}

	runes := []rune(flat)
	if len(runes) <= n {
		return flat
	}
	return string(runes[:n]) + "..."
}

// FormatChat renders the chat webhook message:
//
//	*<category>*
//	*From:* <sender name>
//	*Subject:* <subject>
//	<preview>
func FormatChat(email inbox.Email, category string, previewLength int) string {
	var b strings.Builder
	b.WriteString("*" + category + "*\n")
	b.WriteString("*From:* " + email.SenderName() + "\n")
	b.WriteString("*Subject:* " + strings.TrimSpace(email.Subject))

	if preview := bodyPreview(email, previewLength); preview != "" {
		b.WriteString("\n" + preview)
	}
	return b.String()
}

// FormatAlert renders the alert block sent over Twilio and Signal.
func FormatAlert(email inbox.Email, category string, previewLength int) string {
	var b strings.Builder
	b.WriteString("🚨 *New Email Alert*\n\n")
	b.WriteString("📂 *Category:* " + category + "\n")
	b.WriteString("👤 *From:* " + email.From + "\n")
	b.WriteString("📝 *Subject:* " + email.Subject + "\n")

	if preview := bodyPreview(email, previewLength); preview != "" {
		b.WriteString("💬 " + preview + "\n")
	}

	b.WriteString("\n---\n_Sent by Gmail Monitor_")
	return b.String()
}

func bodyPreview(email inbox.Email, n int) string {
	if email.Body == "" || n == 0 {
		return ""
	}
	return Preview(email.Body, n)
}
