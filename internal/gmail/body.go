package gmail

import (
	"encoding/base64"
	"html"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// PlainTextBody returns the first text/plain body of a message payload,
// decoded and with HTML entities unescaped. Parts are searched depth-first;
// nested multiparts are descended into and the first non-empty match wins.
// Undecodable data yields an empty string.
func PlainTextBody(part *gmail.MessagePart) string {
	data := plainTextData(part)
	if data == "" {
		return ""
	}
	return decodeBody(data)
}

func plainTextData(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}

	if len(part.Parts) == 0 {
		if isPlainText(part) {
			return bodyData(part)
		}
		return ""
	}

	for _, child := range part.Parts {
		if child == nil {
			continue
		}
		switch {
		case isPlainText(child):
			return bodyData(child)
		case strings.HasPrefix(strings.ToLower(child.MimeType), "multipart"):
			if nested := plainTextData(child); nested != "" {
				return nested
			}
		}
	}
	return ""
}

func isPlainText(part *gmail.MessagePart) bool {
	return strings.EqualFold(part.MimeType, "text/plain")
}

func bodyData(part *gmail.MessagePart) string {
	if part.Body == nil {
		return ""
	}
	return part.Body.Data
}

// decodeBody decodes base64url body data with or without padding. Invalid
// UTF-8 sequences are dropped.
func decodeBody(data string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(data), "=")

	decoded, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		// Try with standard base64 if URL encoding fails
		decoded, err = base64.RawStdEncoding.DecodeString(trimmed)
		if err != nil {
			return ""
		}
	}

	text := strings.ToValidUTF8(string(decoded), "")
	return html.UnescapeString(strings.TrimSpace(text))
}

// HeaderValue returns the value of the named header, compared
// case-insensitively. When a header repeats, the last value wins.
func HeaderValue(part *gmail.MessagePart, name string) string {
	if part == nil {
		return ""
	}
	var value string
	for _, h := range part.Headers {
		if h != nil && strings.EqualFold(h.Name, name) {
			value = h.Value
		}
	}
	return value
}
