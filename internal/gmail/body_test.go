package gmail

import (
	"encoding/base64"
	"testing"

	gmail "google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func rawB64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func leaf(mimeType, data string) *gmail.MessagePart {
	return &gmail.MessagePart{MimeType: mimeType, Body: &gmail.MessagePartBody{Data: data}}
}

func multipart(mimeType string, parts ...*gmail.MessagePart) *gmail.MessagePart {
	return &gmail.MessagePart{MimeType: mimeType, Parts: parts}
}

func TestPlainTextBody(t *testing.T) {
	tests := []struct {
		name    string
		payload *gmail.MessagePart
		want    string
	}{
		{
			name:    "single part plain text",
			payload: leaf("text/plain", b64("Hello there")),
			want:    "Hello there",
		},
		{
			name:    "single part html is ignored",
			payload: leaf("text/html", b64("<p>Hello</p>")),
			want:    "",
		},
		{
			name: "multipart alternative picks plain text",
			payload: multipart("multipart/alternative",
				leaf("text/html", b64("<p>Your invoice</p>")),
				leaf("text/plain", b64("Your invoice is ready")),
			),
			want: "Your invoice is ready",
		},
		{
			name: "nested multipart mixed",
			payload: multipart("multipart/mixed",
				multipart("multipart/alternative",
					leaf("text/plain", b64("Nested body")),
					leaf("text/html", b64("<b>Nested body</b>")),
				),
				leaf("application/pdf", b64("%PDF-1.4")),
			),
			want: "Nested body",
		},
		{
			name: "empty nested multipart falls through to sibling",
			payload: multipart("multipart/mixed",
				multipart("multipart/related", leaf("text/html", b64("<i>x</i>"))),
				leaf("text/plain", b64("Sibling body")),
			),
			want: "Sibling body",
		},
		{
			name:    "unpadded base64url",
			payload: leaf("text/plain", rawB64("Ünïcödé body?>")),
			want:    "Ünïcödé body?>",
		},
		{
			name:    "html entities unescaped and whitespace trimmed",
			payload: leaf("text/plain", b64("\n  Tom &amp; Jerry &lt;3  \n")),
			want:    "Tom & Jerry <3",
		},
		{
			name:    "invalid utf-8 dropped",
			payload: leaf("text/plain", base64.URLEncoding.EncodeToString([]byte("ok\xff\xfe done"))),
			want:    "ok done",
		},
		{
			name:    "bad base64 yields empty body",
			payload: leaf("text/plain", "!!!not-base64!!!"),
			want:    "",
		},
		{
			name:    "missing body",
			payload: &gmail.MessagePart{MimeType: "text/plain"},
			want:    "",
		},
		{
			name:    "nil payload",
			payload: nil,
			want:    "",
		},
		{
			name:    "mime type compared case-insensitively",
			payload: multipart("Multipart/Alternative", leaf("TEXT/PLAIN", b64("Shouting"))),
			want:    "Shouting",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainTextBody(tt.payload); got != tt.want {
				t.Errorf("PlainTextBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeaderValue(t *testing.T) {
	payload := &gmail.MessagePart{
		Headers: []*gmail.MessagePartHeader{
			{Name: "from", Value: "Jane <jane@example.com>"},
			{Name: "SUBJECT", Value: "first"},
			{Name: "Subject", Value: "second"},
		},
	}

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"lower-case header name", "From", "Jane <jane@example.com>"},
		{"repeated header keeps last", "Subject", "second"},
		{"missing header", "Date", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HeaderValue(payload, tt.header); got != tt.want {
				t.Errorf("HeaderValue(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}

	if got := HeaderValue(nil, "From"); got != "" {
		t.Errorf("HeaderValue(nil) = %q, want empty", got)
	}
}
