package inbox

import "testing"

func TestEmail_IsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		email Email
		want  bool
	}{
		{"no details", Email{ID: "1"}, true},
		{"only body", Email{ID: "1", Body: "hello"}, true},
		{"only sender", Email{ID: "1", From: "a@example.com"}, false},
		{"only subject", Email{ID: "1", Subject: "hi"}, false},
		{"full", Email{ID: "1", From: "a@example.com", Subject: "hi", Body: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.email.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmail_SenderName(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{"Jane Doe <jane@example.com>", "Jane Doe"},
		{"  Bank Alerts   <alerts@bank.example>", "Bank Alerts"},
		{"jane@example.com", "jane@example.com"},
		{"<jane@example.com>", "jane@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			e := Email{From: tt.from}
			if got := e.SenderName(); got != tt.want {
				t.Errorf("SenderName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEmail_SenderAddress(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{"Jane Doe <jane@example.com>", "jane@example.com"},
		{"jane@example.com", "jane@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			e := Email{From: tt.from}
			if got := e.SenderAddress(); got != tt.want {
				t.Errorf("SenderAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}
