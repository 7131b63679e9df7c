package instrumentation

import "strings"

// Cardinality helpers for values derived from message content.
//
// Sender addresses are unbounded; only their domain may become a metric
// label, and only when DetailedLabels is enabled.

// SenderAddress returns the bare address of a From header value such as
// "Jane Doe <jane@example.com>". Values without angle brackets are
// returned trimmed.
func SenderAddress(from string) string {
	addr := from
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = addr[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(addr), ">"))
}

// SenderDomain extracts the lower-cased domain of a From header value.
//
// Example:
//
//	SenderDomain("Jane <jane@Example.com>")  // "example.com"
//	SenderDomain("invalid")                  // "unknown"
//	SenderDomain("")                         // "unknown"
func SenderDomain(from string) string {
	addr := SenderAddress(from)
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return "unknown"
	}
	return strings.ToLower(addr[at+1:])
}
