package signal

import "fmt"

// SignalError represents an error that occurred during Signal operations
type SignalError struct {
	// Op is the operation that failed (e.g., "send", "sendGroup", "listGroups")
	Op string

	// UserID is the phone number associated with the operation
	UserID string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *SignalError) Error() string {
	if e.UserID != "" {
		return fmt.Sprintf("signal %s (user: %s): %v", e.Op, e.UserID, e.Err)
	}
	return fmt.Sprintf("signal %s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *SignalError) Unwrap() error {
	return e.Err
}

// Group represents a Signal group as listed by signal-cli
type Group struct {
	// ID is the base64 group identifier used when sending
	ID string `json:"id"`

	// Name is the human-readable group name
	Name string `json:"name"`
}
