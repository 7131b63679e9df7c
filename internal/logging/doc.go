// Package logging provides structured logging utilities for inboxalert.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Logger construction from command-line/environment settings (text or JSON)
//   - PII sanitization (sender addresses are hashed before logging)
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for components that take a narrow logger
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "gmail.list")
//	logger.Info("listed unread messages",
//	    logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("processing message",
//	    logging.MessageID(id),
//	    logging.Sender(email.From))
//
// # Security Considerations
//
//   - Sender addresses are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging
