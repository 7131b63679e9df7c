// Package notify formats alerts for classified messages and delivers them to
// a single messaging channel.
//
// Three channels are supported:
//
//   - webhook: a Slack-compatible incoming webhook receiving {"text": ...}
//   - twilio: WhatsApp or SMS through the Twilio Messages API
//   - signal: a Signal number or group through signal-cli
//
// A Notifier reports delivery failures as *Error so callers can leave the
// message unread and retry it on the next run.
package notify
