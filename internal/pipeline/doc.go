// Package pipeline runs one pass over the unread inbox.
//
// Each message is fetched, classified, forwarded to the notification channel
// and marked read only when the notification was accepted. A message whose
// notification fails stays unread, so the next run delivers it again
// (at-least-once delivery). Messages are handled sequentially and failures
// are never retried within a run.
package pipeline
