// Package inbox defines the transient email record passed between the
// fetcher, classifier and notifier stages of a run.
package inbox
