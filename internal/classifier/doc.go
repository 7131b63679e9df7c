// Package classifier maps an email subject (and optionally its body) to a
// single category label using an ordered list of keyword rules.
//
// Rules are evaluated in order and the first rule with any keyword contained
// in the lower-cased text wins. Messages that match no rule get the default
// label. Classification is pure and deterministic.
//
// Example usage:
//
//	c := classifier.New(classifier.DefaultRules())
//	label := c.Classify("Invoice #123 due") // "💰 Banking / Payments"
package classifier
