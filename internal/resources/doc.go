// Package resources provides MCP resources for exposing inboxalert state.
// Resources are read-only data sources that MCP clients can fetch:
//   - inboxalert://rules: the ordered classification rules and default label
//   - inboxalert://last-run: the summary of the most recent inbox pass
package resources
