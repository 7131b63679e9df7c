// Package common provides shared utilities for MCP tool implementations,
// such as the instrumentation wrapper applied to every tool handler.
package common
