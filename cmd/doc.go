// Package cmd implements the command-line interface for inboxalert.
//
// This package provides the following commands:
//   - run: Check the inbox once and forward alerts for unread messages
//   - auth: Authorize Gmail access and cache the OAuth token
//   - classify: Print the category the rules assign to subjects
//   - serve: Start the MCP server to provide tools for AI assistants
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The run command is the default command when no subcommand is specified.
package cmd
