// Package inbox_tools exposes inboxalert over MCP.
//
// Tools:
//   - inbox_check: run one inbox pass and return the summary as JSON.
//     Unless the server was started with --yolo the pass is a dry run:
//     messages are classified but nothing is sent or marked read.
//   - inbox_classify: classify a subject (and optionally a body) offline.
package inbox_tools
