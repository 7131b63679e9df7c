package inbox_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxalert/internal/inbox"
	"github.com/teemow/inboxalert/internal/server"
	"github.com/teemow/inboxalert/internal/tools/common"
)

// Tool names.
const (
	ToolCheck    = "inbox_check"
	ToolClassify = "inbox_classify"
)

// RegisterInboxTools registers the inbox tools with the MCP server
func RegisterInboxTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	checkDescription := "Check the Gmail inbox for unread messages, classify them and forward an alert for each to the configured channel, marking delivered messages as read. Returns a JSON summary."
	if sc.ReadOnly() {
		checkDescription = "Check the Gmail inbox for unread messages and classify them without sending alerts or marking anything read (read-only mode). Returns a JSON summary."
	}

	checkTool := mcp.NewTool(ToolCheck,
		mcp.WithDescription(checkDescription),
		mcp.WithString("window",
			mcp.Description("Only consider messages received within this duration, e.g. '24h' or '30m'. '0' checks all unread messages."),
		),
		mcp.WithBoolean("dryRun",
			mcp.Description("Classify only; do not notify or mark messages read (default: false, always true in read-only mode)"),
		),
		mcp.WithBoolean("withBody",
			mcp.Description("Fetch message bodies for classification and previews"),
		),
	)

	s.AddTool(checkTool, common.InstrumentedToolHandler(ToolCheck, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCheck(ctx, request, sc)
		}))

	classifyTool := mcp.NewTool(ToolClassify,
		mcp.WithDescription("Classify an email by subject and optional body using the configured category rules"),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject line"),
		),
		mcp.WithString("body",
			mcp.Description("Plain text body, matched only when the subject matches no rule and body matching is enabled"),
		),
	)

	s.AddTool(classifyTool, common.InstrumentedToolHandler(ToolClassify, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleClassify(ctx, request, sc)
		}))

	return nil
}

func handleCheck(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	opts := sc.Defaults()

	if window, ok := args["window"].(string); ok && window != "" {
		d, err := time.ParseDuration(window)
		if err != nil || d < 0 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid window %q: use a duration such as 24h", window)), nil
		}
		opts.Window = d
	}
	if dryRun, ok := args["dryRun"].(bool); ok {
		opts.DryRun = opts.DryRun || dryRun
	}
	if withBody, ok := args["withBody"].(bool); ok {
		opts.WithBody = withBody
	}

	summary, err := sc.Run(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inbox check failed: %v", err)), nil
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode summary: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func handleClassify(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	subject, ok := args["subject"].(string)
	if !ok {
		return mcp.NewToolResultError("subject is required"), nil
	}
	body, _ := args["body"].(string)

	category := sc.Classifier().ClassifyEmail(inbox.Email{Subject: subject, Body: body})
	return mcp.NewToolResultText(category), nil
}
