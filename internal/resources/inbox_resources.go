package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxalert/internal/classifier"
	"github.com/teemow/inboxalert/internal/server"
)

// Resource URIs.
const (
	RulesURI   = "inboxalert://rules"
	LastRunURI = "inboxalert://last-run"
)

// RegisterInboxResources registers the rules and last-run resources
func RegisterInboxResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	rulesResource := mcp.NewResource(
		RulesURI,
		"Classification Rules",
		mcp.WithResourceDescription("Ordered keyword rules used to categorize messages; the first matching rule wins"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(rulesResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleRules(ctx, request, sc)
	})

	lastRunResource := mcp.NewResource(
		LastRunURI,
		"Last Inbox Check",
		mcp.WithResourceDescription("Summary of the most recent inbox check performed by this server"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(lastRunResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleLastRun(ctx, request, sc)
	})

	return nil
}

// handleRules returns the active classification rules
func handleRules(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	c := sc.Classifier()

	rulesData := struct {
		Rules   []classifier.Rule `json:"rules"`
		Default string            `json:"default"`
	}{
		Rules:   c.Rules(),
		Default: c.DefaultLabel(),
	}

	return jsonContents(request.Params.URI, rulesData)
}

// handleLastRun returns the most recent run record, or an empty object
// before the first check
func handleLastRun(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	var data interface{} = struct{}{}
	if record := sc.LastRun(); record != nil {
		data = record
	}
	return jsonContents(request.Params.URI, data)
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
