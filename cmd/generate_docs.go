package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxalert/internal/resources"
	"github.com/teemow/inboxalert/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for the tools and resources served by
'inboxalert serve', read from the registered tool definitions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			markdown, err := toolsReference()
			if err != nil {
				return err
			}
			if outputFile == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), markdown)
				return err
			}
			if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// toolsReference registers the tools on a throwaway server and renders them.
// No credentials are needed since nothing is invoked.
func toolsReference() (string, error) {
	sc := server.NewServerContext(context.Background(), server.Config{})
	defer func() {
		_ = sc.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("inboxalert", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
	if err := registerAll(mcpSrv, sc); err != nil {
		return "", err
	}

	tools := make([]mcp.Tool, 0)
	for _, st := range mcpSrv.ListTools() {
		tools = append(tools, st.Tool)
	}
	return renderToolsMarkdown(tools), nil
}

func renderToolsMarkdown(tools []mcp.Tool) string {
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })

	var sb strings.Builder
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Tools and resources available when running `inboxalert serve`.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	sb.WriteString("## Safety Mode\n\n")
	sb.WriteString("Unless the server is started with `--yolo`, `inbox_check` runs as a dry run: ")
	sb.WriteString("messages are classified but no alert is sent and nothing is marked as read.\n\n")

	sb.WriteString("## Tools\n\n")
	for _, tool := range tools {
		writeToolMarkdown(&sb, tool)
	}

	sb.WriteString("## Resources\n\n")
	fmt.Fprintf(&sb, "- `%s`: the active classification rules and default category\n", resources.RulesURI)
	fmt.Fprintf(&sb, "- `%s`: the summary of the most recent inbox check\n", resources.LastRunURI)

	return sb.String()
}

func writeToolMarkdown(sb *strings.Builder, tool mcp.Tool) {
	fmt.Fprintf(sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(sb, "%s\n\n", tool.Description)
	}

	props := tool.InputSchema.Properties
	if len(props) == 0 {
		return
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("**Arguments:**\n")
	for _, name := range names {
		prop, ok := props[name].(map[string]interface{})
		if !ok {
			continue
		}

		required := "optional"
		for _, r := range tool.InputSchema.Required {
			if r == name {
				required = "required"
			}
		}

		typ, _ := prop["type"].(string)
		if typ == "" {
			typ = "any"
		}
		desc, _ := prop["description"].(string)
		if desc == "" {
			desc = typ + " parameter"
		}
		fmt.Fprintf(sb, "- `%s` (%s, %s): %s\n", name, typ, required, desc)
	}
	sb.WriteString("\n")
}
