package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docsmith/app/config"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

type mcpClientWrapper struct {
	client client.MCPClient
	name   string
}

type mcpToolAdapter struct {
	client client.MCPClient
	tool   mcp.Tool
}

func (m *mcpToolAdapter) Execute(ctx context.Context, params map[string]any) (map[string]any, error) {
	callRequest := mcp.CallToolRequest{
		Request: mcp.Request{
			Method: "tools/call",
		},
	}

	callRequest.Params.Name = m.tool.Name
	callRequest.Params.Arguments = params

	response, err := m.client.CallTool(ctx, callRequest)
	if err != nil {
		return nil, fmt.Errorf("MCP tool call failed: %w", err)
	}

	var text strings.Builder
	for _, content := range response.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			text.WriteString(textContent.Text)
			text.WriteString("\n")
		}
	}

	return map[string]any{
		"output": strings.TrimSpace(text.String()),
	}, nil
}

// connectMCPServer launches a stdio MCP server and registers every tool
// it advertises as an adapter named "<server>.<tool>".
func (s *Service) connectMCPServer(server config.MCPServer) error {
	mcpClient, err := client.NewStdioMCPClient(server.Command, nil, server.Args...)
	if err != nil {
		return fmt.Errorf("failed to create MCP client for %s: %w", server.Name, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "docsmith-executor",
		Version: "1.0.0",
	}

	if _, err = mcpClient.Initialize(ctx, initRequest); err != nil {
		return fmt.Errorf("failed to initialize MCP client %s: %w", server.Name, err)
	}

	toolsResponse, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list tools from %s: %w", server.Name, err)
	}

	for _, mcpTool := range toolsResponse.Tools {
		s.RegisterAdapter(
			fmt.Sprintf("%s.%s", server.Name, mcpTool.Name),
			&mcpToolAdapter{client: mcpClient, tool: mcpTool},
		)
	}

	s.mcpClients = append(s.mcpClients, &mcpClientWrapper{
		client: mcpClient,
		name:   server.Name,
	})

	return nil
}
