package tools

import (
	"encoding/json"
	"fmt"

	"github.com/elC0mpa/cloud-steward/service/runtime"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Register adds every steward tool to the MCP server
func Register(s *server.MCPServer, rt *runtime.Runtime) {
	registerInventoryTools(s, rt)
	registerRecommendationTools(s, rt)
	registerSpendTools(s, rt)
	registerNotifyTools(s, rt)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func errorResult(action string, err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err)), nil
}
