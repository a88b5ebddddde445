package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service/runtime"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"
)

func registerNotifyTools(s *server.MCPServer, rt *runtime.Runtime) {
	s.AddTool(
		mcp.NewTool("notify_dispatch",
			mcp.WithDescription("Send a provisioning lifecycle event to the configured notification channels"),
			mcp.WithObject("event",
				mcp.Required(),
				mcp.Description("Event with type, requestId, requester, resourceType, estimatedCost and optional approver, comments and error"),
				mcp.Properties(map[string]any{
					"type": map[string]any{
						"type": "string",
						"enum": []string{
							string(model.EventSubmitted), string(model.EventApprovalRequired), string(model.EventApproved),
							string(model.EventRejected), string(model.EventProvisioningStarted),
							string(model.EventProvisioningCompleted), string(model.EventProvisioningFailed),
						},
					},
					"requestId":     map[string]any{"type": "string"},
					"requester":     map[string]any{"type": "string"},
					"resourceType":  map[string]any{"type": "string"},
					"estimatedCost": map[string]any{"type": "number"},
					"approver":      map[string]any{"type": "string"},
					"comments":      map[string]any{"type": "string"},
					"error":         map[string]any{"type": "string"},
				}),
			),
			mcp.WithArray("channels",
				mcp.Description("Only deliver to these channel types"),
				mcp.Items(map[string]any{"type": "string", "enum": []string{"email", "slack", "teams", "webhook"}}),
			),
		),
		makeDispatchHandler(rt),
	)
}

func makeDispatchHandler(rt *runtime.Runtime) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := request.GetArguments()["event"]
		if !ok {
			return mcp.NewToolResultError("required argument \"event\" not found"), nil
		}
		event, err := decodeEvent(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid event: %v", err)), nil
		}

		channels := rt.Config.EnabledChannels()
		if only := request.GetStringSlice("channels", nil); len(only) > 0 {
			channels = lo.Filter(channels, func(ch model.NotificationChannel, _ int) bool {
				return lo.Contains(only, string(ch.Type))
			})
		}

		return jsonResult(rt.Dispatcher.Dispatch(ctx, event, channels))
	}
}

func decodeEvent(raw any) (model.NotificationEvent, error) {
	var event model.NotificationEvent
	data, err := json.Marshal(raw)
	if err != nil {
		return event, err
	}
	err = json.Unmarshal(data, &event)
	return event, err
}
