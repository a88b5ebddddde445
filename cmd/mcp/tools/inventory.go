package tools

import (
	"context"

	"github.com/elC0mpa/cloud-steward/cmd/mcp/response"
	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service/runtime"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"
)

var categoryNames = []string{
	string(model.ResourceCompute),
	string(model.ResourceStorage),
	string(model.ResourceDatabase),
	string(model.ResourceNetwork),
}

func registerInventoryTools(s *server.MCPServer, rt *runtime.Runtime) {
	s.AddTool(
		mcp.NewTool("inventory_sync",
			mcp.WithDescription("Discover the resources of a cloud account and reconcile them into the inventory. Without account_id every registered account is synced."),
			mcp.WithString("account_id", mcp.Description("Account to sync")),
			mcp.WithArray("categories",
				mcp.Description("Resource categories to discover, all when omitted. A partial sync never deletes unseen resources."),
				mcp.Items(map[string]any{"type": "string", "enum": categoryNames}),
			),
		),
		makeSyncHandler(rt),
	)

	s.AddTool(
		mcp.NewTool("inventory_list",
			mcp.WithDescription("List the inventoried resources of an account with their estimated monthly cost"),
			mcp.WithString("account_id", mcp.Required(), mcp.Description("Account to list")),
			mcp.WithString("type", mcp.Description("Only list this resource type"), mcp.Enum(categoryNames...)),
		),
		makeListHandler(rt),
	)
}

func makeSyncHandler(rt *runtime.Runtime) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		accountID := request.GetString("account_id", "")
		categories := lo.Map(request.GetStringSlice("categories", nil), func(c string, _ int) model.Category {
			return model.Category(c)
		})

		if accountID == "" {
			ids, err := rt.AccountIDs(ctx)
			if err != nil {
				return errorResult("list accounts", err)
			}
			results, err := rt.Orchestrator.SyncAll(ctx, ids)
			resp := response.SyncResponse{Results: results}
			if err != nil {
				resp.Error = err.Error()
			}
			return jsonResult(resp)
		}

		result, err := rt.Orchestrator.Sync(ctx, model.SyncRequest{AccountID: accountID, Categories: categories})
		if result == nil {
			return errorResult("sync "+accountID, err)
		}
		resp := response.SyncResponse{Results: []*model.SyncResult{result}}
		if err != nil {
			resp.Error = err.Error()
		}
		return jsonResult(resp)
	}
}

func makeListHandler(rt *runtime.Runtime) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		accountID, err := request.RequireString("account_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		resources, err := rt.Store.List(ctx, accountID)
		if err != nil {
			return errorResult("list inventory", err)
		}
		typ := model.ResourceType(request.GetString("type", ""))
		return jsonResult(response.ConvertResources(accountID, resources, typ))
	}
}
