package tools

import (
	"context"
	"fmt"

	"github.com/elC0mpa/cloud-steward/cmd/mcp/response"
	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service/runtime"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var statusNames = []string{
	string(model.RecommendationPending),
	string(model.RecommendationApplied),
	string(model.RecommendationDismissed),
}

func registerRecommendationTools(s *server.MCPServer, rt *runtime.Runtime) {
	s.AddTool(
		mcp.NewTool("recommendations_analyze",
			mcp.WithDescription("Analyze the stored inventory of an account for rightsizing, idle, scaling, unused storage and reserved capacity opportunities"),
			mcp.WithString("account_id", mcp.Required(), mcp.Description("Account to analyze")),
		),
		makeAnalyzeHandler(rt),
	)

	s.AddTool(
		mcp.NewTool("recommendations_list",
			mcp.WithDescription("List the recommendations stored for an account"),
			mcp.WithString("account_id", mcp.Required(), mcp.Description("Account to list")),
			mcp.WithString("status", mcp.Description("Only list recommendations in this status"), mcp.Enum(statusNames...)),
		),
		makeRecommendationListHandler(rt),
	)

	s.AddTool(
		mcp.NewTool("recommendation_set_status",
			mcp.WithDescription("Record a decision on a recommendation. Applied and dismissed recommendations are not raised again until the resource changes."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Recommendation id")),
			mcp.WithString("status", mcp.Required(), mcp.Enum(statusNames...)),
		),
		makeSetStatusHandler(rt),
	)
}

func makeAnalyzeHandler(rt *runtime.Runtime) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		accountID, err := request.RequireString("account_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		recs, err := rt.Orchestrator.Analyze(ctx, accountID)
		if err != nil {
			return errorResult("analyze "+accountID, err)
		}
		return jsonResult(response.ConvertRecommendations(accountID, recs, ""))
	}
}

func makeRecommendationListHandler(rt *runtime.Runtime) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		accountID, err := request.RequireString("account_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		recs, err := rt.Store.ListRecommendations(ctx, accountID)
		if err != nil {
			return errorResult("list recommendations", err)
		}
		status := model.RecommendationStatus(request.GetString("status", ""))
		return jsonResult(response.ConvertRecommendations(accountID, recs, status))
	}
}

func makeSetStatusHandler(rt *runtime.Runtime) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		raw, err := request.RequireString("status")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		status, ok := model.ParseRecommendationStatus(raw)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown status %q", raw)), nil
		}

		rec, err := rt.Orchestrator.SetRecommendationStatus(ctx, id, status)
		if err != nil {
			return errorResult("set recommendation status", err)
		}
		return jsonResult(rec)
	}
}
