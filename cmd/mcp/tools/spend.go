package tools

import (
	"context"
	"fmt"

	"github.com/elC0mpa/cloud-steward/cmd/mcp/response"
	"github.com/elC0mpa/cloud-steward/service/runtime"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerSpendTools(s *server.MCPServer, rt *runtime.Runtime) {
	s.AddTool(
		mcp.NewTool("spend_report",
			mcp.WithDescription("Compare the estimated monthly cost of an account's inventory with its billed month-to-date spend projected to the full month"),
			mcp.WithString("account_id", mcp.Required(), mcp.Description("Account to report on")),
			mcp.WithBoolean("history", mcp.Description("Include the closed monthly totals with summary statistics")),
		),
		makeSpendHandler(rt),
	)
}

func makeSpendHandler(rt *runtime.Runtime) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		accountID, err := request.RequireString("account_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		account, sources, err := rt.Orchestrator.Sources(ctx, accountID)
		if err != nil {
			return errorResult("resolve billing for "+accountID, err)
		}
		if sources.Billing == nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s accounts have no billing source configured", account.Provider)), nil
		}

		report, err := rt.Spend.Report(ctx, accountID, sources.Billing)
		if err != nil {
			return errorResult("build spend report", err)
		}

		resp := response.SpendReport{SpendReport: report}
		if request.GetBool("history", false) {
			months, err := rt.Spend.History(ctx, sources.History)
			if err != nil {
				return errorResult("get spend history", err)
			}
			resp.History = response.ConvertTrendData(months)
		}
		return jsonResult(resp)
	}
}
