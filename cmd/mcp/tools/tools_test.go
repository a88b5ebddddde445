package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/elC0mpa/cloud-steward/cmd/mcp/response"
	"github.com/elC0mpa/cloud-steward/config"
	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"github.com/elC0mpa/cloud-steward/service/inventory"
	"github.com/elC0mpa/cloud-steward/service/runtime"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubBilling struct{}

func (stubBilling) MonthToDate(context.Context) (*model.SpendSummary, error) {
	now := time.Now().UTC()
	return &model.SpendSummary{
		Provider: model.ProviderAWS,
		Start:    time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		End:      now,
		Total:    12.5,
		Currency: "USD",
	}, nil
}

type stubAdapter struct{}

func (stubAdapter) Provider() model.Provider { return model.ProviderAWS }

func (stubAdapter) ListResources(context.Context, model.Credentials, []model.Category) (*model.DiscoveryResult, error) {
	return &model.DiscoveryResult{Records: []model.RawRecord{
		model.AWSVolume{Volume: ec2types.Volume{
			VolumeId:         aws.String("vol-1"),
			Size:             aws.Int32(100),
			State:            ec2types.VolumeStateAvailable,
			VolumeType:       ec2types.VolumeTypeGp3,
			AvailabilityZone: aws.String("us-east-1a"),
		}},
	}}, nil
}

func (stubAdapter) Sources(context.Context, model.Credentials) (*service.ProviderSources, error) {
	return &service.ProviderSources{Billing: stubBilling{}}, nil
}

func newRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	cfg := config.Default()
	cfg.Store = inventory.InMemoryConfig()
	rt, err := runtime.New(context.Background(), &cfg, zaptest.NewLogger(t), runtime.Options{
		Adapters: []service.ProviderAdapter{stubAdapter{}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	return res
}

func decode(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	require.False(t, res.IsError, "tool returned an error: %v", res.Content)
	require.NotEmpty(t, res.Content)
	textContent, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(textContent.Text), v))
}

func TestInventoryTools(t *testing.T) {
	rt := newRuntime(t)

	var synced response.SyncResponse
	decode(t, call(t, makeSyncHandler(rt), map[string]any{"account_id": "aws-default"}), &synced)
	require.Len(t, synced.Results, 1)
	assert.Equal(t, 1, synced.Results[0].Inserted)
	assert.Empty(t, synced.Error)

	var list response.ResourceList
	decode(t, call(t, makeListHandler(rt), map[string]any{"account_id": "aws-default", "type": "storage"}), &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "vol-1", list.Resources[0].ID)
	assert.Positive(t, list.TotalMonthly)
}

func TestSyncAllAccounts(t *testing.T) {
	rt := newRuntime(t)

	var synced response.SyncResponse
	decode(t, call(t, makeSyncHandler(rt), map[string]any{}), &synced)
	require.Len(t, synced.Results, 1)
	assert.Equal(t, "aws-default", synced.Results[0].AccountID)
}

func TestSync_UnknownAccountIsToolError(t *testing.T) {
	rt := newRuntime(t)
	res := call(t, makeSyncHandler(rt), map[string]any{"account_id": "nope"})
	assert.True(t, res.IsError)
}

func TestRecommendationTools(t *testing.T) {
	rt := newRuntime(t)
	call(t, makeSyncHandler(rt), map[string]any{"account_id": "aws-default"})

	var analyzed response.RecommendationList
	decode(t, call(t, makeAnalyzeHandler(rt), map[string]any{"account_id": "aws-default"}), &analyzed)
	require.Equal(t, 1, analyzed.Count)
	rec := analyzed.Recommendations[0]
	assert.Equal(t, model.RecommendationUnusedResource, rec.Type)

	var updated model.OptimizationRecommendation
	decode(t, call(t, makeSetStatusHandler(rt), map[string]any{"id": rec.ID, "status": "applied"}), &updated)
	assert.Equal(t, model.RecommendationApplied, updated.Status)

	var pending response.RecommendationList
	decode(t, call(t, makeRecommendationListHandler(rt), map[string]any{"account_id": "aws-default", "status": "pending"}), &pending)
	assert.Zero(t, pending.Count)

	res := call(t, makeSetStatusHandler(rt), map[string]any{"id": rec.ID, "status": "archived"})
	assert.True(t, res.IsError)
}

func TestSpendReportTool(t *testing.T) {
	rt := newRuntime(t)
	call(t, makeSyncHandler(rt), map[string]any{"account_id": "aws-default"})

	var report response.SpendReport
	decode(t, call(t, makeSpendHandler(rt), map[string]any{"account_id": "aws-default"}), &report)
	require.NotNil(t, report.SpendReport)
	assert.Equal(t, 12.5, report.BilledToDate)
	assert.Equal(t, 1, report.Resources)
	assert.Nil(t, report.History)

	res := call(t, makeSpendHandler(rt), map[string]any{"account_id": "aws-default", "history": true})
	assert.True(t, res.IsError)
}

func TestNotifyDispatch_NoChannels(t *testing.T) {
	rt := newRuntime(t)

	var result model.DispatchResult
	decode(t, call(t, makeDispatchHandler(rt), map[string]any{
		"event": map[string]any{
			"type":          "approved",
			"requestId":     "req-1",
			"requester":     "dev@example.com",
			"resourceType":  "vm",
			"estimatedCost": 42.0,
		},
	}), &result)
	assert.True(t, result.Success)

	res := call(t, makeDispatchHandler(rt), map[string]any{})
	assert.True(t, res.IsError)
}
