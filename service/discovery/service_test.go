package discovery

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func noSleep(context.Context, time.Duration) error { return nil }

func records(n int) []model.RawRecord {
	out := make([]model.RawRecord, 0, n)
	for range n {
		out = append(out, model.AWSInstance{})
	}
	return out
}

func TestCollect_IsolatesFailures(t *testing.T) {
	s := NewService(DefaultConfig(), zaptest.NewLogger(t), retry.WithSleep(noSleep))

	result := s.Collect(context.Background(), model.AllCategories, map[model.Category]Fetcher{
		model.ResourceCompute: func(ctx context.Context) ([]model.RawRecord, error) { return records(2), nil },
		model.ResourceStorage: func(ctx context.Context) ([]model.RawRecord, error) {
			return nil, &model.AuthenticationError{Op: "DescribeVolumes", Err: errors.New("denied")}
		},
		model.ResourceNetwork: func(ctx context.Context) ([]model.RawRecord, error) { return records(1), nil },
	}, nil)

	assert.Len(t, result.Records, 3)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, model.ResourceStorage, result.Errors[0].Category)
	assert.True(t, model.IsAuthentication(result.Errors[0]))
	assert.True(t, result.Partial())
}

func TestCollect_RetriesNetworkErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retry.MaxAttempts = 3
	s := NewService(cfg, zaptest.NewLogger(t), retry.WithSleep(noSleep))

	var calls atomic.Int32
	result := s.Collect(context.Background(), []model.Category{model.ResourceCompute}, map[model.Category]Fetcher{
		model.ResourceCompute: func(ctx context.Context) ([]model.RawRecord, error) {
			if calls.Add(1) < 3 {
				return nil, &model.NetworkError{Op: "DescribeInstances", StatusCode: 503, Err: errors.New("unavailable")}
			}
			return records(1), nil
		},
	}, nil)

	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, result.Records, 1)
	assert.False(t, result.Partial())
}

func TestCollect_DeadlineIsRetryableNetworkError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CallTimeout = 10 * time.Millisecond
	cfg.Retry.MaxAttempts = 2
	s := NewService(cfg, zaptest.NewLogger(t), retry.WithSleep(noSleep))

	var calls atomic.Int32
	result := s.Collect(context.Background(), []model.Category{model.ResourceDatabase}, map[model.Category]Fetcher{
		model.ResourceDatabase: func(ctx context.Context) ([]model.RawRecord, error) {
			calls.Add(1)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}, nil)

	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, result.Errors, 1)
	assert.True(t, model.IsNetwork(result.Errors[0]))
}

func TestCollect_RespectsConcurrencyCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Concurrency = 2
	s := NewService(cfg, zaptest.NewLogger(t))

	var active, peak atomic.Int32
	fetch := func(ctx context.Context) ([]model.RawRecord, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
		return records(1), nil
	}

	fetchers := map[model.Category]Fetcher{}
	for _, c := range model.AllCategories {
		fetchers[c] = fetch
	}

	result := s.Collect(context.Background(), model.AllCategories, fetchers, nil)
	assert.Len(t, result.Records, 4)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestCollect_SkipsUnsupportedCategories(t *testing.T) {
	s := NewService(DefaultConfig(), zaptest.NewLogger(t))

	result := s.Collect(context.Background(), model.AllCategories, map[model.Category]Fetcher{
		model.ResourceCompute: func(ctx context.Context) ([]model.RawRecord, error) { return records(1), nil },
	}, nil)

	assert.Len(t, result.Records, 1)
	assert.Empty(t, result.Errors)
}

func TestIdentityFailure(t *testing.T) {
	plain := errors.New("no credentials in chain")
	err := IdentityFailure("get identity", plain, nil)
	assert.True(t, model.IsAuthentication(err))
	assert.ErrorIs(t, err, plain)

	err = IdentityFailure("get identity", context.DeadlineExceeded, nil)
	assert.True(t, model.IsNetwork(err))
	assert.False(t, model.IsAuthentication(err))
}
