package discovery

import (
	"context"
	"sync"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service/retry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func NewService(cfg Config, logger *zap.Logger, opts ...retry.Option) *service {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if cfg.Concurrency < 1 {
		cfg.Concurrency = defaults.Concurrency
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaults.CallTimeout
	}

	return &service{
		cfg:     cfg,
		retrier: retry.NewService(cfg.Retry, opts...),
		logger:  logger.Named("discovery"),
	}
}

// Collect fetches every requested category that has a fetcher. A failing
// category is recorded in the result and never cancels its siblings. Records
// keep the order of categories.
func (s *service) Collect(ctx context.Context, categories []model.Category, fetchers map[model.Category]Fetcher, classify Classifier) *model.DiscoveryResult {
	if classify == nil {
		classify = model.ClassifyTransport
	}

	var (
		mu       sync.Mutex
		byIndex  = make([][]model.RawRecord, len(categories))
		failures []model.CategoryError
	)

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	for i, category := range categories {
		fetch, ok := fetchers[category]
		if !ok {
			s.logger.Debug("category not supported by provider", zap.String("category", string(category)))
			continue
		}

		g.Go(func() error {
			records, err := retry.Do(ctx, s.retrier, func(ctx context.Context) ([]model.RawRecord, error) {
				callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
				defer cancel()

				records, err := fetch(callCtx)
				if err != nil {
					return nil, classify("list "+string(category), err)
				}
				return records, nil
			}, nil)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				s.logger.Warn("category discovery failed",
					zap.String("category", string(category)),
					zap.Error(err))
				failures = append(failures, model.CategoryError{Category: category, Err: err})
				return nil
			}
			byIndex[i] = records
			return nil
		})
	}
	_ = g.Wait()

	result := &model.DiscoveryResult{Errors: failures}
	for _, records := range byIndex {
		result.Records = append(result.Records, records...)
	}
	return result
}
