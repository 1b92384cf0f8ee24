package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/modelrelay/internal/retry"
	"github.com/HerbHall/modelrelay/pkg/llm"
)

// CompareRequest describes one multi-model comparison.
type CompareRequest struct {
	Models  []string
	Message string

	// MaxTokens <= 0 selects DefaultCompareMaxTokens.
	MaxTokens int
}

// modelResult is one comparison slot. Either resp or err is set.
type modelResult struct {
	model string
	resp  *llm.Response
	err   error
}

// Compare runs the same one-turn message against every requested model
// concurrently and renders a side-by-side report.
//
// Results land in a slice slot indexed by request position, so the report
// order always matches the request order no matter which call finishes
// first. Every call runs to completion before rendering; a failing model
// contributes an error block and never aborts its siblings.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (string, error) {
	if len(req.Models) == 0 {
		return "", errors.New("at least one model is required")
	}
	if req.Message == "" {
		return "", errors.New("message must not be empty")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultCompareMaxTokens
	}
	compareModelsPerRequest.Observe(float64(len(req.Models)))

	turns := []llm.Message{{Role: llm.RoleUser, Content: req.Message}}
	results := make([]modelResult, len(req.Models))

	start := time.Now()
	var wg sync.WaitGroup
	for i, model := range req.Models {
		wg.Add(1)
		go func(slot int, model string) {
			defer wg.Done()
			resp, err := retry.Do(ctx, s.policy, func(ctx context.Context) (*llm.Response, error) {
				return s.provider.Chat(ctx, turns,
					llm.WithModel(model),
					llm.WithMaxTokens(maxTokens),
				)
			})
			results[slot] = modelResult{model: model, resp: resp, err: err}
		}(i, model)
	}
	wg.Wait()

	failed := 0
	for i := range results {
		if results[i].err != nil {
			failed++
		}
	}
	s.logger.Info("comparison completed",
		zap.Int("models", len(req.Models)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)

	return renderComparison(results), nil
}
