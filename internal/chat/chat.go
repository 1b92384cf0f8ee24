// Package chat orchestrates conversations against the model gateway: the
// single-model chat flow and the multi-model comparison fan-out. Both run
// their remote calls through the retry wrapper and render plain-text reports
// for the tool surface.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/HerbHall/modelrelay/internal/retry"
	"github.com/HerbHall/modelrelay/pkg/llm"
)

// Tool-facing request defaults.
const (
	DefaultChatMaxTokens    = 1000
	DefaultChatTemperature  = 0.7
	DefaultCompareMaxTokens = 500
)

// Prometheus orchestration metrics.
var (
	chatRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_retries_total",
			Help: "Total number of retried chat completion calls.",
		},
	)
	compareModelsPerRequest = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compare_models_per_request",
			Help:    "Number of models fanned out per comparison request.",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 12},
		},
	)
)

func init() {
	prometheus.MustRegister(chatRetriesTotal)
	prometheus.MustRegister(compareModelsPerRequest)
}

// Service runs chat orchestration against one gateway provider.
type Service struct {
	provider llm.Provider
	policy   retry.Policy
	logger   *zap.Logger
}

// New creates a chat service. The retry policy's hook is replaced with this
// service's own logging and metrics; a nil Classify falls back to the
// transient classifier.
func New(provider llm.Provider, policy retry.Policy, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.Classify == nil {
		policy.Classify = llm.IsRetryable
	}
	policy.OnRetry = func(retryNum int, delay time.Duration, err error) {
		chatRetriesTotal.Inc()
		logger.Warn("transient gateway failure, backing off",
			zap.Int("retry", retryNum),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}

	return &Service{provider: provider, policy: policy, logger: logger}
}

// Request describes one single-model chat call.
type Request struct {
	Model        string
	Message      string
	SystemPrompt string

	// MaxTokens <= 0 selects DefaultChatMaxTokens.
	MaxTokens int

	// Temperature nil selects DefaultChatTemperature. Zero is a valid
	// explicit value, so absence is a nil pointer rather than 0.
	Temperature *float64
}

// Turns builds the conversation: an optional system turn followed by the
// mandatory user turn, in that order.
func (r Request) Turns() []llm.Message {
	turns := make([]llm.Message, 0, 2)
	if r.SystemPrompt != "" {
		turns = append(turns, llm.Message{Role: llm.RoleSystem, Content: r.SystemPrompt})
	}
	turns = append(turns, llm.Message{Role: llm.RoleUser, Content: r.Message})
	return turns
}

// Chat runs one conversation against the requested model and renders the
// report. Remote failures, including exhausted retries, propagate to the
// caller; the protocol layer turns them into user-visible error blocks.
func (s *Service) Chat(ctx context.Context, req Request) (string, error) {
	if req.Message == "" {
		return "", errors.New("message must not be empty")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultChatMaxTokens
	}
	temperature := DefaultChatTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	opts := []llm.CallOption{
		llm.WithModel(req.Model),
		llm.WithMaxTokens(maxTokens),
		llm.WithTemperature(temperature),
	}
	turns := req.Turns()

	start := time.Now()
	resp, err := retry.Do(ctx, s.policy, func(ctx context.Context) (*llm.Response, error) {
		return s.provider.Chat(ctx, turns, opts...)
	})
	if err != nil {
		return "", fmt.Errorf("chat completion for %q: %w", req.Model, err)
	}

	s.logger.Debug("chat completed",
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	return renderChatReport(resp), nil
}
