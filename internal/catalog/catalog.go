// Package catalog serves model catalog lookups against the gateway. Every
// call hits the gateway directly; the catalog is deliberately not cached, so
// listings always reflect current availability and pricing.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/HerbHall/modelrelay/internal/openrouter"
	"github.com/HerbHall/modelrelay/internal/retry"
	"github.com/HerbHall/modelrelay/pkg/llm"
)

var catalogRetriesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "catalog_retries_total",
		Help: "Total number of retried catalog requests.",
	},
)

func init() {
	prometheus.MustRegister(catalogRetriesTotal)
}

// ErrModelNotFound reports a lookup for a model identifier the catalog does
// not contain. It is a domain error, distinct from transport failures.
var ErrModelNotFound = errors.New("model not found")

// ModelLister abstracts the gateway's catalog endpoint.
// Implemented by *openrouter.Client.
type ModelLister interface {
	ListModels(ctx context.Context) ([]openrouter.Model, error)
}

// Service answers catalog queries.
type Service struct {
	lister ModelLister
	policy retry.Policy
	logger *zap.Logger
}

// New creates a catalog service. The retry policy's hook is replaced with
// this service's own logging and metrics.
func New(lister ModelLister, policy retry.Policy, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.Classify == nil {
		policy.Classify = llm.IsRetryable
	}
	policy.OnRetry = func(retryNum int, delay time.Duration, err error) {
		catalogRetriesTotal.Inc()
		logger.Warn("catalog request failed, backing off",
			zap.Int("retry", retryNum),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}

	return &Service{lister: lister, policy: policy, logger: logger}
}

// List returns the full model catalog.
func (s *Service) List(ctx context.Context) ([]openrouter.Model, error) {
	models, err := retry.Do(ctx, s.policy, func(ctx context.Context) ([]openrouter.Model, error) {
		return s.lister.ListModels(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return models, nil
}

// Get returns the catalog entry for one model identifier.
// A miss returns ErrModelNotFound wrapped with the identifier.
func (s *Service) Get(ctx context.Context, id string) (*openrouter.Model, error) {
	models, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range models {
		if models[i].ID == id {
			return &models[i], nil
		}
	}
	return nil, fmt.Errorf("model %q: %w", id, ErrModelNotFound)
}

// Pricing returns a per-model pricing extract keyed by model identifier.
func (s *Service) Pricing(ctx context.Context) (map[string]openrouter.Pricing, error) {
	models, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	pricing := make(map[string]openrouter.Pricing, len(models))
	for i := range models {
		pricing[models[i].ID] = models[i].Pricing
	}
	return pricing, nil
}
