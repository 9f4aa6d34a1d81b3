package resilience

import (
	"context"

	"go.uber.org/zap"

	"github.com/fundexhq/fundex/pkg/logger"
)

// FallbackFunc supplies a substitute result when a breaker rejects work.
type FallbackFunc func(ctx context.Context, err error) (interface{}, error)

// NoopFallback propagates ErrCircuitOpen unchanged.
func NoopFallback(ctx context.Context, err error) (interface{}, error) {
	return nil, ErrCircuitOpen
}

// StaticFallback answers with a fixed value, for callers that can live with
// an empty or cached result while the dependency recovers.
func StaticFallback(value interface{}) FallbackFunc {
	return func(ctx context.Context, err error) (interface{}, error) {
		logger.Warn("circuit breaker open, serving static fallback", zap.Error(err))
		return value, nil
	}
}
