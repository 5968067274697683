package ports

import (
	"context"
	"errors"
	"time"

	"freight-assignment-service/internal/domain"
)

// ErrCacheMiss is returned by PlanCache.Get when the key is absent.
var ErrCacheMiss = errors.New("plan cache: miss")

// Port: a short-lived cache for finished plans, keyed by request
// fingerprint. Callers treat any cache failure as a miss.
type PlanCache interface {
	Get(ctx context.Context, key string) (*domain.Plan, error)
	Put(ctx context.Context, key string, p *domain.Plan, ttl time.Duration) error
}
