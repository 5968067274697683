package services

import (
	"context"
	"fmt"
	"freight-assignment-service/internal/domain"

	"golang.org/x/sync/errgroup"
)

const defaultBatchWorkers = 4

// CreatePlans runs several independent optimization scenarios concurrently.
// Each run builds its own model on its own engine. Results line up with the
// requests by index; the first failure cancels the remaining runs.
func (s *PlanService) CreatePlans(ctx context.Context, reqs []CreatePlanRequest) ([]*domain.Plan, error) {
	plans := make([]*domain.Plan, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchWorkers())
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			p, err := s.CreatePlan(ctx, req)
			if err != nil {
				return fmt.Errorf("batch run %d: %w", i, err)
			}
			plans[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *PlanService) batchWorkers() int {
	if s.BatchWorkers > 0 {
		return s.BatchWorkers
	}
	return defaultBatchWorkers
}
