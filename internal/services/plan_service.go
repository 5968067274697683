package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"freight-assignment-service/internal/domain"
	"freight-assignment-service/internal/metrics"
	"freight-assignment-service/internal/normalize"
	"freight-assignment-service/internal/planner"
	"freight-assignment-service/internal/platform/obs"
	"freight-assignment-service/internal/ports"
	"log"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultTimeLimit = 5 * time.Minute

// CreatePlanRequest describes one optimization run: which consignments to
// plan and how long the solver may take.
type CreatePlanRequest struct {
	Selection domain.Selection
	TimeLimit time.Duration
}

// PlanService runs the assignment pipeline: load inputs, normalize, build
// the model, solve, extract and persist. One call builds one model on one
// fresh engine; concurrent calls share nothing but the input tables.
type PlanService struct {
	Engines      ports.EngineFactory
	Consignments ports.ConsignmentRepository
	Trucks       ports.TruckRepository
	Facilities   ports.FacilityRepository
	TravelLegs   ports.TravelLegRepository
	Store        ports.PlanStore
	// Cache is optional; a nil cache disables request fingerprint reuse.
	Cache ports.PlanCache

	Normalize normalize.Config
	Planner   planner.Options

	DefaultTimeLimit time.Duration
	CacheTTL         time.Duration
	BatchWorkers     int
}

// CreatePlan executes one optimization run and persists the outcome.
//
// Consignments that are structurally unservable under the fail policy do
// not abort the request: the run is recorded as an infeasible plan naming
// them in Diagnostics, without any solve attempt. Selection errors and
// malformed input data come back as errors instead.
func (s *PlanService) CreatePlan(ctx context.Context, req CreatePlanRequest) (plan *domain.Plan, err error) {
	defer obs.Time(ctx, "create plan")(&err)

	limit := req.TimeLimit
	if limit <= 0 {
		limit = s.timeLimit()
	}

	key := cacheKey(req.Selection, limit)
	if s.Cache != nil {
		cached, cerr := s.Cache.Get(ctx, key)
		if cerr == nil {
			metrics.PlanCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		}
		if !errors.Is(cerr, ports.ErrCacheMiss) {
			log.Printf("plan cache get failed: key=%s err=%v", key, cerr)
		}
		metrics.PlanCacheLookups.WithLabelValues("miss").Inc()
	}

	in, err := s.loadInputs(ctx)
	if err != nil {
		return nil, err
	}
	data, err := normalize.Normalize(in, s.Normalize)
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	start := time.Now()
	model, err := planner.Build(s.Engines.NewEngine(), data, req.Selection, s.Planner)
	if err != nil {
		var mce *domain.ModelConstructionError
		if errors.As(err, &mce) && len(mce.ConsignmentIDs) > 0 {
			return s.finish(ctx, key, &domain.Plan{
				ID:          uuid.NewString(),
				CreatedAt:   time.Now().UTC(),
				Selection:   req.Selection,
				TimeLimit:   limit,
				Status:      domain.StatusInfeasible,
				Assignments: []domain.Assignment{},
				Diagnostics: mce.ConsignmentIDs,
			})
		}
		return nil, fmt.Errorf("create plan: %w", err)
	}

	status, err := model.Solve(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	metrics.Solves.WithLabelValues(string(status)).Inc()
	metrics.SolveDuration.WithLabelValues(string(status)).Observe(time.Since(start).Seconds())

	p := &domain.Plan{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Selection:   req.Selection,
		TimeLimit:   limit,
		Status:      status,
		Assignments: []domain.Assignment{},
	}
	if status == domain.StatusOptimal || status == domain.StatusTimeLimit {
		assignments, summary, err := model.Extract()
		if err != nil {
			return nil, fmt.Errorf("create plan: %w", err)
		}
		p.Assignments = assignments
		p.Summary = summary
	}
	return s.finish(ctx, key, p)
}

// GetPlan loads a previously created plan by id.
func (s *PlanService) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	p, err := s.Store.GetPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", id, err)
	}
	return p, nil
}

// loadInputs fetches the four input tables concurrently.
func (s *PlanService) loadInputs(ctx context.Context) (normalize.Inputs, error) {
	var in normalize.Inputs
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.Consignments.ListConsignments(ctx)
		if err != nil {
			return fmt.Errorf("list consignments: %w", err)
		}
		in.Consignments = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.Trucks.ListTrucks(ctx)
		if err != nil {
			return fmt.Errorf("list trucks: %w", err)
		}
		in.Trucks = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.Facilities.ListFacilities(ctx)
		if err != nil {
			return fmt.Errorf("list facilities: %w", err)
		}
		in.Facilities = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.TravelLegs.ListTravelLegs(ctx)
		if err != nil {
			return fmt.Errorf("list travel legs: %w", err)
		}
		in.TravelLegs = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return normalize.Inputs{}, fmt.Errorf("create plan: %w", err)
	}
	return in, nil
}

func (s *PlanService) finish(ctx context.Context, key string, p *domain.Plan) (*domain.Plan, error) {
	if err := s.Store.SavePlan(ctx, p); err != nil {
		return nil, fmt.Errorf("create plan: save plan %s: %w", p.ID, err)
	}
	if s.Cache != nil {
		if err := s.Cache.Put(ctx, key, p, s.cacheTTL()); err != nil {
			log.Printf("plan cache put failed: key=%s err=%v", key, err)
		}
	}
	return p, nil
}

func (s *PlanService) timeLimit() time.Duration {
	if s.DefaultTimeLimit > 0 {
		return s.DefaultTimeLimit
	}
	return defaultTimeLimit
}

func (s *PlanService) cacheTTL() time.Duration {
	if s.CacheTTL > 0 {
		return s.CacheTTL
	}
	return 5 * time.Minute
}

// cacheKey fingerprints a request. Selections are order-insensitive, so the
// id lists are sorted before hashing.
func cacheKey(sel domain.Selection, limit time.Duration) string {
	sources := append([]string(nil), sel.Sources...)
	destinations := append([]string(nil), sel.Destinations...)
	slices.Sort(sources)
	slices.Sort(destinations)

	payload, _ := json.Marshal(struct {
		Sources      []string `json:"sources"`
		Destinations []string `json:"destinations"`
		TimeLimitNS  int64    `json:"time_limit_ns"`
	}{sources, destinations, int64(limit)})

	sum := sha256.Sum256(payload)
	return "plan:" + hex.EncodeToString(sum[:])
}
