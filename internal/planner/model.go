// Package planner builds the assignment optimization model, applies the
// constraint families, and extracts solved plans.
package planner

import (
	"context"
	"time"

	"freight-assignment-service/internal/domain"
	"freight-assignment-service/internal/normalize"
	"freight-assignment-service/internal/ports"
)

// ZeroCandidatePolicy fixes what happens to a consignment with no candidate
// truck when full assignment is required.
type ZeroCandidatePolicy string

const (
	// ZeroCandidateFail aborts model construction; the run is reported
	// infeasible before any solve attempt.
	ZeroCandidateFail ZeroCandidatePolicy = "fail"
	// ZeroCandidateUnserved routes the consignment through an unserved
	// variable instead of failing the run.
	ZeroCandidateUnserved ZeroCandidatePolicy = "unserved"
)

// Options configure one optimization run.
type Options struct {
	// CostPerKgKm prices a pairing as weight * kilometers * rate. Zero
	// disables the cost objective; the model then minimizes trucks used,
	// plus unserved penalties when unserved consignments are allowed.
	CostPerKgKm float64

	// AllowUnserved permits leaving consignments unassigned at a penalty.
	AllowUnserved bool

	// UnservedPenalty is the objective cost of one unserved consignment.
	// Zero means the default penalty.
	UnservedPenalty float64

	// ZeroCandidate picks the policy for structurally unservable
	// consignments in full-assignment mode. Empty means ZeroCandidateFail.
	ZeroCandidate ZeroCandidatePolicy

	// TruckTieBreak is the small per-truck objective term that steers the
	// solver toward fewer trucks among equal-cost assignments. Zero means
	// the default. Ignored when no cost function is configured, where
	// trucks used is the whole objective.
	TruckTieBreak float64
}

const (
	defaultUnservedPenalty = 1e6
	defaultTruckTieBreak   = 1e-3
)

func (o Options) unservedPenalty() float64 {
	if o.UnservedPenalty > 0 {
		return o.UnservedPenalty
	}
	return defaultUnservedPenalty
}

func (o Options) truckWeight() float64 {
	if o.CostPerKgKm == 0 {
		return 1
	}
	if o.TruckTieBreak > 0 {
		return o.TruckTieBreak
	}
	return defaultTruckTieBreak
}

func (o Options) zeroCandidate() ZeroCandidatePolicy {
	if o.ZeroCandidate == "" {
		return ZeroCandidateFail
	}
	return o.ZeroCandidate
}

// candidate is one feasible (consignment, truck) pairing: the consignment
// boards at route node index board and alights at node index alight.
type candidate struct {
	consignment *domain.Consignment
	truck       *truckModel
	board       int
	alight      int
	cost        float64
	x           ports.VarID
}

// truckModel carries a usable truck's decision variables.
type truckModel struct {
	truck *domain.Truck
	y     ports.VarID // truck used
	d     ports.VarID // departure minute from the route origin
	loads []ports.VarID
}

// Model is the transient optimization object for one run. It owns its engine
// handle exclusively and is discarded after extraction; it is never reused
// across a different consignment/truck selection.
type Model struct {
	engine ports.SolverEngine
	opts   Options

	horizon      float64
	facilities   map[string]*domain.Facility
	consignments []*domain.Consignment
	trucks       []*truckModel

	candidates    []*candidate
	byConsignment map[string][]*candidate
	byTruck       map[string][]*candidate
	unserved      map[string]ports.VarID
}

// Solve submits the model to its engine, bounded by the supplied time limit.
func (m *Model) Solve(ctx context.Context, timeLimit time.Duration) (domain.SolveStatus, error) {
	return m.engine.Solve(ctx, timeLimit)
}

// Status reports the outcome of the last Solve.
func (m *Model) Status() domain.SolveStatus { return m.engine.Status() }

func newModel(engine ports.SolverEngine, data *normalize.Data, opts Options) *Model {
	return &Model{
		engine:        engine,
		opts:          opts,
		horizon:       data.HorizonMin,
		facilities:    data.Facilities,
		byConsignment: map[string][]*candidate{},
		byTruck:       map[string][]*candidate{},
		unserved:      map[string]ports.VarID{},
	}
}
