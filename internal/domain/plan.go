package domain

import "time"

// Outcome of one solve invocation. Infeasible and Unbounded are legitimate
// business outcomes, not errors; engine failures surface as SolverError
// instead of a status.
type SolveStatus string

const (
	StatusOptimal    SolveStatus = "optimal"
	StatusInfeasible SolveStatus = "infeasible"
	StatusUnbounded  SolveStatus = "unbounded"
	StatusTimeLimit  SolveStatus = "time_limit_reached"
)

// Assignment is one solved consignment -> truck pairing with its computed
// arrival at the consignment's destination.
type Assignment struct {
	ConsignmentID string
	TruckID       string
	ArrivalMin    float64
	ArrivalSlot   int
}

// Per-truck usage derived from a solved assignment. LegLoads holds the
// carried weight on each route leg in order.
type TruckUtilization struct {
	TruckID  string
	Load     float64
	Ratio    float64
	LegLoads []float64
}

// Aggregate statistics for one plan. TotalCost is recomputed from the
// extracted pairings, never read from the engine objective.
type Summary struct {
	TotalCost   float64
	TrucksUsed  int
	Unserved    []string
	Utilization []TruckUtilization
}

// Selection restricts one optimization run to a subset of sources and
// destinations. Empty slices select everything.
type Selection struct {
	Sources      []string
	Destinations []string
}

// Plan is the persisted output of one optimization run and the sole
// interface handed to downstream reporting.
type Plan struct {
	ID          string
	CreatedAt   time.Time
	Selection   Selection
	TimeLimit   time.Duration
	Status      SolveStatus
	Assignments []Assignment
	Summary     Summary
	Diagnostics []string
}
