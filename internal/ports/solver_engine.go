package ports

import (
	"context"
	"time"

	"freight-assignment-service/internal/domain"
)

// VarID identifies one decision variable within a single engine instance.
type VarID int

// Kind of decision variable.
type VarKind int

const (
	Continuous VarKind = iota
	Binary
)

// LinTerm is one coefficient*variable term of a linear expression.
type LinTerm struct {
	Var   VarID
	Coeff float64
}

// Sense of a linear constraint row.
type Sense int

const (
	LE Sense = iota
	GE
	EQ
)

// Direction of the objective.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

// Port: a boundary to a MILP engine.
//
// One engine instance holds one model and serves exactly one solve
// invocation; instances are never shared across concurrent runs. The model
// is write-once: rows and variables are only ever added, never removed.
type SolverEngine interface {
	// AddVariable creates a decision variable with inclusive bounds and
	// returns its id. Binary variables are clamped to [0, 1].
	AddVariable(kind VarKind, lb, ub float64, name string) (VarID, error)

	// AddConstraint adds one linear row: terms (sense) rhs.
	AddConstraint(terms []LinTerm, sense Sense, rhs float64, name string) error

	// SetObjective sets the linear objective; a later call replaces it.
	SetObjective(terms []LinTerm, dir Direction)

	// Solve runs the engine until optimality, proven infeasibility or the
	// time limit, whichever comes first. A limit <= 0 means unlimited.
	// Engine-level failures come back as an error (SolverError); legitimate
	// outcomes come back as a status.
	Solve(ctx context.Context, timeLimit time.Duration) (domain.SolveStatus, error)

	// Value returns a variable's value in the incumbent solution. Valid
	// only after Solve returned StatusOptimal or StatusTimeLimit.
	Value(v VarID) (float64, error)

	// ObjectiveValue returns the incumbent objective value.
	ObjectiveValue() (float64, error)

	// Status returns the outcome of the last Solve, or "" before solving.
	Status() domain.SolveStatus
}

// Port: hands out one fresh engine per optimization run.
type EngineFactory interface {
	NewEngine() SolverEngine
}
