// Package milp provides the in-tree MILP engine behind the SolverEngine
// port: deterministic depth-first branch and bound over LP simplex
// relaxations.
package milp

import (
	"context"
	"errors"
	"fmt"
	"freight-assignment-service/internal/domain"
	"freight-assignment-service/internal/ports"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Values closer than intTol to an integer count as integral.
const intTol = 1e-6

// Incumbents must improve the best objective by more than boundTol to be
// kept; nodes whose relaxation cannot beat it are pruned.
const boundTol = 1e-9

type variable struct {
	kind ports.VarKind
	lb   float64
	ub   float64
	name string
}

type row struct {
	terms []ports.LinTerm
	sense ports.Sense
	rhs   float64
	name  string
}

// Engine implements ports.SolverEngine. One Engine holds one model and
// serves exactly one Solve call.
type Engine struct {
	vars     []variable
	rows     []row
	objTerms []ports.LinTerm
	dir      ports.Direction

	solved   bool
	status   domain.SolveStatus
	solution []float64
	objValue float64
}

func New() *Engine { return &Engine{} }

// Factory hands out fresh engines, one per optimization run.
type Factory struct{}

func (Factory) NewEngine() ports.SolverEngine { return New() }

func (e *Engine) AddVariable(kind ports.VarKind, lb, ub float64, name string) (ports.VarID, error) {
	if e.solved {
		return 0, errors.New("milp: add variable after solve")
	}
	if kind == ports.Binary {
		lb = math.Max(lb, 0)
		ub = math.Min(ub, 1)
	}
	if math.IsNaN(lb) || math.IsNaN(ub) || math.IsInf(lb, -1) {
		return 0, fmt.Errorf("milp: variable %q needs a finite lower bound", name)
	}
	if lb > ub {
		return 0, fmt.Errorf("milp: variable %q has inverted bounds [%v, %v]", name, lb, ub)
	}

	e.vars = append(e.vars, variable{kind: kind, lb: lb, ub: ub, name: name})
	return ports.VarID(len(e.vars) - 1), nil
}

func (e *Engine) AddConstraint(terms []ports.LinTerm, sense ports.Sense, rhs float64, name string) error {
	if e.solved {
		return errors.New("milp: add constraint after solve")
	}
	if len(terms) == 0 {
		return fmt.Errorf("milp: constraint %q has no terms", name)
	}
	for _, t := range terms {
		if int(t.Var) < 0 || int(t.Var) >= len(e.vars) {
			return fmt.Errorf("milp: constraint %q references unknown variable %d", name, t.Var)
		}
	}

	e.rows = append(e.rows, row{terms: append([]ports.LinTerm(nil), terms...), sense: sense, rhs: rhs, name: name})
	return nil
}

func (e *Engine) SetObjective(terms []ports.LinTerm, dir ports.Direction) {
	e.objTerms = append([]ports.LinTerm(nil), terms...)
	e.dir = dir
}

// Solve explores the branch-and-bound tree depth first, down branch before
// up, always branching on the most fractional binary. The exploration order
// is fixed, so identical models produce identical solutions.
func (e *Engine) Solve(ctx context.Context, timeLimit time.Duration) (domain.SolveStatus, error) {
	if e.solved {
		return "", &domain.SolverError{Op: "solve", Err: errors.New("model already solved; engines are single-use")}
	}
	e.solved = true

	var deadline time.Time
	if timeLimit > 0 {
		deadline = time.Now().Add(timeLimit)
	}

	c := e.denseObjective()

	root := &node{lb: make([]float64, len(e.vars)), ub: make([]float64, len(e.vars))}
	for j, v := range e.vars {
		root.lb[j] = v.lb
		root.ub[j] = v.ub
	}
	stack := []*node{root}

	var (
		bestX    []float64
		bestObj  = math.Inf(1)
		timedOut bool
	)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			timedOut = true
			break
		}

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		obj, x, err := e.solveRelaxation(c, n)
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			continue
		case errors.Is(err, lp.ErrUnbounded):
			e.status = domain.StatusUnbounded
			return e.status, nil
		case err != nil:
			return "", &domain.SolverError{Op: "solve", Err: err}
		}

		if obj >= bestObj-boundTol {
			continue
		}

		j := e.mostFractional(x)
		if j < 0 {
			bestObj = obj
			bestX = x
			continue
		}

		down := n.clone()
		down.ub[j] = math.Floor(x[j])
		up := n.clone()
		up.lb[j] = math.Ceil(x[j])
		stack = append(stack, up, down)
	}

	if bestX == nil {
		// An exhausted search proves infeasibility; a timed-out search
		// without an incumbent is reported the same way.
		e.status = domain.StatusInfeasible
		return e.status, nil
	}

	e.solution = bestX
	e.objValue = bestObj
	if e.dir == ports.Maximize {
		e.objValue = -bestObj
	}
	if timedOut {
		e.status = domain.StatusTimeLimit
	} else {
		e.status = domain.StatusOptimal
	}
	return e.status, nil
}

func (e *Engine) Value(v ports.VarID) (float64, error) {
	if e.solution == nil {
		return 0, fmt.Errorf("milp: no solution loaded (status %q)", e.status)
	}
	if int(v) < 0 || int(v) >= len(e.solution) {
		return 0, fmt.Errorf("milp: unknown variable %d", v)
	}
	return e.solution[v], nil
}

func (e *Engine) ObjectiveValue() (float64, error) {
	if e.solution == nil {
		return 0, fmt.Errorf("milp: no solution loaded (status %q)", e.status)
	}
	return e.objValue, nil
}

func (e *Engine) Status() domain.SolveStatus { return e.status }

type node struct {
	lb []float64
	ub []float64
}

func (n *node) clone() *node {
	return &node{
		lb: append([]float64(nil), n.lb...),
		ub: append([]float64(nil), n.ub...),
	}
}

// denseObjective expands the objective terms into one coefficient per
// variable, negated for maximization so the search always minimizes.
func (e *Engine) denseObjective() []float64 {
	c := make([]float64, len(e.vars))
	for _, t := range e.objTerms {
		c[t.Var] += t.Coeff
	}
	if e.dir == ports.Maximize {
		for j := range c {
			c[j] = -c[j]
		}
	}
	return c
}

// mostFractional returns the binary variable farthest from integrality, or
// -1 when the point is integer feasible. Ties keep the lowest index.
func (e *Engine) mostFractional(x []float64) int {
	best, bestDist := -1, intTol
	for j, v := range e.vars {
		if v.kind != ports.Binary {
			continue
		}
		f := x[j] - math.Floor(x[j])
		dist := math.Min(f, 1-f)
		if dist > bestDist {
			best, bestDist = j, dist
		}
	}
	return best
}

// solveRelaxation solves the LP relaxation of one node. Variables are
// shifted by their lower bound so x' >= 0, then slack, surplus and
// upper-bound columns turn the model into standard form for the simplex.
func (e *Engine) solveRelaxation(c []float64, n *node) (float64, []float64, error) {
	nv := len(e.vars)

	for j := 0; j < nv; j++ {
		if n.lb[j] > n.ub[j]+1e-12 {
			return 0, nil, lp.ErrInfeasible
		}
	}

	type boundRow struct {
		varIdx int
		ub     float64
	}
	var bounds []boundRow
	for j := 0; j < nv; j++ {
		if ub := n.ub[j] - n.lb[j]; !math.IsInf(ub, 1) {
			bounds = append(bounds, boundRow{j, ub})
		}
	}

	extra := 0
	for _, r := range e.rows {
		if r.sense != ports.EQ {
			extra++
		}
	}

	rowsTotal := len(e.rows) + len(bounds)
	colsTotal := nv + extra + len(bounds)

	if rowsTotal == 0 {
		// Pure box problem: minimize each coordinate independently.
		x := make([]float64, nv)
		obj := 0.0
		for j := 0; j < nv; j++ {
			switch {
			case c[j] >= 0:
				x[j] = n.lb[j]
			case math.IsInf(n.ub[j], 1):
				return 0, nil, lp.ErrUnbounded
			default:
				x[j] = n.ub[j]
			}
			obj += c[j] * x[j]
		}
		return obj, x, nil
	}

	data := make([]float64, rowsTotal*colsTotal)
	b := make([]float64, rowsTotal)
	cExt := make([]float64, colsTotal)
	copy(cExt, c)

	slack := nv
	for i, r := range e.rows {
		rhs := r.rhs
		for _, t := range r.terms {
			data[i*colsTotal+int(t.Var)] += t.Coeff
			rhs -= t.Coeff * n.lb[t.Var]
		}
		switch r.sense {
		case ports.LE:
			data[i*colsTotal+slack] = 1
			slack++
		case ports.GE:
			data[i*colsTotal+slack] = -1
			slack++
		}
		b[i] = rhs
	}
	for k, br := range bounds {
		i := len(e.rows) + k
		data[i*colsTotal+br.varIdx] = 1
		data[i*colsTotal+slack] = 1
		slack++
		b[i] = br.ub
	}

	a := mat.NewDense(rowsTotal, colsTotal, data)
	_, xExt, err := lp.Simplex(cExt, a, b, 0, nil)
	if err != nil {
		return 0, nil, err
	}

	x := make([]float64, nv)
	obj := 0.0
	for j := 0; j < nv; j++ {
		x[j] = xExt[j] + n.lb[j]
		obj += c[j] * x[j]
	}
	return obj, x, nil
}
