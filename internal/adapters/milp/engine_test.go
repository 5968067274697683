package milp

import (
	"context"
	"fmt"
	"freight-assignment-service/internal/domain"
	"freight-assignment-service/internal/ports"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func addBinary(t *testing.T, e *Engine, name string) ports.VarID {
	t.Helper()
	id, err := e.AddVariable(ports.Binary, 0, 1, name)
	require.NoError(t, err)
	return id
}

func value(t *testing.T, e *Engine, id ports.VarID) float64 {
	t.Helper()
	v, err := e.Value(id)
	require.NoError(t, err)
	return v
}

func TestEngineSolvesKnapsackToOptimality(t *testing.T) {
	e := New()

	values := []float64{8, 11, 6, 4}
	weights := []float64{5, 7, 4, 3}

	ids := make([]ports.VarID, len(values))
	var obj, load []ports.LinTerm
	for i := range values {
		ids[i] = addBinary(t, e, fmt.Sprintf("x%d", i+1))
		obj = append(obj, ports.LinTerm{Var: ids[i], Coeff: values[i]})
		load = append(load, ports.LinTerm{Var: ids[i], Coeff: weights[i]})
	}
	require.NoError(t, e.AddConstraint(load, ports.LE, 14, "capacity"))
	e.SetObjective(obj, ports.Maximize)

	status, err := e.Solve(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOptimal, status)

	got, err := e.ObjectiveValue()
	require.NoError(t, err)
	require.InDelta(t, 21, got, 1e-6)

	want := []float64{0, 1, 1, 1}
	for i, id := range ids {
		require.InDelta(t, want[i], value(t, e, id), 1e-6, "item %d", i+1)
	}
}

func TestEngineBranchesOnFractionalRelaxation(t *testing.T) {
	e := New()

	x := addBinary(t, e, "x")
	y := addBinary(t, e, "y")

	// The LP relaxation of this model peaks at x+y = 1.5; the integer
	// optimum is 1.
	require.NoError(t, e.AddConstraint(
		[]ports.LinTerm{{Var: x, Coeff: 2}, {Var: y, Coeff: 2}},
		ports.LE, 3, "pack",
	))
	e.SetObjective([]ports.LinTerm{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}}, ports.Maximize)

	status, err := e.Solve(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOptimal, status)

	obj, err := e.ObjectiveValue()
	require.NoError(t, err)
	require.InDelta(t, 1, obj, 1e-6)
	require.InDelta(t, 1, value(t, e, x)+value(t, e, y), 1e-6)
}

func TestEngineMixesBinariesAndContinuous(t *testing.T) {
	e := New()

	x1 := addBinary(t, e, "x1")
	x2 := addBinary(t, e, "x2")
	d, err := e.AddVariable(ports.Continuous, 0, 100, "d")
	require.NoError(t, err)

	require.NoError(t, e.AddConstraint(
		[]ports.LinTerm{{Var: x1, Coeff: 1}, {Var: x2, Coeff: 1}},
		ports.EQ, 1, "assign",
	))
	// Choosing x2 forces d >= 40.
	require.NoError(t, e.AddConstraint(
		[]ports.LinTerm{{Var: d, Coeff: 1}, {Var: x2, Coeff: -40}},
		ports.GE, 0, "release",
	))
	e.SetObjective([]ports.LinTerm{
		{Var: x1, Coeff: 7}, {Var: x2, Coeff: 2}, {Var: d, Coeff: 0.1},
	}, ports.Minimize)

	status, err := e.Solve(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOptimal, status)

	obj, err := e.ObjectiveValue()
	require.NoError(t, err)
	require.InDelta(t, 6, obj, 1e-6)
	require.InDelta(t, 1, value(t, e, x2), 1e-6)
	require.InDelta(t, 40, value(t, e, d), 1e-6)
}

func TestEngineReportsInfeasible(t *testing.T) {
	e := New()

	x := addBinary(t, e, "x")
	require.NoError(t, e.AddConstraint([]ports.LinTerm{{Var: x, Coeff: 1}}, ports.GE, 2, "impossible"))
	e.SetObjective([]ports.LinTerm{{Var: x, Coeff: 1}}, ports.Minimize)

	status, err := e.Solve(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInfeasible, status)

	_, err = e.Value(x)
	require.Error(t, err)
}

func TestEngineReportsUnbounded(t *testing.T) {
	e := New()

	x, err := e.AddVariable(ports.Continuous, 0, math.Inf(1), "x")
	require.NoError(t, err)
	require.NoError(t, e.AddConstraint([]ports.LinTerm{{Var: x, Coeff: 1}}, ports.GE, 1, "floor"))
	e.SetObjective([]ports.LinTerm{{Var: x, Coeff: -1}}, ports.Minimize)

	status, err := e.Solve(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, domain.StatusUnbounded, status)
}

func TestEngineSolvesPureBoxModel(t *testing.T) {
	e := New()

	x, err := e.AddVariable(ports.Continuous, 2, 5, "x")
	require.NoError(t, err)
	e.SetObjective([]ports.LinTerm{{Var: x, Coeff: 1}}, ports.Minimize)

	status, err := e.Solve(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOptimal, status)
	require.InDelta(t, 2, value(t, e, x), 1e-9)
}

func TestEngineExpiredTimeLimitWithoutIncumbentIsInfeasible(t *testing.T) {
	e := New()

	x := addBinary(t, e, "x")
	y := addBinary(t, e, "y")
	require.NoError(t, e.AddConstraint(
		[]ports.LinTerm{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}},
		ports.EQ, 1, "assign",
	))
	e.SetObjective([]ports.LinTerm{{Var: x, Coeff: 1}}, ports.Minimize)

	// The deadline expires before the first node is explored, so the
	// engine never finds an incumbent.
	status, err := e.Solve(context.Background(), time.Nanosecond)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInfeasible, status)
}

func TestEngineObeysCancellation(t *testing.T) {
	e := New()
	addBinary(t, e, "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Solve(ctx, 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEngineIsSingleUse(t *testing.T) {
	e := New()
	addBinary(t, e, "x")

	_, err := e.Solve(context.Background(), 0)
	require.NoError(t, err)

	_, err = e.Solve(context.Background(), 0)
	var se *domain.SolverError
	require.ErrorAs(t, err, &se)
}

func TestEngineValueBeforeSolveFails(t *testing.T) {
	e := New()
	x := addBinary(t, e, "x")

	_, err := e.Value(x)
	require.Error(t, err)
	_, err = e.ObjectiveValue()
	require.Error(t, err)
}

func TestEngineIsDeterministicAcrossRebuilds(t *testing.T) {
	build := func() ([]float64, float64) {
		e := New()
		// Two identical items create an objective tie the search must
		// break the same way every run.
		a := addBinary(t, e, "a")
		b := addBinary(t, e, "b")
		c := addBinary(t, e, "c")
		require.NoError(t, e.AddConstraint(
			[]ports.LinTerm{{Var: a, Coeff: 4}, {Var: b, Coeff: 4}, {Var: c, Coeff: 3}},
			ports.LE, 4, "capacity",
		))
		e.SetObjective([]ports.LinTerm{
			{Var: a, Coeff: 6}, {Var: b, Coeff: 6}, {Var: c, Coeff: 2},
		}, ports.Maximize)

		status, err := e.Solve(context.Background(), 0)
		require.NoError(t, err)
		require.Equal(t, domain.StatusOptimal, status)

		obj, err := e.ObjectiveValue()
		require.NoError(t, err)
		return []float64{value(t, e, a), value(t, e, b), value(t, e, c)}, obj
	}

	x1, obj1 := build()
	x2, obj2 := build()
	require.Equal(t, x1, x2)
	require.Equal(t, obj1, obj2)
	require.InDelta(t, 6, obj1, 1e-6)
}
