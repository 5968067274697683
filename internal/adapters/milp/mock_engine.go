package milp

import (
	"context"
	"fmt"
	"freight-assignment-service/internal/domain"
	"freight-assignment-service/internal/ports"
	"strings"
	"time"
)

type MockVar struct {
	Kind ports.VarKind
	LB   float64
	UB   float64
	Name string
}

type MockRow struct {
	Terms []ports.LinTerm
	Sense ports.Sense
	RHS   float64
	Name  string
}

// MockEngine records every variable, row and objective it receives and
// replays a scripted outcome, so model construction can be asserted without
// running a real solve.
type MockEngine struct {
	Vars      []MockVar
	Rows      []MockRow
	Objective []ports.LinTerm
	Dir       ports.Direction

	// Scripted outcome. Zero values mean an optimal solve where every
	// variable not present in Values reads as 0.
	SolveStatus domain.SolveStatus
	SolveErr    error
	Values      map[string]float64

	status domain.SolveStatus
}

func NewMockEngine() *MockEngine { return &MockEngine{} }

func (m *MockEngine) AddVariable(kind ports.VarKind, lb, ub float64, name string) (ports.VarID, error) {
	m.Vars = append(m.Vars, MockVar{Kind: kind, LB: lb, UB: ub, Name: name})
	return ports.VarID(len(m.Vars) - 1), nil
}

func (m *MockEngine) AddConstraint(terms []ports.LinTerm, sense ports.Sense, rhs float64, name string) error {
	m.Rows = append(m.Rows, MockRow{Terms: append([]ports.LinTerm(nil), terms...), Sense: sense, RHS: rhs, Name: name})
	return nil
}

func (m *MockEngine) SetObjective(terms []ports.LinTerm, dir ports.Direction) {
	m.Objective = append([]ports.LinTerm(nil), terms...)
	m.Dir = dir
}

func (m *MockEngine) Solve(ctx context.Context, timeLimit time.Duration) (domain.SolveStatus, error) {
	if m.SolveErr != nil {
		return "", m.SolveErr
	}
	m.status = m.SolveStatus
	if m.status == "" {
		m.status = domain.StatusOptimal
	}
	return m.status, nil
}

func (m *MockEngine) Value(v ports.VarID) (float64, error) {
	if m.status != domain.StatusOptimal && m.status != domain.StatusTimeLimit {
		return 0, fmt.Errorf("mock engine: no solution loaded (status %q)", m.status)
	}
	if int(v) < 0 || int(v) >= len(m.Vars) {
		return 0, fmt.Errorf("mock engine: unknown variable %d", v)
	}
	return m.Values[m.Vars[v].Name], nil
}

func (m *MockEngine) ObjectiveValue() (float64, error) { return 0, nil }

func (m *MockEngine) Status() domain.SolveStatus { return m.status }

// VarNamed returns the recorded variable with the given name.
func (m *MockEngine) VarNamed(name string) (MockVar, bool) {
	for _, v := range m.Vars {
		if v.Name == name {
			return v, true
		}
	}
	return MockVar{}, false
}

// RowsNamed returns every recorded row whose name starts with prefix.
func (m *MockEngine) RowsNamed(prefix string) []MockRow {
	var out []MockRow
	for _, r := range m.Rows {
		if strings.HasPrefix(r.Name, prefix) {
			out = append(out, r)
		}
	}
	return out
}

// MockFactory hands out the same mock engine so tests can inspect it after
// the run.
type MockFactory struct{ Engine *MockEngine }

func (f MockFactory) NewEngine() ports.SolverEngine { return f.Engine }
