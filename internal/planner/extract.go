package planner

import (
	"fmt"
	"freight-assignment-service/internal/domain"
	"freight-assignment-service/internal/ports"
	"slices"
	"strings"
)

// assignedThreshold decides when a solved binary counts as taken. The
// engine holds integer variables within a much tighter tolerance, so one
// half separates the two levels safely.
const assignedThreshold = 0.5

// Extract reads the solved pairings out of the model and aggregates the
// plan summary. Valid only after Solve returned StatusOptimal or
// StatusTimeLimit; every other status carries no incumbent to read.
//
// Totals are recomputed from the extracted pairings rather than read off
// the engine objective, so tie-break terms never leak into reports.
func (m *Model) Extract() ([]domain.Assignment, domain.Summary, error) {
	status := m.engine.Status()
	if status != domain.StatusOptimal && status != domain.StatusTimeLimit {
		return nil, domain.Summary{}, &domain.ExtractionError{Status: status, Reason: "no incumbent solution to read"}
	}

	chosen := make(map[string]*candidate, len(m.consignments))
	for _, cand := range m.candidates {
		val, err := m.value(cand.x)
		if err != nil {
			return nil, domain.Summary{}, err
		}
		if val <= assignedThreshold {
			continue
		}
		id := cand.consignment.ID
		if _, dup := chosen[id]; dup {
			return nil, domain.Summary{}, &domain.ExtractionError{Status: status, Reason: fmt.Sprintf("consignment %q assigned twice", id)}
		}
		chosen[id] = cand
	}

	var unserved []string
	for _, c := range m.consignments {
		if _, ok := chosen[c.ID]; ok {
			continue
		}
		u, ok := m.unserved[c.ID]
		if !ok {
			return nil, domain.Summary{}, &domain.ExtractionError{Status: status, Reason: fmt.Sprintf("consignment %q missing from solution", c.ID)}
		}
		val, err := m.value(u)
		if err != nil {
			return nil, domain.Summary{}, err
		}
		if val <= assignedThreshold {
			return nil, domain.Summary{}, &domain.ExtractionError{Status: status, Reason: fmt.Sprintf("consignment %q missing from solution", c.ID)}
		}
		unserved = append(unserved, c.ID)
	}
	slices.Sort(unserved)

	assignments := make([]domain.Assignment, 0, len(chosen))
	totalCost := 0.0
	usedTrucks := make(map[string]struct{})
	loadByTruck := make(map[string]float64)
	for _, c := range m.consignments {
		cand, ok := chosen[c.ID]
		if !ok {
			continue
		}
		t := cand.truck.truck
		dep, err := m.value(cand.truck.d)
		if err != nil {
			return nil, domain.Summary{}, err
		}
		arrival := dep + t.CumulativeMin[cand.alight]
		fac := m.facilities[c.Destination]
		assignments = append(assignments, domain.Assignment{
			ConsignmentID: c.ID,
			TruckID:       t.ID,
			ArrivalMin:    arrival,
			ArrivalSlot:   fac.SlotIndex(arrival),
		})
		totalCost += cand.cost
		usedTrucks[t.ID] = struct{}{}
		loadByTruck[t.ID] += c.Weight
	}
	slices.SortFunc(assignments, func(a, b domain.Assignment) int {
		return strings.Compare(a.ConsignmentID, b.ConsignmentID)
	})

	utilization := make([]domain.TruckUtilization, 0, len(m.trucks))
	for _, tm := range m.trucks {
		t := tm.truck
		load := loadByTruck[t.ID]
		legLoads, err := m.legLoads(tm, load)
		if err != nil {
			return nil, domain.Summary{}, err
		}
		utilization = append(utilization, domain.TruckUtilization{
			TruckID:  t.ID,
			Load:     load,
			Ratio:    load / t.Capacity,
			LegLoads: legLoads,
		})
	}
	slices.SortFunc(utilization, func(a, b domain.TruckUtilization) int {
		return strings.Compare(a.TruckID, b.TruckID)
	})

	summary := domain.Summary{
		TotalCost:   totalCost,
		TrucksUsed:  len(usedTrucks),
		Unserved:    unserved,
		Utilization: utilization,
	}
	return assignments, summary, nil
}

// legLoads reads the per-leg carried weight for one truck. Trucks without
// flow variables carry their whole load on every leg they have.
func (m *Model) legLoads(tm *truckModel, load float64) ([]float64, error) {
	t := tm.truck
	if len(tm.loads) == 0 {
		out := make([]float64, t.Legs())
		for i := range out {
			out[i] = load
		}
		return out, nil
	}
	out := make([]float64, len(tm.loads))
	for i, v := range tm.loads {
		val, err := m.value(v)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

func (m *Model) value(v ports.VarID) (float64, error) {
	val, err := m.engine.Value(v)
	if err != nil {
		return 0, &domain.SolverError{Op: "read variable", Err: err}
	}
	return val, nil
}
