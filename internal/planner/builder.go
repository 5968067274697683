package planner

import (
	"fmt"
	"freight-assignment-service/internal/domain"
	"freight-assignment-service/internal/normalize"
	"freight-assignment-service/internal/ports"
	"math"
)

// feasTol absorbs float drift when comparing normalized minutes.
const feasTol = 1e-9

// Build assembles the optimization model for one run: decision variables
// for every feasible (consignment, truck) pairing, the six constraint
// families, and the objective. The engine handle is owned by the returned
// Model until extraction.
//
// Candidate pairs are kept sparse: a variable exists only when the truck's
// route covers the consignment's path and the pairing is time and capacity
// feasible. Everything else is never created.
func Build(engine ports.SolverEngine, data *normalize.Data, sel domain.Selection, opts Options) (*Model, error) {
	m := newModel(engine, data, opts)

	selected, err := selectConsignments(data, sel)
	if err != nil {
		return nil, err
	}
	m.consignments = selected

	if err := m.createTruckVariables(data.Trucks); err != nil {
		return nil, err
	}
	if err := m.createAssignmentVariables(); err != nil {
		return nil, err
	}

	families := []func(*Model) error{
		addAssignmentRows,
		addCapacityRows,
		addReleaseRows,
		addHoursRows,
		addSortingRows,
		addFlowRows,
	}
	for _, family := range families {
		if err := family(m); err != nil {
			return nil, err
		}
	}

	m.setObjective()
	return m, nil
}

// selectConsignments validates the selection against the loaded tables and
// filters the consignments down to it. Empty selection slices select all.
func selectConsignments(data *normalize.Data, sel domain.Selection) ([]*domain.Consignment, error) {
	knownSources := make(map[string]struct{})
	for i := range data.Consignments {
		knownSources[data.Consignments[i].Source] = struct{}{}
	}
	for i := range data.Trucks {
		for _, node := range data.Trucks[i].Route {
			knownSources[node] = struct{}{}
		}
	}

	for _, s := range sel.Sources {
		if _, ok := knownSources[s]; !ok {
			return nil, &domain.ModelConstructionError{Reason: fmt.Sprintf("selection references unknown source %q", s)}
		}
	}
	for _, d := range sel.Destinations {
		if _, ok := data.Facilities[d]; !ok {
			return nil, &domain.ModelConstructionError{Reason: fmt.Sprintf("selection references unknown destination %q", d)}
		}
	}

	wantSource := toSet(sel.Sources)
	wantDest := toSet(sel.Destinations)

	out := make([]*domain.Consignment, 0, len(data.Consignments))
	for i := range data.Consignments {
		c := &data.Consignments[i]
		if len(wantSource) > 0 {
			if _, ok := wantSource[c.Source]; !ok {
				continue
			}
		}
		if len(wantDest) > 0 {
			if _, ok := wantDest[c.Destination]; !ok {
				continue
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func toSet(ids []string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// createTruckVariables adds the used binary and the departure variable for
// every truck whose shift window can fit its route at all.
func (m *Model) createTruckVariables(trucks []domain.Truck) error {
	for i := range trucks {
		t := &trucks[i]
		if t.ShiftStartMin+t.TotalTravelMin() > t.ShiftEndMin+feasTol {
			continue
		}
		if t.ShiftStartMin > m.horizon {
			continue
		}

		y, err := m.engine.AddVariable(ports.Binary, 0, 1, fmt.Sprintf("y[%s]", t.ID))
		if err != nil {
			return &domain.SolverError{Op: "add variable", Err: err}
		}
		d, err := m.engine.AddVariable(ports.Continuous, 0, m.horizon, fmt.Sprintf("d[%s]", t.ID))
		if err != nil {
			return &domain.SolverError{Op: "add variable", Err: err}
		}

		m.trucks = append(m.trucks, &truckModel{truck: t, y: y, d: d})
	}
	return nil
}

// createAssignmentVariables builds the candidate adjacency and one binary
// per feasible pairing, then applies the zero-candidate policy.
func (m *Model) createAssignmentVariables() error {
	for _, c := range m.consignments {
		for _, tm := range m.trucks {
			board, alight, ok := tm.truck.CoversPath(c.Source, c.Destination)
			if !ok {
				continue
			}
			if c.Weight > tm.truck.Capacity+feasTol {
				continue
			}

			// Earliest and latest feasible departure for this pairing.
			lower := math.Max(tm.truck.ShiftStartMin, c.ReleaseMin-tm.truck.CumulativeMin[board])
			upper := math.Min(
				tm.truck.ShiftEndMin-tm.truck.TotalTravelMin(),
				m.horizon-tm.truck.CumulativeMin[alight],
			)
			if c.DeadlineMin != nil {
				upper = math.Min(upper, *c.DeadlineMin-tm.truck.CumulativeMin[alight])
			}
			if lower > upper+feasTol {
				continue
			}

			x, err := m.engine.AddVariable(ports.Binary, 0, 1, fmt.Sprintf("x[%s,%s]", c.ID, tm.truck.ID))
			if err != nil {
				return &domain.SolverError{Op: "add variable", Err: err}
			}

			cand := &candidate{
				consignment: c,
				truck:       tm,
				board:       board,
				alight:      alight,
				cost:        m.opts.CostPerKgKm * c.Weight * tm.truck.TravelMeters(board, alight) / 1000,
				x:           x,
			}
			m.candidates = append(m.candidates, cand)
			m.byConsignment[c.ID] = append(m.byConsignment[c.ID], cand)
			m.byTruck[tm.truck.ID] = append(m.byTruck[tm.truck.ID], cand)
		}
	}

	var missing []string
	for _, c := range m.consignments {
		if len(m.byConsignment[c.ID]) == 0 {
			missing = append(missing, c.ID)
		}
	}
	if len(missing) > 0 && !m.opts.AllowUnserved && m.opts.zeroCandidate() == ZeroCandidateFail {
		return &domain.ModelConstructionError{Reason: "no candidate truck", ConsignmentIDs: missing}
	}

	for _, c := range m.consignments {
		if !m.opts.AllowUnserved && len(m.byConsignment[c.ID]) > 0 {
			continue
		}
		u, err := m.engine.AddVariable(ports.Binary, 0, 1, fmt.Sprintf("u[%s]", c.ID))
		if err != nil {
			return &domain.SolverError{Op: "add variable", Err: err}
		}
		m.unserved[c.ID] = u
	}
	return nil
}

// setObjective minimizes pairing costs when a cost function is configured,
// trucks used otherwise, and always penalizes unserved consignments. A small
// per-truck term breaks cost ties toward fewer trucks; reported totals are
// recomputed from the extracted assignment, so it never leaks into them.
func (m *Model) setObjective() {
	var terms []ports.LinTerm

	for _, cand := range m.candidates {
		if cand.cost != 0 {
			terms = append(terms, ports.LinTerm{Var: cand.x, Coeff: cand.cost})
		}
	}

	tw := m.opts.truckWeight()
	for _, tm := range m.trucks {
		terms = append(terms, ports.LinTerm{Var: tm.y, Coeff: tw})
	}

	pen := m.opts.unservedPenalty()
	for _, c := range m.consignments {
		if u, ok := m.unserved[c.ID]; ok {
			terms = append(terms, ports.LinTerm{Var: u, Coeff: pen})
		}
	}

	m.engine.SetObjective(terms, ports.Minimize)
}
