package planner

import (
	"fmt"
	"freight-assignment-service/internal/domain"
	"freight-assignment-service/internal/ports"
	"slices"
	"strings"
)

// slotEdge keeps a chosen slot's upper boundary exclusive in the linear
// relaxation. It matches the tolerance used when bucketing extracted
// arrivals, so the model and the report agree on boundary arrivals.
const slotEdge = 1e-6

// addAssignmentRows forces every consignment onto exactly one truck, or
// onto its unserved variable when one exists.
func addAssignmentRows(m *Model) error {
	for _, c := range m.consignments {
		terms := make([]ports.LinTerm, 0, len(m.byConsignment[c.ID])+1)
		for _, cand := range m.byConsignment[c.ID] {
			terms = append(terms, ports.LinTerm{Var: cand.x, Coeff: 1})
		}
		if u, ok := m.unserved[c.ID]; ok {
			terms = append(terms, ports.LinTerm{Var: u, Coeff: 1})
		}
		if err := m.engine.AddConstraint(terms, ports.EQ, 1, fmt.Sprintf("assign[%s]", c.ID)); err != nil {
			return &domain.SolverError{Op: "add constraint", Err: err}
		}
	}
	return nil
}

// addCapacityRows caps the weight assigned to each truck by its capacity
// and ties the truck-used binary to its assignments: any assignment forces
// the truck used.
func addCapacityRows(m *Model) error {
	for _, tm := range m.trucks {
		cands := m.byTruck[tm.truck.ID]
		if len(cands) == 0 {
			continue
		}
		terms := make([]ports.LinTerm, 0, len(cands)+1)
		for _, cand := range cands {
			terms = append(terms, ports.LinTerm{Var: cand.x, Coeff: cand.consignment.Weight})
		}
		terms = append(terms, ports.LinTerm{Var: tm.y, Coeff: -tm.truck.Capacity})
		if err := m.engine.AddConstraint(terms, ports.LE, 0, fmt.Sprintf("capacity[%s]", tm.truck.ID)); err != nil {
			return &domain.SolverError{Op: "add constraint", Err: err}
		}
	}
	return nil
}

// addReleaseRows delays a truck's departure until every assigned
// consignment has been released at its boarding node. Pairs whose release
// offset is non-positive hold at any departure and need no row.
func addReleaseRows(m *Model) error {
	for _, cand := range m.candidates {
		offset := cand.consignment.ReleaseMin - cand.truck.truck.CumulativeMin[cand.board]
		if offset <= feasTol {
			continue
		}
		terms := []ports.LinTerm{
			{Var: cand.truck.d, Coeff: 1},
			{Var: cand.x, Coeff: -offset},
		}
		name := fmt.Sprintf("release[%s,%s]", cand.consignment.ID, cand.truck.truck.ID)
		if err := m.engine.AddConstraint(terms, ports.GE, 0, name); err != nil {
			return &domain.SolverError{Op: "add constraint", Err: err}
		}
	}
	return nil
}

// addHoursRows keeps each truck's full route inside its shift window and,
// for candidates carrying a delivery deadline, forces the departure early
// enough to meet it whenever the pair is chosen.
func addHoursRows(m *Model) error {
	for _, tm := range m.trucks {
		t := tm.truck
		dep := []ports.LinTerm{{Var: tm.d, Coeff: 1}}
		if err := m.engine.AddConstraint(dep, ports.GE, t.ShiftStartMin, fmt.Sprintf("hours_start[%s]", t.ID)); err != nil {
			return &domain.SolverError{Op: "add constraint", Err: err}
		}
		if err := m.engine.AddConstraint(dep, ports.LE, t.ShiftEndMin-t.TotalTravelMin(), fmt.Sprintf("hours_end[%s]", t.ID)); err != nil {
			return &domain.SolverError{Op: "add constraint", Err: err}
		}
	}

	for _, cand := range m.candidates {
		c := cand.consignment
		if c.DeadlineMin == nil {
			continue
		}
		t := cand.truck.truck
		latest := *c.DeadlineMin - t.CumulativeMin[cand.alight]
		terms := []ports.LinTerm{
			{Var: cand.truck.d, Coeff: 1},
			{Var: cand.x, Coeff: m.horizon},
		}
		name := fmt.Sprintf("deadline[%s,%s]", c.ID, t.ID)
		if err := m.engine.AddConstraint(terms, ports.LE, latest+m.horizon, name); err != nil {
			return &domain.SolverError{Op: "add constraint", Err: err}
		}
	}
	return nil
}

// facSlot identifies one sorting slot at one facility across the model.
type facSlot struct {
	facility string
	k        int
}

// addSortingRows bounds the weight arriving at each facility per sorting
// slot. Arrival time is departure plus the route offset, so slot membership
// is linearized per truck and alighting node: slot binaries pick the slot
// the arrival falls into, and a continuous volume variable per reachable
// slot carries the alighted weight into the shared facility-slot row.
func addSortingRows(m *Model) error {
	capTerms := map[facSlot][]ports.LinTerm{}

	for _, tm := range m.trucks {
		cands := m.byTruck[tm.truck.ID]
		if len(cands) == 0 {
			continue
		}
		byNode := map[int][]*candidate{}
		for _, cand := range cands {
			byNode[cand.alight] = append(byNode[cand.alight], cand)
		}
		nodes := make([]int, 0, len(byNode))
		for idx := range byNode {
			nodes = append(nodes, idx)
		}
		slices.Sort(nodes)

		for _, idx := range nodes {
			if err := m.addNodeSlotRows(tm, idx, byNode[idx], capTerms); err != nil {
				return err
			}
		}
	}

	keys := make([]facSlot, 0, len(capTerms))
	for key := range capTerms {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b facSlot) int {
		if c := strings.Compare(a.facility, b.facility); c != 0 {
			return c
		}
		return a.k - b.k
	})
	for _, key := range keys {
		fac := m.facilities[key.facility]
		name := fmt.Sprintf("sorting[%s,%d]", key.facility, key.k)
		if err := m.engine.AddConstraint(capTerms[key], ports.LE, fac.SlotCapacity, name); err != nil {
			return &domain.SolverError{Op: "add constraint", Err: err}
		}
	}
	return nil
}

// addNodeSlotRows emits the slot-membership and slot-volume rows for one
// truck at one alighting node.
func (m *Model) addNodeSlotRows(tm *truckModel, idx int, cands []*candidate, capTerms map[facSlot][]ports.LinTerm) error {
	t := tm.truck
	nodeID := t.Route[idx]
	fac := m.facilities[nodeID]
	cum := t.CumulativeMin[idx]

	// Slots reachable from the departure window. The hours rows bound the
	// arrival at this node to [shiftStart+cum, shiftEnd-total+cum].
	kMin := fac.SlotIndex(t.ShiftStartMin + cum)
	kMax := fac.SlotIndex(t.ShiftEndMin - t.TotalTravelMin() + cum)
	if kMax > fac.SlotCount-1 {
		kMax = fac.SlotCount - 1
	}

	maxVol := 0.0
	for _, cand := range cands {
		maxVol += cand.consignment.Weight
	}
	if maxVol > t.Capacity {
		maxVol = t.Capacity
	}

	slotVars := make([]ports.VarID, 0, kMax-kMin+1)
	oneTerms := make([]ports.LinTerm, 0, kMax-kMin+2)
	lbTerms := []ports.LinTerm{{Var: tm.d, Coeff: 1}}
	ubTerms := []ports.LinTerm{{Var: tm.d, Coeff: 1}}

	bigM := m.horizon + cum
	for k := kMin; k <= kMax; k++ {
		a, err := m.engine.AddVariable(ports.Binary, 0, 1, fmt.Sprintf("slot[%s,%s,%d]", t.ID, nodeID, k))
		if err != nil {
			return &domain.SolverError{Op: "add variable", Err: err}
		}
		slotVars = append(slotVars, a)
		oneTerms = append(oneTerms, ports.LinTerm{Var: a, Coeff: 1})
		lbTerms = append(lbTerms, ports.LinTerm{Var: a, Coeff: -fac.SlotStart(k)})
		ubTerms = append(ubTerms, ports.LinTerm{Var: a, Coeff: -(fac.SlotStart(k+1) - slotEdge)})
	}
	oneTerms = append(oneTerms, ports.LinTerm{Var: tm.y, Coeff: -1})
	ubTerms = append(ubTerms, ports.LinTerm{Var: tm.y, Coeff: bigM})

	// Exactly one slot when the truck runs, none when it is idle, and the
	// arrival d+cum must land inside the chosen slot's half-open window.
	if err := m.engine.AddConstraint(oneTerms, ports.EQ, 0, fmt.Sprintf("slot_one[%s,%s]", t.ID, nodeID)); err != nil {
		return &domain.SolverError{Op: "add constraint", Err: err}
	}
	if err := m.engine.AddConstraint(lbTerms, ports.GE, -cum, fmt.Sprintf("slot_lb[%s,%s]", t.ID, nodeID)); err != nil {
		return &domain.SolverError{Op: "add constraint", Err: err}
	}
	if err := m.engine.AddConstraint(ubTerms, ports.LE, bigM-cum, fmt.Sprintf("slot_ub[%s,%s]", t.ID, nodeID)); err != nil {
		return &domain.SolverError{Op: "add constraint", Err: err}
	}

	// Slot volume: at least the alighted weight in the chosen slot, free to
	// drop to zero elsewhere. Keeps the weight-times-slot product linear.
	for i, k := 0, kMin; k <= kMax; i, k = i+1, k+1 {
		v, err := m.engine.AddVariable(ports.Continuous, 0, maxVol, fmt.Sprintf("slotvol[%s,%s,%d]", t.ID, nodeID, k))
		if err != nil {
			return &domain.SolverError{Op: "add variable", Err: err}
		}
		terms := make([]ports.LinTerm, 0, len(cands)+2)
		terms = append(terms, ports.LinTerm{Var: v, Coeff: 1})
		for _, cand := range cands {
			terms = append(terms, ports.LinTerm{Var: cand.x, Coeff: -cand.consignment.Weight})
		}
		terms = append(terms, ports.LinTerm{Var: slotVars[i], Coeff: -maxVol})
		name := fmt.Sprintf("slotvol_lb[%s,%s,%d]", t.ID, nodeID, k)
		if err := m.engine.AddConstraint(terms, ports.GE, -maxVol, name); err != nil {
			return &domain.SolverError{Op: "add constraint", Err: err}
		}
		key := facSlot{facility: fac.ID, k: k}
		capTerms[key] = append(capTerms[key], ports.LinTerm{Var: v, Coeff: 1})
	}
	return nil
}

// addFlowRows equalizes each multi-leg truck's per-leg load with the weight
// boarding and alighting along its route. Single-leg trucks carry their
// whole assignment on that leg and need no rows.
func addFlowRows(m *Model) error {
	for _, tm := range m.trucks {
		t := tm.truck
		cands := m.byTruck[t.ID]
		if t.Legs() < 2 || len(cands) == 0 {
			continue
		}
		tm.loads = make([]ports.VarID, t.Legs())
		for i := 0; i < t.Legs(); i++ {
			v, err := m.engine.AddVariable(ports.Continuous, 0, t.Capacity, fmt.Sprintf("load[%s,%d]", t.ID, i))
			if err != nil {
				return &domain.SolverError{Op: "add variable", Err: err}
			}
			tm.loads[i] = v
		}
		for i := 0; i < t.Legs(); i++ {
			terms := []ports.LinTerm{{Var: tm.loads[i], Coeff: 1}}
			if i > 0 {
				terms = append(terms, ports.LinTerm{Var: tm.loads[i-1], Coeff: -1})
			}
			for _, cand := range cands {
				if cand.board == i {
					terms = append(terms, ports.LinTerm{Var: cand.x, Coeff: -cand.consignment.Weight})
				}
				if cand.alight == i {
					terms = append(terms, ports.LinTerm{Var: cand.x, Coeff: cand.consignment.Weight})
				}
			}
			if err := m.engine.AddConstraint(terms, ports.EQ, 0, fmt.Sprintf("flow[%s,%d]", t.ID, i)); err != nil {
				return &domain.SolverError{Op: "add constraint", Err: err}
			}
		}
	}
	return nil
}
