package domain

// Raw truck row as loaded from storage. Route is the ordered list of node
// ids the truck visits, starting at its origin; shift times are "HH:MM".
type TruckRecord struct {
	ID         string
	Capacity   float64
	ShiftStart string
	ShiftEnd   string
	Route      []string
}

// Truck ready for planning. The truck departs Route[0] at a departure time
// chosen by the optimizer and visits the remaining nodes in order.
// CumulativeMin[i] and CumulativeMeters[i] hold the travel offset from the
// route origin to Route[i]; index 0 is always zero.
type Truck struct {
	ID               string
	Capacity         float64
	ShiftStartMin    float64
	ShiftEndMin      float64
	Route            []string
	CumulativeMin    []float64
	CumulativeMeters []float64
}

// Legs returns the number of route legs (node count minus one).
func (t *Truck) Legs() int { return len(t.Route) - 1 }

// CoversPath reports whether the route visits src strictly before dst and
// returns their node indices: boarding at index i, alighting at index j.
func (t *Truck) CoversPath(src, dst string) (i, j int, ok bool) {
	i, j = -1, -1
	for idx, node := range t.Route {
		if i < 0 && node == src {
			i = idx
			continue
		}
		if i >= 0 && node == dst {
			j = idx
			return i, j, true
		}
	}
	return -1, -1, false
}

// TravelMin returns the travel time in minutes between two route node
// indices, i <= j.
func (t *Truck) TravelMin(i, j int) float64 {
	return t.CumulativeMin[j] - t.CumulativeMin[i]
}

// TravelMeters returns the travel distance in meters between two route node
// indices, i <= j.
func (t *Truck) TravelMeters(i, j int) float64 {
	return t.CumulativeMeters[j] - t.CumulativeMeters[i]
}

// TotalTravelMin returns the travel time from the route origin to its final
// node.
func (t *Truck) TotalTravelMin() float64 {
	return t.CumulativeMin[len(t.CumulativeMin)-1]
}
