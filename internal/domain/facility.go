package domain

import "math"

// Immutable geographic coordinates (longitude, latitude).
// Served to the dashboard for map rendering; the optimizer never reads them.
type Coordinates struct {
	Lon float64
	Lat float64
}

// Raw sorting facility row as loaded from storage.
type FacilityRecord struct {
	ID                     string
	Name                   string
	Coords                 Coordinates
	SortingCapacityPerSlot float64
	SlotWidthMin           float64
}

// Facility ready for planning. Arrivals at the facility are bucketed into
// fixed-width, non-overlapping slots covering the planning horizon:
// slot k spans [k*SlotWidthMin, (k+1)*SlotWidthMin).
type Facility struct {
	ID           string
	Name         string
	Coords       Coordinates
	SlotCapacity float64
	SlotWidthMin float64
	SlotCount    int
}

// slotEdgeTol absorbs float drift on slot boundaries: an arrival within a
// microminute below a boundary counts as the later slot.
const slotEdgeTol = 1e-6

// SlotIndex returns the slot an arrival time falls into. An arrival exactly
// on a slot boundary belongs to the later slot.
func (f *Facility) SlotIndex(arrivalMin float64) int {
	return int(math.Floor((arrivalMin + slotEdgeTol) / f.SlotWidthMin))
}

// SlotStart returns the start minute of slot k.
func (f *Facility) SlotStart(k int) float64 { return float64(k) * f.SlotWidthMin }
