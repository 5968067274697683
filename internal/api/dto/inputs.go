package dto

type ConsignmentResponse struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	WeightKg    float64 `json:"weight_kg"`
	ReleaseTime string  `json:"release_time"`
	Deadline    string  `json:"deadline,omitempty"`
}

type ListConsignmentsResponse struct {
	Consignments []ConsignmentResponse `json:"consignments"`
}

type TruckResponse struct {
	ID         string   `json:"id"`
	CapacityKg float64  `json:"capacity_kg"`
	ShiftStart string   `json:"shift_start"`
	ShiftEnd   string   `json:"shift_end"`
	Route      []string `json:"route"`
}

type ListTrucksResponse struct {
	Trucks []TruckResponse `json:"trucks"`
}

type FacilityResponse struct {
	ID                     string  `json:"id"`
	Name                   string  `json:"name"`
	Lon                    float64 `json:"lon"`
	Lat                    float64 `json:"lat"`
	SortingCapacityPerSlot float64 `json:"sorting_capacity_per_slot"`
	SlotWidthMin           float64 `json:"slot_width_min"`
}

type ListFacilitiesResponse struct {
	Facilities []FacilityResponse `json:"facilities"`
}
