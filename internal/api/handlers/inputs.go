package handlers

import (
	"log"
	"net/http"

	"freight-assignment-service/internal/api/dto"
	"freight-assignment-service/internal/ports"
)

// InputHandler exposes read-only views of the planning input tables.
type InputHandler struct {
	Consignments ports.ConsignmentRepository
	Trucks       ports.TruckRepository
	Facilities   ports.FacilityRepository
}

func (h *InputHandler) ListConsignments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records, err := h.Consignments.ListConsignments(r.Context())
	if err != nil {
		log.Printf("list consignments failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListConsignmentsResponse{
		Consignments: make([]dto.ConsignmentResponse, 0, len(records)),
	}
	for _, c := range records {
		res.Consignments = append(res.Consignments, dto.ConsignmentResponse{
			ID:          c.ID,
			Source:      c.Source,
			Destination: c.Destination,
			WeightKg:    c.Weight,
			ReleaseTime: c.ReleaseTime,
			Deadline:    c.Deadline,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *InputHandler) ListTrucks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records, err := h.Trucks.ListTrucks(r.Context())
	if err != nil {
		log.Printf("list trucks failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListTrucksResponse{
		Trucks: make([]dto.TruckResponse, 0, len(records)),
	}
	for _, t := range records {
		res.Trucks = append(res.Trucks, dto.TruckResponse{
			ID:         t.ID,
			CapacityKg: t.Capacity,
			ShiftStart: t.ShiftStart,
			ShiftEnd:   t.ShiftEnd,
			Route:      t.Route,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *InputHandler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records, err := h.Facilities.ListFacilities(r.Context())
	if err != nil {
		log.Printf("list facilities failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListFacilitiesResponse{
		Facilities: make([]dto.FacilityResponse, 0, len(records)),
	}
	for _, f := range records {
		res.Facilities = append(res.Facilities, dto.FacilityResponse{
			ID:                     f.ID,
			Name:                   f.Name,
			Lon:                    f.Coords.Lon,
			Lat:                    f.Coords.Lat,
			SortingCapacityPerSlot: f.SortingCapacityPerSlot,
			SlotWidthMin:           f.SlotWidthMin,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
