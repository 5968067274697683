package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"freight-assignment-service/internal/api/dto"
	"freight-assignment-service/internal/domain"
	"freight-assignment-service/internal/ports"
	"freight-assignment-service/internal/services"
)

const maxBatchRuns = 20

type PlanHandler struct {
	Service *services.PlanService
}

// Create runs one optimization over the selected consignments and trucks
// and returns the persisted plan. Infeasible runs still produce a plan;
// only malformed requests and broken inputs are rejected.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.PlanRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if req.TimeLimitSec < 0 || req.TimeLimitSec > 600 {
		writeError(w, r, http.StatusBadRequest, "time_limit_sec must be between 0 and 600")
		return
	}

	plan, err := h.Service.CreatePlan(r.Context(), services.CreatePlanRequest{
		Selection: domain.Selection{
			Sources:      req.Sources,
			Destinations: req.Destinations,
		},
		TimeLimit: time.Duration(req.TimeLimitSec) * time.Second,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toPlanResponse(plan))
}

// Get returns a previously persisted plan by id.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/plans/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "plan not found")
		return
	}

	plan, err := h.Service.GetPlan(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toPlanResponse(plan))
}

// Batch runs several independent optimization scenarios and returns their
// plans in request order.
func (h *PlanHandler) Batch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.BatchPlanRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if len(req.Runs) == 0 {
		writeError(w, r, http.StatusBadRequest, "runs must not be empty")
		return
	}
	if len(req.Runs) > maxBatchRuns {
		writeError(w, r, http.StatusBadRequest, "runs must contain at most 20 entries")
		return
	}

	reqs := make([]services.CreatePlanRequest, 0, len(req.Runs))
	for _, run := range req.Runs {
		if run.TimeLimitSec < 0 || run.TimeLimitSec > 600 {
			writeError(w, r, http.StatusBadRequest, "time_limit_sec must be between 0 and 600")
			return
		}
		reqs = append(reqs, services.CreatePlanRequest{
			Selection: domain.Selection{
				Sources:      run.Sources,
				Destinations: run.Destinations,
			},
			TimeLimit: time.Duration(run.TimeLimitSec) * time.Second,
		})
	}

	plans, err := h.Service.CreatePlans(r.Context(), reqs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.BatchPlanResponse{Plans: make([]dto.PlanResponse, 0, len(plans))}
	for _, p := range plans {
		res.Plans = append(res.Plans, toPlanResponse(p))
	}

	writeJSON(w, r, http.StatusOK, res)
}

// writeServiceError maps service failures onto HTTP statuses. Input and
// model problems are the caller's to fix; everything else is a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *domain.DataValidationError
	var modelErr *domain.ModelConstructionError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, r, http.StatusUnprocessableEntity, validationErr.Error())
	case errors.As(err, &modelErr):
		writeError(w, r, http.StatusUnprocessableEntity, modelErr.Error())
	case errors.Is(err, ports.ErrPlanNotFound):
		writeError(w, r, http.StatusNotFound, "plan not found")
	default:
		log.Printf("plan request failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func toPlanResponse(p *domain.Plan) dto.PlanResponse {
	assignments := make([]dto.AssignmentResponse, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		assignments = append(assignments, dto.AssignmentResponse{
			ConsignmentID: a.ConsignmentID,
			TruckID:       a.TruckID,
			ArrivalMin:    a.ArrivalMin,
			ArrivalSlot:   a.ArrivalSlot,
		})
	}

	utilization := make([]dto.TruckUtilizationResponse, 0, len(p.Summary.Utilization))
	for _, u := range p.Summary.Utilization {
		utilization = append(utilization, dto.TruckUtilizationResponse{
			TruckID:    u.TruckID,
			LoadKg:     u.Load,
			Ratio:      u.Ratio,
			LegLoadsKg: u.LegLoads,
		})
	}

	unserved := p.Summary.Unserved
	if unserved == nil {
		unserved = []string{}
	}

	return dto.PlanResponse{
		PlanID:       p.ID,
		CreatedAt:    p.CreatedAt,
		Status:       string(p.Status),
		Sources:      p.Selection.Sources,
		Destinations: p.Selection.Destinations,
		TimeLimitSec: p.TimeLimit.Seconds(),
		Assignments:  assignments,
		Summary: dto.PlanSummaryResponse{
			TotalCost:   p.Summary.TotalCost,
			TrucksUsed:  p.Summary.TrucksUsed,
			Unserved:    unserved,
			Utilization: utilization,
		},
		Diagnostics: p.Diagnostics,
	}
}
