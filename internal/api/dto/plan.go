package dto

import "time"

type PlanRequest struct {
	Sources      []string `json:"sources"`
	Destinations []string `json:"destinations"`
	TimeLimitSec int      `json:"time_limit_sec"`
}

type BatchPlanRequest struct {
	Runs []PlanRequest `json:"runs"`
}

type AssignmentResponse struct {
	ConsignmentID string  `json:"consignment_id"`
	TruckID       string  `json:"truck_id"`
	ArrivalMin    float64 `json:"arrival_min"`
	ArrivalSlot   int     `json:"arrival_slot"`
}

type TruckUtilizationResponse struct {
	TruckID    string    `json:"truck_id"`
	LoadKg     float64   `json:"load_kg"`
	Ratio      float64   `json:"ratio"`
	LegLoadsKg []float64 `json:"leg_loads_kg"`
}

type PlanSummaryResponse struct {
	TotalCost   float64                    `json:"total_cost"`
	TrucksUsed  int                        `json:"trucks_used"`
	Unserved    []string                   `json:"unserved"`
	Utilization []TruckUtilizationResponse `json:"utilization"`
}

type PlanResponse struct {
	PlanID       string               `json:"plan_id"`
	CreatedAt    time.Time            `json:"created_at"`
	Status       string               `json:"status"`
	Sources      []string             `json:"sources,omitempty"`
	Destinations []string             `json:"destinations,omitempty"`
	TimeLimitSec float64              `json:"time_limit_sec"`
	Assignments  []AssignmentResponse `json:"assignments"`
	Summary      PlanSummaryResponse  `json:"summary"`
	Diagnostics  []string             `json:"diagnostics,omitempty"`
}

type BatchPlanResponse struct {
	Plans []PlanResponse `json:"plans"`
}
