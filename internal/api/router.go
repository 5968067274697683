package api

import (
	"net/http"

	"freight-assignment-service/internal/api/handlers"
	"freight-assignment-service/internal/metrics"
	"freight-assignment-service/internal/ports"
	"freight-assignment-service/internal/services"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(svc *services.PlanService, consignments ports.ConsignmentRepository, trucks ports.TruckRepository, facilities ports.FacilityRepository) http.Handler {
	mux := http.NewServeMux()

	inputHandler := &handlers.InputHandler{
		Consignments: consignments,
		Trucks:       trucks,
		Facilities:   facilities,
	}
	planHandler := &handlers.PlanHandler{Service: svc}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/consignments", inputHandler.ListConsignments)
	mux.HandleFunc("/trucks", inputHandler.ListTrucks)
	mux.HandleFunc("/facilities", inputHandler.ListFacilities)
	mux.HandleFunc("/plans", planHandler.Create)
	mux.HandleFunc("/plans/", planHandler.Get)
	mux.HandleFunc("/plans/batch", planHandler.Batch)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return cors.Default().Handler(loggingMiddleware(mux))
}
