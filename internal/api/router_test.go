package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"freight-assignment-service/internal/adapters/milp"
	"freight-assignment-service/internal/api/dto"
	"freight-assignment-service/internal/domain"
	"freight-assignment-service/internal/metrics"
	"freight-assignment-service/internal/normalize"
	"freight-assignment-service/internal/planner"
	"freight-assignment-service/internal/ports"
	"freight-assignment-service/internal/services"
)

type stubTables struct {
	consignments []domain.ConsignmentRecord
	trucks       []domain.TruckRecord
	facilities   []domain.FacilityRecord
	legs         []domain.TravelLeg
}

func (s *stubTables) ListConsignments(ctx context.Context) ([]domain.ConsignmentRecord, error) {
	return s.consignments, nil
}

func (s *stubTables) ListTrucks(ctx context.Context) ([]domain.TruckRecord, error) {
	return s.trucks, nil
}

func (s *stubTables) ListFacilities(ctx context.Context) ([]domain.FacilityRecord, error) {
	return s.facilities, nil
}

func (s *stubTables) ListTravelLegs(ctx context.Context) ([]domain.TravelLeg, error) {
	return s.legs, nil
}

type stubStore struct {
	mu    sync.Mutex
	plans map[string]*domain.Plan
}

func (s *stubStore) SavePlan(ctx context.Context, p *domain.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plans == nil {
		s.plans = make(map[string]*domain.Plan)
	}
	s.plans[p.ID] = p
	return nil
}

func (s *stubStore) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, ports.ErrPlanNotFound
	}
	return p, nil
}

func testRouter() http.Handler {
	tables := &stubTables{
		consignments: []domain.ConsignmentRecord{
			{ID: "C1", Source: "S1", Destination: "F1", Weight: 3, ReleaseTime: "08:30"},
		},
		trucks: []domain.TruckRecord{
			{ID: "T1", Capacity: 10, ShiftStart: "06:00", ShiftEnd: "18:00", Route: []string{"S1", "F1"}},
		},
		facilities: []domain.FacilityRecord{
			{ID: "F1", Name: "Hub F1", SortingCapacityPerSlot: 50, SlotWidthMin: 120},
		},
		legs: []domain.TravelLeg{
			{Origin: "S1", Destination: "F1", DistanceMeters: 40000, DurationSeconds: 3600},
		},
	}
	svc := &services.PlanService{
		Engines:      milp.Factory{},
		Consignments: tables,
		Trucks:       tables,
		Facilities:   tables,
		TravelLegs:   tables,
		Store:        &stubStore{},
		Normalize: normalize.Config{
			ReferenceDay: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
			HorizonDays:  1,
		},
		Planner: planner.Options{CostPerKgKm: 1},
	}
	return NewRouter(svc, tables, tables, tables)
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(testRouter(), http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want %q", body["status"], "ok")
	}
}

func TestCreatePlanEndpoint(t *testing.T) {
	rec := doRequest(testRouter(), http.MethodPost, "/plans", `{"sources":["S1"]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var plan dto.PlanResponse
	if err := json.NewDecoder(rec.Body).Decode(&plan); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if plan.PlanID == "" {
		t.Error("plan_id is empty")
	}
	if plan.Status != string(domain.StatusOptimal) {
		t.Errorf("status = %q, want %q", plan.Status, domain.StatusOptimal)
	}
	if len(plan.Assignments) != 1 {
		t.Fatalf("assignments = %+v, want one entry", plan.Assignments)
	}
	if plan.Assignments[0].ConsignmentID != "C1" || plan.Assignments[0].TruckID != "T1" {
		t.Errorf("assignment = %+v, want C1 on T1", plan.Assignments[0])
	}
	if plan.Summary.TotalCost != 120 {
		t.Errorf("total cost = %v, want 120", plan.Summary.TotalCost)
	}
}

func TestGetPlanEndpoint(t *testing.T) {
	router := testRouter()

	rec := doRequest(router, http.MethodPost, "/plans", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created dto.PlanResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode create body: %v", err)
	}

	rec = doRequest(router, http.MethodGet, "/plans/"+created.PlanID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, body %s", rec.Code, rec.Body)
	}
	var fetched dto.PlanResponse
	if err := json.NewDecoder(rec.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode get body: %v", err)
	}
	if fetched.PlanID != created.PlanID {
		t.Errorf("plan_id = %q, want %q", fetched.PlanID, created.PlanID)
	}

	rec = doRequest(router, http.MethodGet, "/plans/does-not-exist", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing plan status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCreatePlanRejectsBadRequests(t *testing.T) {
	router := testRouter()

	rec := doRequest(router, http.MethodPost, "/plans", `{"bogus":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doRequest(router, http.MethodPost, "/plans", `{}{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("trailing object status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doRequest(router, http.MethodPost, "/plans", `{"time_limit_sec":700}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("time limit status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doRequest(router, http.MethodGet, "/plans", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("method status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Errorf("Allow header = %q, want %q", allow, http.MethodPost)
	}
}

func TestCreatePlanUnknownSelection(t *testing.T) {
	rec := doRequest(testRouter(), http.MethodPost, "/plans", `{"sources":["S9"]}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(body["error"], "unknown source") {
		t.Errorf("error = %q, want mention of unknown source", body["error"])
	}
}

func TestBatchEndpoint(t *testing.T) {
	router := testRouter()

	rec := doRequest(router, http.MethodPost, "/plans/batch", `{"runs":[{},{"sources":["S1"]}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var res dto.BatchPlanResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(res.Plans) != 2 {
		t.Fatalf("plans = %d, want 2", len(res.Plans))
	}
	for i, p := range res.Plans {
		if p.Status != string(domain.StatusOptimal) {
			t.Errorf("plan %d status = %q, want %q", i, p.Status, domain.StatusOptimal)
		}
	}

	rec = doRequest(router, http.MethodPost, "/plans/batch", `{"runs":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty runs status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestInputEndpoints(t *testing.T) {
	router := testRouter()

	rec := doRequest(router, http.MethodGet, "/consignments", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("consignments status = %d", rec.Code)
	}
	var consignments dto.ListConsignmentsResponse
	if err := json.NewDecoder(rec.Body).Decode(&consignments); err != nil {
		t.Fatalf("decode consignments: %v", err)
	}
	if len(consignments.Consignments) != 1 || consignments.Consignments[0].ID != "C1" {
		t.Errorf("consignments = %+v, want single C1", consignments.Consignments)
	}

	rec = doRequest(router, http.MethodGet, "/trucks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("trucks status = %d", rec.Code)
	}
	var trucks dto.ListTrucksResponse
	if err := json.NewDecoder(rec.Body).Decode(&trucks); err != nil {
		t.Fatalf("decode trucks: %v", err)
	}
	if len(trucks.Trucks) != 1 || trucks.Trucks[0].ID != "T1" {
		t.Errorf("trucks = %+v, want single T1", trucks.Trucks)
	}
	if got := trucks.Trucks[0].Route; len(got) != 2 || got[0] != "S1" {
		t.Errorf("route = %v, want [S1 F1]", got)
	}

	rec = doRequest(router, http.MethodGet, "/facilities", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("facilities status = %d", rec.Code)
	}
	var facilities dto.ListFacilitiesResponse
	if err := json.NewDecoder(rec.Body).Decode(&facilities); err != nil {
		t.Fatalf("decode facilities: %v", err)
	}
	if len(facilities.Facilities) != 1 || facilities.Facilities[0].ID != "F1" {
		t.Errorf("facilities = %+v, want single F1", facilities.Facilities)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.RegisterDefault()
	router := testRouter()

	// Prime the request counters so the families render.
	doRequest(router, http.MethodGet, "/health", "")

	rec := doRequest(router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "http_requests_total") {
		t.Error("metrics output missing http_requests_total")
	}
}

func TestCORSHeaders(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
