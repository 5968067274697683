//go:build postgres_integration

package repositories

import (
	"errors"
	"os"
	"testing"
	"time"

	"freight-assignment-service/internal/domain"
	"freight-assignment-service/internal/platform/db"
	"freight-assignment-service/internal/ports"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	database, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer database.Close()

	ctx := t.Context()
	if err := InitSchema(ctx, database); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	if err := SeedFromJSON(ctx, database, "../../../data/seeds/inputs.json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	inputs := NewPostgresInputRepository(database)

	consignments, err := inputs.ListConsignments(ctx)
	if err != nil {
		t.Fatalf("list consignments: %v", err)
	}
	if len(consignments) == 0 {
		t.Fatal("no consignments after seeding")
	}

	trucks, err := inputs.ListTrucks(ctx)
	if err != nil {
		t.Fatalf("list trucks: %v", err)
	}
	for _, tr := range trucks {
		if len(tr.Route) < 2 {
			t.Errorf("truck %s route = %v, want at least two nodes", tr.ID, tr.Route)
		}
	}

	facilities, err := inputs.ListFacilities(ctx)
	if err != nil {
		t.Fatalf("list facilities: %v", err)
	}
	if len(facilities) == 0 {
		t.Fatal("no facilities after seeding")
	}

	legs, err := inputs.ListTravelLegs(ctx)
	if err != nil {
		t.Fatalf("list travel legs: %v", err)
	}
	if len(legs) == 0 {
		t.Fatal("no travel legs after seeding")
	}

	store := NewPostgresPlanStore(database)
	plan := &domain.Plan{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Selection: domain.Selection{Sources: []string{"PHX-W-DEPOT"}},
		TimeLimit: 30 * time.Second,
		Status:    domain.StatusOptimal,
		Assignments: []domain.Assignment{
			{ConsignmentID: "CN-1001", TruckID: "T-101", ArrivalMin: 415, ArrivalSlot: 6},
		},
		Summary: domain.Summary{
			TotalCost:  10.8,
			TrucksUsed: 1,
			Utilization: []domain.TruckUtilization{
				{TruckID: "T-101", Load: 900, Ratio: 900.0 / 4200, LegLoads: []float64{900}},
			},
		},
	}
	if err := store.SavePlan(ctx, plan); err != nil {
		t.Fatalf("save plan: %v", err)
	}

	got, err := store.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if got.Status != plan.Status {
		t.Errorf("status = %q, want %q", got.Status, plan.Status)
	}
	if got.TimeLimit != plan.TimeLimit {
		t.Errorf("time limit = %s, want %s", got.TimeLimit, plan.TimeLimit)
	}
	if len(got.Assignments) != 1 || got.Assignments[0].ConsignmentID != "CN-1001" {
		t.Errorf("assignments = %+v, want single CN-1001", got.Assignments)
	}
	if len(got.Summary.Utilization) != 1 || got.Summary.Utilization[0].Load != 900 {
		t.Errorf("utilization = %+v, want single T-101 at 900", got.Summary.Utilization)
	}

	if _, err := store.GetPlan(ctx, "missing-plan-id"); !errors.Is(err, ports.ErrPlanNotFound) {
		t.Fatalf("missing plan error = %v, want plan not found", err)
	}
}
