package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"freight-assignment-service/internal/domain"
	"freight-assignment-service/internal/ports"

	"github.com/alicebob/miniredis/v2"
)

func testPlan() *domain.Plan {
	return &domain.Plan{
		ID:        "plan-123",
		CreatedAt: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
		Selection: domain.Selection{Sources: []string{"S1"}},
		TimeLimit: 30 * time.Second,
		Status:    domain.StatusOptimal,
		Assignments: []domain.Assignment{
			{ConsignmentID: "C1", TruckID: "T1", ArrivalMin: 570, ArrivalSlot: 9},
		},
		Summary: domain.Summary{
			TotalCost:  120,
			TrucksUsed: 1,
			Utilization: []domain.TruckUtilization{
				{TruckID: "T1", Load: 3, Ratio: 0.3, LegLoads: []float64{3}},
			},
		},
	}
}

func newTestCache(t *testing.T) (*RedisPlanCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisPlanCache("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("connect to miniredis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisPlanCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if _, err := c.Get(ctx, "plan:abc"); !errors.Is(err, ports.ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	want := testPlan()
	if err := c.Put(ctx, "plan:abc", want, time.Minute); err != nil {
		t.Fatalf("put plan: %v", err)
	}

	got, err := c.Get(ctx, "plan:abc")
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if got.ID != want.ID {
		t.Errorf("plan id = %s, want %s", got.ID, want.ID)
	}
	if got.Status != want.Status {
		t.Errorf("status = %s, want %s", got.Status, want.Status)
	}
	if got.TimeLimit != want.TimeLimit {
		t.Errorf("time limit = %s, want %s", got.TimeLimit, want.TimeLimit)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("created at = %s, want %s", got.CreatedAt, want.CreatedAt)
	}
	if len(got.Assignments) != 1 || got.Assignments[0] != want.Assignments[0] {
		t.Errorf("assignments = %+v, want %+v", got.Assignments, want.Assignments)
	}
	if got.Summary.TotalCost != want.Summary.TotalCost {
		t.Errorf("total cost = %v, want %v", got.Summary.TotalCost, want.Summary.TotalCost)
	}
}

func TestRedisPlanCacheExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "plan:ttl", testPlan(), time.Minute); err != nil {
		t.Fatalf("put plan: %v", err)
	}
	if _, err := c.Get(ctx, "plan:ttl"); err != nil {
		t.Fatalf("get before expiry: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := c.Get(ctx, "plan:ttl"); !errors.Is(err, ports.ErrCacheMiss) {
		t.Fatalf("expected cache miss after expiry, got %v", err)
	}
}

func TestRedisPlanCacheBadURL(t *testing.T) {
	if _, err := NewRedisPlanCache("not-a-url"); err == nil {
		t.Fatal("expected error for malformed url")
	}
}
