package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// InitSchema creates every table the service needs. Statements are
// idempotent so the tool can run against an existing database.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	createConsignments := `
		CREATE TABLE IF NOT EXISTS consignments (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			destination TEXT NOT NULL,
			weight_kg DOUBLE PRECISION NOT NULL,
			release_time TEXT NOT NULL,
			deadline TEXT
		);
	`
	createTrucks := `
		CREATE TABLE IF NOT EXISTS trucks (
			id TEXT PRIMARY KEY,
			capacity_kg DOUBLE PRECISION NOT NULL,
			shift_start TEXT NOT NULL,
			shift_end TEXT NOT NULL
		);
	`
	createTruckRouteNodes := `
		CREATE TABLE IF NOT EXISTS truck_route_nodes (
			truck_id TEXT NOT NULL REFERENCES trucks(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			node_id TEXT NOT NULL,
			PRIMARY KEY (truck_id, position)
		);
	`
	createFacilities := `
		CREATE TABLE IF NOT EXISTS facilities (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			lon DOUBLE PRECISION NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			sorting_capacity_per_slot DOUBLE PRECISION NOT NULL,
			slot_width_min DOUBLE PRECISION NOT NULL
		);
	`
	createTravelLegs := `
		CREATE TABLE IF NOT EXISTS travel_legs (
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			distance_meters INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL,
			PRIMARY KEY (origin, destination)
		);
	`
	createPlans := `
		CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL,
			time_limit_ms BIGINT NOT NULL,
			selection_json TEXT NOT NULL,
			summary_json TEXT NOT NULL,
			diagnostics_json TEXT NOT NULL
		);
	`
	createPlanAssignments := `
		CREATE TABLE IF NOT EXISTS plan_assignments (
			plan_id TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
			consignment_id TEXT NOT NULL,
			truck_id TEXT NOT NULL,
			arrival_min DOUBLE PRECISION NOT NULL,
			arrival_slot INTEGER NOT NULL,
			PRIMARY KEY (plan_id, consignment_id)
		);
	`

	statements := []string{
		createConsignments,
		createTrucks,
		createTruckRouteNodes,
		createFacilities,
		createTravelLegs,
		createPlans,
		createPlanAssignments,
	}
	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit: %w", err)
	}
	return nil
}

type consignmentSeed struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	WeightKg    float64 `json:"weight_kg"`
	ReleaseTime string  `json:"release_time"`
	Deadline    string  `json:"deadline,omitempty"`
}

type truckSeed struct {
	ID         string   `json:"id"`
	CapacityKg float64  `json:"capacity_kg"`
	ShiftStart string   `json:"shift_start"`
	ShiftEnd   string   `json:"shift_end"`
	Route      []string `json:"route"`
}

type facilitySeed struct {
	ID                     string  `json:"id"`
	Name                   string  `json:"name"`
	Lon                    float64 `json:"lon"`
	Lat                    float64 `json:"lat"`
	SortingCapacityPerSlot float64 `json:"sorting_capacity_per_slot"`
	SlotWidthMin           float64 `json:"slot_width_min"`
}

type travelLegSeed struct {
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
}

type seedFile struct {
	Consignments []consignmentSeed `json:"consignments"`
	Trucks       []truckSeed       `json:"trucks"`
	Facilities   []facilitySeed    `json:"facilities"`
	TravelLegs   []travelLegSeed   `json:"travel_legs"`
}

// SeedFromJSON loads all four input tables from a single JSON document.
// Existing rows with the same key are overwritten; truck routes are
// replaced wholesale.
func SeedFromJSON(ctx context.Context, db *sql.DB, path string) error {
	if db == nil {
		return errors.New("seed: DB is nil")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("seed: read %s: %w", path, err)
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("seed: parse %s: %w", path, err)
	}

	for i, c := range seed.Consignments {
		if c.ID == "" || c.Source == "" || c.Destination == "" {
			return fmt.Errorf("seed: consignment #%d: missing id, source or destination", i+1)
		}
		if c.WeightKg <= 0 {
			return fmt.Errorf("seed: consignment %s: weight must be positive", c.ID)
		}
		if c.ReleaseTime == "" {
			return fmt.Errorf("seed: consignment %s: missing release_time", c.ID)
		}
	}
	for i, t := range seed.Trucks {
		if t.ID == "" {
			return fmt.Errorf("seed: truck #%d: missing id", i+1)
		}
		if t.CapacityKg <= 0 {
			return fmt.Errorf("seed: truck %s: capacity must be positive", t.ID)
		}
		if t.ShiftStart == "" || t.ShiftEnd == "" {
			return fmt.Errorf("seed: truck %s: missing shift window", t.ID)
		}
		if len(t.Route) < 2 {
			return fmt.Errorf("seed: truck %s: route needs at least two nodes", t.ID)
		}
	}
	for i, f := range seed.Facilities {
		if f.ID == "" {
			return fmt.Errorf("seed: facility #%d: missing id", i+1)
		}
		if f.SortingCapacityPerSlot <= 0 || f.SlotWidthMin <= 0 {
			return fmt.Errorf("seed: facility %s: capacity and slot width must be positive", f.ID)
		}
	}
	for i, l := range seed.TravelLegs {
		if l.Origin == "" || l.Destination == "" {
			return fmt.Errorf("seed: travel leg #%d: missing origin or destination", i+1)
		}
		if l.DurationSeconds <= 0 {
			return fmt.Errorf("seed: travel leg %s->%s: duration must be positive", l.Origin, l.Destination)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	upsertConsignment := `
		INSERT INTO consignments (id, source, destination, weight_kg, release_time, deadline)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			destination = EXCLUDED.destination,
			weight_kg = EXCLUDED.weight_kg,
			release_time = EXCLUDED.release_time,
			deadline = EXCLUDED.deadline;
	`
	consignmentStmt, err := tx.PrepareContext(ctx, upsertConsignment)
	if err != nil {
		return fmt.Errorf("seed: prepare consignment upsert: %w", err)
	}
	defer consignmentStmt.Close()

	for _, c := range seed.Consignments {
		var deadline any
		if c.Deadline != "" {
			deadline = c.Deadline
		}
		if _, err := consignmentStmt.ExecContext(ctx, c.ID, c.Source, c.Destination, c.WeightKg, c.ReleaseTime, deadline); err != nil {
			return fmt.Errorf("seed: insert consignment %s: %w", c.ID, err)
		}
	}

	upsertTruck := `
		INSERT INTO trucks (id, capacity_kg, shift_start, shift_end)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			capacity_kg = EXCLUDED.capacity_kg,
			shift_start = EXCLUDED.shift_start,
			shift_end = EXCLUDED.shift_end;
	`
	truckStmt, err := tx.PrepareContext(ctx, upsertTruck)
	if err != nil {
		return fmt.Errorf("seed: prepare truck upsert: %w", err)
	}
	defer truckStmt.Close()

	insertRouteNode := `
		INSERT INTO truck_route_nodes (truck_id, position, node_id)
		VALUES ($1, $2, $3);
	`
	routeStmt, err := tx.PrepareContext(ctx, insertRouteNode)
	if err != nil {
		return fmt.Errorf("seed: prepare route node insert: %w", err)
	}
	defer routeStmt.Close()

	for _, t := range seed.Trucks {
		if _, err := truckStmt.ExecContext(ctx, t.ID, t.CapacityKg, t.ShiftStart, t.ShiftEnd); err != nil {
			return fmt.Errorf("seed: insert truck %s: %w", t.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM truck_route_nodes WHERE truck_id = $1;`, t.ID); err != nil {
			return fmt.Errorf("seed: clear route for truck %s: %w", t.ID, err)
		}
		for pos, node := range t.Route {
			if _, err := routeStmt.ExecContext(ctx, t.ID, pos, node); err != nil {
				return fmt.Errorf("seed: insert route node %s#%d: %w", t.ID, pos, err)
			}
		}
	}

	upsertFacility := `
		INSERT INTO facilities (id, name, lon, lat, sorting_capacity_per_slot, slot_width_min)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			lon = EXCLUDED.lon,
			lat = EXCLUDED.lat,
			sorting_capacity_per_slot = EXCLUDED.sorting_capacity_per_slot,
			slot_width_min = EXCLUDED.slot_width_min;
	`
	facilityStmt, err := tx.PrepareContext(ctx, upsertFacility)
	if err != nil {
		return fmt.Errorf("seed: prepare facility upsert: %w", err)
	}
	defer facilityStmt.Close()

	for _, f := range seed.Facilities {
		if _, err := facilityStmt.ExecContext(ctx, f.ID, f.Name, f.Lon, f.Lat, f.SortingCapacityPerSlot, f.SlotWidthMin); err != nil {
			return fmt.Errorf("seed: insert facility %s: %w", f.ID, err)
		}
	}

	upsertTravelLeg := `
		INSERT INTO travel_legs (origin, destination, distance_meters, duration_seconds)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (origin, destination) DO UPDATE SET
			distance_meters = EXCLUDED.distance_meters,
			duration_seconds = EXCLUDED.duration_seconds;
	`
	legStmt, err := tx.PrepareContext(ctx, upsertTravelLeg)
	if err != nil {
		return fmt.Errorf("seed: prepare travel leg upsert: %w", err)
	}
	defer legStmt.Close()

	for _, l := range seed.TravelLegs {
		if _, err := legStmt.ExecContext(ctx, l.Origin, l.Destination, l.DistanceMeters, l.DurationSeconds); err != nil {
			return fmt.Errorf("seed: insert travel leg %s->%s: %w", l.Origin, l.Destination, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}
	return nil
}
