package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"freight-assignment-service/internal/domain"
)

// PostgresInputRepository reads the planning input tables. One instance
// serves all four repository ports.
type PostgresInputRepository struct {
	DB *sql.DB
}

func NewPostgresInputRepository(db *sql.DB) *PostgresInputRepository {
	return &PostgresInputRepository{DB: db}
}

func (r *PostgresInputRepository) ListConsignments(ctx context.Context) ([]domain.ConsignmentRecord, error) {
	if r.DB == nil {
		return nil, errors.New("list consignments: DB is nil")
	}

	query := `
		SELECT id, source, destination, weight_kg, release_time, deadline
		FROM consignments
		ORDER BY id;
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list consignments: query consignments table: %w", err)
	}
	defer rows.Close()

	var records []domain.ConsignmentRecord
	for rows.Next() {
		var rec domain.ConsignmentRecord
		var deadline sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Destination, &rec.Weight, &rec.ReleaseTime, &deadline); err != nil {
			return nil, fmt.Errorf("list consignments: scan row: %w", err)
		}
		rec.Deadline = deadline.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list consignments: row iteration: %w", err)
	}
	return records, nil
}

func (r *PostgresInputRepository) ListTrucks(ctx context.Context) ([]domain.TruckRecord, error) {
	if r.DB == nil {
		return nil, errors.New("list trucks: DB is nil")
	}

	query := `
		SELECT id, capacity_kg, shift_start, shift_end
		FROM trucks
		ORDER BY id;
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list trucks: query trucks table: %w", err)
	}
	defer rows.Close()

	var records []domain.TruckRecord
	index := make(map[string]int)
	for rows.Next() {
		var rec domain.TruckRecord
		if err := rows.Scan(&rec.ID, &rec.Capacity, &rec.ShiftStart, &rec.ShiftEnd); err != nil {
			return nil, fmt.Errorf("list trucks: scan row: %w", err)
		}
		index[rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trucks: row iteration: %w", err)
	}

	routeQuery := `
		SELECT truck_id, node_id
		FROM truck_route_nodes
		ORDER BY truck_id, position;
	`
	routeRows, err := r.DB.QueryContext(ctx, routeQuery)
	if err != nil {
		return nil, fmt.Errorf("list trucks: query route nodes: %w", err)
	}
	defer routeRows.Close()

	for routeRows.Next() {
		var truckID, nodeID string
		if err := routeRows.Scan(&truckID, &nodeID); err != nil {
			return nil, fmt.Errorf("list trucks: scan route node: %w", err)
		}
		i, ok := index[truckID]
		if !ok {
			return nil, fmt.Errorf("list trucks: route node for unknown truck %q", truckID)
		}
		records[i].Route = append(records[i].Route, nodeID)
	}
	if err := routeRows.Err(); err != nil {
		return nil, fmt.Errorf("list trucks: route iteration: %w", err)
	}
	return records, nil
}

func (r *PostgresInputRepository) ListFacilities(ctx context.Context) ([]domain.FacilityRecord, error) {
	if r.DB == nil {
		return nil, errors.New("list facilities: DB is nil")
	}

	query := `
		SELECT id, name, lon, lat, sorting_capacity_per_slot, slot_width_min
		FROM facilities
		ORDER BY id;
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list facilities: query facilities table: %w", err)
	}
	defer rows.Close()

	var records []domain.FacilityRecord
	for rows.Next() {
		var rec domain.FacilityRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Coords.Lon, &rec.Coords.Lat, &rec.SortingCapacityPerSlot, &rec.SlotWidthMin); err != nil {
			return nil, fmt.Errorf("list facilities: scan row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list facilities: row iteration: %w", err)
	}
	return records, nil
}

func (r *PostgresInputRepository) ListTravelLegs(ctx context.Context) ([]domain.TravelLeg, error) {
	if r.DB == nil {
		return nil, errors.New("list travel legs: DB is nil")
	}

	query := `
		SELECT origin, destination, distance_meters, duration_seconds
		FROM travel_legs
		ORDER BY origin, destination;
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list travel legs: query travel_legs table: %w", err)
	}
	defer rows.Close()

	var legs []domain.TravelLeg
	for rows.Next() {
		var leg domain.TravelLeg
		if err := rows.Scan(&leg.Origin, &leg.Destination, &leg.DistanceMeters, &leg.DurationSeconds); err != nil {
			return nil, fmt.Errorf("list travel legs: scan row: %w", err)
		}
		legs = append(legs, leg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list travel legs: row iteration: %w", err)
	}
	return legs, nil
}
