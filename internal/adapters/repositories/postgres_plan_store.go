package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"freight-assignment-service/internal/domain"
	"freight-assignment-service/internal/ports"
)

// PostgresPlanStore persists solved plans. The plan header carries the
// selection, summary and diagnostics as JSON columns; assignments get
// their own table so they stay queryable per consignment.
type PostgresPlanStore struct {
	DB *sql.DB
}

func NewPostgresPlanStore(db *sql.DB) *PostgresPlanStore {
	return &PostgresPlanStore{DB: db}
}

func (s *PostgresPlanStore) SavePlan(ctx context.Context, p *domain.Plan) error {
	if s.DB == nil {
		return errors.New("save plan: DB is nil")
	}
	if p == nil || p.ID == "" {
		return errors.New("save plan: plan has no id")
	}

	selection, err := json.Marshal(p.Selection)
	if err != nil {
		return fmt.Errorf("save plan: marshal selection: %w", err)
	}
	summary, err := json.Marshal(p.Summary)
	if err != nil {
		return fmt.Errorf("save plan: marshal summary: %w", err)
	}
	diagnostics, err := json.Marshal(p.Diagnostics)
	if err != nil {
		return fmt.Errorf("save plan: marshal diagnostics: %w", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save plan: begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertPlan := `
		INSERT INTO plans (id, created_at, status, time_limit_ms, selection_json, summary_json, diagnostics_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = tx.ExecContext(ctx, insertPlan,
		p.ID, p.CreatedAt, string(p.Status), p.TimeLimit.Milliseconds(),
		string(selection), string(summary), string(diagnostics))
	if err != nil {
		return fmt.Errorf("save plan: insert plan %s: %w", p.ID, err)
	}

	insertAssignment := `
		INSERT INTO plan_assignments (plan_id, consignment_id, truck_id, arrival_min, arrival_slot)
		VALUES ($1, $2, $3, $4, $5);
	`
	stmt, err := tx.PrepareContext(ctx, insertAssignment)
	if err != nil {
		return fmt.Errorf("save plan: prepare assignment insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range p.Assignments {
		if _, err := stmt.ExecContext(ctx, p.ID, a.ConsignmentID, a.TruckID, a.ArrivalMin, a.ArrivalSlot); err != nil {
			return fmt.Errorf("save plan: insert assignment %s: %w", a.ConsignmentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save plan: commit: %w", err)
	}
	return nil
}

func (s *PostgresPlanStore) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	if s.DB == nil {
		return nil, errors.New("get plan: DB is nil")
	}

	query := `
		SELECT id, created_at, status, time_limit_ms, selection_json, summary_json, diagnostics_json
		FROM plans
		WHERE id = $1;
	`
	var (
		p           domain.Plan
		status      string
		timeLimitMS int64
		selection   string
		summary     string
		diagnostics string
	)
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.CreatedAt, &status, &timeLimitMS, &selection, &summary, &diagnostics)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get plan %s: %w", id, ports.ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %s: query plans table: %w", id, err)
	}

	p.Status = domain.SolveStatus(status)
	p.TimeLimit = time.Duration(timeLimitMS) * time.Millisecond
	if err := json.Unmarshal([]byte(selection), &p.Selection); err != nil {
		return nil, fmt.Errorf("get plan %s: unmarshal selection: %w", id, err)
	}
	if err := json.Unmarshal([]byte(summary), &p.Summary); err != nil {
		return nil, fmt.Errorf("get plan %s: unmarshal summary: %w", id, err)
	}
	if err := json.Unmarshal([]byte(diagnostics), &p.Diagnostics); err != nil {
		return nil, fmt.Errorf("get plan %s: unmarshal diagnostics: %w", id, err)
	}

	assignQuery := `
		SELECT consignment_id, truck_id, arrival_min, arrival_slot
		FROM plan_assignments
		WHERE plan_id = $1
		ORDER BY consignment_id;
	`
	rows, err := s.DB.QueryContext(ctx, assignQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get plan %s: query assignments: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.ConsignmentID, &a.TruckID, &a.ArrivalMin, &a.ArrivalSlot); err != nil {
			return nil, fmt.Errorf("get plan %s: scan assignment: %w", id, err)
		}
		p.Assignments = append(p.Assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get plan %s: assignment iteration: %w", id, err)
	}
	return &p, nil
}
