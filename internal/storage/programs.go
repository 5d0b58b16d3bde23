package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/romanpilnik/fitlog/internal/models"
)

const programColumns = `id, user_id, source_template_id, name, description, split_type, days_per_week,
	workouts, plan, status, current_week, next_workout_index, last_completed_workout_date,
	is_active, applied_session_ids, version, created_at, updated_at`

// CreateProgram inserts p at version 1. A second live program for the same
// user violates idx_programs_one_active and is reported as ErrConflict.
func (db *DB) CreateProgram(ctx context.Context, p *models.Program) error {
	p.Version = 1
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO programs (`+programColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		p.ID, p.UserID, p.SourceTemplateID, p.Name, p.Description, p.SplitType, p.DaysPerWeek,
		p.Workouts, p.Plan, p.Status, p.CurrentWeek, p.NextWorkoutIndex, p.LastCompletedWorkoutDate,
		p.IsActive, appliedIDs(p.AppliedSessionIDs), p.Version, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return classify(err, "program")
	}
	return nil
}

func (db *DB) GetProgram(ctx context.Context, id uuid.UUID) (*models.Program, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+programColumns+` FROM programs WHERE id = $1`, id)
	p, err := scanProgram(row)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("program %s", id))
	}
	return p, nil
}

func (db *DB) FindActiveProgram(ctx context.Context, userID uuid.UUID) (*models.Program, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+programColumns+` FROM programs
		 WHERE user_id = $1 AND is_active AND status = 'active'`, userID)
	p, err := scanProgram(row)
	if err != nil {
		return nil, classify(err, "active program")
	}
	return p, nil
}

// ListPrograms returns the user's programs that were not deleted, newest
// first.
func (db *DB) ListPrograms(ctx context.Context, userID uuid.UUID) ([]models.Program, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+programColumns+` FROM programs
		 WHERE user_id = $1 AND is_active
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying programs: %w", err)
	}
	defer rows.Close()

	var result []models.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning program: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// UpdateProgram writes p if the stored row still has p.Version, then bumps
// p.Version. A lost race returns models.ErrStaleVersion.
func (db *DB) UpdateProgram(ctx context.Context, p *models.Program) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE programs SET
		 name = $3, description = $4, split_type = $5, days_per_week = $6, workouts = $7, plan = $8,
		 status = $9, current_week = $10, next_workout_index = $11, last_completed_workout_date = $12,
		 is_active = $13, applied_session_ids = $14, updated_at = $15, version = version + 1
		 WHERE id = $1 AND version = $2`,
		p.ID, p.Version, p.Name, p.Description, p.SplitType, p.DaysPerWeek, p.Workouts, p.Plan,
		p.Status, p.CurrentWeek, p.NextWorkoutIndex, p.LastCompletedWorkoutDate,
		p.IsActive, appliedIDs(p.AppliedSessionIDs), p.UpdatedAt)
	if err != nil {
		return classify(err, fmt.Sprintf("program %s", p.ID))
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM programs WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
			return fmt.Errorf("checking program %s: %w", p.ID, err)
		}
		if !exists {
			return fmt.Errorf("%w: program %s", models.ErrNotFound, p.ID)
		}
		return models.ErrStaleVersion
	}
	p.Version++
	return nil
}

func scanProgram(row pgx.Row) (*models.Program, error) {
	var p models.Program
	err := row.Scan(&p.ID, &p.UserID, &p.SourceTemplateID, &p.Name, &p.Description, &p.SplitType,
		&p.DaysPerWeek, &p.Workouts, &p.Plan, &p.Status, &p.CurrentWeek, &p.NextWorkoutIndex,
		&p.LastCompletedWorkoutDate, &p.IsActive, &p.AppliedSessionIDs, &p.Version,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// appliedIDs keeps NOT NULL array columns non-null.
func appliedIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
