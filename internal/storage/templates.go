package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/romanpilnik/fitlog/internal/models"
)

const templateColumns = `id, name, description, split_type, days_per_week, difficulty, workouts, plan, created_at`

func (db *DB) GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = $1`, id)
	t, err := scanTemplate(row)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("template %s", id))
	}
	return t, nil
}

// ListTemplates returns the catalog ordered by difficulty, then name.
func (db *DB) ListTemplates(ctx context.Context) ([]models.Template, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+templateColumns+` FROM templates
		 ORDER BY CASE difficulty WHEN 'beginner' THEN 1 WHEN 'intermediate' THEN 2 ELSE 3 END, name`)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	var result []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}

func scanTemplate(row pgx.Row) (*models.Template, error) {
	var t models.Template
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.SplitType, &t.DaysPerWeek,
		&t.Difficulty, &t.Workouts, &t.Plan, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
