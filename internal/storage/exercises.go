package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/romanpilnik/fitlog/internal/models"
)

// CreateExercise adds a catalog exercise. Names are unique ignoring case
// and spacing.
func (db *DB) CreateExercise(ctx context.Context, e *models.Exercise) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO exercises (id, name, name_key, primary_muscle, equipment, created_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`,
		e.ID, e.Name, models.ExerciseKey(e.Name), string(e.PrimaryMuscle), e.Equipment, e.CreatedAt)
	if err != nil {
		return classify(err, fmt.Sprintf("exercise %q", e.Name))
	}
	return nil
}

// GetOrCreateExercise resolves name to a catalog exercise, inserting it with
// the given equipment when it is unknown.
func (db *DB) GetOrCreateExercise(ctx context.Context, name string, equipment models.Equipment) (*models.Exercise, error) {
	var e models.Exercise
	var muscle *string
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO exercises (id, name, name_key, equipment, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name_key) DO UPDATE SET name_key = EXCLUDED.name_key
		RETURNING id, name, primary_muscle, equipment, created_at
	`, uuid.New(), name, models.ExerciseKey(name), equipment, time.Now()).
		Scan(&e.ID, &e.Name, &muscle, &e.Equipment, &e.CreatedAt)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("exercise %q", name))
	}
	if muscle != nil {
		e.PrimaryMuscle = models.MuscleGroup(*muscle)
	}
	return &e, nil
}

func (db *DB) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, primary_muscle, equipment, created_at FROM exercises ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var e models.Exercise
		var muscle *string
		if err := rows.Scan(&e.ID, &e.Name, &muscle, &e.Equipment, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		if muscle != nil {
			e.PrimaryMuscle = models.MuscleGroup(*muscle)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
