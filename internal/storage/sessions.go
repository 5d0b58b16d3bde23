package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/romanpilnik/fitlog/internal/models"
)

const sessionColumns = `id, user_id, program_id, workout_name, day_number, status, exercises,
	date_performed, duration_minutes, notes, created_at`

// CreateSession inserts an immutable session row. Reusing an id is
// ErrConflict.
func (db *DB) CreateSession(ctx context.Context, s *models.Session) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		s.ID, s.UserID, s.ProgramID, s.WorkoutName, s.DayNumber, s.Status, s.Exercises,
		s.DatePerformed, s.DurationMinutes, s.Notes, s.CreatedAt)
	if err != nil {
		return classify(err, fmt.Sprintf("session %s", s.ID))
	}
	return nil
}

func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("session %s", id))
	}
	return s, nil
}

// ListSessions returns the user's most recent sessions, newest first.
func (db *DB) ListSessions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Session, error) {
	return db.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = $1
		 ORDER BY date_performed DESC, created_at DESC
		 LIMIT $2`, userID, limit)
}

// RecentProgramSessions returns the latest sessions logged against a
// program, newest first.
func (db *DB) RecentProgramSessions(ctx context.Context, programID uuid.UUID, limit int) ([]models.Session, error) {
	return db.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE program_id = $1
		 ORDER BY date_performed DESC, created_at DESC
		 LIMIT $2`, programID, limit)
}

func (db *DB) querySessions(ctx context.Context, query string, args ...any) ([]models.Session, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.UserID, &s.ProgramID, &s.WorkoutName, &s.DayNumber, &s.Status,
		&s.Exercises, &s.DatePerformed, &s.DurationMinutes, &s.Notes, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
