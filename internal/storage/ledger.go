package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/romanpilnik/fitlog/internal/models"
)

const ledgerColumns = `id, user_id, exercise_id, last_performed, personal_record, recent_sessions,
	recent_progression, metrics, difficulty_rating, enjoyment_rating, form_notes, injury_notes,
	is_favorite, needs_form_check, is_injury_modified, is_active, applied_session_ids, version,
	created_at, updated_at`

// GetOrCreateLedgerEntry returns the entry for (userID, exerciseID),
// inserting an empty one first if needed. The no-op DO UPDATE makes
// RETURNING yield the existing row on conflict.
func (db *DB) GetOrCreateLedgerEntry(ctx context.Context, userID, exerciseID uuid.UUID) (*models.LedgerEntry, error) {
	now := time.Now()
	row := db.Pool.QueryRow(ctx,
		`INSERT INTO ledger_entries (id, user_id, exercise_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 ON CONFLICT (user_id, exercise_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING `+ledgerColumns,
		uuid.New(), userID, exerciseID, now)
	e, err := scanLedgerEntry(row)
	if err != nil {
		return nil, classify(err, "ledger entry")
	}
	return e, nil
}

func (db *DB) GetLedgerEntry(ctx context.Context, userID, exerciseID uuid.UUID) (*models.LedgerEntry, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE user_id = $1 AND exercise_id = $2`,
		userID, exerciseID)
	e, err := scanLedgerEntry(row)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("ledger entry for exercise %s", exerciseID))
	}
	return e, nil
}

// ListLedgerEntries returns all of a user's entries, most recently trained
// first.
func (db *DB) ListLedgerEntries(ctx context.Context, userID uuid.UUID) ([]models.LedgerEntry, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		 WHERE user_id = $1
		 ORDER BY (last_performed->>'date')::timestamptz DESC NULLS LAST, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	var result []models.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

// UpdateLedgerEntry writes e conditioned on its version, then bumps
// e.Version. A lost race returns models.ErrStaleVersion.
func (db *DB) UpdateLedgerEntry(ctx context.Context, e *models.LedgerEntry) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE ledger_entries SET
		 last_performed = $3, personal_record = $4, recent_sessions = $5, recent_progression = $6,
		 metrics = $7, difficulty_rating = $8, enjoyment_rating = $9, form_notes = $10,
		 injury_notes = $11, is_favorite = $12, needs_form_check = $13, is_injury_modified = $14,
		 is_active = $15, applied_session_ids = $16, updated_at = $17, version = version + 1
		 WHERE id = $1 AND version = $2`,
		e.ID, e.Version, e.LastPerformed, e.PersonalRecord, e.RecentSessions, e.RecentProgression,
		e.Metrics, e.DifficultyRating, e.EnjoymentRating, e.FormNotes,
		e.InjuryNotes, e.IsFavorite, e.NeedsFormCheck, e.IsInjuryModified,
		e.IsActive, appliedIDs(e.AppliedSessionIDs), e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating ledger entry %s: %w", e.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStaleVersion
	}
	e.Version++
	return nil
}

func scanLedgerEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := row.Scan(&e.ID, &e.UserID, &e.ExerciseID, &e.LastPerformed, &e.PersonalRecord,
		&e.RecentSessions, &e.RecentProgression, &e.Metrics, &e.DifficultyRating, &e.EnjoymentRating,
		&e.FormNotes, &e.InjuryNotes, &e.IsFavorite, &e.NeedsFormCheck, &e.IsInjuryModified,
		&e.IsActive, &e.AppliedSessionIDs, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
