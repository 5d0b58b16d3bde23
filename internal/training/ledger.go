package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/romanpilnik/fitlog/internal/models"
)

// ExerciseStats is a ledger entry together with its derived views.
type ExerciseStats struct {
	*models.LedgerEntry
	DaysSinceLastPerformed *int    `json:"days_since_last_performed,omitempty"`
	VolumeLastSession      float64 `json:"volume_last_session"`
	ProgressionRate        float64 `json:"progression_rate"`
	EstimatedOneRepMax     float64 `json:"estimated_one_rep_max"`
}

func StatsOf(e *models.LedgerEntry, now time.Time) ExerciseStats {
	st := ExerciseStats{
		LedgerEntry:        e,
		VolumeLastSession:  e.VolumeLastSession(),
		ProgressionRate:    e.ProgressionRate(),
		EstimatedOneRepMax: e.EstimatedOneRepMax(),
	}
	if d, ok := e.DaysSinceLastPerformed(now); ok {
		st.DaysSinceLastPerformed = &d
	}
	return st
}

// GetOrCreateLedgerEntry returns the entry for (userID, exerciseID),
// creating it on first reference. Concurrent calls for one key share a single
// store round trip; each caller gets its own copy.
func (s *Service) GetOrCreateLedgerEntry(ctx context.Context, userID, exerciseID uuid.UUID) (*models.LedgerEntry, error) {
	key := userID.String() + "/" + exerciseID.String()
	v, err, _ := s.ledgerGroup.Do(key, func() (any, error) {
		return s.store.GetOrCreateLedgerEntry(ctx, userID, exerciseID)
	})
	if err != nil {
		return nil, fmt.Errorf("get or create ledger entry: %w", err)
	}
	return v.(*models.LedgerEntry).Clone(), nil
}

func (s *Service) GetExerciseStats(ctx context.Context, userID, exerciseID uuid.UUID) (*ExerciseStats, error) {
	e, err := s.store.GetLedgerEntry(ctx, userID, exerciseID)
	if err != nil {
		return nil, err
	}
	st := StatsOf(e, s.now())
	return &st, nil
}

func (s *Service) ListExerciseStats(ctx context.Context, userID uuid.UUID) ([]ExerciseStats, error) {
	entries, err := s.store.ListLedgerEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]ExerciseStats, len(entries))
	for i := range entries {
		out[i] = StatsOf(&entries[i], now)
	}
	return out, nil
}

// UpdateLedgerAnnotations applies a user edit to the entry's notes, ratings
// and active flag. Statistics are untouched. Entries only come into being
// when a session logs the exercise, so an unknown pair is ErrNotFound.
func (s *Service) UpdateLedgerAnnotations(ctx context.Context, userID, exerciseID uuid.UUID, patch models.LedgerPatch) (*models.LedgerEntry, error) {
	for attempt := 0; ; attempt++ {
		e, err := s.store.GetLedgerEntry(ctx, userID, exerciseID)
		if err != nil {
			return nil, err
		}
		if err := e.ApplyPatch(patch); err != nil {
			return nil, err
		}
		e.UpdatedAt = s.now()
		err = s.store.UpdateLedgerEntry(ctx, e)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, models.ErrStaleVersion) || attempt+1 >= s.advanceRetries {
			return nil, fmt.Errorf("saving ledger entry: %w", err)
		}
	}
}

// recordExercise folds one exercise of session into its ledger entry. It
// reports false when the entry had already seen the session.
func (s *Service) recordExercise(ctx context.Context, session *models.Session, ex models.SessionExercise) (bool, error) {
	working := ex.WorkingSets()
	top, ok := models.TopSetOf(working)
	if !ok {
		return false, &models.ValidationError{
			Field:  "exercises[" + ex.ExerciseID.String() + "].sets",
			Reason: "no completed working set with weight and reps",
		}
	}
	summary := models.SessionSummary{
		Date:      session.DatePerformed,
		TotalSets: len(working),
		SessionID: session.ID,
	}

	for attempt := 0; ; attempt++ {
		e, err := s.GetOrCreateLedgerEntry(ctx, session.UserID, ex.ExerciseID)
		if err != nil {
			return false, err
		}
		applied, err := e.RecordSession(top, summary)
		if err != nil || !applied {
			return false, err
		}
		e.UpdatedAt = s.now()

		err = s.store.UpdateLedgerEntry(ctx, e)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, models.ErrStaleVersion) || attempt+1 >= s.advanceRetries {
			return false, fmt.Errorf("saving ledger entry: %w", err)
		}
	}
}
