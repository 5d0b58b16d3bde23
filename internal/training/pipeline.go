package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/romanpilnik/fitlog/internal/models"
)

// SessionInput is a logged workout. ID may be set by importers that need
// stable ids; it is generated otherwise.
type SessionInput struct {
	ID              uuid.UUID                `json:"id"`
	ProgramID       *uuid.UUID               `json:"program_id"`
	WorkoutName     string                   `json:"workout_name"`
	DayNumber       int                      `json:"day_number"`
	Status          models.SessionStatus     `json:"status"`
	Exercises       []models.SessionExercise `json:"exercises"`
	DatePerformed   time.Time                `json:"date_performed"`
	DurationMinutes int                      `json:"duration_minutes"`
	Notes           string                   `json:"notes"`
}

// SessionResult reports what the completion pipeline did with a session.
type SessionResult struct {
	Session        *models.Session `json:"session"`
	LedgerUpdated  int             `json:"ledger_updated"`
	LedgerSkipped  int             `json:"ledger_skipped"`
	Program        *models.Program `json:"program,omitempty"`
	AlreadyApplied bool            `json:"already_applied,omitempty"`
}

// CreateSession stores a logged session for userID and runs the completion
// pipeline on it, unless the session was skipped.
func (s *Service) CreateSession(ctx context.Context, userID uuid.UUID, in SessionInput) (*SessionResult, error) {
	session := s.newSession(userID, in)
	if err := session.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	if session.ProgramID != nil {
		p, err := s.GetProgramByID(ctx, userID, *session.ProgramID)
		if err != nil {
			return nil, err
		}
		if session.AppliesProgress() && !p.IsLive() {
			return nil, fmt.Errorf("%w: program %s is %s", models.ErrInvalidState, p.ID, p.Status)
		}
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	s.log.Info("session logged", "session_id", session.ID, "user_id", userID, "status", session.Status)

	if !session.AppliesProgress() {
		return &SessionResult{Session: session}, nil
	}
	return s.completeSession(ctx, session)
}

// ReapplySession runs the completion pipeline again for a stored session.
// Work already applied is skipped, so this reconciles a run that stopped
// part way.
func (s *Service) ReapplySession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionResult, error) {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.AppliesProgress() {
		return nil, fmt.Errorf("%w: session %s was skipped", models.ErrInvalidState, sessionID)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.completeSession(ctx, session)
}

func (s *Service) GetSession(ctx context.Context, userID, id uuid.UUID) (*models.Session, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, fmt.Errorf("%w: session %s", models.ErrNotFound, id)
	}
	return session, nil
}

func (s *Service) ListSessions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Session, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListSessions(ctx, userID, limit)
}

// completeSession updates the ledger for every exercise, one at a time, then
// advances the session's program once. Entries and programs that already
// saw the session are left alone, so a second run only fills in what an
// earlier one missed. Ledger failures are logged and skipped; an advance
// failure is returned. The caller holds the user lock.
func (s *Service) completeSession(ctx context.Context, session *models.Session) (*SessionResult, error) {
	start := time.Now()
	result := &SessionResult{Session: session}
	log := s.log.With("session_id", session.ID, "user_id", session.UserID)

	programApplied := true
	if session.ProgramID != nil {
		p, err := s.store.GetProgram(ctx, *session.ProgramID)
		if err != nil {
			return result, fmt.Errorf("loading program %s: %w", *session.ProgramID, err)
		}
		programApplied = p.HasApplied(session.ID)
	}

	for _, ex := range session.Exercises {
		applied, err := s.recordExercise(ctx, session, ex)
		switch {
		case err != nil:
			result.LedgerSkipped++
			s.metrics.LedgerUpdate("skipped")
			reason := "store"
			if errors.Is(err, models.ErrValidation) {
				reason = "invalid_sets"
			}
			log.Warn("ledger update skipped", "exercise_id", ex.ExerciseID, "reason", reason, "error", err)
		case !applied:
			s.metrics.LedgerUpdate("duplicate")
		default:
			result.LedgerUpdated++
			s.metrics.LedgerUpdate("applied")
		}
	}

	if session.ProgramID != nil {
		p, err := s.advance(ctx, *session.ProgramID, session.ID)
		if err != nil {
			log.Error("advancing program failed", "program_id", *session.ProgramID, "error", err)
			return result, fmt.Errorf("advancing program %s: %w", *session.ProgramID, err)
		}
		result.Program = p
	}

	if programApplied && result.LedgerUpdated == 0 && result.LedgerSkipped == 0 {
		result.AlreadyApplied = true
		log.Info("session already applied")
		return result, nil
	}

	s.metrics.SessionCompleted(time.Since(start))
	log.Info("session completed",
		"ledger_updated", result.LedgerUpdated,
		"ledger_skipped", result.LedgerSkipped,
		"duration", time.Since(start).String(),
	)
	return result, nil
}

func (s *Service) newSession(userID uuid.UUID, in SessionInput) *models.Session {
	now := s.now()
	session := &models.Session{
		ID:              in.ID,
		UserID:          userID,
		ProgramID:       in.ProgramID,
		WorkoutName:     in.WorkoutName,
		DayNumber:       in.DayNumber,
		Status:          in.Status,
		Exercises:       make([]models.SessionExercise, len(in.Exercises)),
		DatePerformed:   in.DatePerformed,
		DurationMinutes: in.DurationMinutes,
		Notes:           in.Notes,
		CreatedAt:       now,
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.Status == "" {
		session.Status = models.SessionCompleted
	}
	if session.DatePerformed.IsZero() {
		session.DatePerformed = now
	}
	for i, ex := range in.Exercises {
		ex.Sets = append([]models.SessionSet(nil), ex.Sets...)
		for j := range ex.Sets {
			if ex.Sets[j].SetType == "" {
				ex.Sets[j].SetType = models.SetWorking
			}
		}
		if ex.Order == 0 {
			ex.Order = i + 1
		}
		session.Exercises[i] = ex
	}
	return session
}
