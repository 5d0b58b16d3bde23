package training

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/romanpilnik/fitlog/internal/models"
)

// NextWorkout is what the user should train next in their active program.
type NextWorkout struct {
	ProgramID          uuid.UUID      `json:"program_id"`
	ProgramName        string         `json:"program_name"`
	Week               int            `json:"week"`
	TotalWeeks         int            `json:"total_weeks"`
	WorkoutIndex       int            `json:"workout_index"`
	Workout            models.Workout `json:"workout"`
	TargetRIR          *int           `json:"target_rir,omitempty"`
	IsDeloadWeek       bool           `json:"is_deload_week"`
	ProgressPercentage float64        `json:"progress_percentage"`
}

// FindActiveProgram returns the single active program of userID, or
// ErrNotFound.
func (s *Service) FindActiveProgram(ctx context.Context, userID uuid.UUID) (*models.Program, error) {
	p, err := s.store.FindActiveProgram(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("finding active program: %w", err)
	}
	return p, nil
}

// GetNextWorkout resolves the workout under the active program's cursor.
func (s *Service) GetNextWorkout(ctx context.Context, userID uuid.UUID) (*NextWorkout, error) {
	p, err := s.FindActiveProgram(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NextWorkoutOf(p)
}

// NextWorkoutOf builds the next-workout view for p.
func NextWorkoutOf(p *models.Program) (*NextWorkout, error) {
	w, err := p.NextWorkout()
	if err != nil {
		return nil, err
	}
	idx := p.NextWorkoutIndex
	if idx < 0 || idx >= len(p.Workouts) {
		idx = 0
	}
	nw := &NextWorkout{
		ProgramID:          p.ID,
		ProgramName:        p.Name,
		Week:               p.CurrentWeek,
		TotalWeeks:         p.Plan.Weeks,
		WorkoutIndex:       idx,
		Workout:            w,
		IsDeloadWeek:       p.Plan.IsDeloadWeek(p.CurrentWeek),
		ProgressPercentage: p.Plan.ProgressPercentage(p.CurrentWeek),
	}
	if rir, ok := p.Plan.CurrentWeekRIR(p.CurrentWeek); ok {
		nw.TargetRIR = &rir
	}
	return nw, nil
}

// AdvanceProgress moves programID's cursor on behalf of sessionID. Applying
// the same session twice advances once.
func (s *Service) AdvanceProgress(ctx context.Context, programID, sessionID uuid.UUID) (*models.Program, error) {
	p, err := s.store.GetProgram(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("loading program %s: %w", programID, err)
	}
	unlock := s.locks.Lock(p.UserID)
	defer unlock()

	return s.advance(ctx, programID, sessionID)
}

// advance expects the owner's lock to be held.
func (s *Service) advance(ctx context.Context, programID, sessionID uuid.UUID) (*models.Program, error) {
	var advanced bool
	p, err := s.mutateProgram(ctx, programID, func(p *models.Program) (bool, error) {
		if p.HasApplied(sessionID) {
			return false, nil
		}
		force, err := s.shouldForceDeload(ctx, p)
		if err != nil {
			return false, err
		}
		advanced, err = p.Advance(s.now(), sessionID, force)
		if err != nil {
			return false, err
		}
		if advanced {
			p.UpdatedAt = s.now()
		}
		return advanced, nil
	})
	if err != nil {
		return nil, err
	}

	if advanced {
		completed := p.Status == models.StatusCompleted
		s.metrics.ProgressAdvanced(completed)
		s.log.Info("program advanced",
			"program_id", p.ID,
			"session_id", sessionID,
			"week", p.CurrentWeek,
			"next_workout_index", p.NextWorkoutIndex,
			"status", p.Status,
		)
	}
	return p, nil
}

func (s *Service) shouldForceDeload(ctx context.Context, p *models.Program) (bool, error) {
	cfg := p.Plan.AutoDeload
	if !cfg.Enabled || p.Plan.DeloadWeek == nil || p.CurrentWeek >= *p.Plan.DeloadWeek {
		return false, nil
	}
	recent, err := s.store.RecentProgramSessions(ctx, p.ID, models.HistoryCapacity)
	if err != nil {
		return false, fmt.Errorf("loading recent sessions: %w", err)
	}
	force := s.deload(recent, cfg)
	if force {
		s.log.Info("auto deload triggered", "program_id", p.ID, "week", p.CurrentWeek, "deload_week", *p.Plan.DeloadWeek)
	}
	return force, nil
}
