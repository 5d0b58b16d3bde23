package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Program is one user's training block: its workout structure, its
// periodization plan and the progress cursor within that plan.
type Program struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	SourceTemplateID *uuid.UUID `json:"source_template_id,omitempty"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	SplitType        SplitType  `json:"split_type"`
	DaysPerWeek      int        `json:"days_per_week"`
	Workouts         []Workout  `json:"workouts"`

	Plan PeriodizationPlan `json:"plan"`

	Status                   ProgramStatus `json:"status"`
	CurrentWeek              int           `json:"current_week"`
	NextWorkoutIndex         int           `json:"next_workout_index"`
	LastCompletedWorkoutDate *time.Time    `json:"last_completed_workout_date,omitempty"`

	// IsActive is false once the program has been deleted by its owner.
	IsActive          bool        `json:"-"`
	AppliedSessionIDs []uuid.UUID `json:"-"`
	Version           int64       `json:"version"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

type Workout struct {
	Name      string            `json:"name"`
	DayNumber int               `json:"day_number"`
	Exercises []ProgramExercise `json:"exercises"`
}

type ProgramExercise struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	Order      int       `json:"order"`
	TargetSets int       `json:"target_sets"`
	TargetReps int       `json:"target_reps"`
	TargetRIR  *int      `json:"target_rir,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// IsLive reports whether the program is the user's running program.
func (p *Program) IsLive() bool {
	return p.IsActive && p.Status == StatusActive
}

// NextWorkout returns the workout the cursor points at. A cursor that ran
// past the end wraps to the first workout.
func (p *Program) NextWorkout() (Workout, error) {
	if len(p.Workouts) == 0 {
		return Workout{}, fmt.Errorf("%w: program %s has no workouts", ErrInvalidState, p.ID)
	}
	idx := p.NextWorkoutIndex
	if idx < 0 || idx >= len(p.Workouts) {
		idx = 0
	}
	return p.Workouts[idx], nil
}

// HasApplied reports whether sessionID already advanced this program.
func (p *Program) HasApplied(sessionID uuid.UUID) bool {
	return slices.Contains(p.AppliedSessionIDs, sessionID)
}

// Advance moves the cursor by one completed workout on behalf of sessionID.
// It returns false without changing anything when that session was already
// applied. With forceDeload set and a deload week still ahead, the cursor
// jumps to the first workout of the deload week instead.
func (p *Program) Advance(now time.Time, sessionID uuid.UUID, forceDeload bool) (bool, error) {
	if p.HasApplied(sessionID) {
		return false, nil
	}
	if !p.IsLive() {
		return false, fmt.Errorf("%w: program %s is %s", ErrInvalidState, p.ID, p.Status)
	}
	if len(p.Workouts) == 0 {
		return false, fmt.Errorf("%w: program %s has no workouts", ErrInvalidState, p.ID)
	}

	if forceDeload && p.Plan.DeloadWeek != nil && p.CurrentWeek < *p.Plan.DeloadWeek {
		p.CurrentWeek = *p.Plan.DeloadWeek
		p.NextWorkoutIndex = 0
	} else {
		p.NextWorkoutIndex++
		if p.NextWorkoutIndex >= len(p.Workouts) {
			p.NextWorkoutIndex = 0
			p.CurrentWeek++
		}
	}

	done := now
	p.LastCompletedWorkoutDate = &done
	if p.Plan.IsComplete(p.CurrentWeek) {
		p.Status = StatusCompleted
	}
	p.AppliedSessionIDs = append(p.AppliedSessionIDs, sessionID)
	return true, nil
}

// Validate checks the user-editable structure and the embedded plan.
func (p *Program) Validate() error {
	if p.Name == "" {
		return invalid("name", "is required")
	}
	if !p.SplitType.Valid() {
		return invalid("split_type", "unknown split type %q", p.SplitType)
	}
	if p.DaysPerWeek < 1 || p.DaysPerWeek > 7 {
		return invalid("days_per_week", "must be between 1 and 7")
	}
	if err := validateWorkouts(p.Workouts); err != nil {
		return err
	}
	return p.Plan.Validate()
}

func validateWorkouts(workouts []Workout) error {
	if len(workouts) == 0 {
		return invalid("workouts", "at least one workout is required")
	}
	for i, w := range workouts {
		if w.Name == "" {
			return invalid(fmt.Sprintf("workouts[%d].name", i), "is required")
		}
		if len(w.Exercises) == 0 {
			return invalid(fmt.Sprintf("workouts[%d].exercises", i), "at least one exercise is required")
		}
		for j, ex := range w.Exercises {
			field := fmt.Sprintf("workouts[%d].exercises[%d]", i, j)
			if ex.ExerciseID == uuid.Nil {
				return invalid(field+".exercise_id", "is required")
			}
			if ex.TargetSets < 1 {
				return invalid(field+".target_sets", "must be at least 1")
			}
			if ex.TargetReps < 1 {
				return invalid(field+".target_reps", "must be at least 1")
			}
			if ex.TargetRIR != nil && (*ex.TargetRIR < 0 || *ex.TargetRIR > MaxRIR) {
				return invalid(field+".target_rir", "must be between 0 and %d", MaxRIR)
			}
		}
	}
	return nil
}

// CloneWorkouts deep-copies a workout list.
func CloneWorkouts(in []Workout) []Workout {
	out := make([]Workout, len(in))
	for i, w := range in {
		out[i] = w
		out[i].Exercises = make([]ProgramExercise, len(w.Exercises))
		for j, ex := range w.Exercises {
			out[i].Exercises[j] = ex
			if ex.TargetRIR != nil {
				rir := *ex.TargetRIR
				out[i].Exercises[j].TargetRIR = &rir
			}
		}
	}
	return out
}

// Clone returns a deep copy of p.
func (p *Program) Clone() *Program {
	c := *p
	c.Workouts = CloneWorkouts(p.Workouts)
	c.Plan = p.Plan.Clone()
	c.AppliedSessionIDs = slices.Clone(p.AppliedSessionIDs)
	return &c
}
