package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is an immutable record of one performed workout.
type Session struct {
	ID              uuid.UUID         `json:"id"`
	UserID          uuid.UUID         `json:"user_id"`
	ProgramID       *uuid.UUID        `json:"program_id,omitempty"`
	WorkoutName     string            `json:"workout_name"`
	DayNumber       int               `json:"day_number"`
	Status          SessionStatus     `json:"status"`
	Exercises       []SessionExercise `json:"exercises"`
	DatePerformed   time.Time         `json:"date_performed"`
	DurationMinutes int               `json:"duration_minutes,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

type SessionExercise struct {
	ExerciseID uuid.UUID    `json:"exercise_id"`
	Order      int          `json:"order"`
	Sets       []SessionSet `json:"sets"`
	Notes      string       `json:"notes,omitempty"`
}

// SessionSet is one logged set. Weight, reps and RIR are pointers so that a
// missing value can be told apart from zero.
type SessionSet struct {
	SetType   SetType  `json:"set_type"`
	Reps      *int     `json:"reps,omitempty"`
	Weight    *float64 `json:"weight,omitempty"`
	RIR       *float64 `json:"rir,omitempty"`
	Completed bool     `json:"set_completed"`
}

// WorkingSets returns the completed sets that are not warmups.
func (e SessionExercise) WorkingSets() []SessionSet {
	var out []SessionSet
	for _, s := range e.Sets {
		if s.Completed && s.SetType != SetWarmup {
			out = append(out, s)
		}
	}
	return out
}

// AppliesProgress reports whether the session should feed the ledger and
// advance its program.
func (s *Session) AppliesProgress() bool {
	return s.Status != SessionSkipped
}

func (s *Session) Validate() error {
	if !s.Status.Valid() {
		return invalid("status", "unknown session status %q", s.Status)
	}
	if s.DatePerformed.IsZero() {
		return invalid("date_performed", "is required")
	}
	if s.DurationMinutes < 0 {
		return invalid("duration_minutes", "must not be negative")
	}
	if s.Status != SessionSkipped && len(s.Exercises) == 0 {
		return invalid("exercises", "at least one exercise is required")
	}
	for i, ex := range s.Exercises {
		field := fmt.Sprintf("exercises[%d]", i)
		if ex.ExerciseID == uuid.Nil {
			return invalid(field+".exercise_id", "is required")
		}
		for j, set := range ex.Sets {
			if err := set.validate(fmt.Sprintf("%s.sets[%d]", field, j)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s SessionSet) validate(field string) error {
	if !s.SetType.Valid() {
		return invalid(field+".set_type", "unknown set type %q", s.SetType)
	}
	if s.Reps != nil && *s.Reps < 0 {
		return invalid(field+".reps", "must not be negative")
	}
	if s.Weight != nil && *s.Weight < 0 {
		return invalid(field+".weight", "must not be negative")
	}
	if s.RIR != nil && (*s.RIR < 0 || *s.RIR > MaxRIR) {
		return invalid(field+".rir", "must be between 0 and %d", MaxRIR)
	}
	return nil
}
