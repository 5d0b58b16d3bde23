package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Exercise is a catalog entry referenced by programs, sessions and the ledger.
type Exercise struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	PrimaryMuscle MuscleGroup `json:"primary_muscle,omitempty"`
	Equipment     Equipment   `json:"equipment"`
	CreatedAt     time.Time   `json:"created_at"`
}

// ExerciseKey is the case-insensitive lookup key for an exercise name.
func ExerciseKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func (e *Exercise) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return invalid("name", "is required")
	}
	if e.PrimaryMuscle != "" && !e.PrimaryMuscle.Valid() {
		return invalid("primary_muscle", "unknown muscle group %q", e.PrimaryMuscle)
	}
	if !e.Equipment.Valid() {
		return invalid("equipment", "unknown equipment %q", e.Equipment)
	}
	return nil
}
