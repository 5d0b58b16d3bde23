package models

import (
	"time"

	"github.com/google/uuid"
)

// Template is a read-only program blueprint from the catalog.
type Template struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	SplitType   SplitType         `json:"split_type"`
	DaysPerWeek int               `json:"days_per_week"`
	Difficulty  Difficulty        `json:"difficulty"`
	Workouts    []Workout         `json:"workouts"`
	Plan        PeriodizationPlan `json:"plan"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Instantiate copies the template's structure and plan into a fresh program
// owned by userID, positioned at the first workout of week one.
func (t *Template) Instantiate(userID uuid.UUID, now time.Time) *Program {
	src := t.ID
	return &Program{
		ID:               uuid.New(),
		UserID:           userID,
		SourceTemplateID: &src,
		Name:             t.Name,
		Description:      t.Description,
		SplitType:        t.SplitType,
		DaysPerWeek:      t.DaysPerWeek,
		Workouts:         CloneWorkouts(t.Workouts),
		Plan:             t.Plan.Clone(),
		Status:           StatusActive,
		CurrentWeek:      1,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
