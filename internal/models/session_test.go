package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestWorkingSets(t *testing.T) {
	warmup := set(40, 10)
	warmup.SetType = SetWarmup
	missed := set(100, 2)
	missed.Completed = false
	ex := SessionExercise{ExerciseID: uuid.New(), Sets: []SessionSet{warmup, set(80, 8), missed, set(85, 6)}}

	got := ex.WorkingSets()
	if len(got) != 2 {
		t.Fatalf("working sets = %d, want 2", len(got))
	}
	top, _ := TopSetOf(got)
	if *top.Weight != 85 {
		t.Errorf("top working set weight = %v, want 85", *top.Weight)
	}
}

func TestSessionValidate(t *testing.T) {
	valid := func() *Session {
		return &Session{
			ID:            uuid.New(),
			Status:        SessionCompleted,
			DatePerformed: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
			Exercises: []SessionExercise{
				{ExerciseID: uuid.New(), Sets: []SessionSet{set(100, 5)}},
			},
		}
	}
	negative := -1.0

	tests := []struct {
		name   string
		mutate func(*Session)
		ok     bool
	}{
		{"valid", func(*Session) {}, true},
		{"skipped without exercises", func(s *Session) { s.Status = SessionSkipped; s.Exercises = nil }, true},
		{"unknown status", func(s *Session) { s.Status = "done" }, false},
		{"missing date", func(s *Session) { s.DatePerformed = time.Time{} }, false},
		{"no exercises", func(s *Session) { s.Exercises = nil }, false},
		{"exercise without id", func(s *Session) { s.Exercises[0].ExerciseID = uuid.Nil }, false},
		{"unknown set type", func(s *Session) { s.Exercises[0].Sets[0].SetType = "superset" }, false},
		{"negative weight", func(s *Session) { s.Exercises[0].Sets[0].Weight = &negative }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() = %v, want ErrValidation", err)
			}
		})
	}
}

func TestParseEquipment(t *testing.T) {
	tests := map[string]Equipment{
		"Barbell":       EquipmentBarbell,
		"Dumbbells":     EquipmentDumbbell,
		"Smith Machine": EquipmentSmithMachine,
		"":              EquipmentBodyweight,
		"Landmine":      EquipmentOther,
	}
	for label, want := range tests {
		if got := ParseEquipment(label); got != want {
			t.Errorf("ParseEquipment(%q) = %s, want %s", label, got, want)
		}
	}
}
