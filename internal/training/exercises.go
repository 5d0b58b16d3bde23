package training

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/romanpilnik/fitlog/internal/models"
)

func (s *Service) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	return s.store.ListExercises(ctx)
}

func (s *Service) CreateExercise(ctx context.Context, e *models.Exercise) (*models.Exercise, error) {
	e.Name = strings.Join(strings.Fields(e.Name), " ")
	if e.Equipment == "" {
		e.Equipment = models.EquipmentOther
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = s.now()
	if err := s.store.CreateExercise(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ResolveExercise finds an exercise by name, adding it to the catalog when
// it is unknown.
func (s *Service) ResolveExercise(ctx context.Context, name string, equipment models.Equipment) (*models.Exercise, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, &models.ValidationError{Field: "name", Reason: "is required"}
	}
	return s.store.GetOrCreateExercise(ctx, name, equipment)
}
