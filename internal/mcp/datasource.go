package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/romanpilnik/fitlog/internal/models"
	"github.com/romanpilnik/fitlog/internal/training"
)

// DataSource abstracts the data layer for MCP tools. Both *training.Service
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	GetActiveProgram(ctx context.Context, userID uuid.UUID) (*models.Program, error)
	GetNextWorkout(ctx context.Context, userID uuid.UUID) (*training.NextWorkout, error)
	GetExerciseStats(ctx context.Context, userID, exerciseID uuid.UUID) (*training.ExerciseStats, error)
	ListExerciseStats(ctx context.Context, userID uuid.UUID) ([]training.ExerciseStats, error)
	ListSessions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Session, error)
	ListTemplates(ctx context.Context) ([]models.Template, error)
}

// Compile-time check: *training.Service satisfies DataSource.
var _ DataSource = (*training.Service)(nil)
