package training

import (
	"context"

	"github.com/google/uuid"
	"github.com/romanpilnik/fitlog/internal/models"
)

// ProgramStore persists programs. UpdateProgram must only succeed when the
// stored version equals p.Version; it then bumps p.Version. A lost race is
// reported as models.ErrStaleVersion.
type ProgramStore interface {
	CreateProgram(ctx context.Context, p *models.Program) error
	GetProgram(ctx context.Context, id uuid.UUID) (*models.Program, error)
	FindActiveProgram(ctx context.Context, userID uuid.UUID) (*models.Program, error)
	ListPrograms(ctx context.Context, userID uuid.UUID) ([]models.Program, error)
	UpdateProgram(ctx context.Context, p *models.Program) error
}

type TemplateStore interface {
	GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error)
	ListTemplates(ctx context.Context) ([]models.Template, error)
}

// LedgerStore persists ledger entries. GetOrCreateLedgerEntry must be safe
// against concurrent callers for the same key; UpdateLedgerEntry follows the
// same version rule as UpdateProgram.
type LedgerStore interface {
	GetOrCreateLedgerEntry(ctx context.Context, userID, exerciseID uuid.UUID) (*models.LedgerEntry, error)
	GetLedgerEntry(ctx context.Context, userID, exerciseID uuid.UUID) (*models.LedgerEntry, error)
	ListLedgerEntries(ctx context.Context, userID uuid.UUID) ([]models.LedgerEntry, error)
	UpdateLedgerEntry(ctx context.Context, e *models.LedgerEntry) error
}

// SessionStore persists sessions. CreateSession reports a duplicate id as
// models.ErrConflict. Lists are newest first.
type SessionStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	ListSessions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Session, error)
	RecentProgramSessions(ctx context.Context, programID uuid.UUID, limit int) ([]models.Session, error)
}

// ExerciseStore resolves the exercise catalog. Names are unique
// case-insensitively.
type ExerciseStore interface {
	CreateExercise(ctx context.Context, e *models.Exercise) error
	GetOrCreateExercise(ctx context.Context, name string, equipment models.Equipment) (*models.Exercise, error)
	ListExercises(ctx context.Context) ([]models.Exercise, error)
}

// Store is everything the service needs from persistence.
type Store interface {
	ProgramStore
	TemplateStore
	LedgerStore
	SessionStore
	ExerciseStore
}
