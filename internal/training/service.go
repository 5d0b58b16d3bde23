package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/romanpilnik/fitlog/internal/metrics"
	"github.com/romanpilnik/fitlog/internal/models"
	"golang.org/x/sync/singleflight"
)

const defaultAdvanceRetries = 3

// Service owns program progress, the exercise ledger and the session
// completion pipeline for all users.
type Service struct {
	store          Store
	log            *slog.Logger
	metrics        *metrics.Manager
	deload         DeloadPredicate
	now            func() time.Time
	advanceRetries int

	locks       *userLocks
	ledgerGroup singleflight.Group
}

type Option func(*Service)

func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) { s.metrics = m }
}

func WithDeloadPredicate(p DeloadPredicate) Option {
	return func(s *Service) {
		if p != nil {
			s.deload = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAdvanceRetries sets how often a program write is retried after losing
// a version check.
func WithAdvanceRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.advanceRetries = n
		}
	}
}

func New(store Store, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:          store,
		log:            log.With("component", "training"),
		deload:         NeverDeload,
		now:            time.Now,
		advanceRetries: defaultAdvanceRetries,
		locks:          newUserLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProgramInput describes a custom program. A nil Plan uses
// models.DefaultPlan.
type ProgramInput struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	SplitType   models.SplitType          `json:"split_type"`
	DaysPerWeek int                       `json:"days_per_week"`
	Workouts    []models.Workout          `json:"workouts"`
	Plan        *models.PeriodizationPlan `json:"plan"`
	StartPaused bool                      `json:"start_paused"`
}

type TemplateProgramInput struct {
	TemplateID  uuid.UUID `json:"template_id"`
	Name        string    `json:"name"`
	StartPaused bool      `json:"start_paused"`
}

// ProgramPatch is an owner edit. Nil fields are left unchanged. Status may
// only move between active and paused.
type ProgramPatch struct {
	Name        *string                   `json:"name"`
	Description *string                   `json:"description"`
	SplitType   *models.SplitType         `json:"split_type"`
	DaysPerWeek *int                      `json:"days_per_week"`
	Workouts    []models.Workout          `json:"workouts"`
	Plan        *models.PeriodizationPlan `json:"plan"`
	Status      *models.ProgramStatus     `json:"status"`
}

func (s *Service) ListTemplates(ctx context.Context) ([]models.Template, error) {
	return s.store.ListTemplates(ctx)
}

func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	return s.store.GetTemplate(ctx, id)
}

// CreateFromTemplate copies a catalog template into a new program for userID.
func (s *Service) CreateFromTemplate(ctx context.Context, userID uuid.UUID, in TemplateProgramInput) (*models.Program, error) {
	tmpl, err := s.store.GetTemplate(ctx, in.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("loading template %s: %w", in.TemplateID, err)
	}

	p := tmpl.Instantiate(userID, s.now())
	if in.Name != "" {
		p.Name = in.Name
	}
	if in.StartPaused {
		p.Status = models.StatusPaused
	}
	return s.createProgram(ctx, p)
}

// CreateCustomProgram builds a program from scratch.
func (s *Service) CreateCustomProgram(ctx context.Context, userID uuid.UUID, in ProgramInput) (*models.Program, error) {
	now := s.now()
	plan := models.DefaultPlan()
	if in.Plan != nil {
		plan = in.Plan.Clone()
	}
	status := models.StatusActive
	if in.StartPaused {
		status = models.StatusPaused
	}
	p := &models.Program{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		SplitType:   in.SplitType,
		DaysPerWeek: in.DaysPerWeek,
		Workouts:    models.CloneWorkouts(in.Workouts),
		Plan:        plan,
		Status:      status,
		CurrentWeek: 1,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.createProgram(ctx, p)
}

func (s *Service) createProgram(ctx context.Context, p *models.Program) (*models.Program, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(p.UserID)
	defer unlock()

	if p.Status == models.StatusActive {
		if err := s.ensureNoOtherActive(ctx, p.UserID, p.ID); err != nil {
			return nil, err
		}
	}
	if err := s.store.CreateProgram(ctx, p); err != nil {
		return nil, fmt.Errorf("creating program: %w", err)
	}
	s.log.Info("program created", "program_id", p.ID, "user_id", p.UserID, "status", p.Status)
	return p, nil
}

// ensureNoOtherActive fails with ErrConflict when userID already runs a
// program other than programID.
func (s *Service) ensureNoOtherActive(ctx context.Context, userID, programID uuid.UUID) error {
	active, err := s.store.FindActiveProgram(ctx, userID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("looking up active program: %w", err)
	case active.ID != programID:
		return fmt.Errorf("%w: user already has active program %q", models.ErrConflict, active.Name)
	}
	return nil
}

// GetActiveProgram returns the user's running program or ErrNotFound.
func (s *Service) GetActiveProgram(ctx context.Context, userID uuid.UUID) (*models.Program, error) {
	return s.FindActiveProgram(ctx, userID)
}

func (s *Service) ListPrograms(ctx context.Context, userID uuid.UUID) ([]models.Program, error) {
	return s.store.ListPrograms(ctx, userID)
}

// GetProgramByID returns the program when userID owns it. Programs of other
// users and deleted programs are reported as ErrNotFound.
func (s *Service) GetProgramByID(ctx context.Context, userID, id uuid.UUID) (*models.Program, error) {
	p, err := s.store.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID || !p.IsActive {
		return nil, fmt.Errorf("%w: program %s", models.ErrNotFound, id)
	}
	return p, nil
}

// UpdateProgramByID applies an owner edit.
func (s *Service) UpdateProgramByID(ctx context.Context, userID, id uuid.UUID, patch ProgramPatch) (*models.Program, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	return s.mutateProgram(ctx, id, func(p *models.Program) (bool, error) {
		if p.UserID != userID || !p.IsActive {
			return false, fmt.Errorf("%w: program %s", models.ErrNotFound, id)
		}
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.SplitType != nil {
			p.SplitType = *patch.SplitType
		}
		if patch.DaysPerWeek != nil {
			p.DaysPerWeek = *patch.DaysPerWeek
		}
		if patch.Workouts != nil {
			p.Workouts = models.CloneWorkouts(patch.Workouts)
			if p.NextWorkoutIndex >= len(p.Workouts) {
				p.NextWorkoutIndex = 0
			}
		}
		if patch.Plan != nil {
			p.Plan = patch.Plan.Clone()
			if p.Status != models.StatusCompleted && p.Plan.IsComplete(p.CurrentWeek) {
				return false, fmt.Errorf("%w: plan of %d weeks ends before current week %d", models.ErrInvalidState, p.Plan.Weeks, p.CurrentWeek)
			}
		}
		if patch.Status != nil && *patch.Status != p.Status {
			if err := s.changeStatus(ctx, p, *patch.Status); err != nil {
				return false, err
			}
		}
		if err := p.Validate(); err != nil {
			return false, err
		}
		p.UpdatedAt = s.now()
		return true, nil
	})
}

func (s *Service) changeStatus(ctx context.Context, p *models.Program, to models.ProgramStatus) error {
	switch {
	case p.Status == models.StatusCompleted:
		return fmt.Errorf("%w: program %s is completed", models.ErrInvalidState, p.ID)
	case to == models.StatusActive:
		if err := s.ensureNoOtherActive(ctx, p.UserID, p.ID); err != nil {
			return err
		}
	case to == models.StatusPaused:
	default:
		return fmt.Errorf("%w: cannot set status to %q", models.ErrInvalidState, to)
	}
	p.Status = to
	return nil
}

// DeleteProgramByID hides the program from its owner. The record stays so
// sessions keep their reference.
func (s *Service) DeleteProgramByID(ctx context.Context, userID, id uuid.UUID) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	_, err := s.mutateProgram(ctx, id, func(p *models.Program) (bool, error) {
		if p.UserID != userID || !p.IsActive {
			return false, fmt.Errorf("%w: program %s", models.ErrNotFound, id)
		}
		p.IsActive = false
		if p.Status == models.StatusActive {
			p.Status = models.StatusPaused
		}
		p.UpdatedAt = s.now()
		return true, nil
	})
	if err != nil {
		return err
	}
	s.log.Info("program deleted", "program_id", id, "user_id", userID)
	return nil
}

// mutateProgram runs a read-modify-write on program id, re-reading and
// retrying when the write loses a version check. fn reports whether it
// changed anything; unchanged programs are not written.
func (s *Service) mutateProgram(ctx context.Context, id uuid.UUID, fn func(*models.Program) (bool, error)) (*models.Program, error) {
	for attempt := 0; ; attempt++ {
		p, err := s.store.GetProgram(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading program %s: %w", id, err)
		}
		changed, err := fn(p)
		if err != nil {
			return nil, err
		}
		if !changed {
			return p, nil
		}

		err = s.store.UpdateProgram(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, models.ErrStaleVersion) {
			return nil, fmt.Errorf("saving program %s: %w", id, err)
		}
		s.metrics.VersionConflict()
		if attempt+1 >= s.advanceRetries {
			return nil, fmt.Errorf("%w: program %s changed concurrently", models.ErrConflict, id)
		}
		s.log.Debug("program version conflict, retrying", "program_id", id, "attempt", attempt+1)
	}
}
