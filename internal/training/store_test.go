package training

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/romanpilnik/fitlog/internal/models"
)

// memStore is an in-memory Store with the same version and uniqueness rules
// as the Postgres implementation.
type memStore struct {
	mu        sync.Mutex
	programs  map[uuid.UUID]*models.Program
	templates map[uuid.UUID]*models.Template
	ledger    map[[2]uuid.UUID]*models.LedgerEntry
	sessions  map[uuid.UUID]*models.Session
	exercises map[string]*models.Exercise

	ledgerCreates int

	// failure injection
	ledgerUpdateErr  func(*models.LedgerEntry) error
	programUpdateErr error
}

func newMemStore() *memStore {
	return &memStore{
		programs:  make(map[uuid.UUID]*models.Program),
		templates: make(map[uuid.UUID]*models.Template),
		ledger:    make(map[[2]uuid.UUID]*models.LedgerEntry),
		sessions:  make(map[uuid.UUID]*models.Session),
		exercises: make(map[string]*models.Exercise),
	}
}

var _ Store = (*memStore)(nil)

func (m *memStore) CreateProgram(_ context.Context, p *models.Program) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.IsLive() {
		for _, other := range m.programs {
			if other.UserID == p.UserID && other.IsLive() {
				return fmt.Errorf("%w: active program exists", models.ErrConflict)
			}
		}
	}
	p.Version = 1
	m.programs[p.ID] = p.Clone()
	return nil
}

func (m *memStore) GetProgram(_ context.Context, id uuid.UUID) (*models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.programs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *memStore) FindActiveProgram(_ context.Context, userID uuid.UUID) (*models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.programs {
		if p.UserID == userID && p.IsLive() {
			return p.Clone(), nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) ListPrograms(_ context.Context, userID uuid.UUID) ([]models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Program
	for _, p := range m.programs {
		if p.UserID == userID && p.IsActive {
			out = append(out, *p.Clone())
		}
	}
	slices.SortFunc(out, func(a, b models.Program) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateProgram(_ context.Context, p *models.Program) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.programUpdateErr != nil {
		return m.programUpdateErr
	}
	cur, ok := m.programs[p.ID]
	if !ok {
		return models.ErrNotFound
	}
	if cur.Version != p.Version {
		return models.ErrStaleVersion
	}
	p.Version++
	m.programs[p.ID] = p.Clone()
	return nil
}

func (m *memStore) GetTemplate(_ context.Context, id uuid.UUID) (*models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (m *memStore) ListTemplates(context.Context) ([]models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Template
	for _, t := range m.templates {
		out = append(out, *t)
	}
	return out, nil
}

func (m *memStore) GetOrCreateLedgerEntry(_ context.Context, userID, exerciseID uuid.UUID) (*models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]uuid.UUID{userID, exerciseID}
	e, ok := m.ledger[key]
	if !ok {
		e = models.NewLedgerEntry(userID, exerciseID, time.Now())
		e.Version = 1
		m.ledger[key] = e
		m.ledgerCreates++
	}
	return e.Clone(), nil
}

func (m *memStore) GetLedgerEntry(_ context.Context, userID, exerciseID uuid.UUID) (*models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.ledger[[2]uuid.UUID{userID, exerciseID}]
	if !ok {
		return nil, models.ErrNotFound
	}
	return e.Clone(), nil
}

func (m *memStore) ListLedgerEntries(_ context.Context, userID uuid.UUID) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LedgerEntry
	for k, e := range m.ledger {
		if k[0] == userID {
			out = append(out, *e.Clone())
		}
	}
	return out, nil
}

func (m *memStore) UpdateLedgerEntry(_ context.Context, e *models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ledgerUpdateErr != nil {
		if err := m.ledgerUpdateErr(e); err != nil {
			return err
		}
	}
	key := [2]uuid.UUID{e.UserID, e.ExerciseID}
	cur, ok := m.ledger[key]
	if !ok {
		return models.ErrNotFound
	}
	if cur.Version != e.Version {
		return models.ErrStaleVersion
	}
	e.Version++
	m.ledger[key] = e.Clone()
	return nil
}

func (m *memStore) CreateSession(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("%w: session %s exists", models.ErrConflict, s.ID)
	}
	c := *s
	m.sessions[s.ID] = &c
	return nil
}

func (m *memStore) GetSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (m *memStore) ListSessions(_ context.Context, userID uuid.UUID, limit int) ([]models.Session, error) {
	return m.filterSessions(func(s *models.Session) bool { return s.UserID == userID }, limit), nil
}

func (m *memStore) RecentProgramSessions(_ context.Context, programID uuid.UUID, limit int) ([]models.Session, error) {
	return m.filterSessions(func(s *models.Session) bool {
		return s.ProgramID != nil && *s.ProgramID == programID
	}, limit), nil
}

func (m *memStore) filterSessions(keep func(*models.Session) bool, limit int) []models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Session
	for _, s := range m.sessions {
		if keep(s) {
			out = append(out, *s)
		}
	}
	slices.SortFunc(out, func(a, b models.Session) int {
		return cmp.Or(b.DatePerformed.Compare(a.DatePerformed), b.CreatedAt.Compare(a.CreatedAt))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memStore) CreateExercise(_ context.Context, e *models.Exercise) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := models.ExerciseKey(e.Name)
	if _, ok := m.exercises[key]; ok {
		return fmt.Errorf("%w: exercise %q exists", models.ErrConflict, e.Name)
	}
	c := *e
	m.exercises[key] = &c
	return nil
}

func (m *memStore) GetOrCreateExercise(_ context.Context, name string, equipment models.Equipment) (*models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := models.ExerciseKey(name)
	e, ok := m.exercises[key]
	if !ok {
		e = &models.Exercise{ID: uuid.New(), Name: name, Equipment: equipment, CreatedAt: time.Now()}
		m.exercises[key] = e
	}
	c := *e
	return &c, nil
}

func (m *memStore) ListExercises(context.Context) ([]models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Exercise
	for _, e := range m.exercises {
		out = append(out, *e)
	}
	return out, nil
}

func (m *memStore) ledgerEntry(userID, exerciseID uuid.UUID) *models.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.ledger[[2]uuid.UUID{userID, exerciseID}]
	if !ok {
		return nil
	}
	return e.Clone()
}

func (m *memStore) program(id uuid.UUID) *models.Program {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.programs[id].Clone()
}
