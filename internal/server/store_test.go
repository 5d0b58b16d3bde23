package server

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/romanpilnik/fitlog/internal/models"
	"github.com/romanpilnik/fitlog/internal/storage"
	"github.com/romanpilnik/fitlog/internal/training"
)

// fakeStore is a minimal in-memory training.Store and Backend.
type fakeStore struct {
	mu         sync.Mutex
	programs   map[uuid.UUID]*models.Program
	templates  map[uuid.UUID]*models.Template
	ledger     map[[2]uuid.UUID]*models.LedgerEntry
	sessions   []*models.Session
	exercises  []*models.Exercise
	importLogs []storage.ImportLog
	pingErr    error
}

var (
	_ training.Store = (*fakeStore)(nil)
	_ Backend        = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		programs:  make(map[uuid.UUID]*models.Program),
		templates: make(map[uuid.UUID]*models.Template),
		ledger:    make(map[[2]uuid.UUID]*models.LedgerEntry),
	}
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) InsertImportLog(_ context.Context, l storage.ImportLog) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = int64(len(f.importLogs) + 1)
	l.CreatedAt = time.Now()
	f.importLogs = append(f.importLogs, l)
	return l.ID, nil
}

func (f *fakeStore) QueryImportLogs(_ context.Context, userID uuid.UUID, limit int) ([]storage.ImportLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ImportLog
	for _, l := range slices.Backward(f.importLogs) {
		if l.UserID == userID && len(out) < limit {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateProgram(_ context.Context, p *models.Program) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.programs {
		if p.IsLive() && other.UserID == p.UserID && other.IsLive() {
			return models.ErrConflict
		}
	}
	p.Version = 1
	f.programs[p.ID] = p.Clone()
	return nil
}

func (f *fakeStore) GetProgram(_ context.Context, id uuid.UUID) (*models.Program, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.programs[id]; ok {
		return p.Clone(), nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) FindActiveProgram(_ context.Context, userID uuid.UUID) (*models.Program, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.programs {
		if p.UserID == userID && p.IsLive() {
			return p.Clone(), nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) ListPrograms(_ context.Context, userID uuid.UUID) ([]models.Program, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Program
	for _, p := range f.programs {
		if p.UserID == userID && p.IsActive {
			out = append(out, *p.Clone())
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateProgram(_ context.Context, p *models.Program) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.programs[p.ID]
	if !ok {
		return models.ErrNotFound
	}
	if cur.Version != p.Version {
		return models.ErrStaleVersion
	}
	p.Version++
	f.programs[p.ID] = p.Clone()
	return nil
}

func (f *fakeStore) GetTemplate(_ context.Context, id uuid.UUID) (*models.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.templates[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) ListTemplates(context.Context) ([]models.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Template
	for _, t := range f.templates {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeStore) GetOrCreateLedgerEntry(_ context.Context, userID, exerciseID uuid.UUID) (*models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]uuid.UUID{userID, exerciseID}
	e, ok := f.ledger[key]
	if !ok {
		e = models.NewLedgerEntry(userID, exerciseID, time.Now())
		e.Version = 1
		f.ledger[key] = e
	}
	return e.Clone(), nil
}

func (f *fakeStore) GetLedgerEntry(_ context.Context, userID, exerciseID uuid.UUID) (*models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.ledger[[2]uuid.UUID{userID, exerciseID}]; ok {
		return e.Clone(), nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) ListLedgerEntries(_ context.Context, userID uuid.UUID) ([]models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LedgerEntry
	for k, e := range f.ledger {
		if k[0] == userID {
			out = append(out, *e.Clone())
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateLedgerEntry(_ context.Context, e *models.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]uuid.UUID{e.UserID, e.ExerciseID}
	cur, ok := f.ledger[key]
	if !ok {
		return models.ErrNotFound
	}
	if cur.Version != e.Version {
		return models.ErrStaleVersion
	}
	e.Version++
	f.ledger[key] = e.Clone()
	return nil
}

func (f *fakeStore) CreateSession(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.sessions {
		if other.ID == s.ID {
			return fmt.Errorf("%w: session %s exists", models.ErrConflict, s.ID)
		}
	}
	c := *s
	f.sessions = append(f.sessions, &c)
	return nil
}

func (f *fakeStore) GetSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ID == id {
			c := *s
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) ListSessions(_ context.Context, userID uuid.UUID, limit int) ([]models.Session, error) {
	return f.filterSessions(func(s *models.Session) bool { return s.UserID == userID }, limit), nil
}

func (f *fakeStore) RecentProgramSessions(_ context.Context, programID uuid.UUID, limit int) ([]models.Session, error) {
	return f.filterSessions(func(s *models.Session) bool {
		return s.ProgramID != nil && *s.ProgramID == programID
	}, limit), nil
}

// filterSessions returns matches in reverse insertion order.
func (f *fakeStore) filterSessions(keep func(*models.Session) bool, limit int) []models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Session
	for _, s := range slices.Backward(f.sessions) {
		if keep(s) && len(out) < limit {
			out = append(out, *s)
		}
	}
	return out
}

func (f *fakeStore) CreateExercise(_ context.Context, e *models.Exercise) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.exercises {
		if models.ExerciseKey(other.Name) == models.ExerciseKey(e.Name) {
			return fmt.Errorf("%w: exercise %q exists", models.ErrConflict, e.Name)
		}
	}
	c := *e
	f.exercises = append(f.exercises, &c)
	return nil
}

func (f *fakeStore) GetOrCreateExercise(_ context.Context, name string, equipment models.Equipment) (*models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.exercises {
		if models.ExerciseKey(e.Name) == models.ExerciseKey(name) {
			c := *e
			return &c, nil
		}
	}
	e := &models.Exercise{ID: uuid.New(), Name: name, Equipment: equipment, CreatedAt: time.Now()}
	f.exercises = append(f.exercises, e)
	c := *e
	return &c, nil
}

func (f *fakeStore) ListExercises(context.Context) ([]models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Exercise
	for _, e := range f.exercises {
		out = append(out, *e)
	}
	return out, nil
}
