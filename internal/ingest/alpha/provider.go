package alpha

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/romanpilnik/fitlog/internal/ingest"
	"github.com/romanpilnik/fitlog/internal/models"
	"github.com/romanpilnik/fitlog/internal/training"
)

// importNamespace seeds the deterministic session ids of imported sessions.
var importNamespace = uuid.MustParse("3f0d7a52-5c1e-4b8e-9a57-2d6c1f0e8b41")

// Sink is the part of the training service an import writes to.
type Sink interface {
	ResolveExercise(ctx context.Context, name string, equipment models.Equipment) (*models.Exercise, error)
	CreateSession(ctx context.Context, userID uuid.UUID, in training.SessionInput) (*training.SessionResult, error)
}

var _ Sink = (*training.Service)(nil)

// Provider imports Alpha Progression CSV exports as ledger-only sessions.
type Provider struct {
	sink Sink
	log  *slog.Logger
}

func NewProvider(sink Sink, log *slog.Logger) *Provider {
	return &Provider{sink: sink, log: log.With("component", "alpha")}
}

// SessionID is the id an imported session gets. It depends only on the
// user, the session date and its name, so uploading the same export twice
// does not log anything twice.
func SessionID(userID uuid.UUID, s Session) uuid.UUID {
	key := userID.String() + "|" + s.Date.UTC().Format(time.RFC3339) + "|" + s.Name
	return uuid.NewSHA1(importNamespace, []byte(key))
}

// Ingest parses an export and feeds its sessions, oldest first, through the
// completion pipeline.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID uuid.UUID) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	slices.SortStableFunc(sessions, func(a, b Session) int { return a.Date.Compare(b.Date) })

	result := &ingest.Result{SessionsReceived: len(sessions)}
	for _, s := range sessions {
		in, sets, err := p.sessionInput(ctx, userID, s)
		if err != nil {
			return result, err
		}
		result.SetsReceived += sets

		res, err := p.sink.CreateSession(ctx, userID, in)
		switch {
		case errors.Is(err, models.ErrConflict):
			result.SessionsSkipped++
		case errors.Is(err, models.ErrValidation):
			result.SessionsRejected++
			p.log.Warn("session rejected", "name", s.Name, "date", s.Date, "error", err)
		case err != nil:
			return result, fmt.Errorf("importing session %q on %s: %w", s.Name, s.Date.Format("2006-01-02"), err)
		default:
			result.SessionsCreated++
			result.LedgerUpdated += res.LedgerUpdated
			result.LedgerSkipped += res.LedgerSkipped
		}
	}

	p.log.Info("alpha import done",
		"user_id", userID,
		"received", result.SessionsReceived,
		"created", result.SessionsCreated,
		"skipped", result.SessionsSkipped,
	)
	return result, nil
}

func (p *Provider) sessionInput(ctx context.Context, userID uuid.UUID, s Session) (training.SessionInput, int, error) {
	in := training.SessionInput{
		ID:              SessionID(userID, s),
		WorkoutName:     s.Name,
		Status:          models.SessionCompleted,
		DatePerformed:   s.Date,
		DurationMinutes: s.DurationMinutes,
	}
	sets := 0
	for _, ex := range s.Exercises {
		exercise, err := p.sink.ResolveExercise(ctx, ex.Name, models.ParseEquipment(ex.Equipment))
		if err != nil {
			return in, sets, fmt.Errorf("resolving exercise %q: %w", ex.Name, err)
		}
		se := models.SessionExercise{
			ExerciseID: exercise.ID,
			Order:      ex.Number,
			Notes:      ex.Modifiers,
		}
		for _, set := range ex.Sets {
			se.Sets = append(se.Sets, sessionSet(set))
		}
		sets += len(ex.Sets)
		in.Exercises = append(in.Exercises, se)
	}
	return in, sets, nil
}

func sessionSet(s Set) models.SessionSet {
	reps, weight := s.Reps, s.WeightKg
	out := models.SessionSet{
		SetType:   models.SetWorking,
		Reps:      &reps,
		Weight:    &weight,
		Completed: true,
	}
	if s.IsWarmup {
		out.SetType = models.SetWarmup
	}
	if s.RIR != nil {
		rir := min(*s.RIR, models.MaxRIR)
		out.RIR = &rir
	}
	return out
}
