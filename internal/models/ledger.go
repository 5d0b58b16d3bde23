package models

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

// maxAppliedSessions bounds the per-entry list of session ids already folded
// into the statistics.
const maxAppliedSessions = 64

// LedgerEntry holds rolling performance statistics for one user and one
// exercise.
type LedgerEntry struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	ExerciseID uuid.UUID `json:"exercise_id"`

	LastPerformed     *Performance   `json:"last_performed,omitempty"`
	PersonalRecord    PersonalRecord `json:"personal_record"`
	RecentSessions    SessionHistory `json:"recent_sessions"`
	RecentProgression Progression    `json:"recent_progression"`
	Metrics           LedgerMetrics  `json:"metrics"`

	Annotations

	IsActive          bool        `json:"is_active"`
	AppliedSessionIDs []uuid.UUID `json:"-"`
	Version           int64       `json:"version"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

type Performance struct {
	Date   time.Time `json:"date"`
	Weight float64   `json:"weight"`
	Reps   int       `json:"reps"`
	Sets   int       `json:"sets"`
}

// PerformanceInput is a candidate last performance. All of weight, reps
// and sets must be present.
type PerformanceInput struct {
	Date   time.Time
	Weight *float64
	Reps   *int
	Sets   *int
}

// PersonalRecord is the best top set ever recorded. A nil Date means no
// record exists yet.
type PersonalRecord struct {
	Weight float64    `json:"weight"`
	Reps   int        `json:"reps"`
	Date   *time.Time `json:"date,omitempty"`
}

type Progression struct {
	Attempts            int        `json:"attempts"`
	Successes           int        `json:"successes"`
	LastProgressionDate *time.Time `json:"last_progression_date,omitempty"`
}

type LedgerMetrics struct {
	TotalSessions          int     `json:"total_sessions"`
	AvgDaysBetweenSessions float64 `json:"avg_days_between_sessions"`
}

// Annotations are user-maintained notes. Session logging never touches them.
type Annotations struct {
	DifficultyRating *int   `json:"difficulty_rating,omitempty"`
	EnjoymentRating  *int   `json:"enjoyment_rating,omitempty"`
	FormNotes        string `json:"form_notes,omitempty"`
	InjuryNotes      string `json:"injury_notes,omitempty"`
	IsFavorite       bool   `json:"is_favorite"`
	NeedsFormCheck   bool   `json:"needs_form_check"`
	IsInjuryModified bool   `json:"is_injury_modified"`
}

// LedgerPatch is a partial update of annotations. Nil fields are left alone.
type LedgerPatch struct {
	DifficultyRating *int    `json:"difficulty_rating"`
	EnjoymentRating  *int    `json:"enjoyment_rating"`
	FormNotes        *string `json:"form_notes"`
	InjuryNotes      *string `json:"injury_notes"`
	IsFavorite       *bool   `json:"is_favorite"`
	NeedsFormCheck   *bool   `json:"needs_form_check"`
	IsInjuryModified *bool   `json:"is_injury_modified"`
	IsActive         *bool   `json:"is_active"`
}

func NewLedgerEntry(userID, exerciseID uuid.UUID, now time.Time) *LedgerEntry {
	return &LedgerEntry{
		ID:         uuid.New(),
		UserID:     userID,
		ExerciseID: exerciseID,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// BetterSet reports whether (w1, r1) strictly beats (w2, r2): heavier wins,
// and at equal weight more reps win.
func BetterSet(w1 float64, r1 int, w2 float64, r2 int) bool {
	if w1 != w2 {
		return w1 > w2
	}
	return r1 > r2
}

// TopSetOf picks the heaviest set, more reps breaking ties. Sets missing
// weight or reps are ignored; false means no set qualified.
func TopSetOf(sets []SessionSet) (SessionSet, bool) {
	var top SessionSet
	found := false
	for _, s := range sets {
		if s.Weight == nil || s.Reps == nil {
			continue
		}
		if !found || BetterSet(*s.Weight, *s.Reps, *top.Weight, *top.Reps) {
			top = s
			found = true
		}
	}
	return top, found
}

// UpdateLastPerformed overwrites the last performance and counts a session.
func (e *LedgerEntry) UpdateLastPerformed(in PerformanceInput) error {
	switch {
	case in.Weight == nil:
		return invalid("weight", "is required")
	case in.Reps == nil:
		return invalid("reps", "is required")
	case in.Sets == nil:
		return invalid("sets", "is required")
	}
	e.LastPerformed = &Performance{
		Date:   in.Date,
		Weight: *in.Weight,
		Reps:   *in.Reps,
		Sets:   *in.Sets,
	}
	e.Metrics.TotalSessions++
	return nil
}

// AddSessionToHistory prepends s, evicting the oldest beyond capacity.
func (e *LedgerEntry) AddSessionToHistory(s SessionSummary) {
	e.RecentSessions.Push(s)
}

// UpdatePersonalRecord replaces the record when (weight, reps) is strictly
// better, or when there is no record yet.
func (e *LedgerEntry) UpdatePersonalRecord(weight float64, reps int, date time.Time) bool {
	pr := e.PersonalRecord
	if pr.Date != nil && !BetterSet(weight, reps, pr.Weight, pr.Reps) {
		return false
	}
	d := date
	e.PersonalRecord = PersonalRecord{Weight: weight, Reps: reps, Date: &d}
	return true
}

// RecordSession folds one session's performance of this exercise into the
// entry. It is a no-op returning false when summary.SessionID was already
// recorded.
func (e *LedgerEntry) RecordSession(top SessionSet, summary SessionSummary) (bool, error) {
	if summary.SessionID != uuid.Nil && slices.Contains(e.AppliedSessionIDs, summary.SessionID) {
		return false, nil
	}

	prevLast := e.LastPerformed
	prevTop, hadPrev := e.RecentSessions.Latest()

	sets := summary.TotalSets
	err := e.UpdateLastPerformed(PerformanceInput{
		Date:   summary.Date,
		Weight: top.Weight,
		Reps:   top.Reps,
		Sets:   &sets,
	})
	if err != nil {
		return false, err
	}
	weight, reps := *top.Weight, *top.Reps

	if prevLast != nil {
		gap := math.Abs(summary.Date.Sub(prevLast.Date).Hours() / 24)
		n := float64(e.Metrics.TotalSessions - 1)
		e.Metrics.AvgDaysBetweenSessions += (gap - e.Metrics.AvgDaysBetweenSessions) / n
	}

	if hadPrev {
		e.RecentProgression.Attempts++
		if BetterSet(weight, reps, prevTop.TopSetWeight, prevTop.TopSetReps) {
			e.RecentProgression.Successes++
			d := summary.Date
			e.RecentProgression.LastProgressionDate = &d
		}
	}

	summary.TopSetWeight = weight
	summary.TopSetReps = reps
	e.AddSessionToHistory(summary)
	e.UpdatePersonalRecord(weight, reps, summary.Date)

	if summary.SessionID != uuid.Nil {
		e.AppliedSessionIDs = append(e.AppliedSessionIDs, summary.SessionID)
		if over := len(e.AppliedSessionIDs) - maxAppliedSessions; over > 0 {
			e.AppliedSessionIDs = slices.Delete(e.AppliedSessionIDs, 0, over)
		}
	}
	return true, nil
}

// DaysSinceLastPerformed returns whole days since the last performance.
func (e *LedgerEntry) DaysSinceLastPerformed(now time.Time) (int, bool) {
	if e.LastPerformed == nil {
		return 0, false
	}
	return int(now.Sub(e.LastPerformed.Date).Hours() / 24), true
}

// VolumeLastSession is weight*reps*sets of the last performance, or 0.
func (e *LedgerEntry) VolumeLastSession() float64 {
	if e.LastPerformed == nil {
		return 0
	}
	lp := e.LastPerformed
	return lp.Weight * float64(lp.Reps) * float64(lp.Sets)
}

// ProgressionRate is successes/attempts, 0 before any attempt.
func (e *LedgerEntry) ProgressionRate() float64 {
	if e.RecentProgression.Attempts == 0 {
		return 0
	}
	return float64(e.RecentProgression.Successes) / float64(e.RecentProgression.Attempts)
}

// EstimatedOneRepMax applies the Epley formula to the personal record.
func (e *LedgerEntry) EstimatedOneRepMax() float64 {
	pr := e.PersonalRecord
	if pr.Date == nil || pr.Reps <= 0 {
		return 0
	}
	if pr.Reps == 1 {
		return pr.Weight
	}
	return pr.Weight * (1 + float64(pr.Reps)/30)
}

// ApplyPatch updates annotations and the active flag.
func (e *LedgerEntry) ApplyPatch(p LedgerPatch) error {
	if p.DifficultyRating != nil && (*p.DifficultyRating < 1 || *p.DifficultyRating > 5) {
		return invalid("difficulty_rating", "must be between 1 and 5")
	}
	if p.EnjoymentRating != nil && (*p.EnjoymentRating < 1 || *p.EnjoymentRating > 5) {
		return invalid("enjoyment_rating", "must be between 1 and 5")
	}
	if p.DifficultyRating != nil {
		v := *p.DifficultyRating
		e.DifficultyRating = &v
	}
	if p.EnjoymentRating != nil {
		v := *p.EnjoymentRating
		e.EnjoymentRating = &v
	}
	if p.FormNotes != nil {
		e.FormNotes = *p.FormNotes
	}
	if p.InjuryNotes != nil {
		e.InjuryNotes = *p.InjuryNotes
	}
	if p.IsFavorite != nil {
		e.IsFavorite = *p.IsFavorite
	}
	if p.NeedsFormCheck != nil {
		e.NeedsFormCheck = *p.NeedsFormCheck
	}
	if p.IsInjuryModified != nil {
		e.IsInjuryModified = *p.IsInjuryModified
	}
	if p.IsActive != nil {
		e.IsActive = *p.IsActive
	}
	return nil
}

// Clone returns a copy that can be mutated without affecting e.
func (e *LedgerEntry) Clone() *LedgerEntry {
	c := *e
	c.AppliedSessionIDs = slices.Clone(e.AppliedSessionIDs)
	return &c
}
