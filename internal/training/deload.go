package training

import "github.com/romanpilnik/fitlog/internal/models"

// DeloadPredicate decides whether the next advance should jump to the plan's
// deload week. recent holds the program's latest sessions, newest first,
// including the one being applied. It is only consulted when the plan has
// auto-deload enabled.
//
// Which signal counts as a failure or as fatigue is left to the predicate;
// the service ships with NeverDeload and callers plug in their own rule with
// WithDeloadPredicate.
type DeloadPredicate func(recent []models.Session, cfg models.AutoDeload) bool

// NeverDeload keeps the natural week order.
func NeverDeload([]models.Session, models.AutoDeload) bool { return false }
