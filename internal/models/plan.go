package models

import "fmt"

const (
	MinPlanWeeks  = 1
	MaxPlanWeeks  = 12
	MaxRIR        = 10
	MinDeloadWeek = 4
	MaxDeloadWeek = 20
)

// PeriodizationPlan describes a mesocycle's week-by-week intensity targets.
type PeriodizationPlan struct {
	Type              PlanType          `json:"type"`
	Weeks             int               `json:"weeks"`
	RIRProgression    []int             `json:"rir_progression"`
	DeloadWeek        *int              `json:"deload_week,omitempty"`
	AutoDeload        AutoDeload        `json:"auto_deload"`
	VolumeProgression VolumeProgression `json:"volume_progression"`
}

// AutoDeload holds the trigger thresholds for forcing an early deload.
type AutoDeload struct {
	Enabled              bool `json:"enabled"`
	TriggerAfterFailures int  `json:"trigger_after_failures"`
	FatigueThreshold     int  `json:"fatigue_threshold"`
}

// DefaultPlan is used for custom programs created without a plan.
func DefaultPlan() PeriodizationPlan {
	return PeriodizationPlan{
		Type:           PlanLinearRIR,
		Weeks:          4,
		RIRProgression: []int{3, 2, 1, 0},
		AutoDeload: AutoDeload{
			TriggerAfterFailures: 2,
			FatigueThreshold:     7,
		},
		VolumeProgression: VolumeStatic,
	}
}

// CurrentWeekRIR returns the target RIR for week. The boolean is false when
// week lies outside the mesocycle, which signals it has not started or has
// already ended.
func (p PeriodizationPlan) CurrentWeekRIR(week int) (int, bool) {
	if week < 1 || week > p.Weeks || week > len(p.RIRProgression) {
		return 0, false
	}
	return p.RIRProgression[week-1], true
}

func (p PeriodizationPlan) IsDeloadWeek(week int) bool {
	return p.DeloadWeek != nil && *p.DeloadWeek == week
}

// ProgressPercentage is week/weeks*100, or 0 for a plan without weeks.
func (p PeriodizationPlan) ProgressPercentage(week int) float64 {
	if p.Weeks <= 0 {
		return 0
	}
	return float64(week) / float64(p.Weeks) * 100
}

func (p PeriodizationPlan) IsComplete(week int) bool {
	return week > p.Weeks
}

// Validate checks the plan. A progression whose length disagrees with the
// week count, or a deload week past the end, is ErrInvalidState; values out
// of their allowed ranges are validation errors.
func (p PeriodizationPlan) Validate() error {
	if !p.Type.Valid() {
		return invalid("plan.type", "unknown plan type %q", p.Type)
	}
	if p.Weeks < MinPlanWeeks || p.Weeks > MaxPlanWeeks {
		return invalid("plan.weeks", "must be between %d and %d", MinPlanWeeks, MaxPlanWeeks)
	}
	if len(p.RIRProgression) != p.Weeks {
		return fmt.Errorf("%w: rir progression has %d entries for %d weeks",
			ErrInvalidState, len(p.RIRProgression), p.Weeks)
	}
	for i, rir := range p.RIRProgression {
		if rir < 0 || rir > MaxRIR {
			return invalid(fmt.Sprintf("plan.rir_progression[%d]", i), "must be between 0 and %d", MaxRIR)
		}
	}
	if p.DeloadWeek != nil {
		if *p.DeloadWeek < MinDeloadWeek || *p.DeloadWeek > MaxDeloadWeek {
			return invalid("plan.deload_week", "must be between %d and %d", MinDeloadWeek, MaxDeloadWeek)
		}
		if *p.DeloadWeek > p.Weeks {
			return fmt.Errorf("%w: deload week %d is past the last week %d",
				ErrInvalidState, *p.DeloadWeek, p.Weeks)
		}
	}
	if a := p.AutoDeload; a.Enabled || a.TriggerAfterFailures != 0 || a.FatigueThreshold != 0 {
		if a.TriggerAfterFailures < 1 || a.TriggerAfterFailures > 5 {
			return invalid("plan.auto_deload.trigger_after_failures", "must be between 1 and 5")
		}
		if a.FatigueThreshold < 1 || a.FatigueThreshold > 10 {
			return invalid("plan.auto_deload.fatigue_threshold", "must be between 1 and 10")
		}
	}
	if !p.VolumeProgression.Valid() {
		return invalid("plan.volume_progression", "unknown volume progression %q", p.VolumeProgression)
	}
	return nil
}

// Clone returns a deep copy so templates and programs never share slices.
func (p PeriodizationPlan) Clone() PeriodizationPlan {
	c := p
	c.RIRProgression = append([]int(nil), p.RIRProgression...)
	if p.DeloadWeek != nil {
		w := *p.DeloadWeek
		c.DeloadWeek = &w
	}
	return c
}
