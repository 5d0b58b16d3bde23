package models

import (
	"slices"
	"strings"
)

// SplitType is how a program distributes muscle groups across its workouts.
type SplitType string

const (
	SplitFullBody     SplitType = "full_body"
	SplitUpperLower   SplitType = "upper_lower"
	SplitPushPullLegs SplitType = "push_pull_legs"
	SplitBroSplit     SplitType = "bro_split"
	SplitCustom       SplitType = "custom"
)

// SplitTypes is the canonical list of accepted split types.
var SplitTypes = []SplitType{SplitFullBody, SplitUpperLower, SplitPushPullLegs, SplitBroSplit, SplitCustom}

func (s SplitType) Valid() bool { return slices.Contains(SplitTypes, s) }

type MuscleGroup string

const (
	MuscleChest      MuscleGroup = "chest"
	MuscleBack       MuscleGroup = "back"
	MuscleShoulders  MuscleGroup = "shoulders"
	MuscleBiceps     MuscleGroup = "biceps"
	MuscleTriceps    MuscleGroup = "triceps"
	MuscleForearms   MuscleGroup = "forearms"
	MuscleQuads      MuscleGroup = "quads"
	MuscleHamstrings MuscleGroup = "hamstrings"
	MuscleGlutes     MuscleGroup = "glutes"
	MuscleCalves     MuscleGroup = "calves"
	MuscleAbs        MuscleGroup = "abs"
	MuscleTraps      MuscleGroup = "traps"
	MuscleLats       MuscleGroup = "lats"
)

var MuscleGroups = []MuscleGroup{
	MuscleChest, MuscleBack, MuscleShoulders, MuscleBiceps, MuscleTriceps, MuscleForearms,
	MuscleQuads, MuscleHamstrings, MuscleGlutes, MuscleCalves, MuscleAbs, MuscleTraps, MuscleLats,
}

func (m MuscleGroup) Valid() bool { return slices.Contains(MuscleGroups, m) }

type Equipment string

const (
	EquipmentBarbell      Equipment = "barbell"
	EquipmentDumbbell     Equipment = "dumbbell"
	EquipmentCable        Equipment = "cable"
	EquipmentMachine      Equipment = "machine"
	EquipmentBodyweight   Equipment = "bodyweight"
	EquipmentKettlebell   Equipment = "kettlebell"
	EquipmentBands        Equipment = "bands"
	EquipmentSmithMachine Equipment = "smith_machine"
	EquipmentOther        Equipment = "other"
)

var EquipmentTypes = []Equipment{
	EquipmentBarbell, EquipmentDumbbell, EquipmentCable, EquipmentMachine, EquipmentBodyweight,
	EquipmentKettlebell, EquipmentBands, EquipmentSmithMachine, EquipmentOther,
}

func (e Equipment) Valid() bool { return slices.Contains(EquipmentTypes, e) }

// ParseEquipment maps free-form equipment labels (as exported by tracking
// apps) onto the canonical set. Unknown labels become EquipmentOther.
func ParseEquipment(label string) Equipment {
	switch normalizeLabel(label) {
	case "barbell", "bar", "ez_bar", "trap_bar":
		return EquipmentBarbell
	case "dumbbell", "dumbbells":
		return EquipmentDumbbell
	case "cable", "cables", "cable_tower":
		return EquipmentCable
	case "machine", "plate_loaded", "lever":
		return EquipmentMachine
	case "bodyweight", "body_weight", "":
		return EquipmentBodyweight
	case "kettlebell", "kettlebells":
		return EquipmentKettlebell
	case "band", "bands", "resistance_band":
		return EquipmentBands
	case "smith", "smith_machine":
		return EquipmentSmithMachine
	default:
		return EquipmentOther
	}
}

// PlanType selects the periodization model. Only linear_rir has defined
// progression behavior; the others are accepted and stored.
type PlanType string

const (
	PlanLinearRIR PlanType = "linear_rir"
	PlanDUP       PlanType = "dup"
	PlanBlock     PlanType = "block"
)

var PlanTypes = []PlanType{PlanLinearRIR, PlanDUP, PlanBlock}

func (p PlanType) Valid() bool { return slices.Contains(PlanTypes, p) }

type VolumeProgression string

const (
	VolumeStatic    VolumeProgression = "static"
	VolumeAscending VolumeProgression = "ascending"
	VolumeWave      VolumeProgression = "wave"
)

var VolumeProgressions = []VolumeProgression{VolumeStatic, VolumeAscending, VolumeWave}

func (v VolumeProgression) Valid() bool { return slices.Contains(VolumeProgressions, v) }

type ProgramStatus string

const (
	StatusActive    ProgramStatus = "active"
	StatusPaused    ProgramStatus = "paused"
	StatusCompleted ProgramStatus = "completed"
)

var ProgramStatuses = []ProgramStatus{StatusActive, StatusPaused, StatusCompleted}

func (s ProgramStatus) Valid() bool { return slices.Contains(ProgramStatuses, s) }

type SessionStatus string

const (
	SessionCompleted          SessionStatus = "completed"
	SessionPartiallyCompleted SessionStatus = "partially_completed"
	SessionSkipped            SessionStatus = "skipped"
)

var SessionStatuses = []SessionStatus{SessionCompleted, SessionPartiallyCompleted, SessionSkipped}

func (s SessionStatus) Valid() bool { return slices.Contains(SessionStatuses, s) }

type SetType string

const (
	SetWarmup  SetType = "warmup"
	SetWorking SetType = "working"
	SetDropset SetType = "dropset"
	SetFailure SetType = "failure"
)

var SetTypes = []SetType{SetWarmup, SetWorking, SetDropset, SetFailure}

func (s SetType) Valid() bool { return slices.Contains(SetTypes, s) }

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

func (d Difficulty) Valid() bool { return slices.Contains(Difficulties, d) }

// Strings converts an enum list into plain strings, e.g. for tool schemas.
func Strings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
