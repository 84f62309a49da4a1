package exercise

import (
	"fmt"

	"github.com/ayusman/formcoach/internal/pose"
)

// Type identifies a supported exercise.
type Type string

const (
	TypeSquat     Type = "squat"
	TypePushup    Type = "pushup"
	TypeSideRaise Type = "side_raise"
)

// Phase is a named stage of an exercise's motion cycle.
type Phase string

// Condition tests the driving angle against a threshold. Below selects
// "angle dropped under threshold"; otherwise "angle rose over threshold".
type Condition struct {
	Below     bool
	Threshold float64
}

// Met reports whether the driving angle satisfies the condition.
func (c Condition) Met(angle float64) bool {
	if c.Below {
		return angle < c.Threshold
	}
	return angle > c.Threshold
}

// Transition is one row of an exercise's transition table. The table is
// evaluated top to bottom and the first matching row wins.
type Transition struct {
	From         Phase
	To           Phase
	When         Condition
	CompletesRep bool
}

// Engine defaults, overridable per Config.
const (
	DefaultDwellMs       = 100
	DefaultMinRepMs      = 500
	DefaultMaxRepMs      = 10000
	DefaultMinVisibility = 0.5
)

// Config fully describes one exercise: its motion phases, the transition
// table over the driving angle, the form checks, and the landmarks that must
// be visible before any of it runs.
type Config struct {
	Type        Type
	DisplayName string

	// Phases in cycle order; RestPhase is the initial phase.
	Phases    []Phase
	RestPhase Phase

	// Transitions over the driving angle, first match wins.
	Transitions []Transition

	// DrivingAngle extracts the angle that moves the state machine.
	DrivingAngle func(*pose.Landmarks) float64

	Checks []Check

	// RequiredLandmarks gate evaluation; all must meet MinVisibility.
	RequiredLandmarks []int
	MinVisibility     float64

	DwellMs  int64
	MinRepMs int64
	MaxRepMs int64

	// FeedbackIntervalMs rate-limits non-critical feedback messages.
	// Zero means DefaultFeedbackIntervalMs.
	FeedbackIntervalMs int64
}

// Types lists the supported exercise types.
func Types() []Type {
	return []Type{TypeSquat, TypePushup, TypeSideRaise}
}

// ConfigFor returns the configuration for the given exercise type.
func ConfigFor(t Type) (Config, error) {
	switch t {
	case TypeSquat:
		return squatConfig(), nil
	case TypePushup:
		return pushupConfig(), nil
	case TypeSideRaise:
		return sideRaiseConfig(), nil
	default:
		return Config{}, fmt.Errorf("unknown exercise type %q", t)
	}
}

func squatConfig() Config {
	return Config{
		Type:        TypeSquat,
		DisplayName: "Squat",
		Phases:      []Phase{"standing", "descending", "bottom", "ascending"},
		RestPhase:   "standing",
		Transitions: []Transition{
			{From: "standing", To: "descending", When: Condition{Below: true, Threshold: 150}},
			{From: "descending", To: "bottom", When: Condition{Below: true, Threshold: 112}},
			{From: "descending", To: "standing", When: Condition{Below: false, Threshold: 160}},
			{From: "bottom", To: "ascending", When: Condition{Below: false, Threshold: 120}},
			{From: "ascending", To: "standing", When: Condition{Below: false, Threshold: 160}, CompletesRep: true},
			{From: "ascending", To: "bottom", When: Condition{Below: true, Threshold: 112}},
		},
		DrivingAngle: meanKneeAngle,
		Checks: []Check{
			kneeDepthCheck(70),
			kneeOverToeCheck(0.15),
			backStraightCheck(50),
			kneeSymmetryCheck(15),
		},
		RequiredLandmarks: []int{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftHip, pose.RightHip,
			pose.LeftKnee, pose.RightKnee,
			pose.LeftAnkle, pose.RightAnkle,
		},
		MinVisibility: DefaultMinVisibility,
		DwellMs:       DefaultDwellMs,
		MinRepMs:      DefaultMinRepMs,
		MaxRepMs:      DefaultMaxRepMs,
	}
}

func pushupConfig() Config {
	return Config{
		Type:        TypePushup,
		DisplayName: "Push-up",
		Phases:      []Phase{"up", "lowering", "down", "pushing"},
		RestPhase:   "up",
		Transitions: []Transition{
			{From: "up", To: "lowering", When: Condition{Below: true, Threshold: 150}},
			{From: "lowering", To: "down", When: Condition{Below: true, Threshold: 100}},
			{From: "lowering", To: "up", When: Condition{Below: false, Threshold: 165}},
			{From: "down", To: "pushing", When: Condition{Below: false, Threshold: 110}},
			{From: "pushing", To: "up", When: Condition{Below: false, Threshold: 165}, CompletesRep: true},
			{From: "pushing", To: "down", When: Condition{Below: true, Threshold: 100}},
		},
		DrivingAngle: meanElbowAngle,
		Checks: []Check{
			bodyLineCheck(170),
			hipSagCheck(0.05),
			elbowRangeCheck(70),
		},
		RequiredLandmarks: []int{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftElbow, pose.RightElbow,
			pose.LeftWrist, pose.RightWrist,
			pose.LeftHip, pose.RightHip,
			pose.LeftAnkle, pose.RightAnkle,
		},
		MinVisibility: DefaultMinVisibility,
		DwellMs:       DefaultDwellMs,
		MinRepMs:      DefaultMinRepMs,
		MaxRepMs:      DefaultMaxRepMs,
	}
}

func sideRaiseConfig() Config {
	return Config{
		Type:        TypeSideRaise,
		DisplayName: "Side raise",
		Phases:      []Phase{"down", "raising", "top", "lowering"},
		RestPhase:   "down",
		Transitions: []Transition{
			{From: "down", To: "raising", When: Condition{Below: false, Threshold: 30}},
			{From: "raising", To: "top", When: Condition{Below: false, Threshold: 80}},
			{From: "raising", To: "down", When: Condition{Below: true, Threshold: 20}},
			{From: "top", To: "lowering", When: Condition{Below: true, Threshold: 75}},
			{From: "lowering", To: "down", When: Condition{Below: true, Threshold: 20}, CompletesRep: true},
			{From: "lowering", To: "top", When: Condition{Below: false, Threshold: 80}},
		},
		DrivingAngle: meanAbductionAngle,
		Checks: []Check{
			armHeightCheck(0.05),
			armSymmetryCheck(0.1),
			elbowStraightCheck(150),
		},
		RequiredLandmarks: []int{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftElbow, pose.RightElbow,
			pose.LeftWrist, pose.RightWrist,
			pose.LeftHip, pose.RightHip,
		},
		MinVisibility: DefaultMinVisibility,
		DwellMs:       DefaultDwellMs,
		MinRepMs:      DefaultMinRepMs,
		MaxRepMs:      DefaultMaxRepMs,
	}
}
