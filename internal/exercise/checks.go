// Package exercise implements the real-time form evaluation engine: per-frame
// form checks, the phase state machine, rep counting and session aggregation.
// Exercises are described by configuration values rather than types, so adding
// one means adding data, not code paths.
package exercise

import (
	"math"

	"github.com/ayusman/formcoach/internal/pose"
)

// Severity classifies how urgently an issue should be surfaced to the user.
type Severity string

const (
	// SeverityCritical issues bypass feedback rate limiting.
	SeverityCritical Severity = "critical"
	// SeverityWarning issues indicate form faults worth correcting.
	SeverityWarning Severity = "warning"
	// SeverityInfo issues are minor observations.
	SeverityInfo Severity = "info"
)

// Issue types reported by the built-in checks.
const (
	IssueLowConfidence = "low_confidence"
	IssueKneeTooDeep   = "knee_too_deep"
	IssueKneeOverToe   = "knee_over_toe"
	IssueBackRounded   = "back_rounded"
	IssueKneeAsymmetry = "knee_asymmetry"
	IssueBodyLine      = "body_line"
	IssueHipSag        = "hip_sag"
	IssueElbowTooDeep  = "elbow_too_deep"
	IssueOverRaise     = "over_raise"
	IssueArmAsymmetry  = "arm_asymmetry"
	IssueElbowBent     = "elbow_bent"
)

// Issue is a named form-quality defect detected by a check on a frame.
type Issue struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// LowConfidenceIssue is reported when the required landmarks are not visible
// enough to evaluate the frame at all.
func LowConfidenceIssue() Issue {
	return Issue{
		Type:     IssueLowConfidence,
		Message:  "Cannot detect your pose - adjust the camera position",
		Severity: SeverityCritical,
	}
}

// CheckResult is the outcome of one named check on one frame. Value carries
// the measured angle or distance that the check decided on. Issue is non-nil
// only when the check failed.
type CheckResult struct {
	Name        string  `json:"name"`
	Passed      bool    `json:"passed"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
	Issue       *Issue  `json:"issue,omitempty"`
}

// Check is a pure per-frame predicate. Checks hold no state and may run in
// any order.
type Check struct {
	Name string
	Eval func(lms *pose.Landmarks) CheckResult
}

// Score computes the frame score as the percentage of checks passed,
// rounded to the nearest integer. Zero checks score 0.
func Score(results []CheckResult) int {
	if len(results) == 0 {
		return 0
	}

	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}

	return int(math.Round(100 * float64(passed) / float64(len(results))))
}

// result builds a CheckResult, attaching the issue only on failure.
func result(name string, passed bool, value float64, desc string, issue Issue) CheckResult {
	r := CheckResult{
		Name:        name,
		Passed:      passed,
		Value:       value,
		Description: desc,
	}
	if !passed {
		r.Issue = &issue
	}
	return r
}

// kneeAngle returns the hip-knee-ankle angle for one side.
func kneeAngle(lms *pose.Landmarks, hip, knee, ankle int) float64 {
	return pose.Angle(lms.Points[hip], lms.Points[knee], lms.Points[ankle])
}

// meanKneeAngle averages the left and right knee angles; used as the squat
// driving angle.
func meanKneeAngle(lms *pose.Landmarks) float64 {
	left := kneeAngle(lms, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle)
	right := kneeAngle(lms, pose.RightHip, pose.RightKnee, pose.RightAnkle)
	return (left + right) / 2
}

// meanElbowAngle averages the left and right elbow angles; used as the
// push-up driving angle.
func meanElbowAngle(lms *pose.Landmarks) float64 {
	left := pose.Angle(lms.Points[pose.LeftShoulder], lms.Points[pose.LeftElbow], lms.Points[pose.LeftWrist])
	right := pose.Angle(lms.Points[pose.RightShoulder], lms.Points[pose.RightElbow], lms.Points[pose.RightWrist])
	return (left + right) / 2
}

// meanAbductionAngle averages the left and right hip-shoulder-elbow angles;
// used as the side-raise driving angle.
func meanAbductionAngle(lms *pose.Landmarks) float64 {
	left := pose.Angle(lms.Points[pose.LeftHip], lms.Points[pose.LeftShoulder], lms.Points[pose.LeftElbow])
	right := pose.Angle(lms.Points[pose.RightHip], lms.Points[pose.RightShoulder], lms.Points[pose.RightElbow])
	return (left + right) / 2
}

// torsoLean returns the torso's inclination from vertical in degrees, using
// the shoulder and hip midpoints.
func torsoLean(lms *pose.Landmarks) float64 {
	shoulder := pose.Midpoint(lms.Points[pose.LeftShoulder], lms.Points[pose.RightShoulder])
	hip := pose.Midpoint(lms.Points[pose.LeftHip], lms.Points[pose.RightHip])
	below := pose.Landmark{X: hip.X, Y: hip.Y + 0.2}
	return 180 - pose.Angle(shoulder, hip, below)
}

// Squat checks

func kneeDepthCheck(minAngle float64) Check {
	return Check{
		Name: "knee_depth",
		Eval: func(lms *pose.Landmarks) CheckResult {
			left := kneeAngle(lms, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle)
			right := kneeAngle(lms, pose.RightHip, pose.RightKnee, pose.RightAnkle)
			value := math.Min(left, right)
			return result("knee_depth", value >= minAngle, value,
				"knee angle stays above the collapse limit",
				Issue{Type: IssueKneeTooDeep, Message: "You're squatting too deep - ease up a little", Severity: SeverityWarning})
		},
	}
}

func kneeOverToeCheck(maxForward float64) Check {
	return Check{
		Name: "knee_over_toe",
		Eval: func(lms *pose.Landmarks) CheckResult {
			left := math.Abs(lms.Points[pose.LeftKnee].X - lms.Points[pose.LeftAnkle].X)
			right := math.Abs(lms.Points[pose.RightKnee].X - lms.Points[pose.RightAnkle].X)
			value := math.Max(left, right)
			return result("knee_over_toe", value <= maxForward, value,
				"knees stay over the ankles",
				Issue{Type: IssueKneeOverToe, Message: "Keep your knees behind your toes", Severity: SeverityWarning})
		},
	}
}

func backStraightCheck(maxLean float64) Check {
	return Check{
		Name: "back_straight",
		Eval: func(lms *pose.Landmarks) CheckResult {
			value := torsoLean(lms)
			return result("back_straight", value <= maxLean, value,
				"torso lean from vertical stays in range",
				Issue{Type: IssueBackRounded, Message: "Keep your chest up and your back straight", Severity: SeverityWarning})
		},
	}
}

func kneeSymmetryCheck(maxDiff float64) Check {
	return Check{
		Name: "knee_symmetry",
		Eval: func(lms *pose.Landmarks) CheckResult {
			left := kneeAngle(lms, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle)
			right := kneeAngle(lms, pose.RightHip, pose.RightKnee, pose.RightAnkle)
			value := math.Abs(left - right)
			return result("knee_symmetry", value <= maxDiff, value,
				"left and right knees bend together",
				Issue{Type: IssueKneeAsymmetry, Message: "Keep your weight even on both legs", Severity: SeverityInfo})
		},
	}
}

// Push-up checks

func bodyLineCheck(minAngle float64) Check {
	return Check{
		Name: "body_line",
		Eval: func(lms *pose.Landmarks) CheckResult {
			shoulder := pose.Midpoint(lms.Points[pose.LeftShoulder], lms.Points[pose.RightShoulder])
			hip := pose.Midpoint(lms.Points[pose.LeftHip], lms.Points[pose.RightHip])
			ankle := pose.Midpoint(lms.Points[pose.LeftAnkle], lms.Points[pose.RightAnkle])
			value := pose.Angle(shoulder, hip, ankle)
			return result("body_line", value >= minAngle, value,
				"shoulder-hip-ankle line stays straight",
				Issue{Type: IssueBodyLine, Message: "Keep your body in a straight line", Severity: SeverityWarning})
		},
	}
}

func hipSagCheck(maxSag float64) Check {
	return Check{
		Name: "hip_sag",
		Eval: func(lms *pose.Landmarks) CheckResult {
			shoulder := pose.Midpoint(lms.Points[pose.LeftShoulder], lms.Points[pose.RightShoulder])
			hip := pose.Midpoint(lms.Points[pose.LeftHip], lms.Points[pose.RightHip])
			ankle := pose.Midpoint(lms.Points[pose.LeftAnkle], lms.Points[pose.RightAnkle])

			// Vertical distance of the hip below the shoulder-ankle line.
			value := 0.0
			if dx := ankle.X - shoulder.X; math.Abs(dx) > 1e-10 {
				t := (hip.X - shoulder.X) / dx
				lineY := shoulder.Y + t*(ankle.Y-shoulder.Y)
				value = hip.Y - lineY
			}
			return result("hip_sag", value <= maxSag, value,
				"hips do not sag below the body line",
				Issue{Type: IssueHipSag, Message: "Squeeze your glutes and lift your hips", Severity: SeverityWarning})
		},
	}
}

func elbowRangeCheck(minAngle float64) Check {
	return Check{
		Name: "elbow_range",
		Eval: func(lms *pose.Landmarks) CheckResult {
			value := meanElbowAngle(lms)
			return result("elbow_range", value >= minAngle, value,
				"elbow angle stays above the collapse limit",
				Issue{Type: IssueElbowTooDeep, Message: "Don't drop below your controlled range", Severity: SeverityInfo})
		},
	}
}

// Side-raise checks

func armHeightCheck(tolerance float64) Check {
	return Check{
		Name: "arm_height",
		Eval: func(lms *pose.Landmarks) CheckResult {
			left := lms.Points[pose.LeftShoulder].Y - lms.Points[pose.LeftWrist].Y
			right := lms.Points[pose.RightShoulder].Y - lms.Points[pose.RightWrist].Y
			value := math.Max(left, right)
			return result("arm_height", value <= tolerance, value,
				"wrists do not rise above shoulder height",
				Issue{Type: IssueOverRaise, Message: "Raise only to shoulder height", Severity: SeverityWarning})
		},
	}
}

func armSymmetryCheck(tolerance float64) Check {
	return Check{
		Name: "arm_symmetry",
		Eval: func(lms *pose.Landmarks) CheckResult {
			value := math.Abs(lms.Points[pose.LeftWrist].Y - lms.Points[pose.RightWrist].Y)
			return result("arm_symmetry", value <= tolerance, value,
				"both arms move at the same height",
				Issue{Type: IssueArmAsymmetry, Message: "Keep both arms at the same height", Severity: SeverityInfo})
		},
	}
}

func elbowStraightCheck(minAngle float64) Check {
	return Check{
		Name: "elbow_straight",
		Eval: func(lms *pose.Landmarks) CheckResult {
			value := meanElbowAngle(lms)
			return result("elbow_straight", value >= minAngle, value,
				"elbows stay close to straight",
				Issue{Type: IssueElbowBent, Message: "Keep a slight, fixed bend in your elbows", Severity: SeverityInfo})
		},
	}
}
