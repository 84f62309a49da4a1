// Package pose provides body pose detection interfaces and types for exercise analysis.
package pose

// Body landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Landmark represents one tracked body point in a frame.
// X and Y are normalized image-plane coordinates (0.0-1.0), Z is relative
// depth with model-dependent scale, and Visibility is the detector's
// confidence that the point is actually visible (0.0-1.0).
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Landmarks is the fixed set of 33 body landmarks for one detected person.
type Landmarks struct {
	Points [NumLandmarks]Landmark `json:"points"`
	Score  float64                `json:"score"`
}

// Frame is a timestamped pose snapshot handed to the evaluation engine.
// TimestampMs is monotonic capture time in milliseconds. LatencyMs is the
// optional detector processing latency for the frame.
type Frame struct {
	Landmarks   Landmarks `json:"landmarks"`
	TimestampMs int64     `json:"timestamp_ms"`
	LatencyMs   int64     `json:"latency_ms,omitempty"`
}
