package pose

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	landmarks *Landmarks
	err       error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetLandmarks sets the landmarks that will be returned by Detect.
func (m *MockDetector) SetLandmarks(lms *Landmarks) {
	m.landmarks = lms
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured landmarks or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Landmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.landmarks, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Blend linearly interpolates between two poses. t=0 returns a, t=1 returns b.
// Visibility is interpolated along with position, so blending two fully
// visible poses stays fully visible.
func Blend(a, b *Landmarks, t float64) *Landmarks {
	out := &Landmarks{
		Score: a.Score + (b.Score-a.Score)*t,
	}
	for i := 0; i < NumLandmarks; i++ {
		out.Points[i] = Landmark{
			X:          a.Points[i].X + (b.Points[i].X-a.Points[i].X)*t,
			Y:          a.Points[i].Y + (b.Points[i].Y-a.Points[i].Y)*t,
			Z:          a.Points[i].Z + (b.Points[i].Z-a.Points[i].Z)*t,
			Visibility: a.Points[i].Visibility + (b.Points[i].Visibility-a.Points[i].Visibility)*t,
		}
	}
	return out
}

// fill sets every landmark to the given point with full visibility, so
// presets only need to place the joints that matter for a pose.
func fill(lm Landmark) Landmarks {
	var out Landmarks
	out.Score = 0.95
	for i := 0; i < NumLandmarks; i++ {
		out.Points[i] = lm
	}
	return out
}

func set(lms *Landmarks, idx int, x, y float64) {
	lms.Points[idx] = Landmark{X: x, Y: y, Visibility: 0.95}
}

// StandingPose returns a preset pose of a person standing upright, viewed in
// profile. Knee and hip angles are close to fully extended.
func StandingPose() Landmarks {
	lms := fill(Landmark{X: 0.5, Y: 0.2, Visibility: 0.95})

	set(&lms, Nose, 0.54, 0.20)
	set(&lms, LeftEar, 0.50, 0.20)
	set(&lms, RightEar, 0.50, 0.20)
	set(&lms, LeftShoulder, 0.50, 0.30)
	set(&lms, RightShoulder, 0.50, 0.30)
	set(&lms, LeftElbow, 0.50, 0.42)
	set(&lms, RightElbow, 0.50, 0.42)
	set(&lms, LeftWrist, 0.50, 0.52)
	set(&lms, RightWrist, 0.50, 0.52)
	set(&lms, LeftHip, 0.50, 0.50)
	set(&lms, RightHip, 0.50, 0.50)
	set(&lms, LeftKnee, 0.50, 0.70)
	set(&lms, RightKnee, 0.50, 0.70)
	set(&lms, LeftAnkle, 0.50, 0.88)
	set(&lms, RightAnkle, 0.50, 0.88)
	set(&lms, LeftHeel, 0.48, 0.90)
	set(&lms, RightHeel, 0.48, 0.90)
	set(&lms, LeftFootIndex, 0.56, 0.90)
	set(&lms, RightFootIndex, 0.56, 0.90)

	return lms
}

// SquatBottomPose returns a preset pose at the bottom of a squat, viewed in
// profile. The knee angle is near 100 degrees with a moderate forward lean.
func SquatBottomPose() Landmarks {
	lms := fill(Landmark{X: 0.5, Y: 0.3, Visibility: 0.95})

	set(&lms, Nose, 0.60, 0.32)
	set(&lms, LeftEar, 0.56, 0.32)
	set(&lms, RightEar, 0.56, 0.32)
	set(&lms, LeftShoulder, 0.56, 0.40)
	set(&lms, RightShoulder, 0.56, 0.40)
	set(&lms, LeftElbow, 0.60, 0.50)
	set(&lms, RightElbow, 0.60, 0.50)
	set(&lms, LeftWrist, 0.64, 0.58)
	set(&lms, RightWrist, 0.64, 0.58)
	set(&lms, LeftHip, 0.63, 0.67)
	set(&lms, RightHip, 0.63, 0.67)
	set(&lms, LeftKnee, 0.50, 0.70)
	set(&lms, RightKnee, 0.50, 0.70)
	set(&lms, LeftAnkle, 0.50, 0.88)
	set(&lms, RightAnkle, 0.50, 0.88)
	set(&lms, LeftHeel, 0.48, 0.90)
	set(&lms, RightHeel, 0.48, 0.90)
	set(&lms, LeftFootIndex, 0.56, 0.90)
	set(&lms, RightFootIndex, 0.56, 0.90)

	return lms
}

// PushupTopPose returns a preset pose at the top of a push-up, viewed in
// profile with the head to the left. Arms extended, body line straight.
func PushupTopPose() Landmarks {
	lms := fill(Landmark{X: 0.3, Y: 0.5, Visibility: 0.95})

	set(&lms, Nose, 0.30, 0.52)
	set(&lms, LeftEar, 0.33, 0.52)
	set(&lms, RightEar, 0.33, 0.52)
	set(&lms, LeftShoulder, 0.36, 0.55)
	set(&lms, RightShoulder, 0.36, 0.55)
	set(&lms, LeftElbow, 0.36, 0.66)
	set(&lms, RightElbow, 0.36, 0.66)
	set(&lms, LeftWrist, 0.36, 0.76)
	set(&lms, RightWrist, 0.36, 0.76)
	set(&lms, LeftHip, 0.55, 0.58)
	set(&lms, RightHip, 0.55, 0.58)
	set(&lms, LeftKnee, 0.70, 0.60)
	set(&lms, RightKnee, 0.70, 0.60)
	set(&lms, LeftAnkle, 0.85, 0.62)
	set(&lms, RightAnkle, 0.85, 0.62)
	set(&lms, LeftHeel, 0.86, 0.64)
	set(&lms, RightHeel, 0.86, 0.64)
	set(&lms, LeftFootIndex, 0.84, 0.68)
	set(&lms, RightFootIndex, 0.84, 0.68)

	return lms
}

// PushupBottomPose returns a preset pose at the bottom of a push-up, viewed
// in profile. The elbow angle is near 90 degrees, body line still straight.
func PushupBottomPose() Landmarks {
	lms := fill(Landmark{X: 0.3, Y: 0.6, Visibility: 0.95})

	set(&lms, Nose, 0.30, 0.66)
	set(&lms, LeftEar, 0.33, 0.66)
	set(&lms, RightEar, 0.33, 0.66)
	set(&lms, LeftShoulder, 0.38, 0.68)
	set(&lms, RightShoulder, 0.38, 0.68)
	set(&lms, LeftElbow, 0.30, 0.68)
	set(&lms, RightElbow, 0.30, 0.68)
	set(&lms, LeftWrist, 0.30, 0.76)
	set(&lms, RightWrist, 0.30, 0.76)
	set(&lms, LeftHip, 0.55, 0.66)
	set(&lms, RightHip, 0.55, 0.66)
	set(&lms, LeftKnee, 0.70, 0.64)
	set(&lms, RightKnee, 0.70, 0.64)
	set(&lms, LeftAnkle, 0.85, 0.62)
	set(&lms, RightAnkle, 0.85, 0.62)
	set(&lms, LeftHeel, 0.86, 0.64)
	set(&lms, RightHeel, 0.86, 0.64)
	set(&lms, LeftFootIndex, 0.84, 0.68)
	set(&lms, RightFootIndex, 0.84, 0.68)

	return lms
}

// SideRaiseDownPose returns a preset front-view pose with both arms resting
// at the sides.
func SideRaiseDownPose() Landmarks {
	lms := fill(Landmark{X: 0.5, Y: 0.2, Visibility: 0.95})

	set(&lms, Nose, 0.50, 0.18)
	set(&lms, LeftShoulder, 0.42, 0.30)
	set(&lms, RightShoulder, 0.58, 0.30)
	set(&lms, LeftElbow, 0.41, 0.42)
	set(&lms, RightElbow, 0.59, 0.42)
	set(&lms, LeftWrist, 0.40, 0.52)
	set(&lms, RightWrist, 0.60, 0.52)
	set(&lms, LeftHip, 0.44, 0.52)
	set(&lms, RightHip, 0.56, 0.52)
	set(&lms, LeftKnee, 0.44, 0.72)
	set(&lms, RightKnee, 0.56, 0.72)
	set(&lms, LeftAnkle, 0.44, 0.90)
	set(&lms, RightAnkle, 0.56, 0.90)

	return lms
}

// SideRaiseTopPose returns a preset front-view pose with both arms raised to
// shoulder height.
func SideRaiseTopPose() Landmarks {
	lms := fill(Landmark{X: 0.5, Y: 0.2, Visibility: 0.95})

	set(&lms, Nose, 0.50, 0.18)
	set(&lms, LeftShoulder, 0.42, 0.30)
	set(&lms, RightShoulder, 0.58, 0.30)
	set(&lms, LeftElbow, 0.28, 0.29)
	set(&lms, RightElbow, 0.72, 0.29)
	set(&lms, LeftWrist, 0.16, 0.28)
	set(&lms, RightWrist, 0.84, 0.28)
	set(&lms, LeftHip, 0.44, 0.52)
	set(&lms, RightHip, 0.56, 0.52)
	set(&lms, LeftKnee, 0.44, 0.72)
	set(&lms, RightKnee, 0.56, 0.72)
	set(&lms, LeftAnkle, 0.44, 0.90)
	set(&lms, RightAnkle, 0.56, 0.90)

	return lms
}

// HiddenPose returns a pose with every landmark below any reasonable
// visibility threshold, simulating a subject out of frame.
func HiddenPose() Landmarks {
	var lms Landmarks
	lms.Score = 0.1
	for i := 0; i < NumLandmarks; i++ {
		lms.Points[i] = Landmark{X: 0.5, Y: 0.5, Visibility: 0.0}
	}
	return lms
}
