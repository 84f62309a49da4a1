package pose

import (
	"math"
	"testing"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c Landmark
		want    float64
	}{
		{
			name: "right angle",
			a:    Landmark{X: 0.5, Y: 0.3},
			b:    Landmark{X: 0.5, Y: 0.5},
			c:    Landmark{X: 0.7, Y: 0.5},
			want: 90,
		},
		{
			name: "straight line",
			a:    Landmark{X: 0.5, Y: 0.2},
			b:    Landmark{X: 0.5, Y: 0.5},
			c:    Landmark{X: 0.5, Y: 0.8},
			want: 180,
		},
		{
			name: "acute angle",
			a:    Landmark{X: 0.6, Y: 0.4},
			b:    Landmark{X: 0.5, Y: 0.5},
			c:    Landmark{X: 0.6, Y: 0.5},
			want: 45,
		},
		{
			name: "reflex normalized to inner angle",
			a:    Landmark{X: 0.4, Y: 0.4},
			b:    Landmark{X: 0.5, Y: 0.5},
			c:    Landmark{X: 0.4, Y: 0.5},
			want: 45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Angle(tt.a, tt.b, tt.c)
			if !almostEqual(got, tt.want, 1.0) {
				t.Errorf("Angle() = %f, want %f", got, tt.want)
			}
			if got < 0 || got > 180 {
				t.Errorf("Angle() = %f, outside [0, 180]", got)
			}
		})
	}
}

func TestAngle_CoincidentPoints(t *testing.T) {
	p := Landmark{X: 0.5, Y: 0.5}
	got := Angle(p, p, p)
	if got < 0 || got > 180 {
		t.Errorf("Angle() on coincident points = %f, outside [0, 180]", got)
	}
}

func TestAngle3D(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c Landmark
		want    float64
	}{
		{
			name: "right angle in depth",
			a:    Landmark{X: 0.5, Y: 0.3, Z: 0},
			b:    Landmark{X: 0.5, Y: 0.5, Z: 0},
			c:    Landmark{X: 0.5, Y: 0.5, Z: 0.2},
			want: 90,
		},
		{
			name: "straight line",
			a:    Landmark{X: 0.2, Y: 0.5, Z: 0.1},
			b:    Landmark{X: 0.5, Y: 0.5, Z: 0.1},
			c:    Landmark{X: 0.8, Y: 0.5, Z: 0.1},
			want: 180,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Angle3D(tt.a, tt.b, tt.c)
			if !almostEqual(got, tt.want, 1.0) {
				t.Errorf("Angle3D() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestAngle3D_DegenerateVector(t *testing.T) {
	p := Landmark{X: 0.5, Y: 0.5, Z: 0.1}
	got := Angle3D(p, p, Landmark{X: 0.8, Y: 0.5, Z: 0.1})
	if got != 0 {
		t.Errorf("Angle3D() with zero-length vector = %f, want 0", got)
	}
}

func TestDistance(t *testing.T) {
	a := Landmark{X: 0.0, Y: 0.0}
	b := Landmark{X: 0.3, Y: 0.4}
	if got := Distance(a, b); !almostEqual(got, 0.5, 1e-9) {
		t.Errorf("Distance() = %f, want 0.5", got)
	}
}

func TestDistance3D(t *testing.T) {
	a := Landmark{X: 0.0, Y: 0.0, Z: 0.0}
	b := Landmark{X: 0.2, Y: 0.3, Z: 0.6}
	if got := Distance3D(a, b); !almostEqual(got, 0.7, 1e-9) {
		t.Errorf("Distance3D() = %f, want 0.7", got)
	}
}

func TestMidpoint(t *testing.T) {
	a := Landmark{X: 0.2, Y: 0.4, Z: 0.1, Visibility: 0.9}
	b := Landmark{X: 0.6, Y: 0.8, Z: 0.3, Visibility: 0.5}

	mid := Midpoint(a, b)
	if !almostEqual(mid.X, 0.4, 1e-9) || !almostEqual(mid.Y, 0.6, 1e-9) {
		t.Errorf("Midpoint() = (%f, %f), want (0.4, 0.6)", mid.X, mid.Y)
	}
	if mid.Visibility != 0.5 {
		t.Errorf("Midpoint() visibility = %f, want the lower of the pair", mid.Visibility)
	}
}

func TestIsVisible(t *testing.T) {
	tests := []struct {
		name       string
		visibility float64
		threshold  float64
		want       bool
	}{
		{name: "above threshold", visibility: 0.9, threshold: 0.5, want: true},
		{name: "exactly at threshold", visibility: 0.5, threshold: 0.5, want: true},
		{name: "below threshold", visibility: 0.49, threshold: 0.5, want: false},
		{name: "zero visibility", visibility: 0.0, threshold: 0.5, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lm := Landmark{Visibility: tt.visibility}
			if got := IsVisible(lm, tt.threshold); got != tt.want {
				t.Errorf("IsVisible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllVisible(t *testing.T) {
	lms := StandingPose()

	if !AllVisible(&lms, []int{LeftHip, RightHip, LeftKnee, RightKnee}, 0.5) {
		t.Error("AllVisible() = false for a fully visible pose")
	}

	lms.Points[LeftKnee].Visibility = 0.2
	if AllVisible(&lms, []int{LeftHip, LeftKnee}, 0.5) {
		t.Error("AllVisible() = true with one occluded landmark")
	}
}

func TestAllVisible_OutOfRangeIndex(t *testing.T) {
	lms := StandingPose()
	if AllVisible(&lms, []int{LeftHip, NumLandmarks + 3}, 0.5) {
		t.Error("AllVisible() = true with an out-of-range index")
	}
	if AllVisible(&lms, []int{-1}, 0.5) {
		t.Error("AllVisible() = true with a negative index")
	}
}

func TestBlend(t *testing.T) {
	a := StandingPose()
	b := SquatBottomPose()

	if got := Blend(&a, &b, 0); got.Points[LeftHip] != a.Points[LeftHip] {
		t.Error("Blend(t=0) should return the first pose")
	}
	if got := Blend(&a, &b, 1); got.Points[LeftHip] != b.Points[LeftHip] {
		t.Error("Blend(t=1) should return the second pose")
	}

	mid := Blend(&a, &b, 0.5)
	wantX := (a.Points[LeftHip].X + b.Points[LeftHip].X) / 2
	if !almostEqual(mid.Points[LeftHip].X, wantX, 1e-9) {
		t.Errorf("Blend(t=0.5) hip X = %f, want %f", mid.Points[LeftHip].X, wantX)
	}
}
