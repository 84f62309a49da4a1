package pose

import "math"

// Angle calculates the angle in degrees at vertex b formed by the rays b->a
// and b->c, using the 2D image-plane coordinates only. The result is always
// the interior angle in the range [0, 180], never the reflex angle.
func Angle(a, b, c Landmark) float64 {
	rad := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	deg := math.Abs(rad * 180.0 / math.Pi)

	if deg > 180.0 {
		deg = 360.0 - deg
	}

	return deg
}

// Angle3D calculates the angle in degrees at vertex b using all three
// coordinates via the dot-product formula. Returns 0 if either ray has zero
// magnitude (degenerate input such as coincident landmarks).
func Angle3D(a, b, c Landmark) float64 {
	v1x, v1y, v1z := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	v2x, v2y, v2z := c.X-b.X, c.Y-b.Y, c.Z-b.Z

	mag1 := math.Sqrt(v1x*v1x + v1y*v1y + v1z*v1z)
	mag2 := math.Sqrt(v2x*v2x + v2y*v2y + v2z*v2z)

	if mag1 < 1e-10 || mag2 < 1e-10 {
		return 0
	}

	cos := (v1x*v2x + v1y*v2y + v1z*v2z) / (mag1 * mag2)

	// Clamp against floating point drift before acos
	if cos > 1.0 {
		cos = 1.0
	} else if cos < -1.0 {
		cos = -1.0
	}

	return math.Acos(cos) * 180.0 / math.Pi
}

// Distance calculates the Euclidean distance between two landmarks in the
// normalized 2D image plane.
func Distance(a, b Landmark) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Distance3D calculates the Euclidean distance between two landmarks
// including the depth coordinate.
func Distance3D(a, b Landmark) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Midpoint returns the 2D midpoint of two landmarks. The visibility of the
// result is the lower of the two inputs.
func Midpoint(a, b Landmark) Landmark {
	vis := a.Visibility
	if b.Visibility < vis {
		vis = b.Visibility
	}
	return Landmark{
		X:          (a.X + b.X) / 2,
		Y:          (a.Y + b.Y) / 2,
		Z:          (a.Z + b.Z) / 2,
		Visibility: vis,
	}
}

// IsVisible reports whether the landmark's visibility confidence meets the
// threshold. A visibility exactly at the threshold counts as visible.
func IsVisible(lm Landmark, threshold float64) bool {
	return lm.Visibility >= threshold
}

// AllVisible reports whether every landmark at the given indices meets the
// visibility threshold. Indices outside the landmark set are never visible.
func AllVisible(lms *Landmarks, indices []int, threshold float64) bool {
	for _, i := range indices {
		if i < 0 || i >= NumLandmarks {
			return false
		}
		if !IsVisible(lms.Points[i], threshold) {
			return false
		}
	}
	return true
}
