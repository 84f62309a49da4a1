package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion tuning for a full-body workout framing: the subject stands a few
// meters back, so a rep sweeps a large share of the frame while monitor
// glow and shadows stay well below the wake threshold.
const (
	// DefaultMotionThreshold is the percent of the frame that must change
	// before the pipeline wakes into active capture.
	DefaultMotionThreshold = 2.0

	// blurKernelSize smooths out sensor noise and lighting flicker before
	// differencing (odd kernel, required by GaussianBlur).
	blurKernelSize = 21

	// diffThreshold is the per-pixel intensity delta that counts as change.
	// Lower than a typical security-camera setting so slow limb movement at
	// distance still registers.
	diffThreshold = 20
)

// MotionDetector wakes the capture pipeline when the athlete steps into
// frame or starts moving. It compares each frame against the previous one:
// grayscale, blur, absolute difference, then the fraction of pixels whose
// delta exceeds diffThreshold.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a detector that reports motion when more than
// threshold percent of the frame changed between consecutive frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame against the previous one and reports whether the
// change exceeds the threshold, along with the percent of pixels that
// changed. The first frame after construction or Reset only primes the
// baseline and never reports motion.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	kernel := image.Point{X: blurKernelSize, Y: blurKernelSize}
	gocv.GaussianBlur(gray, &blurred, kernel, 0, 0, gocv.BorderDefault)

	if !m.initialized {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, diffThreshold, 255, gocv.ThresholdBinary)

	changed := gocv.CountNonZero(mask)
	total := mask.Rows() * mask.Cols()
	changePercent := float64(changed) / float64(total) * 100.0

	blurred.CopyTo(&m.prevGray)

	return changePercent > m.threshold, changePercent
}

// SetThreshold changes the wake threshold (percent of frame). Values less
// than or equal to 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Reset drops the baseline frame so the next Detect primes a fresh one.
// Called when the camera reopens or the session framing changes.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropBaseline()
}

// Close releases the retained baseline frame. The detector is reusable
// afterwards; the next Detect re-primes it.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropBaseline()
}

func (m *MotionDetector) dropBaseline() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}
