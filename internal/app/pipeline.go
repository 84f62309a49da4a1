package app

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/formcoach/internal/pose"
)

// runPipeline is the main loop that processes frames from the camera. It
// manages the transitions between idle and active capture rates based on
// motion detection, and drives the evaluator strictly sequentially: the
// engine is only ever fed from this goroutine.
//
// Pipeline logic:
//  1. Start in idle mode (IdleFPS)
//  2. On motion, switch to active mode (ActiveFPS)
//  3. Run pose detection and feed the frame to the active session, if any
//  4. Hand the result to the recorder and speak any feedback
//  5. After 2s without motion, switch back to idle mode
func (a *App) runPipeline() {
	activeMode := false
	lastMotionTime := time.Now()

	ticker := time.NewTicker(time.Second / IdleFPS)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				continue
			}

			if motion, _ := a.motion.Detect(frame); motion {
				lastMotionTime = time.Now()
				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					ticker.Reset(time.Second / ActiveFPS)
				}
			}

			a.processFrame(frame)
			frame.Close()

			if activeMode && time.Since(lastMotionTime) > IdleTimeoutMs*time.Millisecond {
				activeMode = false
				a.camera.SetFPS(IdleFPS)
				ticker.Reset(time.Second / IdleFPS)
			}
		}
	}
}

// processFrame runs pose detection on one camera frame and feeds the result
// to the active session. A frame with no detected person still goes through
// the evaluator: zero-visibility landmarks produce the low-confidence
// feedback that tells the user to adjust the camera.
func (a *App) processFrame(mat *gocv.Mat) {
	captured := time.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recorder == nil {
		return
	}

	landmarks, err := a.detector.Detect(mat)
	if err != nil {
		return
	}

	frame := &pose.Frame{
		TimestampMs: captured.Sub(a.sessionEpoch).Milliseconds(),
		LatencyMs:   time.Since(captured).Milliseconds(),
	}
	if landmarks != nil {
		frame.Landmarks = *landmarks
	}

	result := a.evaluator.Evaluate(frame)

	if err := a.recorder.RecordFrame(result); err != nil {
		return
	}

	if a.config.Announcer != nil && len(result.Feedback) > 0 {
		a.config.Announcer.Say(result.Feedback[0])
	}
}
