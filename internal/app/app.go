// Package app wires the FormCoach detection pipeline: camera frames flow
// through the pose detector into the per-session evaluator and recorder.
package app

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ayusman/formcoach/internal/capture"
	"github.com/ayusman/formcoach/internal/exercise"
	"github.com/ayusman/formcoach/internal/pose"
	"github.com/ayusman/formcoach/internal/session"
	"github.com/ayusman/formcoach/internal/store"
	"github.com/ayusman/formcoach/internal/voice"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while no session is running or no motion is seen.
	IdleFPS = 5
	// ActiveFPS is the frame rate during an active session.
	ActiveFPS = 30
	// IdleTimeoutMs is the time in milliseconds without motion before
	// dropping back to the idle rate.
	IdleTimeoutMs = 2000
)

// ErrSessionActive is returned when starting a session while one is running.
var ErrSessionActive = errors.New("a session is already active")

// ErrNoSession is returned by session operations when no session is running.
var ErrNoSession = errors.New("no active session")

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	CameraID     int
	MotionThresh float64

	// Evaluation overrides; zero values keep the engine defaults.
	MinVisibility      float64
	FeedbackIntervalMs int64
	DwellMs            int64
	FlushThreshold     int

	// Announcer speaks coaching feedback when set.
	Announcer *voice.Announcer
}

// App owns the camera, the pose detector, and the currently active workout
// session, if any.
type App struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector pose.Detector

	mu        sync.RWMutex
	enabled   bool
	stopCh    chan struct{}
	listeners []session.Listener

	evaluator    *exercise.Evaluator
	recorder     *session.Recorder
	sessionEpoch time.Time
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = capture.DefaultMotionThreshold
	}

	a := &App{
		config:  config,
		camera:  capture.NewCamera(config.CameraID),
		motion:  capture.NewMotionDetector(motionThreshold),
		enabled: true,
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := pose.NewMediaPipeDetector(pose.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe pose detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = pose.NewMockDetector()
	}

	return a
}

// SetEnabled enables or disables pose tracking.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether pose tracking is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the pose detector implementation to use.
func (a *App) SetDetector(d pose.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// AddListener registers a listener that will be subscribed to every
// session's recorder.
func (a *App) AddListener(l session.Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, l)
}

// StartSession begins a workout session for the given exercise type and
// user. Only one session can run at a time.
func (a *App) StartSession(exerciseType, userID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recorder != nil {
		return "", ErrSessionActive
	}

	cfg, err := exercise.ConfigFor(exercise.Type(exerciseType))
	if err != nil {
		return "", err
	}

	if a.config.MinVisibility > 0 {
		cfg.MinVisibility = a.config.MinVisibility
	}
	if a.config.FeedbackIntervalMs > 0 {
		cfg.FeedbackIntervalMs = a.config.FeedbackIntervalMs
	}
	if a.config.DwellMs > 0 {
		cfg.DwellMs = a.config.DwellMs
	}

	eval, err := exercise.NewEvaluator(cfg)
	if err != nil {
		return "", err
	}

	var repo session.Repository
	if a.config.Store != nil {
		repo = a.config.Store.Sessions()
	}

	rec := session.NewRecorder(userID, eval, repo,
		session.WithFlushThreshold(a.config.FlushThreshold))
	for _, l := range a.listeners {
		rec.Subscribe(l)
	}

	a.evaluator = eval
	a.recorder = rec
	a.sessionEpoch = time.Now()
	a.camera.SetFPS(ActiveFPS)

	log.Printf("session %s started: %s for user %s", rec.ID(), exerciseType, userID)
	return rec.ID(), nil
}

// CompleteSet closes the current set of the active session.
func (a *App) CompleteSet() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recorder == nil {
		return ErrNoSession
	}

	_, err := a.recorder.CompleteSet()
	return err
}

// EndSession finalizes the active session and persists its record. The
// session ends even if persistence fails; the error is returned for logging.
func (a *App) EndSession() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recorder == nil {
		return ErrNoSession
	}

	record, err := a.recorder.EndSession()
	if record != nil {
		log.Printf("session %s ended: %d reps, %d sets, avg score %d",
			record.ID, record.TotalReps, record.TotalSets, record.AverageScore)
	}

	a.evaluator = nil
	a.recorder = nil
	a.camera.SetFPS(IdleFPS)

	return err
}

// CancelSession discards the active session without persisting it.
func (a *App) CancelSession() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recorder == nil {
		return ErrNoSession
	}

	a.recorder.CancelSession()
	a.evaluator = nil
	a.recorder = nil
	a.camera.SetFPS(IdleFPS)

	log.Println("session cancelled")
	return nil
}

// Status reports the active session, if any.
func (a *App) Status() (active bool, sessionID, exerciseType string, repCount, setCount int) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.recorder == nil {
		return false, "", "", 0, 0
	}

	return true, a.recorder.ID(), string(a.evaluator.Type()),
		a.evaluator.RepCount(), a.evaluator.SetCount()
}

// Start begins the detection pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	// Open the camera
	if err := a.camera.Open(); err != nil {
		return err
	}

	// Set initial FPS to idle mode
	a.camera.SetFPS(IdleFPS)

	// Create stop channel and start the pipeline
	a.stopCh = make(chan struct{})
	go a.runPipeline()

	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the detection pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Signal the pipeline to stop
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	// Close the camera
	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	// Close motion detector
	a.motion.Close()

	// Close the pose detector if set
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Detection pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// Detector returns the pose detector.
func (a *App) Detector() pose.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}
