package session

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/formcoach/internal/exercise"
)

// DefaultFlushThreshold is the number of retained frame results after a
// flush; the buffer flushes when it holds twice this many (about one minute
// of detail at 30 fps before, half after).
const DefaultFlushThreshold = 900

// ErrSessionEnded is returned when recording continues after EndSession or
// CancelSession.
var ErrSessionEnded = errors.New("session already ended")

// Recorder aggregates one session's evaluation stream. It buffers recent
// frame-level detail up to a cap, keeps rep/set aggregates unconditionally,
// and hands the final Record to the repository on EndSession. A Recorder is
// scoped to exactly one session and is driven from a single producer.
type Recorder struct {
	id        string
	userID    string
	eval      *exercise.Evaluator
	repo      Repository
	listeners []Listener

	flushThreshold int
	frames         []exercise.FrameResult
	flushes        int

	startedAt time.Time
	ended     bool
	record    *Record
	now       func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithFlushThreshold overrides the retained-frame count. Values <= 0 keep
// the default.
func WithFlushThreshold(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.flushThreshold = n
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder creates a recorder for one session of the given user driven by
// the given evaluator. The repository receives the record on EndSession.
func NewRecorder(userID string, eval *exercise.Evaluator, repo Repository, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		id:             uuid.NewString(),
		userID:         userID,
		eval:           eval,
		repo:           repo,
		flushThreshold: DefaultFlushThreshold,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.startedAt = r.now()
	return r
}

// ID returns the session's identifier.
func (r *Recorder) ID() string {
	return r.id
}

// Subscribe registers a listener for recorder events.
func (r *Recorder) Subscribe(l Listener) {
	if l == nil {
		return
	}
	r.listeners = append(r.listeners, l)
}

// emit delivers an event to every listener, isolating panics per listener so
// one failing subscriber cannot abort frame processing or starve the rest.
func (r *Recorder) emit(ev Event) {
	for _, l := range r.listeners {
		func() {
			defer func() {
				if p := recover(); p != nil {
					log.Printf("session %s: listener panic on %s: %v", r.id, ev.Type, p)
				}
			}()
			l(ev)
		}()
	}
}

// RecordFrame buffers one frame result and notifies listeners. When the
// buffer reaches twice the flush threshold, the oldest half is evicted and a
// single dataFlushed event is emitted; rep and set aggregates are never
// dropped. Frames recorded after the session ended are ignored.
func (r *Recorder) RecordFrame(fr exercise.FrameResult) error {
	if r.ended {
		return ErrSessionEnded
	}

	r.frames = append(r.frames, fr)
	if len(r.frames) >= 2*r.flushThreshold {
		flushed := len(r.frames) - r.flushThreshold
		r.frames = append(r.frames[:0:0], r.frames[flushed:]...)
		r.flushes++
		r.emit(Event{Type: EventDataFlushed, FlushedFrames: flushed})
	}

	r.emit(Event{Type: EventFrameRecorded, Frame: &fr})

	if fr.CompletedRep != nil {
		r.emit(Event{Type: EventRepCompleted, Rep: fr.CompletedRep})
	}

	return nil
}

// CompleteSet closes the current set on the evaluator and notifies
// listeners.
func (r *Recorder) CompleteSet() (exercise.SetSummary, error) {
	if r.ended {
		return exercise.SetSummary{}, ErrSessionEnded
	}

	set := r.eval.CompleteSet()
	r.emit(Event{Type: EventSetCompleted, Set: &set})
	return set, nil
}

// Frames returns the currently buffered frame-level detail, oldest first.
func (r *Recorder) Frames() []exercise.FrameResult {
	return r.frames
}

// Flushes returns how many times frame detail has been evicted.
func (r *Recorder) Flushes() int {
	return r.flushes
}

// EndSession finalizes the session: any open set is completed, the Record is
// built and saved through the repository, and listeners are notified. The
// record is returned even when the save fails, with the save error alongside
// it. A second call returns the already-built record without saving again.
func (r *Recorder) EndSession() (*Record, error) {
	if r.ended {
		if r.record == nil {
			return nil, ErrSessionEnded
		}
		return r.record, nil
	}
	r.ended = true

	summary := r.eval.SessionSummary()
	endedAt := r.now()

	record := &Record{
		ID:           r.id,
		UserID:       r.userID,
		ExerciseType: summary.ExerciseType,
		StartedAt:    r.startedAt,
		EndedAt:      endedAt,
		DurationMs:   endedAt.Sub(r.startedAt).Milliseconds(),
		TotalReps:    summary.TotalReps,
		TotalSets:    summary.TotalSets,
		AverageScore: summary.AverageScore,
		TopIssues:    summary.TopIssues,
		Distribution: summary.Distribution,
		Sets:         summary.Sets,
	}
	r.record = record

	var saveErr error
	if r.repo != nil {
		saveErr = r.repo.SaveSession(record)
	}

	r.emit(Event{Type: EventSessionEnded, Record: record})
	r.frames = nil

	return record, saveErr
}

// CancelSession discards all recorded state without persisting anything.
func (r *Recorder) CancelSession() {
	if r.ended {
		return
	}
	r.ended = true
	r.frames = nil
	r.eval.Reset()
}
