// Package session provides the per-session recorder that aggregates
// evaluation results, notifies listeners, and hands completed sessions to a
// repository for persistence.
package session

import (
	"time"

	"github.com/ayusman/formcoach/internal/exercise"
)

// EventType identifies a recorder notification.
type EventType string

const (
	EventFrameRecorded EventType = "frameRecorded"
	EventRepCompleted  EventType = "repCompleted"
	EventSetCompleted  EventType = "setCompleted"
	EventSessionEnded  EventType = "sessionEnded"
	EventDataFlushed   EventType = "dataFlushed"
)

// Event is delivered synchronously to listeners during recording. Only the
// field matching the event type is set. Delivery is best-effort; a panicking
// listener is recovered and logged without affecting the others.
type Event struct {
	Type   EventType
	Frame  *exercise.FrameResult
	Rep    *exercise.RepSummary
	Set    *exercise.SetSummary
	Record *Record

	// FlushedFrames is the number of frame results evicted on a dataFlushed
	// event.
	FlushedFrames int
}

// Listener receives recorder events.
type Listener func(Event)

// Record is the persistable outcome of one workout session.
type Record struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id"`
	ExerciseType exercise.Type          `json:"exercise_type"`
	StartedAt    time.Time              `json:"started_at"`
	EndedAt      time.Time              `json:"ended_at"`
	DurationMs   int64                  `json:"duration_ms"`
	TotalReps    int                    `json:"total_reps"`
	TotalSets    int                    `json:"total_sets"`
	AverageScore int                    `json:"average_score"`
	TopIssues    []exercise.IssueCount  `json:"top_issues,omitempty"`
	Distribution map[exercise.Level]int `json:"distribution"`
	Sets         []exercise.SetSummary  `json:"sets,omitempty"`
}

// Repository persists completed session records. Implementations live
// outside the engine; the recorder calls SaveSession exactly once per ended
// session.
type Repository interface {
	SaveSession(record *Record) error
	GetSession(id string) (*Record, error)
	GetUserSessions(userID string, limit int, cursor string) ([]*Record, string, error)
	DeleteSession(id string) error
}
