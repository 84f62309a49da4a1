package exercise

import (
	"fmt"
	"math"
	"sort"

	"github.com/ayusman/formcoach/internal/pose"
)

// DefaultFeedbackIntervalMs is the minimum spacing between non-critical
// feedback messages.
const DefaultFeedbackIntervalMs = 3000

// FrameResult is the immutable outcome of evaluating one pose frame.
type FrameResult struct {
	TimestampMs          int64         `json:"timestamp_ms"`
	Score                int           `json:"score"`
	Phase                Phase         `json:"phase"`
	RepCount             int           `json:"rep_count"`
	HasRequiredLandmarks bool          `json:"has_required_landmarks"`
	DrivingAngle         float64       `json:"driving_angle"`
	Checks               []CheckResult `json:"checks,omitempty"`
	Issues               []Issue       `json:"issues,omitempty"`

	// CompletedRep is set when this frame's transition closed a valid rep.
	CompletedRep *RepSummary `json:"completed_rep,omitempty"`

	// Feedback carries the rate-limited messages to surface for this frame.
	Feedback []string `json:"feedback,omitempty"`
}

// SetSummary aggregates the reps between two set boundaries.
type SetSummary struct {
	SetNumber    int     `json:"set_number"`
	RepCount     int     `json:"rep_count"`
	AverageScore int     `json:"average_score"`
	CommonIssues []Issue `json:"common_issues,omitempty"`
	StartMs      int64   `json:"start_ms"`
	EndMs        int64   `json:"end_ms"`
}

// SessionSummary aggregates all completed sets of one workout session.
type SessionSummary struct {
	ExerciseType Type          `json:"exercise_type"`
	TotalReps    int           `json:"total_reps"`
	TotalSets    int           `json:"total_sets"`
	AverageScore int           `json:"average_score"`
	TopIssues    []IssueCount  `json:"top_issues,omitempty"`
	Distribution map[Level]int `json:"distribution"`
	DurationMs   int64         `json:"duration_ms"`
	Sets         []SetSummary  `json:"sets,omitempty"`
}

// TopIssueCap bounds the number of issues reported in a session summary.
const TopIssueCap = 5

// feedbackLimiter coalesces feedback so a UI or voice channel is not
// flooded. Critical issues always pass through; everything else is limited
// to one message per interval.
type feedbackLimiter struct {
	intervalMs int64
	lastMs     int64
	emitted    bool
}

func (f *feedbackLimiter) collect(issues []Issue, nowMs int64) []string {
	var out []string

	for _, is := range issues {
		if is.Severity == SeverityCritical {
			out = append(out, is.Message)
		}
	}

	if !f.emitted || nowMs-f.lastMs >= f.intervalMs {
		for _, is := range issues {
			if is.Severity == SeverityCritical {
				continue
			}
			out = append(out, is.Message)
			f.lastMs = nowMs
			f.emitted = true
			break
		}
	}

	return out
}

func (f *feedbackLimiter) reset() {
	f.lastMs = 0
	f.emitted = false
}

// Evaluator combines the form checks, phase state machine and rep counter
// for one exercise type. It is scoped to a single session and must be driven
// from a single producer; it is not safe for concurrent use.
type Evaluator struct {
	cfg      Config
	machine  *PhaseMachine
	reps     *RepCounter
	feedback feedbackLimiter

	pendingReps []RepSummary
	sets        []SetSummary

	sessionScoreSum int
	sessionRepCount int
	distribution    map[Level]int
	issueReps       map[string]IssueCount

	firstFrameMs int64
	lastFrameMs  int64
	sawFrame     bool
}

// NewEvaluator creates an evaluator for the given exercise config. Invalid
// configs (empty phase list, unregistered phases, missing driving angle)
// fail here, not mid-session.
func NewEvaluator(cfg Config) (*Evaluator, error) {
	if cfg.DrivingAngle == nil {
		return nil, fmt.Errorf("exercise %q has no driving angle", cfg.Type)
	}

	machine, err := NewPhaseMachine(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.MinVisibility <= 0 {
		cfg.MinVisibility = DefaultMinVisibility
	}

	interval := cfg.FeedbackIntervalMs
	if interval <= 0 {
		interval = DefaultFeedbackIntervalMs
	}

	return &Evaluator{
		cfg:          cfg,
		machine:      machine,
		reps:         NewRepCounter(cfg.MinRepMs, cfg.MaxRepMs),
		feedback:     feedbackLimiter{intervalMs: interval},
		distribution: make(map[Level]int),
		issueReps:    make(map[string]IssueCount),
	}, nil
}

// Type returns the exercise type this evaluator is configured for.
func (e *Evaluator) Type() Type {
	return e.cfg.Type
}

// Phase returns the current motion phase.
func (e *Evaluator) Phase() Phase {
	return e.machine.Current()
}

// RepCount returns the cumulative valid rep count for the session.
func (e *Evaluator) RepCount() int {
	return e.reps.Count()
}

// SetCount returns the number of completed sets so far.
func (e *Evaluator) SetCount() int {
	return len(e.sets)
}

// Evaluate scores one pose frame. If the required landmarks are not visible
// at the minimum confidence, it returns a zero-score result carrying a
// single critical issue and neither the state machine nor the rep counter
// advances. Otherwise it runs every configured check, accumulates the frame
// into the current rep, and feeds the driving angle to the state machine,
// which may complete a rep.
func (e *Evaluator) Evaluate(frame *pose.Frame) FrameResult {
	ts := frame.TimestampMs

	if !pose.AllVisible(&frame.Landmarks, e.cfg.RequiredLandmarks, e.cfg.MinVisibility) {
		critical := LowConfidenceIssue()
		return FrameResult{
			TimestampMs:          ts,
			Score:                0,
			Phase:                e.machine.Current(),
			RepCount:             e.reps.Count(),
			HasRequiredLandmarks: false,
			Issues:               []Issue{critical},
			Feedback:             []string{critical.Message},
		}
	}

	if !e.sawFrame {
		e.firstFrameMs = ts
		e.sawFrame = true
	}
	e.lastFrameMs = ts

	results := make([]CheckResult, 0, len(e.cfg.Checks))
	var issues []Issue
	for _, check := range e.cfg.Checks {
		r := check.Eval(&frame.Landmarks)
		results = append(results, r)
		if r.Issue != nil {
			issues = append(issues, *r.Issue)
		}
	}
	score := Score(results)

	e.reps.AddFrame(score, issues, ts)

	angle := e.cfg.DrivingAngle(&frame.Landmarks)
	_, completedRep := e.machine.Advance(angle, ts)

	var rep *RepSummary
	if completedRep {
		if summary, ok := e.reps.CompleteRep(ts); ok {
			rep = summary
			e.recordRep(*summary)
		}
	}

	return FrameResult{
		TimestampMs:          ts,
		Score:                score,
		Phase:                e.machine.Current(),
		RepCount:             e.reps.Count(),
		HasRequiredLandmarks: true,
		DrivingAngle:         angle,
		Checks:               results,
		Issues:               issues,
		CompletedRep:         rep,
		Feedback:             e.feedback.collect(issues, ts),
	}
}

func (e *Evaluator) recordRep(rep RepSummary) {
	e.pendingReps = append(e.pendingReps, rep)
	e.sessionScoreSum += rep.Score
	e.sessionRepCount++
	e.distribution[rep.Level]++
	for _, ic := range rep.Issues {
		entry, ok := e.issueReps[ic.Issue.Type]
		if !ok {
			entry = IssueCount{Issue: ic.Issue}
		}
		entry.Count++
		e.issueReps[ic.Issue.Type] = entry
	}
}

// CompleteSet finalizes the reps accumulated since the last set boundary.
// Called with zero accumulated reps it returns a zero-value summary without
// error. Common issues are those present in at least half of the set's reps.
func (e *Evaluator) CompleteSet() SetSummary {
	set := SetSummary{
		SetNumber: len(e.sets) + 1,
		RepCount:  len(e.pendingReps),
	}

	if n := len(e.pendingReps); n > 0 {
		sum := 0
		perIssue := make(map[string]int)
		firstSeen := make(map[string]Issue)
		var order []string

		for _, rep := range e.pendingReps {
			sum += rep.Score
			for _, ic := range rep.Issues {
				if _, ok := firstSeen[ic.Issue.Type]; !ok {
					firstSeen[ic.Issue.Type] = ic.Issue
					order = append(order, ic.Issue.Type)
				}
				perIssue[ic.Issue.Type]++
			}
		}

		set.AverageScore = int(math.Round(float64(sum) / float64(n)))
		set.StartMs = e.pendingReps[0].StartMs
		set.EndMs = e.pendingReps[n-1].EndMs

		for _, typ := range order {
			if perIssue[typ]*2 >= n {
				set.CommonIssues = append(set.CommonIssues, firstSeen[typ])
			}
		}
	}

	e.sets = append(e.sets, set)
	e.pendingReps = nil
	return set
}

// SessionSummary aggregates all completed sets. Any in-progress reps are
// committed as a final set first, so the call is idempotent: a second call
// without intervening events returns equal aggregates.
func (e *Evaluator) SessionSummary() SessionSummary {
	if len(e.pendingReps) > 0 {
		e.CompleteSet()
	}

	summary := SessionSummary{
		ExerciseType: e.cfg.Type,
		TotalSets:    len(e.sets),
		TotalReps:    e.sessionRepCount,
		Distribution: make(map[Level]int, len(e.distribution)),
		Sets:         append([]SetSummary(nil), e.sets...),
	}

	if e.sessionRepCount > 0 {
		summary.AverageScore = int(math.Round(float64(e.sessionScoreSum) / float64(e.sessionRepCount)))
	}
	if e.sawFrame {
		summary.DurationMs = e.lastFrameMs - e.firstFrameMs
	}

	for level, n := range e.distribution {
		summary.Distribution[level] = n
	}

	top := make([]IssueCount, 0, len(e.issueReps))
	for _, ic := range e.issueReps {
		top = append(top, ic)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Issue.Type < top[j].Issue.Type
	})
	if len(top) > TopIssueCap {
		top = top[:TopIssueCap]
	}
	summary.TopIssues = top

	return summary
}

// Reset returns the evaluator to its initial state for a new session.
func (e *Evaluator) Reset() {
	e.machine.Reset()
	e.reps.Reset()
	e.feedback.reset()
	e.pendingReps = nil
	e.sets = nil
	e.sessionScoreSum = 0
	e.sessionRepCount = 0
	e.distribution = make(map[Level]int)
	e.issueReps = make(map[string]IssueCount)
	e.firstFrameMs = 0
	e.lastFrameMs = 0
	e.sawFrame = false
}
