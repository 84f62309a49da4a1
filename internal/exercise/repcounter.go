package exercise

import "math"

// Level is a qualitative score bucket.
type Level string

const (
	LevelExcellent Level = "excellent"
	LevelGood      Level = "good"
	LevelFair      Level = "fair"
	LevelPoor      Level = "poor"
)

// LevelFor maps a 0-100 score to its qualitative level.
func LevelFor(score int) Level {
	switch {
	case score >= 90:
		return LevelExcellent
	case score >= 75:
		return LevelGood
	case score >= 50:
		return LevelFair
	default:
		return LevelPoor
	}
}

// IssueCount is a deduplicated issue with its occurrence count within a rep.
// The first occurrence's message and severity are kept.
type IssueCount struct {
	Issue Issue `json:"issue"`
	Count int   `json:"count"`
}

// RepSummary describes one completed repetition.
type RepSummary struct {
	RepNumber int          `json:"rep_number"`
	StartMs   int64        `json:"start_ms"`
	EndMs     int64        `json:"end_ms"`
	Score     int          `json:"score"`
	Level     Level        `json:"level"`
	Issues    []IssueCount `json:"issues,omitempty"`
}

// RepCounter accumulates per-frame scores and issues between rep boundaries
// and turns them into RepSummary values on rep-completing transitions. The
// count never decreases; reps with implausible durations are discarded as
// instrumentation noise without incrementing it.
type RepCounter struct {
	minRepMs int64
	maxRepMs int64

	count   int
	scores  []int
	issues  []Issue
	startMs int64
	started bool
}

// NewRepCounter creates a RepCounter with the given valid rep duration
// bounds in milliseconds. Non-positive bounds fall back to the defaults.
func NewRepCounter(minRepMs, maxRepMs int64) *RepCounter {
	if minRepMs <= 0 {
		minRepMs = DefaultMinRepMs
	}
	if maxRepMs <= 0 {
		maxRepMs = DefaultMaxRepMs
	}
	return &RepCounter{minRepMs: minRepMs, maxRepMs: maxRepMs}
}

// Count returns the number of valid completed reps.
func (c *RepCounter) Count() int {
	return c.count
}

// AddFrame records one frame's score and issues toward the current rep.
func (c *RepCounter) AddFrame(score int, issues []Issue, tsMs int64) {
	if !c.started {
		c.startMs = tsMs
		c.started = true
	}
	c.scores = append(c.scores, score)
	c.issues = append(c.issues, issues...)
}

// CompleteRep closes the current rep at nowMs. Reps shorter than the minimum
// or longer than the maximum duration are discarded: the accumulator is
// cleared and no summary is produced. Otherwise the rep's score is the mean
// of the accumulated frame scores (0 with no frames) and its issues are
// deduplicated by type, first occurrence winning, with counts preserved.
func (c *RepCounter) CompleteRep(nowMs int64) (*RepSummary, bool) {
	startMs := c.startMs
	if !c.started {
		startMs = nowMs
	}
	duration := nowMs - startMs

	if duration < c.minRepMs || duration > c.maxRepMs {
		c.clear()
		return nil, false
	}

	score := 0
	if len(c.scores) > 0 {
		sum := 0
		for _, s := range c.scores {
			sum += s
		}
		score = int(math.Round(float64(sum) / float64(len(c.scores))))
	}

	c.count++
	summary := &RepSummary{
		RepNumber: c.count,
		StartMs:   startMs,
		EndMs:     nowMs,
		Score:     score,
		Level:     LevelFor(score),
		Issues:    dedupeIssues(c.issues),
	}

	c.clear()
	return summary, true
}

// Reset clears the count and the accumulator. Call between sessions.
func (c *RepCounter) Reset() {
	c.count = 0
	c.clear()
}

func (c *RepCounter) clear() {
	c.scores = c.scores[:0]
	c.issues = c.issues[:0]
	c.started = false
	c.startMs = 0
}

// dedupeIssues collapses issues by type, keeping the first occurrence and
// counting the rest.
func dedupeIssues(issues []Issue) []IssueCount {
	if len(issues) == 0 {
		return nil
	}

	index := make(map[string]int, len(issues))
	var out []IssueCount
	for _, is := range issues {
		if i, ok := index[is.Type]; ok {
			out[i].Count++
			continue
		}
		index[is.Type] = len(out)
		out = append(out, IssueCount{Issue: is, Count: 1})
	}
	return out
}
