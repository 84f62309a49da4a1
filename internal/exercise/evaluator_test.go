package exercise

import (
	"testing"

	"github.com/ayusman/formcoach/internal/pose"
)

func newSquatEvaluator(t *testing.T) *Evaluator {
	t.Helper()

	cfg, err := ConfigFor(TypeSquat)
	if err != nil {
		t.Fatalf("ConfigFor() error = %v", err)
	}
	eval, err := NewEvaluator(cfg)
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	return eval
}

// squatRep feeds one full squat cycle into the evaluator, starting at startMs
// with frames stepMs apart, and returns the frame results. With a 40ms step
// every phase outlasts the dwell window and the rep outlasts the minimum
// duration; with a 35ms step the rep is too fast to count.
func squatRep(eval *Evaluator, startMs, stepMs int64) []FrameResult {
	standing := pose.StandingPose()
	bottom := pose.SquatBottomPose()
	blends := []float64{
		0, 0, 0, 0,
		0.6, 0.6, 0.6,
		1.0, 1.0, 1.0,
		0.6, 0.6, 0.6,
		0, 0, 0,
	}

	var results []FrameResult
	for i, b := range blends {
		frame := &pose.Frame{
			Landmarks:   *pose.Blend(&standing, &bottom, b),
			TimestampMs: startMs + int64(i)*stepMs,
		}
		results = append(results, eval.Evaluate(frame))
	}
	return results
}

func TestNewEvaluator_Validation(t *testing.T) {
	cfg, _ := ConfigFor(TypeSquat)
	cfg.DrivingAngle = nil
	if _, err := NewEvaluator(cfg); err == nil {
		t.Error("NewEvaluator() accepted a config without a driving angle")
	}

	cfg, _ = ConfigFor(TypeSquat)
	cfg.Phases = nil
	if _, err := NewEvaluator(cfg); err == nil {
		t.Error("NewEvaluator() accepted a config without phases")
	}
}

func TestEvaluator_LowConfidenceFrame(t *testing.T) {
	eval := newSquatEvaluator(t)

	hidden := pose.HiddenPose()
	fr := eval.Evaluate(&pose.Frame{Landmarks: hidden, TimestampMs: 0})

	if fr.HasRequiredLandmarks {
		t.Error("HasRequiredLandmarks = true for a hidden pose")
	}
	if fr.Score != 0 {
		t.Errorf("Score = %d, want 0", fr.Score)
	}
	if len(fr.Issues) != 1 || fr.Issues[0].Type != IssueLowConfidence {
		t.Fatalf("issues = %v, want exactly one low_confidence", fr.Issues)
	}
	if len(fr.Feedback) != 1 {
		t.Errorf("feedback = %v, want the critical message", fr.Feedback)
	}
	if fr.Phase != "standing" {
		t.Errorf("phase = %s, hidden frame must not advance the machine", fr.Phase)
	}

	// Confidence gaps never affect the rep count.
	if fr.RepCount != 0 {
		t.Errorf("RepCount = %d, want 0", fr.RepCount)
	}
}

func TestEvaluator_SquatRep(t *testing.T) {
	eval := newSquatEvaluator(t)

	results := squatRep(eval, 0, 40)

	last := results[len(results)-1]
	if last.RepCount != 1 {
		t.Fatalf("RepCount = %d, want 1", last.RepCount)
	}

	// The phase trace must pass through the full cycle in order.
	wantPhases := []Phase{"standing", "descending", "bottom", "ascending", "standing"}
	var trace []Phase
	for _, fr := range results {
		if len(trace) == 0 || trace[len(trace)-1] != fr.Phase {
			trace = append(trace, fr.Phase)
		}
	}
	if len(trace) != len(wantPhases) {
		t.Fatalf("phase trace = %v, want %v", trace, wantPhases)
	}
	for i := range trace {
		if trace[i] != wantPhases[i] {
			t.Fatalf("phase trace = %v, want %v", trace, wantPhases)
		}
	}

	// Exactly one frame carries the completed rep.
	var rep *RepSummary
	for _, fr := range results {
		if fr.CompletedRep != nil {
			if rep != nil {
				t.Fatal("more than one frame carried a completed rep")
			}
			rep = fr.CompletedRep
		}
	}
	if rep == nil {
		t.Fatal("no frame carried the completed rep")
	}
	if rep.RepNumber != 1 {
		t.Errorf("RepNumber = %d, want 1", rep.RepNumber)
	}
	if rep.Score != 100 {
		t.Errorf("rep score = %d, want 100 for a clean preset squat", rep.Score)
	}
	if rep.Level != LevelExcellent {
		t.Errorf("rep level = %s, want excellent", rep.Level)
	}
}

func TestEvaluator_TooFastRepRejected(t *testing.T) {
	eval := newSquatEvaluator(t)

	// 35ms steps complete the cycle in under the minimum rep duration.
	results := squatRep(eval, 0, 35)

	last := results[len(results)-1]
	if last.RepCount != 0 {
		t.Errorf("RepCount = %d, want 0 for a too-fast rep", last.RepCount)
	}
	for _, fr := range results {
		if fr.CompletedRep != nil {
			t.Error("a rejected rep produced a summary")
		}
	}
}

func TestEvaluator_CompleteSetWithZeroReps(t *testing.T) {
	eval := newSquatEvaluator(t)

	set := eval.CompleteSet()
	if set.SetNumber != 1 {
		t.Errorf("SetNumber = %d, want 1", set.SetNumber)
	}
	if set.RepCount != 0 || set.AverageScore != 0 {
		t.Errorf("empty set = %+v, want zero reps and score", set)
	}
	if eval.SetCount() != 1 {
		t.Errorf("SetCount() = %d, want 1", eval.SetCount())
	}
}

func TestEvaluator_CompleteSetCommonIssues(t *testing.T) {
	eval := newSquatEvaluator(t)

	back := Issue{Type: IssueBackRounded, Message: "Keep your chest up and your back straight", Severity: SeverityWarning}
	sym := Issue{Type: IssueKneeAsymmetry, Message: "Keep your weight even on both legs", Severity: SeverityInfo}

	// Three reps: the back issue appears in two (common), the symmetry issue
	// in one (not common).
	eval.recordRep(RepSummary{RepNumber: 1, StartMs: 0, EndMs: 600, Score: 75, Level: LevelGood,
		Issues: []IssueCount{{Issue: back, Count: 3}}})
	eval.recordRep(RepSummary{RepNumber: 2, StartMs: 700, EndMs: 1300, Score: 75, Level: LevelGood,
		Issues: []IssueCount{{Issue: back, Count: 1}, {Issue: sym, Count: 1}}})
	eval.recordRep(RepSummary{RepNumber: 3, StartMs: 1400, EndMs: 2000, Score: 100, Level: LevelExcellent})

	set := eval.CompleteSet()
	if set.RepCount != 3 {
		t.Fatalf("RepCount = %d, want 3", set.RepCount)
	}
	if set.AverageScore != 83 {
		t.Errorf("AverageScore = %d, want 83", set.AverageScore)
	}
	if set.StartMs != 0 || set.EndMs != 2000 {
		t.Errorf("bounds = [%d, %d], want [0, 2000]", set.StartMs, set.EndMs)
	}
	if len(set.CommonIssues) != 1 || set.CommonIssues[0].Type != IssueBackRounded {
		t.Errorf("CommonIssues = %v, want only back_rounded", set.CommonIssues)
	}
}

func TestEvaluator_SessionSummary(t *testing.T) {
	eval := newSquatEvaluator(t)

	squatRep(eval, 0, 40)
	eval.CompleteSet()
	squatRep(eval, 1000, 40)

	summary := eval.SessionSummary()

	// The second rep was still pending; it becomes a final set.
	if summary.TotalSets != 2 {
		t.Errorf("TotalSets = %d, want 2", summary.TotalSets)
	}
	if summary.TotalReps != 2 {
		t.Errorf("TotalReps = %d, want 2", summary.TotalReps)
	}
	if summary.AverageScore != 100 {
		t.Errorf("AverageScore = %d, want 100", summary.AverageScore)
	}
	if summary.Distribution[LevelExcellent] != 2 {
		t.Errorf("Distribution = %v, want 2 excellent reps", summary.Distribution)
	}
	if summary.ExerciseType != TypeSquat {
		t.Errorf("ExerciseType = %s, want squat", summary.ExerciseType)
	}

	// A second call without intervening events returns equal aggregates.
	again := eval.SessionSummary()
	if again.TotalSets != summary.TotalSets || again.TotalReps != summary.TotalReps ||
		again.AverageScore != summary.AverageScore {
		t.Errorf("second SessionSummary() = %+v, want %+v", again, summary)
	}
}

func TestEvaluator_TopIssuesSortedAndCapped(t *testing.T) {
	eval := newSquatEvaluator(t)

	issueTypes := []string{"a", "b", "c", "d", "e", "f"}
	for i, typ := range issueTypes {
		// Issue "a" appears in 6 reps, "b" in 5, and so on down to 1.
		for n := 0; n < len(issueTypes)-i; n++ {
			eval.recordRep(RepSummary{Score: 80, Level: LevelGood,
				Issues: []IssueCount{{Issue: Issue{Type: typ}, Count: 1}}})
		}
	}

	summary := eval.SessionSummary()
	if len(summary.TopIssues) != TopIssueCap {
		t.Fatalf("TopIssues length = %d, want %d", len(summary.TopIssues), TopIssueCap)
	}
	if summary.TopIssues[0].Issue.Type != "a" || summary.TopIssues[0].Count != 6 {
		t.Errorf("top issue = %s x%d, want a x6", summary.TopIssues[0].Issue.Type, summary.TopIssues[0].Count)
	}
	for i := 1; i < len(summary.TopIssues); i++ {
		if summary.TopIssues[i].Count > summary.TopIssues[i-1].Count {
			t.Error("TopIssues not sorted by descending count")
		}
	}
}

func TestEvaluator_Reset(t *testing.T) {
	eval := newSquatEvaluator(t)

	squatRep(eval, 0, 40)
	eval.Reset()

	if eval.RepCount() != 0 {
		t.Errorf("RepCount() = %d, want 0 after Reset", eval.RepCount())
	}
	if eval.Phase() != "standing" {
		t.Errorf("Phase() = %s, want standing after Reset", eval.Phase())
	}

	summary := eval.SessionSummary()
	if summary.TotalReps != 0 || summary.TotalSets != 0 {
		t.Errorf("summary after Reset = %+v, want empty", summary)
	}
}

func TestFeedbackLimiter(t *testing.T) {
	limiter := feedbackLimiter{intervalMs: 3000}

	critical := Issue{Type: IssueLowConfidence, Message: "critical", Severity: SeverityCritical}
	warning := Issue{Type: IssueBackRounded, Message: "warning", Severity: SeverityWarning}
	info := Issue{Type: IssueKneeAsymmetry, Message: "info", Severity: SeverityInfo}

	// First frame: the critical passes and one non-critical is allowed.
	out := limiter.collect([]Issue{critical, warning, info}, 0)
	if len(out) != 2 {
		t.Fatalf("first collect = %v, want critical plus one non-critical", out)
	}
	if out[0] != "critical" || out[1] != "warning" {
		t.Errorf("first collect = %v, want [critical warning]", out)
	}

	// Inside the interval only criticals pass.
	out = limiter.collect([]Issue{critical, warning}, 1000)
	if len(out) != 1 || out[0] != "critical" {
		t.Errorf("collect inside interval = %v, want only the critical", out)
	}
	out = limiter.collect([]Issue{warning}, 2000)
	if len(out) != 0 {
		t.Errorf("collect inside interval = %v, want none", out)
	}

	// After the interval a non-critical passes again.
	out = limiter.collect([]Issue{warning}, 3000)
	if len(out) != 1 || out[0] != "warning" {
		t.Errorf("collect after interval = %v, want the warning", out)
	}
}
