package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/formcoach/internal/app"
	"github.com/ayusman/formcoach/internal/exercise"
	"github.com/ayusman/formcoach/internal/pose"
	"github.com/ayusman/formcoach/internal/server"
	"github.com/ayusman/formcoach/internal/session"
	"github.com/ayusman/formcoach/internal/store"
)

func TestE2E_WorkoutLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data.db")

	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	application := app.New(app.Config{
		Store:        s,
		MotionThresh: 0.05,
	})
	application.SetDetector(pose.NewMockDetector())

	srv := server.New(server.Config{Store: s, Workout: application})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	var sessionID string

	t.Run("StartWorkout", func(t *testing.T) {
		resp, err := client.Post(
			ts.URL+"/api/workout/start",
			"application/json",
			strings.NewReader(`{"exercise": "squat", "user_id": "athlete-1"}`),
		)
		if err != nil {
			t.Fatalf("start workout error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}

		var startResp struct {
			SessionID string `json:"session_id"`
		}
		json.NewDecoder(resp.Body).Decode(&startResp)
		if startResp.SessionID == "" {
			t.Fatal("expected a session id")
		}
		sessionID = startResp.SessionID
	})

	t.Run("SecondStartConflicts", func(t *testing.T) {
		resp, err := client.Post(
			ts.URL+"/api/workout/start",
			"application/json",
			strings.NewReader(`{"exercise": "pushup", "user_id": "athlete-1"}`),
		)
		if err != nil {
			t.Fatalf("start workout error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
		}
	})

	t.Run("Status", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/workout/status")
		if err != nil {
			t.Fatalf("status error = %v", err)
		}
		defer resp.Body.Close()

		var status server.WorkoutStatus
		json.NewDecoder(resp.Body).Decode(&status)

		if !status.Active {
			t.Error("expected an active session")
		}
		if status.SessionID != sessionID {
			t.Errorf("session id = %s, want %s", status.SessionID, sessionID)
		}
		if status.Exercise != "squat" {
			t.Errorf("exercise = %s, want squat", status.Exercise)
		}
	})

	t.Run("EndWorkout", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/workout/end", "application/json", nil)
		if err != nil {
			t.Fatalf("end workout error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	t.Run("SessionPersisted", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions?user=athlete-1")
		if err != nil {
			t.Fatalf("list sessions error = %v", err)
		}
		defer resp.Body.Close()

		var listResp struct {
			Sessions []*session.Record `json:"sessions"`
		}
		json.NewDecoder(resp.Body).Decode(&listResp)

		if len(listResp.Sessions) != 1 {
			t.Fatalf("expected 1 session, got %d", len(listResp.Sessions))
		}
		if listResp.Sessions[0].ID != sessionID {
			t.Errorf("session id = %s, want %s", listResp.Sessions[0].ID, sessionID)
		}
		if listResp.Sessions[0].TotalReps != 0 {
			t.Errorf("reps = %d, want 0 for an empty session", listResp.Sessions[0].TotalReps)
		}
	})

	t.Run("APIStillWorks", func(t *testing.T) {
		resp, _ := client.Get(ts.URL + "/api/health")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health check failed after workout operations")
		}
		resp.Body.Close()
	})
}

func TestE2E_SquatSessionRecordedAndServed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	cfg, err := exercise.ConfigFor(exercise.TypeSquat)
	if err != nil {
		t.Fatalf("ConfigFor() error = %v", err)
	}
	eval, err := exercise.NewEvaluator(cfg)
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}

	rec := session.NewRecorder("athlete-1", eval, s.Sessions())

	// One full squat: stand, descend, hold the bottom, ascend, stand. Frames
	// every 40ms so each phase outlasts the dwell window and the rep outlasts
	// the minimum duration.
	standing := pose.StandingPose()
	bottom := pose.SquatBottomPose()
	blends := []float64{
		0, 0, 0, 0,
		0.6, 0.6, 0.6,
		1.0, 1.0, 1.0,
		0.6, 0.6, 0.6,
		0, 0, 0,
	}
	for i, b := range blends {
		frame := &pose.Frame{
			Landmarks:   *pose.Blend(&standing, &bottom, b),
			TimestampMs: int64(i) * 40,
		}
		fr := eval.Evaluate(frame)
		if err := rec.RecordFrame(fr); err != nil {
			t.Fatalf("RecordFrame() error = %v", err)
		}
	}

	record, err := rec.EndSession()
	if err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}
	if record.TotalReps != 1 {
		t.Fatalf("TotalReps = %d, want 1", record.TotalReps)
	}

	srv := server.New(server.Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	resp, err := client.Get(ts.URL + "/api/sessions/" + record.ID)
	if err != nil {
		t.Fatalf("get session error = %v", err)
	}

	var got session.Record
	json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()

	if got.ID != record.ID {
		t.Errorf("id = %s, want %s", got.ID, record.ID)
	}
	if got.ExerciseType != exercise.TypeSquat {
		t.Errorf("exercise = %s, want squat", got.ExerciseType)
	}
	if got.TotalReps != 1 {
		t.Errorf("reps = %d, want 1", got.TotalReps)
	}
	if got.TotalSets != 1 {
		t.Errorf("sets = %d, want 1", got.TotalSets)
	}
	if len(got.Sets) != 1 {
		t.Fatalf("expected 1 set in detail view, got %d", len(got.Sets))
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+record.ID, nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("delete session error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	resp, _ = client.Get(ts.URL + "/api/sessions/" + record.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}
