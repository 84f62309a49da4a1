package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/formcoach/internal/exercise"
	"github.com/ayusman/formcoach/internal/session"
)

func dialLive(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLiveHandler_BroadcastsRepEvent(t *testing.T) {
	live := NewLiveHandler()
	ts := httptest.NewServer(live)
	defer ts.Close()

	conn := dialLive(t, ts)

	// Give the server loop a moment to register the client.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		live.mu.RLock()
		n := len(live.clients)
		live.mu.RUnlock()
		if n == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	rep := &exercise.RepSummary{RepNumber: 2, Score: 85, Level: exercise.LevelGood}
	live.Notify(session.Event{Type: session.EventRepCompleted, Rep: rep})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message error = %v", err)
	}

	var got struct {
		Type session.EventType    `json:"type"`
		Rep  *exercise.RepSummary `json:"rep"`
	}
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}

	if got.Type != session.EventRepCompleted {
		t.Errorf("type = %s, want %s", got.Type, session.EventRepCompleted)
	}
	if got.Rep == nil || got.Rep.RepNumber != 2 || got.Rep.Score != 85 {
		t.Errorf("rep = %+v, want rep 2 with score 85", got.Rep)
	}
}

func TestLiveHandler_NotifyWithoutClients(t *testing.T) {
	live := NewLiveHandler()

	// Must not block or panic with nobody connected.
	live.Notify(session.Event{Type: session.EventFrameRecorded, Frame: &exercise.FrameResult{}})
}
