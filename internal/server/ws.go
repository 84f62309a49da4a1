package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ayusman/formcoach/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LiveHandler broadcasts recorder events (frame results, completed reps and
// sets, session end) to WebSocket clients for the live coaching view. It is
// subscribed to each session's recorder via Notify.
type LiveHandler struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler() *LiveHandler {
	return &LiveHandler{
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// liveMessage is the wire shape of one broadcast event.
type liveMessage struct {
	Type   session.EventType `json:"type"`
	Frame  interface{}       `json:"frame,omitempty"`
	Rep    interface{}       `json:"rep,omitempty"`
	Set    interface{}       `json:"set,omitempty"`
	Record interface{}       `json:"record,omitempty"`
}

// Notify implements session.Listener: it fans the event out to all connected
// clients. Slow or broken clients only lose their own messages.
func (h *LiveHandler) Notify(ev session.Event) {
	h.mu.RLock()
	n := len(h.clients)
	h.mu.RUnlock()
	if n == 0 {
		return
	}

	m := liveMessage{Type: ev.Type}
	switch ev.Type {
	case session.EventFrameRecorded:
		m.Frame = ev.Frame
	case session.EventRepCompleted:
		m.Rep = ev.Rep
	case session.EventSetCompleted:
		m.Set = ev.Set
	case session.EventSessionEnded:
		m.Record = ev.Record
	}

	msg, err := json.Marshal(m)
	if err != nil {
		log.Printf("websocket marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		conn.WriteMessage(websocket.TextMessage, msg)
	}
}
