package websocket

import (
	"sync"

	"github.com/rs/zerolog"
)

// Hub tracks live student sockets so server-side events (forced
// auto-submits from the sweep worker) can reach connected clients.
// A student has at most one live socket thanks to single-device login;
// registering a second connection closes the first. All writes go
// through Conn's mutex, so hub pushes are safe against the read loop's
// own responses.
type Hub struct {
	mu    sync.RWMutex
	conns map[int]*Conn
	log   zerolog.Logger
}

// NewHub creates a new Hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		conns: make(map[int]*Conn),
		log:   log.With().Str("component", "ws_hub").Logger(),
	}
}

// Register tracks a student's socket, displacing any previous one.
func (h *Hub) Register(studentID int, conn *Conn) {
	h.mu.Lock()
	prev := h.conns[studentID]
	h.conns[studentID] = conn
	h.mu.Unlock()

	if prev != nil && prev != conn {
		prev.Close()
	}
}

// Unregister drops the socket if it is still the student's current one.
func (h *Hub) Unregister(studentID int, conn *Conn) {
	h.mu.Lock()
	if h.conns[studentID] == conn {
		delete(h.conns, studentID)
	}
	h.mu.Unlock()
}

// NotifyAutoSubmitted pushes an exam:autoSubmitted event to the
// student if they are connected. A miss is fine: the client learns the
// attempt state from the status endpoint on its next load.
func (h *Hub) NotifyAutoSubmitted(studentID int, examID string) {
	h.mu.RLock()
	conn := h.conns[studentID]
	h.mu.RUnlock()

	if conn == nil {
		return
	}

	if err := conn.WriteTyped(AutoSubmittedEvent{Event: EventAutoSubmitted, ExamID: examID}); err != nil {
		h.log.Debug().Err(err).Int("student_id", studentID).Msg("Auto-submit notify failed")
	}
}
