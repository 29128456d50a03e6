package spooltest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/five82/spoolwatch/internal/spooler"
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()

	// Drain client frames so control messages are processed and a closed
	// peer is noticed.
	go func() {
		defer s.forget(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) forget(conn *websocket.Conn) {
	s.connsMu.Lock()
	if _, ok := s.conns[conn]; ok {
		delete(s.conns, conn)
		_ = conn.Close()
	}
	s.connsMu.Unlock()
}

// Broadcast sends a text frame to every connected push client.
func (s *Server) Broadcast(text string) {
	s.send(websocket.TextMessage, []byte(text))
}

// BroadcastState sends the current system state as a system_state envelope.
func (s *Server) BroadcastState() {
	state := s.State()
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	payload, err := json.Marshal(spooler.Envelope{Type: spooler.EnvelopeSystemState, Data: data})
	if err != nil {
		return
	}
	s.send(websocket.TextMessage, payload)
}

func (s *Server) send(kind int, payload []byte) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := conn.WriteMessage(kind, payload); err != nil {
			delete(s.conns, conn)
			_ = conn.Close()
		}
	}
}

// PushClients returns the number of open push connections.
func (s *Server) PushClients() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return len(s.conns)
}

// WaitForPushClients polls until at least n push clients are connected or
// timeout elapses.
func (s *Server) WaitForPushClients(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.PushClients() >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return s.PushClients() >= n
}

// DropPushClients closes every push connection with a going-away frame.
func (s *Server) DropPushClients() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
		delete(s.conns, conn)
	}
}
