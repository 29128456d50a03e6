// Package spooltest provides an in-process print server for tests.
//
// The fake implements the HTTP and WebSocket contract spoolwatch depends on:
// session login backed by bcrypt password hashes, the system-state snapshot,
// task creation (multipart or JSON), and a /ws/status push hub that
// broadcasts log lines and system_state envelopes.
package spooltest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/spoolwatch/internal/spooler"
)

// SessionCookie is the cookie name the fake server issues on login.
const SessionCookie = "session_token"

// Submission records a task the fake server accepted.
type Submission struct {
	Username    string
	Priority    int
	FileName    string
	FileContent []byte
	JSON        bool
}

type forcedResponse struct {
	status int
	body   string
}

// Server is a fake print server listening on a loopback address.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	users       map[string][]byte
	sessions    map[string]string
	state       spooler.SystemState
	requireAuth bool
	submissions []Submission
	forced      map[string]forcedResponse
	requests    map[string]int

	upgrader websocket.Upgrader
	connsMu  sync.Mutex
	conns    map[*websocket.Conn]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithoutAuth disables the session requirement on state and task endpoints,
// matching the earliest server variant.
func WithoutAuth() Option {
	return func(s *Server) { s.requireAuth = false }
}

// WithUser registers a login.
func WithUser(username, password string) Option {
	return func(s *Server) { s.AddUser(username, password) }
}

// WithState seeds the system state.
func WithState(state spooler.SystemState) Option {
	return func(s *Server) { s.state = state.Clone() }
}

// New starts a fake server and registers its shutdown with t.Cleanup.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s := &Server{
		users:       make(map[string][]byte),
		sessions:    make(map[string]string),
		requireAuth: true,
		forced:      make(map[string]forcedResponse),
		requests:    make(map[string]int),
		conns:       make(map[*websocket.Conn]struct{}),
		state:       spooler.SystemState{PrinterAvailable: true, PrinterStatus: "idle"},
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	for _, opt := range opts {
		opt(s)
	}

	router := mux.NewRouter()
	router.HandleFunc("/system-state/", s.handleSystemState).Methods(http.MethodGet)
	router.HandleFunc("/tasks/", s.handleCreateTask).Methods(http.MethodPost)
	router.HandleFunc("/api/check-auth", s.handleCheckAuth).Methods(http.MethodGet)
	router.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	router.HandleFunc("/api/logout", s.handleLogout).Methods(http.MethodPost)
	router.HandleFunc("/ws/status", s.handleWebSocket)
	router.Use(s.countRequests)

	s.Server = httptest.NewServer(router)
	t.Cleanup(s.Close)
	return s
}

// Close disconnects push clients and stops the listener.
func (s *Server) Close() {
	s.DropPushClients()
	s.Server.Close()
}

// AddUser registers username with a bcrypt hash of password.
func (s *Server) AddUser(username, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("spooltest: hash password: %v", err))
	}
	s.mu.Lock()
	s.users[username] = hash
	s.mu.Unlock()
}

// SetState replaces the system state without notifying push clients.
func (s *Server) SetState(state spooler.SystemState) {
	s.mu.Lock()
	s.state = state.Clone()
	s.mu.Unlock()
}

// State returns a copy of the current system state.
func (s *Server) State() spooler.SystemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Submissions returns the tasks accepted so far.
func (s *Server) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Submission, len(s.submissions))
	copy(out, s.submissions)
	return out
}

// Requests returns how many requests reached path.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// Force makes every following request to path answer with status and body
// until Unforce is called.
func (s *Server) Force(path string, status int, body string) {
	s.mu.Lock()
	s.forced[path] = forcedResponse{status: status, body: body}
	s.mu.Unlock()
}

// Unforce restores normal handling of path.
func (s *Server) Unforce(path string) {
	s.mu.Lock()
	delete(s.forced, path)
	s.mu.Unlock()
}

// ExpireSessions invalidates every issued session token.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	s.sessions = make(map[string]string)
	s.mu.Unlock()
}

// PushURL returns the ws:// address of the push hub.
func (s *Server) PushURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws/status"
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		forced, ok := s.forced[r.URL.Path]
		s.mu.Unlock()
		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(forced.status)
			_, _ = w.Write([]byte(forced.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) currentUser(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[cookie.Value]
}

func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if !s.requireAuth || s.currentUser(r) != "" {
		return true
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
	return false
}

func (s *Server) handleSystemState(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	sub, err := parseSubmission(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	name := sub.FileName
	if name == "" {
		name = "job-" + strconv.Itoa(len(s.Submissions())+1)
	}
	s.mu.Lock()
	s.submissions = append(s.submissions, sub)
	s.state.QueueTasks = append(s.state.QueueTasks, spooler.TaskSummary{
		Name: name, User: sub.Username, Pages: 1, Priority: sub.Priority,
	})
	s.state.QueueLength = len(s.state.QueueTasks)
	s.mu.Unlock()

	s.Broadcast(fmt.Sprintf("NEW: New task added %s by %s", name, sub.Username))
	s.BroadcastState()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task successfully added.", "task_id": name})
}

func parseSubmission(r *http.Request) (Submission, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Username string `json:"username"`
			Name     string `json:"name"`
			Pages    int    `json:"pages"`
			Priority int    `json:"priority"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return Submission{}, fmt.Errorf("invalid body: %v", err)
		}
		if body.Username == "" {
			return Submission{}, fmt.Errorf("username is required")
		}
		return Submission{Username: body.Username, Priority: body.Priority, FileName: body.Name, JSON: true}, nil
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return Submission{}, fmt.Errorf("invalid form: %v", err)
	}
	sub := Submission{Username: r.FormValue("username")}
	if sub.Username == "" {
		return Submission{}, fmt.Errorf("username is required")
	}
	priority, err := strconv.Atoi(r.FormValue("priority"))
	if err != nil {
		return Submission{}, fmt.Errorf("priority must be an integer")
	}
	sub.Priority = priority
	file, header, err := r.FormFile("file")
	if err != nil {
		return Submission{}, fmt.Errorf("file is required")
	}
	defer file.Close()
	sub.FileName = filepath.Base(header.Filename)
	content, err := io.ReadAll(file)
	if err != nil {
		return Submission{}, fmt.Errorf("read file: %v", err)
	}
	sub.FileContent = content
	return sub, nil
}

func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	if user := s.currentUser(r); user != "" {
		writeJSON(w, http.StatusOK, spooler.SessionInfo{Authenticated: true, Username: user})
		return
	}
	writeJSON(w, http.StatusOK, spooler.SessionInfo{Authenticated: false})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Invalid form"})
		return
	}
	username := r.FormValue("username")
	password := r.FormValue("password")

	s.mu.Lock()
	hash, ok := s.users[username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid username or password"})
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = username
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
