package spooler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultServer {
		t.Fatalf("host = %q, want %q", u.Host, defaultServer)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	u, err = parseBaseURL("wss://print.example.com")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" {
		t.Fatalf("scheme = %q, want https", u.Scheme)
	}

	if _, err := parseBaseURL("ftp://example.com"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestClient_PushURLFollowsScheme(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"127.0.0.1:8000", "ws://127.0.0.1:8000/ws/status"},
		{"http://host:9000/ignored", "ws://host:9000/ws/status"},
		{"https://print.example.com", "wss://print.example.com/ws/status"},
	}
	for _, tt := range tests {
		c, err := NewClient(tt.server, "")
		if err != nil {
			t.Fatalf("NewClient(%q) returned error: %v", tt.server, err)
		}
		if got := c.PushURL(); got != tt.want {
			t.Fatalf("PushURL(%q) = %q, want %q", tt.server, got, tt.want)
		}
	}
}

func TestClient_FetchSystemState(t *testing.T) {
	t.Parallel()

	var gotUserAgent, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/system-state/" {
			http.NotFound(w, r)
			return
		}
		gotUserAgent = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"queue_length": 2,
			"queue_tasks": [{"name":"a.pdf","user":"ann","pages":3,"priority":1},{"name":"b.pdf","user":"bob","pages":1,"priority":0}],
			"printer_status": "printing",
			"printer_available": true,
			"current_task": {"name":"c.pdf","user":"cat","pages":7,"priority":2},
			"seq": 11
		}`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	state, err := c.FetchSystemState(ctx)
	if err != nil {
		t.Fatalf("FetchSystemState returned error: %v", err)
	}
	if state.QueueLength != 2 || len(state.QueueTasks) != 2 {
		t.Fatalf("queue = %d/%d, want 2/2", state.QueueLength, len(state.QueueTasks))
	}
	if state.QueueTasks[0].Name != "a.pdf" || state.QueueTasks[1].User != "bob" {
		t.Fatalf("queue order lost: %#v", state.QueueTasks)
	}
	if !state.IsPrinting() || state.CurrentTask.Pages != 7 {
		t.Fatalf("current task = %#v, want printing c.pdf", state.CurrentTask)
	}
	if state.Seq != 11 {
		t.Fatalf("seq = %d, want 11", state.Seq)
	}
	if gotUserAgent != defaultUserAgent {
		t.Fatalf("User-Agent = %q, want %q", gotUserAgent, defaultUserAgent)
	}
	if gotRequestID == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestClient_SubmitTaskMultipart(t *testing.T) {
	t.Parallel()

	type received struct {
		username, priority, filename string
		content                      []byte
	}
	got := make(chan received, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		got <- received{r.FormValue("username"), r.FormValue("priority"), header.Filename, content}
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	}))
	t.Cleanup(server.Close)

	path := filepath.Join(t.TempDir(), "report.PDF")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if err := c.SubmitTask(context.Background(), TaskRequest{Username: "ann", Priority: 3, File: path}); err != nil {
		t.Fatalf("SubmitTask returned error: %v", err)
	}

	r := <-got
	if r.username != "ann" || r.priority != "3" {
		t.Fatalf("fields = %q/%q, want ann/3", r.username, r.priority)
	}
	if r.filename != "report.PDF" || string(r.content) != "%PDF-1.4" {
		t.Fatalf("file = %q %q", r.filename, r.content)
	}
}

func TestClient_SubmitTaskJSONWithoutFile(t *testing.T) {
	t.Parallel()

	var body map[string]any
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{}`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	req := TaskRequest{Username: "bob", Priority: 1, Name: "memo", Pages: 4}
	if err := c.SubmitTask(context.Background(), req); err != nil {
		t.Fatalf("SubmitTask returned error: %v", err)
	}
	if contentType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", contentType)
	}
	if body["username"] != "bob" || body["name"] != "memo" || body["pages"] != float64(4) || body["priority"] != float64(1) {
		t.Fatalf("body = %#v", body)
	}
}

func TestClient_ErrorResponses(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/system-state/":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Not authenticated"}`)
		case "/tasks/":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"Printer is offline"}`)
		case "/api/login":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, `{"detail":[{"loc":["body","password"],"msg":"field required"}]}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	if _, err := c.FetchSystemState(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("FetchSystemState error = %v, want ErrUnauthorized", err)
	}

	err = c.SubmitTask(ctx, TaskRequest{Username: "ann", Name: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("SubmitTask error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest || ServerMessage(err) != "Printer is offline" {
		t.Fatalf("APIError = %#v", apiErr)
	}
	if IsTransport(err) {
		t.Fatal("server rejection reported as transport failure")
	}

	err = c.Login(ctx, "ann", "")
	if ServerMessage(err) != "" {
		t.Fatalf("list detail should not yield a message, got %q", ServerMessage(err))
	}

	if _, err := c.CheckAuth(ctx); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := NewClient(url, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.FetchSystemState(context.Background())
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if !IsTransport(err) {
		t.Fatalf("IsTransport(%v) = false, want true", err)
	}
}

func TestSystemState_CloneIsIndependent(t *testing.T) {
	orig := SystemState{
		QueueTasks:  []TaskSummary{{Name: "a"}},
		CurrentTask: &TaskSummary{Name: "b"},
	}
	dup := orig.Clone()
	dup.QueueTasks[0].Name = "changed"
	dup.CurrentTask.Name = "changed"
	if orig.QueueTasks[0].Name != "a" || orig.CurrentTask.Name != "b" {
		t.Fatalf("Clone shares memory: %#v", orig)
	}
}

func TestSystemState_IsPrinting(t *testing.T) {
	task := &TaskSummary{Name: "a"}
	tests := []struct {
		name  string
		state SystemState
		want  bool
	}{
		{"printing", SystemState{PrinterAvailable: true, PrinterStatus: "printing", CurrentTask: task}, true},
		{"case insensitive", SystemState{PrinterAvailable: true, PrinterStatus: "Printing", CurrentTask: task}, true},
		{"no task", SystemState{PrinterAvailable: true, PrinterStatus: "printing"}, false},
		{"unavailable", SystemState{PrinterStatus: "printing", CurrentTask: task}, false},
		{"idle", SystemState{PrinterAvailable: true, PrinterStatus: "idle", CurrentTask: task}, false},
	}
	for _, tt := range tests {
		if got := tt.state.IsPrinting(); got != tt.want {
			t.Fatalf("%s: IsPrinting = %v, want %v", tt.name, got, tt.want)
		}
	}
}
