package spooler

import (
	"encoding/json"
	"strings"
)

// PrinterStatusPrinting is the printer_status value reported while a job runs.
const PrinterStatusPrinting = "printing"

// SystemState mirrors the payload returned by /system-state/ and carried in
// system_state push envelopes.
type SystemState struct {
	QueueLength      int           `json:"queue_length"`
	QueueTasks       []TaskSummary `json:"queue_tasks"`
	PrinterStatus    string        `json:"printer_status"`
	PrinterAvailable bool          `json:"printer_available"`
	CurrentTask      *TaskSummary  `json:"current_task"`
	// Seq is an optional server-assigned sequence number. Zero means the
	// server did not attach one.
	Seq uint64 `json:"seq,omitempty"`
}

// TaskSummary describes a queued or running print job.
type TaskSummary struct {
	Name     string `json:"name"`
	User     string `json:"user"`
	Pages    int    `json:"pages"`
	Priority int    `json:"priority"`
}

// IsPrinting reports whether the printer is available and working on a task.
func (s SystemState) IsPrinting() bool {
	return s.PrinterAvailable &&
		strings.EqualFold(strings.TrimSpace(s.PrinterStatus), PrinterStatusPrinting) &&
		s.CurrentTask != nil
}

// Clone returns a deep copy so callers never share task slices.
func (s SystemState) Clone() SystemState {
	dup := s
	if len(s.QueueTasks) > 0 {
		dup.QueueTasks = make([]TaskSummary, len(s.QueueTasks))
		copy(dup.QueueTasks, s.QueueTasks)
	} else {
		dup.QueueTasks = nil
	}
	if s.CurrentTask != nil {
		task := *s.CurrentTask
		dup.CurrentTask = &task
	}
	return dup
}

// SessionInfo mirrors /api/check-auth.
type SessionInfo struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

// TaskRequest is a new print job about to be POSTed to /tasks/.
type TaskRequest struct {
	Username string
	Priority int
	// File is a local path. When empty the request is sent as a JSON body
	// using Name and Pages instead of a multipart upload.
	File  string
	Name  string
	Pages int
}

// Envelope is a structured push message.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EnvelopeSystemState marks an Envelope whose Data is a SystemState.
const EnvelopeSystemState = "system_state"

// errorBody covers both {"error": "..."} and {"detail": "..."} responses.
// Validation failures carry a list in detail, which is ignored.
type errorBody struct {
	Error  string          `json:"error"`
	Detail json.RawMessage `json:"detail"`
}
