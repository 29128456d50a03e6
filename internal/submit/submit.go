// Package submit implements the task submission contract: client-side file
// validation, the upload itself and the user-facing outcome.
package submit

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/five82/spoolwatch/internal/spooler"
)

// Outcome messages.
const (
	MsgSending      = "Sending..."
	MsgAdded        = "Task added!"
	MsgConnectError = "Error connecting"
	msgUnknownError = "Unknown error"
)

// DefaultExtensions is the allow-list used when none is configured.
var DefaultExtensions = []string{".pdf"}

// LegacyExtensions is the broader list accepted by older servers.
var LegacyExtensions = []string{".pdf", ".docx", ".jpg", ".jpeg", ".png"}

// ErrNoFile is returned when no file was chosen.
var ErrNoFile = errors.New("no file selected")

// ExtensionError reports a file whose extension is not allowed.
type ExtensionError struct {
	File    string
	Allowed []string
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("file %q: extension not in %s", e.File, strings.Join(e.Allowed, ", "))
}

// PriorityError reports a priority that is not an integer.
type PriorityError struct {
	Value string
}

func (e *PriorityError) Error() string {
	return fmt.Sprintf("priority %q is not an integer", e.Value)
}

// Message returns the inline text shown for a validation error.
func Message(err error) string {
	var extErr *ExtensionError
	var prioErr *PriorityError
	switch {
	case errors.Is(err, ErrNoFile):
		return "Please select a file"
	case errors.As(err, &extErr):
		return fmt.Sprintf("Only %s files are allowed", strings.Join(extErr.Allowed, ", "))
	case errors.As(err, &prioErr):
		return "Priority must be a whole number"
	case err != nil:
		return err.Error()
	default:
		return ""
	}
}

// Form is what the user typed into the submission form.
type Form struct {
	Username string
	Priority string
	FilePath string
}

// Validate checks the form without contacting the server. The extension
// check looks only at the final extension, case-insensitively.
func Validate(form Form, allow []string) (spooler.TaskRequest, error) {
	path := strings.TrimSpace(form.FilePath)
	if path == "" {
		return spooler.TaskRequest{}, ErrNoFile
	}
	if len(allow) == 0 {
		allow = DefaultExtensions
	}
	if !extensionAllowed(path, allow) {
		return spooler.TaskRequest{}, &ExtensionError{File: filepath.Base(path), Allowed: allow}
	}

	priority := 0
	if raw := strings.TrimSpace(form.Priority); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return spooler.TaskRequest{}, &PriorityError{Value: raw}
		}
		priority = p
	}

	return spooler.TaskRequest{
		Username: strings.TrimSpace(form.Username),
		Priority: priority,
		File:     path,
	}, nil
}

func extensionAllowed(path string, allow []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, a := range allow {
		if strings.EqualFold(ext, a) {
			return true
		}
	}
	return false
}
