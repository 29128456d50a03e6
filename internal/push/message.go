package push

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/five82/spoolwatch/internal/spooler"
)

// Log line classes.
const (
	ClassNew   = "new"
	ClassStart = "start"
	ClassEnd   = "end"
	ClassAbort = "abort"
	ClassStop  = "stop"
	ClassInfo  = "info"
)

var prefixClasses = map[string]string{
	"NEW":   ClassNew,
	"START": ClassStart,
	"END":   ClassEnd,
	"ABORT": ClassAbort,
	"STOP":  ClassStop,
	"INFO":  ClassInfo,
}

// Kind distinguishes log lines from state snapshots.
type Kind int

const (
	KindLog Kind = iota
	KindState
)

// Message is one decoded push frame.
type Message struct {
	Kind  Kind
	Text  string
	Class string
	State *spooler.SystemState
}

// Parse decodes a raw frame. Frames that are not a well-formed system_state
// envelope are treated as log text.
func Parse(raw []byte) Message {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env spooler.Envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Type == spooler.EnvelopeSystemState && len(env.Data) > 0 {
			var state spooler.SystemState
			if err := json.Unmarshal(env.Data, &state); err == nil {
				return Message{Kind: KindState, State: &state}
			}
		}
	}
	text := strings.TrimRight(string(raw), "\r\n")
	return Message{Kind: KindLog, Text: text, Class: Classify(text)}
}

// Classify maps the prefix before the first colon to a log class. Unknown or
// missing prefixes are info.
func Classify(line string) string {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return ClassInfo
	}
	prefix := strings.ToUpper(strings.TrimSpace(line[:idx]))
	if class, ok := prefixClasses[prefix]; ok {
		return class
	}
	return ClassInfo
}

// TriggersRefresh reports whether a line of this class means the queue
// changed.
func TriggersRefresh(class string) bool {
	switch class {
	case ClassNew, ClassStart, ClassEnd, ClassAbort, ClassStop:
		return true
	default:
		return false
	}
}
