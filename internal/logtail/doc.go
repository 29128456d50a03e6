// Package logtail holds the bounded event log shown under the queue.
//
// Push-channel log lines and connection notices are appended to a Buffer, a
// fixed-size ring that evicts the oldest line once full. Lines returns the
// retained lines in arrival order so the log view can render them top to
// bottom and scroll to the newest entry.
//
// Buffer is safe for concurrent use. Total counts every line ever appended,
// which lets the view tell whether anything new arrived since the last frame
// even when the ring length stays constant.
package logtail
