// Package push maintains the long-lived WebSocket connection to the print
// server's /ws/status endpoint.
//
// A Channel moves through an explicit set of states (connecting, open,
// closed, errored) and reports every event to an EventHandler. When the
// connection drops it redials with capped exponential backoff; after
// MaxAttempts consecutive dial failures Run returns ErrGaveUp and the caller
// continues on polling alone.
//
// Incoming frames are decoded by Parse: a {"type":"system_state"} envelope
// carries a full snapshot, anything else is a log line whose prefix is mapped
// to a class by Classify.
package push
