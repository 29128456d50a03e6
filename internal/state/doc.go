// Package state provides thread-safe state management for spoolwatch.
//
// # Overview
//
// The Store is the single place where the poller, the push channel and the
// UI meet. It replaces what would otherwise be ambient globals (current
// queue, connection flag, session username, log) with one explicit value
// created at startup and passed to every writer and reader.
//
// # Writers
//
//	Poller:        Begin() -> FetchSystemState -> ApplyState / RecordError
//	Push channel:  Begin() -> ApplyState (envelope) or AppendLog (text)
//	               SetChannel on every transition
//	Auth:          SetSession / RequireLogin
//
// # Ordering
//
// Both synchronization sources deliver full snapshots, so the only hazard is
// a slow response landing after a newer one. Every fetch reserves a Ticket
// before it is issued and ApplyState drops snapshots whose ticket is older
// than the last one applied. When the server stamps snapshots with a
// sequence number the sequence takes precedence, because it reflects server
// order rather than request order. ApplyState reports drops to its caller,
// which counts them in the stale_snapshots metric.
//
// # Readers
//
// Snapshot returns a deep copy, so the UI can render without holding a lock.
// Changes delivers a coalesced notification after any update; the UI waits
// on it instead of re-rendering on a timer.
//
// # Error Semantics
//
// RecordError keeps the previous data and increments ConsecutiveFailures.
// After two failures in a row, with the push channel not open, the derived
// ConnectionStatus reports offline.
package state
