package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/spoolwatch/internal/logtail"
	"github.com/five82/spoolwatch/internal/push"
	"github.com/five82/spoolwatch/internal/spooler"
)

// ConnectionStatus is the indicator shown next to the printer status.
type ConnectionStatus int

const (
	StatusOffline ConnectionStatus = iota
	StatusOnline
	StatusPrinting
)

func (c ConnectionStatus) String() string {
	switch c {
	case StatusOnline:
		return "online"
	case StatusPrinting:
		return "printing"
	default:
		return "offline"
	}
}

// Ticket orders state applications. Reserve one with Begin before issuing a
// fetch so a slow response cannot overwrite a newer snapshot.
type Ticket uint64

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	System              spooler.SystemState
	HasState            bool
	Channel             push.State
	Session             spooler.SessionInfo
	NeedsLogin          bool
	Logs                []logtail.Line
	LogTotal            uint64
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// ConnectionStatus derives the indicator from the printer state and the push
// channel.
func (s Snapshot) ConnectionStatus() ConnectionStatus {
	switch {
	case !s.HasState || !s.System.PrinterAvailable:
		return StatusOffline
	case s.Channel != push.Open && s.IsOffline():
		return StatusOffline
	case s.System.IsPrinting():
		return StatusPrinting
	default:
		return StatusOnline
	}
}

// Store coordinates concurrent updates from the poller, the push channel and
// the UI. The zero value is ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	logs     *logtail.Buffer

	nextTicket    Ticket
	appliedTicket Ticket
	sessionTicket Ticket // last ticket issued before the session was set
	maxSeq        uint64

	changes chan struct{}
}

// NewStore returns a Store whose log keeps logCapacity lines.
func NewStore(logCapacity int) *Store {
	return &Store{logs: logtail.New(logCapacity)}
}

// Begin reserves the next ticket.
func (s *Store) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTicket++
	return s.nextTicket
}

// ApplyState replaces the system state unless it is stale. When both the
// stored and incoming snapshots carry a server sequence number the sequence
// decides; otherwise the ticket does. It reports whether the state was
// applied.
func (s *Store) ApplyState(ticket Ticket, state *spooler.SystemState) bool {
	if state == nil {
		return false
	}
	s.mu.Lock()
	if stale := s.isStale(ticket, state.Seq); stale {
		s.mu.Unlock()
		return false
	}
	if ticket > s.appliedTicket {
		s.appliedTicket = ticket
	}
	if state.Seq > s.maxSeq {
		s.maxSeq = state.Seq
	}
	s.snapshot.System = state.Clone()
	s.snapshot.HasState = true
	s.snapshot.NeedsLogin = false
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *Store) isStale(ticket Ticket, seq uint64) bool {
	if seq != 0 && s.maxSeq != 0 {
		return seq < s.maxSeq
	}
	return ticket < s.appliedTicket
}

// RecordError keeps the previous data but records a failed fetch.
func (s *Store) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures++
	s.mu.Unlock()
	s.notify()
}

// SetChannel records the push channel state.
func (s *Store) SetChannel(state push.State) {
	s.mu.Lock()
	changed := s.snapshot.Channel != state
	s.snapshot.Channel = state
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// AppendLog adds a line to the event log.
func (s *Store) AppendLog(line logtail.Line) {
	if line.At.IsZero() {
		line.At = time.Now()
	}
	s.mu.Lock()
	if s.logs == nil {
		s.logs = logtail.New(logtail.DefaultCapacity)
	}
	logs := s.logs
	s.mu.Unlock()
	logs.Append(line)
	s.notify()
}

// SetSession stores the authenticated identity.
func (s *Store) SetSession(info spooler.SessionInfo) {
	s.mu.Lock()
	s.snapshot.Session = info
	if info.Authenticated {
		s.snapshot.NeedsLogin = false
		s.sessionTicket = s.nextTicket
	}
	s.mu.Unlock()
	s.notify()
}

// RequireLogin drops the session and flags that the login view must be shown.
func (s *Store) RequireLogin() {
	s.mu.Lock()
	already := s.snapshot.NeedsLogin
	s.snapshot.Session = spooler.SessionInfo{}
	s.snapshot.NeedsLogin = true
	s.mu.Unlock()
	if !already {
		s.notify()
	}
}

// RequireLoginFor is RequireLogin for a 401 answering the fetch that reserved
// ticket. Requests issued before the current session was set carried no valid
// cookie, so their 401 is ignored. It reports whether the session was dropped.
func (s *Store) RequireLoginFor(ticket Ticket) bool {
	s.mu.Lock()
	if s.snapshot.Session.Authenticated && ticket <= s.sessionTicket {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	s.RequireLogin()
	return true
}

// Changes returns a channel that receives a value after any update. Bursts
// of updates coalesce into a single notification.
func (s *Store) Changes() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.changes == nil {
		s.changes = make(chan struct{}, 1)
	}
	return s.changes
}

func (s *Store) notify() {
	s.mu.RLock()
	ch := s.changes
	s.mu.RUnlock()
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	snap := s.snapshot
	snap.System = s.snapshot.System.Clone()
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	logs := s.logs
	s.mu.RUnlock()

	if logs != nil {
		snap.Logs = logs.Lines()
		snap.LogTotal = logs.Total()
	}
	return snap
}
