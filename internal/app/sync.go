package app

import (
	"context"
	"errors"
	"log"

	"github.com/five82/spoolwatch/internal/metrics"
	"github.com/five82/spoolwatch/internal/spooler"
	"github.com/five82/spoolwatch/internal/state"
)

// StateFetcher is the part of the spooler client the syncer polls.
type StateFetcher interface {
	FetchSystemState(ctx context.Context) (*spooler.SystemState, error)
}

// Syncer funnels both synchronization sources into the store.
type Syncer struct {
	client  StateFetcher
	store   *state.Store
	metrics *metrics.Collector

	requests chan struct{}
}

// NewSyncer builds a Syncer. m may be nil.
func NewSyncer(client StateFetcher, store *state.Store, m *metrics.Collector) *Syncer {
	return &Syncer{
		client:   client,
		store:    store,
		metrics:  m,
		requests: make(chan struct{}, 1),
	}
}

// Store returns the store the syncer writes to.
func (s *Syncer) Store() *state.Store { return s.store }

// Refresh fetches the full state and applies it unless a newer snapshot
// landed while the request was in flight. A 401 flags the store for login
// unless the request predates the current session.
func (s *Syncer) Refresh(ctx context.Context) error {
	ticket := s.store.Begin()
	snapshot, err := s.client.FetchSystemState(ctx)
	if err != nil {
		if errors.Is(err, spooler.ErrUnauthorized) {
			s.metrics.RecordPoll(metrics.PollUnauthorized)
			if !s.store.RequireLoginFor(ticket) {
				log.Printf("ignoring 401 from a poll issued before login")
			}
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		s.metrics.RecordPoll(metrics.PollError)
		s.store.RecordError(err)
		log.Printf("state poll failed: %v", err)
		return err
	}
	s.metrics.RecordPoll(metrics.PollOK)
	s.apply(ticket, snapshot)
	return nil
}

func (s *Syncer) apply(ticket state.Ticket, snapshot *spooler.SystemState) bool {
	if !s.store.ApplyState(ticket, snapshot) {
		s.metrics.RecordStale()
		return false
	}
	s.metrics.SetQueueLength(snapshot.QueueLength)
	return true
}

// Trigger requests an out-of-band refresh. Requests made while one is
// pending collapse into it.
func (s *Syncer) Trigger() {
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

// StartRefresher serves Trigger requests until ctx is cancelled.
func (s *Syncer) StartRefresher(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.requests:
				_ = s.Refresh(ctx)
			}
		}
	}()
}
