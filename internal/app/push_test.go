package app

import (
	"context"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/five82/spoolwatch/internal/logtail"
	"github.com/five82/spoolwatch/internal/push"
	"github.com/five82/spoolwatch/internal/spooltest"
	"github.com/five82/spoolwatch/internal/state"
)

func hasLine(lines []logtail.Line, text string) bool {
	for _, l := range lines {
		if l.Text == text {
			return true
		}
	}
	return false
}

func TestPushHandlerLogLines(t *testing.T) {
	tests := []struct {
		raw     string
		class   string
		trigger bool
	}{
		{raw: "NEW: New task added a.pdf by ann", class: push.ClassNew, trigger: true},
		{raw: "START: printing a.pdf", class: push.ClassStart, trigger: true},
		{raw: "END: a.pdf done", class: push.ClassEnd, trigger: true},
		{raw: "ABORT: a.pdf aborted", class: push.ClassAbort, trigger: true},
		{raw: "STOP: printer stopped", class: push.ClassStop, trigger: true},
		{raw: "INFO: heartbeat", class: push.ClassInfo, trigger: false},
		{raw: "plain text", class: push.ClassInfo, trigger: false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			syncer := NewSyncer(&blockingFetcher{}, state.NewStore(10), nil)
			pushHandler{syncer: syncer}.OnMessage(push.Parse([]byte(tt.raw)))

			lines := syncer.Store().Snapshot().Logs
			if len(lines) != 1 || lines[0].Text != tt.raw || lines[0].Class != tt.class {
				t.Fatalf("logs = %+v", lines)
			}
			if got := len(syncer.requests) == 1; got != tt.trigger {
				t.Fatalf("triggered = %v, want %v", got, tt.trigger)
			}
		})
	}
}

func TestPushHandlerLifecycleLines(t *testing.T) {
	syncer := NewSyncer(&blockingFetcher{}, state.NewStore(10), nil)
	h := pushHandler{syncer: syncer}

	h.OnOpen()
	if len(syncer.requests) != 1 {
		t.Fatalf("open did not trigger a refresh")
	}
	h.OnError(context.DeadlineExceeded)
	h.OnClose(websocket.StatusGoingAway, "bye")

	lines := syncer.Store().Snapshot().Logs
	for _, want := range []string{lineConnected, linePushError, lineDisconnected} {
		if !hasLine(lines, want) {
			t.Fatalf("log missing %q: %+v", want, lines)
		}
	}
}

func TestStartPushEndToEnd(t *testing.T) {
	srv := spooltest.New(t, spooltest.WithoutAuth())
	syncer, client := newTestSyncer(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncer.StartRefresher(ctx)
	StartPush(ctx, client, syncer, PushOptions{BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond})

	if !srv.WaitForPushClients(1, 3*time.Second) {
		t.Fatalf("push channel never connected")
	}
	waitFor(t, func() bool { return syncer.Store().Snapshot().Channel == push.Open })
	// The connect line triggers a refresh.
	waitFor(t, func() bool { return syncer.Store().Snapshot().HasState })

	srv.Broadcast("END: job-1 finished")
	waitFor(t, func() bool { return hasLine(syncer.Store().Snapshot().Logs, "END: job-1 finished") })

	srv.DropPushClients()
	waitFor(t, func() bool { return hasLine(syncer.Store().Snapshot().Logs, lineDisconnected) })
	if !srv.WaitForPushClients(1, 3*time.Second) {
		t.Fatalf("push channel did not reconnect")
	}
}

func TestStartPushGivesUpToPolling(t *testing.T) {
	srv := spooltest.New(t, spooltest.WithoutAuth())
	syncer, client := newTestSyncer(t, srv)
	srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartPush(ctx, client, syncer, PushOptions{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, MaxAttempts: 2})

	waitFor(t, func() bool { return hasLine(syncer.Store().Snapshot().Logs, lineGaveUp) })
}
