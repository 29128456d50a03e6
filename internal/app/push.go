package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/five82/spoolwatch/internal/logtail"
	"github.com/five82/spoolwatch/internal/push"
)

// Lines written to the event log for channel lifecycle events.
const (
	lineConnected    = "INFO: Connected to server"
	lineDisconnected = "INFO: Disconnected from server"
	linePushError    = "ERROR: Error connecting"
	lineGaveUp       = "INFO: Live updates unavailable, polling only"
)

// PushSource describes where the push channel lives.
type PushSource interface {
	PushURL() string
	PushHeader() http.Header
}

// PushOptions tune reconnect behavior.
type PushOptions struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

type pushHandler struct {
	syncer *Syncer
}

func (h pushHandler) OnOpen() {
	h.syncer.store.AppendLog(logtail.Line{Text: lineConnected, Class: push.ClassInfo})
	h.syncer.Trigger()
}

func (h pushHandler) OnMessage(msg push.Message) {
	switch msg.Kind {
	case push.KindState:
		h.syncer.metrics.RecordPush("state")
		h.syncer.apply(h.syncer.store.Begin(), msg.State)
	default:
		h.syncer.metrics.RecordPush("log")
		h.syncer.store.AppendLog(logtail.Line{Text: msg.Text, Class: msg.Class})
		if push.TriggersRefresh(msg.Class) {
			h.syncer.Trigger()
		}
	}
}

func (h pushHandler) OnClose(code websocket.StatusCode, reason string) {
	log.Printf("push channel closed: %v %s", code, reason)
	h.syncer.store.AppendLog(logtail.Line{Text: lineDisconnected, Class: push.ClassInfo})
}

func (h pushHandler) OnError(err error) {
	log.Printf("push channel error: %v", err)
	h.syncer.store.AppendLog(logtail.Line{Text: linePushError, Class: push.ClassStop})
}

// newChannel wires a push.Channel to the syncer.
func newChannel(src PushSource, syncer *Syncer, opts PushOptions) *push.Channel {
	dialed := false
	return push.New(push.Options{
		URL:         src.PushURL(),
		Header:      src.PushHeader,
		BaseDelay:   opts.BaseDelay,
		MaxDelay:    opts.MaxDelay,
		MaxAttempts: opts.MaxAttempts,
		OnStateChange: func(_, to push.State) {
			syncer.store.SetChannel(to)
			syncer.metrics.SetChannelOpen(to == push.Open)
			if to == push.Connecting {
				if dialed {
					syncer.metrics.RecordReconnect()
				}
				dialed = true
			}
		},
	}, pushHandler{syncer: syncer})
}

// StartPush runs the push channel in the background. When the reconnect
// budget runs out the dashboard keeps going on polling alone.
func StartPush(ctx context.Context, src PushSource, syncer *Syncer, opts PushOptions) {
	ch := newChannel(src, syncer, opts)
	go func() {
		err := ch.Run(ctx)
		if errors.Is(err, push.ErrGaveUp) {
			log.Printf("push channel: %v; continuing with polling", err)
			syncer.store.AppendLog(logtail.Line{Text: lineGaveUp, Class: push.ClassInfo})
		}
	}()
}
