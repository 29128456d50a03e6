package push

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// ErrGaveUp is returned by Run after MaxAttempts consecutive dial failures.
var ErrGaveUp = errors.New("push channel gave up reconnecting")

const (
	defaultBaseDelay = time.Second
	defaultReadLimit = 1 << 20
	dialTimeout      = 10 * time.Second
)

// EventHandler receives channel events. Calls are made from the goroutine
// running Run, one at a time.
type EventHandler interface {
	OnOpen()
	OnMessage(Message)
	OnClose(code websocket.StatusCode, reason string)
	OnError(error)
}

// Options configure a Channel.
type Options struct {
	URL string
	// Header is called before every dial so a refreshed session cookie is
	// picked up on reconnect.
	Header      func() http.Header
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int // consecutive dial failures before giving up; 0 = never
	// OnStateChange, when set, observes every transition.
	OnStateChange func(from, to State)
}

// Channel is a reconnecting push connection.
type Channel struct {
	opts    Options
	handler EventHandler

	mu    sync.Mutex
	state State
}

// New returns a Channel in the Closed state. Call Run to connect.
func New(opts Options, handler EventHandler) *Channel {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	return &Channel{opts: opts, handler: handler, state: Closed}
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) transition(to State) error {
	c.mu.Lock()
	from := c.state
	if from == to {
		c.mu.Unlock()
		return nil
	}
	if !CanTransition(from, to) {
		c.mu.Unlock()
		return fmt.Errorf("illegal push transition %s -> %s", from, to)
	}
	c.state = to
	c.mu.Unlock()
	if c.opts.OnStateChange != nil {
		c.opts.OnStateChange(from, to)
	}
	return nil
}

func (c *Channel) moveTo(to State) {
	if err := c.transition(to); err != nil {
		log.Printf("%v", err)
	}
}

// Run connects and keeps the channel alive until ctx is cancelled or the
// reconnect budget is exhausted.
func (c *Channel) Run(ctx context.Context) error {
	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			c.moveTo(Closed)
			return err
		}

		c.moveTo(Connecting)
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.moveTo(Closed)
				return ctx.Err()
			}
			c.moveTo(Errored)
			c.handler.OnError(err)
			failures++
			if c.opts.MaxAttempts > 0 && failures >= c.opts.MaxAttempts {
				c.moveTo(Closed)
				return ErrGaveUp
			}
		} else {
			failures = 0
			c.moveTo(Open)
			c.handler.OnOpen()
			c.serve(ctx, conn)
		}

		if err := c.wait(ctx, c.delay(failures)); err != nil {
			c.moveTo(Closed)
			return err
		}
	}
}

func (c *Channel) delay(failures int) time.Duration {
	d := calculateBackoff(failures, c.opts.BaseDelay)
	if c.opts.MaxDelay > 0 && d > c.opts.MaxDelay {
		d = c.opts.MaxDelay
	}
	return d
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	var header http.Header
	if c.opts.Header != nil {
		header = c.opts.Header()
	}
	conn, resp, err := websocket.Dial(dialCtx, c.opts.URL, &websocket.DialOptions{HTTPHeader: header})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}
	conn.SetReadLimit(defaultReadLimit)
	return conn, nil
}

// serve reads frames until the connection ends, then reports how it ended.
func (c *Channel) serve(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err == nil {
			c.handler.OnMessage(Parse(data))
			continue
		}

		if ctx.Err() != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "client shutdown")
			c.moveTo(Closed)
			c.handler.OnClose(websocket.StatusNormalClosure, "client shutdown")
			return
		}

		var closeErr websocket.CloseError
		if errors.As(err, &closeErr) {
			c.moveTo(Closed)
			c.handler.OnClose(closeErr.Code, closeErr.Reason)
			return
		}

		_ = conn.CloseNow()
		c.moveTo(Errored)
		c.handler.OnError(err)
		c.moveTo(Closed)
		c.handler.OnClose(websocket.StatusAbnormalClosure, "")
		return
	}
}

func (c *Channel) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
