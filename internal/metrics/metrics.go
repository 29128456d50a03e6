// Package metrics exposes client-side Prometheus metrics: poll results, push
// traffic, stale snapshots dropped by the store, reconnects and submission
// outcomes.
//
// Every Collector owns its own registry so several can coexist in one
// process (tests, multiple dashboards). All methods are safe on a nil
// *Collector, which records nothing.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll results.
const (
	PollOK           = "ok"
	PollError        = "error"
	PollUnauthorized = "unauthorized"
)

// Collector holds the spoolwatch metrics.
type Collector struct {
	registry *prometheus.Registry

	polls        *prometheus.CounterVec
	pushMessages *prometheus.CounterVec
	submissions  *prometheus.CounterVec
	staleDropped prometheus.Counter
	reconnects   prometheus.Counter

	queueLength prometheus.Gauge
	channelOpen prometheus.Gauge
}

// NewCollector creates and registers all metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spoolwatch_polls_total",
			Help: "System state fetches by result",
		}, []string{"result"}),
		pushMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spoolwatch_push_messages_total",
			Help: "Push channel frames by kind",
		}, []string{"kind"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spoolwatch_submissions_total",
			Help: "Task submissions by outcome",
		}, []string{"outcome"}),
		staleDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spoolwatch_stale_snapshots_total",
			Help: "Snapshots discarded because a newer one was already applied",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spoolwatch_push_reconnects_total",
			Help: "Push channel dial attempts after the first",
		}),
		queueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spoolwatch_queue_length",
			Help: "Queue length in the last applied snapshot",
		}),
		channelOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spoolwatch_push_channel_open",
			Help: "1 while the push channel is open",
		}),
	}
	c.registry.MustRegister(
		c.polls,
		c.pushMessages,
		c.submissions,
		c.staleDropped,
		c.reconnects,
		c.queueLength,
		c.channelOpen,
	)
	return c
}

// RecordPoll counts one state fetch.
func (c *Collector) RecordPoll(result string) {
	if c == nil {
		return
	}
	c.polls.WithLabelValues(result).Inc()
}

// RecordPush counts one push frame.
func (c *Collector) RecordPush(kind string) {
	if c == nil {
		return
	}
	c.pushMessages.WithLabelValues(kind).Inc()
}

// RecordSubmission counts one submission attempt.
func (c *Collector) RecordSubmission(outcome string) {
	if c == nil {
		return
	}
	c.submissions.WithLabelValues(outcome).Inc()
}

// RecordStale counts a discarded snapshot.
func (c *Collector) RecordStale() {
	if c == nil {
		return
	}
	c.staleDropped.Inc()
}

// RecordReconnect counts a redial.
func (c *Collector) RecordReconnect() {
	if c == nil {
		return
	}
	c.reconnects.Inc()
}

// SetQueueLength records the current queue length.
func (c *Collector) SetQueueLength(n int) {
	if c == nil {
		return
	}
	c.queueLength.Set(float64(n))
}

// SetChannelOpen records push channel connectivity.
func (c *Collector) SetChannelOpen(open bool) {
	if c == nil {
		return
	}
	if open {
		c.channelOpen.Set(1)
		return
	}
	c.channelOpen.Set(0)
}

// Handler serves the collector's registry in Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}
	return c.serve(ctx, ln)
}

func (c *Collector) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
