// Package metrics exposes Prometheus collectors for process launches.
//
// A nil *Collector is valid and records nothing, so callers can pass the
// result of an optional configuration straight through.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Launch results used as the "result" label.
const (
	ResultStarted = "started"
	ResultFailed  = "failed"
)

// Collector holds all procio metrics.
type Collector struct {
	// Launch metrics
	Launches *prometheus.CounterVec
	Active   prometheus.Gauge

	// Exit metrics
	Exits    *prometheus.CounterVec
	Duration prometheus.Histogram

	// Stream metrics
	StreamBytesTotal *prometheus.CounterVec
	StreamLinesTotal *prometheus.CounterVec
	IOErrors         *prometheus.CounterVec
}

// New creates and registers the collectors on reg. A nil reg uses
// prometheus.DefaultRegisterer. Calling New twice on the same registerer
// panics, as with any duplicate Prometheus registration.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collector{
		Launches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "procio_launches_total",
				Help: "Total number of process launches by result",
			},
			[]string{"result"},
		),
		Active: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "procio_active_processes",
				Help: "Number of launched processes not yet exited",
			},
		),
		Exits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "procio_exits_total",
				Help: "Total number of observed process exits by exit code",
			},
			[]string{"code"},
		),
		Duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "procio_process_duration_seconds",
				Help:    "Time from launch to observed exit in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
			},
		),
		StreamBytesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "procio_stream_bytes_total",
				Help: "Total bytes delivered to binary handlers by stream",
			},
			[]string{"stream"},
		),
		StreamLinesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "procio_stream_lines_total",
				Help: "Total lines delivered to text handlers by stream",
			},
			[]string{"stream"},
		),
		IOErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "procio_io_errors_total",
				Help: "Total I/O errors reported to handlers by source",
			},
			[]string{"source"},
		),
	}
}

// LaunchSucceeded records a started process.
func (c *Collector) LaunchSucceeded() {
	if c == nil {
		return
	}
	c.Launches.WithLabelValues(ResultStarted).Inc()
	c.Active.Inc()
}

// LaunchFailed records a process the OS refused to start.
func (c *Collector) LaunchFailed() {
	if c == nil {
		return
	}
	c.Launches.WithLabelValues(ResultFailed).Inc()
}

// Exited records an observed exit after running for elapsed.
func (c *Collector) Exited(code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Exits.WithLabelValues(strconv.Itoa(code)).Inc()
	c.Duration.Observe(elapsed.Seconds())
	c.Active.Dec()
}

// Abandoned records a process whose exit will never be observed.
func (c *Collector) Abandoned() {
	if c == nil {
		return
	}
	c.Active.Dec()
}

// StreamBytes adds n delivered bytes for stream.
func (c *Collector) StreamBytes(stream string, n int) {
	if c == nil {
		return
	}
	c.StreamBytesTotal.WithLabelValues(stream).Add(float64(n))
}

// StreamLine counts one delivered line for stream.
func (c *Collector) StreamLine(stream string) {
	if c == nil {
		return
	}
	c.StreamLinesTotal.WithLabelValues(stream).Inc()
}

// IOError counts one error reported from source (for example "launch",
// "stdout", "stderr", "stdin", "wait").
func (c *Collector) IOError(source string) {
	if c == nil {
		return
	}
	c.IOErrors.WithLabelValues(source).Inc()
}
