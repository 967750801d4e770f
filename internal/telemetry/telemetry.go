// Package telemetry exposes Prometheus metrics for attempts and HTTP traffic.
package telemetry

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"plank/internal/domain"
)

const namespace = "plank"

// Metrics holds the registered collectors.
type Metrics struct {
	attempts        *prometheus.CounterVec
	cameraFailures  *prometheus.CounterVec
	quotaRejections prometheus.Counter
	holdSeconds     prometheus.Histogram
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

var _ domain.SessionObserver = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "attempts_total",
			Help:      "Stopped attempts by outcome.",
		}, []string{"outcome"}),
		cameraFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "camera_failures_total",
			Help:      "Camera acquisition failures by kind.",
		}, []string{"kind"}),
		quotaRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "quota_rejections_total",
			Help:      "Start requests refused because the daily quota was reached.",
		}),
		holdSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "hold_seconds",
			Help:      "Length of holds that reached the stopwatch.",
			Buckets:   []float64{5, 10, 20, 30, 45, 60, 90, 120, 180, 300, 600},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	reg.MustRegister(m.attempts, m.cameraFailures, m.quotaRejections, m.holdSeconds, m.httpRequests, m.httpDuration)
	return m
}

// OnSessionEvent records attempt outcomes, camera failures and quota
// rejections.
func (m *Metrics) OnSessionEvent(e domain.SessionEvent) {
	switch e.Type {
	case domain.EventStopped:
		m.attempts.WithLabelValues(string(e.Outcome)).Inc()
		if e.Outcome == domain.OutcomeRecorded || e.Outcome == domain.OutcomeTooShort {
			m.holdSeconds.Observe(float64(e.Elapsed))
		}
	case domain.EventCameraFailed:
		m.cameraFailures.WithLabelValues(e.Kind).Inc()
	case domain.EventQuotaRejected:
		m.quotaRejections.Inc()
	}
}

// Middleware counts and times every request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.Status)).Inc()
		m.httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// StatusRecorder captures the response status while passing through
// flushing and hijacking, which the event stream needs.
type StatusRecorder struct {
	http.ResponseWriter
	Status      int
	wroteHeader bool
}

// WriteHeader records the status.
func (r *StatusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.Status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

// Write marks the header as written.
func (r *StatusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Flush forwards to the underlying writer when it supports flushing.
func (r *StatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack forwards to the underlying writer.
func (r *StatusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (r *StatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
