// Package observability bundles Prometheus collectors for the assistant.
package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles Prometheus collectors for turns, tokens, and tools.
type Metrics struct {
	registry      *prometheus.Registry
	Turns         *prometheus.CounterVec
	TurnDuration  *prometheus.HistogramVec
	Tokens        *prometheus.CounterVec
	ToolRuns      *prometheus.CounterVec
	ParseWarnings prometheus.Counter
	LimiterWait   prometheus.Histogram
}

// NewMetrics constructs a metrics registry with assistant collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	turns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "botcoder_turns_total",
		Help: "Conversation turns by outcome",
	}, []string{"outcome"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "botcoder_turn_duration_seconds",
		Help:    "Turn duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "botcoder_tokens_total",
		Help: "Estimated tokens by direction (prompt or completion)",
	}, []string{"direction"})

	toolRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "botcoder_tool_executions_total",
		Help: "Tool executions by tool name and outcome",
	}, []string{"tool", "outcome"})

	parseWarnings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "botcoder_parse_warnings_total",
		Help: "Malformed tool segments skipped by the parser",
	})

	limiterWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "botcoder_rate_limit_wait_seconds",
		Help:    "Waits advised by the rate limiter",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	reg.MustRegister(turns, durs, tokens, toolRuns, parseWarnings, limiterWait)

	return &Metrics{
		registry:      reg,
		Turns:         turns,
		TurnDuration:  durs,
		Tokens:        tokens,
		ToolRuns:      toolRuns,
		ParseWarnings: parseWarnings,
		LimiterWait:   limiterWait,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordTurn records a completed turn.
func (m *Metrics) RecordTurn(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.Turns.WithLabelValues(outcome).Inc()
	m.TurnDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// AddTokens accounts tokens by direction.
func (m *Metrics) AddTokens(direction string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.Tokens.WithLabelValues(direction).Add(float64(count))
}

// RecordToolRun records a single tool execution.
func (m *Metrics) RecordToolRun(tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolRuns.WithLabelValues(tool, outcome).Inc()
}

// RecordParseWarnings accounts skipped malformed segments.
func (m *Metrics) RecordParseWarnings(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ParseWarnings.Add(float64(n))
}

// ObserveLimiterWait records a wait advised by the rate limiter.
func (m *Metrics) ObserveLimiterWait(d time.Duration) {
	if m == nil || d <= 0 {
		return
	}
	m.LimiterWait.Observe(d.Seconds())
}

// Serve exposes the registry on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
