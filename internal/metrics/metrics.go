// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from rule execution and routing.
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//
// Concrete systems (Prometheus Pushgateway, Datadog) live in subpackages so
// the engine never imports them.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by every backend.
const (
	RuleTotal           = "lineparser_rule_total"
	RuleDurationSeconds = "lineparser_rule_duration_seconds"
	RowsTotal           = "lineparser_rows_total"
	StepTotal           = "lineparser_step_total"
	RouteTotal          = "lineparser_route_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordRule measures one rule run of a parser. mode is "table" or "scalar"
// on success.
func RecordRule(parser, rule, mode string, rows int, err error, d time.Duration) {
	b := current()
	lbls := Labels{
		"parser": parser,
		"rule":   rule,
		"status": status(err),
	}
	b.IncCounter(RuleTotal, 1, lbls)
	b.ObserveHistogram(RuleDurationSeconds, d.Seconds(), lbls)
	if err == nil && rows > 0 {
		b.IncCounter(RowsTotal, float64(rows), Labels{"parser": parser, "rule": rule, "mode": mode})
	}
}

// RecordStep counts one applied step by kind.
func RecordStep(kind string, err error) {
	current().IncCounter(StepTotal, 1, Labels{
		"kind":   kind,
		"status": status(err),
	})
}

// RecordRoute counts one router decision. outcome is "matched", "default"
// or "unrouted".
func RecordRoute(owner, target, outcome string) {
	current().IncCounter(RouteTotal, 1, Labels{
		"owner":   owner,
		"target":  target,
		"outcome": outcome,
	})
}
