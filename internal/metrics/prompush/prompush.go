// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// Rule, step and route counters map onto client_golang CounterVec
// collectors; rule durations onto a SummaryVec. The registry is pushed to a
// Pushgateway on Flush instead of being exposed for scraping, which suits
// the short-lived batch CLI.
package prompush

import (
	"fmt"

	"lineparser/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	ruleCounter  *prometheus.CounterVec // lineparser_rule_total
	ruleDuration *prometheus.SummaryVec // lineparser_rule_duration_seconds
	rowCounter   *prometheus.CounterVec // lineparser_rows_total
	stepCounter  *prometheus.CounterVec // lineparser_step_total
	routeCounter *prometheus.CounterVec // lineparser_route_total
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name.
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "lineparser"
	}

	reg := prometheus.NewRegistry()

	ruleCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RuleTotal,
			Help: "Rule runs, partitioned by parser, rule and status.",
		},
		[]string{"parser", "rule", "status"},
	)
	ruleDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.RuleDurationSeconds,
			Help:       "Duration of rule runs in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"parser", "rule", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows produced by table rules.",
		},
		[]string{"parser", "rule", "mode"},
	)
	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Applied steps by kind and status.",
		},
		[]string{"kind", "status"},
	)
	routeCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RouteTotal,
			Help: "Router decisions by owner, target and outcome.",
		},
		[]string{"owner", "target", "outcome"},
	)

	for name, c := range map[string]prometheus.Collector{
		"rule counter":  ruleCounter,
		"rule summary":  ruleDuration,
		"row counter":   rowCounter,
		"step counter":  stepCounter,
		"route counter": routeCounter,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		ruleCounter:  ruleCounter,
		ruleDuration: ruleDuration,
		rowCounter:   rowCounter,
		stepCounter:  stepCounter,
		routeCounter: routeCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.RuleTotal:
		b.ruleCounter.WithLabelValues(labels["parser"], labels["rule"], labels["status"]).Add(delta)
	case metrics.RowsTotal:
		b.rowCounter.WithLabelValues(labels["parser"], labels["rule"], labels["mode"]).Add(delta)
	case metrics.StepTotal:
		b.stepCounter.WithLabelValues(labels["kind"], labels["status"]).Add(delta)
	case metrics.RouteTotal:
		b.routeCounter.WithLabelValues(labels["owner"], labels["target"], labels["outcome"]).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.RuleDurationSeconds {
		return
	}
	b.ruleDuration.WithLabelValues(labels["parser"], labels["rule"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
