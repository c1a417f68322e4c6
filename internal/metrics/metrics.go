// Package metrics counts reductions with Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"nickandperla.net/ski/internal/eval"
)

const namespace = "ski"

// Metrics holds the reduction collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	expressions *prometheus.CounterVec
	rules       *prometheus.CounterVec
	passes      prometheus.Histogram
	nodes       prometheus.Histogram
	duration    prometheus.Histogram
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		expressions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expressions_total",
			Help:      "Expressions reduced, by terminal status.",
		}, []string{"status"}),
		rules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_firings_total",
			Help:      "Reduction rule firings, by rule.",
		}, []string{"rule"}),
		passes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reduction_passes",
			Help:      "Changing passes per expression.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		nodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "normal_form_nodes",
			Help:      "Size of the final tree per expression.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reduction_seconds",
			Help:      "Wall-clock time per expression.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.expressions, m.rules, m.passes, m.nodes, m.duration)
	return m
}

// ObserveReduction implements eval.Observer.
func (m *Metrics) ObserveReduction(o eval.Outcome, elapsed time.Duration) {
	m.expressions.WithLabelValues(o.Status.String()).Inc()
	m.rules.WithLabelValues(eval.RuleI.String()).Add(float64(o.Rules.I))
	m.rules.WithLabelValues(eval.RuleK.String()).Add(float64(o.Rules.K))
	m.rules.WithLabelValues(eval.RuleS.String()).Add(float64(o.Rules.S))
	m.passes.Observe(float64(o.Passes))
	m.nodes.Observe(float64(o.Nodes))
	m.duration.Observe(elapsed.Seconds())
}

// Registry exposes the registry, e.g. for an HTTP handler or tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the node-exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
