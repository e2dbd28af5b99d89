package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Classification outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeDegenerate = "degenerate"
	OutcomeError      = "error"
)

// Metrics exports assessment metrics to Prometheus. A nil *Metrics is a no-op.
type Metrics struct {
	classifyDuration *prometheus.HistogramVec
	classifications  *prometheus.CounterVec
	primaryTypes     *prometheus.CounterVec
	compatLookups    *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg (the default registerer when nil).
// Registering twice reuses the collectors already present.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = "readingcompass"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		classifyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Latency of assessment finalization.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"taxonomy"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Finalization attempts by outcome.",
		}, []string{"taxonomy", "outcome"}),
		primaryTypes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "primary_type_total",
			Help:      "Stored profiles by primary type.",
		}, []string{"taxonomy", "type"}),
		compatLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compatibility_lookups_total",
			Help:      "Compatibility lookups by result.",
		}, []string{"result"}),
	}

	var err error
	if m.classifyDuration, err = registerVec(reg, m.classifyDuration); err != nil {
		return nil, err
	}
	if m.classifications, err = registerVec(reg, m.classifications); err != nil {
		return nil, err
	}
	if m.primaryTypes, err = registerVec(reg, m.primaryTypes); err != nil {
		return nil, err
	}
	if m.compatLookups, err = registerVec(reg, m.compatLookups); err != nil {
		return nil, err
	}
	return m, nil
}

func registerVec[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("register metric: %w", err)
}

// ObserveClassification records one finalize attempt.
func (m *Metrics) ObserveClassification(taxonomyID, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.classifyDuration.WithLabelValues(taxonomyID).Observe(elapsed.Seconds())
	m.classifications.WithLabelValues(taxonomyID, outcome).Inc()
}

// ObservePrimary counts a stored profile's primary type.
func (m *Metrics) ObservePrimary(taxonomyID, typeID string) {
	if m == nil {
		return
	}
	m.primaryTypes.WithLabelValues(taxonomyID, typeID).Inc()
}

// ObserveCompatibility records a lookup result: hit, miss or pending.
func (m *Metrics) ObserveCompatibility(result string) {
	if m == nil {
		return
	}
	m.compatLookups.WithLabelValues(result).Inc()
}
