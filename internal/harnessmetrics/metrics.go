// Package harnessmetrics holds the prometheus collectors of the harness.
package harnessmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	Registry *prometheus.Registry

	PollAttempts    *prometheus.CounterVec
	RelayIterations prometheus.Counter
	RelayErrors     *prometheus.CounterVec
	RelayedHeight   *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		PollAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harness_poll_attempts_total",
			Help: "Unsuccessful state checks while waiting on a chain",
		}, []string{"chain_id", "waiter"}),
		RelayIterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harness_relay_iterations_total",
			Help: "Relay loop iterations",
		}),
		RelayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harness_relay_errors_total",
			Help: "Errors returned by the relayer inside the relay loop",
		}, []string{"phase"}),
		RelayedHeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "harness_relayed_height",
			Help: "Height up to which packets and acknowledgements have been relayed",
		}, []string{"side"}),
	}
	m.Registry.MustRegister(m.PollAttempts, m.RelayIterations, m.RelayErrors, m.RelayedHeight)
	return m
}

func (m *Metrics) IncPollAttempt(chainID, waiter string) {
	if m == nil {
		return
	}
	m.PollAttempts.WithLabelValues(chainID, waiter).Inc()
}

func (m *Metrics) IncRelayIteration() {
	if m == nil {
		return
	}
	m.RelayIterations.Inc()
}

func (m *Metrics) IncRelayError(phase string) {
	if m == nil {
		return
	}
	m.RelayErrors.WithLabelValues(phase).Inc()
}

func (m *Metrics) SetRelayedHeight(side string, height int64) {
	if m == nil {
		return
	}
	m.RelayedHeight.WithLabelValues(side).Set(float64(height))
}
