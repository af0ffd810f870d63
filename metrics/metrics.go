// Package metrics exports list activity as Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stevemurr/gwconsole/records"
)

const namespace = "gwconsole"

// Metrics implements records.Observer.
type Metrics struct {
	mutations  *prometheus.CounterVec
	commands   *prometheus.CounterVec
	invalid    *prometheus.CounterVec
	persist    *prometheus.CounterVec
	recordSize *prometheus.GaugeVec
}

var _ records.Observer = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_mutations_total",
			Help:      "Record list mutations, by list and operation.",
		}, []string{"list", "op"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_commands_total",
			Help:      "Bulk commands dispatched, by list and command.",
		}, []string{"list", "command"}),
		invalid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Saves rejected by schema validation.",
		}, []string{"list"}),
		persist: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Failed writes of a list slot, by list and operation.",
		}, []string{"list", "op"}),
		recordSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Records currently held by each list.",
		}, []string{"list"}),
	}
	for _, c := range []prometheus.Collector{m.mutations, m.commands, m.invalid, m.persist, m.recordSize} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Mutated(list, op string, size int) {
	if op != "load" {
		m.mutations.WithLabelValues(list, op).Inc()
	}
	m.recordSize.WithLabelValues(list).Set(float64(size))
}

func (m *Metrics) Dispatched(list string, cmd records.Command) {
	m.commands.WithLabelValues(list, cmd.String()).Inc()
}

func (m *Metrics) ValidationFailed(list string, _ int) {
	m.invalid.WithLabelValues(list).Inc()
}

func (m *Metrics) PersistFailed(list, op string) {
	m.persist.WithLabelValues(list, op).Inc()
}
