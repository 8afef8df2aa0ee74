package migration

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts bridge activity. A nil *Metrics records nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	entities *prometheus.CounterVec
	bytes    *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dgmigrate",
				Subsystem: "bridge",
				Name:      "callbacks_total",
				Help:      "Kernel migration callbacks handled.",
			},
			[]string{"rank", "callback"},
		),
		entities: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dgmigrate",
				Subsystem: "bridge",
				Name:      "entities_total",
				Help:      "Entities visited by the combined operator.",
			},
			[]string{"rank", "direction"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dgmigrate",
				Subsystem: "bridge",
				Name:      "bytes_total",
				Help:      "Application payload bytes written or read.",
			},
			[]string{"rank", "direction"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.entities, m.bytes)
	}
	return m
}

func (m *Metrics) record(rank, callback string, dir Direction, entities, bytes int) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(rank, callback).Inc()
	m.entities.WithLabelValues(rank, dir.String()).Add(float64(entities))
	m.bytes.WithLabelValues(rank, dir.String()).Add(float64(bytes))
}
