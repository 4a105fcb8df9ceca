package stress

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation names used as the "op" label.
const (
	opAdd      = "add"
	opRemove   = "remove"
	opContains = "contains"
	opForEach  = "foreach"
	opConsume  = "consume"
	opClear    = "clear"
)

type metrics struct {
	// ops counts list operations by operation and result.
	ops *prometheus.CounterVec

	// listLen tracks the most recently observed list length.
	listLen prometheus.Gauge
}

// newMetrics creates the run metrics and registers them with reg.
// If reg is nil, the metrics are not registered anywhere.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		ops: f.NewCounterVec(prometheus.CounterOpts{
			Name: "conclist_stress_ops_total",
			Help: "Total list operations performed by the stress run, by operation and result",
		}, []string{"op", "result"}),
		listLen: f.NewGauge(prometheus.GaugeOpts{
			Name: "conclist_stress_list_len",
			Help: "Approximate list length as last observed by the stress run",
		}),
	}
}

func (m *metrics) record(op string, ok bool) {
	result := "hit"
	if !ok {
		result = "miss"
	}
	m.ops.WithLabelValues(op, result).Inc()
}
