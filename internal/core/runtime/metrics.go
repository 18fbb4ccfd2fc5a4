package runtime

import (
	"strconv"

	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records call counts and reverts. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	calls   *prometheus.CounterVec
	reverts *prometheus.CounterVec
	depth   prometheus.Histogram
}

// NewMetrics creates the engine collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ammd",
			Name:      "calls_total",
			Help:      "Contract calls executed, including nested calls.",
		}, []string{"contract", "op"}),
		reverts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ammd",
			Name:      "reverts_total",
			Help:      "Contract calls that reverted, by result code.",
		}, []string{"contract", "op", "code"}),
		depth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ammd",
			Name:      "call_depth",
			Help:      "Nesting depth at which calls executed.",
			Buckets:   prometheus.LinearBuckets(0, 1, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.reverts, m.depth)
	}
	return m
}

func (m *Metrics) observe(kind Kind, opcode uint64, depth int, err error) {
	if m == nil {
		return
	}
	op := strconv.FormatUint(opcode, 10)
	m.calls.WithLabelValues(string(kind), op).Inc()
	m.depth.Observe(float64(depth))
	if err != nil {
		m.reverts.WithLabelValues(string(kind), op, ter.Of(err).String()).Inc()
	}
}
