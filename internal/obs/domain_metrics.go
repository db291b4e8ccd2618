package obs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Statement outcome labels.
const (
	StatementResultOK              = "ok"
	StatementResultCached          = "cached"
	StatementResultUnknownPlay     = "unknown_play"
	StatementResultUnknownPlayType = "unknown_play_type"
	StatementResultOverflow        = "overflow"
	StatementResultError           = "error"
)

// StatementMetrics holds collectors describing statement generation.
type StatementMetrics struct {
	Generated *prometheus.CounterVec
	Latency   *prometheus.HistogramVec
	Billed    prometheus.Counter
}

var (
	domainOnce sync.Once
	domain     *StatementMetrics
)

// NewStatementMetrics registers statement collectors on reg.
func NewStatementMetrics(namespace string, reg prometheus.Registerer) *StatementMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &StatementMetrics{
		Generated: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_generated_total",
			Help:      "Count of statement generation outcomes.",
		}, []string{"result"})),
		Latency: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "statement_generate_duration_ms",
			Help:      "Latency of statement generation in milliseconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		}, []string{"result"})),
		Billed: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statement_billed_cents_total",
			Help:      "Sum of freshly computed statement totals in minor currency units.",
		})),
	}
}

// MustRegisterDomainMetrics initialises the process-wide statement collectors once.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) *StatementMetrics {
	domainOnce.Do(func() {
		domain = NewStatementMetrics(namespace, reg)
	})
	return domain
}

// Observe records one statement outcome. A nil receiver is a no-op.
func (m *StatementMetrics) Observe(result string, d time.Duration, billed int64) {
	if m == nil {
		return
	}
	m.Generated.WithLabelValues(result).Inc()
	m.Latency.WithLabelValues(result).Observe(DurationMillis(d))
	if billed > 0 {
		m.Billed.Add(float64(billed))
	}
}
