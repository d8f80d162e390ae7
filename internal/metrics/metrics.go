// Package metrics holds the Prometheus instrumentation of the vault engine.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status label for successful operations.
const StatusOK = "ok"

// EngineMetrics counts engine operations and the amounts they move.
type EngineMetrics struct {
	// Operations partitioned by operation and status.
	operations *prometheus.CounterVec

	// Latencies partitioned by operation.
	latencies *prometheus.HistogramVec

	// Token amounts moved, partitioned by operation.
	amounts *prometheus.CounterVec
}

// NewEngineMetrics creates and registers the engine metrics with reg. A nil
// registerer uses prometheus.DefaultRegisterer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &EngineMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vault_engine_operations_total",
				Help: "How many vault engine operations ran, partitioned by operation and status.",
			},
			[]string{"operation", "status"},
		),
		latencies: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "vault_engine_operation_seconds",
				Help: "How long vault engine operations take, partitioned by operation.",
			},
			[]string{"operation"},
		),
		amounts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vault_engine_amount_moved_total",
				Help: "Token amounts moved by committed operations, partitioned by operation.",
			},
			[]string{"operation"},
		),
	}
	m.operations = registerOnce(reg, m.operations).(*prometheus.CounterVec)
	m.latencies = registerOnce(reg, m.latencies).(*prometheus.HistogramVec)
	m.amounts = registerOnce(reg, m.amounts).(*prometheus.CounterVec)
	return m
}

// Observe records one finished operation.
func (m *EngineMetrics) Observe(operation, status string, started time.Time) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, status).Inc()
	m.latencies.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// AddAmount records tokens moved by a committed operation.
func (m *EngineMetrics) AddAmount(operation string, amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.amounts.WithLabelValues(operation).Add(float64(amount))
}

// registerOnce registers c, returning the already registered collector if
// an identical one exists.
func registerOnce(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}
