package monitor

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"procurecore/pkg/domain"
)

// PrometheusRecorder exports service operation outcomes as prometheus
// metrics. It satisfies the core service MetricsRecorder interface.
type PrometheusRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewPrometheusRecorder builds the recorder and registers its collectors on
// reg. A nil registerer falls back to the default registry.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusRecorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "procurecore",
			Name:      "operations_total",
			Help:      "Count of service operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "procurecore",
			Name:      "operation_duration_seconds",
			Help:      "Duration of service operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{r.operations, r.durations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records one operation outcome.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	r.operations.WithLabelValues(operation, outcome).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// RegisterEntityGauges exposes live entity counts from the store as gauges.
func RegisterEntityGauges(reg prometheus.Registerer, store domain.PersistentStore) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gauges := []struct {
		name  string
		help  string
		count func() int
	}{
		{"materials", "Number of materials in the store.", func() int { return len(store.ListMaterials()) }},
		{"requisitions", "Number of purchase requisitions in the store.", func() int { return len(store.ListRequisitions()) }},
		{"orders", "Number of purchase orders in the store.", func() int { return len(store.ListOrders()) }},
	}
	for _, g := range gauges {
		count := g.count
		gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "procurecore",
			Name:      g.name + "_count",
			Help:      g.help,
		}, func() float64 { return float64(count()) })
		if err := reg.Register(gauge); err != nil {
			return err
		}
	}
	return nil
}
