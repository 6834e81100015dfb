// Package metrics exposes pivot table refresh counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pivotsvc/internal/pivot"
)

const namespace = "pivot"

// Collector records table refresh passes, it implements pivot.Observer.
type Collector struct {
	refreshes *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	rows      prometheus.Gauge
	cols      prometheus.Gauge
	cells     prometheus.Gauge
	loads     *prometheus.CounterVec
}

// New registers pivot collectors on reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Number of pivot table refresh passes by kind.",
		}, []string{"kind"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of pivot table refresh passes by kind.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"kind"}),
		rows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "view_rows",
			Help:      "Row count of the current pivot view.",
		}),
		cols: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "view_cols",
			Help:      "Column count of the current pivot view.",
		}),
		cells: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "view_cells",
			Help:      "Number of non-empty cells of the current pivot view.",
		}),
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "data_loads_total",
			Help:      "Number of output table data loads by result.",
		}, []string{"result"}),
	}
}

// Observe implements pivot.Observer.
func (c *Collector) Observe(kind pivot.RefreshKind, elapsed time.Duration, v *pivot.View) {
	k := kind.String()
	c.refreshes.WithLabelValues(k).Inc()
	c.duration.WithLabelValues(k).Observe(elapsed.Seconds())
	c.rows.Set(float64(v.RowCount()))
	c.cols.Set(float64(v.ColCount()))
	c.cells.Set(float64(v.CellCount()))
}

// Load counts a data load, failed if err is not nil.
func (c *Collector) Load(err error) {
	if err != nil {
		c.loads.WithLabelValues("error").Inc()
		return
	}
	c.loads.WithLabelValues("ok").Inc()
}

// Handler serves /metrics of a registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
